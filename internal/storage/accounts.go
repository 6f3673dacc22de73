package storage

import (
	"context"
	"fmt"
	"strings"

	"wedding-rsvp/internal/models"
)

// CreateAccount stores a new account. A duplicate email returns ErrConflict.
func (s *Storage) CreateAccount(ctx context.Context, account *models.Account) error {
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create account: %w", translate(err))
	}
	return nil
}

// GetAccount retrieves an account by id
func (s *Storage) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// GetAccountByEmail retrieves an account by its lowercased email
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Take(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// DeleteAccount removes an account and its profile
func (s *Storage) DeleteAccount(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("user_id = ?", id).Delete(&models.Profile{}).Error; err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	res := db.Where("id = ?", id).Delete(&models.Account{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
