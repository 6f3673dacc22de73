package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wedding-rsvp/internal/models"
)

// AddGuest adds a new guest or updates an existing one with the same email
// (or, without email, the same mobile and name). An existing RSVP snapshot
// and user link are preserved.
func (s *Storage) AddGuest(ctx context.Context, guest *models.Guest) error {
	guest.Email = strings.ToLower(strings.TrimSpace(guest.Email))
	db := s.db.WithContext(ctx)

	var existing models.Guest
	q := db.Model(&models.Guest{})
	switch {
	case guest.Email != "":
		q = q.Where("email = ?", guest.Email)
	case guest.Mobile != "":
		// households often share one phone
		q = q.Where("mobile = ? AND first_name = ? AND last_name = ?", guest.Mobile, guest.FirstName, guest.LastName)
	default:
		q = nil
	}
	if q != nil {
		err := q.Take(&existing).Error
		if err == nil {
			guest.ID = existing.ID
			guest.CreatedAt = existing.CreatedAt
			guest.UserID = existing.UserID
			if guest.RSVPStatus == "" {
				guest.RSVPStatus = existing.RSVPStatus
			}
			if err := db.Save(guest).Error; err != nil {
				return fmt.Errorf("failed to update guest: %w", err)
			}
			return nil
		}
		if err := translate(err); err != ErrNotFound {
			return fmt.Errorf("failed to look up guest: %w", err)
		}
	}

	if guest.ID == "" {
		guest.ID = uuid.NewString()
	}
	if guest.RSVPStatus == "" {
		guest.RSVPStatus = models.RSVPPending
	}
	if err := db.Create(guest).Error; err != nil {
		return fmt.Errorf("failed to add guest: %w", translate(err))
	}
	return nil
}

// GetGuest retrieves a guest by id
func (s *Storage) GetGuest(ctx context.Context, id string) (*models.Guest, error) {
	var g models.Guest
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&g).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// FindGuestByEmail matches email case-insensitively
func (s *Storage) FindGuestByEmail(ctx context.Context, email string) (*models.Guest, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrNotFound
	}
	var g models.Guest
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ?", email).
		Order("created_at").
		Take(&g).Error
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// FindGuestsByMobile returns every guest registered with the normalized mobile
func (s *Storage) FindGuestsByMobile(ctx context.Context, mobile string) ([]models.Guest, error) {
	if mobile == "" {
		return nil, nil
	}
	var guests []models.Guest
	if err := s.db.WithContext(ctx).Where("mobile = ?", mobile).Order("created_at").Find(&guests).Error; err != nil {
		return nil, fmt.Errorf("failed to query guests: %w", err)
	}
	return guests, nil
}

// GetGuestByUserID returns the guest linked to an account
func (s *Storage) GetGuestByUserID(ctx context.Context, userID string) (*models.Guest, error) {
	var g models.Guest
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&g).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// GetAllGuests returns all guests ordered by name
func (s *Storage) GetAllGuests(ctx context.Context) ([]models.Guest, error) {
	var guests []models.Guest
	if err := s.db.WithContext(ctx).Order("last_name, first_name").Find(&guests).Error; err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	return guests, nil
}

// GetGuestsByStatus returns guests filtered by their RSVP snapshot
func (s *Storage) GetGuestsByStatus(ctx context.Context, status models.RSVPStatus) ([]models.Guest, error) {
	var guests []models.Guest
	err := s.db.WithContext(ctx).
		Where("rsvp_status = ?", status).
		Order("last_name, first_name").
		Find(&guests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	return guests, nil
}

// GetLinkedGuestsAwaitingRSVP returns guests linked to an account whose
// profile has not recorded a response yet.
func (s *Storage) GetLinkedGuestsAwaitingRSVP(ctx context.Context) ([]models.Guest, error) {
	var guests []models.Guest
	err := s.db.WithContext(ctx).
		Model(&models.Guest{}).
		Select("guests.*").
		Joins("JOIN profiles ON profiles.user_id = guests.user_id").
		Where("profiles.rsvp_responded_at IS NULL").
		Where("profiles.rsvp_status IS NULL OR profiles.rsvp_status = ?", models.RSVPPending).
		Order("guests.last_name, guests.first_name").
		Find(&guests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list guests awaiting rsvp: %w", err)
	}
	return guests, nil
}

// LinkUserToGuest associates an account with a guest-list entry. A guest
// already linked to a different account is left alone and ErrConflict is
// returned.
func (s *Storage) LinkUserToGuest(ctx context.Context, userID, guestID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Guest
		if err := tx.Where("id = ?", guestID).Take(&g).Error; err != nil {
			return translate(err)
		}
		if g.UserID != nil && *g.UserID != "" && *g.UserID != userID {
			return fmt.Errorf("guest %s is linked to another account: %w", guestID, ErrConflict)
		}
		if err := tx.Model(&models.Guest{}).
			Where("id = ?", guestID).
			Updates(map[string]any{"user_id": userID, "updated_at": time.Now()}).Error; err != nil {
			return fmt.Errorf("failed to link guest: %w", err)
		}
		if err := tx.Model(&models.Profile{}).
			Where("user_id = ?", userID).
			Update("guest_id", guestID).Error; err != nil {
			return fmt.Errorf("failed to link profile: %w", err)
		}
		return nil
	})
}

// SetGuestRSVPStatus overwrites the RSVP snapshot of one guest
func (s *Storage) SetGuestRSVPStatus(ctx context.Context, guestID string, status models.RSVPStatus) error {
	res := s.db.WithContext(ctx).Model(&models.Guest{}).
		Where("id = ?", guestID).
		Updates(map[string]any{"rsvp_status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update guest status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
