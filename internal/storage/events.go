package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wedding-rsvp/internal/models"
)

// CreateEvent adds a wedding event
func (s *Storage) CreateEvent(ctx context.Context, event *models.WeddingEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", translate(err))
	}
	return nil
}

// GetEvent retrieves an event by id
func (s *Storage) GetEvent(ctx context.Context, id string) (*models.WeddingEvent, error) {
	var e models.WeddingEvent
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

// ListEvents returns events in chronological order
func (s *Storage) ListEvents(ctx context.Context) ([]models.WeddingEvent, error) {
	var events []models.WeddingEvent
	if err := s.db.WithContext(ctx).Order("starts_at").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// PrimaryEvent returns the earliest event flagged as the main event
func (s *Storage) PrimaryEvent(ctx context.Context) (*models.WeddingEvent, error) {
	var e models.WeddingEvent
	err := s.db.WithContext(ctx).
		Where("is_main_event = ?", true).
		Order("starts_at").
		Take(&e).Error
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}
