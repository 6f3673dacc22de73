package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wedding-rsvp/internal/models"
)

// CreateTransportRequest stores a ride request
func (s *Storage) CreateTransportRequest(ctx context.Context, req *models.TransportRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.CreatedAt = time.Now()
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create transport request: %w", err)
	}
	return nil
}

// CreateAccommodationRequest stores a room request
func (s *Storage) CreateAccommodationRequest(ctx context.Context, req *models.AccommodationRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.CreatedAt = time.Now()
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create accommodation request: %w", err)
	}
	return nil
}

// ListTransportRequests returns the ride requests of a user
func (s *Storage) ListTransportRequests(ctx context.Context, userID string) ([]models.TransportRequest, error) {
	var reqs []models.TransportRequest
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transport requests: %w", err)
	}
	return reqs, nil
}

// ListAccommodationRequests returns the room requests of a user
func (s *Storage) ListAccommodationRequests(ctx context.Context, userID string) ([]models.AccommodationRequest, error) {
	var reqs []models.AccommodationRequest
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to list accommodation requests: %w", err)
	}
	return reqs, nil
}
