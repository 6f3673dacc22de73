package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wedding-rsvp/internal/models"
)

// profileContactColumns are written by UpsertProfile. The RSVP projection
// columns are only written alongside an RSVP.
var profileContactColumns = []string{
	"first_name", "last_name", "email", "mobile", "address",
	"dietary_requirements", "accessibility_needs",
	"plus_one_name", "plus_one_dietary", "updated_at",
}

// UpsertProfile creates or updates the contact part of a profile
func (s *Storage) UpsertProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(profileContactColumns),
	}).Omit("rsvp_completed", "rsvp_status", "rsvp_responded_at", "guest_id").Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", translate(err))
	}
	return nil
}

// GetProfile retrieves the profile of a user
func (s *Storage) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// projectRSVP refreshes the profile and guest snapshots of a main-event RSVP
func projectRSVP(tx *gorm.DB, rsvp *models.RSVP, now time.Time) error {
	status := rsvp.Status
	p := models.Profile{
		UserID:        rsvp.UserID,
		RSVPCompleted: true,
		RSVPStatus:    &status,
		UpdatedAt:     now,
	}
	columns := []string{"rsvp_completed", "rsvp_status", "updated_at"}
	if status != models.RSVPPending {
		p.RSVPRespondedAt = &now
		columns = append(columns, "rsvp_responded_at")
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("failed to project rsvp onto profile: %w", err)
	}

	if err := snapshotGuests(tx, rsvp).Updates(map[string]any{"rsvp_status": status, "updated_at": now}).Error; err != nil {
		return fmt.Errorf("failed to project rsvp onto guest: %w", err)
	}
	return nil
}

// snapshotGuests selects the guest rows that mirror an RSVP: guests linked to
// its user, plus the referenced guest while it is not linked to anyone.
func snapshotGuests(tx *gorm.DB, rsvp *models.RSVP) *gorm.DB {
	q := tx.Model(&models.Guest{})
	if rsvp.GuestID == nil {
		return q.Where("user_id = ?", rsvp.UserID)
	}
	return q.Where("user_id = ? OR (id = ? AND (user_id IS NULL OR user_id = ''))", rsvp.UserID, *rsvp.GuestID)
}
