package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wedding-rsvp/internal/models"
)

// rsvpColumns are overwritten when an RSVP for the same (user, event) exists
var rsvpColumns = []string{
	"status", "guest_count", "dietary_requirements", "message", "plus_one_name", "updated_at",
}

// SafeUpsertRSVP creates or updates the single RSVP for (user_id, event_id)
// inside one transaction using INSERT ... ON CONFLICT DO UPDATE, so concurrent
// submissions converge on one row. When the event is the main event, the
// profile and guest snapshots are refreshed in the same transaction.
// rsvp is overwritten with the stored row.
func (s *Storage) SafeUpsertRSVP(ctx context.Context, rsvp *models.RSVP) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		row := *rsvp
		row.ID = uuid.NewString()
		row.CreatedAt = now
		row.UpdatedAt = now

		columns := rsvpColumns
		if row.GuestID != nil {
			columns = append(append([]string{}, rsvpColumns...), "guest_id")
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to upsert rsvp: %w", translate(err))
		}

		var stored models.RSVP
		if err := tx.Where("user_id = ? AND event_id = ?", rsvp.UserID, rsvp.EventID).Take(&stored).Error; err != nil {
			return fmt.Errorf("failed to read back rsvp: %w", translate(err))
		}

		var mains int64
		if err := tx.Model(&models.WeddingEvent{}).
			Where("id = ? AND is_main_event = ?", stored.EventID, true).
			Count(&mains).Error; err != nil {
			return fmt.Errorf("failed to resolve event: %w", err)
		}
		if mains > 0 {
			if err := projectRSVP(tx, &stored, now); err != nil {
				return err
			}
		}

		*rsvp = stored
		return nil
	})
}

// CheckThenActUpsertRSVP looks up the RSVP for (user_id, event_id) and then
// updates or inserts it in separate statements. Two concurrent calls can both
// miss the lookup; the loser then fails on the unique index with ErrConflict.
// Use SafeUpsertRSVP for anything user facing.
func (s *Storage) CheckThenActUpsertRSVP(ctx context.Context, rsvp *models.RSVP) error {
	now := time.Now()
	out := models.RSVP{ID: uuid.NewString(), CreatedAt: now}
	err := s.db.WithContext(ctx).
		Where(models.RSVP{UserID: rsvp.UserID, EventID: rsvp.EventID}).
		Assign(map[string]any{
			"guest_id":             rsvp.GuestID,
			"status":               rsvp.Status,
			"guest_count":          rsvp.GuestCount,
			"dietary_requirements": rsvp.DietaryRequirements,
			"message":              rsvp.Message,
			"plus_one_name":        rsvp.PlusOneName,
			"updated_at":           now,
		}).
		FirstOrCreate(&out).Error
	if err != nil {
		return fmt.Errorf("failed to upsert rsvp: %w", translate(err))
	}
	*rsvp = out
	return nil
}

// GetRSVP returns the RSVP of a user for an event
func (s *Storage) GetRSVP(ctx context.Context, userID, eventID string) (*models.RSVP, error) {
	var r models.RSVP
	if err := s.db.WithContext(ctx).Where("user_id = ? AND event_id = ?", userID, eventID).Take(&r).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// ListRSVPsByUser returns every RSVP of a user
func (s *Storage) ListRSVPsByUser(ctx context.Context, userID string) ([]models.RSVP, error) {
	var rsvps []models.RSVP
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&rsvps).Error; err != nil {
		return nil, fmt.Errorf("failed to list rsvps: %w", err)
	}
	return rsvps, nil
}

// ListRSVPs returns all RSVPs for an event
func (s *Storage) ListRSVPs(ctx context.Context, eventID string) ([]models.RSVP, error) {
	var rsvps []models.RSVP
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).Order("created_at").Find(&rsvps).Error; err != nil {
		return nil, fmt.Errorf("failed to list rsvps: %w", err)
	}
	return rsvps, nil
}

// DeleteRSVP removes an RSVP by id. Guest snapshots of a main-event RSVP
// fall back to pending; callers that know the earlier value restore it with
// SetGuestRSVPStatus.
func (s *Storage) DeleteRSVP(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r models.RSVP
		if err := tx.Where("id = ?", id).Take(&r).Error; err != nil {
			return translate(err)
		}
		if err := tx.Delete(&r).Error; err != nil {
			return fmt.Errorf("failed to delete rsvp: %w", err)
		}

		var event models.WeddingEvent
		if err := tx.Where("id = ?", r.EventID).Take(&event).Error; err != nil || !event.IsMainEvent {
			return nil
		}
		if err := snapshotGuests(tx, &r).Updates(map[string]any{"rsvp_status": models.RSVPPending, "updated_at": time.Now()}).Error; err != nil {
			return fmt.Errorf("failed to reset guest status: %w", err)
		}
		return nil
	})
}

// Summary aggregates the RSVPs of one event
func (s *Storage) Summary(ctx context.Context, eventID string) (*models.RSVPSummary, error) {
	var rows []struct {
		Status models.RSVPStatus
		N      int64
		Heads  int64
	}
	db := s.db.WithContext(ctx)
	err := db.Model(&models.RSVP{}).
		Select("status, COUNT(*) AS n, COALESCE(SUM(guest_count), 0) AS heads").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize rsvps: %w", err)
	}

	summary := &models.RSVPSummary{Counts: make(map[models.RSVPStatus]int64, len(models.AllStatuses))}
	for _, st := range models.AllStatuses {
		summary.Counts[st] = 0
	}
	for _, r := range rows {
		status := models.MapUIToDatabase(string(r.Status))
		summary.Counts[status] += r.N
		summary.Responses += r.N
		if status == models.RSVPAttending {
			summary.HeadCount += r.Heads
		}
	}
	if err := db.Model(&models.Guest{}).Count(&summary.GuestsTotal).Error; err != nil {
		return nil, fmt.Errorf("failed to count guests: %w", err)
	}
	return summary, nil
}
