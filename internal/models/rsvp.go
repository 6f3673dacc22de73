package models

import "time"

// MaxGuestCount caps the party size of one RSVP
const MaxGuestCount = 10

// RSVP is the attendance record for a (user, event) pair
type RSVP struct {
	ID                  string     `json:"id" gorm:"primaryKey;size:36"`
	UserID              string     `json:"user_id" gorm:"size:36;not null;uniqueIndex:idx_rsvps_user_event"`
	EventID             string     `json:"event_id" gorm:"size:36;not null;uniqueIndex:idx_rsvps_user_event"`
	GuestID             *string    `json:"guest_id,omitempty" gorm:"size:36"`
	Status              RSVPStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	GuestCount          int        `json:"guest_count" gorm:"not null;default:0"`
	DietaryRequirements *string    `json:"dietary_requirements,omitempty" gorm:"type:text"`
	Message             *string    `json:"message"`
	PlusOneName         *string    `json:"plus_one_name,omitempty" gorm:"size:200"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (RSVP) TableName() string {
	return "rsvps"
}

// RSVPSummary aggregates responses across all guests
type RSVPSummary struct {
	Counts      map[RSVPStatus]int64 `json:"counts"`
	Responses   int64                `json:"responses"`
	HeadCount   int64                `json:"head_count"`
	GuestsTotal int64                `json:"guests_total"`
}
