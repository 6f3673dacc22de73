package models

import "time"

// WeddingEvent is one occasion guests can RSVP to
type WeddingEvent struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	StartsAt    time.Time `json:"starts_at"`
	Venue       string    `json:"venue,omitempty" gorm:"size:255"`
	IsMainEvent bool      `json:"is_main_event" gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"created_at"`
}

func (WeddingEvent) TableName() string {
	return "wedding_events"
}
