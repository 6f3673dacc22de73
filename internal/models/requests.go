package models

import "time"

// TransportRequest records that a guest needs a ride
type TransportRequest struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	UserID         string    `json:"user_id" gorm:"size:36;index"`
	GuestID        *string   `json:"guest_id,omitempty" gorm:"size:36"`
	PickupLocation string    `json:"pickup_location" gorm:"size:255"`
	Passengers     int       `json:"passengers"`
	Notes          string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
}

func (TransportRequest) TableName() string {
	return "transport_requests"
}

// AccommodationRequest records that a guest needs a place to stay
type AccommodationRequest struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"size:36;index"`
	GuestID   *string   `json:"guest_id,omitempty" gorm:"size:36"`
	Nights    int       `json:"nights"`
	Rooms     int       `json:"rooms"`
	Notes     string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (AccommodationRequest) TableName() string {
	return "accommodation_requests"
}
