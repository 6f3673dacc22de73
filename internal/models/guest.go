package models

import "time"

// Guest represents a pre-registered wedding invitee seeded by the couple
type Guest struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	FirstName  string     `json:"first_name" gorm:"size:100;not null"`
	LastName   string     `json:"last_name" gorm:"size:100;not null"`
	Category   string     `json:"category,omitempty" gorm:"size:50"`
	Email      string     `json:"email,omitempty" gorm:"size:255;index"`
	Mobile     string     `json:"mobile,omitempty" gorm:"size:30;index"`
	RSVPStatus RSVPStatus `json:"rsvp_status" gorm:"type:varchar(20);not null;default:'pending'"`
	UserID     *string    `json:"user_id,omitempty" gorm:"size:36;index"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Guest) TableName() string {
	return "guests"
}

// FullName returns "First Last"
func (g Guest) FullName() string {
	if g.LastName == "" {
		return g.FirstName
	}
	return g.FirstName + " " + g.LastName
}
