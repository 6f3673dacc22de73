package models

import "time"

// Profile extends an Account with contact details and a cached projection of
// the guest's RSVP on the main event.
type Profile struct {
	UserID              string      `json:"user_id" gorm:"primaryKey;size:36"`
	FirstName           string      `json:"first_name" gorm:"size:100"`
	LastName            string      `json:"last_name" gorm:"size:100"`
	Email               string      `json:"email" gorm:"size:255"`
	Mobile              string      `json:"mobile,omitempty" gorm:"size:30"`
	Address             string      `json:"address,omitempty" gorm:"type:text"`
	DietaryRequirements string      `json:"dietary_requirements,omitempty" gorm:"type:text"`
	AccessibilityNeeds  string      `json:"accessibility_needs,omitempty" gorm:"type:text"`
	PlusOneName         string      `json:"plus_one_name,omitempty" gorm:"size:200"`
	PlusOneDietary      string      `json:"plus_one_dietary,omitempty" gorm:"type:text"`
	GuestID             *string     `json:"guest_id,omitempty" gorm:"size:36"`
	RSVPCompleted       bool        `json:"rsvp_completed" gorm:"not null;default:false"`
	RSVPStatus          *RSVPStatus `json:"rsvp_status,omitempty" gorm:"type:varchar(20)"`
	RSVPRespondedAt     *time.Time  `json:"rsvp_responded_at,omitempty"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// NeedsRSVP reports whether the guest has not yet answered
func (p Profile) NeedsRSVP() bool {
	if p.RSVPRespondedAt != nil {
		return false
	}
	return p.RSVPStatus == nil || *p.RSVPStatus == RSVPPending
}
