package models

import "time"

// Account is an authenticated identity
type Account struct {
	ID               string     `json:"id" gorm:"primaryKey;size:36"`
	Email            string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash     string     `json:"-" gorm:"size:100;not null"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (Account) TableName() string {
	return "accounts"
}
