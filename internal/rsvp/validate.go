package rsvp

import (
	"errors"
	"fmt"

	"wedding-rsvp/internal/models"
)

// ErrNoPrimaryEvent is returned when no event is flagged as the main event
var ErrNoPrimaryEvent = errors.New("no main event has been configured")

// ValidationError is returned before any store call. Its message is safe to
// show to the guest verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RemoteError wraps a failure reported by the data store
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// RSVPData is the input of an RSVP submission. Status accepts any known
// token ("confirmed", "declined", canonical values ...).
type RSVPData struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
	// GuestID is set by the server, never taken from a request body
	GuestID             *string `json:"-"`
	Status              string  `json:"status"`
	GuestCount          int     `json:"guest_count"`
	DietaryRequirements *string `json:"dietary_requirements,omitempty"`
	Message             *string `json:"message,omitempty"`
	PlusOneName         *string `json:"plus_one_name,omitempty"`
}

// ValidateRSVPData checks identifiers, status and guest count
func ValidateRSVPData(data RSVPData) error {
	if data.UserID == "" {
		return &ValidationError{Message: "user ID is required"}
	}
	if data.EventID == "" {
		return &ValidationError{Message: "event ID is required"}
	}
	if _, ok := models.LookupStatus(data.Status); !ok {
		return &ValidationError{Message: fmt.Sprintf("invalid RSVP status %q", data.Status)}
	}
	if data.GuestCount < 0 || data.GuestCount > models.MaxGuestCount {
		return &ValidationError{Message: fmt.Sprintf("guest count must be between 0 and %d", models.MaxGuestCount)}
	}
	return nil
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
