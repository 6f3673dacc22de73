package models

import "strings"

// RSVPStatus represents the canonical attendance status stored with an RSVP
type RSVPStatus string

const (
	RSVPPending      RSVPStatus = "pending"
	RSVPAttending    RSVPStatus = "attending"
	RSVPNotAttending RSVPStatus = "not_attending"
	RSVPMaybe        RSVPStatus = "maybe"
)

// AllStatuses lists the canonical statuses in display order
var AllStatuses = []RSVPStatus{RSVPAttending, RSVPMaybe, RSVPNotAttending, RSVPPending}

// UIStatus is the vocabulary shown to guests
type UIStatus string

const (
	UIPending   UIStatus = "pending"
	UIConfirmed UIStatus = "confirmed"
	UIDeclined  UIStatus = "declined"
	UIMaybe     UIStatus = "maybe"
)

// statusAliases holds every token accepted at the boundary, including legacy
// values written by older clients.
var statusAliases = map[string]RSVPStatus{
	"pending":       RSVPPending,
	"attending":     RSVPAttending,
	"not_attending": RSVPNotAttending,
	"maybe":         RSVPMaybe,
	"confirmed":     RSVPAttending,
	"declined":      RSVPNotAttending,
	"accepted":      RSVPAttending,
	"yes":           RSVPAttending,
	"no":            RSVPNotAttending,
	"not attending": RSVPNotAttending,
	"not-attending": RSVPNotAttending,
}

// LookupStatus resolves a token to its canonical status. ok is false for
// unrecognized input.
func LookupStatus(s string) (RSVPStatus, bool) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return status, ok
}

// MapUIToDatabase converts any status token to the canonical database value.
// Unrecognized input maps to pending.
func MapUIToDatabase(s string) RSVPStatus {
	if status, ok := LookupStatus(s); ok {
		return status
	}
	return RSVPPending
}

// MapDatabaseToUI converts a stored status (canonical or legacy) to the UI vocabulary
func MapDatabaseToUI(s string) UIStatus {
	switch MapUIToDatabase(s) {
	case RSVPAttending:
		return UIConfirmed
	case RSVPNotAttending:
		return UIDeclined
	case RSVPMaybe:
		return UIMaybe
	default:
		return UIPending
	}
}

// Valid reports whether s is one of the four canonical values
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPPending, RSVPAttending, RSVPNotAttending, RSVPMaybe:
		return true
	}
	return false
}

// StatusDisplayText returns the human label for a status
func StatusDisplayText(s RSVPStatus) string {
	switch MapUIToDatabase(string(s)) {
	case RSVPAttending:
		return "Attending"
	case RSVPNotAttending:
		return "Not Attending"
	case RSVPMaybe:
		return "Maybe"
	default:
		return "Pending"
	}
}

// StatusColorClasses returns the badge classes used by the web client
func StatusColorClasses(s RSVPStatus) string {
	switch MapUIToDatabase(string(s)) {
	case RSVPAttending:
		return "bg-green-100 text-green-800"
	case RSVPNotAttending:
		return "bg-red-100 text-red-800"
	case RSVPMaybe:
		return "bg-yellow-100 text-yellow-800"
	default:
		return "bg-gray-100 text-gray-800"
	}
}

// Attendance is the yes/no/maybe answer of the simplified RSVP form
type Attendance string

const (
	AttendanceYes   Attendance = "yes"
	AttendanceNo    Attendance = "no"
	AttendanceMaybe Attendance = "maybe"
)

// Status maps the simplified answer to a canonical status. A "no" is stored
// as not_attending.
func (a Attendance) Status() (RSVPStatus, bool) {
	switch Attendance(strings.ToLower(strings.TrimSpace(string(a)))) {
	case AttendanceYes:
		return RSVPAttending, true
	case AttendanceNo:
		return RSVPNotAttending, true
	case AttendanceMaybe:
		return RSVPMaybe, true
	}
	return "", false
}
