package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapUIToDatabase(t *testing.T) {
	tests := []struct {
		in   string
		want RSVPStatus
	}{
		{"pending", RSVPPending},
		{"attending", RSVPAttending},
		{"not_attending", RSVPNotAttending},
		{"maybe", RSVPMaybe},
		{"confirmed", RSVPAttending},
		{"declined", RSVPNotAttending},
		{"  Confirmed ", RSVPAttending},
		{"DECLINED", RSVPNotAttending},
		{"accepted", RSVPAttending},
		{"", RSVPPending},
		{"whatever", RSVPPending},
		{"🎉", RSVPPending},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MapUIToDatabase(tt.in))
		})
	}
}

func TestStatusRoundTrip(t *testing.T) {
	for _, s := range AllStatuses {
		assert.Equal(t, s, MapUIToDatabase(string(MapDatabaseToUI(string(s)))), "status %s", s)
	}
}

func TestMapUIToDatabaseIdempotent(t *testing.T) {
	for _, in := range []string{"confirmed", "declined", "maybe", "junk", "attending"} {
		once := MapUIToDatabase(in)
		assert.Equal(t, once, MapUIToDatabase(string(once)))
	}
}

func TestMapDatabaseToUI(t *testing.T) {
	assert.Equal(t, UIConfirmed, MapDatabaseToUI("attending"))
	assert.Equal(t, UIDeclined, MapDatabaseToUI("not_attending"))
	assert.Equal(t, UIDeclined, MapDatabaseToUI("declined"))
	assert.Equal(t, UIMaybe, MapDatabaseToUI("maybe"))
	assert.Equal(t, UIPending, MapDatabaseToUI("pending"))
	assert.Equal(t, UIPending, MapDatabaseToUI("unknown"))
	assert.Equal(t, UIPending, MapDatabaseToUI(""))
}

func TestAttendanceStatus(t *testing.T) {
	s, ok := AttendanceYes.Status()
	assert.True(t, ok)
	assert.Equal(t, RSVPAttending, s)

	// "no" is standardized on not_attending, not the legacy "declined" token
	s, ok = AttendanceNo.Status()
	assert.True(t, ok)
	assert.Equal(t, RSVPNotAttending, s)

	s, ok = Attendance(" Maybe ").Status()
	assert.True(t, ok)
	assert.Equal(t, RSVPMaybe, s)

	_, ok = Attendance("perhaps").Status()
	assert.False(t, ok)
}

func TestStatusPresentation(t *testing.T) {
	assert.Equal(t, "Attending", StatusDisplayText(RSVPAttending))
	assert.Equal(t, "Not Attending", StatusDisplayText("declined"))
	assert.Equal(t, "Pending", StatusDisplayText("bogus"))
	assert.Contains(t, StatusColorClasses(RSVPAttending), "green")
	assert.Contains(t, StatusColorClasses("bogus"), "gray")
}

func TestProfileNeedsRSVP(t *testing.T) {
	pending := RSVPPending
	attending := RSVPAttending

	assert.True(t, Profile{}.NeedsRSVP())
	assert.True(t, Profile{RSVPStatus: &pending}.NeedsRSVP())
	assert.False(t, Profile{RSVPStatus: &attending}.NeedsRSVP())
}
