package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/storage/storagetest"
)

func seed(t *testing.T) (*storage.Storage, *models.Guest, *models.Guest) {
	t.Helper()
	s := storagetest.New(t)
	ctx := context.Background()
	byEmail := &models.Guest{FirstName: "Dana", LastName: "Levi", Email: "dana@example.com"}
	byPhone := &models.Guest{FirstName: "José", LastName: "García", Mobile: "972501234567"}
	require.NoError(t, s.AddGuest(ctx, byEmail))
	require.NoError(t, s.AddGuest(ctx, byPhone))
	return s, byEmail, byPhone
}

func TestMatchByEmail(t *testing.T) {
	s, byEmail, _ := seed(t)
	m := NewMatcher(s, "972", zerolog.Nop())

	res := m.MatchGuestOnSignup(context.Background(), "DANA@example.com", "Someone", "Else", "")
	assert.Equal(t, MatchResult{Matched: true, GuestID: byEmail.ID}, res)
}

func TestMatchByNameAndMobile(t *testing.T) {
	s, _, byPhone := seed(t)
	m := NewMatcher(s, "972", zerolog.Nop())

	res := m.MatchGuestOnSignup(context.Background(), "jose@example.com", " jose ", "GARCIA", "050-123-4567")
	assert.True(t, res.Matched)
	assert.Equal(t, byPhone.ID, res.GuestID)
}

func TestNoMatch(t *testing.T) {
	s, _, _ := seed(t)
	m := NewMatcher(s, "972", zerolog.Nop())
	ctx := context.Background()

	assert.Equal(t, MatchResult{}, m.MatchGuestOnSignup(ctx, "stranger@example.com", "Jose", "Garcia", ""))
	assert.Equal(t, MatchResult{}, m.MatchGuestOnSignup(ctx, "stranger@example.com", "Jose", "Other", "0501234567"))
	assert.Equal(t, MatchResult{}, m.MatchGuestOnSignup(ctx, "stranger@example.com", "Jose", "Garcia", "0509999999"))
}

type failingStore struct{}

func (failingStore) FindGuestByEmail(context.Context, string) (*models.Guest, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) FindGuestsByMobile(context.Context, string) ([]models.Guest, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) LinkUserToGuest(context.Context, string, string) error {
	return errors.New("connection refused")
}

func TestMatchDegradesOnStoreErrors(t *testing.T) {
	m := NewMatcher(failingStore{}, "972", zerolog.Nop())

	res := m.MatchGuestOnSignup(context.Background(), "dana@example.com", "Dana", "Levi", "0501234567")
	assert.False(t, res.Matched)
	assert.Error(t, m.LinkUserToGuest(context.Background(), "u", "g"))
}

func TestLinkUserToGuest(t *testing.T) {
	s, byEmail, _ := seed(t)
	m := NewMatcher(s, "972", zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, m.LinkUserToGuest(ctx, "user-1", byEmail.ID))
	g, err := s.GetGuestByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, byEmail.ID, g.ID)
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "jose garcia", FoldName("  José   GARCÍA "))
	assert.Equal(t, "zoe", FoldName("Zoë"))
	assert.Equal(t, "", FoldName("   "))
}

func TestLinkedGuestsNeverMatch(t *testing.T) {
	s, byEmail, byPhone := seed(t)
	m := NewMatcher(s, "972", zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, s.LinkUserToGuest(ctx, "user-1", byEmail.ID))
	require.NoError(t, s.LinkUserToGuest(ctx, "user-2", byPhone.ID))

	assert.Equal(t, MatchResult{}, m.MatchGuestOnSignup(ctx, "dana@example.com", "Dana", "Levi", ""))
	assert.Equal(t, MatchResult{}, m.MatchGuestOnSignup(ctx, "jose@example.com", "Jose", "Garcia", "0501234567"))
}
