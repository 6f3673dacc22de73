package matcher

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/phone"
	"wedding-rsvp/internal/storage"
)

// GuestStore is the subset of storage the matcher needs
type GuestStore interface {
	FindGuestByEmail(ctx context.Context, email string) (*models.Guest, error)
	FindGuestsByMobile(ctx context.Context, mobile string) ([]models.Guest, error)
	LinkUserToGuest(ctx context.Context, userID, guestID string) error
}

// MatchResult reports whether a signup corresponds to a guest-list entry
type MatchResult struct {
	Matched bool   `json:"matched"`
	GuestID string `json:"guest_id,omitempty"`
}

// Matcher pairs new accounts with guest-list entries
type Matcher struct {
	store       GuestStore
	countryCode string
	log         zerolog.Logger
}

// NewMatcher creates a new guest matcher
func NewMatcher(store GuestStore, countryCode string, log zerolog.Logger) *Matcher {
	return &Matcher{store: store, countryCode: countryCode, log: log}
}

// MatchGuestOnSignup tries the exact email first, then first+last name
// combined with the mobile number. Guests already linked to an account never
// match. Lookup failures degrade to no match.
func (m *Matcher) MatchGuestOnSignup(ctx context.Context, email, firstName, lastName, mobile string) MatchResult {
	if g, err := m.store.FindGuestByEmail(ctx, email); err == nil {
		if linked(g) {
			m.log.Info().Str("guest_id", g.ID).Msg("Guest matched by email is already linked to an account")
			return MatchResult{}
		}
		m.log.Debug().Str("guest_id", g.ID).Msg("Guest matched by email")
		return MatchResult{Matched: true, GuestID: g.ID}
	} else if !errors.Is(err, storage.ErrNotFound) {
		m.log.Warn().Err(err).Msg("Guest lookup by email failed")
	}

	number := phone.Normalize(mobile, m.countryCode)
	if number == "" {
		return MatchResult{}
	}
	candidates, err := m.store.FindGuestsByMobile(ctx, number)
	if err != nil {
		m.log.Warn().Err(err).Msg("Guest lookup by mobile failed")
		return MatchResult{}
	}
	wantFirst, wantLast := FoldName(firstName), FoldName(lastName)
	for _, g := range candidates {
		if linked(&g) {
			continue
		}
		if FoldName(g.FirstName) == wantFirst && FoldName(g.LastName) == wantLast {
			m.log.Debug().Str("guest_id", g.ID).Msg("Guest matched by name and mobile")
			return MatchResult{Matched: true, GuestID: g.ID}
		}
	}
	return MatchResult{}
}

// LinkUserToGuest associates an account with a matched guest. The caller
// decides whether a failure matters.
func (m *Matcher) LinkUserToGuest(ctx context.Context, userID, guestID string) error {
	if err := m.store.LinkUserToGuest(ctx, userID, guestID); err != nil {
		m.log.Error().Err(err).Str("user_id", userID).Str("guest_id", guestID).Msg("Failed to link user to guest")
		return err
	}
	return nil
}

func linked(g *models.Guest) bool {
	return g.UserID != nil && *g.UserID != ""
}

// FoldName strips diacritics, case-folds and collapses whitespace so that
// "  José  GARCÍA" and "jose garcia" compare equal.
func FoldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}
