package prompt

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/storage"
)

const dateLayout = "2006-01-02"

// ProfileReader loads the profile projection
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// Responder records quick answers as real RSVPs on the main event
type Responder interface {
	SubmitPrimary(ctx context.Context, data rsvp.RSVPData) (*models.RSVP, error)
}

// Throttle records the calendar day a user was last prompted. Days roll
// over at midnight in loc.
type Throttle struct {
	flags FlagStore
	loc   *time.Location
}

// NewThrottle creates a throttle over flags; a nil loc means time.Local
func NewThrottle(flags FlagStore, loc *time.Location) *Throttle {
	if loc == nil {
		loc = time.Local
	}
	return &Throttle{flags: flags, loc: loc}
}

// Key returns the flag key of a user
func Key(userID string) string {
	return "rsvp_prompt_" + userID
}

// Today returns the calendar date of now in the wedding time zone
func (t *Throttle) Today(now time.Time) string {
	return now.In(t.loc).Format(dateLayout)
}

// ShownToday reports whether the flag for today is set
func (t *Throttle) ShownToday(ctx context.Context, userID string, now time.Time) (bool, error) {
	shown, ok, err := t.flags.Get(ctx, Key(userID))
	if err != nil {
		return false, err
	}
	return ok && shown == t.Today(now), nil
}

// MarkShown records today's flag without consulting the profile
func (t *Throttle) MarkShown(ctx context.Context, userID string, now time.Time) error {
	return t.flags.Set(ctx, Key(userID), t.Today(now), t.untilMidnight(now))
}

// Claim records today's flag and reports whether this call was the one
// that set it
func (t *Throttle) Claim(ctx context.Context, userID string, now time.Time) (bool, error) {
	today := t.Today(now)
	prev, ok, err := t.flags.Swap(ctx, Key(userID), today, t.untilMidnight(now))
	if err != nil {
		return false, err
	}
	return !ok || prev != today, nil
}

func (t *Throttle) untilMidnight(now time.Time) time.Duration {
	local := now.In(t.loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.loc).Sub(local)
}

// Policy decides whether to remind a user to RSVP. The daily flag only
// throttles display; the profile's response fields decide eligibility.
type Policy struct {
	*Throttle
	profiles  ProfileReader
	responder Responder
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewPolicy creates the auto-prompt policy
func NewPolicy(flags FlagStore, profiles ProfileReader, responder Responder, loc *time.Location, m *metrics.Metrics, log zerolog.Logger) *Policy {
	return &Policy{
		Throttle:  NewThrottle(flags, loc),
		profiles:  profiles,
		responder: responder,
		metrics:   m,
		log:       log,
	}
}

// ShouldPrompt reports whether the reminder should be shown now. A positive
// answer records the flag for today, so at most one prompt is shown per
// calendar day.
func (p *Policy) ShouldPrompt(ctx context.Context, userID string, now time.Time) (bool, error) {
	shown, err := p.ShownToday(ctx, userID, now)
	if err != nil {
		return false, err
	}
	if shown {
		p.count("already_shown")
		return false, nil
	}

	profile, err := p.profiles.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		profile = &models.Profile{UserID: userID}
	case err != nil:
		return false, err
	}
	if !profile.NeedsRSVP() {
		p.count("responded")
		return false, nil
	}

	// another caller may have shown it since the check above
	won, err := p.Claim(ctx, userID, now)
	if err != nil {
		return false, err
	}
	if !won {
		p.count("already_shown")
		return false, nil
	}
	p.count("show")
	return true, nil
}

// QuickRespond records an attending / not attending answer from the prompt
// through the RSVP service, which keeps the profile projection in step.
func (p *Policy) QuickRespond(ctx context.Context, userID string, status models.RSVPStatus) (*models.RSVP, error) {
	data := rsvp.RSVPData{UserID: userID, Status: string(status)}
	switch status {
	case models.RSVPAttending:
		data.GuestCount = 1
	case models.RSVPNotAttending:
		data.GuestCount = 0
	default:
		return nil, &rsvp.ValidationError{Message: "quick response must be attending or not_attending"}
	}
	r, err := p.responder.SubmitPrimary(ctx, data)
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("user_id", userID).Str("status", string(status)).Msg("Quick RSVP response recorded")
	return r, nil
}

func (p *Policy) count(decision string) {
	if p.metrics != nil {
		p.metrics.Prompts.WithLabelValues(decision).Inc()
	}
}
