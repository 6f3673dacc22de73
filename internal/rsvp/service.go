package rsvp

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// Store is the subset of storage used by the RSVP service
type Store interface {
	SafeUpsertRSVP(ctx context.Context, rsvp *models.RSVP) error
	GetEvent(ctx context.Context, id string) (*models.WeddingEvent, error)
	PrimaryEvent(ctx context.Context) (*models.WeddingEvent, error)
	GetRSVP(ctx context.Context, userID, eventID string) (*models.RSVP, error)
	ListRSVPsByUser(ctx context.Context, userID string) ([]models.RSVP, error)
	ListRSVPs(ctx context.Context, eventID string) ([]models.RSVP, error)
	Summary(ctx context.Context, eventID string) (*models.RSVPSummary, error)
	GetGuest(ctx context.Context, id string) (*models.Guest, error)
	GetGuestByUserID(ctx context.Context, userID string) (*models.Guest, error)
}

// Throttle records that a user should not be prompted again today
type Throttle interface {
	MarkShown(ctx context.Context, userID string, now time.Time) error
}

// Service validates and records RSVPs
type Service struct {
	store    Store
	metrics  *metrics.Metrics
	throttle Throttle
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithMetrics counts submissions per status and outcome
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithThrottle marks the prompt as shown after every saved RSVP
func WithThrottle(t Throttle) Option {
	return func(s *Service) { s.throttle = t }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new RSVP service
func NewService(store Store, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SafeUpsertRSVP validates data and stores the single RSVP for
// (user, event), returning its id
func (s *Service) SafeUpsertRSVP(ctx context.Context, data RSVPData) (string, error) {
	r, err := s.Upsert(ctx, data)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

// Upsert is SafeUpsertRSVP returning the stored row
func (s *Service) Upsert(ctx context.Context, data RSVPData) (*models.RSVP, error) {
	if err := ValidateRSVPData(data); err != nil {
		return nil, err
	}

	if _, err := s.store.GetEvent(ctx, data.EventID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &ValidationError{Message: "unknown event"}
		}
		return nil, &RemoteError{Op: "load event", Err: err}
	}

	guestID, err := s.resolveGuest(ctx, data)
	if err != nil {
		return nil, err
	}

	r := &models.RSVP{
		UserID:              data.UserID,
		EventID:             data.EventID,
		GuestID:             guestID,
		Status:              models.MapUIToDatabase(data.Status),
		GuestCount:          data.GuestCount,
		DietaryRequirements: data.DietaryRequirements,
		Message:             data.Message,
		PlusOneName:         data.PlusOneName,
	}
	if err := s.store.SafeUpsertRSVP(ctx, r); err != nil {
		s.count(r.Status, "error")
		s.log.Error().Err(err).Str("user_id", data.UserID).Str("event_id", data.EventID).Msg("RSVP upsert failed")
		return nil, &RemoteError{Op: "save RSVP", Err: err}
	}
	s.count(r.Status, "ok")
	s.log.Info().
		Str("rsvp_id", r.ID).
		Str("user_id", r.UserID).
		Str("event_id", r.EventID).
		Str("status", string(r.Status)).
		Int("guest_count", r.GuestCount).
		Msg("RSVP saved")

	if s.throttle != nil {
		if err := s.throttle.MarkShown(ctx, r.UserID, s.now()); err != nil {
			s.log.Warn().Err(err).Str("user_id", r.UserID).Msg("Failed to mark prompt as shown")
		}
	}
	return r, nil
}

// resolveGuest picks the guest-list entry an RSVP mirrors. An explicit guest
// must be unlinked or linked to the same user; otherwise the user's linked
// guest is used, if any.
func (s *Service) resolveGuest(ctx context.Context, data RSVPData) (*string, error) {
	if data.GuestID == nil {
		g, err := s.store.GetGuestByUserID(ctx, data.UserID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, &RemoteError{Op: "load guest", Err: err}
		}
		return &g.ID, nil
	}

	g, err := s.store.GetGuest(ctx, *data.GuestID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &ValidationError{Message: "unknown guest"}
	}
	if err != nil {
		return nil, &RemoteError{Op: "load guest", Err: err}
	}
	if g.UserID != nil && *g.UserID != "" && *g.UserID != data.UserID {
		s.log.Warn().Str("user_id", data.UserID).Str("guest_id", g.ID).Msg("RSVP refers to a guest linked to another account")
		return nil, &ValidationError{Message: "guest is linked to another account"}
	}
	return &g.ID, nil
}

// SubmitPrimary stores data against the main event
func (s *Service) SubmitPrimary(ctx context.Context, data RSVPData) (*models.RSVP, error) {
	event, err := s.PrimaryEvent(ctx)
	if err != nil {
		return nil, err
	}
	data.EventID = event.ID
	return s.Upsert(ctx, data)
}

// SubmitSimple records a yes/no/maybe answer. An empty eventID targets the
// main event.
func (s *Service) SubmitSimple(ctx context.Context, userID, eventID string, attendance models.Attendance) (*models.RSVP, error) {
	status, ok := attendance.Status()
	if !ok {
		return nil, &ValidationError{Message: "attendance must be yes, no or maybe"}
	}

	data := RSVPData{UserID: userID, EventID: eventID, Status: string(status)}
	switch status {
	case models.RSVPNotAttending:
		declined := "Guest declined"
		data.GuestCount = 0
		data.Message = &declined
	default:
		data.GuestCount = 1
	}

	if eventID == "" {
		return s.SubmitPrimary(ctx, data)
	}
	return s.Upsert(ctx, data)
}

// PrimaryEvent resolves the event RSVPs default to
func (s *Service) PrimaryEvent(ctx context.Context) (*models.WeddingEvent, error) {
	event, err := s.store.PrimaryEvent(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoPrimaryEvent
		}
		return nil, &RemoteError{Op: "load main event", Err: err}
	}
	return event, nil
}

// Get returns the RSVP of a user for an event; an empty eventID means the
// main event
func (s *Service) Get(ctx context.Context, userID, eventID string) (*models.RSVP, error) {
	if eventID == "" {
		event, err := s.PrimaryEvent(ctx)
		if err != nil {
			return nil, err
		}
		eventID = event.ID
	}
	r, err := s.store.GetRSVP(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, &RemoteError{Op: "load RSVP", Err: err}
	}
	return r, nil
}

// ListForUser returns every RSVP the user has made
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.RSVP, error) {
	rsvps, err := s.store.ListRSVPsByUser(ctx, userID)
	if err != nil {
		return nil, &RemoteError{Op: "list RSVPs", Err: err}
	}
	return rsvps, nil
}

// ListForEvent returns every RSVP of an event (main event when empty)
func (s *Service) ListForEvent(ctx context.Context, eventID string) ([]models.RSVP, error) {
	if eventID == "" {
		event, err := s.PrimaryEvent(ctx)
		if err != nil {
			return nil, err
		}
		eventID = event.ID
	}
	rsvps, err := s.store.ListRSVPs(ctx, eventID)
	if err != nil {
		return nil, &RemoteError{Op: "list RSVPs", Err: err}
	}
	return rsvps, nil
}

// Summary aggregates responses for an event (main event when empty)
func (s *Service) Summary(ctx context.Context, eventID string) (*models.RSVPSummary, error) {
	if eventID == "" {
		event, err := s.PrimaryEvent(ctx)
		if err != nil {
			return nil, err
		}
		eventID = event.ID
	}
	sum, err := s.store.Summary(ctx, eventID)
	if err != nil {
		return nil, &RemoteError{Op: "summarize RSVPs", Err: err}
	}
	return sum, nil
}

func (s *Service) count(status models.RSVPStatus, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RSVPSubmissions.WithLabelValues(string(status), outcome).Inc()
}
