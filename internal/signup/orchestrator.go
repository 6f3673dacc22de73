package signup

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/auth"
	"wedding-rsvp/internal/matcher"
	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/rsvp"
)

const genericSignupError = "We couldn't complete your signup. Please try again."

// Accounts creates and removes accounts
type Accounts interface {
	SignUp(ctx context.Context, email, password string) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// GuestMatcher reconciles new accounts with the guest list
type GuestMatcher interface {
	MatchGuestOnSignup(ctx context.Context, email, firstName, lastName, mobile string) matcher.MatchResult
	LinkUserToGuest(ctx context.Context, userID, guestID string) error
}

// RSVPWriter stores the initial RSVP
type RSVPWriter interface {
	Upsert(ctx context.Context, data rsvp.RSVPData) (*models.RSVP, error)
	SubmitPrimary(ctx context.Context, data rsvp.RSVPData) (*models.RSVP, error)
}

// Store holds the remaining tables touched by signup
type Store interface {
	UpsertProfile(ctx context.Context, p *models.Profile) error
	DeleteRSVP(ctx context.Context, id string) error
	GetGuest(ctx context.Context, id string) (*models.Guest, error)
	SetGuestRSVPStatus(ctx context.Context, guestID string, status models.RSVPStatus) error
	CreateTransportRequest(ctx context.Context, req *models.TransportRequest) error
	CreateAccommodationRequest(ctx context.Context, req *models.AccommodationRequest) error
}

// SignupData is everything the combined signup + RSVP form collects
type SignupData struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Mobile    string `json:"mobile,omitempty"`
	Address   string `json:"address,omitempty"`

	// EventID defaults to the main event
	EventID             string `json:"event_id,omitempty"`
	Status              string `json:"status"`
	GuestCount          int    `json:"guest_count"`
	DietaryRequirements string `json:"dietary_requirements,omitempty"`
	AccessibilityNeeds  string `json:"accessibility_needs,omitempty"`
	Message             string `json:"message,omitempty"`
	PlusOneName         string `json:"plus_one_name,omitempty"`
	PlusOneDietary      string `json:"plus_one_dietary,omitempty"`

	NeedsTransport     bool   `json:"needs_transport"`
	PickupLocation     string `json:"pickup_location,omitempty"`
	Passengers         int    `json:"passengers,omitempty"`
	NeedsAccommodation bool   `json:"needs_accommodation"`
	Nights             int    `json:"nights,omitempty"`
	Rooms              int    `json:"rooms,omitempty"`
	RequestNotes       string `json:"request_notes,omitempty"`
}

// SignupResult is returned to the caller; Error is safe to display
type SignupResult struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id,omitempty"`
	GuestID string `json:"guest_id,omitempty"`
	Error   string `json:"error,omitempty"`
	// Err is the underlying failure, for callers that map it to a status
	Err error `json:"-"`
}

// Orchestrator runs signup and the first RSVP as one unit
type Orchestrator struct {
	accounts Accounts
	matcher  GuestMatcher
	rsvps    RSVPWriter
	store    Store
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewOrchestrator creates a new signup orchestrator
func NewOrchestrator(accounts Accounts, m GuestMatcher, rsvps RSVPWriter, store Store, met *metrics.Metrics, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{accounts: accounts, matcher: m, rsvps: rsvps, store: store, metrics: met, log: log}
}

// SignupWithRSVP creates the account, initial RSVP and profile. If any of
// those fails, the steps already done are undone so no partial account is
// left behind. Guest linking and transport/accommodation requests are best
// effort.
func (o *Orchestrator) SignupWithRSVP(ctx context.Context, data SignupData) SignupResult {
	if data.Status == "" {
		data.Status = string(models.RSVPPending)
	}
	if err := validate(data); err != nil {
		o.count("invalid")
		return SignupResult{Error: err.Error(), Err: err}
	}

	log := o.log.With().Str("email", data.Email).Logger()
	tx := &saga{log: log}

	match := o.matcher.MatchGuestOnSignup(ctx, data.Email, data.FirstName, data.LastName, data.Mobile)

	account, err := o.accounts.SignUp(ctx, data.Email, data.Password)
	if err != nil {
		log.Warn().Err(err).Msg("Account creation failed")
		o.count("failed")
		return SignupResult{Error: userMessage(err), Err: err}
	}
	userID := account.ID
	log = log.With().Str("user_id", userID).Logger()
	tx.log = log
	tx.onRollback("delete account", func(ctx context.Context) error {
		return o.accounts.DeleteAccount(ctx, userID)
	})

	rsvpData := rsvp.RSVPData{
		UserID:              userID,
		EventID:             data.EventID,
		Status:              data.Status,
		GuestCount:          data.GuestCount,
		DietaryRequirements: optional(data.DietaryRequirements),
		Message:             optional(data.Message),
		PlusOneName:         optional(data.PlusOneName),
	}
	if match.Matched {
		rsvpData.GuestID = &match.GuestID
	}
	restoreGuest := o.guestSnapshot(ctx, log, match)
	var created *models.RSVP
	if data.EventID == "" {
		created, err = o.rsvps.SubmitPrimary(ctx, rsvpData)
	} else {
		created, err = o.rsvps.Upsert(ctx, rsvpData)
	}
	if err != nil {
		return o.abort(ctx, tx, log, "rsvp", err)
	}
	rsvpID := created.ID
	if restoreGuest != nil {
		tx.onRollback("restore guest status", restoreGuest)
	}
	tx.onRollback("delete rsvp", func(ctx context.Context) error {
		return o.store.DeleteRSVP(ctx, rsvpID)
	})

	profile := &models.Profile{
		UserID:              userID,
		FirstName:           data.FirstName,
		LastName:            data.LastName,
		Email:               account.Email,
		Mobile:              data.Mobile,
		Address:             data.Address,
		DietaryRequirements: data.DietaryRequirements,
		AccessibilityNeeds:  data.AccessibilityNeeds,
		PlusOneName:         data.PlusOneName,
		PlusOneDietary:      data.PlusOneDietary,
	}
	if err := o.store.UpsertProfile(ctx, profile); err != nil {
		return o.abort(ctx, tx, log, "profile", err)
	}

	result := SignupResult{Success: true, UserID: userID}
	if match.Matched {
		if err := o.matcher.LinkUserToGuest(ctx, userID, match.GuestID); err != nil {
			log.Warn().Err(err).Str("guest_id", match.GuestID).Msg("Guest link failed; continuing signup")
		} else {
			result.GuestID = match.GuestID
		}
	}

	o.createRequests(ctx, log, data, userID, result.GuestID)

	o.count("ok")
	log.Info().Bool("guest_matched", match.Matched).Msg("Signup completed")
	return result
}

// guestSnapshot returns a compensation that puts the matched guest's RSVP
// status back to what it was before signup
func (o *Orchestrator) guestSnapshot(ctx context.Context, log zerolog.Logger, match matcher.MatchResult) func(context.Context) error {
	if !match.Matched {
		return nil
	}
	g, err := o.store.GetGuest(ctx, match.GuestID)
	if err != nil {
		log.Warn().Err(err).Str("guest_id", match.GuestID).Msg("Could not read guest status; a rollback leaves it pending")
		return nil
	}
	guestID, prev := g.ID, g.RSVPStatus
	return func(ctx context.Context) error {
		return o.store.SetGuestRSVPStatus(ctx, guestID, prev)
	}
}

func (o *Orchestrator) createRequests(ctx context.Context, log zerolog.Logger, data SignupData, userID, guestID string) {
	var gid *string
	if guestID != "" {
		gid = &guestID
	}
	if data.NeedsTransport {
		req := &models.TransportRequest{
			UserID:         userID,
			GuestID:        gid,
			PickupLocation: data.PickupLocation,
			Passengers:     max(data.Passengers, 1),
			Notes:          data.RequestNotes,
		}
		if err := o.store.CreateTransportRequest(ctx, req); err != nil {
			log.Warn().Err(err).Msg("Transport request failed")
		}
	}
	if data.NeedsAccommodation {
		req := &models.AccommodationRequest{
			UserID:  userID,
			GuestID: gid,
			Nights:  max(data.Nights, 1),
			Rooms:   max(data.Rooms, 1),
			Notes:   data.RequestNotes,
		}
		if err := o.store.CreateAccommodationRequest(ctx, req); err != nil {
			log.Warn().Err(err).Msg("Accommodation request failed")
		}
	}
}

func (o *Orchestrator) abort(ctx context.Context, tx *saga, log zerolog.Logger, step string, err error) SignupResult {
	log.Error().Err(err).Str("step", step).Msg("Signup step failed, rolling back")
	if tx.rollback(ctx) {
		o.count("rolled_back")
	} else {
		o.count("rollback_failed")
	}
	return SignupResult{Error: userMessage(err), Err: err}
}

func (o *Orchestrator) count(outcome string) {
	if o.metrics != nil {
		o.metrics.Signups.WithLabelValues(outcome).Inc()
	}
}

// validate rejects input that would fail after the account exists
func validate(data SignupData) error {
	if data.FirstName == "" || data.LastName == "" {
		return &rsvp.ValidationError{Message: "first and last name are required"}
	}
	// identifiers are assigned during signup
	probe := rsvp.RSVPData{UserID: "-", EventID: "-", Status: data.Status, GuestCount: data.GuestCount}
	return rsvp.ValidateRSVPData(probe)
}

// userMessage keeps actionable messages and hides everything else
func userMessage(err error) string {
	switch {
	case rsvp.IsValidationError(err),
		errors.Is(err, auth.ErrAccountExists),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, rsvp.ErrNoPrimaryEvent):
		return err.Error()
	}
	return genericSignupError
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
