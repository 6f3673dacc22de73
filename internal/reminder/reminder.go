package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/whatsapp"
)

// GuestSource lists guests that have an account but no answer yet
type GuestSource interface {
	GetLinkedGuestsAwaitingRSVP(ctx context.Context) ([]models.Guest, error)
}

// PromptPolicy is the same decision the web client asks for
type PromptPolicy interface {
	ShouldPrompt(ctx context.Context, userID string, now time.Time) (bool, error)
}

// Sender delivers a WhatsApp text
type Sender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// Job sends WhatsApp reminders to guests who still owe an RSVP
type Job struct {
	guests  GuestSource
	policy  PromptPolicy
	sender  Sender
	wedding config.WeddingConfig
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

// NewJob creates a new reminder job
func NewJob(guests GuestSource, policy PromptPolicy, sender Sender, wedding config.WeddingConfig, m *metrics.Metrics, log zerolog.Logger) *Job {
	return &Job{
		guests:  guests,
		policy:  policy,
		sender:  sender,
		wedding: wedding,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Run sends one round of reminders and returns how many were sent. Per-guest
// failures are logged and do not stop the round.
func (j *Job) Run(ctx context.Context) (int, error) {
	guests, err := j.guests.GetLinkedGuestsAwaitingRSVP(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list guests awaiting rsvp: %w", err)
	}

	now := j.now()
	sent := 0
	for _, g := range guests {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if g.UserID == nil || g.Mobile == "" {
			j.count("skipped")
			continue
		}
		log := j.log.With().Str("guest_id", g.ID).Str("user_id", *g.UserID).Logger()

		show, err := j.policy.ShouldPrompt(ctx, *g.UserID, now)
		if err != nil {
			j.count("error")
			log.Error().Err(err).Msg("Prompt policy failed")
			continue
		}
		if !show {
			j.count("throttled")
			continue
		}

		if err := j.sender.SendMessage(ctx, g.Mobile, whatsapp.ReminderText(j.wedding, g.FirstName)); err != nil {
			j.count("error")
			log.Error().Err(err).Msg("Failed to send reminder")
			continue
		}
		j.count("sent")
		sent++
	}
	j.log.Info().Int("candidates", len(guests)).Int("sent", sent).Msg("Reminder round finished")
	return sent, nil
}

func (j *Job) count(outcome string) {
	if j.metrics != nil {
		j.metrics.Reminders.WithLabelValues(outcome).Inc()
	}
}

// Scheduler runs a Job on a cron spec (with seconds field)
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// Schedule registers job under spec in loc and starts the scheduler
func Schedule(ctx context.Context, spec string, loc *time.Location, job *Job, log zerolog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	c := cron.NewWithLocation(loc)
	err := c.AddFunc(spec, func() {
		if _, err := job.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Reminder round failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	c.Start()
	log.Info().Str("spec", spec).Str("timezone", loc.String()).Msg("Reminder job scheduled")
	return &Scheduler{cron: c, log: log}, nil
}

// Stop stops scheduling further runs
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("Reminder job stopped")
}
