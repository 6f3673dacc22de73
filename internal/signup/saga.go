package signup

import (
	"context"

	"github.com/rs/zerolog"
)

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// saga collects undo actions for completed steps and runs them in reverse
// order when a later step fails.
type saga struct {
	steps []compensation
	log   zerolog.Logger
}

func (s *saga) onRollback(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// rollback runs every compensation even if the request context is done.
// It returns false if any compensation failed.
func (s *saga) rollback(ctx context.Context) bool {
	ctx = context.WithoutCancel(ctx)
	ok := true
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.undo(ctx); err != nil {
			ok = false
			s.log.Error().Err(err).Str("step", step.name).Msg("Compensation failed")
			continue
		}
		s.log.Info().Str("step", step.name).Msg("Compensation applied")
	}
	s.steps = nil
	return ok
}
