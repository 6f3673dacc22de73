package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Component(NewWithWriter(&buf, "debug", "json"), "rsvp")

	log.Info().Str("user_id", "u1").Msg("rsvp saved")

	out := buf.String()
	assert.Contains(t, out, `"component":"rsvp"`)
	assert.Contains(t, out, `"user_id":"u1"`)
	assert.Contains(t, out, `"message":"rsvp saved"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "loud", "json")

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
