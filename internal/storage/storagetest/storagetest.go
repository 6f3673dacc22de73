// Package storagetest opens throwaway in-memory databases for tests.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
)

// New returns an empty, migrated storage that is closed when the test ends
func New(t testing.TB) *storage.Storage {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := storage.NewStorage(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// MainEvent creates and returns a main event
func MainEvent(t testing.TB, s *storage.Storage) *models.WeddingEvent {
	t.Helper()
	e := &models.WeddingEvent{
		Name:        "Ceremony",
		StartsAt:    time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC),
		Venue:       "Main Hall",
		IsMainEvent: true,
	}
	if err := s.CreateEvent(context.Background(), e); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return e
}

// Account creates an account with a profile-less identity
func Account(t testing.TB, s *storage.Storage, email string) *models.Account {
	t.Helper()
	a := &models.Account{ID: uuid.NewString(), Email: email, PasswordHash: "x"}
	if err := s.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return a
}
