package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/storage/storagetest"
)

func strPtr(s string) *string { return &s }

func TestAddGuestUpsertsByEmail(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	g := &models.Guest{FirstName: "Dana", LastName: "Levi", Email: "Dana@Example.com"}
	require.NoError(t, s.AddGuest(ctx, g))
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, models.RSVPPending, g.RSVPStatus)
	assert.Equal(t, "dana@example.com", g.Email)

	again := &models.Guest{FirstName: "Dana", LastName: "Levi-Cohen", Email: "dana@example.com", Category: "family"}
	require.NoError(t, s.AddGuest(ctx, again))
	assert.Equal(t, g.ID, again.ID)

	all, err := s.GetAllGuests(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Levi-Cohen", all[0].LastName)
	assert.Equal(t, models.RSVPPending, all[0].RSVPStatus)
}

func TestFindGuests(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	require.NoError(t, s.AddGuest(ctx, &models.Guest{FirstName: "Noa", LastName: "Bar", Email: "noa@example.com", Mobile: "972501234567"}))
	require.NoError(t, s.AddGuest(ctx, &models.Guest{FirstName: "Yoni", LastName: "Bar", Mobile: "972501234567"}))

	g, err := s.FindGuestByEmail(ctx, " NOA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Noa", g.FirstName)

	_, err = s.FindGuestByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.FindGuestByEmail(ctx, "")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	byMobile, err := s.FindGuestsByMobile(ctx, "972501234567")
	require.NoError(t, err)
	assert.Len(t, byMobile, 2)
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	storagetest.Account(t, s, "a@example.com")
	err := s.CreateAccount(ctx, &models.Account{ID: "other", Email: "A@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestSafeUpsertRSVPUpdatesInPlace(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	event := storagetest.MainEvent(t, s)
	acc := storagetest.Account(t, s, "guest@example.com")

	first := &models.RSVP{UserID: acc.ID, EventID: event.ID, Status: models.RSVPAttending, GuestCount: 2}
	require.NoError(t, s.SafeUpsertRSVP(ctx, first))

	second := &models.RSVP{UserID: acc.ID, EventID: event.ID, Status: models.RSVPNotAttending, GuestCount: 0, Message: strPtr("Guest declined")}
	require.NoError(t, s.SafeUpsertRSVP(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	rows, err := s.ListRSVPs(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	stored, err := s.GetRSVP(ctx, acc.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPNotAttending, stored.Status)
	assert.Equal(t, 0, stored.GuestCount)
	require.NotNil(t, stored.Message)
	assert.Equal(t, "Guest declined", *stored.Message)
}

func TestSafeUpsertRSVPProjectsMainEvent(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	event := storagetest.MainEvent(t, s)
	acc := storagetest.Account(t, s, "guest@example.com")

	guest := &models.Guest{FirstName: "Dana", LastName: "Levi", Email: "guest@example.com"}
	require.NoError(t, s.AddGuest(ctx, guest))
	require.NoError(t, s.LinkUserToGuest(ctx, acc.ID, guest.ID))

	require.NoError(t, s.SafeUpsertRSVP(ctx, &models.RSVP{UserID: acc.ID, EventID: event.ID, Status: models.RSVPMaybe, GuestCount: 1}))

	p, err := s.GetProfile(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, p.RSVPCompleted)
	require.NotNil(t, p.RSVPStatus)
	assert.Equal(t, models.RSVPMaybe, *p.RSVPStatus)
	assert.NotNil(t, p.RSVPRespondedAt)

	g, err := s.GetGuest(ctx, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPMaybe, g.RSVPStatus)

	// contact details written afterwards leave the projection alone
	require.NoError(t, s.UpsertProfile(ctx, &models.Profile{UserID: acc.ID, FirstName: "Dana", Address: "1 Main St"}))
	p, err = s.GetProfile(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", p.Address)
	assert.True(t, p.RSVPCompleted)
	require.NotNil(t, p.RSVPStatus)
	assert.Equal(t, models.RSVPMaybe, *p.RSVPStatus)
}

func TestSafeUpsertRSVPSideEventDoesNotProject(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	drinks := &models.WeddingEvent{Name: "Drinks", StartsAt: time.Now()}
	require.NoError(t, s.CreateEvent(ctx, drinks))
	acc := storagetest.Account(t, s, "guest@example.com")

	require.NoError(t, s.SafeUpsertRSVP(ctx, &models.RSVP{UserID: acc.ID, EventID: drinks.ID, Status: models.RSVPAttending, GuestCount: 1}))

	_, err := s.GetProfile(ctx, acc.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSafeUpsertRSVPConcurrentSingleRow(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	event := storagetest.MainEvent(t, s)
	acc := storagetest.Account(t, s, "guest@example.com")

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := models.RSVPAttending
			if i%2 == 0 {
				status = models.RSVPMaybe
			}
			errs <- s.SafeUpsertRSVP(ctx, &models.RSVP{UserID: acc.ID, EventID: event.ID, Status: status, GuestCount: 1})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	rows, err := s.ListRSVPs(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

// The two-step path can lose the race: a concurrent insert is rejected by the
// unique index instead of producing a second row.
func TestCheckThenActUpsertRSVPConcurrent(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	event := storagetest.MainEvent(t, s)
	acc := storagetest.Account(t, s, "guest@example.com")

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.CheckThenActUpsertRSVP(ctx, &models.RSVP{UserID: acc.ID, EventID: event.ID, Status: models.RSVPAttending, GuestCount: 1})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			assert.True(t, errors.Is(err, storage.ErrConflict), "unexpected error: %v", err)
		}
	}

	rows, err := s.ListRSVPs(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCheckThenActUpsertRSVPSequential(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	event := storagetest.MainEvent(t, s)
	acc := storagetest.Account(t, s, "guest@example.com")

	first := &models.RSVP{UserID: acc.ID, EventID: event.ID, Status: models.RSVPAttending, GuestCount: 3}
	require.NoError(t, s.CheckThenActUpsertRSVP(ctx, first))
	second := &models.RSVP{UserID: acc.ID, EventID: event.ID, Status: models.RSVPNotAttending, GuestCount: 0}
	require.NoError(t, s.CheckThenActUpsertRSVP(ctx, second))

	stored, err := s.GetRSVP(ctx, acc.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, models.RSVPNotAttending, stored.Status)
	assert.Equal(t, 0, stored.GuestCount)
}

func TestPrimaryEvent(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	_, err := s.PrimaryEvent(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.CreateEvent(ctx, &models.WeddingEvent{Name: "Drinks", StartsAt: time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)}))
	require.NoError(t, s.CreateEvent(ctx, &models.WeddingEvent{Name: "Reception", StartsAt: time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC), IsMainEvent: true}))
	require.NoError(t, s.CreateEvent(ctx, &models.WeddingEvent{Name: "Ceremony", StartsAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), IsMainEvent: true}))

	e, err := s.PrimaryEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ceremony", e.Name)
}

func TestSummary(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	event := storagetest.MainEvent(t, s)

	a := storagetest.Account(t, s, "a@example.com")
	b := storagetest.Account(t, s, "b@example.com")
	c := storagetest.Account(t, s, "c@example.com")
	require.NoError(t, s.SafeUpsertRSVP(ctx, &models.RSVP{UserID: a.ID, EventID: event.ID, Status: models.RSVPAttending, GuestCount: 2}))
	require.NoError(t, s.SafeUpsertRSVP(ctx, &models.RSVP{UserID: b.ID, EventID: event.ID, Status: models.RSVPAttending, GuestCount: 1}))
	require.NoError(t, s.SafeUpsertRSVP(ctx, &models.RSVP{UserID: c.ID, EventID: event.ID, Status: models.RSVPNotAttending}))
	require.NoError(t, s.AddGuest(ctx, &models.Guest{FirstName: "X", LastName: "Y"}))

	sum, err := s.Summary(ctx, event.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, sum.Counts[models.RSVPAttending])
	assert.EqualValues(t, 1, sum.Counts[models.RSVPNotAttending])
	assert.EqualValues(t, 0, sum.Counts[models.RSVPMaybe])
	assert.EqualValues(t, 3, sum.Responses)
	assert.EqualValues(t, 3, sum.HeadCount)
	assert.EqualValues(t, 1, sum.GuestsTotal)
}

func TestLinkedGuestsAwaitingRSVP(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	event := storagetest.MainEvent(t, s)

	waiting := storagetest.Account(t, s, "wait@example.com")
	done := storagetest.Account(t, s, "done@example.com")
	for _, acc := range []*models.Account{waiting, done} {
		g := &models.Guest{FirstName: acc.Email, LastName: "G", Email: acc.Email}
		require.NoError(t, s.AddGuest(ctx, g))
		require.NoError(t, s.UpsertProfile(ctx, &models.Profile{UserID: acc.ID, Email: acc.Email}))
		require.NoError(t, s.LinkUserToGuest(ctx, acc.ID, g.ID))
	}
	require.NoError(t, s.AddGuest(ctx, &models.Guest{FirstName: "Unlinked", LastName: "G"}))
	require.NoError(t, s.SafeUpsertRSVP(ctx, &models.RSVP{UserID: done.ID, EventID: event.ID, Status: models.RSVPAttending, GuestCount: 1}))

	guests, err := s.GetLinkedGuestsAwaitingRSVP(ctx)
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, "wait@example.com", guests[0].Email)

	p, err := s.GetProfile(ctx, waiting.ID)
	require.NoError(t, err)
	require.NotNil(t, p.GuestID)
	assert.Equal(t, guests[0].ID, *p.GuestID)
}

func TestLinkUserToUnknownGuest(t *testing.T) {
	s := storagetest.New(t)
	err := s.LinkUserToGuest(context.Background(), "user", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteAccount(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	acc := storagetest.Account(t, s, "gone@example.com")
	require.NoError(t, s.UpsertProfile(ctx, &models.Profile{UserID: acc.ID}))

	require.NoError(t, s.DeleteAccount(ctx, acc.ID))
	_, err := s.GetAccount(ctx, acc.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetProfile(ctx, acc.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteAccount(ctx, acc.ID), storage.ErrNotFound)
}

func TestRequests(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTransportRequest(ctx, &models.TransportRequest{UserID: "u1", PickupLocation: "Tel Aviv", Passengers: 2}))
	require.NoError(t, s.CreateAccommodationRequest(ctx, &models.AccommodationRequest{UserID: "u1", Nights: 2, Rooms: 1}))

	tr, err := s.ListTransportRequests(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tr, 1)
	assert.Equal(t, "Tel Aviv", tr[0].PickupLocation)

	ar, err := s.ListAccommodationRequests(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, ar, 1)
	assert.Equal(t, 2, ar[0].Nights)
}

func TestDeleteRSVPResetsGuestSnapshot(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	event := storagetest.MainEvent(t, s)

	guest := &models.Guest{FirstName: "Dana", LastName: "Levi", Email: "dana@example.com"}
	require.NoError(t, s.AddGuest(ctx, guest))
	r := &models.RSVP{UserID: "u1", EventID: event.ID, GuestID: &guest.ID, Status: models.RSVPAttending, GuestCount: 2}
	require.NoError(t, s.SafeUpsertRSVP(ctx, r))

	g, err := s.GetGuest(ctx, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPAttending, g.RSVPStatus)

	require.NoError(t, s.DeleteRSVP(ctx, r.ID))
	g, err = s.GetGuest(ctx, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPPending, g.RSVPStatus)

	assert.ErrorIs(t, s.DeleteRSVP(ctx, r.ID), storage.ErrNotFound)
}

func TestSafeUpsertRSVPLeavesGuestOfOtherAccount(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()
	event := storagetest.MainEvent(t, s)

	victim := &models.Guest{FirstName: "Noa", LastName: "Bar", Email: "noa@example.com"}
	require.NoError(t, s.AddGuest(ctx, victim))
	require.NoError(t, s.LinkUserToGuest(ctx, "noa-user", victim.ID))
	require.NoError(t, s.SetGuestRSVPStatus(ctx, victim.ID, models.RSVPAttending))

	r := &models.RSVP{UserID: "other-user", EventID: event.ID, GuestID: &victim.ID, Status: models.RSVPNotAttending}
	require.NoError(t, s.SafeUpsertRSVP(ctx, r))

	g, err := s.GetGuest(ctx, victim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPAttending, g.RSVPStatus)
	require.NoError(t, s.DeleteRSVP(ctx, r.ID))
	g, err = s.GetGuest(ctx, victim.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPAttending, g.RSVPStatus)
}

func TestLinkUserToGuestKeepsExistingLink(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	g := &models.Guest{FirstName: "Noa", LastName: "Bar", Email: "noa@example.com"}
	require.NoError(t, s.AddGuest(ctx, g))
	require.NoError(t, s.LinkUserToGuest(ctx, "noa-user", g.ID))
	// relinking the same account is a no-op
	require.NoError(t, s.LinkUserToGuest(ctx, "noa-user", g.ID))

	err := s.LinkUserToGuest(ctx, "other-user", g.ID)
	assert.ErrorIs(t, err, storage.ErrConflict)

	got, err := s.GetGuestByUserID(ctx, "noa-user")
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)

	assert.ErrorIs(t, s.LinkUserToGuest(ctx, "noa-user", "missing"), storage.ErrNotFound)
}

func TestSetGuestRSVPStatus(t *testing.T) {
	s := storagetest.New(t)
	ctx := context.Background()

	g := &models.Guest{FirstName: "Dana", LastName: "Levi"}
	require.NoError(t, s.AddGuest(ctx, g))
	require.NoError(t, s.SetGuestRSVPStatus(ctx, g.ID, models.RSVPMaybe))

	got, err := s.GetGuest(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPMaybe, got.RSVPStatus)
	assert.ErrorIs(t, s.SetGuestRSVPStatus(ctx, "missing", models.RSVPMaybe), storage.ErrNotFound)
}
