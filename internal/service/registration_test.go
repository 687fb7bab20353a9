package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
)

func TestCreateRegistrationEventFull(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 1, at(8, 0), at(18, 0))

	reg, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationPending, reg.Status)
	assert.Nil(t, reg.ConfirmationDate)
	assert.Equal(t, 1, f.attendees(t, e.ID))

	_, err = f.regs.CreateRegistration(ctx, e.ID, "bob", model.RegisterRequest{})
	de := requireCode(t, err, domain.CodeEventFull)
	assert.Equal(t, domain.KindConflict, de.Kind)
	assert.Equal(t, 1, de.Params["Capacity"])
	assert.Equal(t, 1, f.attendees(t, e.ID))
}

func TestCancelReleasesPlace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 10, at(8, 0), at(18, 0))
	before := f.attendees(t, e.ID)

	reg, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{DietaryRequirements: "vegan"})
	require.NoError(t, err)
	assert.Equal(t, before+1, f.attendees(t, e.ID))

	cancelled, err := f.regs.CancelRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationCancelled, cancelled.Status)
	assert.Equal(t, before, f.attendees(t, e.ID))

	again, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, reg.ID, again.ID)
	assert.Equal(t, before+1, f.attendees(t, e.ID))
}

func TestCancelTwiceIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 10, at(8, 0), at(18, 0))
	_, err := f.regs.CreateRegistration(ctx, e.ID, "bob", model.RegisterRequest{})
	require.NoError(t, err)
	reg, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
	require.NoError(t, err)

	_, err = f.regs.CancelRegistration(ctx, reg.ID)
	require.NoError(t, err)
	second, err := f.regs.CancelRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationCancelled, second.Status)
	assert.Equal(t, 1, f.attendees(t, e.ID))
}

func TestConfirmIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 10, at(8, 0), at(18, 0))
	reg, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
	require.NoError(t, err)

	first, err := f.regs.ConfirmRegistration(ctx, reg.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ConfirmationDate)
	assert.Equal(t, model.RegistrationConfirmed, first.Status)

	f.setNow(f.clock().Add(time.Hour))
	second, err := f.regs.ConfirmRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	require.NotNil(t, second.ConfirmationDate)
	assert.True(t, first.ConfirmationDate.Equal(*second.ConfirmationDate))
	assert.Equal(t, 1, f.attendees(t, e.ID), "confirm does not touch capacity")

	stored, err := f.regs.GetRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationConfirmed, stored.Status)
}

func TestConfirmedRegistrationCanBeCancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 10, at(8, 0), at(18, 0))
	reg, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
	require.NoError(t, err)
	_, err = f.regs.ConfirmRegistration(ctx, reg.ID)
	require.NoError(t, err)

	_, err = f.regs.CancelRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.attendees(t, e.ID))

	_, err = f.regs.ConfirmRegistration(ctx, reg.ID)
	requireCode(t, err, domain.CodeInvalidTransition)
}

func TestAttendedRegistrationIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 10, at(8, 0), at(18, 0))
	reg, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
	require.NoError(t, err)

	// Check-in happens outside the core; mark the row attended directly.
	require.NoError(t, f.store.InTx(ctx, func(tx repository.Tx) error {
		r, err := tx.LockRegistration(ctx, reg.ID)
		if err != nil {
			return err
		}
		r.Status = model.RegistrationAttended
		return tx.UpdateRegistration(ctx, r)
	}))
	require.Equal(t, 1, f.attendees(t, e.ID))

	_, err = f.regs.ConfirmRegistration(ctx, reg.ID)
	de := requireCode(t, err, domain.CodeInvalidTransition)
	assert.Equal(t, "registration", de.Params["Entity"])
	assert.Equal(t, string(model.RegistrationAttended), de.Params["From"])

	_, err = f.regs.CancelRegistration(ctx, reg.ID)
	de = requireCode(t, err, domain.CodeInvalidTransition)
	assert.Equal(t, string(model.RegistrationCancelled), de.Params["To"])

	assert.Equal(t, 1, f.attendees(t, e.ID))
	assert.Equal(t, 1, f.activeCount(t, e.ID))
	stored, err := f.regs.GetRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationAttended, stored.Status)
	assert.Nil(t, stored.ConfirmationDate)
}

func TestCreateRegistrationDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 10, at(8, 0), at(18, 0))

	_, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
	require.NoError(t, err)
	_, err = f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
	requireCode(t, err, domain.CodeDuplicateRegistration)
	assert.Equal(t, 1, f.attendees(t, e.ID))
}

func TestAdmissionGate(t *testing.T) {
	ctx := context.Background()

	t.Run("draft event", func(t *testing.T) {
		f := newFixture(t)
		e, err := f.events.CreateEvent(ctx, organizer, eventRequest(10, at(8, 0), at(18, 0)))
		require.NoError(t, err)

		_, err = f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
		de := requireCode(t, err, domain.CodeEventNotOpen)
		assert.Equal(t, "status", de.Params["Reason"])
	})

	t.Run("before window", func(t *testing.T) {
		f := newFixture(t)
		e := f.publishedEvent(t, 10, at(8, 0), at(18, 0))
		f.setNow(e.RegistrationStart.Add(-time.Second))

		_, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
		de := requireCode(t, err, domain.CodeEventNotOpen)
		assert.Equal(t, "window", de.Params["Reason"])
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		f := newFixture(t)
		e := f.publishedEvent(t, 10, at(8, 0), at(18, 0))

		f.setNow(e.RegistrationStart)
		_, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
		require.NoError(t, err)

		f.setNow(e.RegistrationEnd)
		_, err = f.regs.CreateRegistration(ctx, e.ID, "bob", model.RegisterRequest{})
		require.NoError(t, err)

		f.setNow(e.RegistrationEnd.Add(time.Millisecond))
		_, err = f.regs.CreateRegistration(ctx, e.ID, "carol", model.RegisterRequest{})
		requireCode(t, err, domain.CodeEventNotOpen)
	})

	t.Run("status checked before capacity", func(t *testing.T) {
		f := newFixture(t)
		e := f.publishedEvent(t, 1, at(8, 0), at(18, 0))
		_, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
		require.NoError(t, err)
		_, err = f.events.TransitionEvent(ctx, e.ID, model.EventCancelled)
		require.NoError(t, err)

		_, err = f.regs.CreateRegistration(ctx, e.ID, "bob", model.RegisterRequest{})
		requireCode(t, err, domain.CodeEventNotOpen)
	})

	t.Run("full checked before duplicate", func(t *testing.T) {
		f := newFixture(t)
		e := f.publishedEvent(t, 1, at(8, 0), at(18, 0))
		_, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
		require.NoError(t, err)

		_, err = f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
		requireCode(t, err, domain.CodeEventFull)
	})

	t.Run("unknown event", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.regs.CreateRegistration(ctx, "missing", "alice", model.RegisterRequest{})
		requireCode(t, err, domain.CodeNotFound)
	})

	t.Run("missing attendee", func(t *testing.T) {
		f := newFixture(t)
		e := f.publishedEvent(t, 1, at(8, 0), at(18, 0))
		_, err := f.regs.CreateRegistration(ctx, e.ID, "", model.RegisterRequest{})
		de := requireCode(t, err, domain.CodeInvalidInput)
		assert.Equal(t, "attendee_id", de.Field)
	})
}

func TestRegistrationListings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e1 := f.publishedEvent(t, 10, at(8, 0), at(18, 0))
	e2 := f.publishedEvent(t, 10, at(8, 0), at(18, 0))

	_, err := f.regs.CreateRegistration(ctx, e1.ID, "alice", model.RegisterRequest{})
	require.NoError(t, err)
	f.setNow(f.clock().Add(time.Minute))
	_, err = f.regs.CreateRegistration(ctx, e1.ID, "bob", model.RegisterRequest{})
	require.NoError(t, err)
	_, err = f.regs.CreateRegistration(ctx, e2.ID, "alice", model.RegisterRequest{})
	require.NoError(t, err)

	regs, err := f.regs.ListRegistrations(ctx, e1.ID)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, "alice", regs[0].AttendeeID)
	assert.Equal(t, "bob", regs[1].AttendeeID)

	mine, err := f.regs.ListAttendeeRegistrations(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.regs.ListRegistrations(ctx, "missing")
	requireCode(t, err, domain.CodeNotFound)
}

func TestConcurrentRegistrationsNeverExceedCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const capacity, attendees = 5, 25
	e := f.publishedEvent(t, capacity, at(8, 0), at(18, 0))

	results := make(chan model.BookingResult, attendees)
	var wg sync.WaitGroup
	for i := range attendees {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("attendee-%02d", i)
			_, err := f.regs.CreateRegistration(ctx, e.ID, id, model.RegisterRequest{})
			results <- model.BookingResult{AttendeeID: id, Success: err == nil, Error: err}
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for r := range results {
		if r.Success {
			succeeded++
			continue
		}
		assert.ErrorIs(t, r.Error, domain.ErrEventFull, "attendee %s", r.AttendeeID)
	}
	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, capacity, f.attendees(t, e.ID))
	assert.Equal(t, capacity, f.activeCount(t, e.ID))
}

func TestConcurrentDuplicateRegistrations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 50, at(8, 0), at(18, 0))

	const tries = 10
	errs := make(chan error, tries)
	var wg sync.WaitGroup
	for range tries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.regs.CreateRegistration(ctx, e.ID, "alice", model.RegisterRequest{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicateRegistration)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.attendees(t, e.ID))
}

func TestConcurrentCancelAndRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const capacity = 3
	e := f.publishedEvent(t, capacity, at(8, 0), at(18, 0))

	var held []string
	for i := range capacity {
		reg, err := f.regs.CreateRegistration(ctx, e.ID, fmt.Sprintf("holder-%d", i), model.RegisterRequest{})
		require.NoError(t, err)
		held = append(held, reg.ID)
	}

	var wg sync.WaitGroup
	for i, id := range held {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.regs.CancelRegistration(ctx, id)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, _ = f.regs.CreateRegistration(ctx, e.ID, fmt.Sprintf("waiting-%d", i), model.RegisterRequest{})
		}()
	}
	wg.Wait()

	got := f.attendees(t, e.ID)
	assert.LessOrEqual(t, got, capacity)
	assert.Equal(t, f.activeCount(t, e.ID), got)
}
