package ledger_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/ledger"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedEvent(t *testing.T, store *sqlite.Store, capacity, attendees int) *model.Event {
	t.Helper()
	start := time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	e := &model.Event{
		ID:                uuid.NewString(),
		Title:             "GopherCon",
		EventType:         model.TypeConference,
		Status:            model.EventPublished,
		StartDate:         start,
		EndDate:           start.Add(8 * time.Hour),
		RegistrationStart: start.AddDate(0, -1, 0),
		RegistrationEnd:   start.Add(-time.Hour),
		Capacity:          capacity,
		CurrentAttendees:  attendees,
		OrganizerID:       "org-1",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, store.InTx(context.Background(), func(tx repository.Tx) error {
		return tx.InsertEvent(context.Background(), e)
	}))
	return e
}

func seedRegistration(t *testing.T, tx repository.Tx, eventID string, status model.RegistrationStatus) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, tx.InsertRegistration(context.Background(), &model.Registration{
		ID:               uuid.NewString(),
		EventID:          eventID,
		AttendeeID:       uuid.NewString(),
		Status:           status,
		RegistrationDate: now,
		UpdatedAt:        now,
	}))
}

func storedAttendees(t *testing.T, store *sqlite.Store, id string) int {
	t.Helper()
	e, err := store.GetEvent(context.Background(), id)
	require.NoError(t, err)
	return e.CurrentAttendees
}

func TestIncrement(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	e := seedEvent(t, store, 2, 1)

	err := store.InTx(ctx, func(tx repository.Tx) error {
		locked, err := tx.LockEvent(ctx, e.ID)
		require.NoError(t, err)
		require.NoError(t, ledger.Increment(ctx, tx, locked))
		assert.Equal(t, 2, locked.CurrentAttendees)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, storedAttendees(t, store, e.ID))
}

func TestIncrementRejectsOverCapacity(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	e := seedEvent(t, store, 1, 1)

	err := store.InTx(ctx, func(tx repository.Tx) error {
		locked, err := tx.LockEvent(ctx, e.ID)
		require.NoError(t, err)
		return ledger.Increment(ctx, tx, locked)
	})
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Equal(t, 1, storedAttendees(t, store, e.ID))
}

func TestDecrementFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	e := seedEvent(t, store, 3, 1)

	for range 3 {
		require.NoError(t, store.InTx(ctx, func(tx repository.Tx) error {
			locked, err := tx.LockEvent(ctx, e.ID)
			if err != nil {
				return err
			}
			return ledger.Decrement(ctx, tx, locked)
		}))
	}
	assert.Equal(t, 0, storedAttendees(t, store, e.ID))
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("fixes drift", func(t *testing.T) {
		store := openStore(t)
		e := seedEvent(t, store, 5, 4)

		var rc ledger.Recount
		require.NoError(t, store.InTx(ctx, func(tx repository.Tx) error {
			seedRegistration(t, tx, e.ID, model.RegistrationPending)
			seedRegistration(t, tx, e.ID, model.RegistrationConfirmed)
			seedRegistration(t, tx, e.ID, model.RegistrationCancelled)
			locked, err := tx.LockEvent(ctx, e.ID)
			if err != nil {
				return err
			}
			rc, err = ledger.Reconcile(ctx, tx, locked)
			return err
		}))
		assert.True(t, rc.Drifted())
		assert.Equal(t, ledger.Recount{Stored: 4, Actual: 2}, rc)
		assert.Equal(t, 2, storedAttendees(t, store, e.ID))
	})

	t.Run("no drift leaves counter alone", func(t *testing.T) {
		store := openStore(t)
		e := seedEvent(t, store, 5, 1)

		var rc ledger.Recount
		require.NoError(t, store.InTx(ctx, func(tx repository.Tx) error {
			seedRegistration(t, tx, e.ID, model.RegistrationAttended)
			locked, err := tx.LockEvent(ctx, e.ID)
			if err != nil {
				return err
			}
			rc, err = ledger.Reconcile(ctx, tx, locked)
			return err
		}))
		assert.False(t, rc.Drifted())
	})

	t.Run("active count above capacity", func(t *testing.T) {
		store := openStore(t)
		e := seedEvent(t, store, 1, 1)

		err := store.InTx(ctx, func(tx repository.Tx) error {
			seedRegistration(t, tx, e.ID, model.RegistrationPending)
			seedRegistration(t, tx, e.ID, model.RegistrationPending)
			locked, err := tx.LockEvent(ctx, e.ID)
			if err != nil {
				return err
			}
			_, err = ledger.Reconcile(ctx, tx, locked)
			return err
		})
		require.ErrorIs(t, err, domain.ErrInvariantViolation)
		assert.Equal(t, domain.KindConsistency, domain.KindOf(err))
	})
}
