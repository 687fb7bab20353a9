// Package ledger keeps an event's attendance counter in step with its active
// registrations.
//
// Every function expects the event row to be locked by the caller's
// transaction (repository.Tx.LockEvent) and updates both the stored counter
// and the in-memory event it was given.
package ledger

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
)

// Increment takes one place at the event. The admission gate runs first, so a
// failure here means the gate and the counter disagree.
func Increment(ctx context.Context, tx repository.Tx, event *model.Event) error {
	next := event.CurrentAttendees + 1
	if next > event.Capacity {
		return domain.Conflict(domain.CodeCapacityExceeded, "capacity",
			fmt.Sprintf("event capacity of %d would be exceeded", event.Capacity),
			map[string]any{"Capacity": event.Capacity, "CurrentAttendees": event.CurrentAttendees})
	}
	if err := tx.SetEventAttendees(ctx, event.ID, next); err != nil {
		return fmt.Errorf("increment attendees: %w", err)
	}
	event.CurrentAttendees = next
	return nil
}

// Decrement releases one place. The counter never drops below zero.
func Decrement(ctx context.Context, tx repository.Tx, event *model.Event) error {
	next := max(0, event.CurrentAttendees-1)
	if next == event.CurrentAttendees {
		return nil
	}
	if err := tx.SetEventAttendees(ctx, event.ID, next); err != nil {
		return fmt.Errorf("decrement attendees: %w", err)
	}
	event.CurrentAttendees = next
	return nil
}

// Recount is the outcome of Reconcile.
type Recount struct {
	Stored int
	Actual int
}

// Drifted reports whether the stored counter disagreed with the live count.
func (r Recount) Drifted() bool {
	return r.Stored != r.Actual
}

// Reconcile re-derives the counter from the active registrations and stores
// it. An active count above capacity is never written back.
func Reconcile(ctx context.Context, tx repository.Tx, event *model.Event) (Recount, error) {
	actual, err := tx.CountActiveRegistrations(ctx, event.ID)
	if err != nil {
		return Recount{}, fmt.Errorf("count active registrations: %w", err)
	}
	rc := Recount{Stored: event.CurrentAttendees, Actual: actual}

	if actual > event.Capacity {
		return rc, domain.Consistency(domain.CodeInvariantViolation,
			fmt.Sprintf("event %s has %d active registrations for %d places", event.ID, actual, event.Capacity),
			map[string]any{"EventID": event.ID, "Actual": actual, "Capacity": event.Capacity})
	}
	if !rc.Drifted() {
		return rc, nil
	}
	if err := tx.SetEventAttendees(ctx, event.ID, actual); err != nil {
		return rc, fmt.Errorf("store recount: %w", err)
	}
	event.CurrentAttendees = actual
	return rc, nil
}
