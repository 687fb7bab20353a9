package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/ledger"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
)

// RegistrationService runs the registration state machine. A registration
// takes its place at the event when it is created, pending or not, and gives
// it back when cancelled.
type RegistrationService struct {
	base
}

// NewRegistrationService constructs a RegistrationService over store.
func NewRegistrationService(store repository.Store, opts ...Option) *RegistrationService {
	return &RegistrationService{base: newBase(store, opts)}
}

// admit runs the admission gate against the locked event. Order matters:
// status, then window, then capacity, then duplicates.
func admit(ctx context.Context, tx repository.Tx, e *model.Event, attendeeID string, now time.Time) error {
	if e.Status != model.EventPublished {
		return domain.Conflict(domain.CodeEventNotOpen, "status",
			fmt.Sprintf("event is %s, registration requires a published event", e.Status),
			map[string]any{"Status": string(e.Status), "Reason": "status"})
	}
	if !e.InRegistrationWindow(now) {
		return domain.Conflict(domain.CodeEventNotOpen, "registration_start",
			"registration window is closed",
			map[string]any{"Status": string(e.Status), "Reason": "window",
				"Start": e.RegistrationStart, "End": e.RegistrationEnd})
	}
	if e.IsFull() {
		return domain.Conflict(domain.CodeEventFull, "capacity",
			fmt.Sprintf("event is full (%d/%d)", e.CurrentAttendees, e.Capacity),
			map[string]any{"Capacity": e.Capacity, "CurrentAttendees": e.CurrentAttendees})
	}

	_, err := tx.FindActiveRegistration(ctx, e.ID, attendeeID)
	switch {
	case err == nil:
		return duplicateRegistration(e.ID, attendeeID)
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("find active registration: %w", err)
	}
}

func duplicateRegistration(eventID, attendeeID string) error {
	return domain.Conflict(domain.CodeDuplicateRegistration, "attendee_id",
		"already registered for this event",
		map[string]any{"EventID": eventID, "AttendeeID": attendeeID})
}

// CreateRegistration registers attendeeID for an event. The registration is
// created pending and counted against capacity in the same transaction.
func (s *RegistrationService) CreateRegistration(ctx context.Context, eventID, attendeeID string, req model.RegisterRequest) (*model.Registration, error) {
	var reg *model.Registration
	err := s.observe(ctx, "create_registration", func(ctx context.Context) error {
		if err := invalid(validation.Errors{
			"event_id":             validation.Validate(eventID, validation.Required),
			"attendee_id":          validation.Validate(attendeeID, validation.Required, validation.Length(1, 200)),
			"dietary_requirements": validation.Validate(req.DietaryRequirements, validation.Length(0, 1000)),
			"special_requests":     validation.Validate(req.SpecialRequests, validation.Length(0, 1000)),
		}.Filter()); err != nil {
			return err
		}

		return s.store.InTx(ctx, func(tx repository.Tx) error {
			event, err := tx.LockEvent(ctx, eventID)
			if err != nil {
				return lookup("event", eventID, err)
			}

			now := s.clock()
			if err := admit(ctx, tx, event, attendeeID, now); err != nil {
				return err
			}

			r := &model.Registration{
				ID:                  uuid.New().String(),
				EventID:             event.ID,
				AttendeeID:          attendeeID,
				Status:              model.RegistrationPending,
				RegistrationDate:    now,
				DietaryRequirements: req.DietaryRequirements,
				SpecialRequests:     req.SpecialRequests,
				UpdatedAt:           now,
			}
			if err := tx.InsertRegistration(ctx, r); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return duplicateRegistration(event.ID, attendeeID)
				}
				return fmt.Errorf("insert registration: %w", err)
			}
			if err := ledger.Increment(ctx, tx, event); err != nil {
				return err
			}
			reg = r
			return nil
		})
	})
	return reg, err
}

// ConfirmRegistration confirms a pending registration. Confirming twice is a
// no-op that keeps the first confirmation date. Capacity is untouched.
func (s *RegistrationService) ConfirmRegistration(ctx context.Context, id string) (*model.Registration, error) {
	var reg *model.Registration
	err := s.observe(ctx, "confirm_registration", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			r, err := tx.LockRegistration(ctx, id)
			if err != nil {
				return lookup("registration", id, err)
			}
			if r.Status == model.RegistrationConfirmed {
				reg = r
				return nil
			}
			if !r.Status.Mutable() {
				return invalidRegistrationTransition(r.Status, model.RegistrationConfirmed)
			}

			now := s.clock()
			r.Status = model.RegistrationConfirmed
			r.ConfirmationDate = &now
			r.UpdatedAt = now
			if err := tx.UpdateRegistration(ctx, r); err != nil {
				return fmt.Errorf("confirm registration: %w", err)
			}
			reg = r
			return nil
		})
	})
	return reg, err
}

// CancelRegistration cancels a pending or confirmed registration and gives
// its place back. Cancelling a cancelled registration is a no-op.
func (s *RegistrationService) CancelRegistration(ctx context.Context, id string) (*model.Registration, error) {
	var reg *model.Registration
	err := s.observe(ctx, "cancel_registration", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			// The event lock comes first, as in CreateRegistration.
			peek, err := tx.GetRegistration(ctx, id)
			if err != nil {
				return lookup("registration", id, err)
			}
			event, err := tx.LockEvent(ctx, peek.EventID)
			if err != nil {
				return lookup("event", peek.EventID, err)
			}
			r, err := tx.LockRegistration(ctx, id)
			if err != nil {
				return lookup("registration", id, err)
			}

			if r.Status == model.RegistrationCancelled {
				reg = r
				return nil
			}
			if !r.Status.Mutable() {
				return invalidRegistrationTransition(r.Status, model.RegistrationCancelled)
			}

			r.Status = model.RegistrationCancelled
			r.UpdatedAt = s.clock()
			if err := tx.UpdateRegistration(ctx, r); err != nil {
				return fmt.Errorf("cancel registration: %w", err)
			}
			if err := ledger.Decrement(ctx, tx, event); err != nil {
				return err
			}
			reg = r
			return nil
		})
	})
	return reg, err
}

func invalidRegistrationTransition(from, to model.RegistrationStatus) error {
	return domain.Conflict(domain.CodeInvalidTransition, "status",
		fmt.Sprintf("cannot move registration from %s to %s", from, to),
		map[string]any{"Entity": "registration", "From": string(from), "To": string(to)})
}

// GetRegistration returns a single registration.
func (s *RegistrationService) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	if err := requireID("registration_id", id); err != nil {
		return nil, err
	}
	r, err := s.store.GetRegistration(ctx, id)
	if err != nil {
		return nil, lookup("registration", id, err)
	}
	return r, nil
}

// ListRegistrations returns the registrations of an event, oldest first.
func (s *RegistrationService) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, lookup("event", eventID, err)
	}
	regs, err := s.store.ListRegistrations(ctx, repository.RegistrationFilter{EventID: eventID})
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// ListAttendeeRegistrations returns every registration of one attendee.
func (s *RegistrationService) ListAttendeeRegistrations(ctx context.Context, attendeeID string) ([]model.Registration, error) {
	if err := requireID("attendee_id", attendeeID); err != nil {
		return nil, err
	}
	regs, err := s.store.ListRegistrations(ctx, repository.RegistrationFilter{AttendeeID: attendeeID})
	if err != nil {
		return nil, fmt.Errorf("list attendee registrations: %w", err)
	}
	return regs, nil
}
