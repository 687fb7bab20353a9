package service

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/ledger"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/metrics"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/schedule"
)

// MaxCapacity bounds the capacity of a single event.
const MaxCapacity = 100_000

// EventService manages events, their tracks and the speaker directory.
type EventService struct {
	base
}

// NewEventService constructs an EventService over store.
func NewEventService(store repository.Store, opts ...Option) *EventService {
	return &EventService{base: newBase(store, opts)}
}

func validateEventRequest(req *model.CreateEventRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.EventType == "" {
		req.EventType = model.TypeConference
	}
	err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.EventType, validation.In(
			model.TypeConference, model.TypeWorkshop, model.TypeSeminar,
			model.TypeMeetup, model.TypeHackathon,
		)),
		validation.Field(&req.StartDate, validation.Required),
		validation.Field(&req.EndDate, validation.Required),
		validation.Field(&req.RegistrationStart, validation.Required),
		validation.Field(&req.RegistrationEnd, validation.Required),
		validation.Field(&req.Capacity, validation.Required, validation.Min(1), validation.Max(MaxCapacity)),
	)
	if err != nil {
		return invalid(err)
	}

	if !req.EndDate.After(req.StartDate) {
		return domain.Validation(domain.CodeInvertedWindow, "end_date",
			"end date must be after start date",
			map[string]any{"Start": req.StartDate, "End": req.EndDate})
	}
	if !req.RegistrationEnd.After(req.RegistrationStart) {
		return domain.Validation(domain.CodeInvertedWindow, "registration_end",
			"registration end must be after registration start",
			map[string]any{"Start": req.RegistrationStart, "End": req.RegistrationEnd})
	}
	if req.RegistrationEnd.After(req.StartDate) {
		return domain.Validation(domain.CodeOutOfBounds, "registration_end",
			"registration must close before the event starts",
			map[string]any{"Start": req.StartDate, "End": req.EndDate})
	}
	return nil
}

func applyEventRequest(e *model.Event, req model.CreateEventRequest) {
	e.Title = req.Title
	e.Description = req.Description
	e.EventType = req.EventType
	e.StartDate = req.StartDate.UTC()
	e.EndDate = req.EndDate.UTC()
	e.RegistrationStart = req.RegistrationStart.UTC()
	e.RegistrationEnd = req.RegistrationEnd.UTC()
	e.VenueName = req.VenueName
	e.City = req.City
	e.Country = req.Country
	e.Capacity = req.Capacity
}

// CreateEvent creates a draft event owned by organizerID.
func (s *EventService) CreateEvent(ctx context.Context, organizerID string, req model.CreateEventRequest) (*model.Event, error) {
	var event *model.Event
	err := s.observe(ctx, "create_event", func(ctx context.Context) error {
		if err := requireID("organizer_id", organizerID); err != nil {
			return err
		}
		if err := validateEventRequest(&req); err != nil {
			return err
		}

		now := s.clock()
		e := &model.Event{
			ID:          uuid.New().String(),
			Status:      model.EventDraft,
			OrganizerID: organizerID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		applyEventRequest(e, req)

		if err := s.store.InTx(ctx, func(tx repository.Tx) error {
			return tx.InsertEvent(ctx, e)
		}); err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		event = e
		return nil
	})
	return event, err
}

// UpdateEvent replaces the editable fields of an event. Capacity cannot drop
// below the current attendance and the new dates must still contain every
// scheduled session.
func (s *EventService) UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	var event *model.Event
	err := s.observe(ctx, "update_event", func(ctx context.Context) error {
		if err := validateEventRequest(&req); err != nil {
			return err
		}
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			e, err := tx.LockEvent(ctx, id)
			if err != nil {
				return lookup("event", id, err)
			}

			if req.Capacity < e.CurrentAttendees {
				return domain.Conflict(domain.CodeCapacityBelowAttendance, "capacity",
					fmt.Sprintf("capacity %d is below the %d current attendees", req.Capacity, e.CurrentAttendees),
					map[string]any{"Capacity": req.Capacity, "CurrentAttendees": e.CurrentAttendees})
			}

			sessions, err := tx.ListSessions(ctx, repository.SessionFilter{EventID: id})
			if err != nil {
				return fmt.Errorf("list event sessions: %w", err)
			}
			outside := 0
			for _, sess := range sessions {
				if schedule.ValidateContainment(sess.StartTime, sess.EndTime, req.StartDate, req.EndDate) != nil {
					outside++
				}
			}
			if outside > 0 {
				return domain.Conflict(domain.CodeSessionsOutOfBounds, "start_date",
					fmt.Sprintf("%d sessions would fall outside the new event dates", outside),
					map[string]any{"Count": outside})
			}

			applyEventRequest(e, req)
			e.UpdatedAt = s.clock()
			if err := tx.UpdateEvent(ctx, e); err != nil {
				return fmt.Errorf("update event: %w", err)
			}
			event = e
			return nil
		})
	})
	return event, err
}

// TransitionEvent moves an event to status to along the allowed lifecycle
// edges.
func (s *EventService) TransitionEvent(ctx context.Context, id string, to model.EventStatus) (*model.Event, error) {
	var event *model.Event
	err := s.observe(ctx, "transition_event", func(ctx context.Context) error {
		if !to.Valid() {
			return domain.InvalidInput("status", fmt.Sprintf("unknown status %q", to))
		}
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			e, err := tx.LockEvent(ctx, id)
			if err != nil {
				return lookup("event", id, err)
			}
			if !e.Status.CanTransitionTo(to) {
				return domain.Conflict(domain.CodeInvalidTransition, "status",
					fmt.Sprintf("cannot move event from %s to %s", e.Status, to),
					map[string]any{"Entity": "event", "From": string(e.Status), "To": string(to)})
			}
			e.Status = to
			e.UpdatedAt = s.clock()
			if err := tx.UpdateEvent(ctx, e); err != nil {
				return fmt.Errorf("update event status: %w", err)
			}
			event = e
			return nil
		})
	})
	return event, err
}

// PublishEvent opens a draft event for registration.
func (s *EventService) PublishEvent(ctx context.Context, id string) (*model.Event, error) {
	return s.TransitionEvent(ctx, id, model.EventPublished)
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if err := requireID("event_id", id); err != nil {
		return nil, err
	}
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, lookup("event", id, err)
	}
	return e, nil
}

// ListEvents returns the events matching f.
func (s *EventService) ListEvents(ctx context.Context, f repository.EventFilter) ([]model.Event, error) {
	events, err := s.store.ListEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// UpcomingEvents returns published events that have not started yet, soonest
// first.
func (s *EventService) UpcomingEvents(ctx context.Context, limit int) ([]model.Event, error) {
	return s.ListEvents(ctx, repository.EventFilter{
		Statuses:   []model.EventStatus{model.EventPublished},
		StartsFrom: s.clock(),
		Limit:      limit,
	})
}

// OngoingEvents returns published or ongoing events whose dates contain now.
func (s *EventService) OngoingEvents(ctx context.Context) ([]model.Event, error) {
	return s.ListEvents(ctx, repository.EventFilter{
		Statuses: []model.EventStatus{model.EventPublished, model.EventOngoing},
		ActiveAt: s.clock(),
	})
}

// IsEventFull reports whether the event has no places left.
func (s *EventService) IsEventFull(ctx context.Context, id string) (bool, error) {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return false, err
	}
	return e.IsFull(), nil
}

// AvailableSpots returns the number of free places.
func (s *EventService) AvailableSpots(ctx context.Context, id string) (int, error) {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return 0, err
	}
	return e.AvailableSpots(), nil
}

// IsRegistrationOpen reports whether a registration submitted now would pass
// the status, window and capacity gates.
func (s *EventService) IsRegistrationOpen(ctx context.Context, id string) (bool, error) {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return false, err
	}
	return e.IsRegistrationOpen(s.clock()), nil
}

// Availability bundles the capacity accessors for one event.
func (s *EventService) Availability(ctx context.Context, id string) (*model.Availability, error) {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.Availability{
		EventID:          e.ID,
		Capacity:         e.Capacity,
		CurrentAttendees: e.CurrentAttendees,
		AvailableSpots:   e.AvailableSpots(),
		IsFull:           e.IsFull(),
		RegistrationOpen: e.IsRegistrationOpen(s.clock()),
	}, nil
}

// ReconcileAttendance recounts the event's active registrations and rewrites
// the attendance counter when it has drifted. Drift is logged as a
// consistency failure; a count above capacity is returned as one.
func (s *EventService) ReconcileAttendance(ctx context.Context, id string) (ledger.Recount, error) {
	var rc ledger.Recount
	err := s.observe(ctx, "reconcile_attendance", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			e, err := tx.LockEvent(ctx, id)
			if err != nil {
				return lookup("event", id, err)
			}
			rc, err = ledger.Reconcile(ctx, tx, e)
			return err
		})
	})
	if err == nil && rc.Drifted() {
		metrics.ConsistencyFailures.WithLabelValues(string(domain.CodeAttendanceDrift)).Inc()
		s.logger.ErrorContext(ctx, "attendance counter drifted",
			"code", domain.CodeAttendanceDrift, "event_id", id,
			"stored", rc.Stored, "actual", rc.Actual)
	}
	return rc, err
}
