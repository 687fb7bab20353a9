// Package repository declares the persistence ports of the conference engine.
// Implementations live in the postgres and sqlite subpackages; services only
// see these interfaces.
//
// Every mutation runs inside Store.InTx. The Lock* methods take the row locks
// that serialize check-then-write sequences: the event row guards the
// attendance counter and registration admission, the track row guards
// conflict detection for its sessions.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a write violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate")

// ErrConstraint is returned when a write violates a CHECK constraint. It means
// a stored invariant would have been broken.
var ErrConstraint = errors.New("constraint violation")

// ErrRetryable marks transient serialization failures. Callers may retry the
// whole operation.
var ErrRetryable = errors.New("transient conflict")

// IsRetryable reports whether err is worth retrying from the caller side.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}

// EventFilter narrows ListEvents. Zero fields are ignored.
type EventFilter struct {
	Statuses    []model.EventStatus
	OrganizerID string
	// StartsFrom keeps events starting at or after the instant.
	StartsFrom time.Time
	// ActiveAt keeps events whose window contains the instant.
	ActiveAt time.Time
	Limit    int
}

// SessionFilter narrows ListSessions. Zero fields are ignored.
type SessionFilter struct {
	EventID   string
	SpeakerID string
	// ActiveAt keeps sessions whose window contains the instant.
	ActiveAt time.Time
	// StartsFrom keeps sessions starting at or after the instant.
	StartsFrom time.Time
	Limit      int
}

// RegistrationFilter narrows ListRegistrations. Zero fields are ignored.
type RegistrationFilter struct {
	EventID    string
	AttendeeID string
	Status     model.RegistrationStatus
}

// Reader holds the lock-free queries. Inside a transaction they observe the
// transaction's own writes.
type Reader interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error)

	GetTrack(ctx context.Context, id string) (*model.Track, error)
	ListTracks(ctx context.Context, eventID string) ([]model.Track, error)

	GetSession(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]model.Session, error)
	// ListTrackSessions returns the sessions attached to trackID within
	// eventID ordered by start time.
	ListTrackSessions(ctx context.Context, eventID, trackID string) ([]model.Session, error)

	GetSpeaker(ctx context.Context, id string) (*model.Speaker, error)
	ListSpeakers(ctx context.Context) ([]model.Speaker, error)

	GetRegistration(ctx context.Context, id string) (*model.Registration, error)
	ListRegistrations(ctx context.Context, f RegistrationFilter) ([]model.Registration, error)
}

// Tx is one serializable unit of work.
type Tx interface {
	Reader

	LockEvent(ctx context.Context, id string) (*model.Event, error)
	LockTrack(ctx context.Context, id string) (*model.Track, error)
	LockSession(ctx context.Context, id string) (*model.Session, error)
	LockRegistration(ctx context.Context, id string) (*model.Registration, error)

	InsertEvent(ctx context.Context, e *model.Event) error
	UpdateEvent(ctx context.Context, e *model.Event) error
	SetEventAttendees(ctx context.Context, eventID string, n int) error

	InsertTrack(ctx context.Context, t *model.Track) error
	// DeleteTrack removes the track and detaches its sessions.
	DeleteTrack(ctx context.Context, id string) error

	InsertSpeaker(ctx context.Context, s *model.Speaker) error
	// MissingSpeakers returns the ids in ids that do not exist.
	MissingSpeakers(ctx context.Context, ids []string) ([]string, error)

	InsertSession(ctx context.Context, s *model.Session) error
	UpdateSession(ctx context.Context, s *model.Session) error
	DeleteSession(ctx context.Context, id string) error
	ReplaceSessionSpeakers(ctx context.Context, sessionID string, speakerIDs []string) error

	InsertRegistration(ctx context.Context, r *model.Registration) error
	UpdateRegistration(ctx context.Context, r *model.Registration) error
	// FindActiveRegistration returns the non-cancelled registration of
	// attendeeID for eventID, or ErrNotFound.
	FindActiveRegistration(ctx context.Context, eventID, attendeeID string) (*model.Registration, error)
	CountActiveRegistrations(ctx context.Context, eventID string) (int, error)
}

// Store is a handle on the persisted state.
type Store interface {
	Reader
	// InTx runs fn in a transaction. It commits when fn returns nil and rolls
	// back otherwise, including on context cancellation.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
