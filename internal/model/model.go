// Package model defines the core domain types for the conference system.
package model

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventOngoing, EventCompleted, EventCancelled:
		return true
	}
	return false
}

var eventTransitions = map[EventStatus][]EventStatus{
	EventDraft:     {EventPublished, EventCancelled},
	EventPublished: {EventOngoing, EventCancelled, EventDraft},
	EventOngoing:   {EventCompleted, EventCancelled},
}

// CanTransitionTo reports whether an event may move from s to next.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, to := range eventTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// Event types offered by organizers.
const (
	TypeConference = "conference"
	TypeWorkshop   = "workshop"
	TypeSeminar    = "seminar"
	TypeMeetup     = "meetup"
	TypeHackathon  = "hackathon"
)

// Event represents a conference owned by one organizer.
type Event struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	EventType         string      `json:"event_type"`
	Status            EventStatus `json:"status"`
	StartDate         time.Time   `json:"start_date"`
	EndDate           time.Time   `json:"end_date"`
	RegistrationStart time.Time   `json:"registration_start"`
	RegistrationEnd   time.Time   `json:"registration_end"`
	VenueName         string      `json:"venue_name"`
	City              string      `json:"city"`
	Country           string      `json:"country"`
	Capacity          int         `json:"capacity"`
	CurrentAttendees  int         `json:"current_attendees"`
	OrganizerID       string      `json:"organizer_id"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// AvailableSpots returns the number of free places, never negative.
func (e *Event) AvailableSpots() int {
	return max(0, e.Capacity-e.CurrentAttendees)
}

// IsFull returns true when no places remain.
func (e *Event) IsFull() bool {
	return e.CurrentAttendees >= e.Capacity
}

// InRegistrationWindow reports whether now lies in the closed registration window.
func (e *Event) InRegistrationWindow(now time.Time) bool {
	return !now.Before(e.RegistrationStart) && !now.After(e.RegistrationEnd)
}

// IsRegistrationOpen reports whether a new registration would pass the
// admission gate on status, window and capacity.
func (e *Event) IsRegistrationOpen(now time.Time) bool {
	return e.Status == EventPublished && e.InRegistrationWindow(now) && !e.IsFull()
}

// Track is a parallel scheduling lane within one event.
type Track struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Room        string    `json:"room"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultTrackColor is used when a track is created without a color.
const DefaultTrackColor = "#3B82F6"

// Session formats.
const (
	FormatTalk      = "talk"
	FormatWorkshop  = "workshop"
	FormatPanel     = "panel"
	FormatLightning = "lightning"
	FormatKeynote   = "keynote"
)

// Session levels.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelAll          = "all"
)

// Session is a time-boxed talk or workshop within an event.
// A nil TrackID means the session is detached and exempt from conflict checks.
type Session struct {
	ID              string    `json:"id"`
	EventID         string    `json:"event_id"`
	TrackID         *string   `json:"track_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Format          string    `json:"format"`
	Level           string    `json:"level"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Room            string    `json:"room"`
	MaxAttendees    *int      `json:"max_attendees,omitempty"`
	Tags            string    `json:"tags"`
	SpeakerIDs      []string  `json:"speaker_ids"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsOngoing reports whether now falls within the session, endpoints included.
func (s *Session) IsOngoing(now time.Time) bool {
	return !now.Before(s.StartTime) && !now.After(s.EndTime)
}

// HasEnded reports whether the session is over.
func (s *Session) HasEnded(now time.Time) bool {
	return now.After(s.EndTime)
}

// InTrack reports whether the session is attached to trackID.
func (s *Session) InTrack(trackID string) bool {
	return s.TrackID != nil && *s.TrackID == trackID
}

// Speaker is a person presenting one or more sessions.
type Speaker struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegistrationStatus is the state of a registration.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
	RegistrationAttended  RegistrationStatus = "attended"
)

// Active reports whether the registration holds a place at its event.
func (s RegistrationStatus) Active() bool {
	return s != RegistrationCancelled
}

// Mutable reports whether confirm and cancel may act on the registration.
func (s RegistrationStatus) Mutable() bool {
	return s == RegistrationPending || s == RegistrationConfirmed
}

// Registration represents an attendee's registration for an event.
type Registration struct {
	ID                  string             `json:"id"`
	EventID             string             `json:"event_id"`
	AttendeeID          string             `json:"attendee_id"`
	Status              RegistrationStatus `json:"status"`
	RegistrationDate    time.Time          `json:"registration_date"`
	ConfirmationDate    *time.Time         `json:"confirmation_date,omitempty"`
	DietaryRequirements string             `json:"dietary_requirements"`
	SpecialRequests     string             `json:"special_requests"`
	UpdatedAt           time.Time          `json:"updated_at"`
}
