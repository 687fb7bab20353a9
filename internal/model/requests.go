package model

import "time"

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	EventType         string    `json:"event_type"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
	VenueName         string    `json:"venue_name"`
	City              string    `json:"city"`
	Country           string    `json:"country"`
	Capacity          int       `json:"capacity"`
}

// UpdateEventRequest replaces the mutable fields of an event.
type UpdateEventRequest = CreateEventRequest

// TransitionRequest asks for an event status change.
type TransitionRequest struct {
	Status EventStatus `json:"status"`
}

// CreateTrackRequest is the payload for adding a track to an event.
type CreateTrackRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Room        string `json:"room"`
}

// CreateSpeakerRequest is the payload for registering a speaker profile.
type CreateSpeakerRequest struct {
	UserID  *string `json:"user_id,omitempty"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Bio     string  `json:"bio"`
	Title   string  `json:"title"`
	Company string  `json:"company"`
}

// SessionInput is the payload for creating or updating a session.
// DurationMinutes is derived from the window when nil. SpeakerIDs replaces the
// whole speaker set when non-nil; on update a nil slice keeps the current set.
type SessionInput struct {
	EventID         string    `json:"event_id"`
	TrackID         *string   `json:"track_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Format          string    `json:"format"`
	Level           string    `json:"level"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes *int      `json:"duration_minutes"`
	Room            string    `json:"room"`
	MaxAttendees    *int      `json:"max_attendees"`
	Tags            string    `json:"tags"`
	SpeakerIDs      []string  `json:"speaker_ids"`
}

// ConflictQuery asks which sessions of a track would collide with a window.
type ConflictQuery struct {
	EventID          string    `json:"event_id"`
	TrackID          *string   `json:"track_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	ExcludeSessionID string    `json:"exclude_session_id"`
}

// WindowCheckRequest is the payload of the stand-alone window validation call.
type WindowCheckRequest struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes *int      `json:"duration_minutes"`
}

// RegisterRequest carries the optional attendee notes of a registration.
type RegisterRequest struct {
	DietaryRequirements string `json:"dietary_requirements"`
	SpecialRequests     string `json:"special_requests"`
}

// ErrorBody describes one rejection.
type ErrorBody struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ConflictReport is the answer to a conflict query.
type ConflictReport struct {
	HasConflicts bool      `json:"has_conflicts"`
	Conflicts    []Session `json:"conflicts"`
}

// Availability summarises an event's capacity for callers.
type Availability struct {
	EventID          string `json:"event_id"`
	Capacity         int    `json:"capacity"`
	CurrentAttendees int    `json:"current_attendees"`
	AvailableSpots   int    `json:"available_spots"`
	IsFull           bool   `json:"is_full"`
	RegistrationOpen bool   `json:"registration_open"`
}

// BookingResult summarises the outcome of a single registration attempt.
// Used in the concurrent test harness.
type BookingResult struct {
	AttendeeID string
	Success    bool
	Error      error
}
