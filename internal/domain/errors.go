// Package domain defines the structured errors returned by the scheduling and
// capacity engine. Every rejection carries a machine-readable code, the
// offending field and enough parameters for a caller to explain it to an end
// user.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind int

const (
	// KindValidation is malformed input. Always recoverable.
	KindValidation Kind = iota + 1
	// KindConflict is well-formed input that collides with persisted state.
	KindConflict
	// KindConsistency means a stored invariant was found broken. Treat as a bug.
	KindConsistency
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindConsistency:
		return "consistency"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Code is a machine-readable error code.
type Code string

const (
	// Validation
	CodeInvertedWindow     Code = "INVERTED_WINDOW"
	CodeDurationMismatch   Code = "DURATION_MISMATCH"
	CodeOutOfBounds        Code = "OUT_OF_BOUNDS"
	CodeTrackEventMismatch Code = "TRACK_EVENT_MISMATCH"
	CodeInvalidInput       Code = "INVALID_INPUT"

	// Conflict
	CodeSchedulingConflict      Code = "SCHEDULING_CONFLICT"
	CodeDuplicateRegistration   Code = "DUPLICATE_REGISTRATION"
	CodeEventFull               Code = "EVENT_FULL"
	CodeEventNotOpen            Code = "EVENT_NOT_OPEN"
	CodeCapacityExceeded        Code = "CAPACITY_EXCEEDED"
	CodeInvalidTransition       Code = "INVALID_TRANSITION"
	CodeDuplicateTrackName      Code = "DUPLICATE_TRACK_NAME"
	CodeDuplicateSpeakerEmail   Code = "DUPLICATE_SPEAKER_EMAIL"
	CodeCapacityBelowAttendance Code = "CAPACITY_BELOW_ATTENDANCE"
	CodeSessionsOutOfBounds     Code = "SESSIONS_OUT_OF_BOUNDS"

	// Consistency
	CodeAttendanceDrift    Code = "ATTENDANCE_DRIFT"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"

	CodeNotFound Code = "NOT_FOUND"
)

// Error is the single error type produced by the core.
type Error struct {
	Kind    Kind
	Code    Code
	Field   string
	Message string
	// Params feeds localized message templates.
	Params map[string]any
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is matches any *Error carrying the same code, so sentinel-style checks like
// errors.Is(err, domain.ErrEventFull) work regardless of params.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrInvertedWindow          = &Error{Kind: KindValidation, Code: CodeInvertedWindow}
	ErrDurationMismatch        = &Error{Kind: KindValidation, Code: CodeDurationMismatch}
	ErrOutOfBounds             = &Error{Kind: KindValidation, Code: CodeOutOfBounds}
	ErrTrackEventMismatch      = &Error{Kind: KindValidation, Code: CodeTrackEventMismatch}
	ErrInvalidInput            = &Error{Kind: KindValidation, Code: CodeInvalidInput}
	ErrSchedulingConflict      = &Error{Kind: KindConflict, Code: CodeSchedulingConflict}
	ErrDuplicateRegistration   = &Error{Kind: KindConflict, Code: CodeDuplicateRegistration}
	ErrEventFull               = &Error{Kind: KindConflict, Code: CodeEventFull}
	ErrEventNotOpen            = &Error{Kind: KindConflict, Code: CodeEventNotOpen}
	ErrCapacityExceeded        = &Error{Kind: KindConflict, Code: CodeCapacityExceeded}
	ErrInvalidTransition       = &Error{Kind: KindConflict, Code: CodeInvalidTransition}
	ErrDuplicateTrackName      = &Error{Kind: KindConflict, Code: CodeDuplicateTrackName}
	ErrDuplicateSpeakerEmail   = &Error{Kind: KindConflict, Code: CodeDuplicateSpeakerEmail}
	ErrCapacityBelowAttendance = &Error{Kind: KindConflict, Code: CodeCapacityBelowAttendance}
	ErrSessionsOutOfBounds     = &Error{Kind: KindConflict, Code: CodeSessionsOutOfBounds}
	ErrAttendanceDrift         = &Error{Kind: KindConsistency, Code: CodeAttendanceDrift}
	ErrInvariantViolation      = &Error{Kind: KindConsistency, Code: CodeInvariantViolation}
	ErrNotFound                = &Error{Kind: KindNotFound, Code: CodeNotFound}
)

// Validation builds a KindValidation error.
func Validation(code Code, field, msg string, params map[string]any) *Error {
	return &Error{Kind: KindValidation, Code: code, Field: field, Message: msg, Params: params}
}

// Conflict builds a KindConflict error.
func Conflict(code Code, field, msg string, params map[string]any) *Error {
	return &Error{Kind: KindConflict, Code: code, Field: field, Message: msg, Params: params}
}

// Consistency builds a KindConsistency error.
func Consistency(code Code, msg string, params map[string]any) *Error {
	return &Error{Kind: KindConsistency, Code: code, Message: msg, Params: params}
}

// NotFound reports a missing entity of the given kind ("event", "track", ...).
func NotFound(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Field:   entity,
		Message: fmt.Sprintf("%s %q not found", entity, id),
		Params:  map[string]any{"Entity": entity, "ID": id},
	}
}

// InvalidInput reports a malformed payload field.
func InvalidInput(field, msg string) *Error {
	return Validation(CodeInvalidInput, field, msg, map[string]any{"Field": field, "Reason": msg})
}

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the domain code carried by err, or "" for infrastructure errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return ""
}

// KindOf returns the kind carried by err, or 0 for infrastructure errors.
func KindOf(err error) Kind {
	if de, ok := As(err); ok {
		return de.Kind
	}
	return 0
}
