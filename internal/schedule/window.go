// Package schedule holds the pure time-window rules of the engine: window
// validation, containment and half-open overlap detection. Nothing here
// touches storage.
package schedule

import (
	"fmt"
	"math"
	"time"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
)

// DurationTolerance is the allowed gap between a declared duration and the
// window it describes.
const DurationTolerance = 1.0 // minutes

// ClockLayout formats the times cited in conflict messages.
const ClockLayout = "15:04"

// ValidateWindow checks that end is after start and, when durationMinutes is
// given, that it matches the window within DurationTolerance.
func ValidateWindow(start, end time.Time, durationMinutes *int) error {
	if !end.After(start) {
		return domain.Validation(domain.CodeInvertedWindow, "end_time",
			"end time must be after start time",
			map[string]any{"Start": start, "End": end})
	}
	if durationMinutes == nil {
		return nil
	}
	actual := end.Sub(start).Minutes()
	if math.Abs(actual-float64(*durationMinutes)) > DurationTolerance {
		return domain.Validation(domain.CodeDurationMismatch, "duration_minutes",
			fmt.Sprintf("duration does not match time range (actual: %.0f minutes)", actual),
			map[string]any{"Actual": int(math.Round(actual)), "Declared": *durationMinutes})
	}
	return nil
}

// ValidateContainment checks that [innerStart, innerEnd] lies within
// [outerStart, outerEnd].
func ValidateContainment(innerStart, innerEnd, outerStart, outerEnd time.Time) error {
	if innerStart.Before(outerStart) {
		return domain.Validation(domain.CodeOutOfBounds, "start_time",
			"session must not start before the event",
			map[string]any{"Start": outerStart, "End": outerEnd})
	}
	if innerEnd.After(outerEnd) {
		return domain.Validation(domain.CodeOutOfBounds, "end_time",
			"session must not end after the event",
			map[string]any{"Start": outerStart, "End": outerEnd})
	}
	return nil
}

// DurationMinutes returns the window length rounded to whole minutes.
func DurationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

// FormatRange renders a window as "HH:MM-HH:MM".
func FormatRange(start, end time.Time) string {
	return start.Format(ClockLayout) + "-" + end.Format(ClockLayout)
}
