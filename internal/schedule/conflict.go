package schedule

import (
	"fmt"
	"slices"
	"time"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
)

// Overlaps reports whether the half-open windows [s1,e1) and [s2,e2)
// intersect. Touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// Candidate is a proposed placement of a session.
type Candidate struct {
	EventID string
	// TrackID nil means detached; detached candidates never conflict.
	TrackID   *string
	Start     time.Time
	End       time.Time
	ExcludeID string
}

// FindConflicts returns the sessions in existing that share the candidate's
// event and non-null track and overlap its window, ordered by start time.
// The session named by ExcludeID is never reported.
func FindConflicts(c Candidate, existing []model.Session) []model.Session {
	if c.TrackID == nil {
		return nil
	}
	var out []model.Session
	for _, s := range existing {
		if s.ID == c.ExcludeID && c.ExcludeID != "" {
			continue
		}
		if s.EventID != c.EventID || !s.InTrack(*c.TrackID) {
			continue
		}
		if Overlaps(c.Start, c.End, s.StartTime, s.EndTime) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Session) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out
}

// ConflictError builds the rejection citing the earliest conflicting session,
// with its clock times rendered in loc.
func ConflictError(first model.Session, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	rng := FormatRange(first.StartTime.In(loc), first.EndTime.In(loc))
	return domain.Conflict(domain.CodeSchedulingConflict, "start_time",
		fmt.Sprintf("time conflict with %q (%s)", first.Title, rng),
		map[string]any{"Title": first.Title, "Range": rng, "SessionID": first.ID})
}
