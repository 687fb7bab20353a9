package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/schedule"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/service"
)

func TestCreateSessionRejectsOverlapInTrack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	tr := f.track(t, e.ID, "Main")

	a, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "Session A", at(10, 0), at(11, 30)))
	require.NoError(t, err)

	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "Session B", at(11, 0), at(12, 0)))
	de := requireCode(t, err, domain.CodeSchedulingConflict)
	assert.Equal(t, domain.KindConflict, de.Kind)
	assert.Equal(t, "Session A", de.Params["Title"])
	assert.Equal(t, "10:00-11:30", de.Params["Range"])
	assert.Equal(t, a.ID, de.Params["SessionID"])
	assert.Contains(t, de.Message, `"Session A"`)

	sessions, err := f.sessions.ListTrackSessions(ctx, tr.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestCreateSessionTouchingEndpointsDoNotConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	tr := f.track(t, e.ID, "Main")

	_, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "Session A", at(10, 0), at(11, 30)))
	require.NoError(t, err)
	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "Session B", at(11, 30), at(12, 30)))
	require.NoError(t, err)
	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "Session Z", at(9, 0), at(10, 0)))
	require.NoError(t, err)
}

func TestCreateSessionCitesEarliestConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	tr := f.track(t, e.ID, "Main")

	_, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "Late", at(11, 0), at(12, 0)))
	require.NoError(t, err)
	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "Early", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "Long", at(9, 30), at(11, 30)))
	de := requireCode(t, err, domain.CodeSchedulingConflict)
	assert.Equal(t, "Early", de.Params["Title"])
	assert.Equal(t, "09:00-10:00", de.Params["Range"])
}

func TestCreateSessionOutsideEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(9, 30), at(17, 0))

	_, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, nil, "Too early", at(9, 0), at(10, 0)))
	de := requireCode(t, err, domain.CodeOutOfBounds)
	assert.Equal(t, domain.KindValidation, de.Kind)
	assert.Equal(t, "start_time", de.Field)

	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, nil, "Too late", at(16, 30), at(17, 1)))
	de = requireCode(t, err, domain.CodeOutOfBounds)
	assert.Equal(t, "end_time", de.Field)

	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, nil, "Evening", at(16, 0), at(18, 0)))
	de = requireCode(t, err, domain.CodeOutOfBounds)
	assert.Equal(t, "end_time", de.Field)

	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, nil, "Whole day", at(9, 30), at(17, 0)))
	require.NoError(t, err)
}

func TestCreateSessionDerivesDuration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))

	s, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, nil, "Workshop", at(9, 0), at(10, 30)))
	require.NoError(t, err)
	assert.Equal(t, 90, s.DurationMinutes)

	stored, err := f.sessions.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, stored.DurationMinutes)
	assert.Equal(t, model.FormatTalk, stored.Format)
	assert.Equal(t, model.LevelAll, stored.Level)
	assert.True(t, stored.StartTime.Equal(at(9, 0)))
}

func TestCreateSessionWindowChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		duration *int
		code     domain.Code
		field    string
	}{
		{name: "inverted", start: at(11, 0), end: at(10, 0), code: domain.CodeInvertedWindow, field: "end_time"},
		{name: "empty", start: at(11, 0), end: at(11, 0), code: domain.CodeInvertedWindow, field: "end_time"},
		{name: "duration mismatch", start: at(9, 0), end: at(10, 30), duration: ptr(60), code: domain.CodeDurationMismatch, field: "duration_minutes"},
		{name: "inverted beats mismatch", start: at(11, 0), end: at(10, 0), duration: ptr(60), code: domain.CodeInvertedWindow, field: "end_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sessionInput(e.ID, nil, "Talk", tt.start, tt.end)
			in.DurationMinutes = tt.duration
			_, err := f.sessions.CreateSession(ctx, in)
			de := requireCode(t, err, tt.code)
			assert.Equal(t, tt.field, de.Field)
		})
	}

	in := sessionInput(e.ID, nil, "Within tolerance", at(9, 0), at(10, 30))
	in.DurationMinutes = ptr(91)
	s, err := f.sessions.CreateSession(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 91, s.DurationMinutes)
}

func TestCreateSessionTrackFromOtherEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e1 := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	e2 := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	foreign := f.track(t, e2.ID, "Other")

	_, err := f.sessions.CreateSession(ctx, sessionInput(e1.ID, &foreign.ID, "Talk", at(9, 0), at(10, 0)))
	de := requireCode(t, err, domain.CodeTrackEventMismatch)
	assert.Equal(t, "track_id", de.Field)
}

func TestCreateSessionUnknownReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))

	_, err := f.sessions.CreateSession(ctx, sessionInput("missing", nil, "Talk", at(9, 0), at(10, 0)))
	requireCode(t, err, domain.CodeNotFound)

	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, ptr("missing"), "Talk", at(9, 0), at(10, 0)))
	requireCode(t, err, domain.CodeNotFound)

	in := sessionInput(e.ID, nil, "Talk", at(9, 0), at(10, 0))
	in.SpeakerIDs = []string{"ghost"}
	_, err = f.sessions.CreateSession(ctx, in)
	de := requireCode(t, err, domain.CodeNotFound)
	assert.Equal(t, "ghost", de.Params["ID"])

	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, nil, "  ", at(9, 0), at(10, 0)))
	de = requireCode(t, err, domain.CodeInvalidInput)
	assert.Equal(t, "title", de.Field)
}

func TestDetachedSessionsNeverConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	tr := f.track(t, e.ID, "Main")

	_, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "Tracked", at(10, 0), at(11, 0)))
	require.NoError(t, err)
	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, nil, "Free 1", at(10, 0), at(11, 0)))
	require.NoError(t, err)
	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, nil, "Free 2", at(10, 0), at(11, 0)))
	require.NoError(t, err)

	report, err := f.sessions.FindConflicts(ctx, model.ConflictQuery{
		EventID: e.ID, StartTime: at(10, 0), EndTime: at(11, 0),
	})
	require.NoError(t, err)
	assert.False(t, report.HasConflicts)
	assert.Empty(t, report.Conflicts)
}

func TestParallelTracksDoNotConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	t1 := f.track(t, e.ID, "Backend")
	t2 := f.track(t, e.ID, "Frontend")

	_, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, &t1.ID, "Go", at(10, 0), at(11, 0)))
	require.NoError(t, err)
	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, &t2.ID, "CSS", at(10, 0), at(11, 0)))
	require.NoError(t, err)
}

func TestUpdateSessionExcludesItself(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	tr := f.track(t, e.ID, "Main")

	a, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "A", at(10, 0), at(11, 0)))
	require.NoError(t, err)
	b, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "B", at(11, 0), at(12, 0)))
	require.NoError(t, err)

	moved, err := f.sessions.UpdateSession(ctx, a.ID, sessionInput("", &tr.ID, "A", at(10, 15), at(11, 0)))
	require.NoError(t, err)
	assert.Equal(t, 45, moved.DurationMinutes)
	assert.Equal(t, a.ID, moved.ID)
	assert.True(t, moved.CreatedAt.Equal(a.CreatedAt))

	_, err = f.sessions.UpdateSession(ctx, a.ID, sessionInput(e.ID, &tr.ID, "A", at(10, 30), at(11, 30)))
	de := requireCode(t, err, domain.CodeSchedulingConflict)
	assert.Equal(t, b.ID, de.Params["SessionID"])

	stored, err := f.sessions.GetSession(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.StartTime.Equal(at(10, 15)), "rejected update must not write")
}

func TestUpdateSessionCannotChangeEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e1 := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	e2 := f.publishedEvent(t, 100, at(8, 0), at(18, 0))

	s, err := f.sessions.CreateSession(ctx, sessionInput(e1.ID, nil, "Talk", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	_, err = f.sessions.UpdateSession(ctx, s.ID, sessionInput(e2.ID, nil, "Talk", at(9, 0), at(10, 0)))
	de := requireCode(t, err, domain.CodeInvalidInput)
	assert.Equal(t, "event_id", de.Field)

	_, err = f.sessions.UpdateSession(ctx, "missing", sessionInput(e1.ID, nil, "Talk", at(9, 0), at(10, 0)))
	requireCode(t, err, domain.CodeNotFound)
}

func TestSessionSpeakersReplaceAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))

	s1, err := f.events.CreateSpeaker(ctx, model.CreateSpeakerRequest{Name: "Rob", Email: "rob@example.com"})
	require.NoError(t, err)
	s2, err := f.events.CreateSpeaker(ctx, model.CreateSpeakerRequest{Name: "Ken", Email: "ken@example.com"})
	require.NoError(t, err)

	in := sessionInput(e.ID, nil, "Panel", at(9, 0), at(10, 0))
	in.SpeakerIDs = []string{s1.ID, s2.ID, s1.ID}
	sess, err := f.sessions.CreateSession(ctx, in)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{s1.ID, s2.ID}, sess.SpeakerIDs)

	in.SpeakerIDs = []string{s2.ID}
	sess, err = f.sessions.UpdateSession(ctx, sess.ID, in)
	require.NoError(t, err)
	assert.Equal(t, []string{s2.ID}, sess.SpeakerIDs)

	in.SpeakerIDs = nil
	in.Title = "Panel (renamed)"
	sess, err = f.sessions.UpdateSession(ctx, sess.ID, in)
	require.NoError(t, err)
	assert.Equal(t, []string{s2.ID}, sess.SpeakerIDs)

	stored, err := f.sessions.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{s2.ID}, stored.SpeakerIDs)

	talks, err := f.events.SpeakerSessions(ctx, s2.ID)
	require.NoError(t, err)
	require.Len(t, talks, 1)
	assert.Equal(t, "Panel (renamed)", talks[0].Title)

	in.SpeakerIDs = []string{}
	sess, err = f.sessions.UpdateSession(ctx, sess.ID, in)
	require.NoError(t, err)
	assert.Empty(t, sess.SpeakerIDs)
}

func TestDeleteSessionFreesSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	tr := f.track(t, e.ID, "Main")

	a, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "A", at(10, 0), at(11, 0)))
	require.NoError(t, err)
	require.NoError(t, f.sessions.DeleteSession(ctx, a.ID))

	_, err = f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "B", at(10, 0), at(11, 0)))
	require.NoError(t, err)

	requireCode(t, f.sessions.DeleteSession(ctx, a.ID), domain.CodeNotFound)
}

func TestDeleteTrackDetachesSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	tr := f.track(t, e.ID, "Main")

	s, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "A", at(10, 0), at(11, 0)))
	require.NoError(t, err)
	require.NoError(t, f.events.DeleteTrack(ctx, tr.ID))

	stored, err := f.sessions.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TrackID)

	_, err = f.events.GetTrack(ctx, tr.ID)
	requireCode(t, err, domain.CodeNotFound)
}

func TestSessionConflictsReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	tr := f.track(t, e.ID, "Main")

	a, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "A", at(10, 0), at(11, 0)))
	require.NoError(t, err)

	report, err := f.sessions.SessionConflicts(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, report.HasConflicts)

	report, err = f.sessions.FindConflicts(ctx, model.ConflictQuery{
		EventID: e.ID, TrackID: &tr.ID, StartTime: at(10, 30), EndTime: at(11, 30),
	})
	require.NoError(t, err)
	assert.True(t, report.HasConflicts)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, a.ID, report.Conflicts[0].ID)

	report, err = f.sessions.FindConflicts(ctx, model.ConflictQuery{
		EventID: e.ID, TrackID: &tr.ID, StartTime: at(10, 30), EndTime: at(11, 30), ExcludeSessionID: a.ID,
	})
	require.NoError(t, err)
	assert.False(t, report.HasConflicts)
}

func TestValidateSessionWindow(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.sessions.ValidateSessionWindow(model.WindowCheckRequest{StartTime: at(9, 0), EndTime: at(10, 0)}))
	requireCode(t, f.sessions.ValidateSessionWindow(model.WindowCheckRequest{
		StartTime: at(9, 0), EndTime: at(10, 0), DurationMinutes: ptr(30),
	}), domain.CodeDurationMismatch)
}

func TestSessionTimeAccessors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	s, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, nil, "Talk", at(10, 0), at(11, 0)))
	require.NoError(t, err)

	check := func(now time.Time, ongoing, ended bool) {
		t.Helper()
		f.setNow(now)
		got, err := f.sessions.IsSessionOngoing(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, ongoing, got, "ongoing at %s", now)
		got, err = f.sessions.HasSessionEnded(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, ended, got, "ended at %s", now)
	}
	check(at(9, 59), false, false)
	check(at(10, 0), true, false)
	check(at(11, 0), true, false)
	check(at(11, 1), false, true)
}

func TestConcurrentSessionCreatesOnOneTrack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	tr := f.track(t, e.ID, "Main")

	const workers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Every candidate overlaps every other one.
			start := at(10, i)
			_, err := f.sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, fmt.Sprintf("Talk %d", i), start, start.Add(time.Hour)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			assert.ErrorIs(t, err, domain.ErrSchedulingConflict)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	sessions, err := f.sessions.ListTrackSessions(ctx, tr.ID)
	require.NoError(t, err)
	for i := range sessions {
		for j := i + 1; j < len(sessions); j++ {
			assert.False(t, schedule.Overlaps(sessions[i].StartTime, sessions[i].EndTime, sessions[j].StartTime, sessions[j].EndTime))
		}
	}
}

func TestConflictMessageUsesLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	loc := time.FixedZone("CET", 3600)
	sessions := service.NewSessionService(f.store, service.WithClock(f.clock), service.WithLocation(loc))
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	tr := f.track(t, e.ID, "Main")

	_, err := sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "A", at(10, 0), at(11, 30)))
	require.NoError(t, err)
	_, err = sessions.CreateSession(ctx, sessionInput(e.ID, &tr.ID, "B", at(11, 0), at(12, 0)))
	de := requireCode(t, err, domain.CodeSchedulingConflict)
	assert.Equal(t, "11:00-12:30", de.Params["Range"])
}

func TestOngoingAndUpcomingSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	other := f.publishedEvent(t, 100, at(8, 0), at(18, 0))

	titles := func(sessions []model.Session) []string {
		out := make([]string, 0, len(sessions))
		for _, s := range sessions {
			out = append(out, s.Title)
		}
		return out
	}
	for _, in := range []model.SessionInput{
		sessionInput(e.ID, nil, "Breakfast", at(9, 0), at(10, 0)),
		sessionInput(e.ID, nil, "Keynote", at(10, 0), at(11, 0)),
		sessionInput(e.ID, nil, "Workshop", at(10, 30), at(12, 0)),
		sessionInput(e.ID, nil, "Panel", at(14, 0), at(15, 0)),
		sessionInput(other.ID, nil, "Elsewhere", at(10, 0), at(16, 0)),
	} {
		_, err := f.sessions.CreateSession(ctx, in)
		require.NoError(t, err)
	}
	f.setNow(at(10, 30))

	ongoing, err := f.sessions.OngoingSessions(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keynote", "Workshop"}, titles(ongoing))

	everywhere, err := f.sessions.OngoingSessions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, everywhere, 3)

	upcoming, err := f.sessions.UpcomingSessions(ctx, e.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Workshop", "Panel"}, titles(upcoming))

	first, err := f.sessions.UpcomingSessions(ctx, e.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Workshop"}, titles(first))
}

func TestUpcomingSessionsDefaultLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.publishedEvent(t, 100, at(8, 0), at(18, 0))
	for i := range service.DefaultUpcomingSessions + 2 {
		_, err := f.sessions.CreateSession(ctx,
			sessionInput(e.ID, nil, fmt.Sprintf("Lightning %d", i), at(15, i), at(15, i+1)))
		require.NoError(t, err)
	}

	upcoming, err := f.sessions.UpcomingSessions(ctx, e.ID, 0)
	require.NoError(t, err)
	require.Len(t, upcoming, service.DefaultUpcomingSessions)
	assert.Equal(t, "Lightning 0", upcoming[0].Title)
}
