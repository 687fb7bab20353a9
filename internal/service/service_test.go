package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository/sqlite"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/service"
)

const organizer = "organizer-1"

// day is the conference day used across tests.
var day = time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type fixture struct {
	store    *sqlite.Store
	events   *service.EventService
	sessions *service.SessionService
	regs     *service.RegistrationService

	mu  sync.Mutex
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "conference.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{store: store, now: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)}
	opts := []service.Option{service.WithClock(f.clock)}
	f.events = service.NewEventService(store, opts...)
	f.sessions = service.NewSessionService(store, opts...)
	f.regs = service.NewRegistrationService(store, opts...)
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) setNow(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

func eventRequest(capacity int, start, end time.Time) model.CreateEventRequest {
	return model.CreateEventRequest{
		Title:             "GopherCon EU",
		StartDate:         start,
		EndDate:           end,
		RegistrationStart: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		RegistrationEnd:   time.Date(2026, 11, 2, 23, 59, 0, 0, time.UTC),
		VenueName:         "Hall 1",
		City:              "Berlin",
		Country:           "DE",
		Capacity:          capacity,
	}
}

// publishedEvent creates and publishes an event running start..end.
func (f *fixture) publishedEvent(t *testing.T, capacity int, start, end time.Time) *model.Event {
	t.Helper()
	ctx := context.Background()
	e, err := f.events.CreateEvent(ctx, organizer, eventRequest(capacity, start, end))
	require.NoError(t, err)
	e, err = f.events.PublishEvent(ctx, e.ID)
	require.NoError(t, err)
	return e
}

func (f *fixture) track(t *testing.T, eventID, name string) *model.Track {
	t.Helper()
	tr, err := f.events.CreateTrack(context.Background(), eventID, model.CreateTrackRequest{Name: name})
	require.NoError(t, err)
	return tr
}

func (f *fixture) attendees(t *testing.T, eventID string) int {
	t.Helper()
	e, err := f.store.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	return e.CurrentAttendees
}

func (f *fixture) activeCount(t *testing.T, eventID string) int {
	t.Helper()
	var n int
	require.NoError(t, f.store.InTx(context.Background(), func(tx repository.Tx) error {
		var err error
		n, err = tx.CountActiveRegistrations(context.Background(), eventID)
		return err
	}))
	return n
}

func sessionInput(eventID string, trackID *string, title string, start, end time.Time) model.SessionInput {
	return model.SessionInput{
		EventID:   eventID,
		TrackID:   trackID,
		Title:     title,
		StartTime: start,
		EndTime:   end,
	}
}

func requireCode(t *testing.T, err error, code domain.Code) *domain.Error {
	t.Helper()
	require.Error(t, err)
	de, ok := domain.As(err)
	require.Truef(t, ok, "expected a domain error, got %v", err)
	require.Equal(t, code, de.Code, "message: %s", de.Message)
	return de
}

func ptr[T any](v T) *T { return &v }
