package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/schedule"
)

// SessionService runs the session lifecycle: window validation, containment
// within the event, track consistency and conflict detection, then the write.
type SessionService struct {
	base
}

// NewSessionService constructs a SessionService over store.
func NewSessionService(store repository.Store, opts ...Option) *SessionService {
	return &SessionService{base: newBase(store, opts)}
}

// ValidateSessionWindow checks a proposed window without touching storage.
func (s *SessionService) ValidateSessionWindow(req model.WindowCheckRequest) error {
	return schedule.ValidateWindow(req.StartTime, req.EndTime, req.DurationMinutes)
}

// FindConflicts lists the sessions of the query's track that overlap its
// window, earliest first. A query without a track never conflicts.
func (s *SessionService) FindConflicts(ctx context.Context, q model.ConflictQuery) (*model.ConflictReport, error) {
	if err := requireID("event_id", q.EventID); err != nil {
		return nil, err
	}
	if err := schedule.ValidateWindow(q.StartTime, q.EndTime, nil); err != nil {
		return nil, err
	}
	report := &model.ConflictReport{Conflicts: []model.Session{}}
	if q.TrackID == nil {
		return report, nil
	}

	existing, err := s.store.ListTrackSessions(ctx, q.EventID, *q.TrackID)
	if err != nil {
		return nil, fmt.Errorf("list track sessions: %w", err)
	}
	conflicts := schedule.FindConflicts(schedule.Candidate{
		EventID:   q.EventID,
		TrackID:   q.TrackID,
		Start:     q.StartTime,
		End:       q.EndTime,
		ExcludeID: q.ExcludeSessionID,
	}, existing)
	if len(conflicts) > 0 {
		report.HasConflicts = true
		report.Conflicts = conflicts
	}
	return report, nil
}

// SessionConflicts reports the sessions overlapping an existing session in
// its track.
func (s *SessionService) SessionConflicts(ctx context.Context, id string) (*model.ConflictReport, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.FindConflicts(ctx, model.ConflictQuery{
		EventID:          sess.EventID,
		TrackID:          sess.TrackID,
		StartTime:        sess.StartTime,
		EndTime:          sess.EndTime,
		ExcludeSessionID: sess.ID,
	})
}

// CreateSession schedules a new session.
func (s *SessionService) CreateSession(ctx context.Context, in model.SessionInput) (*model.Session, error) {
	var out *model.Session
	err := s.observe(ctx, "create_session", func(ctx context.Context) error {
		var err error
		out, err = s.save(ctx, "", in)
		return err
	})
	return out, err
}

// UpdateSession replaces a session's schedule and details. The session stays
// in its event; a nil SpeakerIDs keeps the current speakers.
func (s *SessionService) UpdateSession(ctx context.Context, id string, in model.SessionInput) (*model.Session, error) {
	var out *model.Session
	err := s.observe(ctx, "update_session", func(ctx context.Context) error {
		if err := requireID("session_id", id); err != nil {
			return err
		}
		var err error
		out, err = s.save(ctx, id, in)
		return err
	})
	return out, err
}

func normalizeSessionInput(in *model.SessionInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Format == "" {
		in.Format = model.FormatTalk
	}
	if in.Level == "" {
		in.Level = model.LevelAll
	}
	return invalid(validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Format, validation.In(
			model.FormatTalk, model.FormatWorkshop, model.FormatPanel,
			model.FormatLightning, model.FormatKeynote,
		)),
		validation.Field(&in.Level, validation.In(
			model.LevelBeginner, model.LevelIntermediate, model.LevelAdvanced, model.LevelAll,
		)),
		validation.Field(&in.StartTime, validation.Required),
		validation.Field(&in.EndTime, validation.Required),
		validation.Field(&in.MaxAttendees, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&in.SpeakerIDs, validation.Each(validation.Required)),
	))
}

// save is createOrUpdate: id == "" creates. Checks run in a fixed order and
// the first failure wins; nothing is written unless all pass.
func (s *SessionService) save(ctx context.Context, id string, in model.SessionInput) (*model.Session, error) {
	if err := normalizeSessionInput(&in); err != nil {
		return nil, err
	}
	if err := schedule.ValidateWindow(in.StartTime, in.EndTime, in.DurationMinutes); err != nil {
		return nil, err
	}
	duration := schedule.DurationMinutes(in.StartTime, in.EndTime)
	if in.DurationMinutes != nil {
		duration = *in.DurationMinutes
	}
	speakerIDs := dedupe(in.SpeakerIDs)

	var out *model.Session
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		// Lock order is event, track, session on every path.
		eventID := in.EventID
		if id != "" {
			cur, err := tx.GetSession(ctx, id)
			if err != nil {
				return lookup("session", id, err)
			}
			if eventID != "" && eventID != cur.EventID {
				return domain.InvalidInput("event_id", "a session cannot move to another event")
			}
			eventID = cur.EventID
		} else if err := requireID("event_id", eventID); err != nil {
			return err
		}

		event, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return lookup("event", eventID, err)
		}
		if err := schedule.ValidateContainment(in.StartTime, in.EndTime, event.StartDate, event.EndDate); err != nil {
			return err
		}

		var track *model.Track
		if in.TrackID != nil {
			track, err = tx.LockTrack(ctx, *in.TrackID)
			if err != nil {
				return lookup("track", *in.TrackID, err)
			}
			if track.EventID != event.ID {
				return domain.Validation(domain.CodeTrackEventMismatch, "track_id",
					"track belongs to a different event",
					map[string]any{"TrackID": track.ID, "EventID": event.ID})
			}
		}

		var existing *model.Session
		if id != "" {
			if existing, err = tx.LockSession(ctx, id); err != nil {
				return lookup("session", id, err)
			}
		}

		if track != nil {
			scheduled, err := tx.ListTrackSessions(ctx, event.ID, track.ID)
			if err != nil {
				return fmt.Errorf("list track sessions: %w", err)
			}
			conflicts := schedule.FindConflicts(schedule.Candidate{
				EventID:   event.ID,
				TrackID:   in.TrackID,
				Start:     in.StartTime,
				End:       in.EndTime,
				ExcludeID: id,
			}, scheduled)
			if len(conflicts) > 0 {
				return schedule.ConflictError(conflicts[0], s.loc)
			}
		}

		if len(speakerIDs) > 0 {
			missing, err := tx.MissingSpeakers(ctx, speakerIDs)
			if err != nil {
				return fmt.Errorf("check speakers: %w", err)
			}
			if len(missing) > 0 {
				return domain.NotFound("speaker", missing[0])
			}
		}

		now := s.clock()
		sess := &model.Session{
			ID:              id,
			EventID:         event.ID,
			TrackID:         in.TrackID,
			Title:           in.Title,
			Description:     in.Description,
			Format:          in.Format,
			Level:           in.Level,
			StartTime:       in.StartTime.UTC(),
			EndTime:         in.EndTime.UTC(),
			DurationMinutes: duration,
			Room:            in.Room,
			MaxAttendees:    in.MaxAttendees,
			Tags:            in.Tags,
			SpeakerIDs:      speakerIDs,
			UpdatedAt:       now,
		}

		if existing == nil {
			sess.ID = uuid.New().String()
			sess.CreatedAt = now
			if err := tx.InsertSession(ctx, sess); err != nil {
				return fmt.Errorf("insert session: %w", err)
			}
		} else {
			sess.CreatedAt = existing.CreatedAt
			if err := tx.UpdateSession(ctx, sess); err != nil {
				return fmt.Errorf("update session: %w", err)
			}
		}

		switch {
		case in.SpeakerIDs != nil:
			if err := tx.ReplaceSessionSpeakers(ctx, sess.ID, speakerIDs); err != nil {
				return fmt.Errorf("replace session speakers: %w", err)
			}
		case existing != nil:
			sess.SpeakerIDs = existing.SpeakerIDs
		default:
			sess.SpeakerIDs = []string{}
		}
		out = sess
		return nil
	})
	return out, err
}

// dedupe returns ids sorted without repeats; nil stays nil.
func dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// DeleteSession removes a session and its speaker links.
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	return s.observe(ctx, "delete_session", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			if _, err := tx.LockSession(ctx, id); err != nil {
				return lookup("session", id, err)
			}
			if err := tx.DeleteSession(ctx, id); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			return nil
		})
	})
}

// GetSession returns a single session with its speakers.
func (s *SessionService) GetSession(ctx context.Context, id string) (*model.Session, error) {
	if err := requireID("session_id", id); err != nil {
		return nil, err
	}
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, lookup("session", id, err)
	}
	return sess, nil
}

// ListSessions returns the sessions of an event in start order.
func (s *SessionService) ListSessions(ctx context.Context, eventID string) ([]model.Session, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, lookup("event", eventID, err)
	}
	sessions, err := s.store.ListSessions(ctx, repository.SessionFilter{EventID: eventID})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ListTrackSessions returns the sessions of a track in start order.
func (s *SessionService) ListTrackSessions(ctx context.Context, trackID string) ([]model.Session, error) {
	track, err := s.store.GetTrack(ctx, trackID)
	if err != nil {
		return nil, lookup("track", trackID, err)
	}
	sessions, err := s.store.ListTrackSessions(ctx, track.EventID, track.ID)
	if err != nil {
		return nil, fmt.Errorf("list track sessions: %w", err)
	}
	return sessions, nil
}

// DefaultUpcomingSessions caps UpcomingSessions when no limit is given.
const DefaultUpcomingSessions = 20

// OngoingSessions returns the sessions running now, endpoints included. An
// empty eventID spans every event.
func (s *SessionService) OngoingSessions(ctx context.Context, eventID string) ([]model.Session, error) {
	sessions, err := s.store.ListSessions(ctx, repository.SessionFilter{
		EventID:  eventID,
		ActiveAt: s.clock(),
	})
	if err != nil {
		return nil, fmt.Errorf("list ongoing sessions: %w", err)
	}
	return sessions, nil
}

// UpcomingSessions returns sessions starting at or after now, soonest first.
func (s *SessionService) UpcomingSessions(ctx context.Context, eventID string, limit int) ([]model.Session, error) {
	if limit <= 0 {
		limit = DefaultUpcomingSessions
	}
	sessions, err := s.store.ListSessions(ctx, repository.SessionFilter{
		EventID:    eventID,
		StartsFrom: s.clock(),
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list upcoming sessions: %w", err)
	}
	return sessions, nil
}

// IsSessionOngoing reports whether now lies within the session, endpoints
// included.
func (s *SessionService) IsSessionOngoing(ctx context.Context, id string) (bool, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return false, err
	}
	return sess.IsOngoing(s.clock()), nil
}

// HasSessionEnded reports whether the session is over.
func (s *SessionService) HasSessionEnded(ctx context.Context, id string) (bool, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return false, err
	}
	return sess.HasEnded(s.clock()), nil
}
