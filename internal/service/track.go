package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CreateTrack adds a track to an event. Track names are unique per event.
func (s *EventService) CreateTrack(ctx context.Context, eventID string, req model.CreateTrackRequest) (*model.Track, error) {
	var track *model.Track
	err := s.observe(ctx, "create_track", func(ctx context.Context) error {
		req.Name = strings.TrimSpace(req.Name)
		if req.Color == "" {
			req.Color = model.DefaultTrackColor
		}
		if err := invalid(validation.ValidateStruct(&req,
			validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
			validation.Field(&req.Color, validation.Match(hexColor).Error("must be a hex color like #3B82F6")),
			validation.Field(&req.Room, validation.Length(0, 100)),
		)); err != nil {
			return err
		}

		return s.store.InTx(ctx, func(tx repository.Tx) error {
			if _, err := tx.GetEvent(ctx, eventID); err != nil {
				return lookup("event", eventID, err)
			}
			now := s.clock()
			t := &model.Track{
				ID:          uuid.New().String(),
				EventID:     eventID,
				Name:        req.Name,
				Description: req.Description,
				Color:       req.Color,
				Room:        req.Room,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.InsertTrack(ctx, t); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return domain.Conflict(domain.CodeDuplicateTrackName, "name",
						fmt.Sprintf("track %q already exists for this event", req.Name),
						map[string]any{"Name": req.Name})
				}
				return fmt.Errorf("create track: %w", err)
			}
			track = t
			return nil
		})
	})
	return track, err
}

// GetTrack returns a single track.
func (s *EventService) GetTrack(ctx context.Context, id string) (*model.Track, error) {
	t, err := s.store.GetTrack(ctx, id)
	if err != nil {
		return nil, lookup("track", id, err)
	}
	return t, nil
}

// ListTracks returns the tracks of an event ordered by name.
func (s *EventService) ListTracks(ctx context.Context, eventID string) ([]model.Track, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	tracks, err := s.store.ListTracks(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return tracks, nil
}

// DeleteTrack removes a track. Its sessions stay on the schedule, detached.
func (s *EventService) DeleteTrack(ctx context.Context, id string) error {
	return s.observe(ctx, "delete_track", func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			if _, err := tx.LockTrack(ctx, id); err != nil {
				return lookup("track", id, err)
			}
			if err := tx.DeleteTrack(ctx, id); err != nil {
				return fmt.Errorf("delete track: %w", err)
			}
			return nil
		})
	})
}

// CreateSpeaker registers a speaker profile. Emails are unique.
func (s *EventService) CreateSpeaker(ctx context.Context, req model.CreateSpeakerRequest) (*model.Speaker, error) {
	var speaker *model.Speaker
	err := s.observe(ctx, "create_speaker", func(ctx context.Context) error {
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := invalid(validation.ValidateStruct(&req,
			validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
			validation.Field(&req.Email, validation.Required, is.EmailFormat),
		)); err != nil {
			return err
		}

		now := s.clock()
		sp := &model.Speaker{
			ID:        uuid.New().String(),
			UserID:    req.UserID,
			Name:      req.Name,
			Email:     req.Email,
			Bio:       req.Bio,
			Title:     req.Title,
			Company:   req.Company,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			if err := tx.InsertSpeaker(ctx, sp); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return domain.Conflict(domain.CodeDuplicateSpeakerEmail, "email",
						fmt.Sprintf("speaker %s already exists", req.Email),
						map[string]any{"Email": req.Email})
				}
				return fmt.Errorf("create speaker: %w", err)
			}
			speaker = sp
			return nil
		})
	})
	return speaker, err
}

// GetSpeaker returns a single speaker.
func (s *EventService) GetSpeaker(ctx context.Context, id string) (*model.Speaker, error) {
	sp, err := s.store.GetSpeaker(ctx, id)
	if err != nil {
		return nil, lookup("speaker", id, err)
	}
	return sp, nil
}

// ListSpeakers returns every speaker ordered by name.
func (s *EventService) ListSpeakers(ctx context.Context) ([]model.Speaker, error) {
	speakers, err := s.store.ListSpeakers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list speakers: %w", err)
	}
	return speakers, nil
}

// SpeakerSessions returns the sessions a speaker presents, in start order.
func (s *EventService) SpeakerSessions(ctx context.Context, speakerID string) ([]model.Session, error) {
	if _, err := s.GetSpeaker(ctx, speakerID); err != nil {
		return nil, err
	}
	sessions, err := s.store.ListSessions(ctx, repository.SessionFilter{SpeakerID: speakerID})
	if err != nil {
		return nil, fmt.Errorf("list speaker sessions: %w", err)
	}
	return sessions, nil
}
