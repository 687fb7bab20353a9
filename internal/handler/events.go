package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/ledger"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
)

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
// The actor becomes the organizer of the new draft event.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req model.CreateEventRequest
	if !decode(w, r, &req) {
		return
	}

	var event *model.Event
	err := h.retry(r.Context(), "create_event", func() (err error) {
		event, err = h.events.CreateEvent(r.Context(), actor, req)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events?status=published,ongoing&organizer_id=&limit=
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	f := repository.EventFilter{OrganizerID: q.Get("organizer_id"), Limit: limit}
	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			f.Statuses = append(f.Statuses, model.EventStatus(strings.TrimSpace(s)))
		}
	}

	events, err := h.events.ListEvents(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// UpcomingEvents handles GET /events/upcoming?limit=
func (h *Handler) UpcomingEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	events, err := h.events.UpcomingEvents(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// OngoingEvents handles GET /events/ongoing
func (h *Handler) OngoingEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.OngoingEvents(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /events/{id}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.requireOrganizer(w, r, id); !ok {
		return
	}
	var req model.UpdateEventRequest
	if !decode(w, r, &req) {
		return
	}

	var event *model.Event
	err := h.retry(r.Context(), "update_event", func() (err error) {
		event, err = h.events.UpdateEvent(r.Context(), id, req)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// TransitionEvent handles POST /events/{id}/transition
func (h *Handler) TransitionEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.requireOrganizer(w, r, id); !ok {
		return
	}
	var req model.TransitionRequest
	if !decode(w, r, &req) {
		return
	}

	var event *model.Event
	err := h.retry(r.Context(), "transition_event", func() (err error) {
		event, err = h.events.TransitionEvent(r.Context(), id, req.Status)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// PublishEvent handles POST /events/{id}/publish
func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.requireOrganizer(w, r, id); !ok {
		return
	}

	var event *model.Event
	err := h.retry(r.Context(), "publish_event", func() (err error) {
		event, err = h.events.PublishEvent(r.Context(), id)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Availability handles GET /events/{id}/availability
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	avail, err := h.events.Availability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

type recountResponse struct {
	EventID string `json:"event_id"`
	Stored  int    `json:"stored"`
	Actual  int    `json:"actual"`
	Drifted bool   `json:"drifted"`
}

// ReconcileAttendance handles POST /events/{id}/reconcile
func (h *Handler) ReconcileAttendance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.requireOrganizer(w, r, id); !ok {
		return
	}

	var rc ledger.Recount
	err := h.retry(r.Context(), "reconcile_attendance", func() (err error) {
		rc, err = h.events.ReconcileAttendance(r.Context(), id)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recountResponse{EventID: id, Stored: rc.Stored, Actual: rc.Actual, Drifted: rc.Drifted()})
}

// ─── Tracks ───────────────────────────────────────────────────────────────────

// ListTracks handles GET /events/{id}/tracks
func (h *Handler) ListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.events.ListTracks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// CreateTrack handles POST /events/{id}/tracks
func (h *Handler) CreateTrack(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if _, ok := h.requireOrganizer(w, r, eventID); !ok {
		return
	}
	var req model.CreateTrackRequest
	if !decode(w, r, &req) {
		return
	}

	var track *model.Track
	err := h.retry(r.Context(), "create_track", func() (err error) {
		track, err = h.events.CreateTrack(r.Context(), eventID, req)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

// GetTrack handles GET /tracks/{id}
func (h *Handler) GetTrack(w http.ResponseWriter, r *http.Request) {
	track, err := h.events.GetTrack(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// DeleteTrack handles DELETE /tracks/{id}
// Sessions of the track stay on the schedule without a track.
func (h *Handler) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	track, err := h.events.GetTrack(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, ok := h.requireOrganizer(w, r, track.EventID); !ok {
		return
	}

	if err := h.retry(r.Context(), "delete_track", func() error {
		return h.events.DeleteTrack(r.Context(), id)
	}); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Speakers ─────────────────────────────────────────────────────────────────

// CreateSpeaker handles POST /speakers
func (h *Handler) CreateSpeaker(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	var req model.CreateSpeakerRequest
	if !decode(w, r, &req) {
		return
	}

	speaker, err := h.events.CreateSpeaker(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, speaker)
}

// ListSpeakers handles GET /speakers
func (h *Handler) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	speakers, err := h.events.ListSpeakers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, speakers)
}

// GetSpeaker handles GET /speakers/{id}
func (h *Handler) GetSpeaker(w http.ResponseWriter, r *http.Request) {
	speaker, err := h.events.GetSpeaker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, speaker)
}

// SpeakerSessions handles GET /speakers/{id}/sessions
func (h *Handler) SpeakerSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.events.SpeakerSessions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// queryLimit parses the optional ?limit= parameter.
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
