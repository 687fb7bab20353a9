package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
)

// CreateSession handles POST /sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var in model.SessionInput
	if !decode(w, r, &in) {
		return
	}
	if _, ok := h.requireOrganizer(w, r, in.EventID); !ok {
		return
	}

	var session *model.Session
	err := h.retry(r.Context(), "create_session", func() (err error) {
		session, err = h.sessions.CreateSession(r.Context(), in)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// UpdateSession handles PUT /sessions/{id}
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.requireSessionOrganizer(w, r, id); !ok {
		return
	}
	var in model.SessionInput
	if !decode(w, r, &in) {
		return
	}

	var session *model.Session
	err := h.retry(r.Context(), "update_session", func() (err error) {
		session, err = h.sessions.UpdateSession(r.Context(), id, in)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// DeleteSession handles DELETE /sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.requireSessionOrganizer(w, r, id); !ok {
		return
	}
	if err := h.retry(r.Context(), "delete_session", func() error {
		return h.sessions.DeleteSession(r.Context(), id)
	}); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSession handles GET /sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ListSessions handles GET /events/{id}/sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListSessions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// OngoingSessions handles GET /sessions/ongoing?event_id=
func (h *Handler) OngoingSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.OngoingSessions(r.Context(), r.URL.Query().Get("event_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// UpcomingSessions handles GET /sessions/upcoming?event_id=&limit=
func (h *Handler) UpcomingSessions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	sessions, err := h.sessions.UpcomingSessions(r.Context(), r.URL.Query().Get("event_id"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// ListTrackSessions handles GET /tracks/{id}/sessions
func (h *Handler) ListTrackSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListTrackSessions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

type windowCheckResponse struct {
	Valid bool `json:"valid"`
}

// ValidateWindow handles POST /sessions/validate-window
// A rejected window is answered like any other validation error.
func (h *Handler) ValidateWindow(w http.ResponseWriter, r *http.Request) {
	var req model.WindowCheckRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.sessions.ValidateSessionWindow(req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, windowCheckResponse{Valid: true})
}

// FindConflicts handles POST /sessions/conflicts
func (h *Handler) FindConflicts(w http.ResponseWriter, r *http.Request) {
	var q model.ConflictQuery
	if !decode(w, r, &q) {
		return
	}
	report, err := h.sessions.FindConflicts(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SessionConflicts handles GET /sessions/{id}/conflicts
func (h *Handler) SessionConflicts(w http.ResponseWriter, r *http.Request) {
	report, err := h.sessions.SessionConflicts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type sessionStatusResponse struct {
	SessionID string `json:"session_id"`
	Ongoing   bool   `json:"ongoing"`
	Ended     bool   `json:"ended"`
}

// SessionStatus handles GET /sessions/{id}/status
func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ongoing, err := h.sessions.IsSessionOngoing(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ended, err := h.sessions.HasSessionEnded(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionStatusResponse{SessionID: id, Ongoing: ongoing, Ended: ended})
}

// requireSessionOrganizer resolves the session's event and checks ownership.
func (h *Handler) requireSessionOrganizer(w http.ResponseWriter, r *http.Request, sessionID string) (*model.Session, bool) {
	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	if _, ok := h.requireOrganizer(w, r, session.EventID); !ok {
		return nil, false
	}
	return session, true
}
