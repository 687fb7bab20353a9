package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
)

// Register handles POST /events/{id}/register
// The actor registers themself; the body is optional.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "id")

	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	var reg *model.Registration
	err := h.retry(r.Context(), "register", func() (err error) {
		reg, err = h.regs.CreateRegistration(r.Context(), eventID, actor, req)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// ListRegistrations handles GET /events/{id}/registrations (organizer only).
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if _, ok := h.requireOrganizer(w, r, eventID); !ok {
		return
	}
	regs, err := h.regs.ListRegistrations(r.Context(), eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

// MyRegistrations handles GET /registrations/mine
func (h *Handler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	regs, err := h.regs.ListAttendeeRegistrations(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

// GetRegistration handles GET /registrations/{id}
func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.requireRegistrationParty(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ConfirmRegistration handles POST /registrations/{id}/confirm
func (h *Handler) ConfirmRegistration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.requireRegistrationParty(w, r, id); !ok {
		return
	}

	var reg *model.Registration
	err := h.retry(r.Context(), "confirm_registration", func() (err error) {
		reg, err = h.regs.ConfirmRegistration(r.Context(), id)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// CancelRegistration handles POST /registrations/{id}/cancel
func (h *Handler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.requireRegistrationParty(w, r, id); !ok {
		return
	}

	var reg *model.Registration
	err := h.retry(r.Context(), "cancel_registration", func() (err error) {
		reg, err = h.regs.CancelRegistration(r.Context(), id)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// requireRegistrationParty allows the attendee and the event's organizer.
func (h *Handler) requireRegistrationParty(w http.ResponseWriter, r *http.Request, id string) (*model.Registration, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return nil, false
	}
	reg, err := h.regs.GetRegistration(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	if reg.AttendeeID == actor {
		return reg, true
	}
	if _, ok := h.requireOrganizer(w, r, reg.EventID); !ok {
		return nil, false
	}
	return reg, true
}
