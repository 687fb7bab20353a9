// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
//
// Authentication happens upstream: the X-Actor-ID header carries the already
// authenticated identity. Organizer-only routes compare it with the event's
// organizer before calling the core.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cenkalti/backoff/v5"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/domain"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/i18n"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/metrics"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/service"
)

// Codes for rejections produced by the HTTP layer itself.
const (
	codeBadRequest      = "BAD_REQUEST"
	codeUnauthenticated = "UNAUTHENTICATED"
	codeForbidden       = "FORBIDDEN"
	codeInternal        = "INTERNAL"
)

// Handler holds all HTTP handlers for the conference API.
type Handler struct {
	events   *service.EventService
	sessions *service.SessionService
	regs     *service.RegistrationService
	tr       *i18n.Translator
	logger   *slog.Logger
	maxTries uint
}

// New constructs a Handler. maxTries bounds the attempts made for a write
// that fails with a transient store conflict.
func New(
	events *service.EventService,
	sessions *service.SessionService,
	regs *service.RegistrationService,
	tr *i18n.Translator,
	logger *slog.Logger,
	maxTries uint,
) *Handler {
	return &Handler{
		events:   events,
		sessions: sessions,
		regs:     regs,
		tr:       tr,
		logger:   logger,
		maxTries: max(maxTries, 1),
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: model.ErrorBody{Code: code, Message: msg}})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// decode reads the body into dst and answers 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Domain errors are localized from Accept-Language;
// anything else is logged and hidden behind a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	de, ok := domain.As(err)
	if !ok {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeFailure(w, http.StatusInternalServerError, codeInternal, "internal server error")
		return
	}

	lang := h.tr.Negotiate(r.Header.Get("Accept-Language"))
	w.Header().Set("Content-Language", lang.String())
	writeJSON(w, statusFor(de.Kind), model.ErrorResponse{Error: model.ErrorBody{
		Code:    string(de.Code),
		Field:   de.Field,
		Message: h.tr.Message(lang, de),
	}})
}

// retry runs op again while it fails with a transient store conflict, with
// exponential backoff and at most maxTries attempts.
func (h *Handler) retry(ctx context.Context, route string, op func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op()
		if err == nil {
			return struct{}{}, nil
		}
		if !repository.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		metrics.Retries.WithLabelValues(route).Inc()
		h.logger.WarnContext(ctx, "retrying after transient conflict", "route", route, "error", err)
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(h.maxTries),
	)
	return err
}

// ─── Authorization ────────────────────────────────────────────────────────────

// requireActor answers 401 when the request carries no actor.
func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := ActorFrom(r.Context())
	if actor == "" {
		writeFailure(w, http.StatusUnauthorized, codeUnauthenticated, "missing "+ActorHeader+" header")
		return "", false
	}
	return actor, true
}

// requireOrganizer loads the event and answers 403 unless the actor owns it.
func (h *Handler) requireOrganizer(w http.ResponseWriter, r *http.Request, eventID string) (*model.Event, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return nil, false
	}
	e, err := h.events.GetEvent(r.Context(), eventID)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	if e.OrganizerID != actor {
		writeFailure(w, http.StatusForbidden, codeForbidden, "only the event organizer may do this")
		return nil, false
	}
	return e, true
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
