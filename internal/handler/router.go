package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the chi router for h. /metrics is mounted when
// exposeMetrics is set.
func Router(h *Handler, logger *slog.Logger, exposeMetrics bool) chi.Router {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))          // structured access log
	r.Use(CORS)
	r.Use(Actor)

	r.Get("/health", HealthCheck)
	if exposeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/upcoming", h.UpcomingEvents)
		r.Get("/ongoing", h.OngoingEvents)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Put("/", h.UpdateEvent)
			r.Post("/transition", h.TransitionEvent)
			r.Post("/publish", h.PublishEvent)
			r.Get("/availability", h.Availability)
			r.Post("/reconcile", h.ReconcileAttendance)
			r.Get("/tracks", h.ListTracks)
			r.Post("/tracks", h.CreateTrack)
			r.Get("/sessions", h.ListSessions)
			r.Post("/register", h.Register)
			r.Get("/registrations", h.ListRegistrations)
		})
	})

	r.Route("/tracks/{id}", func(r chi.Router) {
		r.Get("/", h.GetTrack)
		r.Delete("/", h.DeleteTrack)
		r.Get("/sessions", h.ListTrackSessions)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Post("/validate-window", h.ValidateWindow)
		r.Post("/conflicts", h.FindConflicts)
		r.Get("/ongoing", h.OngoingSessions)
		r.Get("/upcoming", h.UpcomingSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Put("/", h.UpdateSession)
			r.Delete("/", h.DeleteSession)
			r.Get("/conflicts", h.SessionConflicts)
			r.Get("/status", h.SessionStatus)
		})
	})

	r.Route("/speakers", func(r chi.Router) {
		r.Post("/", h.CreateSpeaker)
		r.Get("/", h.ListSpeakers)
		r.Get("/{id}", h.GetSpeaker)
		r.Get("/{id}/sessions", h.SpeakerSessions)
	})

	r.Route("/registrations", func(r chi.Router) {
		r.Get("/mine", h.MyRegistrations)
		r.Get("/{id}", h.GetRegistration)
		r.Post("/{id}/confirm", h.ConfirmRegistration)
		r.Post("/{id}/cancel", h.CancelRegistration)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	return r
}
