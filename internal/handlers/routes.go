package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abrezinsky/discround/internal/auth"
	"github.com/abrezinsky/discround/internal/metrics"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// WebSocket notifications
	if h.Hub != nil {
		r.With(h.Verifier.Identify, auth.RequireIdentity).Get("/ws", h.handleWebSocket)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(h.Verifier.Identify)

		// Final standings are public once the session is completed
		r.Get("/sessions/{sessionID}/standings", h.handleFinalStandings)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireIdentity)

			// Tournament rounds
			r.Post("/tournaments/{tournamentID}/rounds", h.handleCreateRound)
			r.Get("/tournaments/{tournamentID}/rounds", h.handleListRounds)
			r.Get("/tournaments/{tournamentID}/rounds/{roundNumber}/active", h.handleFindActiveRound)

			// Sessions
			r.Get("/sessions/{sessionID}", h.handleGetSession)
			r.Post("/sessions/{sessionID}/ready", h.handleMarkReady)
			r.Post("/sessions/{sessionID}/holes/{holeNumber}/scores", h.handleSubmitScores)
			r.Get("/sessions/{sessionID}/scores", h.handleGetScores)
			r.Get("/sessions/{sessionID}/play-data", h.handlePlayData)
			r.Get("/sessions/{sessionID}/leaderboard", h.handleLeaderboard)
			r.Post("/sessions/{sessionID}/complete", h.handleForceComplete)
			r.Get("/sessions/{sessionID}/qr", h.handleSessionQR)
		})
	})

	return r
}
