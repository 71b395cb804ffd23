// Package api provides the HTTP API for soundtrail.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/soundtrail/soundtrail/internal/api/handler"
	"github.com/soundtrail/soundtrail/internal/api/middleware"
	"github.com/soundtrail/soundtrail/internal/auth"
	"github.com/soundtrail/soundtrail/internal/placelist"
	"github.com/soundtrail/soundtrail/internal/player"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version          string
	BuildTime        string
	Logger           zerolog.Logger
	ServiceName      string
	Metrics          *middleware.Metrics
	AuthService      *auth.Service
	PlacelistService *placelist.Service
	PlayerService    *player.Service
	ReadinessChecks  map[string]handler.ReadinessChecker
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "soundtrail-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.ReadinessChecks)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	placelistHandler := handler.NewPlacelistHandler(cfg.PlacelistService)
	playHandler := handler.NewPlayHandler(cfg.PlayerService)

	authMiddleware := middleware.Auth(cfg.AuthService)

	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Token exchange (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit)
			r.Post("/token", authHandler.Token)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Placelist editing (authenticated) - user-based rate limiting
		r.Route("/me/placelists", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))
			r.Get("/", placelistHandler.List)
			r.Post("/", placelistHandler.Create)
			r.Route("/{placelistId}", func(r chi.Router) {
				r.Get("/", placelistHandler.Get)
				r.Put("/", placelistHandler.Update)
				r.Delete("/", placelistHandler.Delete)
				r.Post("/reorder", placelistHandler.Reorder)
				r.Get("/text", placelistHandler.Text)
				r.Put("/text", placelistHandler.SetText)
			})
		})

		// Play sessions (authenticated) - position reports come in at the
		// player's ping interval, so they get their own generous budget.
		r.Route("/play", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.PositionRateLimit))
			r.Post("/", playHandler.Start)
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", playHandler.Get)
				r.Post("/position", playHandler.Position)
			})
		})
	})

	return r
}
