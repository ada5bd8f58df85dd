// Package api provides the HTTP API of the bot backend.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tusbot/tusbot/internal/api/handler"
	"github.com/tusbot/tusbot/internal/api/middleware"
	"github.com/tusbot/tusbot/internal/api/token"
	"github.com/tusbot/tusbot/internal/bus"
	"github.com/tusbot/tusbot/internal/credential"
	"github.com/tusbot/tusbot/internal/schedule"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	// InternalKey guards the bot-facing endpoints.
	InternalKey string

	// PanelTokenTTL is echoed back when issuing dashboard tokens.
	PanelTokenTTL time.Duration

	Composer          *bus.Composer
	ScheduleService   *schedule.Service
	CredentialService *credential.Service
	TokenIssuer       *token.Issuer
	Jobs              handler.JobRebuilder

	// Ready reports backing-store reachability for /readyz.
	Ready func() error
}

// NewRouter creates a chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Ready)
	busHandler := handler.NewBusHandler(cfg.Composer)
	scheduleHandler := handler.NewScheduleHandler(cfg.ScheduleService, cfg.Jobs, cfg.TokenIssuer)
	panelHandler := handler.NewPanelHandler(cfg.TokenIssuer, cfg.PanelTokenTTL)
	credentialHandler := handler.NewCredentialHandler(cfg.CredentialService)

	// Ops endpoints (public).
	r.Get("/healthz", opsHandler.HealthCheck)
	r.Get("/readyz", opsHandler.ReadinessCheck)

	// Bot-facing endpoints, guarded by the shared internal key.
	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.InternalKey(cfg.InternalKey))
		r.Use(middleware.RateLimitByIP(middleware.InternalRateLimit))
		r.Post("/bus", busHandler.Answer)
		r.Post("/panel-token", panelHandler.Issue)
		r.Post("/credentials", credentialHandler.Save)
		r.Delete("/credentials", credentialHandler.Delete)
	})

	// Dashboard endpoints, guarded by the panel token in the query string.
	r.Route("/api/schedule", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(middleware.DashboardRateLimit))
		r.Get("/", scheduleHandler.Get)
		r.Post("/", scheduleHandler.Replace)
	})

	return r
}
