package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	mw "github.com/lorrc/helpdesk-bridge/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/lorrc/helpdesk-bridge/internal/adapters/primary/websocket"
	"github.com/lorrc/helpdesk-bridge/internal/auth"
	"github.com/lorrc/helpdesk-bridge/internal/config"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
)

// RouterDeps carries what the admin API serves. Hub, Metrics and Tokens are
// optional.
type RouterDeps struct {
	Config   *config.Config
	Pipeline ports.SyncPipeline
	TagStore HealthChecker
	Tokens   *auth.TokenManager
	Hub      *wsAdapter.Hub
	Metrics  http.Handler
	Logger   *slog.Logger
}

// NewRouter builds the admin API. Rate limiter housekeeping stops with ctx.
func NewRouter(ctx context.Context, deps RouterDeps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger

	var generalRateLimiter, triggerRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(ctx, mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		triggerCfg := mw.TriggerRateLimiterConfig()
		triggerCfg.RequestsPerSecond = cfg.RateLimit.TriggerRPS
		triggerCfg.BurstSize = cfg.RateLimit.TriggerBurst
		triggerRateLimiter = mw.NewRateLimiter(ctx, triggerCfg)
	}

	errorHandler := NewErrorHandler(logger)
	healthHandler := NewHealthHandler(deps.TagStore, deps.Pipeline, cfg.App.Version)
	syncHandler := NewSyncHandler(deps.Pipeline, errorHandler, logger)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))

	// Health and scrape paths stay outside the limiter.
	healthHandler.RegisterRoutes(r)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	// Without a signing secret only the health and scrape paths are served.
	if deps.Tokens == nil {
		logger.Warn("admin API disabled: no JWT secret configured", "component", "admin_http")
		return r
	}

	r.Route("/api/v1", func(r chi.Router) {
		if generalRateLimiter != nil {
			r.Use(generalRateLimiter.Middleware)
		}

		// Authentication is handled inside the handler
		if deps.Hub != nil {
			wsHandler := NewWebSocketHandler(deps.Hub, deps.Tokens, cfg.WebSocket, cfg.IsDevelopment(), logger)
			r.Get("/ws", wsHandler.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(deps.Tokens))

			var trigger func(http.Handler) http.Handler
			if triggerRateLimiter != nil {
				trigger = triggerRateLimiter.Middleware
			}
			r.Route("/sync", func(r chi.Router) {
				syncHandler.RegisterRoutes(r, trigger)
			})
		})
	})

	return r
}
