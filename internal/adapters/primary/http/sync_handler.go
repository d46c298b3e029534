package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/lorrc/helpdesk-bridge/internal/adapters/primary/http/middleware"
	"github.com/lorrc/helpdesk-bridge/internal/adapters/primary/validation"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
)

// SyncHandler exposes the sync pipeline to operators.
type SyncHandler struct {
	pipeline     ports.SyncPipeline
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

func NewSyncHandler(pipeline ports.SyncPipeline, errorHandler *ErrorHandler, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		pipeline:     pipeline,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "sync"),
	}
}

// RegisterRoutes mounts the routes; trigger may wrap the trigger endpoint
// with a stricter limiter and can be nil.
func (h *SyncHandler) RegisterRoutes(r chi.Router, trigger func(http.Handler) http.Handler) {
	r.Get("/last", h.HandleLastReports)
	r.Group(func(r chi.Router) {
		if trigger != nil {
			r.Use(trigger)
		}
		r.Post("/", h.HandleTrigger)
	})
}

// HandleTrigger handles POST /api/v1/sync[?only=tickets|equipment]. It runs
// the cycles synchronously and returns their reports. A cycle that aborted
// still yields a report, so the response is 200 with the report unless the
// pipeline refused to run.
func (h *SyncHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	only, err := validation.ParseCycleParam(r, "only")
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	subject := ""
	if claims, ok := mw.GetClaims(r.Context()); ok {
		subject = claims.Subject
	}
	h.logger.InfoContext(r.Context(), "manual sync requested",
		"subject", subject,
		"only", only,
	)

	// A client hanging up must not abort a cycle halfway.
	ctx := context.WithoutCancel(r.Context())

	var reports []*domain.CycleReport
	if only != "" {
		report, err := h.pipeline.RunCycle(ctx, only)
		if report == nil && HandleError(w, r, err, h.errorHandler) {
			return
		}
		reports = append(reports, report)
	} else {
		reports, err = h.pipeline.RunAll(ctx)
		if len(reports) == 0 && HandleError(w, r, err, h.errorHandler) {
			return
		}
	}

	WriteList(w, reports)
}

// HandleLastReports handles GET /api/v1/sync/last
func (h *SyncHandler) HandleLastReports(w http.ResponseWriter, r *http.Request) {
	WriteList(w, h.pipeline.LastReports())
}
