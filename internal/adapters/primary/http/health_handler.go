package http

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
)

// HealthChecker defines the interface for health check dependencies
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ReportSource exposes the latest cycle reports.
type ReportSource interface {
	LastReports() []*domain.CycleReport
}

// HealthHandler handles health check requests
type HealthHandler struct {
	store     HealthChecker
	reports   ReportSource
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler. reports may be nil.
func NewHealthHandler(store HealthChecker, reports ReportSource, version string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		reports:   reports,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// HandleLiveness reports that the process is up.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness reports whether the notified-tag store is reachable. A
// cycle without its tag store would re-send every alert.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	storeCheck := h.checkStore(ctx)
	response := HealthResponse{
		Status:    storeCheck.Status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    map[string]Check{"tag_store": storeCheck},
	}

	statusCode := http.StatusOK
	if storeCheck.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	WriteJSON(w, statusCode, response)
}

// HandleHealth adds the outcome of the latest cycles and runtime stats to
// the readiness check. A failing cycle degrades the status without making
// the endpoint fail; the tag store still decides the status code.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]Check{"tag_store": h.checkStore(ctx)}
	overallStatus := checks["tag_store"].Status

	if h.reports != nil {
		for _, report := range h.reports.LastReports() {
			check := Check{Status: "healthy", Latency: report.Duration().String()}
			if !report.Succeeded() {
				check = Check{Status: "failing", Message: report.Error}
				if overallStatus == "healthy" {
					overallStatus = "degraded"
				}
			}
			checks["cycle_"+string(report.Kind)] = check
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := struct {
		HealthResponse
		Memory struct {
			Alloc uint64 `json:"alloc_bytes"`
			Sys   uint64 `json:"sys_bytes"`
			NumGC uint32 `json:"num_gc"`
		} `json:"memory"`
		Goroutines int `json:"goroutines"`
	}{
		HealthResponse: HealthResponse{
			Status:    overallStatus,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.version,
			Uptime:    time.Since(h.startTime).Round(time.Second).String(),
			Checks:    checks,
		},
		Goroutines: runtime.NumGoroutine(),
	}
	response.Memory.Alloc = memStats.Alloc
	response.Memory.Sys = memStats.Sys
	response.Memory.NumGC = memStats.NumGC

	statusCode := http.StatusOK
	if checks["tag_store"].Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	WriteJSON(w, statusCode, response)
}

func (h *HealthHandler) checkStore(ctx context.Context) Check {
	if h.store == nil {
		return Check{Status: "unhealthy", Message: "Tag store not configured"}
	}

	start := time.Now()
	err := h.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: "healthy", Latency: latency.String()}
}
