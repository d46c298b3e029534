package metrics

import (
	"net/http"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bridge"

const (
	resultOK    = "ok"
	resultError = "error"
)

// Recorder publishes sync activity as Prometheus metrics.
type Recorder struct {
	registry *prometheus.Registry

	mirrorWrites     *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	equipmentUpdates *prometheus.CounterVec
	cycleDuration    *prometheus.HistogramVec
	cycleFailures    *prometheus.CounterVec
	cycleItems       *prometheus.GaugeVec
	lastSuccess      *prometheus.GaugeVec
}

var _ ports.MetricsRecorder = (*Recorder)(nil)

// NewRecorder registers the bridge metrics, plus the Go runtime and process
// collectors, on a private registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		mirrorWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_writes_total",
			Help:      "Mirror record writes by operation and result",
		}, []string{"op", "result"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Chat alerts sent by kind and result",
		}, []string{"kind", "result"}),
		equipmentUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "equipment_updates_total",
			Help:      "Equipment occupancy writes by status and result",
		}, []string{"status", "result"}),
		cycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Sync cycle duration",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"cycle"}),
		cycleFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_failures_total",
			Help:      "Sync cycles aborted before completing",
		}, []string{"cycle"}),
		cycleItems: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle_items",
			Help:      "Item counts of the last finished cycle",
		}, []string{"cycle", "outcome"}),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle_last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that completed",
		}, []string{"cycle"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) MirrorWrite(op string, err error) {
	r.mirrorWrites.WithLabelValues(op, result(err)).Inc()
}

func (r *Recorder) Notification(kind domain.AlertKind, err error) {
	r.notifications.WithLabelValues(string(kind), result(err)).Inc()
}

func (r *Recorder) EquipmentUpdate(status domain.EquipmentStatus, err error) {
	r.equipmentUpdates.WithLabelValues(string(status), result(err)).Inc()
}

func (r *Recorder) CycleFinished(report *domain.CycleReport) {
	if report == nil {
		return
	}
	cycle := string(report.Kind)

	if !report.StartedAt.IsZero() && !report.FinishedAt.IsZero() {
		r.cycleDuration.WithLabelValues(cycle).Observe(report.Duration().Seconds())
	}
	if !report.Succeeded() {
		r.cycleFailures.WithLabelValues(cycle).Inc()
		return
	}

	r.cycleItems.WithLabelValues(cycle, "fetched").Set(float64(report.Fetched))
	r.cycleItems.WithLabelValues(cycle, "created").Set(float64(report.Created))
	r.cycleItems.WithLabelValues(cycle, "updated").Set(float64(report.Updated))
	r.cycleItems.WithLabelValues(cycle, "archived").Set(float64(report.Archived))
	r.cycleItems.WithLabelValues(cycle, "notified").Set(float64(report.Notified))
	r.cycleItems.WithLabelValues(cycle, "failed").Set(float64(report.Failed))
	r.lastSuccess.WithLabelValues(cycle).Set(float64(report.FinishedAt.Unix()))
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
