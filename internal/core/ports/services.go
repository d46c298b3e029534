package ports

import (
	"context"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
)

// CycleService runs one kind of sync cycle end to end.
type CycleService interface {
	Kind() domain.CycleKind
	Sync(ctx context.Context) (*domain.CycleReport, error)
}

// SyncPipeline serialises cycles and publishes their reports.
type SyncPipeline interface {
	// RunCycle runs a single cycle. It fails fast with ErrCycleInProgress
	// when another cycle holds the pipeline.
	RunCycle(ctx context.Context, kind domain.CycleKind) (*domain.CycleReport, error)
	// RunAll runs every configured cycle in order, tickets first.
	RunAll(ctx context.Context) ([]*domain.CycleReport, error)
	// Kinds lists the configured cycles.
	Kinds() []domain.CycleKind
	// LastReports returns the most recent report of each cycle.
	LastReports() []*domain.CycleReport
}

// Notifier sends an alert to the chat. Implementations log their own
// failures. The error is informational: the tag is recorded either way.
type Notifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// EventBroadcaster defines the port for broadcasting real-time events.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

// MetricsRecorder receives counters from the sync engines.
type MetricsRecorder interface {
	MirrorWrite(op string, err error)
	Notification(kind domain.AlertKind, err error)
	EquipmentUpdate(status domain.EquipmentStatus, err error)
	CycleFinished(report *domain.CycleReport)
}
