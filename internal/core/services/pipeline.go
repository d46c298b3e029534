package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-bridge/internal/core/errors"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
	"github.com/lorrc/helpdesk-bridge/internal/infrastructure/logging"
)

// Pipeline runs the configured sync cycles one at a time. Only one cycle may
// hold the pipeline; the tag store must never see overlapping writers.
type Pipeline struct {
	cycles      map[domain.CycleKind]ports.CycleService
	order       []domain.CycleKind
	metrics     ports.MetricsRecorder
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger

	running sync.Mutex

	mu   sync.RWMutex
	last map[domain.CycleKind]*domain.CycleReport
}

var _ ports.SyncPipeline = (*Pipeline)(nil)

// NewPipeline creates a pipeline over the given cycles. Nil services are
// skipped, so disabled cycles can be passed straight through. Tickets always
// run before equipment.
func NewPipeline(
	metrics ports.MetricsRecorder,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
	cycles ...ports.CycleService,
) *Pipeline {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		cycles:      make(map[domain.CycleKind]ports.CycleService),
		metrics:     metrics,
		broadcaster: broadcaster,
		logger:      logger.With("component", "pipeline"),
		last:        make(map[domain.CycleKind]*domain.CycleReport),
	}
	for _, c := range cycles {
		if c == nil {
			continue
		}
		p.cycles[c.Kind()] = c
	}
	for _, kind := range []domain.CycleKind{domain.CycleTickets, domain.CycleEquipment} {
		if _, ok := p.cycles[kind]; ok {
			p.order = append(p.order, kind)
		}
	}
	return p
}

// Kinds lists the configured cycles in run order.
func (p *Pipeline) Kinds() []domain.CycleKind {
	kinds := make([]domain.CycleKind, len(p.order))
	copy(kinds, p.order)
	return kinds
}

// RunCycle runs a single cycle under a fresh cycle id.
func (p *Pipeline) RunCycle(ctx context.Context, kind domain.CycleKind) (*domain.CycleReport, error) {
	if !kind.IsValid() {
		return nil, apperrors.ErrUnknownCycle
	}
	svc, ok := p.cycles[kind]
	if !ok {
		return nil, apperrors.ErrCycleDisabled
	}

	if !p.running.TryLock() {
		p.logger.WarnContext(ctx, "cycle skipped, another cycle is running", "cycle", kind)
		return nil, apperrors.ErrCycleInProgress
	}
	defer p.running.Unlock()

	cycleID := uuid.NewString()
	ctx = logging.WithCycle(ctx, cycleID, string(kind))
	p.logger.InfoContext(ctx, "cycle started")

	var report *domain.CycleReport
	err := guard(ctx, p.logger, func() error {
		var syncErr error
		report, syncErr = svc.Sync(ctx)
		return syncErr
	})
	if report == nil {
		report = &domain.CycleReport{Kind: kind}
		if err != nil {
			report.Error = err.Error()
		}
	}
	report.ID = cycleID

	p.metrics.CycleFinished(report)
	p.remember(report)
	p.publish(ctx, report)

	return report, err
}

// RunAll runs every configured cycle. The cycles are independent: a failure
// in one does not stop the next.
func (p *Pipeline) RunAll(ctx context.Context) ([]*domain.CycleReport, error) {
	var (
		reports []*domain.CycleReport
		errs    []error
	)
	for _, kind := range p.order {
		report, err := p.RunCycle(ctx, kind)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return reports, errors.Join(errs...)
}

// LastReports returns the latest report of each cycle in run order.
func (p *Pipeline) LastReports() []*domain.CycleReport {
	p.mu.RLock()
	defer p.mu.RUnlock()

	reports := make([]*domain.CycleReport, 0, len(p.last))
	for _, kind := range p.order {
		if r, ok := p.last[kind]; ok {
			copied := *r
			reports = append(reports, &copied)
		}
	}
	return reports
}

func (p *Pipeline) remember(report *domain.CycleReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last[report.Kind] = report
}

func (p *Pipeline) publish(ctx context.Context, report *domain.CycleReport) {
	if p.broadcaster == nil {
		return
	}
	copied := *report
	if err := p.broadcaster.Broadcast(domain.Event{Type: domain.EventCycleFinished, Payload: &copied}); err != nil {
		p.logger.WarnContext(ctx, "failed to broadcast cycle report", "error", err)
	}
}
