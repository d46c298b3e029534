package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
	"github.com/lorrc/helpdesk-bridge/internal/infrastructure/logging"
)

// EquipmentSyncService recomputes equipment occupancy from active tickets and
// pushes it onto the pre-existing equipment records. It never creates or
// archives records.
type EquipmentSyncService struct {
	source  ports.TicketSource
	mirror  ports.EquipmentMirror
	metrics ports.MetricsRecorder
	rules   domain.SyncRules
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.CycleService = (*EquipmentSyncService)(nil)

// NewEquipmentSyncService creates a new equipment sync service
func NewEquipmentSyncService(
	source ports.TicketSource,
	mirror ports.EquipmentMirror,
	metrics ports.MetricsRecorder,
	rules domain.SyncRules,
	logger *slog.Logger,
) *EquipmentSyncService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EquipmentSyncService{
		source:  source,
		mirror:  mirror,
		metrics: metrics,
		rules:   rules,
		logger:  logger.With("component", "equipment_sync"),
		now:     time.Now,
	}
}

func (s *EquipmentSyncService) Kind() domain.CycleKind { return domain.CycleEquipment }

// Sync runs one occupancy cycle. A partial ticket fetch aborts the cycle,
// since it would release equipment that is still held.
func (s *EquipmentSyncService) Sync(ctx context.Context) (*domain.CycleReport, error) {
	report := &domain.CycleReport{
		ID:        logging.GetCycleID(ctx),
		Kind:      domain.CycleEquipment,
		StartedAt: s.now().UTC(),
	}

	tickets, err := s.source.ListActiveTickets(ctx)
	if err != nil {
		return s.abort(ctx, report, fmt.Errorf("fetch tickets: %w", err))
	}
	report.Fetched = len(tickets)

	records, err := s.mirror.ListEquipment(ctx)
	if err != nil {
		return s.abort(ctx, report, fmt.Errorf("fetch equipment: %w", err))
	}

	occupancy, conflicts := domain.BuildOccupancy(tickets, s.rules.Statuses)
	for _, c := range conflicts {
		s.logger.WarnContext(ctx, "asset held by more than one active ticket",
			"asset", c.Asset,
			"previous_holder", c.Previous,
			"holder", c.Winner,
			"ticket_id", c.TicketID,
		)
	}

	for _, update := range domain.PlanOccupancy(records, occupancy) {
		update := update
		err := guard(ctx, s.logger, func() error { return s.mirror.SetOccupancy(ctx, update) })
		s.metrics.EquipmentUpdate(update.Status, err)
		if err != nil {
			report.Failed++
			s.logger.ErrorContext(ctx, "equipment update failed",
				"equipment", update.Name,
				"page_id", update.PageID,
				"error", err,
			)
			continue
		}
		report.Updated++
		s.logger.DebugContext(ctx, "equipment updated",
			"equipment", update.Name,
			"status", update.Status,
			"holder", update.Holder,
		)
	}

	report.FinishedAt = s.now().UTC()
	s.logger.InfoContext(ctx, "equipment sync finished",
		"equipment", len(records),
		"occupied_assets", len(occupancy),
		"updated", report.Updated,
		"failed", report.Failed,
		"duration_ms", report.Duration().Milliseconds(),
	)
	return report, nil
}

func (s *EquipmentSyncService) abort(ctx context.Context, report *domain.CycleReport, err error) (*domain.CycleReport, error) {
	report.FinishedAt = s.now().UTC()
	report.Error = err.Error()
	s.logger.ErrorContext(ctx, "equipment sync aborted", "error", err)
	return report, err
}
