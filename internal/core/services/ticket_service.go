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

// TicketSyncService mirrors active helpdesk tickets into the mirror workspace
// and raises deduplicated chat alerts.
type TicketSyncService struct {
	source   ports.TicketSource
	mirror   ports.TicketMirror
	tags     ports.NotifiedTagStore
	notifier ports.Notifier
	metrics  ports.MetricsRecorder
	rules    domain.SyncRules
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.CycleService = (*TicketSyncService)(nil)

// NewTicketSyncService creates a new ticket sync service
func NewTicketSyncService(
	source ports.TicketSource,
	mirror ports.TicketMirror,
	tags ports.NotifiedTagStore,
	notifier ports.Notifier,
	metrics ports.MetricsRecorder,
	rules domain.SyncRules,
	logger *slog.Logger,
) *TicketSyncService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketSyncService{
		source:   source,
		mirror:   mirror,
		tags:     tags,
		notifier: notifier,
		metrics:  metrics,
		rules:    rules,
		logger:   logger.With("component", "ticket_sync"),
		now:      time.Now,
	}
}

func (s *TicketSyncService) Kind() domain.CycleKind { return domain.CycleTickets }

// Sync runs one reconciliation cycle. Failing to read either snapshot aborts
// the cycle before any write; failures on individual tickets are logged and
// counted without stopping the others.
func (s *TicketSyncService) Sync(ctx context.Context) (*domain.CycleReport, error) {
	report := &domain.CycleReport{
		ID:        logging.GetCycleID(ctx),
		Kind:      domain.CycleTickets,
		StartedAt: s.now().UTC(),
	}

	// Archiving against a partial fetch would drop live tickets, so any fetch
	// error aborts the cycle.
	tickets, err := s.source.ListActiveTickets(ctx)
	if err != nil {
		return s.abort(ctx, report, fmt.Errorf("fetch tickets: %w", err))
	}
	report.Fetched = len(tickets)

	index, err := s.mirror.ListTicketIndex(ctx)
	if err != nil {
		return s.abort(ctx, report, fmt.Errorf("fetch mirror index: %w", err))
	}

	plan := PlanTicketSync(tickets, index, s.rules)
	s.logger.InfoContext(ctx, "reconciliation planned",
		"tickets", len(tickets),
		"mirrored", len(index),
		"create", plan.Count(ActionCreate),
		"update", plan.Count(ActionUpdate),
		"archive", plan.Count(ActionArchive),
	)

	for _, action := range plan.Actions {
		action := action
		ticketCtx := logging.WithTicketID(ctx, action.Ticket.ID)
		if err := guard(ticketCtx, s.logger, func() error { return s.apply(ticketCtx, report, action) }); err != nil {
			report.Failed++
			s.logger.ErrorContext(ticketCtx, "ticket sync failed", "action", action.Kind, "error", err)
		}
	}

	for _, gone := range plan.Vanished {
		gone := gone
		ticketCtx := logging.WithTicketID(ctx, gone.TicketID)
		if err := guard(ticketCtx, s.logger, func() error { return s.archive(ticketCtx, report, gone.PageID) }); err != nil {
			report.Failed++
			s.logger.ErrorContext(ticketCtx, "archive vanished ticket failed", "page_id", gone.PageID, "error", err)
		}
	}

	report.FinishedAt = s.now().UTC()
	s.logger.InfoContext(ctx, "ticket sync finished",
		"created", report.Created,
		"updated", report.Updated,
		"archived", report.Archived,
		"notified", report.Notified,
		"failed", report.Failed,
		"duration_ms", report.Duration().Milliseconds(),
	)
	return report, nil
}

// apply fires the action's alerts, then performs its mirror write. Alerts are
// best-effort and never block the write.
func (s *TicketSyncService) apply(ctx context.Context, report *domain.CycleReport, action TicketAction) error {
	for _, alert := range action.Alerts {
		s.alert(ctx, report, alert)
	}

	switch action.Kind {
	case ActionCreate:
		pageID, err := s.mirror.Create(ctx, action.Record)
		s.metrics.MirrorWrite(domain.MirrorOpCreate, err)
		if err != nil {
			return fmt.Errorf("create mirror record: %w", err)
		}
		report.Created++
		s.logger.InfoContext(ctx, "mirror record created", "page_id", pageID)

	case ActionUpdate:
		err := s.mirror.Update(ctx, action.PageID, action.Record)
		s.metrics.MirrorWrite(domain.MirrorOpUpdate, err)
		if err != nil {
			return fmt.Errorf("update mirror record %s: %w", action.PageID, err)
		}
		report.Updated++
		s.logger.DebugContext(ctx, "mirror record updated", "page_id", action.PageID)

	case ActionArchive:
		return s.archive(ctx, report, action.PageID)
	}
	return nil
}

func (s *TicketSyncService) archive(ctx context.Context, report *domain.CycleReport, pageID string) error {
	err := s.mirror.Archive(ctx, pageID)
	s.metrics.MirrorWrite(domain.MirrorOpArchive, err)
	if err != nil {
		return fmt.Errorf("archive mirror record %s: %w", pageID, err)
	}
	report.Archived++
	s.logger.InfoContext(ctx, "mirror record archived", "page_id", pageID)
	return nil
}

// alert sends the alert only if its tag has never been recorded. The tag is
// recorded after a successful send, so a failed send is retried next cycle.
// An unreadable tag store suppresses the alert rather than risk a repeat.
func (s *TicketSyncService) alert(ctx context.Context, report *domain.CycleReport, alert domain.Alert) {
	tag := alert.Tag()

	seen, err := s.tags.Contains(ctx, tag)
	if err != nil {
		s.logger.ErrorContext(ctx, "notified-tag lookup failed, alert suppressed", "tag", tag, "error", err)
		return
	}
	if seen {
		return
	}

	if ctx.Err() != nil {
		return
	}

	// The tag is recorded after any attempt. A send that timed out may still
	// have reached the chat, and a tag must never alert twice.
	err = s.notifier.Notify(ctx, alert)
	s.metrics.Notification(alert.Kind, err)
	if err != nil {
		s.logger.WarnContext(ctx, "alert may not have been delivered", "tag", tag, "error", err)
	} else {
		report.Notified++
	}

	if err := s.tags.Add(context.WithoutCancel(ctx), tag); err != nil {
		s.logger.ErrorContext(ctx, "failed to record notified tag", "tag", tag, "error", err)
	}
}

func (s *TicketSyncService) abort(ctx context.Context, report *domain.CycleReport, err error) (*domain.CycleReport, error) {
	report.FinishedAt = s.now().UTC()
	report.Error = err.Error()
	s.logger.ErrorContext(ctx, "ticket sync aborted", "error", err)
	return report, err
}
