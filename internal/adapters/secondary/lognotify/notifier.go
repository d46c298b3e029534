package lognotify

import (
	"context"
	"log/slog"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
)

// Notifier is a secondary adapter that logs alerts instead of sending them.
// It stands in for the chat notifier when no bot token is configured.
type Notifier struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// New creates a new log-only notifier.
func New(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger.With("component", "log_notifier")}
}

// Notify logs the alert. It never fails, so the alert's tag is recorded as if
// it had been delivered.
func (n *Notifier) Notify(ctx context.Context, alert domain.Alert) error {
	ticketID := ""
	if alert.Ticket != nil {
		ticketID = alert.Ticket.ID
	}
	n.logger.InfoContext(ctx, "alert (not sent, no chat configured)",
		"kind", alert.Kind,
		"ticket_id", ticketID,
		"text", alert.Text,
	)
	return nil
}
