package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/infrastructure/logging"
)

// guard runs fn and turns a panic into an error so one bad item cannot take
// down the rest of the cycle.
func guard(ctx context.Context, logger *slog.Logger, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logging.LogPanic(ctx, logger, p)
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

type nopMetrics struct{}

func (nopMetrics) MirrorWrite(string, error) {}
func (nopMetrics) Notification(domain.AlertKind, error) {}
func (nopMetrics) EquipmentUpdate(domain.EquipmentStatus, error) {}
func (nopMetrics) CycleFinished(*domain.CycleReport) {}
