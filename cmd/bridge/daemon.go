package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	httpAdapter "github.com/lorrc/helpdesk-bridge/internal/adapters/primary/http"
	"github.com/lorrc/helpdesk-bridge/internal/adapters/primary/scheduler"
	"github.com/lorrc/helpdesk-bridge/internal/adapters/primary/websocket"
	"github.com/lorrc/helpdesk-bridge/internal/auth"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/spf13/cobra"
)

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info("starting bridge",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// 1. Real-time feed
	hub := websocket.NewHub(logger)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	// 2. Wiring the hexagon
	app, err := newApplication(ctx, cfg, logger, hub)
	if err != nil {
		return err
	}
	defer app.Close()

	// 3. Scheduler (Primary Adapter)
	sched := scheduler.New(app.pipeline, logger)
	schedules := map[domain.CycleKind]string{
		domain.CycleTickets:   cfg.Schedule.Tickets,
		domain.CycleEquipment: cfg.Schedule.Equipment,
	}
	for _, kind := range app.pipeline.Kinds() {
		if err := sched.Schedule(kind, schedules[kind]); err != nil {
			return err
		}
	}
	if sched.JobCount() == 0 {
		logger.Warn("no cycle is scheduled, cycles run only when triggered")
	}

	// 4. Admin API (Primary Adapter)
	var tokens *auth.TokenManager
	if cfg.Admin.JWTSecret != "" {
		tokens = auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	}
	router := httpAdapter.NewRouter(ctx, httpAdapter.RouterDeps{
		Config:   cfg,
		Pipeline: app.pipeline,
		TagStore: app.tags,
		Tokens:   tokens,
		Hub:      hub,
		Metrics:  app.metrics.Handler(),
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:         cfg.Admin.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Admin.ReadTimeout,
		WriteTimeout: cfg.Admin.WriteTimeout,
		IdleTimeout:  cfg.Admin.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("admin server starting", "addr", cfg.Admin.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		_ = sched.Start(ctx)
	}()

	if runNowFlag {
		go func() {
			if _, err := app.pipeline.RunAll(ctx); err != nil {
				logger.Warn("startup run failed", "error", err)
			}
		}()
	}

	// 5. Wait for a signal or a server failure
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("admin server: %w", err)
		logger.Error("admin server failed", "error", err)
	}
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Admin.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown error", "error", err)
	}

	// A cycle in flight stops at its next context check.
	select {
	case <-schedDone:
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before the shutdown timeout")
	}
	<-hubDone

	logger.Info("shutdown complete")
	return runErr
}
