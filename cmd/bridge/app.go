package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lorrc/helpdesk-bridge/internal/adapters/primary/websocket"
	"github.com/lorrc/helpdesk-bridge/internal/adapters/secondary/lognotify"
	"github.com/lorrc/helpdesk-bridge/internal/adapters/secondary/movidesk"
	"github.com/lorrc/helpdesk-bridge/internal/adapters/secondary/notion"
	"github.com/lorrc/helpdesk-bridge/internal/adapters/secondary/tagstore"
	"github.com/lorrc/helpdesk-bridge/internal/adapters/secondary/telegram"
	"github.com/lorrc/helpdesk-bridge/internal/config"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
	"github.com/lorrc/helpdesk-bridge/internal/core/services"
	"github.com/lorrc/helpdesk-bridge/internal/infrastructure/metrics"
)

// application holds the wired hexagon shared by the run and daemon commands.
type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Recorder
	tags     ports.NotifiedTagStore
	pipeline *services.Pipeline
}

// newApplication wires every adapter from configuration. hub may be nil when
// nothing listens for cycle events.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, hub *websocket.Hub) (*application, error) {
	rules := cfg.SyncRules()
	timeout := cfg.Sync.OutboundTimeout
	recorder := metrics.NewRecorder()

	// 1. Ticket source (Secondary Adapter)
	source, err := movidesk.NewClient(movidesk.Config{
		BaseURL:           cfg.Movidesk.BaseURL,
		Token:             cfg.Movidesk.Token,
		PageSize:          cfg.Movidesk.PageSize,
		Statuses:          rules.Statuses.Labels(),
		RequestsPerSecond: cfg.Movidesk.RequestsPerSecond,
		Timeout:           timeout,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	// 2. Mirror store (Secondary Adapter)
	notionClient, err := notion.NewClient(notion.Config{
		BaseURL:           cfg.Notion.BaseURL,
		Token:             cfg.Notion.Token,
		Version:           cfg.Notion.Version,
		RequestsPerSecond: cfg.Notion.RequestsPerSecond,
		Timeout:           timeout,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	// 3. Notifier (Secondary Adapter)
	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	// 4. Notified-tag store (Secondary Adapter)
	tags, err := tagstore.Open(ctx, cfg.TagStore, timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("open tag store: %w", err)
	}

	// 5. Services (Core). Only configured cycles are passed; a typed nil
	// would read as a configured cycle.
	var cycles []ports.CycleService
	if cfg.TicketSyncEnabled() {
		mirror := notion.NewTicketMirror(notionClient, cfg.Notion.TicketDatabaseID, ticketSchema(cfg))
		cycles = append(cycles, services.NewTicketSyncService(source, mirror, tags, notifier, recorder, rules, logger))
	}
	if cfg.EquipmentSyncEnabled() {
		mirror := notion.NewEquipmentMirror(notionClient, cfg.Notion.EquipmentDatabaseID, equipmentSchema(cfg))
		cycles = append(cycles, services.NewEquipmentSyncService(source, mirror, recorder, rules, logger))
	}

	var broadcaster ports.EventBroadcaster
	if hub != nil {
		broadcaster = hub
	}

	return &application{
		cfg:      cfg,
		logger:   logger,
		metrics:  recorder,
		tags:     tags,
		pipeline: services.NewPipeline(recorder, broadcaster, logger, cycles...),
	}, nil
}

func (a *application) Close() {
	if err := a.tags.Close(); err != nil {
		a.logger.Warn("failed to close tag store", "error", err)
	}
}

func newNotifier(cfg *config.Config, logger *slog.Logger) (ports.Notifier, error) {
	if cfg.Telegram.BotToken == "" {
		logger.Warn("TELEGRAM_BOT_TOKEN not set, alerts are only logged")
		return lognotify.New(logger), nil
	}
	n, err := telegram.New(telegram.Config{
		Token:    cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		Endpoint: cfg.Telegram.APIEndpoint,
		Timeout:  cfg.Sync.OutboundTimeout,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func ticketSchema(cfg *config.Config) notion.TicketSchema {
	return notion.TicketSchema{
		Title:       cfg.Notion.TitleProperty,
		TicketID:    cfg.Notion.TicketIDProperty,
		Requester:   cfg.Notion.RequesterProperty,
		Responsible: cfg.Notion.ResponsibleProperty,
		Assets:      cfg.Notion.AssetsProperty,
		Status:      cfg.Notion.StatusProperty,
		Created:     cfg.Notion.CreatedProperty,
	}
}

func equipmentSchema(cfg *config.Config) notion.EquipmentSchema {
	return notion.EquipmentSchema{
		Name:           cfg.Notion.EquipmentNameProperty,
		Status:         cfg.Notion.EquipmentStatusProperty,
		Holder:         cfg.Notion.EquipmentHolderProperty,
		OccupiedLabel:  cfg.Notion.OccupiedLabel,
		AvailableLabel: cfg.Notion.AvailableLabel,
	}
}
