// Package tagstore provides the notified-tag backends and selects one from
// configuration.
package tagstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lorrc/helpdesk-bridge/internal/adapters/secondary/postgres"
	"github.com/lorrc/helpdesk-bridge/internal/config"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
)

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.TagStoreConfig, timeout time.Duration, logger *slog.Logger) (ports.NotifiedTagStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		store ports.NotifiedTagStore
		err   error
	)
	switch cfg.Driver {
	case config.TagStoreFile, "":
		store, err = NewFileStore(cfg.Path)
	case config.TagStoreSQLite:
		store, err = NewSQLiteStore(cfg.Path, timeout)
	case config.TagStorePostgres:
		store, err = postgres.NewTagStore(ctx, cfg.DSN, timeout)
	case config.TagStoreRedis:
		store, err = NewRedisStore(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.Key,
			Timeout:  timeout,
		})
	default:
		return nil, fmt.Errorf("tagstore: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("notified-tag store opened", "component", "tag_store", "driver", cfg.Driver)
	return store, nil
}
