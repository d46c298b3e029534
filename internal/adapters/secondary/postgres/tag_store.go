package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
)

// TagStore is the secondary adapter persisting notified tags in PostgreSQL.
type TagStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// Ensure TagStore implements the ports.NotifiedTagStore interface.
var _ ports.NotifiedTagStore = (*TagStore)(nil)

// NewTagStore migrates the schema, opens a pool and verifies the connection.
func NewTagStore(ctx context.Context, dsn string, timeout time.Duration) (*TagStore, error) {
	if err := Migrate(dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	s := NewTagStoreFromPool(pool, timeout)
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return s, nil
}

// NewTagStoreFromPool wraps an existing pool. The schema must already exist.
func NewTagStoreFromPool(pool *pgxpool.Pool, timeout time.Duration) *TagStore {
	return &TagStore{pool: pool, timeout: timeout}
}

// Contains reports whether the tag was recorded.
func (s *TagStore) Contains(ctx context.Context, tag domain.NotifiedTag) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM notified_tags WHERE tag = $1)`, string(tag),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: lookup %s: %w", tag, err)
	}
	return exists, nil
}

// Add records the tag. Recording an existing tag is a no-op.
func (s *TagStore) Add(ctx context.Context, tag domain.NotifiedTag) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO notified_tags (tag) VALUES ($1) ON CONFLICT (tag) DO NOTHING`, string(tag),
	)
	if err != nil {
		return fmt.Errorf("postgres: add %s: %w", tag, err)
	}
	return nil
}

func (s *TagStore) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *TagStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *TagStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
