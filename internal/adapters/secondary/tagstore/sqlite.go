package tagstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the notified tags in an embedded SQLite database.
type SQLiteStore struct {
	db      *sql.DB
	timeout time.Duration
}

var _ ports.NotifiedTagStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteStore(path string, timeout time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tagstore: open sqlite: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("tagstore: wal: %w", err)
	}

	s := &SQLiteStore{db: db, timeout: timeout}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS notified_tags (
			tag        TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("tagstore: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Contains(ctx context.Context, tag domain.NotifiedTag) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM notified_tags WHERE tag = ?)`, string(tag),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("tagstore: lookup %s: %w", tag, err)
	}
	return exists, nil
}

func (s *SQLiteStore) Add(ctx context.Context, tag domain.NotifiedTag) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO notified_tags (tag, created_at) VALUES (?, ?)`,
		string(tag), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("tagstore: add %s: %w", tag, err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTimeout bounds a store call. A zero timeout leaves ctx unchanged.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
