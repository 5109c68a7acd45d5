package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/ganymede/pkg/admission/bucket"
)

// SQLiteStore persists quota state in a SQLite database. It implements
// the pessimistic strategy: the update closure runs inside a write
// transaction, and the single-writer connection serializes all updates.
//
// Suitable for single-instance deployments that need persistence across
// restarts. The store uses WAL mode with periodic checkpointing.
type SQLiteStore struct {
	db                 *sql.DB
	checkpointInterval time.Duration
	done               chan struct{}
	closeOnce          sync.Once
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for the write lock before failing.
	// Default: 5s
	BusyTimeout time.Duration

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration
}

// NewSQLiteStore opens (or creates) a SQLite-backed store with defaults.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteConfig{Path: path})
}

// NewSQLiteStoreWithConfig opens a SQLite-backed store.
func NewSQLiteStoreWithConfig(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer; funnel everything through one
	// connection so BeginTx is the exclusive critical section.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:                 db,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	go s.checkpointLoop()

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_quotas (
		user_id     TEXT PRIMARY KEY,
		tokens      INTEGER NOT NULL,
		last_refill INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_user_quotas_updated_at ON user_quotas(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// AtomicUpdate runs fn inside a write transaction. fn runs exactly once
// per call; a failed commit is an infrastructure fault.
func (s *SQLiteStore) AtomicUpdate(ctx context.Context, userID string, fn UpdateFunc) (bucket.State, error) {
	if userID == "" {
		return bucket.State{}, ErrEmptyUserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return bucket.State{}, fmt.Errorf("%w: begin: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var prev *bucket.State
	var tokens, lastRefill int64
	err = tx.QueryRowContext(ctx,
		`SELECT tokens, last_refill FROM user_quotas WHERE user_id = ?`,
		userID,
	).Scan(&tokens, &lastRefill)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		prev = nil
	case err != nil:
		return bucket.State{}, fmt.Errorf("%w: read: %v", ErrStoreUnavailable, err)
	default:
		prev = &bucket.State{Tokens: tokens, LastRefill: time.Unix(lastRefill, 0).UTC()}
	}

	next, err := fn(prev)
	if err != nil {
		return bucket.State{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_quotas (user_id, tokens, last_refill, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			tokens = excluded.tokens,
			last_refill = excluded.last_refill,
			updated_at = excluded.updated_at`,
		userID, next.Tokens, next.LastRefill.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return bucket.State{}, fmt.Errorf("%w: write: %v", ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return bucket.State{}, fmt.Errorf("%w: commit: %v", ErrStoreUnavailable, err)
	}
	return next, nil
}

// Cleanup removes rows not updated since olderThan.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM user_quotas WHERE updated_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: cleanup: %v", ErrStoreUnavailable, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Close checkpoints the WAL and closes the database. Idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		close(s.done)
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		closeErr = s.db.Close()
	})
	return closeErr
}

func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
