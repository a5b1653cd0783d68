package transcript

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool the store uses. It is swapped out
// in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store archives transcript lines to a PostgreSQL transcript_entries
// table so meetings survive bot restarts and can be searched later.
// All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
	db   querier
}

// NewStore connects to Postgres at connString and verifies the
// connection. Callers own the returned store and must Close it.
func NewStore(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("transcript store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("transcript store: ping: %w", err)
	}
	return NewStoreFromPool(pool), nil
}

// NewStoreFromPool wraps an existing pool. Used by callers that share one
// pool across stores.
func NewStoreFromPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// Migrate creates the transcript_entries table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS transcript_entries (
		    id         BIGSERIAL PRIMARY KEY,
		    meeting_id TEXT        NOT NULL,
		    speaker    TEXT        NOT NULL,
		    text       TEXT        NOT NULL,
		    timestamp  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS transcript_entries_meeting_idx
		    ON transcript_entries (meeting_id, timestamp);
		CREATE INDEX IF NOT EXISTS transcript_entries_fts_idx
		    ON transcript_entries USING GIN (to_tsvector('english', text))`

	if _, err := s.db.Exec(ctx, q); err != nil {
		return fmt.Errorf("transcript store: migrate: %w", err)
	}
	return nil
}

// WriteEntry appends one transcript line under meetingID.
func (s *Store) WriteEntry(ctx context.Context, meetingID string, e Entry) error {
	const q = `
		INSERT INTO transcript_entries (meeting_id, speaker, text, timestamp)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.db.Exec(ctx, q, meetingID, e.Speaker, e.Text, e.Timestamp); err != nil {
		return fmt.Errorf("transcript store: write entry: %w", err)
	}
	return nil
}

// Search performs a full-text search over all archived meetings, backed by
// the GIN index Migrate creates. The query is passed to plainto_tsquery so
// no operator syntax is required.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	q := `
		SELECT speaker, text, timestamp
		FROM   transcript_entries
		WHERE  to_tsvector('english', text) @@ plainto_tsquery('english', $1)
		ORDER  BY timestamp`

	args := []any{query}
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf("\nLIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("transcript store: search: %w", err)
	}
	return collectEntries(rows)
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// collectEntries scans pgx rows into Entry values.
func collectEntries(rows pgx.Rows) ([]Entry, error) {
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.Speaker, &e.Text, &e.Timestamp)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("transcript store: scan: %w", err)
	}
	return entries, nil
}
