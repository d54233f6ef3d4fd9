// Package archive mirrors the audit log into PostgreSQL so compliance
// reporting can outlive the document store. Entries arrive over a channel fed
// by the history writer; the sink is best-effort and never blocks a request.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"geoatlas/internal/history"
)

// Schema is the archive table DDL, applied by operations tooling (and the
// integration tests).
const Schema = `
CREATE TABLE IF NOT EXISTS history_archive (
	id         TEXT PRIMARY KEY,
	label      TEXT NOT NULL,
	entity     TEXT NOT NULL,
	action     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	created_by TEXT NOT NULL,
	payload    JSONB NOT NULL
)`

// PostgresSink writes archived entries. Idempotent on entry id so a replayed
// entry never duplicates a row.
type PostgresSink struct {
	db *sql.DB
}

// Open dials the archive database. Returns a nil sink when dsn is empty.
func Open(dsn string) (*PostgresSink, error) {
	if dsn == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive db ping failed: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

// NewPostgresSink wraps an existing connection, for tests.
func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// Write archives one entry.
func (s *PostgresSink) Write(ctx context.Context, entry history.Entry) error {
	payload, err := json.Marshal(entry.Values)
	if err != nil {
		return fmt.Errorf("marshal archive payload: %w", err)
	}
	query := `
		INSERT INTO history_archive (id, label, entity, action, created_at, created_by, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Metadata.Label,
		entry.Metadata.Entity,
		string(entry.Metadata.Type),
		entry.Metadata.CreatedAt,
		entry.Metadata.CreatedBy,
		payload,
	); err != nil {
		return fmt.Errorf("archive entry %s: %w", entry.ID, err)
	}
	return nil
}

// Health checks the archive connection.
func (s *PostgresSink) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close tears down the connection.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}
