package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"orbitcmd/pkg/db"
	"orbitcmd/pkg/model"
)

// SQLiteStore implements Store on a single-row document table plus a
// command history table.
type SQLiteStore struct {
	db *db.DB
	mu sync.Mutex
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Telemetry ---

func (s *SQLiteStore) Telemetry(ctx context.Context) (*model.Telemetry, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM telemetry WHERE id = 1").Scan(&raw)
	if err != nil {
		return nil, unavailable("read record", err)
	}

	var tel model.Telemetry
	if err := json.Unmarshal(raw, &tel); err != nil {
		return nil, unavailable("parse record", err)
	}
	return &tel, nil
}

func (s *SQLiteStore) Update(ctx context.Context, fn func(*model.Telemetry) error) (*model.Telemetry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin update", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	if err := tx.QueryRowContext(ctx, "SELECT doc FROM telemetry WHERE id = 1").Scan(&raw); err != nil {
		return nil, unavailable("read record", err)
	}

	var tel model.Telemetry
	if err := json.Unmarshal(raw, &tel); err != nil {
		return nil, unavailable("parse record", err)
	}

	if err := fn(&tel); err != nil {
		return nil, err
	}

	out, err := json.Marshal(&tel)
	if err != nil {
		return nil, unavailable("encode record", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE telemetry SET doc = ?, updated_at = ? WHERE id = 1",
		string(out), time.Now().UTC()); err != nil {
		return nil, unavailable("write record", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit update", err)
	}
	return &tel, nil
}

func (s *SQLiteStore) Bootstrap(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM telemetry WHERE id = 1").Scan(&exists)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, unavailable("check record", err)
	}

	doc, err := json.Marshal(model.Default())
	if err != nil {
		return false, unavailable("encode record", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO telemetry (id, doc, updated_at) VALUES (1, ?, ?)",
		string(doc), time.Now().UTC()); err != nil {
		return false, unavailable("write record", err)
	}
	return true, nil
}

// --- Commands ---

func (s *SQLiteStore) RecordCommand(ctx context.Context, cmd *model.Command) error {
	receivedAt := cmd.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	query := `INSERT INTO commands (id, dvx, dvy, duration, received_at) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, cmd.ID, cmd.DVX, cmd.DVY, cmd.Duration, receivedAt.UTC())
	if err != nil {
		return unavailable("record command", err)
	}
	return nil
}

func (s *SQLiteStore) RecentCommands(ctx context.Context, limit int) ([]*model.Command, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dvx, dvy, duration, received_at FROM commands
		 ORDER BY received_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, unavailable("read commands", err)
	}
	defer rows.Close()

	var results []*model.Command
	for rows.Next() {
		var c model.Command
		if err := rows.Scan(&c.ID, &c.DVX, &c.DVY, &c.Duration, &c.ReceivedAt); err != nil {
			return nil, unavailable("scan command", err)
		}
		results = append(results, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read commands", err)
	}
	return results, nil
}

func (s *SQLiteStore) PruneCommands(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.db.PruneCommands(olderThan)
	if err != nil {
		return 0, unavailable("prune commands", err)
	}
	return n, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
