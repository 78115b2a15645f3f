package auditdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS supply_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	currency TEXT NOT NULL,
	direction TEXT NOT NULL,
	basket_price TEXT NOT NULL,
	requested INTEGER NOT NULL,
	applied INTEGER NOT NULL,
	ts INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS swap_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	swap_id TEXT NOT NULL,
	initiator TEXT NOT NULL,
	target TEXT NOT NULL,
	currency TEXT NOT NULL,
	amount INTEGER NOT NULL,
	state TEXT NOT NULL,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_swap_events_swap_id ON swap_events(swap_id);
`

// SQLiteStore is the file-backed audit store for single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing audit schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) RecordSupplyEvent(ctx context.Context, ev SupplyEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO supply_events (currency, direction, basket_price, requested, applied, ts) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Currency, ev.Direction, ev.BasketPrice, int64(ev.Requested), int64(ev.Applied), int64(ev.Timestamp))
	return err
}

func (s *SQLiteStore) RecordSwapEvent(ctx context.Context, ev SwapEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO swap_events (swap_id, initiator, target, currency, amount, state, ts) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.SwapID, ev.Initiator, ev.Target, ev.Currency, int64(ev.Amount), ev.State, int64(ev.Timestamp))
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
