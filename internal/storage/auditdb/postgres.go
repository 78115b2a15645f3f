package auditdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS supply_events (
	id BIGSERIAL PRIMARY KEY,
	currency TEXT NOT NULL,
	direction TEXT NOT NULL,
	basket_price TEXT NOT NULL,
	requested BIGINT NOT NULL,
	applied BIGINT NOT NULL,
	ts BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS swap_events (
	id BIGSERIAL PRIMARY KEY,
	swap_id TEXT NOT NULL,
	initiator TEXT NOT NULL,
	target TEXT NOT NULL,
	currency TEXT NOT NULL,
	amount BIGINT NOT NULL,
	state TEXT NOT NULL,
	ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_swap_events_swap_id ON swap_events(swap_id);
`

// PostgresStore is the audit store for deployments with a shared database.
type PostgresStore struct {
	db *sql.DB
}

func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to audit database: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing audit schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) RecordSupplyEvent(ctx context.Context, ev SupplyEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO supply_events (currency, direction, basket_price, requested, applied, ts) VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.Currency, ev.Direction, ev.BasketPrice, int64(ev.Requested), int64(ev.Applied), int64(ev.Timestamp))
	return err
}

func (s *PostgresStore) RecordSwapEvent(ctx context.Context, ev SwapEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO swap_events (swap_id, initiator, target, currency, amount, state, ts) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.SwapID, ev.Initiator, ev.Target, ev.Currency, int64(ev.Amount), ev.State, int64(ev.Timestamp))
	return err
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
