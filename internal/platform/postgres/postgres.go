// Package postgres opens the shared database handle and owns the schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to PostgreSQL via the pgx stdlib driver and verifies the
// connection before returning.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema is the full DDL for the ledger. Statements are idempotent so a
// fresh deploy and a restart both converge on the same layout.
//
// ledger_state holds the product counter as a singleton row: IDs must be
// dense integers in [1, counter], which a sequence cannot guarantee because
// sequences keep their gaps when a transaction aborts.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_state (
	singleton       BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	product_counter BIGINT NOT NULL DEFAULT 0
);

INSERT INTO ledger_state (singleton, product_counter)
VALUES (TRUE, 0)
ON CONFLICT (singleton) DO NOTHING;

CREATE TABLE IF NOT EXISTS products (
	id           BIGINT PRIMARY KEY,
	name         TEXT NOT NULL,
	origin       TEXT NOT NULL,
	producer     TEXT NOT NULL,
	harvested_at TIMESTAMPTZ NOT NULL,
	price        BIGINT NOT NULL CHECK (price > 0),
	owner        TEXT NOT NULL,
	available    BOOLEAN NOT NULL,
	organic      BOOLEAN NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ownership_history (
	product_id  BIGINT NOT NULL REFERENCES products (id),
	seq         INT NOT NULL,
	owner       TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (product_id, seq)
);

CREATE TABLE IF NOT EXISTS certifications (
	product_id BIGINT NOT NULL REFERENCES products (id),
	seq        INT NOT NULL,
	label      TEXT NOT NULL,
	added_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (product_id, seq)
);
`

// EnsureSchema applies the DDL. Safe to call on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}
