package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id         BIGINT PRIMARY KEY,
		name       TEXT NOT NULL,
		balance    NUMERIC(20,2) NOT NULL DEFAULT 0,
		status     TEXT NOT NULL DEFAULT 'active',
		phone      TEXT,
		email      TEXT,
		address    TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// account_id is a weak reference: entries outlive deleted accounts
	`CREATE TABLE IF NOT EXISTS ledger_transactions (
		id         BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL,
		type       TEXT NOT NULL,
		amount     NUMERIC(20,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_transactions_account ON ledger_transactions (account_id, id)`,
}

// Migrate creates the ledger tables when they do not exist yet
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	log.Println("Database schema is up to date")
	return nil
}
