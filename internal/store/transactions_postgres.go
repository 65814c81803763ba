package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ruralpay/ledger/internal/models"
)

type PostgresTransactionLog struct {
	db *sql.DB
}

func NewPostgresTransactionLog(db *sql.DB) *PostgresTransactionLog {
	return &PostgresTransactionLog{db: db}
}

func (l *PostgresTransactionLog) Append(ctx context.Context, entry models.TransactionEntry) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO ledger_transactions (account_id, type, amount, created_at)
		VALUES ($1, $2, $3, $4)`,
		entry.AccountID, string(entry.Type), entry.Amount, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append %s entry for account %d: %w", entry.Type, entry.AccountID, err)
	}
	return nil
}

func (l *PostgresTransactionLog) ListByAccount(ctx context.Context, accountID int64) ([]models.TransactionEntry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, account_id, type, amount, created_at
		FROM ledger_transactions
		WHERE account_id = $1
		ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for account %d: %w", accountID, err)
	}
	defer rows.Close()

	entries := []models.TransactionEntry{}
	for rows.Next() {
		var e models.TransactionEntry
		var entryType string
		if err := rows.Scan(&e.ID, &e.AccountID, &entryType, &e.Amount, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		e.Type = models.EntryType(entryType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
