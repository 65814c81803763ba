package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, name, balance, status, phone, email, address, created_at, updated_at`

// createRetries bounds the max+1 id race between concurrent creates
const createRetries = 3

type PostgresAccountStore struct {
	db *sql.DB
}

func NewPostgresAccountStore(db *sql.DB) *PostgresAccountStore {
	return &PostgresAccountStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var acc models.Account
	var status string
	var phone, email, address sql.NullString

	err := row.Scan(&acc.ID, &acc.Name, &acc.Balance, &status, &phone, &email, &address, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	acc.Status = models.AccountStatus(status)
	acc.Phone = phone.String
	acc.Email = email.String
	acc.Address = address.String
	return &acc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *PostgresAccountStore) Create(ctx context.Context, in models.NewAccount) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, name, balance, status, phone, email, address, created_at, updated_at)
		SELECT COALESCE(MAX(id), 0) + 1, $1, $2, $3, $4, $5, $6, now(), now() FROM accounts
		RETURNING ` + accountColumns

	var lastErr error
	for attempt := 1; attempt <= createRetries; attempt++ {
		row := s.db.QueryRowContext(ctx, query,
			in.Name, in.Balance, string(models.StatusActive),
			nullString(in.Phone), nullString(in.Email), nullString(in.Address))

		acc, err := scanAccount(row)
		if err == nil {
			return acc, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		log.Printf("[STORE] Account id race on create, retrying (attempt %d)", attempt)
		lastErr = err
	}
	return nil, fmt.Errorf("failed to create account after %d attempts: %w", createRetries, lastErr)
}

func (s *PostgresAccountStore) Get(ctx context.Context, id int64) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	acc, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account %d: %w", id, err)
	}
	return acc, nil
}

func (s *PostgresAccountStore) List(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	return accounts, rows.Err()
}

func (s *PostgresAccountStore) ApplyFieldUpdate(ctx context.Context, id int64, patch models.AccountPatch) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE accounts SET
			name = COALESCE($2, name),
			balance = COALESCE($3, balance),
			status = COALESCE($4, status),
			phone = COALESCE($5, phone),
			email = COALESCE($6, email),
			address = COALESCE($7, address),
			updated_at = now()
		WHERE id = $1
		RETURNING `+accountColumns,
		id, patch.Name, patch.Balance, patch.Status, patch.Phone, patch.Email, patch.Address)

	acc, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update account %d: %w", id, err)
	}
	return acc, nil
}

func (s *PostgresAccountStore) ApplyRestrictedFieldUpdate(ctx context.Context, id int64, patch models.ProfilePatch) (*models.Account, error) {
	return s.ApplyFieldUpdate(ctx, id, patch.AccountPatch())
}

func (s *PostgresAccountStore) IncrementBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + $1, updated_at = now() WHERE id = $2`,
		delta, id)
	if err != nil {
		return fmt.Errorf("failed to increment balance of account %d: %w", id, err)
	}
	return requireRow(result)
}

// MoveBalance locks both rows in ascending id order before touching either,
// so two opposite transfers cannot deadlock each other.
func (s *PostgresAccountStore) MoveBalance(ctx context.Context, fromID, toID int64, amount decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	firstLock, secondLock := fromID, toID
	if fromID > toID {
		firstLock, secondLock = toID, fromID
	}

	balances := make(map[int64]decimal.Decimal, 2)
	for _, id := range []int64{firstLock, secondLock} {
		if _, seen := balances[id]; seen {
			continue
		}
		var balance decimal.Decimal
		err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&balance)
		if err == sql.ErrNoRows {
			return ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock account %d: %w", id, err)
		}
		balances[id] = balance
	}

	if balances[fromID].LessThan(amount) {
		return ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - $1, updated_at = now() WHERE id = $2`,
		amount, fromID); err != nil {
		return fmt.Errorf("failed to debit account %d: %w", fromID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + $1, updated_at = now() WHERE id = $2`,
		amount, toID); err != nil {
		return fmt.Errorf("failed to credit account %d: %w", toID, err)
	}

	return tx.Commit()
}

func (s *PostgresAccountStore) SetStatus(ctx context.Context, id int64, status models.AccountStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("failed to set status of account %d: %w", id, err)
	}
	return requireRow(result)
}

func (s *PostgresAccountStore) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}
