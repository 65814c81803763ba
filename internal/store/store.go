// Package store holds the durable collaborators of the ledger: the account
// store and the append-only transaction log, with in-memory and Postgres
// implementations.
package store

import (
	"context"
	"errors"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// AccountStore is keyed storage for account records
type AccountStore interface {
	// Create assigns max(existing id)+1, or 1 when the store is empty.
	Create(ctx context.Context, acc models.NewAccount) (*models.Account, error)
	Get(ctx context.Context, id int64) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	ApplyFieldUpdate(ctx context.Context, id int64, patch models.AccountPatch) (*models.Account, error)
	ApplyRestrictedFieldUpdate(ctx context.Context, id int64, patch models.ProfilePatch) (*models.Account, error)
	// IncrementBalance adds delta, which may be negative. Sufficiency is
	// the caller's concern.
	IncrementBalance(ctx context.Context, id int64, delta decimal.Decimal) error
	// MoveBalance debits fromID and credits toID as one unit.
	MoveBalance(ctx context.Context, fromID, toID int64, amount decimal.Decimal) error
	SetStatus(ctx context.Context, id int64, status models.AccountStatus) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// TransactionLog is an append-only store of ledger entries
type TransactionLog interface {
	Append(ctx context.Context, entry models.TransactionEntry) error
	ListByAccount(ctx context.Context, accountID int64) ([]models.TransactionEntry, error)
}
