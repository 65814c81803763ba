package services

import (
	"context"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
)

type StatementService struct {
	accounts store.AccountStore
	txLog    store.TransactionLog
}

func NewStatementService(accounts store.AccountStore, txLog store.TransactionLog) *StatementService {
	return &StatementService{accounts: accounts, txLog: txLog}
}

// Build pairs the account with every entry logged against it, in log order
func (s *StatementService) Build(ctx context.Context, id int64) (*models.Statement, error) {
	acc, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, accountErr(err, id, ErrNotFound)
	}

	entries, err := s.txLog.ListByAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.Statement{Account: *acc, Transactions: entries}, nil
}
