package services

import (
	"bytes"
	"context"
	"time"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockTransactionLog struct {
	mock.Mock
}

func (m *MockTransactionLog) Append(ctx context.Context, entry models.TransactionEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTransactionLog) ListByAccount(ctx context.Context, accountID int64) ([]models.TransactionEntry, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TransactionEntry), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, entry models.TransactionEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// flakyAccountStore fails IncrementBalance for the listed account ids
type flakyAccountStore struct {
	*store.MemoryAccountStore
	failIncrement map[int64]error
}

func (f *flakyAccountStore) IncrementBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	if err, ok := f.failIncrement[id]; ok {
		return err
	}
	return f.MemoryAccountStore.IncrementBalance(ctx, id, delta)
}

type testLedger struct {
	accounts   *store.MemoryAccountStore
	txLog      *store.MemoryTransactionLog
	ledger     *LedgerService
	accountSvc *AccountService
	statements *StatementService
	interest   *InterestService
	auditBuf   *bytes.Buffer
}

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestLedger() *testLedger {
	accounts := store.NewMemoryAccountStore()
	txLog := store.NewMemoryTransactionLog()
	locks := NewMemoryLocker(time.Second)

	buf := &bytes.Buffer{}
	auditLogger := audit.NewAuditLoggerTo(buf)

	ledger := NewLedgerService(accounts, txLog, locks, nil)
	ledger.audit = auditLogger
	ledger.recorder.audit = auditLogger
	ledger.recorder.now = func() time.Time { return fixedNow }

	interest := NewInterestService(accounts, txLog, locks, nil)
	interest.audit = auditLogger
	interest.recorder.audit = auditLogger
	interest.recorder.now = func() time.Time { return fixedNow }

	return &testLedger{
		accounts:   accounts,
		txLog:      txLog,
		ledger:     ledger,
		accountSvc: NewAccountService(accounts, locks, auditLogger),
		statements: NewStatementService(accounts, txLog),
		interest:   interest,
		auditBuf:   buf,
	}
}

func (tl *testLedger) open(name string, balance int64) *models.Account {
	acc, err := tl.accountSvc.Open(context.Background(), CreateAccountRequest{
		Name:    name,
		Balance: decimal.NewFromInt(balance),
	})
	if err != nil {
		panic(err)
	}
	return acc
}

func (tl *testLedger) entries(id int64) []models.TransactionEntry {
	entries, err := tl.txLog.ListByAccount(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return entries
}

func (tl *testLedger) account(id int64) *models.Account {
	acc, err := tl.accounts.Get(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return acc
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
