package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_Deposit(t *testing.T) {
	ctx := context.Background()

	t.Run("credits the balance and logs a deposit", func(t *testing.T) {
		tl := newTestLedger()
		acc := tl.open("Alice", 100)

		updated, err := tl.ledger.Deposit(ctx, DepositRequest{ID: acc.ID, Amount: dec(999999)})
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(dec(1000099)))
		assert.Equal(t, models.StatusActive, updated.Status)

		entries := tl.entries(acc.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, models.EntryDeposit, entries[0].Type)
		assert.True(t, entries[0].Amount.Equal(dec(999999)))
		assert.Equal(t, fixedNow, entries[0].Timestamp)
	})

	t.Run("high value deposit blocks the account", func(t *testing.T) {
		tl := newTestLedger()
		acc := tl.open("Alice", 100)

		_, err := tl.ledger.Deposit(ctx, DepositRequest{ID: acc.ID, Amount: dec(1000000)})
		assert.ErrorIs(t, err, ErrBlocked)

		got := tl.account(acc.ID)
		assert.Equal(t, models.StatusBlocked, got.Status)
		assert.True(t, got.Balance.Equal(dec(100)))

		entries := tl.entries(acc.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, models.EntryDepositBlocked, entries[0].Type)
		assert.True(t, entries[0].Amount.Equal(dec(1000000)))
		assert.Contains(t, tl.auditBuf.String(), `"status":"BLOCKED"`)
	})

	t.Run("unknown account", func(t *testing.T) {
		tl := newTestLedger()
		_, err := tl.ledger.Deposit(ctx, DepositRequest{ID: 9, Amount: dec(10)})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid input", func(t *testing.T) {
		tl := newTestLedger()
		acc := tl.open("Alice", 100)

		_, err := tl.ledger.Deposit(ctx, DepositRequest{ID: acc.ID})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = tl.ledger.Deposit(ctx, DepositRequest{ID: acc.ID, Amount: dec(-5)})
		assert.ErrorIs(t, err, ErrValidation)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Contains(t, vErr.Fields, "Amount")
		assert.Empty(t, tl.entries(acc.ID))
	})

	t.Run("fractional amounts are exact", func(t *testing.T) {
		tl := newTestLedger()
		acc := tl.open("Alice", 0)

		for i := 0; i < 10; i++ {
			_, err := tl.ledger.Deposit(ctx, DepositRequest{ID: acc.ID, Amount: decimal.RequireFromString("0.1")})
			require.NoError(t, err)
		}
		assert.True(t, tl.account(acc.ID).Balance.Equal(dec(1)))
	})
}

func TestLedgerService_Withdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("debits the balance and logs a withdraw", func(t *testing.T) {
		tl := newTestLedger()
		acc := tl.open("Bob", 500)

		updated, err := tl.ledger.Withdraw(ctx, WithdrawRequest{ID: acc.ID, Amount: dec(200)})
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(dec(300)))

		entries := tl.entries(acc.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, models.EntryWithdraw, entries[0].Type)
		assert.True(t, entries[0].Amount.Equal(dec(200)))
	})

	t.Run("insufficient funds leaves no trace", func(t *testing.T) {
		tl := newTestLedger()
		acc := tl.open("Bob", 500)

		_, err := tl.ledger.Withdraw(ctx, WithdrawRequest{ID: acc.ID, Amount: dec(501)})
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		got := tl.account(acc.ID)
		assert.True(t, got.Balance.Equal(dec(500)))
		assert.Equal(t, models.StatusActive, got.Status)
		assert.Empty(t, tl.entries(acc.ID))
	})

	t.Run("high value withdrawal blocks even with sufficient funds", func(t *testing.T) {
		tl := newTestLedger()
		acc := tl.open("Rich", 2000000)

		_, err := tl.ledger.Withdraw(ctx, WithdrawRequest{ID: acc.ID, Amount: dec(1500000)})
		assert.ErrorIs(t, err, ErrBlocked)

		got := tl.account(acc.ID)
		assert.Equal(t, models.StatusBlocked, got.Status)
		assert.True(t, got.Balance.Equal(dec(2000000)))

		entries := tl.entries(acc.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, models.EntryWithdrawBlocked, entries[0].Type)
		assert.True(t, entries[0].Amount.Equal(dec(1500000)))
	})

	t.Run("high value check precedes sufficiency check", func(t *testing.T) {
		tl := newTestLedger()
		acc := tl.open("Poor", 10)

		_, err := tl.ledger.Withdraw(ctx, WithdrawRequest{ID: acc.ID, Amount: dec(1000000)})
		assert.ErrorIs(t, err, ErrBlocked)
		assert.False(t, errors.Is(err, ErrInsufficientFunds))
		assert.Equal(t, models.StatusBlocked, tl.account(acc.ID).Status)
	})

	t.Run("unknown account", func(t *testing.T) {
		tl := newTestLedger()
		_, err := tl.ledger.Withdraw(ctx, WithdrawRequest{ID: 3, Amount: dec(1)})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent withdrawals never overdraw", func(t *testing.T) {
		tl := newTestLedger()
		acc := tl.open("Shared", 100)

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := tl.ledger.Withdraw(ctx, WithdrawRequest{ID: acc.ID, Amount: dec(10)}); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, succeeded)
		assert.True(t, tl.account(acc.ID).Balance.IsZero())
		assert.Len(t, tl.entries(acc.ID), 10)
	})
}

func TestLedgerService_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("successful transfer", func(t *testing.T) {
		tl := newTestLedger()
		a := tl.open("A", 1000)
		b := tl.open("B", 500)

		result, err := tl.ledger.Transfer(ctx, TransferRequest{Sender: a.ID, Receiver: b.ID, Amount: dec(200)})
		require.NoError(t, err)
		assert.Equal(t, "Transfer successful", result.Message)
		assert.True(t, result.Sender.Balance.Equal(dec(800)))
		assert.True(t, result.Receiver.Balance.Equal(dec(700)))

		sent := tl.entries(a.ID)
		require.Len(t, sent, 1)
		assert.Equal(t, models.EntryTransferSent, sent[0].Type)
		assert.True(t, sent[0].Amount.Equal(dec(200)))

		received := tl.entries(b.ID)
		require.Len(t, received, 1)
		assert.Equal(t, models.EntryTransferReceived, received[0].Type)
		assert.True(t, received[0].Amount.Equal(dec(200)))
	})

	t.Run("unknown party", func(t *testing.T) {
		tl := newTestLedger()
		a := tl.open("A", 1000)

		_, err := tl.ledger.Transfer(ctx, TransferRequest{Sender: a.ID, Receiver: 99, Amount: dec(1)})
		assert.ErrorIs(t, err, ErrInvalidParty)

		_, err = tl.ledger.Transfer(ctx, TransferRequest{Sender: 99, Receiver: a.ID, Amount: dec(1)})
		assert.ErrorIs(t, err, ErrInvalidParty)
	})

	t.Run("high value blocks sender only and logs nothing", func(t *testing.T) {
		tl := newTestLedger()
		a := tl.open("A", 5000000)
		b := tl.open("B", 0)

		_, err := tl.ledger.Transfer(ctx, TransferRequest{Sender: a.ID, Receiver: b.ID, Amount: dec(1000000)})
		assert.ErrorIs(t, err, ErrBlocked)

		assert.Equal(t, models.StatusBlocked, tl.account(a.ID).Status)
		assert.Equal(t, models.StatusActive, tl.account(b.ID).Status)
		assert.True(t, tl.account(a.ID).Balance.Equal(dec(5000000)))
		assert.True(t, tl.account(b.ID).Balance.IsZero())
		assert.Empty(t, tl.entries(a.ID))
		assert.Empty(t, tl.entries(b.ID))
	})

	t.Run("inactive receiver blocks sender", func(t *testing.T) {
		for _, status := range []models.AccountStatus{models.StatusBlocked, models.StatusClosed} {
			tl := newTestLedger()
			a := tl.open("A", 1000)
			b := tl.open("B", 0)
			require.NoError(t, tl.accounts.SetStatus(ctx, b.ID, status))

			_, err := tl.ledger.Transfer(ctx, TransferRequest{Sender: a.ID, Receiver: b.ID, Amount: dec(100)})
			assert.ErrorIs(t, err, ErrBlocked)
			assert.Contains(t, err.Error(), "receiver inactive")
			assert.Equal(t, models.StatusBlocked, tl.account(a.ID).Status)
			assert.True(t, tl.account(a.ID).Balance.Equal(dec(1000)))
			assert.Empty(t, tl.entries(a.ID))
		}
	})

	t.Run("threshold wins over inactive receiver", func(t *testing.T) {
		tl := newTestLedger()
		a := tl.open("A", 10)
		b := tl.open("B", 0)
		require.NoError(t, tl.accounts.SetStatus(ctx, b.ID, models.StatusClosed))

		_, err := tl.ledger.Transfer(ctx, TransferRequest{Sender: a.ID, Receiver: b.ID, Amount: dec(2000000)})
		assert.ErrorIs(t, err, ErrBlocked)
		assert.Contains(t, err.Error(), "high value")
		assert.Contains(t, tl.auditBuf.String(), "high value transfer")
		assert.NotContains(t, tl.auditBuf.String(), "receiver closed")
		assert.Equal(t, models.StatusBlocked, tl.account(a.ID).Status)
		assert.Empty(t, tl.entries(a.ID))
		assert.Empty(t, tl.entries(b.ID))
	})

	t.Run("inactive receiver wins over insufficient funds", func(t *testing.T) {
		tl := newTestLedger()
		a := tl.open("A", 10)
		b := tl.open("B", 0)
		require.NoError(t, tl.accounts.SetStatus(ctx, b.ID, models.StatusBlocked))

		_, err := tl.ledger.Transfer(ctx, TransferRequest{Sender: a.ID, Receiver: b.ID, Amount: dec(500)})
		assert.ErrorIs(t, err, ErrBlocked)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		tl := newTestLedger()
		a := tl.open("A", 100)
		b := tl.open("B", 0)

		_, err := tl.ledger.Transfer(ctx, TransferRequest{Sender: a.ID, Receiver: b.ID, Amount: dec(101)})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, models.StatusActive, tl.account(a.ID).Status)
		assert.True(t, tl.account(a.ID).Balance.Equal(dec(100)))
		assert.Empty(t, tl.entries(a.ID))
	})

	t.Run("opposite concurrent transfers do not deadlock", func(t *testing.T) {
		tl := newTestLedger()
		a := tl.open("A", 10000)
		b := tl.open("B", 10000)

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, _ = tl.ledger.Transfer(ctx, TransferRequest{Sender: a.ID, Receiver: b.ID, Amount: dec(7)})
			}()
			go func() {
				defer wg.Done()
				_, _ = tl.ledger.Transfer(ctx, TransferRequest{Sender: b.ID, Receiver: a.ID, Amount: dec(3)})
			}()
		}
		wg.Wait()

		total := tl.account(a.ID).Balance.Add(tl.account(b.ID).Balance)
		assert.True(t, total.Equal(dec(20000)))
		assert.True(t, tl.account(a.ID).Balance.Equal(dec(9600)))
	})
}

func TestLedgerService_LogFailureDoesNotUndoMutation(t *testing.T) {
	ctx := context.Background()
	accounts := store.NewMemoryAccountStore()
	acc, err := accounts.Create(ctx, models.NewAccount{Name: "A", Balance: dec(100)})
	require.NoError(t, err)

	txLog := &MockTransactionLog{}
	txLog.On("Append", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	events := &MockEventPublisher{}

	svc := NewLedgerService(accounts, txLog, NewMemoryLocker(0), events)

	updated, err := svc.Deposit(ctx, DepositRequest{ID: acc.ID, Amount: dec(50)})
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(dec(150)))

	txLog.AssertNumberOfCalls(t, "Append", 1)
	events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestLedgerService_PublishesCommittedEntries(t *testing.T) {
	ctx := context.Background()
	accounts := store.NewMemoryAccountStore()
	acc, err := accounts.Create(ctx, models.NewAccount{Name: "A", Balance: dec(100)})
	require.NoError(t, err)

	events := &MockEventPublisher{}
	events.On("Publish", mock.Anything, mock.MatchedBy(func(e models.TransactionEntry) bool {
		return e.AccountID == acc.ID && e.Type == models.EntryWithdraw && e.Amount.Equal(dec(40))
	})).Return(errors.New("redis down"))

	svc := NewLedgerService(accounts, store.NewMemoryTransactionLog(), NewMemoryLocker(0), events)

	_, err = svc.Withdraw(ctx, WithdrawRequest{ID: acc.ID, Amount: dec(40)})
	require.NoError(t, err)
	events.AssertExpectations(t)
}

func TestLedgerService_BlockAndClose(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger()
	acc := tl.open("A", 25)

	require.NoError(t, tl.ledger.ManualBlock(ctx, acc.ID))
	require.NoError(t, tl.ledger.ManualBlock(ctx, acc.ID))
	assert.Equal(t, models.StatusBlocked, tl.account(acc.ID).Status)

	require.NoError(t, tl.ledger.Close(ctx, acc.ID))
	got := tl.account(acc.ID)
	assert.Equal(t, models.StatusClosed, got.Status)
	assert.True(t, got.Balance.Equal(dec(25)))

	assert.ErrorIs(t, tl.ledger.ManualBlock(ctx, 404), ErrNotFound)
	assert.ErrorIs(t, tl.ledger.Close(ctx, 404), ErrNotFound)

	// Closed accounts are not guarded against later deposits.
	_, err := tl.ledger.Deposit(ctx, DepositRequest{ID: acc.ID, Amount: dec(5)})
	require.NoError(t, err)
	assert.True(t, tl.account(acc.ID).Balance.Equal(dec(30)))
}

func TestLedgerService_TransferToSelf(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger()
	acc := tl.open("A", 100)

	result, err := tl.ledger.Transfer(ctx, TransferRequest{Sender: acc.ID, Receiver: acc.ID, Amount: dec(40)})
	require.NoError(t, err)
	assert.True(t, result.Sender.Balance.Equal(dec(100)))

	entries := tl.entries(acc.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EntryTransferSent, entries[0].Type)
	assert.Equal(t, models.EntryTransferReceived, entries[1].Type)
}

func TestLedgerService_RejectsSubCentAmounts(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger()
	a := tl.open("A", 100)
	b := tl.open("B", 100)
	tiny := decimal.RequireFromString("0.004")

	_, err := tl.ledger.Deposit(ctx, DepositRequest{ID: a.ID, Amount: tiny})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = tl.ledger.Withdraw(ctx, WithdrawRequest{ID: a.ID, Amount: tiny})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = tl.ledger.Transfer(ctx, TransferRequest{Sender: a.ID, Receiver: b.ID, Amount: tiny})
	assert.ErrorIs(t, err, ErrValidation)

	assert.True(t, tl.account(a.ID).Balance.Equal(dec(100)))
	assert.True(t, tl.account(b.ID).Balance.Equal(dec(100)))
	assert.Empty(t, tl.entries(a.ID))
	assert.Empty(t, tl.entries(b.ID))
}
