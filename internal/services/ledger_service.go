package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/shopspring/decimal"
)

// HighValueThreshold is the largest amount processed normally. Anything
// strictly greater blocks the initiating account instead.
const HighValueThreshold int64 = 999999

var highValueThreshold = decimal.NewFromInt(HighValueThreshold)

const (
	opDeposit   = "DEPOSIT"
	opWithdraw  = "WITHDRAW"
	opTransfer  = "TRANSFER"
	opBlock     = "BLOCK"
	opClose     = "CLOSE"
	opInterest  = "INTEREST"
	opLogAppend = "LOG_APPEND"
)

type DepositRequest struct {
	ID     int64           `json:"id" validate:"required,gt=0"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0,cents" swaggertype:"number"`
}

type WithdrawRequest struct {
	ID     int64           `json:"id" validate:"required,gt=0"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0,cents" swaggertype:"number"`
}

type TransferRequest struct {
	Sender   int64           `json:"sender" validate:"required,gt=0"`
	Receiver int64           `json:"receiver" validate:"required,gt=0"`
	Amount   decimal.Decimal `json:"amount" validate:"required,gt=0,cents" swaggertype:"number"`
}

type TransferResult struct {
	Message  string         `json:"message"`
	Sender   models.Account `json:"sender"`
	Receiver models.Account `json:"receiver"`
}

// LedgerService applies money movement and lifecycle rules to accounts.
// Every operation runs check, then block-or-commit, then log while holding
// the locks of the accounts it touches.
type LedgerService struct {
	accounts  store.AccountStore
	locks     Locker
	audit     *audit.AuditLogger
	validator *ValidationHelper
	recorder  *entryRecorder
}

func NewLedgerService(accounts store.AccountStore, txLog store.TransactionLog, locks Locker, events EventPublisher) *LedgerService {
	if events == nil {
		events = NoopEventPublisher{}
	}
	auditLogger := audit.NewAuditLogger()
	return &LedgerService{
		accounts:  accounts,
		locks:     locks,
		audit:     auditLogger,
		validator: NewValidationHelper(),
		recorder: &entryRecorder{
			txLog:  txLog,
			events: events,
			audit:  auditLogger,
			now:    time.Now,
		},
	}
}

func isHighValue(amount decimal.Decimal) bool {
	return amount.GreaterThan(highValueThreshold)
}

// accountErr translates store errors into the ledger's error kinds
func accountErr(err error, id int64, missing error) error {
	if errors.Is(err, store.ErrAccountNotFound) {
		return fmt.Errorf("%w: id %d", missing, id)
	}
	return err
}

func (s *LedgerService) getAccount(ctx context.Context, id int64, missing error) (*models.Account, error) {
	acc, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, accountErr(err, id, missing)
	}
	return acc, nil
}

func (s *LedgerService) block(ctx context.Context, id int64) error {
	if err := s.accounts.SetStatus(ctx, id, models.StatusBlocked); err != nil {
		return accountErr(err, id, ErrNotFound)
	}
	return nil
}

// Deposit credits an account. Amounts above the high-value threshold block
// the account and are logged as deposit-blocked.
func (s *LedgerService) Deposit(ctx context.Context, req DepositRequest) (*models.Account, error) {
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.getAccount(ctx, req.ID, ErrNotFound); err != nil {
		return nil, err
	}

	if isHighValue(req.Amount) {
		if err := s.block(ctx, req.ID); err != nil {
			return nil, err
		}
		s.recorder.record(ctx, req.ID, models.EntryDepositBlocked, req.Amount)
		s.audit.LogBlocked(opDeposit, req.ID, req.Amount, "high value deposit")
		log.Printf("[LEDGER] Deposit of %s blocked, account %d blocked", req.Amount, req.ID)
		return nil, fmt.Errorf("%w: account has been blocked due to high amount", ErrBlocked)
	}

	if err := s.accounts.IncrementBalance(ctx, req.ID, req.Amount); err != nil {
		return nil, accountErr(err, req.ID, ErrNotFound)
	}
	s.recorder.record(ctx, req.ID, models.EntryDeposit, req.Amount)
	s.audit.LogOperation(opDeposit, req.ID, req.Amount, nil)

	return s.getAccount(ctx, req.ID, ErrNotFound)
}

// Withdraw debits an account. The high-value check runs before the
// sufficiency check, so an oversized withdrawal blocks the account even
// when the balance could not cover it.
func (s *LedgerService) Withdraw(ctx context.Context, req WithdrawRequest) (*models.Account, error) {
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	acc, err := s.getAccount(ctx, req.ID, ErrNotFound)
	if err != nil {
		return nil, err
	}

	if isHighValue(req.Amount) {
		if err := s.block(ctx, req.ID); err != nil {
			return nil, err
		}
		s.recorder.record(ctx, req.ID, models.EntryWithdrawBlocked, req.Amount)
		s.audit.LogBlocked(opWithdraw, req.ID, req.Amount, "high value withdrawal")
		log.Printf("[LEDGER] Withdrawal of %s blocked, account %d blocked", req.Amount, req.ID)
		return nil, fmt.Errorf("%w: high-value withdrawal blocked, account has been blocked", ErrBlocked)
	}

	if acc.Balance.LessThan(req.Amount) {
		s.audit.LogRejected(opWithdraw, req.ID, req.Amount, ErrInsufficientFunds)
		return nil, ErrInsufficientFunds
	}

	if err := s.accounts.IncrementBalance(ctx, req.ID, req.Amount.Neg()); err != nil {
		return nil, accountErr(err, req.ID, ErrNotFound)
	}
	s.recorder.record(ctx, req.ID, models.EntryWithdraw, req.Amount)
	s.audit.LogOperation(opWithdraw, req.ID, req.Amount, nil)

	return s.getAccount(ctx, req.ID, ErrNotFound)
}

// Transfer moves money between two accounts. Checks run in a fixed order:
// high value, then receiver status, then sender balance. The two blocking
// paths block the sender only and write no log entries.
func (s *LedgerService) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, req.Sender, req.Receiver)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sender, err := s.getAccount(ctx, req.Sender, ErrInvalidParty)
	if err != nil {
		return nil, err
	}
	receiver, err := s.getAccount(ctx, req.Receiver, ErrInvalidParty)
	if err != nil {
		return nil, err
	}

	details := map[string]any{"receiver": receiver.ID}

	if isHighValue(req.Amount) {
		if err := s.block(ctx, sender.ID); err != nil {
			return nil, err
		}
		s.audit.LogBlocked(opTransfer, sender.ID, req.Amount, "high value transfer")
		log.Printf("[LEDGER] Transfer of %s from %d blocked, sender blocked", req.Amount, sender.ID)
		return nil, fmt.Errorf("%w: high value transfer detected, sender account blocked", ErrBlocked)
	}

	if receiver.Status != models.StatusActive {
		if err := s.block(ctx, sender.ID); err != nil {
			return nil, err
		}
		s.audit.LogBlocked(opTransfer, sender.ID, req.Amount, "receiver "+string(receiver.Status))
		log.Printf("[LEDGER] Transfer from %d to %s account %d, sender blocked", sender.ID, receiver.Status, receiver.ID)
		return nil, fmt.Errorf("%w: receiver inactive, sender account has been blocked", ErrBlocked)
	}

	if sender.Balance.LessThan(req.Amount) {
		s.audit.LogRejected(opTransfer, sender.ID, req.Amount, ErrInsufficientFunds)
		return nil, ErrInsufficientFunds
	}

	if err := s.accounts.MoveBalance(ctx, sender.ID, receiver.ID, req.Amount); err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientBalance):
			return nil, ErrInsufficientFunds
		case errors.Is(err, store.ErrAccountNotFound):
			return nil, ErrInvalidParty
		}
		return nil, err
	}
	s.recorder.record(ctx, sender.ID, models.EntryTransferSent, req.Amount)
	s.recorder.record(ctx, receiver.ID, models.EntryTransferReceived, req.Amount)
	s.audit.LogOperation(opTransfer, sender.ID, req.Amount, details)

	sender, err = s.getAccount(ctx, req.Sender, ErrInvalidParty)
	if err != nil {
		return nil, err
	}
	receiver, err = s.getAccount(ctx, req.Receiver, ErrInvalidParty)
	if err != nil {
		return nil, err
	}

	return &TransferResult{
		Message:  "Transfer successful",
		Sender:   *sender,
		Receiver: *receiver,
	}, nil
}

// ManualBlock blocks an account. Blocking a blocked account is a no-op.
func (s *LedgerService) ManualBlock(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, models.StatusBlocked, opBlock)
}

// Close marks an account closed. The balance is not checked, and closed
// accounts are not guarded against later operations.
func (s *LedgerService) Close(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, models.StatusClosed, opClose)
}

func (s *LedgerService) setStatus(ctx context.Context, id int64, status models.AccountStatus, op string) error {
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.getAccount(ctx, id, ErrNotFound); err != nil {
		return err
	}
	if err := s.accounts.SetStatus(ctx, id, status); err != nil {
		return accountErr(err, id, ErrNotFound)
	}
	s.audit.LogOperation(op, id, decimal.Zero, map[string]any{"status": status})
	return nil
}
