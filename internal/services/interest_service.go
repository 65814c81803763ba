package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/shopspring/decimal"
)

// interestPlaces is the precision interest is rounded to
const interestPlaces = 2

var hundred = decimal.NewFromInt(100)

type InterestRequest struct {
	Rate decimal.Decimal `json:"rate" validate:"gte=0" swaggertype:"number" example:"1.0"`
}

type InterestSummary struct {
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Applied   int    `json:"applied"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// InterestService credits interest to every active account. Accounts are
// processed one at a time; a failure on one is logged and the batch moves on.
type InterestService struct {
	accounts  store.AccountStore
	locks     Locker
	audit     *audit.AuditLogger
	validator *ValidationHelper
	recorder  *entryRecorder
}

func NewInterestService(accounts store.AccountStore, txLog store.TransactionLog, locks Locker, events EventPublisher) *InterestService {
	if events == nil {
		events = NoopEventPublisher{}
	}
	auditLogger := audit.NewAuditLogger()
	return &InterestService{
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

// Interest returns balance * rate / 100 rounded to cents
func Interest(balance, rate decimal.Decimal) decimal.Decimal {
	return balance.Mul(rate).Div(hundred).RoundBank(interestPlaces)
}

func (s *InterestService) ApplyInterest(ctx context.Context, req InterestRequest) (*InterestSummary, error) {
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &InterestSummary{Message: "Monthly interest applied"}
	for _, acc := range accounts {
		if acc.Status != models.StatusActive {
			continue
		}
		summary.Processed++

		applied, err := s.applyOne(ctx, acc.ID, req.Rate)
		switch {
		case err != nil:
			summary.Failed++
			log.Printf("[INTEREST] Failed to apply interest to account %d: %v", acc.ID, err)
			s.audit.LogError(opInterest, acc.ID, err)
		case applied:
			summary.Applied++
		default:
			summary.Skipped++
		}
	}

	log.Printf("[INTEREST] Rate %s%%: processed=%d applied=%d skipped=%d failed=%d",
		req.Rate, summary.Processed, summary.Applied, summary.Skipped, summary.Failed)
	return summary, nil
}

// applyOne re-reads the account under its lock; it may have been blocked,
// closed or deleted since the batch listed it.
func (s *InterestService) applyOne(ctx context.Context, id int64, rate decimal.Decimal) (bool, error) {
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return false, err
	}
	defer unlock()

	acc, err := s.accounts.Get(ctx, id)
	if errors.Is(err, store.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if acc.Status != models.StatusActive {
		return false, nil
	}

	interest := Interest(acc.Balance, rate)
	if err := s.accounts.IncrementBalance(ctx, id, interest); err != nil {
		return false, err
	}
	s.recorder.record(ctx, id, models.EntryInterest, interest)
	s.audit.LogOperation(opInterest, id, interest, map[string]any{"rate": rate.String()})
	return true, nil
}
