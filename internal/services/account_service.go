package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/shopspring/decimal"
)

type CreateAccountRequest struct {
	Name    string          `json:"name" validate:"required,max=200"`
	Balance decimal.Decimal `json:"balance" validate:"gte=0,cents" swaggertype:"number"`
	Phone   string          `json:"phone,omitempty" validate:"max=32"`
	Email   string          `json:"email,omitempty" validate:"max=254"`
	Address string          `json:"address,omitempty" validate:"max=500"`
}

// AccountService covers account lifecycle outside money movement
type AccountService struct {
	accounts  store.AccountStore
	locks     Locker
	audit     *audit.AuditLogger
	validator *ValidationHelper
}

// NewAccountService builds the service. A nil auditLogger writes to the
// standard logger.
func NewAccountService(accounts store.AccountStore, locks Locker, auditLogger *audit.AuditLogger) *AccountService {
	if auditLogger == nil {
		auditLogger = audit.NewAuditLogger()
	}
	return &AccountService{
		accounts:  accounts,
		locks:     locks,
		audit:     auditLogger,
		validator: NewValidationHelper(),
	}
}

// Open creates an active account with the next free id
func (s *AccountService) Open(ctx context.Context, req CreateAccountRequest) (*models.Account, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	acc, err := s.accounts.Create(ctx, models.NewAccount{
		Name:    req.Name,
		Balance: req.Balance,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open account: %w", err)
	}

	log.Printf("[ACCOUNTS] Opened account %d for %q", acc.ID, acc.Name)
	return acc, nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (*models.Account, error) {
	acc, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, accountErr(err, id, ErrNotFound)
	}
	return acc, nil
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	return s.accounts.List(ctx)
}

// Update is the administrative override. It can rewrite balance and status
// directly and bypasses every ledger rule, so it must only be reachable by
// admin callers.
func (s *AccountService) Update(ctx context.Context, id int64, patch models.AccountPatch) (*models.Account, error) {
	if err := s.validator.Validate(&patch); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{
			"Status": fmt.Sprintf("unknown account status %q", *patch.Status),
		}}
	}

	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	acc, err := s.accounts.ApplyFieldUpdate(ctx, id, patch)
	if err != nil {
		return nil, accountErr(err, id, ErrNotFound)
	}

	actor := audit.ActorFrom(ctx)
	s.audit.LogAdminUpdate(id, actor, patch.Fields(), patch.Balance)
	log.Printf("[ACCOUNTS] Administrative update applied to account %d by %q", id, actor)
	return acc, nil
}

// UpdateInfo changes name, phone, email and address only
func (s *AccountService) UpdateInfo(ctx context.Context, id int64, patch models.ProfilePatch) (*models.Account, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := s.validator.Validate(&patch); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	acc, err := s.accounts.ApplyRestrictedFieldUpdate(ctx, id, patch)
	if err != nil {
		return nil, accountErr(err, id, ErrNotFound)
	}
	return acc, nil
}

// Delete hard-deletes an account. Its transaction entries are kept.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	deleted, err := s.accounts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	log.Printf("[ACCOUNTS] Deleted account %d", id)
	return nil
}
