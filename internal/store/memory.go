package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryAccountStore keeps accounts in a map. It is safe for concurrent use.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[int64]*models.Account
	now      func() time.Time
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[int64]*models.Account),
		now:      time.Now,
	}
}

func (s *MemoryAccountStore) Create(ctx context.Context, in models.NewAccount) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	for id := range s.accounts {
		if id > maxID {
			maxID = id
		}
	}

	now := s.now().UTC()
	acc := &models.Account{
		ID:        maxID + 1,
		Name:      in.Name,
		Balance:   in.Balance,
		Status:    models.StatusActive,
		Phone:     in.Phone,
		Email:     in.Email,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[acc.ID] = acc

	cp := *acc
	return &cp, nil
}

func (s *MemoryAccountStore) Get(ctx context.Context, id int64) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (s *MemoryAccountStore) List(ctx context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryAccountStore) ApplyFieldUpdate(ctx context.Context, id int64, patch models.AccountPatch) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	updated := patch.Apply(*acc)
	updated.UpdatedAt = s.now().UTC()
	*acc = updated

	cp := *acc
	return &cp, nil
}

func (s *MemoryAccountStore) ApplyRestrictedFieldUpdate(ctx context.Context, id int64, patch models.ProfilePatch) (*models.Account, error) {
	return s.ApplyFieldUpdate(ctx, id, patch.AccountPatch())
}

func (s *MemoryAccountStore) IncrementBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	acc.Balance = acc.Balance.Add(delta)
	acc.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryAccountStore) MoveBalance(ctx context.Context, fromID, toID int64, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.accounts[fromID]
	if !ok {
		return ErrAccountNotFound
	}
	to, ok := s.accounts[toID]
	if !ok {
		return ErrAccountNotFound
	}
	if from.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}

	now := s.now().UTC()
	from.Balance = from.Balance.Sub(amount)
	from.UpdatedAt = now
	to.Balance = to.Balance.Add(amount)
	to.UpdatedAt = now
	return nil
}

func (s *MemoryAccountStore) SetStatus(ctx context.Context, id int64, status models.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	acc.Status = status
	acc.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryAccountStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return false, nil
	}
	delete(s.accounts, id)
	return true, nil
}

// MemoryTransactionLog keeps entries in insertion order
type MemoryTransactionLog struct {
	mu      sync.RWMutex
	entries []models.TransactionEntry
}

func NewMemoryTransactionLog() *MemoryTransactionLog {
	return &MemoryTransactionLog{}
}

func (l *MemoryTransactionLog) Append(ctx context.Context, entry models.TransactionEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.ID = int64(len(l.entries) + 1)
	l.entries = append(l.entries, entry)
	return nil
}

func (l *MemoryTransactionLog) ListByAccount(ctx context.Context, accountID int64) ([]models.TransactionEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []models.TransactionEntry{}
	for _, e := range l.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}
