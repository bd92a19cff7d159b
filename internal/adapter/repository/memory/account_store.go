// Package memory provides an in-process AccountStore.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iho/moneytransfer/internal/domain"
	"github.com/iho/moneytransfer/internal/usecase"
)

type slot struct {
	mu      sync.Mutex
	account domain.Account
}

// AccountStore implements usecase.AccountStore in memory.
// Each account has its own lock; multi-account operations take the locks in
// ascending ID order.
type AccountStore struct {
	mu    sync.RWMutex
	slots map[string]*slot
	clock func() time.Time
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		slots: make(map[string]*slot),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a new account.
func (s *AccountStore) Create(_ context.Context, account *domain.Account) error {
	if account.Balance.IsNegative() {
		return fmt.Errorf("%w: initial balance %s is negative", domain.ErrInvalidAmount, account.Balance)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[account.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountExists, account.ID)
	}

	s.slots[account.ID] = &slot{account: *account}
	return nil
}

// Get returns a copy of the account.
func (s *AccountStore) Get(_ context.Context, id string) (*domain.Account, error) {
	sl, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	account := sl.account
	return &account, nil
}

// CompareAndSwap applies all updates if every expected version still matches.
func (s *AccountStore) CompareAndSwap(_ context.Context, updates []usecase.BalanceUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ordered := make([]usecase.BalanceUpdate, len(updates))
	copy(ordered, updates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].AccountID < ordered[j].AccountID })

	locked := make([]*slot, 0, len(ordered))
	defer func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].mu.Unlock()
		}
	}()

	for i, u := range ordered {
		if i > 0 && ordered[i-1].AccountID == u.AccountID {
			return fmt.Errorf("duplicate account %s in balance update", u.AccountID)
		}
		if u.NewBalance.IsNegative() {
			return fmt.Errorf("%w: account %s would become %s", domain.ErrInsufficientFunds, u.AccountID, u.NewBalance)
		}

		sl, err := s.lookup(u.AccountID)
		if err != nil {
			return err
		}

		sl.mu.Lock()
		locked = append(locked, sl)

		if sl.account.Version != u.ExpectedVersion {
			return fmt.Errorf("%w: account %s at version %d, expected %d",
				domain.ErrConcurrencyConflict, u.AccountID, sl.account.Version, u.ExpectedVersion)
		}
	}

	now := s.clock()
	for i, u := range ordered {
		acc := &locked[i].account
		acc.Balance = u.NewBalance
		acc.Version++
		acc.UpdatedAt = now
	}

	return nil
}

// List returns every account ordered by ID, read under all account locks.
func (s *AccountStore) List(_ context.Context) ([]*domain.Account, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.slots))
	slots := make(map[string]*slot, len(s.slots))
	for id, sl := range s.slots {
		ids = append(ids, id)
		slots[id] = sl
	}
	s.mu.RUnlock()

	sort.Strings(ids)

	for _, id := range ids {
		slots[id].mu.Lock()
	}

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		account := slots[id].account
		accounts = append(accounts, &account)
	}

	for i := len(ids) - 1; i >= 0; i-- {
		slots[ids[i]].mu.Unlock()
	}

	return accounts, nil
}

func (s *AccountStore) lookup(id string) (*slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.slots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	return sl, nil
}
