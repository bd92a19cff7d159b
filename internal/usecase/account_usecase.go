package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	store AccountStore
	idGen IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(store AccountStore, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		store: store,
		idGen: idGen,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	ID             string
	Name           string
	InitialBalance decimal.Decimal
}

// OpenAccount adds an account to the vault with its starting balance.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uc.idGen.Generate()
	}
	if err := domain.ValidateAccountID(id); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = id
	}
	if err := domain.ValidateAccountName(name); err != nil {
		return nil, err
	}

	if err := domain.ValidateInitialBalance(input.InitialBalance); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        id,
		Name:      name,
		Balance:   input.InitialBalance,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.store.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.store.Get(ctx, id)
}

// ListAccounts lists every account ordered by ID.
func (uc *AccountUseCase) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	return uc.store.List(ctx)
}

// LedgerTotal is the sum of all balances taken from one consistent snapshot.
type LedgerTotal struct {
	Accounts int
	Total    decimal.Decimal
}

// LedgerTotal sums every balance. Transfers never change the result.
func (uc *AccountUseCase) LedgerTotal(ctx context.Context) (*LedgerTotal, error) {
	accounts, err := uc.store.List(ctx)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, account := range accounts {
		total = total.Add(account.Balance)
	}

	return &LedgerTotal{
		Accounts: len(accounts),
		Total:    total,
	}, nil
}
