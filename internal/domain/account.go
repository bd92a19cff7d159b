package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a named balance held in the vault.
// Balance is never negative at rest and Version increases by one on every committed mutation.
type Account struct {
	ID        string
	Name      string
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return fmt.Errorf("%w: account %s has %s, requested %s", ErrInsufficientFunds, a.ID, a.Balance, amount)
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
