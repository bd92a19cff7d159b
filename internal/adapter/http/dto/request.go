package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/usecase"
)

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		ID:             r.ID,
		Name:           r.Name,
		InitialBalance: r.InitialBalance,
	}
}

// DepositRequest represents a request to credit an account.
type DepositRequest struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// TransferRequest represents a request to move funds between accounts.
type TransferRequest struct {
	SourceAccountID string          `json:"source_account_id"`
	TargetAccountID string          `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
}
