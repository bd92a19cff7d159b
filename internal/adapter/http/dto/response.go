package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/domain"
	"github.com/iho/moneytransfer/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Balance:   a.Balance,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// TransferResponse represents a committed transfer.
type TransferResponse struct {
	ID              string          `json:"id"`
	SourceAccountID string          `json:"source_account_id"`
	TargetAccountID string          `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransferredAt   time.Time       `json:"transferred_at"`
	Status          string          `json:"status"`
}

// TransferFromDomain converts a transfer record to response.
func TransferFromDomain(t *domain.TransferRecord) *TransferResponse {
	return &TransferResponse{
		ID:              t.ID,
		SourceAccountID: t.SourceAccountID,
		TargetAccountID: t.TargetAccountID,
		Amount:          t.Amount,
		TransferredAt:   t.TransferredAt,
		Status:          string(t.Status),
	}
}

// DepositResponse acknowledges a committed deposit.
type DepositResponse struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
}

// CreditResponse represents a credit assessment.
type CreditResponse struct {
	AccountID  string    `json:"account_id"`
	Score      int       `json:"score"`
	Approved   bool      `json:"approved"`
	AssessedAt time.Time `json:"assessed_at"`
}

// CreditFromDomain converts a credit assessment to response.
func CreditFromDomain(c *domain.CreditAssessment) *CreditResponse {
	return &CreditResponse{
		AccountID:  c.AccountID,
		Score:      c.Score,
		Approved:   c.Approved,
		AssessedAt: c.AssessedAt,
	}
}

// LedgerTotalResponse reports the sum of all balances.
type LedgerTotalResponse struct {
	Accounts int             `json:"accounts"`
	Total    decimal.Decimal `json:"total"`
}

// LedgerTotalFromUseCase converts a ledger total to response.
func LedgerTotalFromUseCase(t *usecase.LedgerTotal) *LedgerTotalResponse {
	return &LedgerTotalResponse{Accounts: t.Accounts, Total: t.Total}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
