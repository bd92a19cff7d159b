package domain

import "time"

// Credit score bounds.
const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// CreditAssessment is the result of a credit check for an account.
type CreditAssessment struct {
	AccountID  string
	Score      int
	Approved   bool
	AssessedAt time.Time
}
