package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Movement errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrSameAccountTransfer = errors.New("cannot transfer to same account")

	// ErrConcurrencyConflict means the account changed between read and commit.
	// It is retried by the ledger and never reaches callers on its own.
	ErrConcurrencyConflict = errors.New("concurrent modification of account")
	// ErrLedgerContention is returned when conflict retries are exhausted.
	ErrLedgerContention = errors.New("ledger operation aborted after repeated conflicts")

	// Publishing errors
	ErrTransportUnavailable = errors.New("event transport unavailable")
	ErrPublishTimeout       = errors.New("event publish timed out")
)
