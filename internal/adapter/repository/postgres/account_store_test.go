package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/domain"
	"github.com/iho/moneytransfer/internal/usecase"
)

var accountColumns = []string{"id", "name", "balance", "version", "created_at", "updated_at"}

func TestAccountStoreGet(t *testing.T) {
	mockPool := newMockPool(t)
	store := newAccountStoreWithPool(mockPool)
	now := time.Now().UTC()

	mockPool.ExpectQuery("SELECT id, name, balance::text").
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow("a", "Alice", "100.50", int64(3), now, now))

	account, err := store.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("100.50")) || account.Version != 3 || account.Name != "Alice" {
		t.Fatalf("unexpected account %+v", account)
	}

	assertExpectations(t, mockPool)
}

func TestAccountStoreGetNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	store := newAccountStoreWithPool(mockPool)

	mockPool.ExpectQuery("SELECT id, name, balance::text").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Get(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountStoreCreateDuplicate(t *testing.T) {
	mockPool := newMockPool(t)
	store := newAccountStoreWithPool(mockPool)

	mockPool.ExpectExec("INSERT INTO accounts").
		WithArgs("a", "Alice", pgxmock.AnyArg(), int64(0), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	err := store.Create(context.Background(), &domain.Account{ID: "a", Name: "Alice", Balance: decimal.NewFromInt(10)})
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountStoreCompareAndSwapOrdersRows(t *testing.T) {
	mockPool := newMockPool(t)
	store := newAccountStoreWithPool(mockPool)

	mockPool.ExpectBegin()
	mockPool.ExpectExec("UPDATE accounts SET balance").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "a", int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec("UPDATE accounts SET balance").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "b", int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	err := store.CompareAndSwap(context.Background(), []usecase.BalanceUpdate{
		{AccountID: "b", ExpectedVersion: 2, NewBalance: decimal.NewFromInt(30)},
		{AccountID: "a", ExpectedVersion: 4, NewBalance: decimal.NewFromInt(70)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountStoreCompareAndSwapConflict(t *testing.T) {
	mockPool := newMockPool(t)
	store := newAccountStoreWithPool(mockPool)

	mockPool.ExpectBegin()
	mockPool.ExpectExec("UPDATE accounts SET balance").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "a", int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec("UPDATE accounts SET balance").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "b", int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectRollback()

	err := store.CompareAndSwap(context.Background(), []usecase.BalanceUpdate{
		{AccountID: "a", ExpectedVersion: 4, NewBalance: decimal.NewFromInt(70)},
		{AccountID: "b", ExpectedVersion: 2, NewBalance: decimal.NewFromInt(30)},
	})
	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountStoreList(t *testing.T) {
	mockPool := newMockPool(t)
	store := newAccountStoreWithPool(mockPool)
	now := time.Now().UTC()

	mockPool.ExpectQuery("ORDER BY id").
		WillReturnRows(pgxmock.NewRows(accountColumns).
			AddRow("a", "Alice", "1", int64(0), now, now).
			AddRow("b", "Bob", "2.5", int64(1), now, now))

	accounts, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 || accounts[1].ID != "b" || !accounts[1].Balance.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected accounts %+v", accounts)
	}

	assertExpectations(t, mockPool)
}

func TestMapPgError(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{pgErrDeadlock, domain.ErrConcurrencyConflict},
		{pgErrSerializationFailure, domain.ErrConcurrencyConflict},
		{pgErrUniqueViolation, domain.ErrAccountExists},
		{pgErrCheckViolation, domain.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		if err := mapPgError(&pgconn.PgError{Code: tt.code}, "a"); !errors.Is(err, tt.want) {
			t.Errorf("code %s: expected %v, got %v", tt.code, tt.want, err)
		}
	}

	other := errors.New("other")
	if err := mapPgError(other, "a"); !errors.Is(err, other) {
		t.Errorf("expected passthrough, got %v", err)
	}
}
