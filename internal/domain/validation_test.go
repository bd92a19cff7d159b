package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAccountName(t *testing.T) {
	t.Parallel()

	t.Run("valid name", func(t *testing.T) {
		if err := ValidateAccountName("Gringotts Vault 713"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		err := ValidateAccountName("   ")
		if !errors.Is(err, ErrInvalidAccountName) {
			t.Fatalf("expected ErrInvalidAccountName, got %v", err)
		}
	})

	t.Run("name too long", func(t *testing.T) {
		tooLong := strings.Repeat("a", MaxAccountNameLength+1)
		err := ValidateAccountName(tooLong)
		if !errors.Is(err, ErrInvalidAccountName) {
			t.Fatalf("expected ErrInvalidAccountName, got %v", err)
		}
	})
}

func TestValidateAccountID(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"alice", "acc-1", "01HZX3T0R4Q9", "vault_713"} {
		if err := ValidateAccountID(id); err != nil {
			t.Errorf("expected %q to be valid, got %v", id, err)
		}
	}

	for _, id := range []string{"", "has space", "semi;colon", strings.Repeat("x", MaxAccountIDLength+1)} {
		if err := ValidateAccountID(id); !errors.Is(err, ErrInvalidIDFormat) {
			t.Errorf("expected ErrInvalidIDFormat for %q, got %v", id, err)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	if err := ValidateAmount(decimal.RequireFromString("100.25")); err != nil {
		t.Fatalf("expected valid amount, got %v", err)
	}

	if err := ValidateAmount(decimal.RequireFromString("0.001")); err != nil {
		t.Fatalf("expected tiny positive amount to be valid, got %v", err)
	}

	if err := ValidateAmount(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}

	if err := ValidateAmount(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}
}

func TestValidateInitialBalance(t *testing.T) {
	t.Parallel()

	if err := ValidateInitialBalance(decimal.Zero); err != nil {
		t.Fatalf("expected zero to be valid, got %v", err)
	}

	if err := ValidateInitialBalance(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
