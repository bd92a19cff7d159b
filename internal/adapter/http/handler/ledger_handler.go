package handler

import (
	"context"
	"net/http"

	"github.com/iho/moneytransfer/internal/adapter/http/dto"
	"github.com/iho/moneytransfer/internal/usecase"
)

// LedgerTotaler sums all balances.
type LedgerTotaler interface {
	LedgerTotal(ctx context.Context) (*usecase.LedgerTotal, error)
}

// LedgerHandler reports ledger-wide figures.
type LedgerHandler struct {
	ledger LedgerTotaler
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger LedgerTotaler) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Total returns the sum of all balances.
func (h *LedgerHandler) Total(w http.ResponseWriter, r *http.Request) {
	total, err := h.ledger.LedgerTotal(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute ledger total", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerTotalFromUseCase(total))
}
