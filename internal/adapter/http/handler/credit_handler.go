package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/moneytransfer/internal/adapter/http/dto"
	"github.com/iho/moneytransfer/internal/usecase"
)

// CreditHandler serves credit checks.
type CreditHandler struct {
	credit usecase.CreditProvider
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(credit usecase.CreditProvider) *CreditHandler {
	return &CreditHandler{credit: credit}
}

// Check assesses an account.
func (h *CreditHandler) Check(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	assessment, err := h.credit.CheckCredit(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to check credit", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CreditFromDomain(assessment))
}
