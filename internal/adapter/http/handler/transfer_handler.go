package handler

import (
	"net/http"

	"github.com/iho/moneytransfer/internal/adapter/http/dto"
	"github.com/iho/moneytransfer/internal/usecase"
)

// TransferHandler handles deposit and transfer requests.
type TransferHandler struct {
	service usecase.MoneyTransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(service usecase.MoneyTransferService) *TransferHandler {
	return &TransferHandler{service: service}
}

// Deposit credits an account.
func (h *TransferHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.service.DepositFunds(r.Context(), req.AccountID, req.Amount); err != nil {
		writeError(w, mapDomainError(err), "failed to deposit funds", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DepositResponse{
		AccountID: req.AccountID,
		Amount:    req.Amount,
		Status:    "completed",
	})
}

// Transfer moves funds between two accounts.
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	record, err := h.service.TransferFunds(r.Context(), req.SourceAccountID, req.TargetAccountID, req.Amount)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to transfer funds", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(record))
}
