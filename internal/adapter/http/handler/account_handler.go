package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/tradingaccounts/internal/adapter/http/dto"
	"github.com/iho/tradingaccounts/internal/domain"
)

// AccountReader exposes account state and balance history.
type AccountReader interface {
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	ListChanges(ctx context.Context, accountID string, limit, offset int) ([]*domain.BalanceChange, error)
}

// AccountHandler serves read-only account views.
type AccountHandler struct {
	accounts AccountReader
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts AccountReader) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Get handles GET /accounts/{id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// ListChanges handles GET /accounts/{id}/changes.
func (h *AccountHandler) ListChanges(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	changes, err := h.accounts.ListChanges(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list balance changes", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceChangesFromDomain(changes))
}
