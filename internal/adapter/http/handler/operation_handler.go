package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/tradingaccounts/internal/adapter/http/dto"
	"github.com/iho/tradingaccounts/internal/domain"
)

// OperationReader exposes the operation ledger for inspection.
type OperationReader interface {
	Get(ctx context.Context, operationName, operationID string) (*domain.OperationExecutionInfo, error)
	ListStale(ctx context.Context, age time.Duration, limit int) ([]*domain.OperationExecutionInfo, error)
}

// OperationHandler serves read-only views of the operation ledger.
type OperationHandler struct {
	ledger     OperationReader
	defaultAge time.Duration
}

// NewOperationHandler creates a new OperationHandler.
func NewOperationHandler(ledger OperationReader, defaultAge time.Duration) *OperationHandler {
	return &OperationHandler{
		ledger:     ledger,
		defaultAge: defaultAge,
	}
}

// Get handles GET /operations/{name}/{id}.
func (h *OperationHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "id")

	info, err := h.ledger.Get(r.Context(), name, id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get operation", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OperationFromDomain(info))
}

// ListStale handles GET /operations/stale?age=15m&limit=100.
func (h *OperationHandler) ListStale(w http.ResponseWriter, r *http.Request) {
	age := h.defaultAge
	if raw := r.URL.Query().Get("age"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid age", raw)
			return
		}
		age = parsed
	}
	limit := parseIntQuery(r, "limit", 100)

	infos, err := h.ledger.ListStale(r.Context(), age, limit)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list stale operations", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OperationsFromDomain(infos))
}
