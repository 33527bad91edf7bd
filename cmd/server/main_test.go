package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/iho/tradingaccounts/internal/adapter/http"
	"github.com/iho/tradingaccounts/internal/adapter/http/dto"
	"github.com/iho/tradingaccounts/internal/adapter/messaging"
	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/infrastructure/config"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("LEDGER_BACKEND", "memory")
	t.Setenv("BUS_BACKEND", "memory")
	t.Setenv("HISTORY_SINKS", "memory,audit")

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNewAppMemoryBackends(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	a, err := newApp(ctx, memoryConfig(t), zerolog.Nop(), reg)
	require.NoError(t, err)
	defer a.close()

	require.NoError(t, a.accounts.Create(ctx, &domain.Account{
		ID:          "acc-1",
		ClientID:    "client-1",
		BaseAssetID: "USD",
		Balance:     decimal.NewFromInt(100),
	}))

	require.NoError(t, a.bus.SendCommand(ctx, domain.DepositCommand{
		OperationID:   "op-1",
		AccountAmount: domain.NewAccountAmount("client-1", "acc-1", decimal.NewFromInt(50)),
	}, domain.BoundedContext))

	memBus, ok := a.bus.(*messaging.MemoryBus)
	require.True(t, ok, "expected memory bus")
	require.NoError(t, memBus.Drain(ctx))

	router := httpAdapter.NewRouter(a.routerConfig(reg))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/acc-1", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var account dto.AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	assert.Equal(t, "150", account.Balance)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/operations/Deposit/op-1", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var op dto.OperationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &op))
	assert.Equal(t, string(domain.OperationCompleted), op.State)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewAppRejectsUnknownBackends(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{name: "storage", mutate: func(cfg *config.Config) { cfg.StorageBackend = "cassandra" }},
		{name: "ledger", mutate: func(cfg *config.Config) { cfg.LedgerBackend = "etcd" }},
		{name: "history sink", mutate: func(cfg *config.Config) { cfg.HistorySinks = []string{"s3"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memoryConfig(t)
			tt.mutate(cfg)

			_, err := newApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
			assert.Error(t, err)
		})
	}
}

func TestNewAppPostgresSinkNeedsPool(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.HistorySinks = []string{"postgres"}

	_, err := newApp(context.Background(), cfg, zerolog.Nop(), prometheus.NewRegistry())
	assert.Error(t, err)
}
