package usecase_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/tradingaccounts/internal/adapter/repository/memory"
	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/infrastructure/metrics"
	"github.com/iho/tradingaccounts/internal/usecase"
	"github.com/iho/tradingaccounts/internal/usecase/mocks"
)

type harness struct {
	accounts *mocks.MockAccountRepository
	changes  *mocks.MockBalanceChangeRepository
	ops      *mocks.MockOperationStore
	bus      *mocks.RecordingBus
	ledger   *usecase.OperationLedger
	balance  *usecase.BalanceUseCase
}

func newHarness(t *testing.T, accounts ...*domain.Account) *harness {
	t.Helper()

	logger := zerolog.Nop()
	m := metrics.New(prometheus.NewRegistry())

	h := &harness{
		accounts: mocks.NewMockAccountRepository(accounts...),
		changes:  mocks.NewMockBalanceChangeRepository(),
		ops:      mocks.NewMockOperationStore(),
		bus:      mocks.NewRecordingBus(),
	}
	h.ledger = usecase.NewOperationLedger(h.ops, logger, m)
	h.balance = usecase.NewBalanceUseCase(
		mocks.NewMockTransactionManager(),
		h.accounts,
		h.changes,
		h.bus,
		nil,
		nil,
		mocks.NewMockIDGenerator(),
		logger,
		m,
	)

	return h
}

func (h *harness) account(t *testing.T, id string) *domain.Account {
	t.Helper()
	acc, err := h.accounts.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get account %s: %v", id, err)
	}
	return acc
}

func (h *harness) state(t *testing.T, name, id string) domain.OperationState {
	t.Helper()
	info, err := h.ops.Get(context.Background(), name, id)
	if err != nil {
		t.Fatalf("get ledger entry %s:%s: %v", name, id, err)
	}
	return info.State
}

func testAccount(id string, balance, limit int64) *domain.Account {
	return &domain.Account{
		ID:                    id,
		ClientID:              "client-" + id,
		BaseAssetID:           "USD",
		LegalEntity:           "LE",
		Balance:               decimal.NewFromInt(balance),
		WithdrawTransferLimit: decimal.NewFromInt(limit),
	}
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// memoryHarness wires the use cases over the in-process stores, which lock accounts the
// same way the postgres adapter does.
type memoryHarness struct {
	accounts *memory.AccountRepository
	changes  *memory.BalanceChangeRepository
	history  *memory.HistorySink
	bus      *mocks.RecordingBus
	ledger   *usecase.OperationLedger
	balance  *usecase.BalanceUseCase
}

func newMemoryHarness(t *testing.T, accounts ...*domain.Account) *memoryHarness {
	t.Helper()

	logger := zerolog.Nop()
	m := metrics.New(prometheus.NewRegistry())
	store := memory.NewStore()

	h := &memoryHarness{
		accounts: memory.NewAccountRepository(store),
		changes:  memory.NewBalanceChangeRepository(store),
		history:  memory.NewHistorySink("memory"),
		bus:      mocks.NewRecordingBus(),
	}
	for _, acc := range accounts {
		if err := h.accounts.Create(context.Background(), acc); err != nil {
			t.Fatalf("seed account %s: %v", acc.ID, err)
		}
	}

	h.ledger = usecase.NewOperationLedger(memory.NewOperationStore(), logger, m)
	h.balance = usecase.NewBalanceUseCase(
		memory.NewTxManager(store),
		h.accounts,
		h.changes,
		h.bus,
		usecase.NewHistoryAggregator(logger, m, h.history),
		nil,
		mocks.NewMockIDGenerator(),
		logger,
		m,
	)

	return h
}
