package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/usecase"
)

func depositCommand(opID, accountID string, amount int64) domain.DepositCommand {
	return domain.DepositCommand{
		OperationID:   opID,
		AccountAmount: domain.NewAccountAmount("client-"+accountID, accountID, dec(amount)),
		Comment:       "wire",
	}
}

func TestDepositUseCase_HappyPath(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAccount("acc-1", 100, 0))
	uc := usecase.NewDepositUseCase(h.ledger, h.accounts, h.bus, zerolog.Nop())

	if err := uc.Start(ctx, depositCommand("op-1", "acc-1", 50)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, ok := h.bus.LastEvent().(domain.DepositStartedInternalEvent); !ok {
		t.Fatalf("expected DepositStartedInternalEvent, got %v", h.bus.EventTypes())
	}

	if err := uc.Freeze(ctx, domain.FreezeAmountForDepositCommand{OperationID: "op-1"}); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	frozen, ok := h.bus.LastEvent().(domain.AmountForDepositFrozenInternalEvent)
	if !ok {
		t.Fatalf("expected AmountForDepositFrozenInternalEvent, got %v", h.bus.EventTypes())
	}
	if !frozen.Amount.Equal(dec(50)) || frozen.AccountID != "acc-1" {
		t.Errorf("unexpected frozen event: %+v", frozen)
	}
	if state := h.state(t, domain.OperationDeposit, "op-1"); state != domain.OperationFrozen {
		t.Errorf("expected Frozen, got %s", state)
	}

	if err := uc.Complete(ctx, domain.CompleteDepositCommand{OperationID: "op-1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, ok := h.bus.LastEvent().(domain.DepositSucceededEvent); !ok {
		t.Fatalf("expected DepositSucceededEvent, got %v", h.bus.EventTypes())
	}
	if state := h.state(t, domain.OperationDeposit, "op-1"); state != domain.OperationCompleted {
		t.Errorf("expected Completed, got %s", state)
	}
}

func TestDepositUseCase_RedeliveredStartRepublishesState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAccount("acc-1", 100, 0))
	uc := usecase.NewDepositUseCase(h.ledger, h.accounts, h.bus, zerolog.Nop())

	cmd := depositCommand("op-1", "acc-1", 50)
	if err := uc.Start(ctx, cmd); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := uc.Freeze(ctx, domain.FreezeAmountForDepositCommand{OperationID: "op-1"}); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	if err := uc.Start(ctx, cmd); err != nil {
		t.Fatalf("redelivered start: %v", err)
	}
	if _, ok := h.bus.LastEvent().(domain.AmountForDepositFrozenInternalEvent); !ok {
		t.Errorf("expected frozen event to be re-published, got %v", h.bus.EventTypes())
	}

	if err := uc.Complete(ctx, domain.CompleteDepositCommand{OperationID: "op-1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := uc.Start(ctx, cmd); err != nil {
		t.Fatalf("start after completion: %v", err)
	}
	if _, ok := h.bus.LastEvent().(domain.DepositSucceededEvent); !ok {
		t.Errorf("expected terminal event to be re-published, got %v", h.bus.EventTypes())
	}

	// A late Fail must not move a completed deposit.
	if err := uc.Fail(ctx, domain.FailDepositCommand{OperationID: "op-1", Reason: "late"}); err != nil {
		t.Fatalf("late fail: %v", err)
	}
	if state := h.state(t, domain.OperationDeposit, "op-1"); state != domain.OperationCompleted {
		t.Errorf("expected Completed, got %s", state)
	}
}

func TestDepositUseCase_FreezeFailsForDisabledAccount(t *testing.T) {
	ctx := context.Background()
	acc := testAccount("acc-1", 100, 0)
	acc.IsDisabled = true
	h := newHarness(t, acc)
	uc := usecase.NewDepositUseCase(h.ledger, h.accounts, h.bus, zerolog.Nop())

	if err := uc.Start(ctx, depositCommand("op-1", "acc-1", 50)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := uc.Freeze(ctx, domain.FreezeAmountForDepositCommand{OperationID: "op-1"}); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	failed, ok := h.bus.LastEvent().(domain.AmountForDepositFreezeFailedInternalEvent)
	if !ok {
		t.Fatalf("expected freeze failed event, got %v", h.bus.EventTypes())
	}

	if err := uc.Fail(ctx, domain.FailDepositCommand{OperationID: "op-1", Reason: failed.Reason}); err != nil {
		t.Fatalf("fail: %v", err)
	}
	depositFailed, ok := h.bus.LastEvent().(domain.DepositFailedEvent)
	if !ok || depositFailed.Reason != domain.ErrAccountDisabled.Error() {
		t.Errorf("expected DepositFailedEvent with reason, got %+v", h.bus.LastEvent())
	}
	if state := h.state(t, domain.OperationDeposit, "op-1"); state != domain.OperationFailed {
		t.Errorf("expected Failed, got %s", state)
	}
}

func TestDepositUseCase_InvalidAmount(t *testing.T) {
	h := newHarness(t, testAccount("acc-1", 100, 0))
	uc := usecase.NewDepositUseCase(h.ledger, h.accounts, h.bus, zerolog.Nop())

	if err := uc.Start(context.Background(), depositCommand("op-1", "acc-1", 0)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, ok := h.bus.LastEvent().(domain.DepositFailedEvent); !ok {
		t.Errorf("expected DepositFailedEvent, got %v", h.bus.EventTypes())
	}
}

func TestDepositUseCase_UnknownOperationIsDropped(t *testing.T) {
	h := newHarness(t)
	uc := usecase.NewDepositUseCase(h.ledger, h.accounts, h.bus, zerolog.Nop())

	if err := uc.Complete(context.Background(), domain.CompleteDepositCommand{OperationID: "ghost"}); err != nil {
		t.Fatalf("expected drop, got %v", err)
	}
	if len(h.bus.Events) != 0 {
		t.Errorf("expected no events, got %v", h.bus.EventTypes())
	}
}
