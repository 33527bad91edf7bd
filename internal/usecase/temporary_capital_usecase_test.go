package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/usecase"
)

func newTemporaryCapital(h *harness) *usecase.TemporaryCapitalUseCase {
	return usecase.NewTemporaryCapitalUseCase(h.ledger, h.balance, h.accounts, h.bus, zerolog.Nop())
}

func grantCommand(opID, source string, amount int64) domain.StartGiveTemporaryCapitalCommand {
	return domain.StartGiveTemporaryCapitalCommand{
		OperationID:   opID,
		EventSourceID: source,
		AccountID:     "acc-1",
		Amount:        dec(amount),
		Reason:        "promo",
	}
}

func revokeCommand(opID, source string) domain.StartRevokeTemporaryCapitalCommand {
	return domain.StartRevokeTemporaryCapitalCommand{
		OperationID:         opID,
		EventSourceID:       "revoke-" + opID,
		AccountID:           "acc-1",
		RevokeEventSourceID: source,
	}
}

func TestTemporaryCapital_GrantAndRevokeSymmetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAccount("acc-1", 100, 0))
	uc := newTemporaryCapital(h)

	if err := uc.StartGive(ctx, grantCommand("g-1", "promo-A", 30)); err != nil {
		t.Fatalf("grant: %v", err)
	}
	granted, ok := h.bus.LastEvent().(domain.TemporaryCapitalGrantedInternalEvent)
	if !ok || granted.EntryID != "g-1" {
		t.Fatalf("expected granted event, got %v", h.bus.EventTypes())
	}
	if err := uc.FinishGive(ctx, domain.FinishGiveTemporaryCapitalCommand{OperationID: "g-1", IsSuccess: true}); err != nil {
		t.Fatalf("finish grant: %v", err)
	}
	changed, ok := h.bus.LastEvent().(domain.TemporaryCapitalChangedEvent)
	if !ok || !changed.IsSuccess || changed.AccountID != "acc-1" {
		t.Fatalf("expected successful changed event, got %+v", h.bus.LastEvent())
	}

	if got := h.account(t, "acc-1").Balance; !got.Equal(dec(130)) {
		t.Fatalf("expected 130 after grant, got %s", got)
	}

	if err := uc.StartRevoke(ctx, revokeCommand("r-1", "promo-A")); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	started, ok := h.bus.LastEvent().(domain.RevokeTemporaryCapitalStartedEvent)
	if !ok || len(started.RevokedTemporaryCapital) != 1 || started.RevokedTemporaryCapital[0].ID != "g-1" {
		t.Fatalf("expected one revoked entry, got %+v", h.bus.LastEvent())
	}
	if err := uc.FinishRevoke(ctx, domain.FinishRevokeTemporaryCapitalCommand{OperationID: "r-1", IsSuccess: true}); err != nil {
		t.Fatalf("finish revoke: %v", err)
	}

	acc := h.account(t, "acc-1")
	if !acc.Balance.Equal(dec(100)) {
		t.Errorf("grant then revoke must restore balance, got %s", acc.Balance)
	}
	if !acc.TotalTemporaryCapital().IsZero() {
		t.Errorf("expected no outstanding temporary capital, got %s", acc.TotalTemporaryCapital())
	}
	if state := h.state(t, domain.OperationRevokeTemporaryCapital, "r-1"); state != domain.OperationCompleted {
		t.Errorf("expected Completed, got %s", state)
	}
}

func TestTemporaryCapital_RevokeTwiceIsNoOp(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAccount("acc-1", 100, 0))
	uc := newTemporaryCapital(h)

	if err := uc.StartGive(ctx, grantCommand("g-1", "promo-A", 30)); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := uc.StartRevoke(ctx, revokeCommand("r-1", "promo-A")); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := uc.StartRevoke(ctx, revokeCommand("r-2", "promo-A")); err != nil {
		t.Fatalf("second revoke: %v", err)
	}

	started, ok := h.bus.LastEvent().(domain.RevokeTemporaryCapitalStartedEvent)
	if !ok {
		t.Fatalf("expected revoke started event, got %v", h.bus.EventTypes())
	}
	if len(started.RevokedTemporaryCapital) != 0 {
		t.Errorf("second revoke must not revoke again, got %+v", started.RevokedTemporaryCapital)
	}
	if got := h.account(t, "acc-1").Balance; !got.Equal(dec(100)) {
		t.Errorf("expected 100, got %s", got)
	}
}

func TestTemporaryCapital_RedeliveredRevokeReportsSameEntries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAccount("acc-1", 100, 0))
	uc := newTemporaryCapital(h)

	if err := uc.StartGive(ctx, grantCommand("g-1", "promo-A", 30)); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := uc.StartGive(ctx, grantCommand("g-2", "promo-A", 5)); err != nil {
		t.Fatalf("grant: %v", err)
	}

	cmd := revokeCommand("r-1", "promo-A")
	if err := uc.StartRevoke(ctx, cmd); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := uc.StartRevoke(ctx, cmd); err != nil {
		t.Fatalf("redelivered revoke: %v", err)
	}

	started, ok := h.bus.LastEvent().(domain.RevokeTemporaryCapitalStartedEvent)
	if !ok || len(started.RevokedTemporaryCapital) != 2 {
		t.Fatalf("expected both entries reported on redelivery, got %+v", h.bus.LastEvent())
	}
	if got := h.account(t, "acc-1").Balance; !got.Equal(dec(100)) {
		t.Errorf("expected 100, got %s", got)
	}
}

func TestTemporaryCapital_RevokeUnknownSourceFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAccount("acc-1", 100, 0))
	uc := newTemporaryCapital(h)

	if err := uc.StartRevoke(ctx, revokeCommand("r-1", "nothing")); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	failed, ok := h.bus.LastEvent().(domain.RevokeTemporaryCapitalFailedInternalEvent)
	if !ok || failed.Reason != domain.ErrTemporaryCapitalNotFound.Error() {
		t.Fatalf("expected revoke failed event, got %+v", h.bus.LastEvent())
	}

	if err := uc.FinishRevoke(ctx, domain.FinishRevokeTemporaryCapitalCommand{OperationID: "r-1", FailReason: failed.Reason}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if state := h.state(t, domain.OperationRevokeTemporaryCapital, "r-1"); state != domain.OperationFailed {
		t.Errorf("expected Failed, got %s", state)
	}
}

func TestTemporaryCapital_GrantRejectedLeavesNoEntry(t *testing.T) {
	ctx := context.Background()
	acc := testAccount("acc-1", 100, 0)
	acc.IsDisabled = true
	h := newHarness(t, acc)
	uc := newTemporaryCapital(h)

	if err := uc.StartGive(ctx, grantCommand("g-1", "promo-A", 30)); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, ok := h.bus.LastEvent().(domain.TemporaryCapitalGrantFailedInternalEvent); !ok {
		t.Fatalf("expected grant failed event, got %v", h.bus.EventTypes())
	}
	if n := len(h.account(t, "acc-1").TemporaryCapital); n != 0 {
		t.Errorf("expected no temporary capital entry, got %d", n)
	}
}

func TestTemporaryCapital_GrantRedeliveryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testAccount("acc-1", 100, 0))
	uc := newTemporaryCapital(h)

	cmd := grantCommand("g-1", "promo-A", 30)
	for i := 0; i < 2; i++ {
		if err := uc.StartGive(ctx, cmd); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}
	if got := h.account(t, "acc-1").Balance; !got.Equal(dec(130)) {
		t.Errorf("expected 130, got %s", got)
	}

	if err := uc.FinishGive(ctx, domain.FinishGiveTemporaryCapitalCommand{OperationID: "g-1", IsSuccess: true}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := uc.StartGive(ctx, cmd); err != nil {
		t.Fatalf("delivery after finish: %v", err)
	}
	if changed, ok := h.bus.LastEvent().(domain.TemporaryCapitalChangedEvent); !ok || !changed.IsSuccess {
		t.Errorf("expected terminal event re-published, got %+v", h.bus.LastEvent())
	}
}
