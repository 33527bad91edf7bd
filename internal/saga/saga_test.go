package saga

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/usecase"
	"github.com/iho/tradingaccounts/internal/usecase/mocks"
)

var fixed = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func fixedClock() time.Time { return fixed }

func TestClosePositionSaga_Deterministic(t *testing.T) {
	event := domain.PositionClosedEvent{
		AccountRef:   domain.AccountRef{ClientID: "c1", AccountID: "acc-1"},
		PositionID:   "pos-42",
		BalanceDelta: decimal.RequireFromString("-12.5"),
		Timestamp:    fixed,
	}

	first, ok := ClosePositionSaga{}.OnPositionClosed(event)
	require.True(t, ok)
	second, _ := ClosePositionSaga{}.OnPositionClosed(event)

	cmd := first.(domain.UpdateBalanceCommand)
	assert.Equal(t, second, first)
	assert.Equal(t, "pos-42-update-balance", cmd.OperationID)
	assert.Equal(t, domain.ReasonRealizedPnL, cmd.ChangeReasonType)
	assert.Equal(t, "pos-42", cmd.EventSourceID)
	assert.Equal(t, usecase.SourceClosePosition, cmd.Source)
	assert.True(t, cmd.AmountDelta.Equal(event.BalanceDelta))
	assert.Empty(t, cmd.AssetPairID)
	assert.Equal(t, "acc-1", cmd.AccountID)
}

func TestClosePositionSaga_IgnoresEmptyPosition(t *testing.T) {
	_, ok := ClosePositionSaga{}.OnPositionClosed(domain.PositionClosedEvent{})
	assert.False(t, ok)
}

func TestDepositSaga(t *testing.T) {
	s := DepositSaga{}
	amount := domain.NewAccountAmount("c1", "acc-1", decimal.NewFromInt(50))

	cmd, ok := s.OnStarted(domain.DepositStartedInternalEvent{OperationID: "op-1", AccountAmount: amount})
	require.True(t, ok)
	assert.Equal(t, domain.FreezeAmountForDepositCommand{AccountAmount: amount, OperationID: "op-1"}, cmd)

	cmd, ok = s.OnFrozen(domain.AmountForDepositFrozenInternalEvent{OperationID: "op-1", AccountAmount: amount, Comment: "wire"})
	require.True(t, ok)
	update := cmd.(domain.UpdateBalanceCommand)
	assert.True(t, update.AmountDelta.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, domain.ReasonDeposit, update.ChangeReasonType)
	assert.Equal(t, "op-1", update.OperationID)

	cmd, ok = s.OnBalanceChanged(domain.AccountBalanceChangedEvent{OperationID: "op-1", Reason: domain.ReasonDeposit})
	require.True(t, ok)
	assert.Equal(t, domain.CompleteDepositCommand{OperationID: "op-1"}, cmd)

	_, ok = s.OnBalanceChanged(domain.AccountBalanceChangedEvent{OperationID: "op-1", Reason: domain.ReasonWithdrawal})
	assert.False(t, ok, "deposit saga must ignore other reasons")

	cmd, ok = s.OnBalanceChangeFailed(domain.AccountBalanceChangeFailedEvent{OperationID: "op-1", Reason: domain.ReasonDeposit, FailReason: "x"})
	require.True(t, ok)
	assert.Equal(t, domain.FailDepositCommand{OperationID: "op-1", Reason: "x"}, cmd)

	cmd, ok = s.OnFreezeFailed(domain.AmountForDepositFreezeFailedInternalEvent{OperationID: "op-1", Reason: "disabled"})
	require.True(t, ok)
	assert.Equal(t, domain.FailDepositCommand{OperationID: "op-1", Reason: "disabled"}, cmd)
}

func TestWithdrawalSaga_NegatesAmount(t *testing.T) {
	s := WithdrawalSaga{}
	amount := domain.NewAccountAmount("c1", "acc-1", decimal.NewFromInt(70))

	cmd, ok := s.OnFrozen(domain.AmountForWithdrawalFrozenInternalEvent{OperationID: "op-1", AccountAmount: amount})
	require.True(t, ok)
	update := cmd.(domain.UpdateBalanceCommand)
	assert.True(t, update.AmountDelta.Equal(decimal.NewFromInt(-70)))
	assert.Equal(t, domain.ReasonWithdrawal, update.ChangeReasonType)

	_, ok = s.OnBalanceChanged(domain.AccountBalanceChangedEvent{OperationID: "op-1", Reason: domain.ReasonDeposit})
	assert.False(t, ok)

	cmd, ok = s.OnBalanceChanged(domain.AccountBalanceChangedEvent{OperationID: "op-1", Reason: domain.ReasonWithdrawal})
	require.True(t, ok)
	assert.Equal(t, domain.CompleteWithdrawalCommand{OperationID: "op-1"}, cmd)
}

func TestTemporaryCapitalSagas(t *testing.T) {
	grant := TemporaryCapitalGrantSaga{Now: fixedClock}

	cmd, ok := grant.OnGranted(domain.TemporaryCapitalGrantedInternalEvent{OperationID: "g-1"})
	require.True(t, ok)
	assert.Equal(t, domain.FinishGiveTemporaryCapitalCommand{OperationID: "g-1", EventTimestamp: fixed, IsSuccess: true}, cmd)

	cmd, ok = grant.OnGrantFailed(domain.TemporaryCapitalGrantFailedInternalEvent{OperationID: "g-1", Reason: "disabled"})
	require.True(t, ok)
	assert.Equal(t, domain.FinishGiveTemporaryCapitalCommand{OperationID: "g-1", EventTimestamp: fixed, FailReason: "disabled"}, cmd)

	revoke := TemporaryCapitalRevokeSaga{Now: fixedClock}
	cmd, ok = revoke.OnRevokeStarted(domain.RevokeTemporaryCapitalStartedEvent{OperationID: "r-1", EventTimestamp: fixed})
	require.True(t, ok)
	assert.Equal(t, domain.FinishRevokeTemporaryCapitalCommand{OperationID: "r-1", EventTimestamp: fixed, IsSuccess: true}, cmd)

	cmd, ok = revoke.OnRevokeFailed(domain.RevokeTemporaryCapitalFailedInternalEvent{OperationID: "r-1", Reason: "not found"})
	require.True(t, ok)
	assert.False(t, cmd.(domain.FinishRevokeTemporaryCapitalCommand).IsSuccess)
}

func TestDeleteAccountsSaga(t *testing.T) {
	cmd, ok := DeleteAccountsSaga{Now: fixedClock}.OnStarted(domain.DeleteAccountsStartedInternalEvent{OperationID: "d-1"})
	require.True(t, ok)
	assert.Equal(t, domain.MarkAccountsAsDeletedCommand{OperationID: "d-1", Timestamp: fixed}, cmd)
}

func TestEmitter(t *testing.T) {
	ctrl := gomock.NewController(t)
	bus := mocks.NewMockMessageBus(ctrl)
	emitter := NewEmitter(bus, zerolog.Nop(), nil)

	cmd := domain.CompleteDepositCommand{OperationID: "op-1"}
	bus.EXPECT().SendCommand(gomock.Any(), cmd, domain.BoundedContext).Return(nil)

	require.NoError(t, emitter.Emit(context.Background(), DepositName, cmd, true))
	// Not-ok reactions send nothing.
	require.NoError(t, emitter.Emit(context.Background(), DepositName, nil, false))
}
