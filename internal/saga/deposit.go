package saga

import (
	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/usecase"
)

// DepositName is the metrics and log label of DepositSaga.
const DepositName = "Deposit"

// DepositSaga drives Start -> Freeze -> UpdateBalance -> Complete | Fail.
type DepositSaga struct{}

// OnStarted asks for the deposit amount to be frozen.
func (DepositSaga) OnStarted(e domain.DepositStartedInternalEvent) (domain.Message, bool) {
	return domain.FreezeAmountForDepositCommand{
		AccountAmount: e.AccountAmount,
		OperationID:   e.OperationID,
		Reason:        e.Comment,
	}, true
}

// OnFrozen credits the frozen amount through UpdateBalanceCommand.
func (DepositSaga) OnFrozen(e domain.AmountForDepositFrozenInternalEvent) (domain.Message, bool) {
	return domain.UpdateBalanceCommand{
		OperationID:      e.OperationID,
		AccountRef:       e.AccountRef,
		AmountDelta:      e.Amount,
		Comment:          e.Comment,
		AuditLog:         e.AuditLog,
		Source:           usecase.SourceDeposit,
		ChangeReasonType: domain.ReasonDeposit,
		EventSourceID:    e.OperationID,
	}, true
}

// OnFreezeFailed fails the deposit.
func (DepositSaga) OnFreezeFailed(e domain.AmountForDepositFreezeFailedInternalEvent) (domain.Message, bool) {
	return domain.FailDepositCommand{OperationID: e.OperationID, Reason: e.Reason}, true
}

// OnBalanceChanged reacts only to deposit balance changes.
func (DepositSaga) OnBalanceChanged(e domain.AccountBalanceChangedEvent) (domain.Message, bool) {
	if e.Reason != domain.ReasonDeposit {
		return nil, false
	}
	return domain.CompleteDepositCommand{OperationID: e.OperationID}, true
}

// OnBalanceChangeFailed fails the deposit when its credit was rejected.
func (DepositSaga) OnBalanceChangeFailed(e domain.AccountBalanceChangeFailedEvent) (domain.Message, bool) {
	if e.Reason != domain.ReasonDeposit {
		return nil, false
	}
	return domain.FailDepositCommand{OperationID: e.OperationID, Reason: e.FailReason}, true
}
