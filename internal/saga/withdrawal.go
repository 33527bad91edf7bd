package saga

import (
	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/usecase"
)

// WithdrawalName is the metrics and log label of WithdrawalSaga.
const WithdrawalName = "Withdrawal"

// WithdrawalSaga mirrors DepositSaga with a negative balance delta.
type WithdrawalSaga struct{}

// OnStarted asks for the withdrawal amount to be frozen.
func (WithdrawalSaga) OnStarted(e domain.WithdrawalStartedInternalEvent) (domain.Message, bool) {
	return domain.FreezeAmountForWithdrawalCommand{
		AccountAmount: e.AccountAmount,
		OperationID:   e.OperationID,
		Reason:        e.Comment,
	}, true
}

// OnFrozen debits the frozen amount through UpdateBalanceCommand.
func (WithdrawalSaga) OnFrozen(e domain.AmountForWithdrawalFrozenInternalEvent) (domain.Message, bool) {
	return domain.UpdateBalanceCommand{
		OperationID:      e.OperationID,
		AccountRef:       e.AccountRef,
		AmountDelta:      e.Amount.Neg(),
		Comment:          e.Comment,
		AuditLog:         e.AuditLog,
		Source:           usecase.SourceWithdrawal,
		ChangeReasonType: domain.ReasonWithdrawal,
		EventSourceID:    e.OperationID,
	}, true
}

// OnFreezeFailed fails the withdrawal.
func (WithdrawalSaga) OnFreezeFailed(e domain.AmountForWithdrawalFreezeFailedInternalEvent) (domain.Message, bool) {
	return domain.FailWithdrawalCommand{OperationID: e.OperationID, Reason: e.Reason}, true
}

// OnBalanceChanged completes the withdrawal once its debit was applied.
func (WithdrawalSaga) OnBalanceChanged(e domain.AccountBalanceChangedEvent) (domain.Message, bool) {
	if e.Reason != domain.ReasonWithdrawal {
		return nil, false
	}
	return domain.CompleteWithdrawalCommand{OperationID: e.OperationID}, true
}

// OnBalanceChangeFailed fails the withdrawal when its debit was rejected.
func (WithdrawalSaga) OnBalanceChangeFailed(e domain.AccountBalanceChangeFailedEvent) (domain.Message, bool) {
	if e.Reason != domain.ReasonWithdrawal {
		return nil, false
	}
	return domain.FailWithdrawalCommand{OperationID: e.OperationID, Reason: e.FailReason}, true
}
