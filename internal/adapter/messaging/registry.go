package messaging

import (
	"context"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/saga"
	"github.com/iho/tradingaccounts/internal/usecase"
)

// Handlers groups the command handlers wired into the router.
type Handlers struct {
	UpdateBalance    *usecase.UpdateBalanceHandler
	Deposit          *usecase.DepositUseCase
	Withdrawal       *usecase.WithdrawalUseCase
	TemporaryCapital *usecase.TemporaryCapitalUseCase
	DeleteAccounts   *usecase.DeleteAccountsUseCase
}

// Sagas groups the saga instances wired into the router.
type Sagas struct {
	ClosePosition          saga.ClosePositionSaga
	Deposit                saga.DepositSaga
	Withdrawal             saga.WithdrawalSaga
	TemporaryCapitalGrant  saga.TemporaryCapitalGrantSaga
	TemporaryCapitalRevoke saga.TemporaryCapitalRevokeSaga
	DeleteAccounts         saga.DeleteAccountsSaga
}

// Register fills the router's registration table. Every message type consumed by the service
// is listed here.
func Register(r *Router, h Handlers, s Sagas, emitter *saga.Emitter) {
	// Commands
	Handle(r, "UpdateBalanceHandler", h.UpdateBalance.Handle)

	Handle(r, "DepositUseCase.Start", h.Deposit.Start)
	Handle(r, "DepositUseCase.Freeze", h.Deposit.Freeze)
	Handle(r, "DepositUseCase.Complete", h.Deposit.Complete)
	Handle(r, "DepositUseCase.Fail", h.Deposit.Fail)

	Handle(r, "WithdrawalUseCase.Start", h.Withdrawal.Start)
	Handle(r, "WithdrawalUseCase.Freeze", h.Withdrawal.Freeze)
	Handle(r, "WithdrawalUseCase.Complete", h.Withdrawal.Complete)
	Handle(r, "WithdrawalUseCase.Fail", h.Withdrawal.Fail)

	Handle(r, "TemporaryCapitalUseCase.StartGive", h.TemporaryCapital.StartGive)
	Handle(r, "TemporaryCapitalUseCase.FinishGive", h.TemporaryCapital.FinishGive)
	Handle(r, "TemporaryCapitalUseCase.StartRevoke", h.TemporaryCapital.StartRevoke)
	Handle(r, "TemporaryCapitalUseCase.FinishRevoke", h.TemporaryCapital.FinishRevoke)

	Handle(r, "DeleteAccountsUseCase.Start", h.DeleteAccounts.Start)
	Handle(r, "DeleteAccountsUseCase.MarkDeleted", h.DeleteAccounts.MarkDeleted)

	// Sagas
	react(r, emitter, saga.ClosePositionName, s.ClosePosition.OnPositionClosed)

	react(r, emitter, saga.DepositName, s.Deposit.OnStarted)
	react(r, emitter, saga.DepositName, s.Deposit.OnFrozen)
	react(r, emitter, saga.DepositName, s.Deposit.OnFreezeFailed)
	react(r, emitter, saga.DepositName, s.Deposit.OnBalanceChanged)
	react(r, emitter, saga.DepositName, s.Deposit.OnBalanceChangeFailed)

	react(r, emitter, saga.WithdrawalName, s.Withdrawal.OnStarted)
	react(r, emitter, saga.WithdrawalName, s.Withdrawal.OnFrozen)
	react(r, emitter, saga.WithdrawalName, s.Withdrawal.OnFreezeFailed)
	react(r, emitter, saga.WithdrawalName, s.Withdrawal.OnBalanceChanged)
	react(r, emitter, saga.WithdrawalName, s.Withdrawal.OnBalanceChangeFailed)

	react(r, emitter, saga.TemporaryCapitalGrantName, s.TemporaryCapitalGrant.OnGranted)
	react(r, emitter, saga.TemporaryCapitalGrantName, s.TemporaryCapitalGrant.OnGrantFailed)

	react(r, emitter, saga.TemporaryCapitalRevokeName, s.TemporaryCapitalRevoke.OnRevokeStarted)
	react(r, emitter, saga.TemporaryCapitalRevokeName, s.TemporaryCapitalRevoke.OnRevokeFailed)

	react(r, emitter, saga.DeleteAccountsName, s.DeleteAccounts.OnStarted)
}

func react[E domain.Message](r *Router, emitter *saga.Emitter, sagaName string, step func(E) (domain.Message, bool)) {
	Handle(r, sagaName+"Saga", func(ctx context.Context, e E) error {
		cmd, ok := step(e)
		return emitter.Emit(ctx, sagaName, cmd, ok)
	})
}
