package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/tradingaccounts/internal/domain"
)

// WithdrawalUseCase handles the command side of the withdrawal workflow.
// Funds are checked on Start and again on Freeze against the then-current balance.
type WithdrawalUseCase struct {
	flow *fundsFlow
}

// NewWithdrawalUseCase creates a new WithdrawalUseCase.
func NewWithdrawalUseCase(ledger *OperationLedger, accountRepo AccountRepository, bus MessageBus, logger zerolog.Logger) *WithdrawalUseCase {
	return &WithdrawalUseCase{
		flow: &fundsFlow{
			operationName: domain.OperationWithdrawal,
			ledger:        ledger,
			accountRepo:   accountRepo,
			bus:           bus,
			logger:        logger,
			checkOnStart:  true,
			validate: func(account *domain.Account, amount decimal.Decimal) error {
				return account.ValidateWithdrawal(amount)
			},
			events: fundsEvents{
				started: func(r fundsRecord) domain.Message {
					return domain.WithdrawalStartedInternalEvent{
						OperationID: r.OperationID, AccountAmount: r.AccountAmount, Comment: r.Comment, AuditLog: r.AuditLog,
					}
				},
				frozen: func(r fundsRecord) domain.Message {
					return domain.AmountForWithdrawalFrozenInternalEvent{
						OperationID: r.OperationID, AccountAmount: r.AccountAmount, Comment: r.Comment, AuditLog: r.AuditLog,
					}
				},
				freezeFailed: func(r fundsRecord, reason string) domain.Message {
					return domain.AmountForWithdrawalFreezeFailedInternalEvent{OperationID: r.OperationID, Reason: reason}
				},
				succeeded: func(r fundsRecord) domain.Message {
					return domain.WithdrawalSucceededEvent{OperationID: r.OperationID, AccountAmount: r.AccountAmount}
				},
				failed: func(r fundsRecord, reason string) domain.Message {
					return domain.WithdrawalFailedEvent{OperationID: r.OperationID, AccountAmount: r.AccountAmount, Reason: reason}
				},
			},
		},
	}
}

// Start records the withdrawal, rejecting it when available funds are short.
func (uc *WithdrawalUseCase) Start(ctx context.Context, cmd domain.WithdrawCommand) error {
	return uc.flow.start(ctx, fundsRecord{
		OperationID:   cmd.OperationID,
		AccountAmount: cmd.AccountAmount,
		Comment:       cmd.Comment,
		AuditLog:      cmd.AuditLog,
	})
}

// Freeze re-checks available funds and moves the withdrawal to Frozen.
func (uc *WithdrawalUseCase) Freeze(ctx context.Context, cmd domain.FreezeAmountForWithdrawalCommand) error {
	return uc.flow.freeze(ctx, cmd.OperationID)
}

// Complete finishes the withdrawal after the balance change was applied.
func (uc *WithdrawalUseCase) Complete(ctx context.Context, cmd domain.CompleteWithdrawalCommand) error {
	return uc.flow.complete(ctx, cmd.OperationID)
}

// Fail finishes the withdrawal without a balance change.
func (uc *WithdrawalUseCase) Fail(ctx context.Context, cmd domain.FailWithdrawalCommand) error {
	return uc.flow.fail(ctx, cmd.OperationID, cmd.Reason)
}
