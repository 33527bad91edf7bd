package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/tradingaccounts/internal/domain"
)

// DepositUseCase handles the command side of the deposit workflow.
type DepositUseCase struct {
	flow *fundsFlow
}

// NewDepositUseCase creates a new DepositUseCase.
func NewDepositUseCase(ledger *OperationLedger, accountRepo AccountRepository, bus MessageBus, logger zerolog.Logger) *DepositUseCase {
	return &DepositUseCase{
		flow: &fundsFlow{
			operationName: domain.OperationDeposit,
			ledger:        ledger,
			accountRepo:   accountRepo,
			bus:           bus,
			logger:        logger,
			validate: func(account *domain.Account, amount decimal.Decimal) error {
				return account.ValidateChange(amount)
			},
			events: fundsEvents{
				started: func(r fundsRecord) domain.Message {
					return domain.DepositStartedInternalEvent{
						OperationID: r.OperationID, AccountAmount: r.AccountAmount, Comment: r.Comment, AuditLog: r.AuditLog,
					}
				},
				frozen: func(r fundsRecord) domain.Message {
					return domain.AmountForDepositFrozenInternalEvent{
						OperationID: r.OperationID, AccountAmount: r.AccountAmount, Comment: r.Comment, AuditLog: r.AuditLog,
					}
				},
				freezeFailed: func(r fundsRecord, reason string) domain.Message {
					return domain.AmountForDepositFreezeFailedInternalEvent{OperationID: r.OperationID, Reason: reason}
				},
				succeeded: func(r fundsRecord) domain.Message {
					return domain.DepositSucceededEvent{OperationID: r.OperationID, AccountAmount: r.AccountAmount}
				},
				failed: func(r fundsRecord, reason string) domain.Message {
					return domain.DepositFailedEvent{OperationID: r.OperationID, AccountAmount: r.AccountAmount, Reason: reason}
				},
			},
		},
	}
}

// Start records the deposit and publishes DepositStartedInternalEvent.
func (uc *DepositUseCase) Start(ctx context.Context, cmd domain.DepositCommand) error {
	return uc.flow.start(ctx, fundsRecord{
		OperationID:   cmd.OperationID,
		AccountAmount: cmd.AccountAmount,
		Comment:       cmd.Comment,
		AuditLog:      cmd.AuditLog,
	})
}

// Freeze checks the target account can receive funds and moves the deposit to Frozen.
func (uc *DepositUseCase) Freeze(ctx context.Context, cmd domain.FreezeAmountForDepositCommand) error {
	return uc.flow.freeze(ctx, cmd.OperationID)
}

// Complete finishes the deposit after the balance change was applied.
func (uc *DepositUseCase) Complete(ctx context.Context, cmd domain.CompleteDepositCommand) error {
	return uc.flow.complete(ctx, cmd.OperationID)
}

// Fail finishes the deposit without a balance change.
func (uc *DepositUseCase) Fail(ctx context.Context, cmd domain.FailDepositCommand) error {
	return uc.flow.fail(ctx, cmd.OperationID, cmd.Reason)
}
