package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/tradingaccounts/internal/domain"
)

type deleteAccountsRecord struct {
	Command   domain.DeleteAccountsCommand `json:"command"`
	DeletedAt time.Time                    `json:"deletedAt,omitempty"`
}

// DeleteAccountsUseCase disables accounts and then marks them deleted.
type DeleteAccountsUseCase struct {
	ledger      *OperationLedger
	txManager   TransactionManager
	accountRepo AccountRepository
	retrier     Retrier
	bus         MessageBus
	logger      zerolog.Logger
}

// NewDeleteAccountsUseCase creates a new DeleteAccountsUseCase.
func NewDeleteAccountsUseCase(
	ledger *OperationLedger,
	txManager TransactionManager,
	accountRepo AccountRepository,
	retrier Retrier,
	bus MessageBus,
	logger zerolog.Logger,
) *DeleteAccountsUseCase {
	return &DeleteAccountsUseCase{
		ledger:      ledger,
		txManager:   txManager,
		accountRepo: accountRepo,
		retrier:     retrier,
		bus:         bus,
		logger:      logger,
	}
}

// Start disables every listed account so no further balance change is accepted.
func (uc *DeleteAccountsUseCase) Start(ctx context.Context, cmd domain.DeleteAccountsCommand) error {
	began, existing, err := uc.ledger.TryBegin(ctx, domain.OperationDeleteAccounts, cmd.OperationID, deleteAccountsRecord{Command: cmd})
	if err != nil {
		return err
	}
	if !began && existing.State == domain.OperationCompleted {
		return uc.publishDeleted(ctx, existing)
	}

	for _, accountID := range cmd.AccountIDs {
		err := uc.update(ctx, accountID, func(account *domain.Account, now time.Time) {
			account.IsDisabled = true
			account.ModificationTimestamp = now
		})
		if err != nil {
			return err
		}
	}

	uc.logger.Info().
		Str("operation_id", cmd.OperationID).
		Strs("account_ids", cmd.AccountIDs).
		Msg("accounts disabled for deletion")

	return uc.bus.PublishEvent(ctx, domain.DeleteAccountsStartedInternalEvent{
		OperationID: cmd.OperationID,
		AccountIDs:  cmd.AccountIDs,
	})
}

// MarkDeleted flags the disabled accounts as deleted and completes the operation.
func (uc *DeleteAccountsUseCase) MarkDeleted(ctx context.Context, cmd domain.MarkAccountsAsDeletedCommand) error {
	info, err := uc.ledger.Get(ctx, domain.OperationDeleteAccounts, cmd.OperationID)
	if err != nil {
		return logDropped(uc.logger, err, domain.OperationDeleteAccounts, cmd.OperationID, "mark_deleted")
	}
	if info.State == domain.OperationCompleted {
		return uc.publishDeleted(ctx, info)
	}

	record, err := DecodeOperationData[deleteAccountsRecord](info)
	if err != nil {
		return err
	}

	deletedAt := cmd.Timestamp
	if deletedAt.IsZero() {
		deletedAt = time.Now().UTC()
	}

	for _, accountID := range record.Command.AccountIDs {
		err := uc.update(ctx, accountID, func(account *domain.Account, now time.Time) {
			account.IsDeleted = true
			account.ModificationTimestamp = now
		})
		if err != nil {
			return err
		}
	}

	record.DeletedAt = deletedAt
	updated, err := uc.ledger.Transition(ctx, domain.OperationDeleteAccounts, cmd.OperationID, domain.OperationCompleted, record)
	if err != nil {
		return logDropped(uc.logger, err, domain.OperationDeleteAccounts, cmd.OperationID, "mark_deleted")
	}

	return uc.publishDeleted(ctx, updated)
}

// update locks one account, mutates it and saves it. Missing accounts are skipped.
func (uc *DeleteAccountsUseCase) update(ctx context.Context, accountID string, mutate func(*domain.Account, time.Time)) error {
	err := uc.retry(ctx, func() error {
		ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}

		mutate(account, time.Now().UTC())

		if err := uc.accountRepo.Save(ctx, tx, account); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})

	if errors.Is(err, domain.ErrAccountNotFound) {
		uc.logger.Warn().Str("account_id", accountID).Msg("account to delete not found, skipping")
		return nil
	}
	return err
}

func (uc *DeleteAccountsUseCase) retry(ctx context.Context, fn func() error) error {
	if uc.retrier == nil {
		return fn()
	}
	return uc.retrier.Retry(ctx, fn)
}

func (uc *DeleteAccountsUseCase) publishDeleted(ctx context.Context, info *domain.OperationExecutionInfo) error {
	record, err := DecodeOperationData[deleteAccountsRecord](info)
	if err != nil {
		return err
	}
	return uc.bus.PublishEvent(ctx, domain.AccountsMarkedAsDeletedEvent{
		OperationID: info.ID,
		AccountIDs:  record.Command.AccountIDs,
		Timestamp:   record.DeletedAt,
	})
}
