package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/tradingaccounts/internal/domain"
)

type grantRecord struct {
	Command    domain.StartGiveTemporaryCapitalCommand `json:"command"`
	FailReason string                                  `json:"failReason,omitempty"`
}

type revokeRecord struct {
	Command    domain.StartRevokeTemporaryCapitalCommand `json:"command"`
	FailReason string                                    `json:"failReason,omitempty"`
}

// TemporaryCapitalUseCase grants and revokes temporary capital. The entry and its balance change
// are written in the same transaction.
type TemporaryCapitalUseCase struct {
	ledger      *OperationLedger
	balance     *BalanceUseCase
	accountRepo AccountRepository
	bus         MessageBus
	logger      zerolog.Logger
}

// NewTemporaryCapitalUseCase creates a new TemporaryCapitalUseCase.
func NewTemporaryCapitalUseCase(
	ledger *OperationLedger,
	balance *BalanceUseCase,
	accountRepo AccountRepository,
	bus MessageBus,
	logger zerolog.Logger,
) *TemporaryCapitalUseCase {
	return &TemporaryCapitalUseCase{
		ledger:      ledger,
		balance:     balance,
		accountRepo: accountRepo,
		bus:         bus,
		logger:      logger,
	}
}

// StartGive credits the account and records the entry under the operation id.
func (uc *TemporaryCapitalUseCase) StartGive(ctx context.Context, cmd domain.StartGiveTemporaryCapitalCommand) error {
	began, existing, err := uc.ledger.TryBegin(ctx, domain.OperationGiveTemporaryCapital, cmd.OperationID, grantRecord{Command: cmd})
	if err != nil {
		return err
	}
	if !began && existing.State.IsTerminal() {
		record, err := DecodeOperationData[grantRecord](existing)
		if err != nil {
			return err
		}
		return uc.publishChanged(ctx, domain.OperationGiveTemporaryCapital, cmd.OperationID, cmd.AccountID,
			existing.State == domain.OperationCompleted, record.FailReason)
	}

	_, err = uc.balance.Apply(ctx, ApplyBalanceChangeInput{
		OperationID:   cmd.OperationID,
		AccountID:     cmd.AccountID,
		ChangeAmount:  cmd.Amount,
		Reason:        domain.ReasonTemporaryCapitalGrant,
		Comment:       cmd.Reason,
		EventSourceID: cmd.EventSourceID,
		AuditLog:      cmd.AuditLog,
		TemporaryCapital: &domain.TemporaryCapitalMutation{
			Grant: &domain.TemporaryCapitalEntry{
				ID:            cmd.OperationID,
				Amount:        cmd.Amount,
				Reason:        cmd.Reason,
				EventSourceID: cmd.EventSourceID,
			},
		},
	})

	switch {
	case err == nil,
		errors.Is(err, domain.ErrDuplicateOperation),
		errors.Is(err, domain.ErrTemporaryCapitalDuplicate):
		return uc.bus.PublishEvent(ctx, domain.TemporaryCapitalGrantedInternalEvent{
			OperationID: cmd.OperationID,
			AccountID:   cmd.AccountID,
			EntryID:     cmd.OperationID,
			Amount:      cmd.Amount,
		})
	case domain.IsBusinessError(err):
		uc.logger.Warn().
			Err(err).
			Str("operation_id", cmd.OperationID).
			Str("account_id", cmd.AccountID).
			Msg("temporary capital grant rejected")
		return uc.bus.PublishEvent(ctx, domain.TemporaryCapitalGrantFailedInternalEvent{
			OperationID: cmd.OperationID,
			AccountID:   cmd.AccountID,
			Reason:      err.Error(),
		})
	default:
		return err
	}
}

// FinishGive closes the grant operation.
func (uc *TemporaryCapitalUseCase) FinishGive(ctx context.Context, cmd domain.FinishGiveTemporaryCapitalCommand) error {
	return uc.finish(ctx, domain.OperationGiveTemporaryCapital, cmd.OperationID, cmd.IsSuccess, cmd.FailReason,
		func(info *domain.OperationExecutionInfo) (string, error) {
			record, err := DecodeOperationData[grantRecord](info)
			return record.Command.AccountID, err
		},
		func(info *domain.OperationExecutionInfo, reason string) (any, error) {
			record, err := DecodeOperationData[grantRecord](info)
			record.FailReason = reason
			return record, err
		},
	)
}

// StartRevoke debits every outstanding entry granted for RevokeEventSourceID, or every
// outstanding entry of the account when it is empty. Entries revoked earlier are skipped. Each entry is revoked under its own derived operation id so a resumed
// operation never revokes twice.
func (uc *TemporaryCapitalUseCase) StartRevoke(ctx context.Context, cmd domain.StartRevokeTemporaryCapitalCommand) error {
	began, existing, err := uc.ledger.TryBegin(ctx, domain.OperationRevokeTemporaryCapital, cmd.OperationID, revokeRecord{Command: cmd})
	if err != nil {
		return err
	}
	if !began && existing.State.IsTerminal() {
		record, err := DecodeOperationData[revokeRecord](existing)
		if err != nil {
			return err
		}
		return uc.publishChanged(ctx, domain.OperationRevokeTemporaryCapital, cmd.OperationID, cmd.AccountID,
			existing.State == domain.OperationCompleted, record.FailReason)
	}

	account, err := uc.accountRepo.GetByID(ctx, cmd.AccountID)
	if err != nil {
		if domain.IsBusinessError(err) {
			return uc.revokeFailed(ctx, cmd, err)
		}
		return err
	}

	matched := account.TemporaryCapitalBySource(cmd.RevokeEventSourceID)
	if len(matched) == 0 {
		return uc.revokeFailed(ctx, cmd, domain.ErrTemporaryCapitalNotFound)
	}

	revoked := make([]domain.RevokedTemporaryCapital, 0, len(matched))
	for _, entry := range matched {
		entryOperationID := RevokeEntryOperationID(cmd.OperationID, entry.ID)

		if entry.IsRevoked() {
			// Either revoked by an earlier attempt of this operation or by another operation.
			applied, err := uc.balance.FindApplied(ctx, account.ID, entryOperationID)
			if err != nil {
				return err
			}
			if applied != nil {
				revoked = append(revoked, revokedView(entry))
			}
			continue
		}

		_, err := uc.balance.Apply(ctx, ApplyBalanceChangeInput{
			OperationID:      entryOperationID,
			AccountID:        account.ID,
			ChangeAmount:     entry.Amount.Neg(),
			Reason:           domain.ReasonTemporaryCapitalRevoke,
			Comment:          cmd.Comment,
			EventSourceID:    cmd.EventSourceID,
			AuditLog:         cmd.AuditLog,
			TemporaryCapital: &domain.TemporaryCapitalMutation{RevokeID: entry.ID},
		})

		switch {
		case err == nil, errors.Is(err, domain.ErrDuplicateOperation):
			revoked = append(revoked, revokedView(entry))
		case errors.Is(err, domain.ErrTemporaryCapitalAlreadyRevoked):
			uc.logger.Debug().
				Str("operation_id", cmd.OperationID).
				Str("entry_id", entry.ID).
				Msg("temporary capital entry already revoked")
		case domain.IsBusinessError(err):
			return uc.revokeFailed(ctx, cmd, err)
		default:
			return err
		}
	}

	uc.logger.Info().
		Str("operation_id", cmd.OperationID).
		Str("account_id", cmd.AccountID).
		Int("revoked", len(revoked)).
		Msg("temporary capital revoked")

	return uc.bus.PublishEvent(ctx, domain.RevokeTemporaryCapitalStartedEvent{
		OperationID:             cmd.OperationID,
		EventTimestamp:          time.Now().UTC(),
		RevokedTemporaryCapital: revoked,
		AccountID:               cmd.AccountID,
	})
}

// FinishRevoke closes the revoke operation.
func (uc *TemporaryCapitalUseCase) FinishRevoke(ctx context.Context, cmd domain.FinishRevokeTemporaryCapitalCommand) error {
	return uc.finish(ctx, domain.OperationRevokeTemporaryCapital, cmd.OperationID, cmd.IsSuccess, cmd.FailReason,
		func(info *domain.OperationExecutionInfo) (string, error) {
			record, err := DecodeOperationData[revokeRecord](info)
			return record.Command.AccountID, err
		},
		func(info *domain.OperationExecutionInfo, reason string) (any, error) {
			record, err := DecodeOperationData[revokeRecord](info)
			record.FailReason = reason
			return record, err
		},
	)
}

// RevokeEntryOperationID derives the balance-change operation id of one revoked entry.
func RevokeEntryOperationID(operationID, entryID string) string {
	return operationID + "-revoke-" + entryID
}

func (uc *TemporaryCapitalUseCase) finish(
	ctx context.Context,
	operationName, operationID string,
	success bool,
	failReason string,
	accountOf func(*domain.OperationExecutionInfo) (string, error),
	withReason func(*domain.OperationExecutionInfo, string) (any, error),
) error {
	current, err := uc.ledger.Get(ctx, operationName, operationID)
	if err != nil {
		return logDropped(uc.logger, err, operationName, operationID, "finish")
	}

	accountID, err := accountOf(current)
	if err != nil {
		return err
	}

	next := domain.OperationCompleted
	var data any
	if !success {
		next = domain.OperationFailed
		if data, err = withReason(current, failReason); err != nil {
			return err
		}
	}

	info, err := uc.ledger.Transition(ctx, operationName, operationID, next, data)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) && info != nil && info.State == next {
			return uc.publishChanged(ctx, operationName, operationID, accountID, success, failReason)
		}
		return logDropped(uc.logger, err, operationName, operationID, "finish")
	}

	return uc.publishChanged(ctx, operationName, operationID, accountID, success, failReason)
}

func (uc *TemporaryCapitalUseCase) revokeFailed(ctx context.Context, cmd domain.StartRevokeTemporaryCapitalCommand, cause error) error {
	uc.logger.Warn().
		Err(cause).
		Str("operation_id", cmd.OperationID).
		Str("account_id", cmd.AccountID).
		Str("revoke_event_source_id", cmd.RevokeEventSourceID).
		Msg("temporary capital revoke rejected")

	return uc.bus.PublishEvent(ctx, domain.RevokeTemporaryCapitalFailedInternalEvent{
		OperationID: cmd.OperationID,
		AccountID:   cmd.AccountID,
		Reason:      cause.Error(),
	})
}

func (uc *TemporaryCapitalUseCase) publishChanged(ctx context.Context, operationName, operationID, accountID string, success bool, failReason string) error {
	return uc.bus.PublishEvent(ctx, domain.TemporaryCapitalChangedEvent{
		OperationID: operationID,
		AccountID:   accountID,
		Operation:   operationName,
		IsSuccess:   success,
		FailReason:  failReason,
	})
}

func revokedView(entry domain.TemporaryCapitalEntry) domain.RevokedTemporaryCapital {
	return domain.RevokedTemporaryCapital{
		ID:            entry.ID,
		Amount:        entry.Amount,
		Reason:        entry.Reason,
		EventSourceID: entry.EventSourceID,
	}
}
