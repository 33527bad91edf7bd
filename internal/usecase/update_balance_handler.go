package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/iho/tradingaccounts/internal/domain"
)

// UpdateBalanceHandler executes UpdateBalanceCommand exactly once per OperationID.
type UpdateBalanceHandler struct {
	ledger  *OperationLedger
	balance *BalanceUseCase
	bus     MessageBus
	logger  zerolog.Logger
}

// NewUpdateBalanceHandler creates a new UpdateBalanceHandler.
func NewUpdateBalanceHandler(ledger *OperationLedger, balance *BalanceUseCase, bus MessageBus, logger zerolog.Logger) *UpdateBalanceHandler {
	return &UpdateBalanceHandler{
		ledger:  ledger,
		balance: balance,
		bus:     bus,
		logger:  logger,
	}
}

// updateBalanceRecord is the ledger payload of an UpdateBalance operation.
type updateBalanceRecord struct {
	Command    domain.UpdateBalanceCommand `json:"command"`
	FailReason string                      `json:"failReason,omitempty"`
}

// Handle applies the command. Redeliveries of a finished operation re-publish its outcome
// without touching the account.
func (h *UpdateBalanceHandler) Handle(ctx context.Context, cmd domain.UpdateBalanceCommand) error {
	began, existing, err := h.ledger.TryBegin(ctx, domain.OperationUpdateBalance, cmd.OperationID, updateBalanceRecord{Command: cmd})
	if err != nil {
		return err
	}

	if !began {
		switch existing.State {
		case domain.OperationCompleted:
			return h.publishChanged(ctx, cmd)
		case domain.OperationFailed:
			record, err := DecodeOperationData[updateBalanceRecord](existing)
			if err != nil {
				return err
			}
			return h.publishFailed(ctx, cmd, record.FailReason)
		}

		// Started: a previous attempt crashed or is still running. The account's change log
		// decides whether the mutation already happened.
		applied, err := h.balance.FindApplied(ctx, cmd.AccountID, cmd.OperationID)
		if err != nil {
			return err
		}
		if applied != nil {
			if err := h.balance.PublishChanged(ctx, applied); err != nil {
				return err
			}
			return h.complete(ctx, cmd.OperationID)
		}
	}

	if cmd.AssetPairID == "" && cmd.Source == SourceClosePosition {
		h.logger.Warn().
			Str("operation_id", cmd.OperationID).
			Str("account_id", cmd.AccountID).
			Msg("realized pnl update without asset pair")
	}

	_, err = h.balance.Apply(ctx, ApplyBalanceChangeInput{
		OperationID:   cmd.OperationID,
		AccountID:     cmd.AccountID,
		ChangeAmount:  cmd.AmountDelta,
		Reason:        cmd.ChangeReasonType,
		Comment:       cmd.Comment,
		EventSourceID: cmd.EventSourceID,
		AuditLog:      cmd.AuditLog,
		Instrument:    cmd.AssetPairID,
		TradingDate:   cmd.TradingDay,
	})

	switch {
	case err == nil:
		return h.complete(ctx, cmd.OperationID)
	case errors.Is(err, domain.ErrDuplicateOperation):
		if err := h.publishChanged(ctx, cmd); err != nil {
			return err
		}
		return h.complete(ctx, cmd.OperationID)
	case domain.IsBusinessError(err):
		h.logger.Warn().
			Err(err).
			Str("operation_id", cmd.OperationID).
			Str("account_id", cmd.AccountID).
			Msg("balance update rejected")
		if _, terr := h.ledger.Transition(ctx, domain.OperationUpdateBalance, cmd.OperationID, domain.OperationFailed,
			updateBalanceRecord{Command: cmd, FailReason: err.Error()}); terr != nil {
			if derr := logDropped(h.logger, terr, domain.OperationUpdateBalance, cmd.OperationID, "fail"); derr != nil {
				return derr
			}
		}
		return h.publishFailed(ctx, cmd, err.Error())
	default:
		return err
	}
}

func (h *UpdateBalanceHandler) complete(ctx context.Context, operationID string) error {
	_, err := h.ledger.Transition(ctx, domain.OperationUpdateBalance, operationID, domain.OperationCompleted, nil)
	if err != nil {
		return logDropped(h.logger, err, domain.OperationUpdateBalance, operationID, "complete")
	}
	return nil
}

func (h *UpdateBalanceHandler) publishChanged(ctx context.Context, cmd domain.UpdateBalanceCommand) error {
	return h.bus.PublishEvent(ctx, domain.AccountBalanceChangedEvent{
		AccountRef:  cmd.AccountRef,
		AmountDelta: cmd.AmountDelta,
		OperationID: cmd.OperationID,
		Reason:      cmd.ChangeReasonType,
	})
}

func (h *UpdateBalanceHandler) publishFailed(ctx context.Context, cmd domain.UpdateBalanceCommand, reason string) error {
	return h.bus.PublishEvent(ctx, domain.AccountBalanceChangeFailedEvent{
		AccountRef:  cmd.AccountRef,
		AmountDelta: cmd.AmountDelta,
		OperationID: cmd.OperationID,
		Reason:      cmd.ChangeReasonType,
		FailReason:  reason,
	})
}
