package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/tradingaccounts/internal/domain"
)

// fundsRecord is the ledger payload shared by deposit and withdrawal operations.
type fundsRecord struct {
	OperationID string `json:"operationId"`
	domain.AccountAmount
	Comment    string `json:"comment"`
	AuditLog   string `json:"auditLog"`
	FailReason string `json:"failReason,omitempty"`
}

// fundsEvents builds the messages of one freeze-based workflow.
type fundsEvents struct {
	started      func(r fundsRecord) domain.Message
	frozen       func(r fundsRecord) domain.Message
	freezeFailed func(r fundsRecord, reason string) domain.Message
	succeeded    func(r fundsRecord) domain.Message
	failed       func(r fundsRecord, reason string) domain.Message
}

// fundsFlow drives Start -> Freeze -> Complete | Fail for deposits and withdrawals.
type fundsFlow struct {
	operationName string
	ledger        *OperationLedger
	accountRepo   AccountRepository
	bus           MessageBus
	logger        zerolog.Logger
	events        fundsEvents
	// validate is run against the current account at freeze time, and at start time when checkOnStart is set.
	validate     func(account *domain.Account, amount decimal.Decimal) error
	checkOnStart bool
}

func (f *fundsFlow) start(ctx context.Context, record fundsRecord) error {
	began, existing, err := f.ledger.TryBegin(ctx, f.operationName, record.OperationID, record)
	if err != nil {
		return err
	}
	if !began {
		return f.republish(ctx, existing)
	}

	log := f.logger.With().
		Str("operation_name", f.operationName).
		Str("operation_id", record.OperationID).
		Str("account_id", record.AccountID).
		Logger()

	if err := f.check(ctx, record, f.checkOnStart); err != nil {
		if !domain.IsBusinessError(err) {
			return err
		}
		log.Warn().Err(err).Msg("operation rejected at start")
		return f.fail(ctx, record.OperationID, err.Error())
	}

	log.Info().Str("amount", record.Amount.String()).Msg("operation started")
	return f.bus.PublishEvent(ctx, f.events.started(record))
}

func (f *fundsFlow) freeze(ctx context.Context, operationID string) error {
	info, err := f.ledger.Get(ctx, f.operationName, operationID)
	if err != nil {
		return logDropped(f.logger, err, f.operationName, operationID, "freeze")
	}

	record, err := DecodeOperationData[fundsRecord](info)
	if err != nil {
		return err
	}

	switch info.State {
	case domain.OperationFrozen:
		return f.bus.PublishEvent(ctx, f.events.frozen(record))
	case domain.OperationCompleted, domain.OperationFailed:
		f.logger.Warn().
			Str("operation_name", f.operationName).
			Str("operation_id", operationID).
			Str("state", string(info.State)).
			Msg("freeze requested for finished operation")
		return nil
	}

	if err := f.check(ctx, record, true); err != nil {
		if !domain.IsBusinessError(err) {
			return err
		}
		return f.bus.PublishEvent(ctx, f.events.freezeFailed(record, err.Error()))
	}

	if _, err := f.ledger.Transition(ctx, f.operationName, operationID, domain.OperationFrozen, nil); err != nil {
		return logDropped(f.logger, err, f.operationName, operationID, "freeze")
	}

	return f.bus.PublishEvent(ctx, f.events.frozen(record))
}

func (f *fundsFlow) complete(ctx context.Context, operationID string) error {
	info, err := f.ledger.Transition(ctx, f.operationName, operationID, domain.OperationCompleted, nil)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) && info != nil && info.State == domain.OperationCompleted {
			return f.republish(ctx, info)
		}
		return logDropped(f.logger, err, f.operationName, operationID, "complete")
	}

	record, err := DecodeOperationData[fundsRecord](info)
	if err != nil {
		return err
	}

	f.logger.Info().
		Str("operation_name", f.operationName).
		Str("operation_id", operationID).
		Str("account_id", record.AccountID).
		Msg("operation completed")

	return f.bus.PublishEvent(ctx, f.events.succeeded(record))
}

func (f *fundsFlow) fail(ctx context.Context, operationID, reason string) error {
	current, err := f.ledger.Get(ctx, f.operationName, operationID)
	if err != nil {
		return logDropped(f.logger, err, f.operationName, operationID, "fail")
	}

	record, err := DecodeOperationData[fundsRecord](current)
	if err != nil {
		return err
	}
	record.FailReason = reason

	info, err := f.ledger.Transition(ctx, f.operationName, operationID, domain.OperationFailed, record)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) && info != nil && info.State == domain.OperationFailed {
			return f.republish(ctx, info)
		}
		return logDropped(f.logger, err, f.operationName, operationID, "fail")
	}

	f.logger.Warn().
		Str("operation_name", f.operationName).
		Str("operation_id", operationID).
		Str("account_id", record.AccountID).
		Str("reason", reason).
		Msg("operation failed")

	return f.bus.PublishEvent(ctx, f.events.failed(record, reason))
}

// republish re-emits the event matching the stored state so a redelivered or resumed
// operation moves on without repeating side effects.
func (f *fundsFlow) republish(ctx context.Context, info *domain.OperationExecutionInfo) error {
	record, err := DecodeOperationData[fundsRecord](info)
	if err != nil {
		return err
	}

	var event domain.Message
	switch info.State {
	case domain.OperationStarted:
		event = f.events.started(record)
	case domain.OperationFrozen:
		event = f.events.frozen(record)
	case domain.OperationCompleted:
		event = f.events.succeeded(record)
	case domain.OperationFailed:
		event = f.events.failed(record, record.FailReason)
	default:
		return fmt.Errorf("%w: unknown state %q for %s", domain.ErrSchemaViolation, info.State, info.Key())
	}

	f.logger.Debug().
		Str("operation_name", f.operationName).
		Str("operation_id", info.ID).
		Str("state", string(info.State)).
		Msg("re-publishing operation state")

	return f.bus.PublishEvent(ctx, event)
}

func (f *fundsFlow) check(ctx context.Context, record fundsRecord, withAccount bool) error {
	if record.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	if !withAccount {
		return nil
	}

	account, err := f.accountRepo.GetByID(ctx, record.AccountID)
	if err != nil {
		return err
	}
	return f.validate(account, record.Amount)
}
