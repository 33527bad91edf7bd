package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/infrastructure/metrics"
)

// OperationLedger is the idempotency gate every command handler goes through.
type OperationLedger struct {
	store   OperationStore
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewOperationLedger creates a new OperationLedger.
func NewOperationLedger(store OperationStore, logger zerolog.Logger, m *metrics.Metrics) *OperationLedger {
	return &OperationLedger{
		store:   store,
		logger:  logger,
		metrics: m,
	}
}

// TryBegin records a new operation in the Started state. When the key already exists it returns
// began=false together with the stored entry; callers must not re-apply side effects then.
func (l *OperationLedger) TryBegin(ctx context.Context, operationName, operationID string, data any) (bool, *domain.OperationExecutionInfo, error) {
	if operationID == "" {
		return false, nil, fmt.Errorf("%w: empty operation id for %s", domain.ErrSchemaViolation, operationName)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return false, nil, fmt.Errorf("marshal %s data: %w", operationName, err)
	}

	info := &domain.OperationExecutionInfo{
		OperationName: operationName,
		ID:            operationID,
		Data:          raw,
		State:         domain.OperationStarted,
		LastModified:  time.Now().UTC(),
		Version:       1,
	}

	inserted, existing, err := l.store.Insert(ctx, info)
	if err != nil {
		return false, nil, err
	}

	if !inserted {
		l.logger.Debug().
			Str("operation_name", operationName).
			Str("operation_id", operationID).
			Str("state", string(existing.State)).
			Msg("operation already exists")
		if l.metrics != nil {
			l.metrics.LedgerOperations.WithLabelValues(operationName, "duplicate").Inc()
		}
		return false, existing, nil
	}

	if l.metrics != nil {
		l.metrics.LedgerOperations.WithLabelValues(operationName, "began").Inc()
	}

	return true, info, nil
}

// Transition moves an operation forward. Data replaces the stored payload when non-nil.
// A backward or post-terminal transition returns ErrInvalidTransition and leaves the entry unchanged.
func (l *OperationLedger) Transition(ctx context.Context, operationName, operationID string, next domain.OperationState, data any) (*domain.OperationExecutionInfo, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s data: %w", operationName, err)
		}
		raw = encoded
	}

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		current, err := l.store.Get(ctx, operationName, operationID)
		if err != nil {
			return nil, err
		}

		if !current.State.CanTransitionTo(next) {
			if l.metrics != nil {
				l.metrics.LedgerOperations.WithLabelValues(operationName, "invalid_transition").Inc()
			}
			return current, fmt.Errorf("%w: %s %s -> %s", domain.ErrInvalidTransition, current.Key(), current.State, next)
		}

		updated := *current
		updated.State = next
		updated.Version = current.Version + 1
		updated.LastModified = time.Now().UTC()
		if raw != nil {
			updated.Data = raw
		}

		swapped, err := l.store.CompareAndSwap(ctx, &updated, current.Version)
		if err != nil {
			return nil, err
		}
		if swapped {
			if l.metrics != nil {
				l.metrics.LedgerOperations.WithLabelValues(operationName, string(next)).Inc()
			}
			return &updated, nil
		}

		l.logger.Debug().
			Str("operation_name", operationName).
			Str("operation_id", operationID).
			Int("attempt", attempt+1).
			Msg("concurrent ledger update, retrying transition")
	}

	return nil, fmt.Errorf("%w: %s modified concurrently", domain.ErrStoreUnavailable, domain.OperationKey(operationName, operationID))
}

// Get returns the ledger entry or ErrOperationNotFound.
func (l *OperationLedger) Get(ctx context.Context, operationName, operationID string) (*domain.OperationExecutionInfo, error) {
	return l.store.Get(ctx, operationName, operationID)
}

// ListStale returns non-terminal operations untouched for longer than age.
func (l *OperationLedger) ListStale(ctx context.Context, age time.Duration, limit int) ([]*domain.OperationExecutionInfo, error) {
	if limit <= 0 {
		limit = 100
	}
	return l.store.ListStale(ctx, time.Now().UTC().Add(-age), limit)
}

// ReportStale lists stale operations, refreshes the stale gauge and logs each entry so operators
// can reconcile them.
func (l *OperationLedger) ReportStale(ctx context.Context, age time.Duration, limit int) ([]*domain.OperationExecutionInfo, error) {
	infos, err := l.ListStale(ctx, age, limit)
	if err != nil {
		return nil, err
	}

	if l.metrics != nil {
		l.metrics.StaleOperations.Set(float64(len(infos)))
	}

	for _, info := range infos {
		l.logger.Warn().
			Str("operation_name", info.OperationName).
			Str("operation_id", info.ID).
			Str("state", string(info.State)).
			Time("last_modified", info.LastModified).
			Msg("stale operation")
	}

	return infos, nil
}

// DecodeOperationData unmarshals the typed payload of a ledger entry.
func DecodeOperationData[T any](info *domain.OperationExecutionInfo) (T, error) {
	var data T
	if len(info.Data) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(info.Data, &data); err != nil {
		return data, fmt.Errorf("%w: %s data: %v", domain.ErrSchemaViolation, info.Key(), err)
	}
	return data, nil
}

// logDropped records an ignored redelivery. It returns nil for ErrInvalidTransition and
// ErrOperationNotFound so the transport acknowledges the message.
func logDropped(logger zerolog.Logger, err error, operationName, operationID, step string) error {
	if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrOperationNotFound) {
		logger.Warn().
			Err(err).
			Str("operation_name", operationName).
			Str("operation_id", operationID).
			Str("step", step).
			Msg("dropping out-of-order or redelivered message")
		return nil
	}
	return err
}
