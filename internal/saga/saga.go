// Package saga holds the workflow sagas. Each saga is a set of pure reactions mapping one event
// to at most one follow-up command; delivery is done by Emitter.
package saga

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/infrastructure/metrics"
	"github.com/iho/tradingaccounts/internal/usecase"
)

// Clock returns the current time. Sagas that stamp commands take one so they stay deterministic in tests.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return UTCNow()
	}
	return c()
}

// UTCNow is the production clock.
func UTCNow() time.Time {
	return time.Now().UTC()
}

// Emitter sends saga commands to the accounts context.
type Emitter struct {
	bus     usecase.MessageBus
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewEmitter creates a new Emitter.
func NewEmitter(bus usecase.MessageBus, logger zerolog.Logger, m *metrics.Metrics) *Emitter {
	return &Emitter{
		bus:     bus,
		logger:  logger,
		metrics: m,
	}
}

// Emit sends cmd when ok is true. Events a saga does not react to are acknowledged silently.
func (e *Emitter) Emit(ctx context.Context, sagaName string, cmd domain.Message, ok bool) error {
	if !ok {
		return nil
	}

	if err := e.bus.SendCommand(ctx, cmd, domain.BoundedContext); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.SagaCommands.WithLabelValues(sagaName, cmd.MessageType()).Inc()
	}

	e.logger.Debug().
		Str("saga", sagaName).
		Str("message_type", cmd.MessageType()).
		Str("operation_id", cmd.OperationKey()).
		Msg("saga command sent")

	return nil
}
