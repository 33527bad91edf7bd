// Package auditlog archives balance changes as structured audit log lines.
package auditlog

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iho/tradingaccounts/internal/domain"
)

// Sink implements usecase.HistorySink by emitting one audit event per balance change.
type Sink struct {
	logger zerolog.Logger
	newID  func() string
}

// NewSink creates a new Sink. Events go to logger at info level with component=audit.
func NewSink(logger zerolog.Logger) *Sink {
	return &Sink{
		logger: logger.With().Str("component", "audit").Logger(),
		newID:  func() string { return uuid.New().String() },
	}
}

// Name implements usecase.HistorySink.
func (s *Sink) Name() string {
	return "audit-log"
}

// Write implements usecase.HistorySink.
func (s *Sink) Write(ctx context.Context, record *domain.BalanceChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Info().
		Str("audit_id", s.newID()).
		Str("action", "balance_change").
		Str("change_id", record.ID).
		Str("operation_id", record.OperationID).
		Str("account_id", record.AccountID).
		Str("client_id", record.ClientID).
		Str("reason", string(record.ReasonType)).
		Str("change_amount", record.ChangeAmount.String()).
		Str("balance", record.Balance.String()).
		Str("event_source_id", record.EventSourceID).
		Time("change_timestamp", record.ChangeTimestamp).
		Msg("balance change archived")

	return nil
}
