package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/infrastructure/postgres/generated"
)

// HistorySink archives balance changes into the balance_history table. Rewrites of the same
// record are ignored.
type HistorySink struct {
	queries *generated.Queries
	now     func() time.Time
}

// NewHistorySink creates a new HistorySink.
func NewHistorySink(db generated.DBTX) *HistorySink {
	return &HistorySink{
		queries: generated.New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Name implements usecase.HistorySink.
func (s *HistorySink) Name() string {
	return "postgres"
}

// Write implements usecase.HistorySink.
func (s *HistorySink) Write(ctx context.Context, record *domain.BalanceChange) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return s.queries.InsertBalanceHistory(ctx, generated.InsertBalanceHistoryParams{
		ID:              record.ID,
		OperationID:     record.OperationID,
		AccountID:       record.AccountID,
		ChangeTimestamp: timeToPgTimestamptz(record.ChangeTimestamp),
		ChangeAmount:    decimalToNumeric(record.ChangeAmount),
		Balance:         decimalToNumeric(record.Balance),
		ReasonType:      string(record.ReasonType),
		EventSourceID:   record.EventSourceID,
		Record:          raw,
		ArchivedAt:      timeToPgTimestamptz(s.now()),
	})
}
