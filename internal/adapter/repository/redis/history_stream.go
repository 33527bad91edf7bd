package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/iho/tradingaccounts/internal/domain"
)

// HistoryStream appends archived balance changes to a Redis stream for downstream consumers.
type HistoryStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewHistoryStream creates a HistoryStream writing to stream. maxLen caps the stream
// approximately; zero keeps every entry.
func NewHistoryStream(client *redis.Client, stream string, maxLen int64) *HistoryStream {
	return &HistoryStream{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Name implements usecase.HistorySink.
func (s *HistoryStream) Name() string {
	return "redis-stream"
}

// Write implements usecase.HistorySink.
func (s *HistoryStream) Write(ctx context.Context, record *domain.BalanceChange) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":            record.ID,
			"operation_id":  record.OperationID,
			"account_id":    record.AccountID,
			"change_amount": record.ChangeAmount.String(),
			"balance":       record.Balance.String(),
			"reason":        string(record.ReasonType),
			"record":        raw,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	return s.client.XAdd(ctx, args).Err()
}
