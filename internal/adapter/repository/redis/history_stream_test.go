package redis

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/tradingaccounts/internal/domain"
)

func TestHistoryStream_Write(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	sink := NewHistoryStream(client, "balance-history", 1000)
	ctx := context.Background()

	err := sink.Write(ctx, &domain.BalanceChange{
		ID:           "c-1",
		OperationID:  "op-1",
		AccountID:    "acc-1",
		ChangeAmount: decimal.NewFromInt(50),
		Balance:      decimal.NewFromInt(150),
		ReasonType:   domain.ReasonDeposit,
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	entries, err := client.XRange(ctx, "balance-history", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(entries))
	}

	values := entries[0].Values
	if values["operation_id"] != "op-1" || values["balance"] != "150" || values["reason"] != "Deposit" {
		t.Fatalf("unexpected stream entry: %v", values)
	}
	if sink.Name() != "redis-stream" {
		t.Fatalf("unexpected sink name %q", sink.Name())
	}
}
