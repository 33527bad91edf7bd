package auditlog

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/tradingaccounts/internal/domain"
)

func TestSinkWrite(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(zerolog.New(&buf))
	sink.newID = func() string { return "audit-1" }

	err := sink.Write(context.Background(), &domain.BalanceChange{
		ID:           "c-1",
		OperationID:  "op-1",
		AccountID:    "acc-1",
		ChangeAmount: decimal.RequireFromString("-12.5"),
		Balance:      decimal.RequireFromString("87.5"),
		ReasonType:   domain.ReasonRealizedPnL,
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "audit", entry["component"])
	assert.Equal(t, "audit-1", entry["audit_id"])
	assert.Equal(t, "op-1", entry["operation_id"])
	assert.Equal(t, "-12.5", entry["change_amount"])
	assert.Equal(t, "RealizedPnL", entry["reason"])
	assert.Equal(t, "audit-log", sink.Name())
}

func TestSinkWriteCancelled(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(zerolog.New(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.Write(ctx, &domain.BalanceChange{ID: "c-1"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}
