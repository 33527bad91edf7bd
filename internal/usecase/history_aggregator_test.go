package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/usecase"
	"github.com/iho/tradingaccounts/internal/usecase/mocks"
)

func TestHistoryAggregator_AllSinksSucceed(t *testing.T) {
	ctrl := gomock.NewController(t)
	record := &domain.BalanceChange{ID: "c1", OperationID: "op-1", AccountID: "acc-1"}

	first := mocks.NewMockHistorySink(ctrl)
	second := mocks.NewMockHistorySink(ctrl)
	first.EXPECT().Name().Return("postgres").AnyTimes()
	second.EXPECT().Name().Return("redis").AnyTimes()

	gomock.InOrder(
		first.EXPECT().Write(gomock.Any(), record).Return(nil),
		second.EXPECT().Write(gomock.Any(), record).Return(nil),
	)

	agg := usecase.NewHistoryAggregator(zerolog.Nop(), nil, first, second)

	require.NoError(t, agg.Write(context.Background(), record))
	assert.Equal(t, []string{"postgres", "redis"}, agg.Sinks())
}

func TestHistoryAggregator_AttemptsAllAndAggregates(t *testing.T) {
	ctrl := gomock.NewController(t)
	record := &domain.BalanceChange{ID: "c1", OperationID: "op-1", AccountID: "acc-1"}

	pgErr := errors.New("connection refused")
	auditErr := errors.New("write failed")

	pg := mocks.NewMockHistorySink(ctrl)
	rd := mocks.NewMockHistorySink(ctrl)
	audit := mocks.NewMockHistorySink(ctrl)
	pg.EXPECT().Name().Return("postgres").AnyTimes()
	rd.EXPECT().Name().Return("redis").AnyTimes()
	audit.EXPECT().Name().Return("audit").AnyTimes()

	pg.EXPECT().Write(gomock.Any(), record).Return(pgErr)
	rd.EXPECT().Write(gomock.Any(), record).Return(nil)
	audit.EXPECT().Write(gomock.Any(), record).Return(auditErr)

	agg := usecase.NewHistoryAggregator(zerolog.Nop(), nil, pg, rd, audit)
	err := agg.Write(context.Background(), record)

	require.Error(t, err)
	assert.True(t, usecase.IsPartialWrite(err))
	assert.ErrorIs(t, err, pgErr)
	assert.ErrorIs(t, err, auditErr)

	var partial *usecase.PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"redis"}, partial.Succeeded)
	require.Len(t, partial.Failures, 2)
	assert.Equal(t, "postgres", partial.Failures[0].Sink)
	assert.Equal(t, "audit", partial.Failures[1].Sink)
	assert.Contains(t, err.Error(), "2 of 3 sinks failed")
}

func TestHistoryAggregator_NoSinks(t *testing.T) {
	agg := usecase.NewHistoryAggregator(zerolog.Nop(), nil)
	assert.NoError(t, agg.Write(context.Background(), &domain.BalanceChange{ID: "c1"}))
}
