package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iho/tradingaccounts/internal/domain"
)

// NewClient connects to redisURL and verifies the server answers. An unreachable server
// yields domain.ErrStoreUnavailable.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := ReadinessCheck(client)(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// ReadinessCheck returns a readiness check for the ledger and history stream client.
func ReadinessCheck(client redis.UniversalClient) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("%w: redis ping: %w", domain.ErrStoreUnavailable, err)
		}
		return nil
	}
}
