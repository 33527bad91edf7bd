package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/tradingaccounts/internal/domain"
	"github.com/iho/tradingaccounts/internal/infrastructure/metrics"
)

// HandlerFunc processes the raw payload of one message type.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

type route struct {
	name    string
	handler HandlerFunc
}

// RetryPolicy bounds redelivery of a failing message inside one process.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy is used when NewRouter receives a zero policy.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      5,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

// Router is the explicit registration table mapping message types to handlers.
type Router struct {
	mu      sync.RWMutex
	routes  map[string][]route
	retry   RetryPolicy
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewRouter creates an empty Router.
func NewRouter(logger zerolog.Logger, m *metrics.Metrics, policy RetryPolicy) *Router {
	if policy.InitialInterval <= 0 {
		policy = DefaultRetryPolicy
	}
	return &Router{
		routes:  make(map[string][]route),
		retry:   policy,
		logger:  logger,
		metrics: m,
	}
}

// Subscribe registers handler for messageType. Several handlers may share a type; they run in
// registration order.
func (r *Router) Subscribe(messageType, name string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[messageType] = append(r.routes[messageType], route{name: name, handler: handler})
}

// Handle registers a typed handler for T.
func Handle[T domain.Message](r *Router, name string, fn func(ctx context.Context, msg T) error) {
	var zero T
	r.Subscribe(zero.MessageType(), name, func(ctx context.Context, payload json.RawMessage) error {
		var msg T
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrSchemaViolation, zero.MessageType(), err)
		}
		return fn(ctx, msg)
	})
}

// Routes lists registered "MessageType -> handler" pairs, sorted by message type.
func (r *Router) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.routes))
	for t := range r.routes {
		types = append(types, t)
	}
	sort.Strings(types)

	var out []string
	for _, t := range types {
		for _, rt := range r.routes[t] {
			out = append(out, t+" -> "+rt.name)
		}
	}
	return out
}

// Dispatch delivers env to every handler of its type once. Malformed messages are logged and
// acknowledged; other handler errors are joined and returned for redelivery.
func (r *Router) Dispatch(ctx context.Context, env Envelope) error {
	r.mu.RLock()
	routes := r.routes[env.Type]
	r.mu.RUnlock()

	log := r.logger.With().
		Str("message_type", env.Type).
		Str("operation_id", env.Key).
		Logger()

	if len(routes) == 0 {
		log.Debug().Msg("no handler registered, acknowledging")
		r.count(env.Type, "unrouted")
		return nil
	}

	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.BusHandleDuration.WithLabelValues(env.Type).Observe(time.Since(start).Seconds())
		}
	}()

	var errs []error
	for _, rt := range routes {
		err := rt.handler(ctx, env.Payload)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrSchemaViolation):
			log.Error().Err(err).Str("handler", rt.name).Msg("dropping malformed message")
			r.count(env.Type, "dropped")
		default:
			errs = append(errs, fmt.Errorf("%s: %w", rt.name, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	r.count(env.Type, "handled")
	return nil
}

// Process dispatches env, retrying transient failures with exponential backoff.
func (r *Router) Process(ctx context.Context, env Envelope) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retry.InitialInterval
	b.MaxInterval = r.retry.MaxInterval
	b.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		err := r.Dispatch(ctx, env)
		if err == nil {
			return nil
		}

		attempt++
		if attempt > r.retry.MaxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Warn().
			Err(err).
			Str("message_type", env.Type).
			Str("operation_id", env.Key).
			Int("retry", attempt).
			Msg("message handling failed, retrying")
		r.count(env.Type, "retried")

		return err
	}, backoff.WithContext(b, ctx))

	if err != nil {
		r.count(env.Type, "failed")
	}
	return err
}

func (r *Router) count(messageType, result string) {
	if r.metrics != nil {
		r.metrics.BusMessages.WithLabelValues(messageType, result).Inc()
	}
}
