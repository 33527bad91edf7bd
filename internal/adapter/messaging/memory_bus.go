package messaging

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iho/tradingaccounts/internal/domain"
)

// DeadLetter is a message that still failed after all retries.
type DeadLetter struct {
	Envelope Envelope
	Err      error
}

// MemoryBus is an in-process FIFO bus. Messages are serialized to envelopes exactly as on the
// wire, so handlers see the same decoding as with Kafka.
type MemoryBus struct {
	router *Router
	logger zerolog.Logger

	mu          sync.Mutex
	queue       []Envelope
	log         []Envelope
	deadLetters []DeadLetter
	notify      chan struct{}
}

// NewMemoryBus creates a new MemoryBus delivering through router.
func NewMemoryBus(router *Router, logger zerolog.Logger) *MemoryBus {
	return &MemoryBus{
		router: router,
		logger: logger,
		notify: make(chan struct{}, 1),
	}
}

// SendCommand implements usecase.MessageBus.
func (b *MemoryBus) SendCommand(ctx context.Context, command domain.Message, targetContext string) error {
	env, err := NewEnvelope(command, targetContext)
	if err != nil {
		return err
	}
	b.enqueue(env)
	return nil
}

// PublishEvent implements usecase.MessageBus.
func (b *MemoryBus) PublishEvent(ctx context.Context, event domain.Message) error {
	env, err := NewEnvelope(event, "")
	if err != nil {
		return err
	}
	b.enqueue(env)
	return nil
}

// Redeliver re-enqueues env as an at-least-once transport would.
func (b *MemoryBus) Redeliver(env Envelope) {
	b.enqueue(env)
}

func (b *MemoryBus) enqueue(env Envelope) {
	b.mu.Lock()
	b.queue = append(b.queue, env)
	b.log = append(b.log, env)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *MemoryBus) next() (Envelope, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return Envelope{}, false
	}
	env := b.queue[0]
	b.queue = b.queue[1:]
	return env, true
}

// Drain processes queued messages, including ones produced while draining, until the queue is
// empty. Messages that still fail are moved to the dead-letter list and reported.
func (b *MemoryBus) Drain(ctx context.Context) error {
	var errs []error
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		env, ok := b.next()
		if !ok {
			break
		}

		if err := b.router.Process(ctx, env); err != nil {
			b.logger.Error().
				Err(err).
				Str("message_type", env.Type).
				Str("operation_id", env.Key).
				Msg("message moved to dead letters")

			b.mu.Lock()
			b.deadLetters = append(b.deadLetters, DeadLetter{Envelope: env, Err: err})
			b.mu.Unlock()

			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run drains the queue whenever a message arrives until ctx is cancelled.
func (b *MemoryBus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.notify:
			if err := b.Drain(ctx); err != nil && ctx.Err() == nil {
				b.logger.Warn().Err(err).Msg("drain finished with failures")
			}
		}
	}
}

// Sent returns every envelope ever enqueued, in order.
func (b *MemoryBus) Sent() []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Envelope(nil), b.log...)
}

// SentOfType returns sent envelopes of one message type.
func (b *MemoryBus) SentOfType(messageType string) []Envelope {
	var out []Envelope
	for _, env := range b.Sent() {
		if env.Type == messageType {
			out = append(out, env)
		}
	}
	return out
}

// DeadLetters returns messages that exhausted their retries.
func (b *MemoryBus) DeadLetters() []DeadLetter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DeadLetter(nil), b.deadLetters...)
}
