package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/iho/tradingaccounts/internal/domain"
)

const messageTypeHeader = "message-type"

// KafkaConfig configures KafkaBus.
type KafkaConfig struct {
	Brokers             []string
	GroupID             string
	CommandsTopicPrefix string
	EventsTopic         string
	Workers             int
	MaxAttempts         int
	SessionTimeout      time.Duration
}

// CommandsTopic returns the topic commands for targetContext are written to.
func (c KafkaConfig) CommandsTopic(targetContext string) string {
	return c.CommandsTopicPrefix + targetContext
}

// DeadLetterTopic returns the dead-letter topic of topic.
func DeadLetterTopic(topic string) string {
	return topic + ".dlq"
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaBus publishes envelopes to Kafka and consumes the accounts command and event topics.
// The message key is the operation key so all messages of one operation share a partition.
type KafkaBus struct {
	cfg    KafkaConfig
	writer messageWriter
	router *Router
	logger zerolog.Logger

	newReader func(topic string) messageReader
}

// NewKafkaBus creates a new KafkaBus.
func NewKafkaBus(cfg KafkaConfig, router *Router, logger zerolog.Logger) *KafkaBus {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxAttempts,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
	}

	bus := &KafkaBus{
		cfg:    cfg,
		writer: writer,
		router: router,
		logger: logger,
	}
	bus.newReader = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			Topic:          topic,
			GroupID:        cfg.GroupID,
			SessionTimeout: cfg.SessionTimeout,
			StartOffset:    kafka.FirstOffset,
			MaxBytes:       10e6,
		})
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("group_id", cfg.GroupID).
		Msg("kafka bus created")

	return bus
}

// SendCommand implements usecase.MessageBus.
func (b *KafkaBus) SendCommand(ctx context.Context, command domain.Message, targetContext string) error {
	return b.write(ctx, b.cfg.CommandsTopic(targetContext), command, targetContext)
}

// PublishEvent implements usecase.MessageBus.
func (b *KafkaBus) PublishEvent(ctx context.Context, event domain.Message) error {
	return b.write(ctx, b.cfg.EventsTopic, event, "")
}

func (b *KafkaBus) write(ctx context.Context, topic string, msg domain.Message, targetContext string) error {
	km, err := buildKafkaMessage(topic, msg, targetContext)
	if err != nil {
		return err
	}

	if err := b.writer.WriteMessages(ctx, km); err != nil {
		b.logger.Error().
			Err(err).
			Str("topic", topic).
			Str("message_type", msg.MessageType()).
			Str("operation_id", msg.OperationKey()).
			Msg("failed to write kafka message")
		return fmt.Errorf("%w: kafka write: %v", domain.ErrStoreUnavailable, err)
	}

	b.logger.Debug().
		Str("topic", topic).
		Str("message_type", msg.MessageType()).
		Str("operation_id", msg.OperationKey()).
		Msg("kafka message sent")
	return nil
}

func buildKafkaMessage(topic string, msg domain.Message, targetContext string) (kafka.Message, error) {
	env, err := NewEnvelope(msg, targetContext)
	if err != nil {
		return kafka.Message{}, err
	}
	value, err := env.Encode()
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(env.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: messageTypeHeader, Value: []byte(env.Type)},
		},
	}, nil
}

// Run consumes the accounts command topic and the events topic with cfg.Workers readers each,
// until ctx is cancelled.
func (b *KafkaBus) Run(ctx context.Context) error {
	topics := []string{b.cfg.CommandsTopic(domain.BoundedContext), b.cfg.EventsTopic}

	var wg sync.WaitGroup
	errCh := make(chan error, len(topics)*b.cfg.Workers)

	for _, topic := range topics {
		for i := 0; i < b.cfg.Workers; i++ {
			wg.Add(1)
			go func(topic string, worker int) {
				defer wg.Done()
				if err := b.consume(ctx, topic, worker); err != nil {
					errCh <- err
				}
			}(topic, i)
		}
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (b *KafkaBus) consume(ctx context.Context, topic string, worker int) error {
	reader := b.newReader(topic)
	defer reader.Close()

	log := b.logger.With().Str("topic", topic).Int("worker", worker).Logger()
	log.Info().Msg("kafka consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("kafka consumer stopped")
				return nil
			}
			return fmt.Errorf("fetch from %s: %w", topic, err)
		}

		if err := b.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit %s@%d: %w", topic, msg.Offset, err)
		}
	}
}

// handle processes one fetched message. A message that cannot be processed is written to the
// dead-letter topic so the partition keeps moving; only a dead-letter write failure is returned.
func (b *KafkaBus) handle(ctx context.Context, msg kafka.Message) error {
	env, err := DecodeEnvelope(msg.Value)
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("topic", msg.Topic).
			Int64("offset", msg.Offset).
			Msg("undecodable message")
		return b.deadLetter(ctx, msg, err)
	}

	if err := b.router.Process(ctx, env); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return b.deadLetter(ctx, msg, err)
	}
	return nil
}

func (b *KafkaBus) deadLetter(ctx context.Context, msg kafka.Message, cause error) error {
	dlq := kafka.Message{
		Topic: DeadLetterTopic(msg.Topic),
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(append([]kafka.Header(nil), msg.Headers...),
			kafka.Header{Key: "failure-reason", Value: []byte(cause.Error())},
			kafka.Header{Key: "original-offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
		),
	}

	if err := b.writer.WriteMessages(ctx, dlq); err != nil {
		return fmt.Errorf("dead-letter %s@%d: %w", msg.Topic, msg.Offset, err)
	}

	b.logger.Warn().
		Err(cause).
		Str("topic", msg.Topic).
		Int64("offset", msg.Offset).
		Str("key", string(msg.Key)).
		Msg("message sent to dead-letter topic")
	return nil
}

// Ping dials the first reachable broker.
func (b *KafkaBus) Ping(ctx context.Context) error {
	var errs []error
	for _, broker := range b.cfg.Brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return conn.Close()
	}
	if len(errs) == 0 {
		return errors.New("no kafka brokers configured")
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, errors.Join(errs...))
}

// Close flushes and closes the producer.
func (b *KafkaBus) Close() error {
	return b.writer.Close()
}
