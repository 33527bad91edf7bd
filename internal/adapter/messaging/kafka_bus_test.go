package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/tradingaccounts/internal/domain"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

// fakeReader serves queued messages once, then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	drained   chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{queue: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	if len(r.queue) == 0 {
		select {
		case <-r.drained:
		default:
			close(r.drained)
		}
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func testKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers:             []string{"localhost:9092"},
		GroupID:             "accounts",
		CommandsTopicPrefix: "commands.",
		EventsTopic:         "accounts.events",
		Workers:             1,
	}
}

func newTestKafkaBus(t *testing.T, r *Router, w *fakeWriter) *KafkaBus {
	t.Helper()
	bus := NewKafkaBus(testKafkaConfig(), r, zerolog.Nop())
	bus.writer = w
	return bus
}

func TestKafkaBus_SendCommandUsesContextTopic(t *testing.T) {
	r, _ := newTestRouter()
	w := &fakeWriter{}
	bus := newTestKafkaBus(t, r, w)

	require.NoError(t, bus.SendCommand(context.Background(), domain.CompleteDepositCommand{OperationID: "op-1"}, domain.BoundedContext))
	require.NoError(t, bus.PublishEvent(context.Background(), domain.DepositSucceededEvent{OperationID: "op-1"}))

	msgs := w.written()
	require.Len(t, msgs, 2)

	assert.Equal(t, "commands.accounts", msgs[0].Topic)
	assert.Equal(t, "op-1", string(msgs[0].Key))
	require.Len(t, msgs[0].Headers, 1)
	assert.Equal(t, messageTypeHeader, msgs[0].Headers[0].Key)
	assert.Equal(t, "CompleteDepositCommand", string(msgs[0].Headers[0].Value))

	assert.Equal(t, "accounts.events", msgs[1].Topic)
}

func TestKafkaBus_WriteFailureIsStoreUnavailable(t *testing.T) {
	r, _ := newTestRouter()
	bus := newTestKafkaBus(t, r, &fakeWriter{err: errors.New("broker down")})

	err := bus.PublishEvent(context.Background(), domain.DepositSucceededEvent{OperationID: "op-1"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestKafkaBus_HandleDeadLettersFailures(t *testing.T) {
	r, _ := newTestRouter()
	Handle(r, "broken", func(ctx context.Context, cmd domain.CompleteDepositCommand) error {
		return domain.ErrStoreUnavailable
	})

	w := &fakeWriter{}
	bus := newTestKafkaBus(t, r, w)

	good, err := buildKafkaMessage("commands.accounts", domain.CompleteDepositCommand{OperationID: "op-1"}, domain.BoundedContext)
	require.NoError(t, err)
	good.Offset = 7

	require.NoError(t, bus.handle(context.Background(), good))
	require.NoError(t, bus.handle(context.Background(), kafka.Message{Topic: "commands.accounts", Value: []byte("garbage")}))

	msgs := w.written()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, "commands.accounts.dlq", m.Topic)
	}
	assert.Equal(t, "op-1", string(msgs[0].Key))
}

func TestKafkaBus_RunConsumesAndCommits(t *testing.T) {
	r, _ := newTestRouter()

	handled := make(chan string, 1)
	Handle(r, "capture", func(ctx context.Context, cmd domain.CompleteDepositCommand) error {
		handled <- cmd.OperationID
		return nil
	})

	msg, err := buildKafkaMessage("commands.accounts", domain.CompleteDepositCommand{OperationID: "op-9"}, domain.BoundedContext)
	require.NoError(t, err)

	readers := map[string]*fakeReader{
		"commands.accounts": newFakeReader(msg),
		"accounts.events":   newFakeReader(),
	}

	bus := newTestKafkaBus(t, r, &fakeWriter{})
	bus.newReader = func(topic string) messageReader { return readers[topic] }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Run(ctx) }()

	assert.Equal(t, "op-9", <-handled)
	<-readers["commands.accounts"].drained
	cancel()

	require.NoError(t, <-done)
	assert.Len(t, readers["commands.accounts"].committed, 1)
}

func TestDeadLetterTopic(t *testing.T) {
	assert.Equal(t, "accounts.events.dlq", DeadLetterTopic("accounts.events"))
	assert.Equal(t, "commands.accounts", testKafkaConfig().CommandsTopic("accounts"))
}

func TestKafkaBus_PingUnreachable(t *testing.T) {
	r, _ := newTestRouter()
	cfg := testKafkaConfig()
	cfg.Brokers = []string{"127.0.0.1:1"}
	bus := NewKafkaBus(cfg, r, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.ErrorIs(t, bus.Ping(ctx), domain.ErrStoreUnavailable)
}
