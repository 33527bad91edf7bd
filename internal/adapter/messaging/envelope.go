package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/iho/tradingaccounts/internal/domain"
)

// Envelope is the wire form of every bus message.
type Envelope struct {
	Type    string          `json:"type"`
	Key     string          `json:"key"`
	Context string          `json:"context,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// NewEnvelope wraps msg. targetContext is empty for events.
func NewEnvelope(msg domain.Message, targetContext string) (Envelope, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", msg.MessageType(), err)
	}

	return Envelope{
		Type:    msg.MessageType(),
		Key:     msg.OperationKey(),
		Context: targetContext,
		Payload: payload,
	}, nil
}

// Encode returns the JSON bytes of the envelope.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses raw bytes. Malformed input is reported as ErrSchemaViolation.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", domain.ErrSchemaViolation, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing message type", domain.ErrSchemaViolation)
	}
	return env, nil
}
