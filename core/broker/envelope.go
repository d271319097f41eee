package broker

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageEnvelope is a published message as it travels through the broker.
// The payload is carried opaque and forwarded to subscribers unmodified.
// Envelopes are immutable once created and shared by reference between the
// topic history, the delivery queue, and every delivered copy.
type MessageEnvelope struct {
	ID          string          `json:"id"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt int64           `json:"published_at"` // Unix milliseconds, stamped by the engine
}

// NewMessageEnvelope builds an envelope with the publish timestamp set to
// now. When id is empty a random unique one is generated.
func NewMessageEnvelope(id string, payload json.RawMessage) *MessageEnvelope {
	if id == "" {
		id = uuid.NewString()
	}
	return &MessageEnvelope{
		ID:          id,
		Payload:     payload,
		PublishedAt: time.Now().UnixMilli(),
	}
}
