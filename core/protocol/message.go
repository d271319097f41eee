package protocol

import (
	"encoding/json"

	"github.com/dmitrymomot/pubsub/core/broker"
)

// Inbound message type discriminators.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePublish     = "publish"
	TypePing        = "ping"
)

// Outbound message type discriminators.
const (
	TypeAck   = "ack"
	TypeError = "error"
	TypeEvent = "event"
	TypePong  = "pong"
	TypeInfo  = "info"
)

// Wire error codes.
const (
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeTopicNotFound  = "TOPIC_NOT_FOUND"
	CodeConsumerSlow   = "CONSUMER_IS_SLOW"
	CodeInternalError  = "INTERNAL_ERROR"
)

// ClientMessage is the decoded form of any inbound request. All four
// request kinds share one flat shape; which fields are meaningful depends
// on Type, validated by the dispatcher.
type ClientMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Topic     string          `json:"topic,omitempty"`
	ClientID  string          `json:"client_id,omitempty"`
	LastN     int             `json:"last_n,omitempty"`
	Message   *PublishMessage `json:"message,omitempty"`
}

// PublishMessage is the message body of a publish request. The payload is
// forwarded to subscribers unmodified.
type PublishMessage struct {
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// AckResponse confirms a successfully handled request.
type AckResponse struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// NewAck builds an ack correlated to the given request ID.
func NewAck(message, requestID string) AckResponse {
	return AckResponse{
		Type:      TypeAck,
		RequestID: requestID,
		Status:    "success",
		Message:   message,
	}
}

// ErrorResponse reports a failed request.
type ErrorResponse struct {
	Type      string         `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewError builds an error response with the given wire code.
func NewError(code, message, requestID string) ErrorResponse {
	return ErrorResponse{
		Type:      TypeError,
		RequestID: requestID,
		Code:      code,
		Message:   message,
	}
}

// EventResponse carries a published message to a subscriber. Events are
// pushes, not replies, so they carry no correlation token.
type EventResponse struct {
	Type    string                  `json:"type"`
	Topic   string                  `json:"topic"`
	Message *broker.MessageEnvelope `json:"message"`
}

// NewEvent wraps an envelope for delivery to subscribers of the topic.
func NewEvent(topic string, env *broker.MessageEnvelope) EventResponse {
	return EventResponse{
		Type:    TypeEvent,
		Topic:   topic,
		Message: env,
	}
}

// PongResponse answers a ping with the current server time in Unix
// milliseconds.
type PongResponse struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// NewPong builds a pong correlated to the given request ID.
func NewPong(timestamp int64, requestID string) PongResponse {
	return PongResponse{
		Type:      TypePong,
		RequestID: requestID,
		Timestamp: timestamp,
	}
}

// InfoResponse is a server-initiated informational notice.
type InfoResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewInfo builds an informational notice.
func NewInfo(message string, data any) InfoResponse {
	return InfoResponse{
		Type:    TypeInfo,
		Message: message,
		Data:    data,
	}
}
