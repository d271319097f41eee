package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/pubsub/core/broker"
)

// Dispatcher parses inbound wire messages, validates them, drives the
// delivery engine, and renders responses back to the originating
// connection. It also tracks which client ID each connection announced so
// subscriptions can be purged when the connection closes.
type Dispatcher struct {
	engine *broker.DeliveryEngine
	log    *slog.Logger

	mu      sync.Mutex
	clients map[broker.Conn]string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher's structured logger. Defaults to a
// discard logger.
func WithLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// NewDispatcher creates a dispatcher bound to the given delivery engine.
func NewDispatcher(engine *broker.DeliveryEngine, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		engine:  engine,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		clients: make(map[broker.Conn]string),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// HandleConnect registers a freshly opened connection.
func (d *Dispatcher) HandleConnect(conn broker.Conn) {
	d.log.Debug("connection established")
}

// HandleClose purges all subscriptions held by the client that announced
// itself on this connection. Safe to call for connections that never
// subscribed, and idempotent.
func (d *Dispatcher) HandleClose(conn broker.Conn) {
	d.mu.Lock()
	clientID, ok := d.clients[conn]
	delete(d.clients, conn)
	d.mu.Unlock()

	if ok {
		d.engine.RemoveAllSubscriptions(clientID)
		d.log.Info("removed all subscriptions on close", "client_id", clientID)
	}
}

// HandleMessage decodes one inbound frame and dispatches it. Exactly one
// correlated response is sent back over conn; publish additionally
// broadcasts an event to every subscriber of the topic.
func (d *Dispatcher) HandleMessage(conn broker.Conn, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		d.log.Warn("failed to decode message", "error", err)
		d.sendError(conn, CodeInvalidMessage, "failed to decode message", "")
		return
	}

	switch msg.Type {
	case TypeSubscribe:
		d.handleSubscribe(conn, msg)
	case TypeUnsubscribe:
		d.handleUnsubscribe(conn, msg)
	case TypePublish:
		d.handlePublish(conn, msg)
	case TypePing:
		d.handlePing(conn, msg)
	case "":
		d.sendError(conn, CodeInvalidMessage, "message type is required", msg.RequestID)
	default:
		d.sendError(conn, CodeInvalidMessage, "unknown message type: "+msg.Type, msg.RequestID)
	}
}

func (d *Dispatcher) handleSubscribe(conn broker.Conn, msg ClientMessage) {
	if msg.Topic == "" {
		d.sendError(conn, CodeInvalidRequest, "topic name is required", msg.RequestID)
		return
	}
	if msg.ClientID == "" {
		d.sendError(conn, CodeInvalidRequest, "client ID is required", msg.RequestID)
		return
	}

	// Remember the client ID for cleanup when the connection closes.
	d.mu.Lock()
	d.clients[conn] = msg.ClientID
	d.mu.Unlock()

	if _, err := d.engine.Subscribe(msg.Topic, msg.ClientID, conn); err != nil {
		d.sendEngineError(conn, err, "failed to subscribe", msg.RequestID)
		return
	}

	d.send(conn, NewAck("Subscribed to topic: "+msg.Topic, msg.RequestID))

	// Replay requested history after the ack, oldest first.
	if msg.LastN > 0 {
		history, err := d.engine.History(msg.Topic, msg.LastN)
		if err != nil {
			d.log.Error("failed to fetch history", "topic", msg.Topic, "error", err)
			return
		}
		for _, env := range history {
			d.send(conn, NewEvent(msg.Topic, env))
		}
	}
}

func (d *Dispatcher) handleUnsubscribe(conn broker.Conn, msg ClientMessage) {
	if msg.Topic == "" {
		d.sendError(conn, CodeInvalidRequest, "topic name is required", msg.RequestID)
		return
	}
	if msg.ClientID == "" {
		d.sendError(conn, CodeInvalidRequest, "client ID is required", msg.RequestID)
		return
	}

	// Unsubscribe is idempotent: a client that was never subscribed still
	// gets an ack; only a missing topic is an error.
	if err := d.engine.Unsubscribe(msg.Topic, msg.ClientID); err != nil {
		d.sendEngineError(conn, err, "failed to unsubscribe", msg.RequestID)
		return
	}

	d.send(conn, NewAck("Unsubscribed from topic: "+msg.Topic, msg.RequestID))
}

func (d *Dispatcher) handlePublish(conn broker.Conn, msg ClientMessage) {
	if msg.Topic == "" {
		d.sendError(conn, CodeInvalidRequest, "topic name is required", msg.RequestID)
		return
	}
	if msg.Message == nil || len(msg.Message.Payload) == 0 {
		d.sendError(conn, CodeInvalidRequest, "message payload is required", msg.RequestID)
		return
	}

	env, err := d.engine.Publish(msg.Topic, msg.Message.ID, msg.Message.Payload)
	if err != nil {
		var overflow *broker.QueueOverflowError
		if errors.As(err, &overflow) {
			d.handleOverflow(conn, overflow, msg.RequestID)
			return
		}
		d.sendEngineError(conn, err, "failed to publish message", msg.RequestID)
		return
	}

	d.send(conn, NewAck("Message published to topic: "+msg.Topic, msg.RequestID))
	d.broadcast(msg.Topic, env)
}

// handleOverflow reports backpressure to the publisher and shuts the topic
// down as a protective measure so it stops admitting messages until
// explicitly resumed.
func (d *Dispatcher) handleOverflow(conn broker.Conn, overflow *broker.QueueOverflowError, requestID string) {
	d.log.Warn("queue overflow",
		"topic", overflow.Topic, "size", overflow.Size, "capacity", overflow.Capacity)

	resp := NewError(CodeConsumerSlow, fmt.Sprintf(
		"Topic queue is full (%d/%d messages). Consumers are slow. Topic has stopped accepting new messages.",
		overflow.Size, overflow.Capacity), requestID)
	resp.Details = map[string]any{
		"topic":    overflow.Topic,
		"size":     overflow.Size,
		"capacity": overflow.Capacity,
	}
	d.send(conn, resp)

	if err := d.engine.InitiateGracefulShutdown(overflow.Topic); err != nil {
		d.log.Error("failed to initiate graceful shutdown", "topic", overflow.Topic, "error", err)
	}
}

func (d *Dispatcher) handlePing(conn broker.Conn, msg ClientMessage) {
	d.send(conn, NewPong(time.Now().UnixMilli(), msg.RequestID))
}

// broadcast pushes the event to every current subscriber of the topic.
// Delivery is best effort: a failed send is logged and does not abort
// delivery to the remaining subscribers.
func (d *Dispatcher) broadcast(topic string, env *broker.MessageEnvelope) {
	subscribers := d.engine.Subscribers(topic)
	if len(subscribers) == 0 {
		return
	}

	data, err := json.Marshal(NewEvent(topic, env))
	if err != nil {
		d.log.Error("failed to marshal event", "topic", topic, "error", err)
		return
	}

	for clientID, sub := range subscribers {
		if err := sub.Conn.Send(data); err != nil {
			d.log.Error("failed to send event to subscriber",
				"client_id", clientID, "topic", topic, "error", err)
		}
	}
}

// sendEngineError translates an engine failure into a wire error code.
func (d *Dispatcher) sendEngineError(conn broker.Conn, err error, context, requestID string) {
	if errors.Is(err, broker.ErrTopicNotFound) {
		d.sendError(conn, CodeTopicNotFound, err.Error(), requestID)
		return
	}
	d.log.Error(context, "error", err)
	d.sendError(conn, CodeInternalError, context+": "+err.Error(), requestID)
}

func (d *Dispatcher) sendError(conn broker.Conn, code, message, requestID string) {
	d.send(conn, NewError(code, message, requestID))
}

func (d *Dispatcher) send(conn broker.Conn, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		d.log.Error("failed to marshal response", "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		d.log.Error("failed to send response", "error", err)
	}
}
