package broker

import (
	"encoding/json"
	"io"
	"log/slog"
)

// DeliveryEngine orchestrates subscribe/unsubscribe/publish against a
// TopicRegistry. Each topic's own subscriber map is the single source of
// truth for subscriptions; the engine holds no index of its own and reads
// through the registry.
type DeliveryEngine struct {
	registry *TopicRegistry
	log      *slog.Logger
}

// EngineOption configures a DeliveryEngine.
type EngineOption func(*DeliveryEngine)

// WithLogger sets the engine's structured logger. Defaults to a discard
// logger.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *DeliveryEngine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewDeliveryEngine creates an engine bound to the given registry.
func NewDeliveryEngine(registry *TopicRegistry, opts ...EngineOption) *DeliveryEngine {
	e := &DeliveryEngine{
		registry: registry,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Subscribe registers the client on the topic, replacing any prior
// subscription it held there. History replay, when requested, is driven by
// the protocol layer after this call returns.
func (e *DeliveryEngine) Subscribe(topicName, clientID string, conn Conn) (*Subscription, error) {
	topic, err := e.registry.Get(topicName)
	if err != nil {
		return nil, err
	}

	sub := newSubscription(clientID, topicName, conn)
	topic.addSubscriber(sub)

	e.log.Info("client subscribed", "client_id", clientID, "topic", topicName)
	return sub, nil
}

// Unsubscribe removes the client's subscription from the topic. Removing a
// client that was never subscribed is a silent no-op; only a missing topic
// is an error.
func (e *DeliveryEngine) Unsubscribe(topicName, clientID string) error {
	topic, err := e.registry.Get(topicName)
	if err != nil {
		return err
	}

	if topic.removeSubscriber(clientID) {
		e.log.Info("client unsubscribed", "client_id", clientID, "topic", topicName)
	}
	return nil
}

// Publish admits a message into the topic. The message ID is generated when
// empty and the publish timestamp is assigned here, not by the publisher.
// A message that cannot be enqueued is never recorded in history or
// counted. The returned error is ErrTopicNotFound or *QueueOverflowError.
func (e *DeliveryEngine) Publish(topicName, messageID string, payload json.RawMessage) (*MessageEnvelope, error) {
	topic, err := e.registry.Get(topicName)
	if err != nil {
		return nil, err
	}

	if !topic.IsAccepting() {
		e.log.Warn("topic is not accepting messages", "topic", topicName)
		return nil, &QueueOverflowError{
			Topic:    topicName,
			Size:     topic.QueueSize(),
			Capacity: topic.QueueCapacity(),
		}
	}

	env := NewMessageEnvelope(messageID, payload)

	if !topic.Offer(env) {
		e.log.Warn("message rejected, queue overflow", "topic", topicName, "message_id", env.ID)
		return nil, &QueueOverflowError{
			Topic:    topicName,
			Size:     topic.QueueSize(),
			Capacity: topic.QueueCapacity(),
		}
	}

	topic.AddToHistory(env)

	e.log.Debug("message published", "topic", topicName, "message_id", env.ID)
	return env, nil
}

// RemoveAllSubscriptions purges the client from every topic. Called by the
// transport layer when a connection closes; safe to call repeatedly and for
// clients that never subscribed.
func (e *DeliveryEngine) RemoveAllSubscriptions(clientID string) {
	for _, topic := range e.registry.List() {
		if topic.removeSubscriber(clientID) {
			e.log.Info("removed subscription on disconnect", "client_id", clientID, "topic", topic.Name())
		}
	}
}

// Subscribers returns a snapshot of the topic's subscribers keyed by client
// ID, or nil when the topic does not exist.
func (e *DeliveryEngine) Subscribers(topicName string) map[string]*Subscription {
	topic, err := e.registry.Get(topicName)
	if err != nil {
		return nil
	}
	return topic.Subscribers()
}

// History returns up to lastN most recent messages of the topic, oldest
// first.
func (e *DeliveryEngine) History(topicName string, lastN int) ([]*MessageEnvelope, error) {
	topic, err := e.registry.Get(topicName)
	if err != nil {
		return nil, err
	}
	return topic.LastN(lastN), nil
}

// InitiateGracefulShutdown stops the topic from admitting new messages.
// Existing subscriptions and queued work are left intact.
func (e *DeliveryEngine) InitiateGracefulShutdown(topicName string) error {
	topic, err := e.registry.Get(topicName)
	if err != nil {
		return err
	}

	topic.StopAccepting()
	e.log.Warn("initiated graceful shutdown, topic no longer accepting messages", "topic", topicName)
	return nil
}

// DrainQueue removes and returns the topic's queued-but-undelivered
// messages.
func (e *DeliveryEngine) DrainQueue(topicName string) ([]*MessageEnvelope, error) {
	topic, err := e.registry.Get(topicName)
	if err != nil {
		return nil, err
	}

	drained := topic.Drain()
	e.log.Info("drained topic queue", "topic", topicName, "messages", len(drained))
	return drained, nil
}

// ResumeAccepting re-enables admission on the topic if its queue has spare
// capacity.
func (e *DeliveryEngine) ResumeAccepting(topicName string) error {
	topic, err := e.registry.Get(topicName)
	if err != nil {
		return err
	}

	topic.ResumeAccepting()
	if topic.IsAccepting() {
		e.log.Info("resumed accepting messages", "topic", topicName)
	} else {
		e.log.Warn("cannot resume accepting messages, queue still full", "topic", topicName)
	}
	return nil
}
