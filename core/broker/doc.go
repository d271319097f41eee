// Package broker implements the in-memory publish/subscribe core: named
// topics with bounded delivery queues, per-topic message history, a
// subscriber registry, and the delivery engine that orchestrates them.
//
// The package is transport-agnostic. Connections are represented by the
// minimal Conn interface and owned by the transport layer; the broker only
// keeps non-owning references to them inside subscriptions.
//
// # Topics and admission control
//
// Every topic carries a bounded FIFO queue of pending messages. When a
// publish finds the queue full, the topic stops accepting new messages
// until it is explicitly resumed with spare capacity available:
//
//	Accepting -> (queue full on offer) -> NotAccepting
//	NotAccepting -> (ResumeAccepting with spare capacity) -> Accepting
//
// A topic can also be moved to NotAccepting explicitly via
// DeliveryEngine.InitiateGracefulShutdown. Draining the queue never
// re-enables admission on its own.
//
// # Usage
//
//	registry := broker.NewTopicRegistry()
//	engine := broker.NewDeliveryEngine(registry, broker.WithLogger(log))
//
//	if _, err := registry.Create("orders"); err != nil { ... }
//	sub, err := engine.Subscribe("orders", "client-1", conn)
//	env, err := engine.Publish("orders", "", payload)
package broker
