// Package protocol implements the broker's request/response wire protocol:
// JSON messages discriminated by a "type" field, with an optional
// "request_id" correlation token echoed back in every response.
//
// Inbound kinds: subscribe, unsubscribe, publish, ping.
// Outbound kinds: ack, error, event, pong, info.
//
// The Dispatcher is the single translation point between the delivery
// engine's typed failures and wire-level error codes. Every request it
// handles produces exactly one correlated response (plus zero or more
// event pushes); a requester is never left hanging.
package protocol
