// Package ws adapts the broker's wire protocol onto WebSocket connections
// using gorilla/websocket. It owns connection lifetime: the HTTP handler
// upgrades the request, runs the read loop feeding the protocol dispatcher,
// and reports the close back so subscriptions can be purged.
//
// Outbound writes are serialized per connection and bounded by a write
// deadline so a stalled peer can never block a broadcast indefinitely.
package ws
