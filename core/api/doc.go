// Package api exposes the broker's HTTP control plane: topic creation,
// deletion and listing, plus health and per-topic statistics. The handlers
// are thin adapters over the topic registry and contain no delivery logic.
package api
