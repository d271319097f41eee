package broker

import (
	"sync"
	"time"
)

const (
	// DefaultQueueCapacity bounds a topic's pending-message queue unless
	// overridden at creation time.
	DefaultQueueCapacity = 1000

	// HistoryLimit is the number of most recent messages a topic retains
	// for replay on subscribe.
	HistoryLimit = 100
)

// Topic is the unit of broker state: identity, subscriber set, bounded
// delivery queue, admission flag, and a bounded history of recent messages.
// All methods are safe for concurrent use; operations on different topics
// never contend with each other.
type Topic struct {
	name      string
	createdAt time.Time

	mu            sync.RWMutex
	subscribers   map[string]*Subscription
	queue         []*MessageEnvelope
	queueCapacity int
	accepting     bool
	history       []*MessageEnvelope
	messageCount  int64
}

// TopicOption configures a topic at creation time.
type TopicOption func(*Topic)

// WithQueueCapacity overrides the topic's pending-message queue capacity.
// Values below one are ignored.
func WithQueueCapacity(capacity int) TopicOption {
	return func(t *Topic) {
		if capacity > 0 {
			t.queueCapacity = capacity
		}
	}
}

func newTopic(name string, opts ...TopicOption) *Topic {
	t := &Topic{
		name:          name,
		createdAt:     time.Now(),
		subscribers:   make(map[string]*Subscription),
		queueCapacity: DefaultQueueCapacity,
		accepting:     true,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Name returns the topic's immutable identity.
func (t *Topic) Name() string { return t.name }

// CreatedAt returns the topic's creation time.
func (t *Topic) CreatedAt() time.Time { return t.createdAt }

// MessageCount returns the number of successfully published messages.
func (t *Topic) MessageCount() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messageCount
}

// SubscriberCount returns the number of currently subscribed clients.
func (t *Topic) SubscriberCount() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int64(len(t.subscribers))
}

// QueueSize returns the number of pending messages in the queue.
func (t *Topic) QueueSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.queue)
}

// QueueCapacity returns the queue's fixed capacity.
func (t *Topic) QueueCapacity() int { return t.queueCapacity }

// IsAccepting reports whether the topic currently admits new messages.
func (t *Topic) IsAccepting() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.accepting
}

// IsQueueFull reports whether the pending queue has reached capacity.
func (t *Topic) IsQueueFull() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.queue) >= t.queueCapacity
}

// Offer attempts to enqueue a message without blocking. It returns false
// when the topic is not accepting messages, or when the queue is already
// full at the moment of the attempt; a full queue additionally flips the
// topic to not accepting.
func (t *Topic) Offer(env *MessageEnvelope) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.accepting {
		return false
	}
	if len(t.queue) >= t.queueCapacity {
		t.accepting = false
		return false
	}

	t.queue = append(t.queue, env)
	return true
}

// AddToHistory records a successfully published message: it appends to the
// history (evicting the oldest entry beyond HistoryLimit) and increments the
// published-message counter in the same critical section.
func (t *Topic) AddToHistory(env *MessageEnvelope) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, env)
	if len(t.history) > HistoryLimit {
		t.history = t.history[1:]
	}
	t.messageCount++
}

// LastN returns the most recent min(n, len(history)) messages, oldest first.
func (t *Topic) LastN(n int) []*MessageEnvelope {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n <= 0 || len(t.history) == 0 {
		return nil
	}
	from := len(t.history) - n
	if from < 0 {
		from = 0
	}
	out := make([]*MessageEnvelope, len(t.history)-from)
	copy(out, t.history[from:])
	return out
}

// Drain atomically removes and returns all queued messages in FIFO order.
// Draining does not re-enable admission.
func (t *Topic) Drain() []*MessageEnvelope {
	t.mu.Lock()
	defer t.mu.Unlock()

	drained := t.queue
	t.queue = nil
	return drained
}

// StopAccepting marks the topic as no longer admitting new messages.
func (t *Topic) StopAccepting() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accepting = false
}

// ResumeAccepting re-enables admission only if the queue has spare
// capacity; otherwise it is a no-op. Admission state can change between
// this call and the caller's next observation, so callers should re-check
// IsAccepting afterward.
func (t *Topic) ResumeAccepting() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) < t.queueCapacity {
		t.accepting = true
	}
}

// Subscribers returns a snapshot of the current subscriber set keyed by
// client ID.
func (t *Topic) Subscribers() map[string]*Subscription {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]*Subscription, len(t.subscribers))
	for id, sub := range t.subscribers {
		out[id] = sub
	}
	return out
}

// addSubscriber registers the subscription under its client ID, replacing
// any prior subscription the client held on this topic.
func (t *Topic) addSubscriber(sub *Subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers[sub.ClientID] = sub
}

// removeSubscriber deletes the client's subscription if present and reports
// whether anything was removed.
func (t *Topic) removeSubscriber(clientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.subscribers[clientID]; !ok {
		return false
	}
	delete(t.subscribers, clientID)
	return true
}
