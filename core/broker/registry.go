package broker

import (
	"sync"
	"time"
)

// TopicRegistry owns the set of topics, keyed by name. It also tracks its
// construction time for uptime reporting. Safe for concurrent use.
type TopicRegistry struct {
	mu        sync.RWMutex
	topics    map[string]*Topic
	startedAt time.Time
}

// NewTopicRegistry creates an empty registry.
func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{
		topics:    make(map[string]*Topic),
		startedAt: time.Now(),
	}
}

// Create inserts a new topic under the given name. Exactly one of any
// concurrent creators of the same name succeeds; the rest observe
// ErrTopicAlreadyExists.
func (r *TopicRegistry) Create(name string, opts ...TopicOption) (*Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.topics[name]; exists {
		return nil, ErrTopicAlreadyExists
	}

	topic := newTopic(name, opts...)
	r.topics[name] = topic
	return topic, nil
}

// Get returns the named topic or ErrTopicNotFound.
func (r *TopicRegistry) Get(name string) (*Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topic, ok := r.topics[name]
	if !ok {
		return nil, ErrTopicNotFound
	}
	return topic, nil
}

// Delete removes the named topic. Subscribers are not notified; their
// subscriptions simply become inert.
func (r *TopicRegistry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.topics[name]; !ok {
		return ErrTopicNotFound
	}
	delete(r.topics, name)
	return nil
}

// List returns a snapshot of all topics in unspecified order.
func (r *TopicRegistry) List() []*Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Topic, 0, len(r.topics))
	for _, topic := range r.topics {
		out = append(out, topic)
	}
	return out
}

// Count returns the number of topics.
func (r *TopicRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics)
}

// TotalSubscribers sums subscriber counts across all topics.
func (r *TopicRegistry) TotalSubscribers() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, topic := range r.topics {
		total += topic.SubscriberCount()
	}
	return total
}

// UptimeSeconds returns whole seconds elapsed since the registry was built.
func (r *TopicRegistry) UptimeSeconds() int64 {
	return int64(time.Since(r.startedAt).Seconds())
}
