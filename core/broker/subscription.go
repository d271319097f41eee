package broker

import "time"

// Conn is the transport-level send primitive the broker pushes events
// through. Implementations must be safe for concurrent use and must not
// block indefinitely; a failed send is the caller's signal to drop the
// message, not to retry.
type Conn interface {
	Send(data []byte) error
}

// Subscription ties a client to a topic. The connection is a non-owning
// back-reference: the transport layer owns its lifetime and is responsible
// for calling DeliveryEngine.RemoveAllSubscriptions when it closes.
type Subscription struct {
	ClientID     string
	Topic        string
	SubscribedAt time.Time
	Conn         Conn
}

func newSubscription(clientID, topic string, conn Conn) *Subscription {
	return &Subscription{
		ClientID:     clientID,
		Topic:        topic,
		SubscribedAt: time.Now(),
		Conn:         conn,
	}
}
