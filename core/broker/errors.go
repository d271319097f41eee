package broker

import (
	"errors"
	"fmt"
)

var (
	// ErrTopicAlreadyExists is returned when creating a topic whose name is taken.
	ErrTopicAlreadyExists = errors.New("topic already exists")

	// ErrTopicNotFound is returned when a topic lookup misses.
	ErrTopicNotFound = errors.New("topic not found")
)

// QueueOverflowError reports a publish into a topic that is full or no
// longer accepting messages. Size and Capacity reflect the queue at the
// moment the publish failed.
type QueueOverflowError struct {
	Topic    string
	Size     int
	Capacity int
}

func (e *QueueOverflowError) Error() string {
	return fmt.Sprintf("topic %q queue is full (%d/%d messages)", e.Topic, e.Size, e.Capacity)
}
