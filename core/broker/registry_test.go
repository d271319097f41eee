package broker_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pubsub/core/broker"
)

func TestTopicRegistry_Create(t *testing.T) {
	t.Parallel()

	t.Run("creates_and_rejects_duplicate", func(t *testing.T) {
		t.Parallel()

		registry := broker.NewTopicRegistry()
		topic, err := registry.Create("orders")
		require.NoError(t, err)
		assert.Equal(t, "orders", topic.Name())
		assert.False(t, topic.CreatedAt().IsZero())
		assert.True(t, topic.IsAccepting())

		_, err = registry.Create("orders")
		assert.ErrorIs(t, err, broker.ErrTopicAlreadyExists)
	})

	t.Run("concurrent_create_one_winner", func(t *testing.T) {
		t.Parallel()

		registry := broker.NewTopicRegistry()

		var wg sync.WaitGroup
		var created, conflicts atomic.Int64
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := registry.Create("orders"); err == nil {
					created.Add(1)
				} else {
					conflicts.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), created.Load())
		assert.Equal(t, int64(15), conflicts.Load())
		assert.Equal(t, 1, registry.Count())
	})

	t.Run("custom_queue_capacity", func(t *testing.T) {
		t.Parallel()

		registry := broker.NewTopicRegistry()
		topic, err := registry.Create("orders", broker.WithQueueCapacity(7))
		require.NoError(t, err)
		assert.Equal(t, 7, topic.QueueCapacity())

		topic, err = registry.Create("payments")
		require.NoError(t, err)
		assert.Equal(t, broker.DefaultQueueCapacity, topic.QueueCapacity())
	})
}

func TestTopicRegistry_GetDelete(t *testing.T) {
	t.Parallel()

	registry := broker.NewTopicRegistry()
	_, err := registry.Get("orders")
	assert.ErrorIs(t, err, broker.ErrTopicNotFound)

	created, err := registry.Create("orders")
	require.NoError(t, err)

	got, err := registry.Get("orders")
	require.NoError(t, err)
	assert.Same(t, created, got)

	require.NoError(t, registry.Delete("orders"))
	assert.ErrorIs(t, registry.Delete("orders"), broker.ErrTopicNotFound)
	_, err = registry.Get("orders")
	assert.ErrorIs(t, err, broker.ErrTopicNotFound)
}

func TestTopicRegistry_Stats(t *testing.T) {
	t.Parallel()

	registry := broker.NewTopicRegistry()
	engine := broker.NewDeliveryEngine(registry)

	_, err := registry.Create("a")
	require.NoError(t, err)
	_, err = registry.Create("b")
	require.NoError(t, err)

	_, err = engine.Subscribe("a", "c1", &fakeConn{})
	require.NoError(t, err)
	_, err = engine.Subscribe("a", "c2", &fakeConn{})
	require.NoError(t, err)
	_, err = engine.Subscribe("b", "c1", &fakeConn{})
	require.NoError(t, err)

	assert.Equal(t, 2, registry.Count())
	assert.Equal(t, int64(3), registry.TotalSubscribers())
	assert.Len(t, registry.List(), 2)
	assert.GreaterOrEqual(t, registry.UptimeSeconds(), int64(0))
}
