package server_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pubsub/core/server"
)

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("requires_address", func(t *testing.T) {
		t.Parallel()
		_, err := server.NewFromConfig(server.Config{})
		assert.ErrorIs(t, err, server.ErrMissingAddress)
	})

	t.Run("valid_config", func(t *testing.T) {
		t.Parallel()
		s, err := server.NewFromConfig(server.DefaultConfig())
		require.NoError(t, err)
		assert.NotNil(t, s)
	})
}

func TestServer_RunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	s := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, http.NewServeMux())()
	}()

	// Let the listener come up before canceling.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

func TestServer_StartTwice(t *testing.T) {
	t.Parallel()

	s := server.New("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = s.Start(ctx, http.NewServeMux()) }()
	time.Sleep(50 * time.Millisecond)

	err := s.Start(ctx, http.NewServeMux())
	assert.ErrorIs(t, err, server.ErrServerAlreadyRunning)

	cancel()
	_ = s.Stop()
}
