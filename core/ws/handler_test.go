package ws_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pubsub/core/broker"
	"github.com/dmitrymomot/pubsub/core/protocol"
	"github.com/dmitrymomot/pubsub/core/ws"
)

func newBrokerServer(t *testing.T, topics ...string) (*httptest.Server, *broker.TopicRegistry, *broker.DeliveryEngine) {
	t.Helper()

	registry := broker.NewTopicRegistry()
	for _, name := range topics {
		_, err := registry.Create(name)
		require.NoError(t, err)
	}
	engine := broker.NewDeliveryEngine(registry)
	dispatcher := protocol.NewDispatcher(engine)

	mux := http.NewServeMux()
	mux.Handle("GET /ws", ws.NewHandler(dispatcher, ws.WithAllowAnyOrigin()))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, registry, engine
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func writeJSON(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func TestEndToEnd_PublishFanout(t *testing.T) {
	t.Parallel()

	srv, _, _ := newBrokerServer(t, "orders")

	subscriber := dial(t, srv)
	writeJSON(t, subscriber, `{"type":"subscribe","topic":"orders","client_id":"x","request_id":"s1"}`)
	ack := readJSON(t, subscriber)
	require.Equal(t, "ack", ack["type"])
	require.Equal(t, "s1", ack["request_id"])

	before := time.Now().UnixMilli()
	publisher := dial(t, srv)
	writeJSON(t, publisher, `{"type":"publish","topic":"orders","message":{"id":"m1","payload":{"x":1}},"request_id":"p1"}`)

	pubAck := readJSON(t, publisher)
	assert.Equal(t, "ack", pubAck["type"])
	assert.Equal(t, "p1", pubAck["request_id"])

	event := readJSON(t, subscriber)
	assert.Equal(t, "event", event["type"])
	assert.Equal(t, "orders", event["topic"])
	msg := event["message"].(map[string]any)
	assert.Equal(t, "m1", msg["id"])
	assert.Equal(t, map[string]any{"x": float64(1)}, msg["payload"])
	assert.GreaterOrEqual(t, int64(msg["published_at"].(float64)), before)
}

func TestEndToEnd_HistoryReplay(t *testing.T) {
	t.Parallel()

	srv, _, engine := newBrokerServer(t, "orders")
	for _, id := range []string{"m1", "m2", "m3", "m4", "m5"} {
		_, err := engine.Publish("orders", id, json.RawMessage(`1`))
		require.NoError(t, err)
	}

	conn := dial(t, srv)
	writeJSON(t, conn, `{"type":"subscribe","topic":"orders","client_id":"x","last_n":3}`)

	require.Equal(t, "ack", readJSON(t, conn)["type"])
	for _, id := range []string{"m3", "m4", "m5"} {
		event := readJSON(t, conn)
		require.Equal(t, "event", event["type"])
		assert.Equal(t, id, event["message"].(map[string]any)["id"])
	}
}

func TestEndToEnd_Ping(t *testing.T) {
	t.Parallel()

	srv, _, _ := newBrokerServer(t)
	conn := dial(t, srv)
	writeJSON(t, conn, `{"type":"ping","request_id":"r1"}`)

	pong := readJSON(t, conn)
	assert.Equal(t, "pong", pong["type"])
	assert.Equal(t, "r1", pong["request_id"])
	assert.Positive(t, pong["timestamp"].(float64))
}

func TestEndToEnd_DisconnectCleansUpSubscriptions(t *testing.T) {
	t.Parallel()

	srv, registry, _ := newBrokerServer(t, "a", "b")

	conn := dial(t, srv)
	writeJSON(t, conn, `{"type":"subscribe","topic":"a","client_id":"x"}`)
	require.Equal(t, "ack", readJSON(t, conn)["type"])
	writeJSON(t, conn, `{"type":"subscribe","topic":"b","client_id":"x"}`)
	require.Equal(t, "ack", readJSON(t, conn)["type"])

	topicA, err := registry.Get("a")
	require.NoError(t, err)
	topicB, err := registry.Get("b")
	require.NoError(t, err)
	require.Equal(t, int64(1), topicA.SubscriberCount())
	require.Equal(t, int64(1), topicB.SubscriberCount())

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return topicA.SubscriberCount() == 0 && topicB.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEndToEnd_InvalidMessage(t *testing.T) {
	t.Parallel()

	srv, _, _ := newBrokerServer(t)
	conn := dial(t, srv)
	writeJSON(t, conn, `{not json`)

	resp := readJSON(t, conn)
	assert.Equal(t, "error", resp["type"])
	assert.Equal(t, "INVALID_MESSAGE", resp["code"])
}
