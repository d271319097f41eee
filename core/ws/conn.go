package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// conn wraps a gorilla websocket connection behind the broker's Conn
// interface. gorilla allows only one concurrent writer, so all sends go
// through a mutex; the write deadline keeps a stalled peer from blocking
// the sender.
type conn struct {
	mu           sync.Mutex
	ws           *websocket.Conn
	writeTimeout time.Duration
}

func newConn(ws *websocket.Conn, writeTimeout time.Duration) *conn {
	return &conn{ws: ws, writeTimeout: writeTimeout}
}

// Send writes one text frame. Safe for concurrent use.
func (c *conn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *conn) close() error {
	return c.ws.Close()
}
