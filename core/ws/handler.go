package ws

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/pubsub/core/protocol"
)

// DefaultWriteTimeout bounds a single outbound frame write.
const DefaultWriteTimeout = 5 * time.Second

// Config holds the WebSocket endpoint configuration with environment
// variable support.
type Config struct {
	ReadBufferSize  int           `env:"WS_READ_BUFFER_SIZE" envDefault:"1024"`
	WriteBufferSize int           `env:"WS_WRITE_BUFFER_SIZE" envDefault:"1024"`
	WriteTimeout    time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"5s"`
	MaxMessageSize  int64         `env:"WS_MAX_MESSAGE_SIZE" envDefault:"1048576"` // 1MB
}

// Handler upgrades HTTP requests to WebSocket connections and pumps
// inbound frames into the protocol dispatcher.
type Handler struct {
	dispatcher     *protocol.Dispatcher
	upgrader       websocket.Upgrader
	log            *slog.Logger
	writeTimeout   time.Duration
	maxMessageSize int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler's structured logger. Defaults to a discard
// logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithWriteTimeout bounds each outbound frame write.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(h *Handler) {
		h.writeTimeout = timeout
	}
}

// WithBufferSizes sets the upgrader's read and write buffer sizes.
func WithBufferSizes(read, write int) Option {
	return func(h *Handler) {
		h.upgrader.ReadBufferSize = read
		h.upgrader.WriteBufferSize = write
	}
}

// WithMaxMessageSize limits the size of inbound frames.
func WithMaxMessageSize(size int64) Option {
	return func(h *Handler) {
		h.maxMessageSize = size
	}
}

// WithOriginCheck replaces the upgrader's origin policy.
func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = fn
	}
}

// WithAllowAnyOrigin disables origin checking.
func WithAllowAnyOrigin() Option {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
}

// NewHandler creates a WebSocket handler feeding the given dispatcher.
func NewHandler(dispatcher *protocol.Dispatcher, opts ...Option) *Handler {
	h := &Handler{
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		writeTimeout: DefaultWriteTimeout,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// NewHandlerFromConfig creates a Handler from configuration. Additional
// options can override config values.
func NewHandlerFromConfig(cfg Config, dispatcher *protocol.Dispatcher, opts ...Option) *Handler {
	base := []Option{
		WithBufferSizes(cfg.ReadBufferSize, cfg.WriteBufferSize),
		WithWriteTimeout(cfg.WriteTimeout),
		WithMaxMessageSize(cfg.MaxMessageSize),
	}
	return NewHandler(dispatcher, append(base, opts...)...)
}

// ServeHTTP upgrades the request and runs the connection's read loop until
// the peer disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	if h.maxMessageSize > 0 {
		wsConn.SetReadLimit(h.maxMessageSize)
	}

	c := newConn(wsConn, h.writeTimeout)
	h.log.Info("websocket connection established", "remote", r.RemoteAddr)
	h.dispatcher.HandleConnect(c)

	defer func() {
		_ = c.close()
		h.dispatcher.HandleClose(c)
		h.log.Info("websocket connection closed", "remote", r.RemoteAddr)
	}()

	for {
		msgType, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		h.dispatcher.HandleMessage(c, data)
	}
}
