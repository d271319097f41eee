package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/dmitrymomot/pubsub/core/broker"
)

// topicNameRe is the set of names the control plane admits before they
// ever reach the registry.
var topicNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Handler serves the control-plane endpoints backed by a topic registry.
type Handler struct {
	registry *broker.TopicRegistry
	log      *slog.Logger
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

// NewHandler creates a control-plane handler over the given registry.
func NewHandler(registry *broker.TopicRegistry, opts ...Option) *Handler {
	h := &Handler{
		registry: registry,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Register mounts the control-plane routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /topics", h.createTopic)
	mux.HandleFunc("DELETE /topics/{name}", h.deleteTopic)
	mux.HandleFunc("GET /topics", h.listTopics)
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /stats", h.stats)
}

type createTopicRequest struct {
	Name          string `json:"name"`
	QueueCapacity int    `json:"queue_capacity,omitempty"`
}

func (h *Handler) createTopic(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !topicNameRe.MatchString(req.Name) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "topic name must be non-empty and contain only letters, digits, hyphens and underscores",
		})
		return
	}

	var opts []broker.TopicOption
	if req.QueueCapacity > 0 {
		opts = append(opts, broker.WithQueueCapacity(req.QueueCapacity))
	}

	if _, err := h.registry.Create(req.Name, opts...); err != nil {
		if errors.Is(err, broker.ErrTopicAlreadyExists) {
			h.log.Warn("topic already exists", "topic", req.Name)
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": "Topic already exists",
				"topic": req.Name,
			})
			return
		}
		h.log.Error("failed to create topic", "topic", req.Name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	h.log.Info("topic created", "topic", req.Name)
	writeJSON(w, http.StatusCreated, map[string]string{
		"status": "created",
		"topic":  req.Name,
	})
}

func (h *Handler) deleteTopic(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.registry.Delete(name); err != nil {
		if errors.Is(err, broker.ErrTopicNotFound) {
			h.log.Warn("topic not found for deletion", "topic", name)
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "Topic not found",
				"topic": name,
			})
			return
		}
		h.log.Error("failed to delete topic", "topic", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	h.log.Info("topic deleted", "topic", name)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"topic":  name,
	})
}

type topicInfo struct {
	Name        string `json:"name"`
	Subscribers int64  `json:"subscribers"`
}

func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	topics := h.registry.List()

	infos := make([]topicInfo, 0, len(topics))
	for _, topic := range topics {
		infos = append(infos, topicInfo{
			Name:        topic.Name(),
			Subscribers: topic.SubscriberCount(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"topics": infos})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
