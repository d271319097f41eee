package api

import "net/http"

type healthResponse struct {
	UptimeSec   int64 `json:"uptime_sec"`
	Topics      int   `json:"topics"`
	Subscribers int64 `json:"subscribers"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		UptimeSec:   h.registry.UptimeSeconds(),
		Topics:      h.registry.Count(),
		Subscribers: h.registry.TotalSubscribers(),
	})
}

type topicStats struct {
	Messages    int64 `json:"messages"`
	Subscribers int64 `json:"subscribers"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]topicStats)
	for _, topic := range h.registry.List() {
		stats[topic.Name()] = topicStats{
			Messages:    topic.MessageCount(),
			Subscribers: topic.SubscriberCount(),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"topics": stats})
}
