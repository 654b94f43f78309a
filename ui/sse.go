package ui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"difcregistry/internal"
)

// RunEvent is one progress update streamed to run-page clients.
type RunEvent struct {
	RunID     string    `json:"run_id"`
	Phase     string    `json:"phase"`
	State     string    `json:"state"`
	Progress  float64   `json:"progress"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHub fans run events out to SSE subscribers, keyed by run ID.
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan RunEvent]struct{}
	logger      *internal.Logger
}

// NewEventHub creates an event hub
func NewEventHub(logger *internal.Logger) *EventHub {
	return &EventHub{
		subscribers: make(map[string]map[chan RunEvent]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for one run's events.
func (h *EventHub) Subscribe(runID string) chan RunEvent {
	ch := make(chan RunEvent, 16)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[runID] == nil {
		h.subscribers[runID] = make(map[chan RunEvent]struct{})
	}
	h.subscribers[runID][ch] = struct{}{}
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (h *EventHub) Unsubscribe(runID string, ch chan RunEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subscribers[runID]; ok {
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, runID)
		}
	}
}

// Publish delivers an event to every subscriber of its run. Slow clients
// are skipped rather than blocking the run goroutine.
func (h *EventHub) Publish(event RunEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers[event.RunID] {
		select {
		case ch <- event:
		default:
			h.logger.Debug("SSE client channel full for run %s, dropping event", event.RunID)
		}
	}
}

// HandleSSE streams a run's events as Server-Sent Events until the client
// disconnects.
func (h *EventHub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		http.Error(w, "run id required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Subscribe(runID)
	defer h.Unsubscribe(runID, ch)

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Warn("failed to encode run event: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
