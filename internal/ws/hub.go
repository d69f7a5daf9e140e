// Package ws is the event surface: it pushes generation fragments and
// completion signals to connected shell clients.
package ws

import (
	"encoding/json"

	"lumen-chat/backend/pkg/logger"
	"lumen-chat/backend/pkg/observability"
)

// Event types emitted during a generation
const (
	EventStreamResponse = "stream-response"
	EventStreamDone     = "stream-done"
	EventStreamError    = "stream-error"
)

// Event is one payload on the event surface
type Event struct {
	Type     string `json:"type"`
	ThreadID int64  `json:"thread_id"`
	Content  string `json:"content,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Hub fans events out to connected clients. Delivery is best-effort: a slow
// client gets fragments dropped rather than stalling stream consumption.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	events     chan Event
	logger     *logger.Logger
	metrics    *observability.Metrics
}

// NewHub creates a hub; call Run in a goroutine to start it
func NewHub(log *logger.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan Event, 256),
		logger:     log,
		metrics:    metrics,
	}
}

// Run processes registrations and event fan-out until the process exits
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info("event client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("event client disconnected", "clients", len(h.clients))
			}

		case event := <-h.events:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.LogError(err, "failed to encode event", "type", event.Type)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow consumer: drop instead of blocking the stream
					if h.metrics != nil {
						h.metrics.FragmentsDropped.Inc()
					}
					h.logger.Warn("dropping event for slow client",
						"type", event.Type,
						"thread_id", event.ThreadID,
					)
				}
			}
		}
	}
}

// Publish queues an event for fan-out without blocking the caller
func (h *Hub) Publish(event Event) {
	select {
	case h.events <- event:
	default:
		if h.metrics != nil {
			h.metrics.FragmentsDropped.Inc()
		}
		h.logger.Warn("event queue full, dropping event",
			"type", event.Type,
			"thread_id", event.ThreadID,
		)
	}
}

// Fragment pushes one reassembled fragment for a thread
func (h *Hub) Fragment(threadID int64, content string) {
	h.Publish(Event{Type: EventStreamResponse, ThreadID: threadID, Content: content})
}

// Done signals that a generation finished
func (h *Hub) Done(threadID int64) {
	h.Publish(Event{Type: EventStreamDone, ThreadID: threadID})
}

// StreamError signals that a generation failed
func (h *Hub) StreamError(threadID int64, message string) {
	h.Publish(Event{Type: EventStreamError, ThreadID: threadID, Message: message})
}
