package web

import (
	"encoding/json"
	"sync"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

const sseStdMsgType = "message" // JS EventSource only picks up the "message" event type

// Event types pushed to open pages
const (
	EventPlanCreated       = "plan_created"
	EventPlanUpdated       = "plan_updated"
	EventPlanStatusChanged = "plan_status_changed"
	EventTaskCreated       = "task_created"
	EventWizardNotice      = "wizard_notice"
)

// SSEEvent represents a server-sent event
type SSEEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data"`
}

// SSEHub manages SSE connections
type SSEHub struct {
	mu      sync.RWMutex
	clients map[chan any]bool
}

// NewSSEHub creates an empty hub
func NewSSEHub() *SSEHub {
	return &SSEHub{clients: make(map[chan any]bool)}
}

// Register adds a new SSE client
func (h *SSEHub) Register(client chan any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// Unregister removes an SSE client
func (h *SSEHub) Unregister(client chan any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client] {
		delete(h.clients, client)
		close(client)
	}
}

// Len returns the number of connected clients
func (h *SSEHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll ends every open stream
func (h *SSEHub) CloseAll() {
	h.mu.RLock()
	clients := make([]chan any, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.Unregister(client)
	}
	logger.Info("Closed SSE streams", "closed", len(clients), "remaining", h.Len())
}

// Broadcast sends an event to all connected clients. A client whose buffer is
// full has stopped reading, so it is dropped and its channel closed, which ends
// its stream.
func (h *SSEHub) Broadcast(event SSEEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger.F("Broadcasting SSE event: type=%s, sessionID=%s, nbrOfClients=%d", event.Type, event.SessionID, len(h.clients))

	payload, err := json.Marshal(event)
	if err != nil {
		logger.LogErr(err, "On broadcast, failed to marshal SSE event")
		return
	}

	rEvent := rweb.SSEvent{
		Type: sseStdMsgType,
		Data: string(payload),
	}

	for client := range h.clients {
		select {
		case client <- rEvent:
		default:
			logger.Warn("SSE client channel full, dropping client", "type", event.Type)
			delete(h.clients, client)
			close(client)
		}
	}
}

// BroadcastPlan announces a plan change
func (h *SSEHub) BroadcastPlan(eventType string, planID int64, status string) {
	h.Broadcast(SSEEvent{
		Type: eventType,
		Data: map[string]any{"plan_id": planID, "status": status},
	})
}

// BroadcastTask announces a created task
func (h *SSEHub) BroadcastTask(category string, planID, taskID int64) {
	h.Broadcast(SSEEvent{
		Type: EventTaskCreated,
		Data: map[string]any{"category": category, "plan_id": planID, "task_id": taskID},
	})
}
