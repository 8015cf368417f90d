// Package events pushes the refreshed session view to connected browsers
// after every state mutation, so open tabs redraw without polling.
package events

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/aivy-lab/aivy/backend/internal/service/session"
	"github.com/aivy-lab/aivy/backend/internal/sessionid"
)

// outgoingMessage is the envelope written to every subscriber.
type outgoingMessage struct {
	Type      string       `json:"type"`
	Data      session.View `json:"data"`
	Timestamp int64        `json:"timestamp"`
}

// Hub tracks websocket subscribers per browser session.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[*websocket.Conn]struct{}
	upgrader    websocket.Upgrader
}

// NewHub returns an empty subscriber registry.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleEvents)
}

func (h *Hub) handleEvents(w http.ResponseWriter, r *http.Request) {
	sid := sessionid.FromContext(r.Context())
	if sid == "" {
		http.Error(w, "session cookie required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] upgrade failed: %v", err)
		return
	}

	h.add(sid, conn)
	defer h.remove(sid, conn)

	// The client never sends application data; this loop only notices the
	// close frame.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish fans the view out to every tab of the session. Dead connections
// are dropped on write failure.
func (h *Hub) Publish(sessionID string, view session.View) {
	envelope := outgoingMessage{
		Type:      "session",
		Data:      view,
		Timestamp: time.Now().UnixMilli(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.subscribers[sessionID] {
		if err := conn.WriteJSON(envelope); err != nil {
			log.Printf("[events] dropping subscriber for session=%s: %v", sessionID, err)
			conn.Close()
			delete(h.subscribers[sessionID], conn)
		}
	}
}

func (h *Hub) add(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[*websocket.Conn]struct{})
	}
	h.subscribers[sessionID][conn] = struct{}{}
}

func (h *Hub) remove(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.Close()
	delete(h.subscribers[sessionID], conn)
	if len(h.subscribers[sessionID]) == 0 {
		delete(h.subscribers, sessionID)
	}
}
