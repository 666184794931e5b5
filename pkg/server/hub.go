package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	// sendBuffer is the per-client queue length. A client that falls this
	// far behind is dropped.
	sendBuffer = 64
)

// MessageType is the type of a WebSocket message.
type MessageType string

const (
	MessageSync   MessageType = "sync"
	MessageUpdate MessageType = "update"
	MessageError  MessageType = "error"
)

// Message is sent to browsers via WebSocket.
type Message struct {
	Type  MessageType  `json:"type"`
	Nodes []NodeUpdate `json:"nodes,omitempty"`
	Error string       `json:"error,omitempty"`
}

// NodeUpdate is the new content of one bound node.
type NodeUpdate struct {
	HID     string `json:"hid"`
	Entity  string `json:"entity,omitempty"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub manages WebSocket connections and fans messages out to them.
type Hub struct {
	clients  map[*client]struct{}
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates a hub. A nil checkOrigin allows same-origin requests only.
func NewHub(logger *slog.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the connection, queues the message produced by
// greet (if any) and serves the client until it disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, greet func() (Message, bool)) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)

	// Registered before greeting, so an update queued ahead of the
	// snapshot is overwritten by it on the client.
	if greet != nil {
		if msg, ok := greet(); ok {
			if data, err := json.Marshal(msg); err == nil {
				h.mu.Lock()
				h.queueLocked(c, data)
				h.mu.Unlock()
			}
		}
	}

	// Keep connection alive until client disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// remove unregisters c and closes its queue. It is safe to call more than once.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Broadcast queues msg for every connected client. Clients whose queue is
// full are disconnected.
func (h *Hub) Broadcast(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.queueLocked(c, data)
	}
	return nil
}

// queueLocked queues data for c, dropping c if its queue is full.
// h.mu must be held.
func (h *Hub) queueLocked(c *client, data []byte) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Warn("dropping slow websocket client", "remote", c.conn.RemoteAddr().String())
		delete(h.clients, c)
		close(c.send)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
