package websocket

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
)

const typeListDeleted = "list_deleted"

// Message is a change notification sent to every client watching a list.
type Message struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Action string `json:"action"`
	ListID string `json:"listId"`
	ItemID string `json:"itemId,omitempty"`
}

// NewMessage builds a Message from a change type such as "item_created".
// Entity and Action are the parts before and after the first underscore.
func NewMessage(listID, changeType, itemID string) Message {
	entity, action, ok := strings.Cut(changeType, "_")
	if !ok {
		entity, action = "list", changeType
	}
	return Message{
		Type:   changeType,
		Entity: entity,
		Action: action,
		ListID: listID,
		ItemID: itemID,
	}
}

// Hub tracks the WebSocket clients of each list and fans out changes.
type Hub struct {
	mu     sync.RWMutex
	lists  map[string]map[*Client]struct{}
	logger *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		lists:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// Register subscribes a client to its list.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.lists[c.listID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.lists[c.listID] = clients
	}
	clients[c] = struct{}{}
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.lists[c.listID]
	if !ok {
		return
	}
	if _, ok := clients[c]; ok {
		delete(clients, c)
		close(c.send)
	}
	if len(clients) == 0 {
		delete(h.lists, c.listID)
	}
}

// Broadcast sends a message to the clients watching msg.ListID.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.lists[msg.ListID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop message to avoid blocking
			h.logger.Warn("dropped message", "list_id", msg.ListID, "type", msg.Type)
		}
	}
}

// ListChanged broadcasts a mutation of listID. A deleted list's watchers get
// the final message and are then disconnected.
func (h *Hub) ListChanged(listID, changeType, itemID string) {
	h.Broadcast(NewMessage(listID, changeType, itemID))
	if changeType == typeListDeleted {
		h.CloseList(listID)
	}
}

// CloseList drops every client of listID. Each one flushes what is already
// queued and then closes its connection normally.
func (h *Hub) CloseList(listID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.lists[listID] {
		close(c.send)
	}
	delete(h.lists, listID)
}

// ClientCount returns the number of connected clients across all lists.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.lists {
		n += len(clients)
	}
	return n
}

// ListClientCount returns the number of clients watching listID.
func (h *Hub) ListClientCount(listID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.lists[listID])
}
