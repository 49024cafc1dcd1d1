package websocket

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/hdesk/helpdesk-backend/internal/core/domain"
	"github.com/hdesk/helpdesk-backend/internal/core/ports"
)

// ConnectedUser is one entry of the connected-users listing.
type ConnectedUser struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	Connections int       `json:"connections"`
}

// Hub maintains the set of active Clients and fans notifications out to them.
// Delivery is best-effort: a client whose send buffer is full gets dropped
// and unregistered rather than blocking the sender.
type Hub struct {
	// clients maps user IDs to their active connections.
	// A single user can have multiple connections (multiple tabs/devices).
	clients map[uuid.UUID]map[*Client]bool

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// mu protects the clients map
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the NotificationPusher interface.
var _ ports.NotificationPusher = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true

	h.logger.Info("client registered",
		"user_id", client.UserID,
		"role", client.Role.String(),
		"total_connections", len(h.clients[client.UserID]),
	)
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[client.UserID]; ok {
		if _, exists := userClients[client]; exists {
			delete(userClients, client)
			if len(userClients) == 0 {
				delete(h.clients, client.UserID)
			}
		}
	}

	client.CloseSend()

	h.logger.Info("client unregistered", "user_id", client.UserID)
}

// SendToUser delivers a payload to every connection of one user.
// An offline user is silently skipped.
func (h *Hub) SendToUser(userID uuid.UUID, payload interface{}) {
	h.mu.RLock()
	clients, ok := h.clients[userID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	for _, client := range clientList {
		h.deliver(client, payload)
	}
}

// SendToRole delivers a payload to every connected user holding the role.
func (h *Hub) SendToRole(role domain.Role, payload interface{}, except []uuid.UUID) {
	for _, client := range h.snapshot(func(c *Client) bool {
		return c.Role == role && !contains(except, c.UserID)
	}) {
		h.deliver(client, payload)
	}
}

// Broadcast delivers a payload to every connected client.
func (h *Hub) Broadcast(payload interface{}, except []uuid.UUID) {
	for _, client := range h.snapshot(func(c *Client) bool {
		return !contains(except, c.UserID)
	}) {
		h.deliver(client, payload)
	}
}

// snapshot copies the matching clients so sends happen without the lock held.
func (h *Hub) snapshot(match func(*Client) bool) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Client
	for _, userClients := range h.clients {
		for client := range userClients {
			if match(client) {
				out = append(out, client)
			}
		}
	}
	return out
}

// deliver queues a payload on one client, unregistering it if the buffer
// is full. A slow consumer must never stall the fan-out.
func (h *Hub) deliver(client *Client, payload interface{}) {
	if !client.TrySend(payload) {
		h.logger.Warn("client send buffer full, unregistering",
			"user_id", client.UserID,
		)
		h.Unregister <- client
	}
}

// ConnectedUsers returns one entry per connected user.
func (h *Hub) ConnectedUsers() []ConnectedUser {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]ConnectedUser, 0, len(h.clients))
	for userID, userClients := range h.clients {
		entry := ConnectedUser{UserID: userID, Connections: len(userClients)}
		for client := range userClients {
			entry.Username = client.Username
			entry.Role = client.Role.String()
			break
		}
		out = append(out, entry)
	}
	return out
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, userClients := range h.clients {
		count += len(userClients)
	}
	return count
}

// IsUserConnected checks if a user has any active connections
func (h *Hub) IsUserConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[userID]
	return ok && len(clients) > 0
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
