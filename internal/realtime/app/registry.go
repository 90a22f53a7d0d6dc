package app

import (
	"sync"

	"community_social_service/internal/realtime/domain"
	"community_social_service/pkg/logger"

	"go.uber.org/zap"
)

// Conn is the write side of one live bidirectional connection. Satisfied by
// *websocket.Conn; tests substitute an in-memory fake.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client is one registered connection handle: the socket, the identity that
// owns it, and a connection ID used to guard against stale disconnects.
type Client struct {
	ConnID string
	UserID string

	mu   sync.Mutex
	conn Conn
}

// NewClient wrap a live connection for the registry
func NewClient(connID, userID string, conn Conn) *Client {
	return &Client{ConnID: connID, UserID: userID, conn: conn}
}

// Send write one frame to the socket. Serialized with a mutex: fiber
// websocket conns do not allow concurrent writers.
func (c *Client) Send(resp domain.WSResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(resp); err != nil {
		logger.Log.Errorf("write frame error:", err, zap.String("userID", c.UserID))
	}
}

// ConnectionRegistry maps a user identity to at most one live connection.
// Entirely in-process volatile state; a reconnect replaces the old handle.
type ConnectionRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewConnectionRegistry create an empty registry
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		clients: make(map[string]*Client),
	}
}

// Register store the client for its user, replacing any previous handle
// (last-connection-wins).
func (r *ConnectionRegistry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.UserID] = client
}

// Unregister remove the mapping only when connID still matches the
// registered handle, so a slow disconnect cannot evict a fresher
// connection. Reports whether the mapping was removed.
func (r *ConnectionRegistry) Unregister(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.clients[userID]
	if !ok || current.ConnID != connID {
		return false
	}
	delete(r.clients, userID)
	return true
}

// Lookup return the live handle for userID, or nil
func (r *ConnectionRegistry) Lookup(userID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[userID]
}

// Broadcast send one frame to every registered connection
func (r *ConnectionRegistry) Broadcast(resp domain.WSResponse) {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		c.Send(resp)
	}
}
