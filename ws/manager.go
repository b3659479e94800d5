package ws

import (
	"context"
	"encoding/json"
	"sync"

	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/metrics"
)

// WebSocketManager tracks open connections per user and pushes chat events
// to them. A user may hold several connections (tabs, devices).
type WebSocketManager struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns registration until ctx is cancelled, then closes every client.
func (manager *WebSocketManager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(manager.done)
			manager.closeAll()
			return

		case client := <-manager.register:
			manager.mu.Lock()
			conns, ok := manager.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				manager.clients[client.UserID] = conns
			}
			conns[client] = struct{}{}
			manager.mu.Unlock()
			metrics.WSConnections.Inc()
			logger.Debug("ws client registered", "user_id", client.UserID)

		case client := <-manager.unregister:
			manager.remove(client)
		}
	}
}

// Register hands client to the run loop. It reports false once the
// manager has stopped.
func (manager *WebSocketManager) Register(client *Client) bool {
	select {
	case manager.register <- client:
		return true
	case <-manager.done:
		return false
	}
}

func (manager *WebSocketManager) Unregister(client *Client) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

func (manager *WebSocketManager) remove(client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	conns, ok := manager.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(manager.clients, client.UserID)
	}
	close(client.send)
	metrics.WSConnections.Dec()
	logger.Debug("ws client unregistered", "user_id", client.UserID)
}

func (manager *WebSocketManager) closeAll() {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	for userID, conns := range manager.clients {
		for client := range conns {
			close(client.send)
			metrics.WSConnections.Dec()
		}
		delete(manager.clients, userID)
	}
}

// NotifyUser sends event to every connection of userID. Clients whose
// buffer is full are dropped rather than blocking the caller.
func (manager *WebSocketManager) NotifyUser(userID string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("ws event marshal failed", "user_id", userID, "error", err)
		return
	}

	manager.mu.RLock()
	var slow []*Client
	for client := range manager.clients[userID] {
		select {
		case client.send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	manager.mu.RUnlock()

	for _, client := range slow {
		logger.Warn("ws client too slow, disconnecting", "user_id", userID)
		manager.remove(client)
	}
}

func (manager *WebSocketManager) GetClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	n := 0
	for _, conns := range manager.clients {
		n += len(conns)
	}
	return n
}

func (manager *WebSocketManager) IsClientConnected(userID string) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients[userID]) > 0
}
