package server

import (
	"sync"

	"github.com/coder/websocket"
)

// ConnectionManager tracks live sockets and which session token each one
// authenticated as. The room layer never holds a socket; it only knows
// tokens, and the dispatcher resolves token -> socket here.
type ConnectionManager struct {
	connections map[string]*websocket.Conn // connectionID -> socket
	tokens      map[string]string          // connectionID -> token
	byToken     map[string]string          // token -> connectionID
	mu          sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
		tokens:      make(map[string]string),
		byToken:     make(map[string]string),
	}
}

func (cm *ConnectionManager) AddConnection(id string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[id] = conn
}

func (cm *ConnectionManager) RemoveConnection(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if token, ok := cm.tokens[id]; ok {
		delete(cm.byToken, token)
	}
	delete(cm.tokens, id)
	delete(cm.connections, id)
}

// BindToken associates a connection with the session token it was issued
// on create_room/join_room.
func (cm *ConnectionManager) BindToken(connectionID, token string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.tokens[connectionID] = token
	cm.byToken[token] = connectionID
}

func (cm *ConnectionManager) GetTokenByConnection(connectionID string) string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.tokens[connectionID]
}

func (cm *ConnectionManager) GetConnectionByToken(token string) *websocket.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	connID, ok := cm.byToken[token]
	if !ok {
		return nil
	}
	return cm.connections[connID]
}

func (cm *ConnectionManager) GetConnection(connectionID string) *websocket.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.connections[connectionID]
}

// Connections snapshots every live socket, used for shutdown notices.
func (cm *ConnectionManager) Connections() []*websocket.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	conns := make([]*websocket.Conn, 0, len(cm.connections))
	for _, conn := range cm.connections {
		conns = append(conns, conn)
	}
	return conns
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}
