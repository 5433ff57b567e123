package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// lobbyExpiry is how long a room may wait for an opponent before the
// cleanup task deletes it.
const lobbyExpiry = 10 * time.Minute

type Server struct {
	port              int
	connectionManager *ConnectionManager
	roomManager       *RoomManager
	sessionManager    *SessionManager
	rateLimiter       *RateLimiter
	connectionHealth  *ConnectionHealth
	resultStore       *MatchResultStore
}

func NewServer() (*Server, *http.Server) {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	s := &Server{
		port:              port,
		connectionManager: NewConnectionManager(),
		roomManager:       NewRoomManager(),
		sessionManager:    NewSessionManager(),
		rateLimiter:       NewRateLimiter(10, time.Second),
		connectionHealth:  NewConnectionHealth(),
	}

	// Match-result recording is optional; the game runs fine without it.
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		store, err := NewMatchResultStore(ctx, databaseURL)
		if err != nil {
			log.Printf("Warning: match result store disabled: %v", err)
		} else {
			s.resultStore = store
		}
	}

	go s.cleanupTask()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, httpServer
}

// cleanupTask deletes rooms that never got an opponent. Runs for the
// lifetime of the process.
func (s *Server) cleanupTask() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		deleted := s.roomManager.CleanupIdleRooms(lobbyExpiry)
		if len(deleted) > 0 {
			log.Printf("Cleanup task: deleted %d idle rooms", len(deleted))
		}
	}
}

// Shutdown notifies every connected player and releases the result
// store. The HTTP listener is shut down separately by the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	notice := ServerMessage{
		Type:    "status",
		Payload: StatusNotification{Message: "Server is shutting down"},
	}

	for _, conn := range s.connectionManager.Connections() {
		if err := s.sendMessage(conn, ctx, notice); err != nil {
			log.Printf("Failed to send shutdown notice: %v", err)
		}
	}

	if s.resultStore != nil {
		s.resultStore.Close()
	}

	return nil
}
