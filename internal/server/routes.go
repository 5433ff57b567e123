package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.HelloWorldHandler)

	mux.HandleFunc("/health", s.healthHandler)

	mux.HandleFunc("/websocket", s.websocketHandler)

	return s.corsMiddleware(mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") // Replace "*" with specific origins if needed
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"message": "Battleship server"}
	jsonResp, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(jsonResp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(map[string]any{
		"status":      "ok",
		"rooms":       s.roomManager.RoomCount(),
		"connections": s.connectionManager.Count(),
	})
	if err != nil {
		http.Error(w, "Failed to marshal health check response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // TODO: make environment-specific
	})
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()

	connectionID := uuid.New().String()
	log.Printf("New connection: %s", connectionID)
	s.connectionManager.AddConnection(connectionID, socket)
	s.connectionHealth.UpdateActivity(connectionID)

	defer s.handleDisconnect(connectionID)

	// Greet every newly attached connection.
	hello := ServerMessage{
		Type:    "hello",
		Payload: HelloMessage{Message: "Connected to battleship server"},
	}
	if err := s.sendMessage(socket, ctx, hello); err != nil {
		log.Printf("Failed to send hello to %s: %v", connectionID, err)
		return
	}

	for {
		msgType, data, err := socket.Read(ctx)

		if err != nil {
			log.Printf("Connection %s read error: %v", connectionID, err)
			return
		}

		if msgType != websocket.MessageText {
			log.Printf("Non-text input from %s", connectionID)
			continue
		}

		s.connectionHealth.UpdateActivity(connectionID)

		if !s.rateLimiter.Allow(connectionID) {
			s.sendError(socket, ctx, "RATE_LIMITED: Too many messages, slow down")
			continue
		}

		// Malformed envelopes short-circuit before any room resolution.
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Invalid JSON from %s: %v", connectionID, err)
			s.sendError(socket, ctx, "Invalid JSON")
			continue
		}

		log.Printf("Message Type '%s' from %s", msg.Type, connectionID)

		if err := ValidateMessageType(msg.Type); err != nil {
			s.sendError(socket, ctx, err.Error())
			continue
		}

		switch msg.Type {
		case "ping":
			s.handlePing(socket, ctx, connectionID)

		case "create_room":
			s.handleCreateRoom(socket, ctx, connectionID)

		case "join_room":
			s.handleJoinRoom(socket, ctx, connectionID, msg.Payload)

		case "place_ready":
			s.handlePlaceReady(socket, ctx, connectionID, msg.Payload)

		case "shot":
			s.handleShot(socket, ctx, connectionID, msg.Payload)
		}
	}
}

// handleDisconnect runs when a connection's channel closes: the player is
// detached from its room, an empty room is deleted, and a remaining
// opponent is notified.
func (s *Server) handleDisconnect(connectionID string) {
	token := s.connectionManager.GetTokenByConnection(connectionID)

	s.connectionManager.RemoveConnection(connectionID)
	s.rateLimiter.RemoveConnection(connectionID)
	s.connectionHealth.RemoveConnection(connectionID)
	log.Printf("Connection closed: %s", connectionID)

	if token == "" {
		return
	}

	session, err := s.sessionManager.GetSession(token)
	s.sessionManager.RemoveSession(token)
	if err != nil {
		return
	}

	remaining, deleted, err := s.roomManager.RemovePlayer(session.RoomCode, session.Slot)
	if err != nil {
		// The room can already be gone if the cleanup task expired it.
		log.Printf("Error detaching player from room %s: %v", session.RoomCode, err)
		return
	}

	if deleted {
		log.Printf("Room %s deleted (last player left)", session.RoomCode)
		return
	}

	log.Printf("Player %d disconnected from room %s", session.Slot+1, session.RoomCode)
	s.sendToToken(remaining, "status", StatusNotification{
		Message: "Opponent left the game",
	})
}

func (s *Server) handlePing(socket *websocket.Conn, ctx context.Context, connectionID string) {
	log.Printf("Ping from %s", connectionID)

	response := ServerMessage{
		Type:    "pong",
		Payload: struct{}{},
	}

	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Printf("Failed to send pong to %s: %v", connectionID, err)
	}
}

func (s *Server) sendMessage(socket *websocket.Conn, ctx context.Context, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	return socket.Write(ctx, websocket.MessageText, data)
}

func (s *Server) sendError(socket *websocket.Conn, ctx context.Context, msg string) {
	response := ServerMessage{
		Type: "error",
		Payload: ErrorMessage{
			Message: msg,
		},
	}

	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Printf("Failed to send error message: %v", err)
	}
}

// sendToToken delivers a message to whichever connection currently holds
// the session token. Disconnected players are silently skipped.
func (s *Server) sendToToken(token, messageType string, payload interface{}) {
	conn := s.connectionManager.GetConnectionByToken(token)
	if conn == nil {
		return
	}

	msg := ServerMessage{
		Type:    messageType,
		Payload: payload,
	}

	// Use background context for broadcasts
	if err := s.sendMessage(conn, context.Background(), msg); err != nil {
		log.Printf("Failed to send %s: %v", messageType, err)
	}
}

func (s *Server) broadcastToRoom(tokens []string, messageType string, payload interface{}) {
	for _, token := range tokens {
		if token == "" {
			continue
		}
		s.sendToToken(token, messageType, payload)
	}
}

func (s *Server) handleCreateRoom(socket *websocket.Conn, ctx context.Context, connectionID string) {
	if s.connectionManager.GetTokenByConnection(connectionID) != "" {
		s.sendError(socket, ctx, "ALREADY_IN_ROOM: Connection is already attached to a room")
		return
	}

	code, token, err := s.roomManager.CreateRoom()
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	s.sessionManager.StoreSession(SessionInfo{
		Token:    token,
		RoomCode: code,
		Slot:     0,
	})
	s.connectionManager.BindToken(connectionID, token)

	response := ServerMessage{
		Type: "room_created",
		Payload: RoomCreatedResponse{
			RoomID: code,
			Player: 1,
		},
	}
	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Printf("Failed to send room_created: %v", err)
	}
}

func (s *Server) handleJoinRoom(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req JoinRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "Invalid join_room payload")
		return
	}

	if s.connectionManager.GetTokenByConnection(connectionID) != "" {
		s.sendError(socket, ctx, "ALREADY_IN_ROOM: Connection is already attached to a room")
		return
	}

	code, token, slot, creatorToken, err := s.roomManager.JoinRoom(req.RoomID)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	s.sessionManager.StoreSession(SessionInfo{
		Token:    token,
		RoomCode: code,
		Slot:     slot,
	})
	s.connectionManager.BindToken(connectionID, token)

	response := ServerMessage{
		Type: "room_joined",
		Payload: RoomJoinedResponse{
			RoomID: code,
			Player: slot + 1,
		},
	}
	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Printf("Failed to send room_joined: %v", err)
		return
	}

	s.sendToToken(creatorToken, "player_joined", PlayerJoinedNotification{
		Player: slot + 1,
	})

	s.broadcastToRoom([]string{creatorToken, token}, "status", StatusNotification{
		Message: "Both players connected. Place your fleets.",
	})
}

func (s *Server) handlePlaceReady(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req PlaceReadyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "Invalid place_ready payload")
		return
	}

	token := s.connectionManager.GetTokenByConnection(connectionID)
	if token == "" {
		s.sendError(socket, ctx, "NOT_IN_ROOM: No active room session")
		return
	}

	session, err := s.sessionManager.GetSession(token)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	outcome, err := s.roomManager.SubmitPlacement(session.RoomCode, session.Slot, req.Placement)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	response := ServerMessage{
		Type: "ready_ok",
		Payload: ReadyOkResponse{
			Player: session.Slot + 1,
		},
	}
	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Printf("Failed to send ready_ok: %v", err)
	}

	s.broadcastToRoom(outcome.Tokens[:], "status", StatusNotification{
		Message: fmt.Sprintf("Player %d is ready", session.Slot+1),
	})

	if outcome.BothReady {
		s.broadcastToRoom(outcome.Tokens[:], "game_start", GameStartNotification{
			TurnPlayer: outcome.TurnPlayer,
		})
	}
}

func (s *Server) handleShot(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req ShotRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "Invalid shot payload")
		return
	}

	token := s.connectionManager.GetTokenByConnection(connectionID)
	if token == "" {
		s.sendError(socket, ctx, "NOT_IN_ROOM: No active room session")
		return
	}

	session, err := s.sessionManager.GetSession(token)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	outcome, err := s.roomManager.ApplyShot(session.RoomCode, session.Slot, req.X, req.Y)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	result := outcome.Result

	// Attacker- and defender-facing views of the same shot. They address
	// different recipients and are never combined into one broadcast.
	attackerMsg := ServerMessage{
		Type: "shot_result",
		Payload: ShotResultResponse{
			X:        result.X,
			Y:        result.Y,
			Hit:      result.Hit,
			Sunk:     result.Sunk,
			SunkSize: result.SunkSize,
			Win:      result.Win,
		},
	}
	if err := s.sendMessage(socket, ctx, attackerMsg); err != nil {
		log.Printf("Failed to send shot_result: %v", err)
	}

	s.sendToToken(outcome.DefenderToken, "got_shot", GotShotNotification{
		X:        result.X,
		Y:        result.Y,
		Hit:      result.Hit,
		Sunk:     result.Sunk,
		SunkSize: result.SunkSize,
		Lose:     result.Win,
	})

	tokens := []string{outcome.AttackerToken, outcome.DefenderToken}

	if result.Win {
		// The winner broadcast replaces the turn update.
		s.broadcastToRoom(tokens, "game_over", GameOverNotification{
			Winner: outcome.Winner,
		})
		s.recordMatch(outcome)
		return
	}

	s.broadcastToRoom(tokens, "turn", TurnNotification{
		TurnPlayer: outcome.TurnPlayer,
	})
}

// recordMatch writes the finished game to the result store, when one is
// configured. Recording happens off the message path; a storage failure
// never affects the game outcome.
func (s *Server) recordMatch(outcome ShotOutcome) {
	if s.resultStore == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := s.resultStore.RecordMatch(ctx, MatchResult{
			RoomCode:   outcome.RoomCode,
			Winner:     outcome.Winner,
			Shots:      outcome.Shots,
			StartedAt:  outcome.StartedAt,
			FinishedAt: outcome.FinishedAt,
		})
		if err != nil {
			log.Printf("Failed to record match %s: %v", outcome.RoomCode, err)
		}
	}()
}
