package server

import "battleship-server/internal/battleship"

// ============================================================================
// ERROR RESPONSES
// ============================================================================
type ErrorMessage struct {
	Message string `json:"message"`
}

// ============================================================================
// CONNECTION GREETING (hello)
// ============================================================================
type HelloMessage struct {
	Message string `json:"message"`
}

// ============================================================================
// CREATE ROOM (create_room)
// ============================================================================
type CreateRoomRequest struct {
	// No fields - the connection identifies the creator.
}

type RoomCreatedResponse struct {
	RoomID string `json:"roomId"`
	Player int    `json:"player"` // 1-based slot
}

// ============================================================================
// JOIN ROOM (join_room)
// ============================================================================
type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

type RoomJoinedResponse struct {
	RoomID string `json:"roomId"`
	Player int    `json:"player"`
}

type PlayerJoinedNotification struct {
	Player int `json:"player"`
}

// ============================================================================
// STATUS (status broadcast)
// ============================================================================
type StatusNotification struct {
	Message string `json:"message"`
}

// ============================================================================
// FLEET PLACEMENT (place_ready)
// ============================================================================
type PlaceReadyRequest struct {
	Placement battleship.Placement `json:"placement"`
}

type ReadyOkResponse struct {
	Player int `json:"player"`
}

type GameStartNotification struct {
	TurnPlayer int `json:"turnPlayer"`
}

// ============================================================================
// SHOTS (shot)
// ============================================================================
type ShotRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type ShotResultResponse struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	Hit      bool `json:"hit"`
	Sunk     bool `json:"sunk"`
	SunkSize int  `json:"sunkSize"`
	Win      bool `json:"win"`
}

type GotShotNotification struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	Hit      bool `json:"hit"`
	Sunk     bool `json:"sunk"`
	SunkSize int  `json:"sunkSize"`
	Lose     bool `json:"lose"`
}

type TurnNotification struct {
	TurnPlayer int `json:"turnPlayer"`
}

type GameOverNotification struct {
	Winner int `json:"winner"`
}
