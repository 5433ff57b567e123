package server

import (
	"errors"
	"sync"
	"time"

	"battleship-server/internal/battleship"

	"github.com/google/uuid"
)

// RoomManager owns every active room. The manager mutex guards only the
// maps; each Room carries its own mutex so that every check-then-mutate
// sequence on one room is atomic with respect to the other player's
// messages, while unrelated rooms never contend.
type RoomManager struct {
	rooms     map[string]*Room
	usedCodes map[string]bool
	mu        sync.RWMutex
}

type Room struct {
	Code       string
	Players    [2]PlayerSlot // slot 0 = creator, slot 1 = joiner
	Turn       int           // meaningful only while playing
	Status     RoomStatus
	Winner     int // 1-based, set when finished
	Shots      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	mu         sync.Mutex
}

type PlayerSlot struct {
	Token    string
	Ready    bool
	Board    *battleship.Board
	JoinedAt time.Time
}

type RoomStatus string

const (
	StatusWaiting   RoomStatus = "waiting"   // one player, awaiting opponent
	StatusPlacement RoomStatus = "placement" // two players, placing fleets
	StatusPlaying   RoomStatus = "playing"
	StatusFinished  RoomStatus = "finished"
	StatusAborted   RoomStatus = "aborted" // a player left mid-game
)

// PlacementOutcome is what the dispatcher needs after a placement was
// accepted, captured under the room lock so no field is read racily.
type PlacementOutcome struct {
	RoomCode   string
	BothReady  bool
	Tokens     [2]string
	TurnPlayer int // 1-based first turn holder, valid when BothReady
}

// ShotOutcome is the resolved shot plus everything needed to address the
// attacker- and defender-facing messages.
type ShotOutcome struct {
	RoomCode      string
	Result        battleship.ShotResult
	AttackerSlot  int
	AttackerToken string
	DefenderToken string
	TurnPlayer    int // 1-based turn holder after the shot
	Winner        int // 1-based, 0 unless the shot won the game
	Shots         int
	StartedAt     time.Time
	FinishedAt    time.Time
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:     make(map[string]*Room),
		usedCodes: make(map[string]bool),
	}
}

// CreateRoom allocates a room with a fresh collision-checked code and
// seats the creator in slot 0. Returns the room code and the creator's
// session token.
func (rm *RoomManager) CreateRoom() (string, string, error) {
	token := uuid.New().String()
	now := time.Now()

	rm.mu.Lock()
	defer rm.mu.Unlock()

	code := GenerateRoomCode(rm.usedCodes)
	rm.usedCodes[code] = true

	room := &Room{
		Code:      code,
		Status:    StatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	room.Players[0] = PlayerSlot{
		Token:    token,
		JoinedAt: now,
	}

	rm.rooms[code] = room
	return code, token, nil
}

// JoinRoom seats a second player in slot 1. Membership is frozen at two:
// once a room leaves the waiting state it never accepts another join.
func (rm *RoomManager) JoinRoom(rawCode string) (string, string, int, string, error) {
	code := NormalizeRoomCode(rawCode)
	if err := ValidateRoomCode(code); err != nil {
		return "", "", -1, "", err
	}

	room, exists := rm.getRoom(code)
	if !exists {
		return "", "", -1, "", errors.New("ROOM_NOT_FOUND: Room not found")
	}

	token := uuid.New().String()

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != StatusWaiting || room.Players[0].Token == "" {
		return "", "", -1, "", errors.New("ROOM_FULL: Room already has two players")
	}

	now := time.Now()
	room.Players[1] = PlayerSlot{
		Token:    token,
		JoinedAt: now,
	}
	room.Status = StatusPlacement
	room.UpdatedAt = now

	return code, token, 1, room.Players[0].Token, nil
}

// SubmitPlacement validates and installs a player's fleet, marks the slot
// ready, and starts the game when both slots are ready. An accepted
// placement is final; re-submission is rejected.
func (rm *RoomManager) SubmitPlacement(code string, slot int, p battleship.Placement) (PlacementOutcome, error) {
	room, exists := rm.getRoom(code)
	if !exists {
		return PlacementOutcome{}, errors.New("ROOM_NOT_FOUND: Room not found")
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	switch room.Status {
	case StatusWaiting:
		return PlacementOutcome{}, errors.New("NO_OPPONENT: Waiting for an opponent to join")
	case StatusPlaying:
		return PlacementOutcome{}, errors.New("GAME_ALREADY_STARTED: Cannot change placement after the game starts")
	case StatusFinished:
		return PlacementOutcome{}, errors.New("GAME_OVER: Game has ended")
	case StatusAborted:
		return PlacementOutcome{}, errors.New("OPPONENT_LEFT: Opponent left the game")
	}

	if room.Players[slot].Ready {
		return PlacementOutcome{}, errors.New("ALREADY_PLACED: Placement was already accepted")
	}

	board, err := battleship.NewBoard(p)
	if err != nil {
		return PlacementOutcome{}, err
	}

	room.Players[slot].Board = board
	room.Players[slot].Ready = true
	room.UpdatedAt = time.Now()

	outcome := PlacementOutcome{
		RoomCode: room.Code,
		Tokens:   [2]string{room.Players[0].Token, room.Players[1].Token},
	}

	if room.Players[0].Ready && room.Players[1].Ready {
		// Started flips exactly once; the creator fires first.
		room.Status = StatusPlaying
		room.Turn = 0
		room.StartedAt = time.Now()
		outcome.BothReady = true
		outcome.TurnPlayer = room.Turn + 1
	}

	return outcome, nil
}

// ApplyShot resolves one shot by the attacker slot. A hit keeps the turn,
// a miss flips it, and destroying the last ship finishes the room. Every
// rejection leaves the room untouched.
func (rm *RoomManager) ApplyShot(code string, slot, x, y int) (ShotOutcome, error) {
	room, exists := rm.getRoom(code)
	if !exists {
		return ShotOutcome{}, errors.New("ROOM_NOT_FOUND: Room not found")
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	switch room.Status {
	case StatusWaiting, StatusPlacement:
		return ShotOutcome{}, errors.New("GAME_NOT_STARTED: Game has not started yet")
	case StatusFinished:
		return ShotOutcome{}, errors.New("GAME_OVER: Game has ended")
	case StatusAborted:
		return ShotOutcome{}, errors.New("OPPONENT_LEFT: Opponent left the game")
	}

	if slot != room.Turn {
		return ShotOutcome{}, errors.New("NOT_YOUR_TURN: It is not your turn")
	}

	defender := 1 - slot
	result, err := room.Players[defender].Board.ApplyShot(x, y)
	if err != nil {
		return ShotOutcome{}, err
	}

	room.Shots++
	room.UpdatedAt = time.Now()

	if result.Win {
		room.Status = StatusFinished
		room.Winner = slot + 1
		room.FinishedAt = time.Now()
	} else if !result.Hit {
		room.Turn = defender
	}

	return ShotOutcome{
		RoomCode:      room.Code,
		Result:        result,
		AttackerSlot:  slot,
		AttackerToken: room.Players[slot].Token,
		DefenderToken: room.Players[defender].Token,
		TurnPlayer:    room.Turn + 1,
		Winner:        room.Winner,
		Shots:         room.Shots,
		StartedAt:     room.StartedAt,
		FinishedAt:    room.FinishedAt,
	}, nil
}

// RemovePlayer detaches a slot on disconnect. The last player leaving
// deletes the room and frees its code; otherwise the remaining player's
// token is returned so they can be notified, and an unfinished room moves
// to the aborted terminal state.
func (rm *RoomManager) RemovePlayer(code string, slot int) (string, bool, error) {
	room, exists := rm.getRoom(code)
	if !exists {
		return "", false, errors.New("ROOM_NOT_FOUND: Room not found")
	}

	room.mu.Lock()

	room.Players[slot] = PlayerSlot{}
	room.UpdatedAt = time.Now()

	remaining := room.Players[1-slot].Token
	deleted := remaining == ""
	if deleted {
		// Terminal status so a join racing the delete is rejected.
		room.Status = StatusAborted
	} else if room.Status == StatusPlacement || room.Status == StatusPlaying {
		room.Status = StatusAborted
	}

	room.mu.Unlock()

	if deleted {
		rm.deleteRoom(code)
	}

	return remaining, deleted, nil
}

func (rm *RoomManager) GetRoom(code string) (*Room, error) {
	room, exists := rm.getRoom(code)
	if !exists {
		return nil, errors.New("ROOM_NOT_FOUND: Room not found")
	}
	return room, nil
}

func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// CleanupIdleRooms deletes rooms that never got an opponent within maxAge.
// Returns the deleted codes.
func (rm *RoomManager) CleanupIdleRooms(maxAge time.Duration) []string {
	cutoff := time.Now().Add(-maxAge)

	rm.mu.RLock()
	candidates := make([]*Room, 0)
	for _, room := range rm.rooms {
		candidates = append(candidates, room)
	}
	rm.mu.RUnlock()

	var deleted []string
	for _, room := range candidates {
		room.mu.Lock()
		expired := room.Status == StatusWaiting && room.CreatedAt.Before(cutoff)
		if expired {
			room.Status = StatusAborted
		}
		room.mu.Unlock()

		if expired {
			rm.deleteRoom(room.Code)
			deleted = append(deleted, room.Code)
		}
	}

	return deleted
}

// StatusSnapshot reads the room's status under its lock.
func (r *Room) StatusSnapshot() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Status
}

func (rm *RoomManager) getRoom(code string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	room, exists := rm.rooms[code]
	return room, exists
}

func (rm *RoomManager) deleteRoom(code string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.rooms, code)
	delete(rm.usedCodes, code)
}
