package server

import (
	"errors"
	"math/rand"
	"strings"
)

const roomCodeLength = 6

// GenerateRoomCode returns a fresh 6-letter code not present in usedCodes.
// Collisions are resolved by regenerating; the caller holds the lock on
// usedCodes and records the returned code.
func GenerateRoomCode(usedCodes map[string]bool) string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = 'A' + byte(rand.Intn(26))
		}
		roomCode := string(code)

		if !usedCodes[roomCode] {
			return roomCode
		}
	}
}

func ValidateRoomCode(code string) error {
	if len(code) != roomCodeLength {
		return errors.New("ROOM_CODE_INVALID: Room code must be exactly 6 characters")
	}

	for _, ch := range code {
		if ch < 'A' || ch > 'Z' {
			return errors.New("ROOM_CODE_INVALID: Room code must contain only letters A-Z")
		}
	}

	return nil
}

// NormalizeRoomCode makes client-supplied codes comparable: codes are
// case-insensitive and may arrive with surrounding whitespace.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
