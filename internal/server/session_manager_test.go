package server_test

import (
	"testing"

	"battleship-server/internal/server"

	"github.com/stretchr/testify/assert"
)

func TestSessionManagerStoreAndGet(t *testing.T) {
	assert := assert.New(t)
	sm := server.NewSessionManager()

	info := server.SessionInfo{
		Token:    "token-1",
		RoomCode: "ABCDEF",
		Slot:     0,
	}
	sm.StoreSession(info)

	got, err := sm.GetSession("token-1")
	assert.NoError(err)
	assert.Equal(info, got)
}

func TestSessionManagerUnknownToken(t *testing.T) {
	sm := server.NewSessionManager()

	_, err := sm.GetSession("missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_NOT_FOUND")
}

func TestSessionManagerRemove(t *testing.T) {
	assert := assert.New(t)
	sm := server.NewSessionManager()

	sm.StoreSession(server.SessionInfo{Token: "token-1", RoomCode: "ABCDEF", Slot: 1})
	assert.Equal(1, sm.Count())

	sm.RemoveSession("token-1")
	assert.Equal(0, sm.Count())

	_, err := sm.GetSession("token-1")
	assert.Error(err)
}

func TestSessionManagerOneSessionPerToken(t *testing.T) {
	assert := assert.New(t)
	sm := server.NewSessionManager()

	sm.StoreSession(server.SessionInfo{Token: "token-1", RoomCode: "ABCDEF", Slot: 0})
	sm.StoreSession(server.SessionInfo{Token: "token-1", RoomCode: "GHIJKL", Slot: 1})

	got, err := sm.GetSession("token-1")
	assert.NoError(err)
	assert.Equal("GHIJKL", got.RoomCode)
	assert.Equal(1, got.Slot)
	assert.Equal(1, sm.Count())
}
