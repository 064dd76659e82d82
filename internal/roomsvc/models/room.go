package models

import (
	"math/rand"
	"strings"
	"time"
)

// MaxPlayers is the room capacity.
const MaxPlayers = 4

const (
	roomIDPrefix   = "ROOM-"
	roomIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	roomIDLength   = 6
)

type Room struct {
	ID          string    `json:"id"`           // Room code, e.g. ROOM-4F7Q2A
	Host        string    `json:"host"`         // Player id of the current host
	Players     []Player  `json:"players"`      // Unique by id, at most MaxPlayers
	GameState   GameState `json:"game_state"`   // Authoritative copy for the room
	CreatedAt   time.Time `json:"created_at"`   // Expiry is measured from this
	LastUpdated time.Time `json:"last_updated"` // Bumped on every save, used for CAS
}

// NewRoom builds a room with a single host player and a fresh game state.
func NewRoom(id, hostName string) *Room {
	return &Room{
		ID:   id,
		Host: hostName,
		Players: []Player{
			{ID: hostName, Name: hostName, TicketCount: 0, IsHost: true},
		},
		GameState: NewGameState(),
		CreatedAt: time.Now().UTC(),
	}
}

// NewRoomID generates a room code: fixed prefix plus 6 random base36 characters.
func NewRoomID() string {
	b := make([]byte, roomIDLength)
	for i := range b {
		b[i] = roomIDAlphabet[rand.Intn(len(roomIDAlphabet))]
	}
	return roomIDPrefix + string(b)
}

// NormalizeRoomID uppercases a human-typed room code.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// FindPlayer returns the index of the player with the given id, or -1.
func (r *Room) FindPlayer(playerID string) int {
	for i, p := range r.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// HasHost reports whether any player currently carries the host flag.
func (r *Room) HasHost() bool {
	for _, p := range r.Players {
		if p.IsHost {
			return true
		}
	}
	return false
}

// Expired reports whether the room has outlived the retention window.
func (r *Room) Expired(retention time.Duration) bool {
	return time.Since(r.CreatedAt) > retention
}

// Clone returns a deep copy so callers cannot alias stored state.
func (r *Room) Clone() *Room {
	c := *r
	c.Players = append([]Player(nil), r.Players...)
	c.GameState = r.GameState.Clone()
	return &c
}
