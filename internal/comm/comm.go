package comm

import (
	"encoding/json"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
)

// WSMessage is the envelope for every message between web clients, the socket
// service and the room service. SocketId routes a reply back to one client;
// broadcast notifications leave it empty and carry a room id instead.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "join-room", "bingo-call"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// RoomRequest covers create-room, join-room, leave-room, get-room,
// reset-game and the auto-call control messages.
type RoomRequest struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

type CallRequest struct {
	RoomID string `json:"room_id"`
	Number int    `json:"number"` // ignored by call-next
}

type TicketRequest struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
	Count    int    `json:"count"`
}

// CallMessage announces one called number together with the full history so a
// late subscriber can rebuild its board.
type CallMessage struct {
	RoomID  string `json:"room_id"`
	Number  int    `json:"number"`
	Words   string `json:"words"` // spoken form, e.g. "forty two"
	History []int  `json:"history"`
}

// RoomNotification is the push-channel room snapshot fanned out to every
// socket registered for the room.
type RoomNotification struct {
	RoomID string       `json:"room_id"`
	Type   string       `json:"type"` // "room-update", "game-over"
	Room   *models.Room `json:"room,omitempty"`
}

// TicketData is the reply payload for generate-tickets.
type TicketData struct {
	RoomID  string          `json:"room_id"`
	Player  string          `json:"player"`
	Tickets []models.Ticket `json:"tickets"`
}

// ErrorData is the failure reply for any room command.
type ErrorData struct {
	Request string `json:"request"`
	Error   string `json:"error"`
}
