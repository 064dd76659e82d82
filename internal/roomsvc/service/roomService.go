package service

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/tambolahq/tambola-services/internal/roomsvc/game"
	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
	"github.com/tambolahq/tambola-services/internal/roomsvc/store"
	"github.com/tambolahq/tambola-services/internal/roomsvc/ticket"
)

type RoomService struct {
	roomStore store.RoomStore
}

func NewRoomService(roomStore store.RoomStore) *RoomService {
	return &RoomService{roomStore: roomStore}
}

// CreateRoom persists a new room with hostName as its only player. An empty
// id generates a fresh room code.
func (s *RoomService) CreateRoom(ctx context.Context, id, hostName string) (*models.Room, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, models.ErrInvalidName
	}

	if strings.TrimSpace(id) == "" {
		id = models.NewRoomID()
	} else {
		id = models.NormalizeRoomID(id)
	}

	room := models.NewRoom(id, hostName)
	if err := s.roomStore.Save(ctx, room); err != nil {
		return nil, err
	}
	log.Infof("room %s created by %s", room.ID, hostName)
	return room, nil
}

// JoinRoom adds username to the room as a non-host player. Joining a room the
// player already occupies is an idempotent success, but a full room rejects
// every join, rejoins included.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, username string) (*models.Room, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, models.ErrInvalidName
	}
	roomID = models.NormalizeRoomID(roomID)
	if roomID == "" {
		return nil, models.ErrInvalidRoomID
	}

	room, err := s.roomStore.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, models.ErrRoomNotFound
	}
	if len(room.Players) >= models.MaxPlayers {
		return nil, models.ErrRoomFull
	}
	if room.FindPlayer(username) >= 0 {
		return room, nil // already in the room
	}

	player := models.Player{ID: username, Name: username, TicketCount: 0, IsHost: false}
	if err := s.roomStore.AddPlayer(ctx, roomID, player); err != nil {
		return nil, err
	}

	joined, err := s.roomStore.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if joined == nil {
		// the room expired between the write and the re-read
		return nil, models.ErrRoomNotFound
	}
	log.Infof("player %s joined room %s", username, roomID)
	return joined, nil
}

// LeaveRoom removes the player. The store deletes an emptied room and
// promotes a new host when needed.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, playerID string) error {
	return s.roomStore.RemovePlayer(ctx, models.NormalizeRoomID(roomID), playerID)
}

// GetRoom loads a room, reporting ErrRoomNotFound for absent or expired ids.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := s.roomStore.Get(ctx, models.NormalizeRoomID(roomID))
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, models.ErrRoomNotFound
	}
	return room, nil
}

// CallNumber marks n as called in the room's game state.
func (s *RoomService) CallNumber(ctx context.Context, roomID string, n int) (*models.Room, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	gs, err := game.Call(room.GameState, n)
	if err != nil {
		return nil, err
	}
	if err := s.roomStore.UpdateGameState(ctx, room.ID, gs); err != nil {
		return nil, err
	}
	room.GameState = gs
	return room, nil
}

// CallNext draws a random available number and calls it.
func (s *RoomService) CallNext(ctx context.Context, roomID string) (*models.Room, int, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, 0, err
	}

	n, err := game.Next(room.GameState)
	if err != nil {
		return nil, 0, err
	}
	room, err = s.CallNumber(ctx, roomID, n)
	if err != nil {
		return nil, 0, err
	}
	return room, n, nil
}

// ResetGame restores the room to a fresh 1..90 state.
func (s *RoomService) ResetGame(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	gs := game.Reset()
	if err := s.roomStore.UpdateGameState(ctx, room.ID, gs); err != nil {
		return nil, err
	}
	room.GameState = gs
	return room, nil
}

// GenerateTickets produces count tickets for a player and keeps the player's
// ticket count in step.
func (s *RoomService) GenerateTickets(ctx context.Context, roomID, playerID string, count int) ([]models.Ticket, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	i := room.FindPlayer(playerID)
	if i < 0 {
		return nil, models.ErrRoomNotFound
	}

	tickets := ticket.Generate(count)
	if len(tickets) == 0 {
		return tickets, nil
	}

	total := room.Players[i].TicketCount + len(tickets)
	if err := s.roomStore.SetTicketCount(ctx, room.ID, playerID, total); err != nil {
		return nil, err
	}
	return tickets, nil
}
