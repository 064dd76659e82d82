package store

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
)

// DefaultRetention is how long a room lives after creation.
const DefaultRetention = 24 * time.Hour

// casRetries bounds the read-modify-write loop of mutating operations.
// Every save is a compare-and-swap on last_updated, so a concurrent writer
// never silently clobbers another; the loser re-reads and tries again.
const casRetries = 3

// RoomStore is the single authoritative contract for room persistence.
// Get applies expiry on read: a room older than the retention window is
// deleted as a side effect and reported absent (nil, nil).
type RoomStore interface {
	Get(ctx context.Context, id string) (*models.Room, error)
	Save(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)

	AddPlayer(ctx context.Context, roomID string, player models.Player) error
	RemovePlayer(ctx context.Context, roomID, playerID string) error
	UpdateGameState(ctx context.Context, roomID string, gs models.GameState) error
	SetTicketCount(ctx context.Context, roomID, playerID string, count int) error
}

// mutateFn applies an in-place change to a loaded room. Returning del=true
// asks for the room to be deleted instead of saved.
type mutateFn func(room *models.Room) (del bool, err error)

// mutate runs a read-modify-write cycle with CAS retries against any backend.
func mutate(ctx context.Context, s RoomStore, roomID string, fn mutateFn) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		room, err := s.Get(ctx, roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return models.ErrRoomNotFound
		}

		del, err := fn(room)
		if err != nil {
			return err
		}
		if del {
			return s.Delete(ctx, roomID)
		}

		err = s.Save(ctx, room)
		if errors.Is(err, models.ErrVersionConflict) {
			log.Warnf("save conflict for room %s, retrying (%d)", roomID, attempt+1)
			continue
		}
		return err
	}
	return models.ErrVersionConflict
}

// addPlayer replaces an existing player record in place (reconnect with
// refreshed state) or appends a new one if the room has a free slot.
func addPlayer(player models.Player) mutateFn {
	return func(room *models.Room) (bool, error) {
		if i := room.FindPlayer(player.ID); i >= 0 {
			room.Players[i] = player
			return false, nil
		}
		if len(room.Players) >= models.MaxPlayers {
			return false, models.ErrRoomFull
		}
		room.Players = append(room.Players, player)
		return false, nil
	}
}

// removePlayer filters the player out. An empty room is deleted rather than
// kept around; if the host left, the first remaining player is promoted.
func removePlayer(playerID string) mutateFn {
	return func(room *models.Room) (bool, error) {
		kept := room.Players[:0]
		for _, p := range room.Players {
			if p.ID != playerID {
				kept = append(kept, p)
			}
		}
		room.Players = kept

		if len(room.Players) == 0 {
			return true, nil
		}
		if !room.HasHost() {
			room.Players[0].IsHost = true
			room.Host = room.Players[0].ID
			log.Infof("room %s: host left, promoted %s", room.ID, room.Host)
		}
		return false, nil
	}
}

func updateGameState(gs models.GameState) mutateFn {
	return func(room *models.Room) (bool, error) {
		room.GameState = gs.Clone()
		return false, nil
	}
}

func setTicketCount(playerID string, count int) mutateFn {
	return func(room *models.Room) (bool, error) {
		i := room.FindPlayer(playerID)
		if i < 0 {
			return false, models.ErrRoomNotFound
		}
		room.Players[i].TicketCount = count
		return false, nil
	}
}

func exists(ctx context.Context, s RoomStore, id string) (bool, error) {
	room, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return room != nil, nil
}
