package store

import (
	"context"
	"sync"
	"time"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
)

// MemoryStore keeps rooms in a mutex-guarded map. It backs tests and the
// single-node deployment mode.
type MemoryStore struct {
	mu        sync.Mutex
	rooms     map[string]*models.Room
	retention time.Duration
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MemoryStore{
		rooms:     make(map[string]*models.Room),
		retention: retention,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, nil
	}
	if room.Expired(s.retention) {
		delete(s.rooms, id)
		return nil, nil
	}
	return room.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A non-zero stamp is a compare-and-swap: the record must still exist
	// and carry the same stamp, otherwise the writer read stale state. A
	// deleted room must not be resurrected by a stale copy.
	prev := room.LastUpdated
	if !prev.IsZero() {
		stored, ok := s.rooms[room.ID]
		if !ok || !stored.LastUpdated.Equal(prev) {
			return models.ErrVersionConflict
		}
	}

	room.LastUpdated = time.Now().UTC()
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, s, id)
}

func (s *MemoryStore) AddPlayer(ctx context.Context, roomID string, player models.Player) error {
	return mutate(ctx, s, roomID, addPlayer(player))
}

func (s *MemoryStore) RemovePlayer(ctx context.Context, roomID, playerID string) error {
	return mutate(ctx, s, roomID, removePlayer(playerID))
}

func (s *MemoryStore) UpdateGameState(ctx context.Context, roomID string, gs models.GameState) error {
	return mutate(ctx, s, roomID, updateGameState(gs))
}

func (s *MemoryStore) SetTicketCount(ctx context.Context, roomID, playerID string, count int) error {
	return mutate(ctx, s, roomID, setTicketCount(playerID, count))
}
