package sync

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	config "github.com/tambolahq/tambola-services/configs"
	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
	"github.com/tambolahq/tambola-services/internal/roomsvc/store"
)

// RoomSync binds one participant to a room and keeps a local snapshot of the
// shared state. Pulls run on a fixed interval and overwrite the snapshot
// wholesale; pushes go the other way whenever the local call history grows.
// The player list is never pushed, only pulled.
type RoomSync struct {
	roomStore store.RoomStore
	roomID    string
	playerID  string
	interval  time.Duration

	mu        sync.Mutex
	gameState models.GameState
	players   []models.Player
	pushed    int // length of the call history at the last push

	cancel context.CancelFunc
	done   chan struct{}

	// OnUpdate, when set before Start, observes every refreshed snapshot.
	OnUpdate func(models.GameState, []models.Player)
}

// New builds a sync adapter. A non-positive interval falls back to the
// configured poll interval; the snapshot staleness bound is one interval.
func New(roomStore store.RoomStore, roomID, playerID string, interval time.Duration) *RoomSync {
	if interval <= 0 {
		interval = config.PollInterval()
	}
	return &RoomSync{
		roomStore: roomStore,
		roomID:    models.NormalizeRoomID(roomID),
		playerID:  playerID,
		interval:  interval,
		gameState: models.NewGameState(),
	}
}

// Start performs an immediate refresh and then polls until Stop or context
// cancellation.
func (s *RoomSync) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.refresh(ctx)

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()
}

// Stop cancels polling and removes the bound player from the room as a
// best-effort cleanup.
func (s *RoomSync) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.roomStore.RemovePlayer(ctx, s.roomID, s.playerID); err != nil {
		log.Warnf("leave cleanup for %s in room %s: %v", s.playerID, s.roomID, err)
	}
}

// Push records a local game state mutation and forwards it to the store when
// the call history is non-empty and has changed since the last push.
func (s *RoomSync) Push(ctx context.Context, gs models.GameState) error {
	s.mu.Lock()
	s.gameState = gs.Clone()
	changed := len(gs.CalledNumbers) > 0 && len(gs.CalledNumbers) != s.pushed
	s.mu.Unlock()

	if !changed {
		return nil
	}
	if err := s.roomStore.UpdateGameState(ctx, s.roomID, gs); err != nil {
		return err
	}

	// only a successful write counts, so a failed push is retried next time
	s.mu.Lock()
	s.pushed = len(gs.CalledNumbers)
	s.mu.Unlock()
	return nil
}

// Snapshot returns the last pulled game state and player list.
func (s *RoomSync) Snapshot() (models.GameState, []models.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameState.Clone(), append([]models.Player(nil), s.players...)
}

func (s *RoomSync) refresh(ctx context.Context) {
	room, err := s.roomStore.Get(ctx, s.roomID)
	if err != nil {
		log.Errorf("refresh room %s: %v", s.roomID, err)
		return
	}
	if room == nil {
		return // room gone or expired, keep the last snapshot
	}

	s.mu.Lock()
	s.gameState = room.GameState.Clone()
	s.players = append([]models.Player(nil), room.Players...)
	gs, players := s.gameState.Clone(), append([]models.Player(nil), s.players...)
	s.mu.Unlock()

	if s.OnUpdate != nil {
		s.OnUpdate(gs, players)
	}
}
