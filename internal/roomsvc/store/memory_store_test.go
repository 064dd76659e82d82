package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(DefaultRetention)
}

func saveRoom(t *testing.T, s RoomStore, id string, players ...string) *models.Room {
	t.Helper()
	require.NotEmpty(t, players)

	room := models.NewRoom(id, players[0])
	for _, name := range players[1:] {
		room.Players = append(room.Players, models.Player{ID: name, Name: name})
	}
	require.NoError(t, s.Save(context.Background(), room))
	return room
}

func TestSaveGetRoundTrip(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	saved := saveRoom(t, s, "ROOM-ABC123", "alice")

	got, err := s.Get(ctx, "ROOM-ABC123")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, saved.Host, got.Host)
	assert.Equal(t, saved.Players, got.Players)
	assert.Equal(t, saved.GameState, got.GameState)
}

func TestGetAbsent(t *testing.T) {
	s := newTestStore()

	got, err := s.Get(context.Background(), "ROOM-NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err := s.Exists(context.Background(), "ROOM-NOPE")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpiryOnRead(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	room := models.NewRoom("ROOM-OLD111", "alice")
	room.CreatedAt = time.Now().Add(-25 * time.Hour)
	require.NoError(t, s.Save(ctx, room))

	got, err := s.Get(ctx, "ROOM-OLD111")
	require.NoError(t, err)
	assert.Nil(t, got, "expired room must be reported absent")

	// the expired record was removed as a side effect
	s.mu.Lock()
	_, stillThere := s.rooms["ROOM-OLD111"]
	s.mu.Unlock()
	assert.False(t, stillThere)
}

func TestDelete(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	saveRoom(t, s, "ROOM-DEL111", "alice")
	require.NoError(t, s.Delete(ctx, "ROOM-DEL111"))

	ok, err := s.Exists(ctx, "ROOM-DEL111")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddPlayer(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	saveRoom(t, s, "ROOM-ADD111", "alice")

	err := s.AddPlayer(ctx, "ROOM-ADD111", models.Player{ID: "bob", Name: "bob"})
	require.NoError(t, err)

	room, err := s.Get(ctx, "ROOM-ADD111")
	require.NoError(t, err)
	require.Len(t, room.Players, 2)
	assert.Equal(t, "bob", room.Players[1].ID)
	assert.False(t, room.Players[1].IsHost)
}

func TestAddPlayerReplacesExisting(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	saveRoom(t, s, "ROOM-REJ111", "alice", "bob")

	// reconnect with refreshed state keeps the slot count stable
	err := s.AddPlayer(ctx, "ROOM-REJ111", models.Player{ID: "bob", Name: "bob", TicketCount: 3})
	require.NoError(t, err)

	room, err := s.Get(ctx, "ROOM-REJ111")
	require.NoError(t, err)
	require.Len(t, room.Players, 2)
	assert.Equal(t, 3, room.Players[1].TicketCount)
}

func TestAddPlayerCapacity(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	saveRoom(t, s, "ROOM-FUL111", "p1", "p2", "p3", "p4")

	err := s.AddPlayer(ctx, "ROOM-FUL111", models.Player{ID: "p5", Name: "p5"})
	assert.ErrorIs(t, err, models.ErrRoomFull)

	room, err := s.Get(ctx, "ROOM-FUL111")
	require.NoError(t, err)
	assert.Len(t, room.Players, models.MaxPlayers)
}

func TestAddPlayerRoomAbsent(t *testing.T) {
	s := newTestStore()

	err := s.AddPlayer(context.Background(), "ROOM-NOPE", models.Player{ID: "bob"})
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
}

func TestRemovePlayerHostTransfer(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	saveRoom(t, s, "ROOM-HST111", "alice", "bob", "carol")

	require.NoError(t, s.RemovePlayer(ctx, "ROOM-HST111", "alice"))

	room, err := s.Get(ctx, "ROOM-HST111")
	require.NoError(t, err)
	require.Len(t, room.Players, 2)

	hosts := 0
	for _, p := range room.Players {
		if p.IsHost {
			hosts++
			assert.Equal(t, room.Host, p.ID)
		}
	}
	assert.Equal(t, 1, hosts)
	assert.Equal(t, "bob", room.Host, "first remaining player becomes host")
}

func TestRemoveLastPlayerDeletesRoom(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	saveRoom(t, s, "ROOM-EMP111", "alice")

	require.NoError(t, s.RemovePlayer(ctx, "ROOM-EMP111", "alice"))

	ok, err := s.Exists(ctx, "ROOM-EMP111")
	require.NoError(t, err)
	assert.False(t, ok, "a room with zero players must not be retained")
}

func TestUpdateGameState(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	saveRoom(t, s, "ROOM-UPD111", "alice")

	gs := models.NewGameState()
	n := 42
	gs.CurrentNumber = &n
	gs.CalledNumbers = []int{42}
	gs.AvailableNumbers = gs.AvailableNumbers[:0]
	for i := 1; i <= models.MaxNumber; i++ {
		if i != 42 {
			gs.AvailableNumbers = append(gs.AvailableNumbers, i)
		}
	}

	require.NoError(t, s.UpdateGameState(ctx, "ROOM-UPD111", gs))

	room, err := s.Get(ctx, "ROOM-UPD111")
	require.NoError(t, err)
	assert.Equal(t, gs, room.GameState)
}

func TestSetTicketCount(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	saveRoom(t, s, "ROOM-TIC111", "alice")

	require.NoError(t, s.SetTicketCount(ctx, "ROOM-TIC111", "alice", 6))

	room, err := s.Get(ctx, "ROOM-TIC111")
	require.NoError(t, err)
	assert.Equal(t, 6, room.Players[0].TicketCount)
}

func TestSaveVersionConflict(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	saveRoom(t, s, "ROOM-CAS111", "alice")

	// two participants read the same version
	first, err := s.Get(ctx, "ROOM-CAS111")
	require.NoError(t, err)
	second, err := s.Get(ctx, "ROOM-CAS111")
	require.NoError(t, err)

	first.Host = "first"
	require.NoError(t, s.Save(ctx, first))

	// the stale writer loses instead of silently clobbering
	second.Host = "second"
	assert.ErrorIs(t, s.Save(ctx, second), models.ErrVersionConflict)

	room, err := s.Get(ctx, "ROOM-CAS111")
	require.NoError(t, err)
	assert.Equal(t, "first", room.Host)
}

func TestSaveStaleCopyCannotResurrectDeletedRoom(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	saveRoom(t, s, "ROOM-RES111", "alice")

	stale, err := s.Get(ctx, "ROOM-RES111")
	require.NoError(t, err)

	// the last player leaves and the store drops the room
	require.NoError(t, s.RemovePlayer(ctx, "ROOM-RES111", "alice"))
	ok, err := s.Exists(ctx, "ROOM-RES111")
	require.NoError(t, err)
	require.False(t, ok)

	// the stale copy still carries the departed player list; writing it
	// back must fail rather than bring the room back
	assert.ErrorIs(t, s.Save(ctx, stale), models.ErrVersionConflict)

	ok, err = s.Exists(ctx, "ROOM-RES111")
	require.NoError(t, err)
	assert.False(t, ok, "a deleted room must stay deleted")
}
