package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
	"github.com/tambolahq/tambola-services/internal/roomsvc/store"
)

func newTestService() *RoomService {
	return NewRoomService(store.NewMemoryStore(store.DefaultRetention))
}

func TestCreateRoom(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "ROOM-ABC123", "alice")
	require.NoError(t, err)

	assert.Equal(t, "ROOM-ABC123", room.ID)
	assert.Equal(t, "alice", room.Host)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsHost)
	assert.Len(t, room.GameState.AvailableNumbers, models.MaxNumber)
	assert.Empty(t, room.GameState.CalledNumbers)
}

func TestCreateRoomGeneratesCode(t *testing.T) {
	svc := newTestService()

	room, err := svc.CreateRoom(context.Background(), "", "alice")
	require.NoError(t, err)
	assert.Regexp(t, `^ROOM-[0-9A-Z]{6}$`, room.ID)
}

func TestCreateRoomValidation(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateRoom(context.Background(), "ROOM-ABC123", "   ")
	assert.ErrorIs(t, err, models.ErrInvalidName)
}

func TestJoinRoom(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, "ROOM-ABC123", "alice")
	require.NoError(t, err)

	room, err := svc.JoinRoom(ctx, "room-abc123", "bob") // case-insensitive code
	require.NoError(t, err)

	require.Len(t, room.Players, 2)
	assert.Equal(t, "bob", room.Players[1].ID)
	assert.False(t, room.Players[1].IsHost)
}

func TestJoinRoomIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, "ROOM-ABC123", "alice")
	require.NoError(t, err)

	_, err = svc.JoinRoom(ctx, "ROOM-ABC123", "bob")
	require.NoError(t, err)

	room, err := svc.JoinRoom(ctx, "ROOM-ABC123", "bob")
	require.NoError(t, err)
	assert.Len(t, room.Players, 2, "second join with the same username is a no-op success")
}

func TestJoinRoomNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.JoinRoom(context.Background(), "ROOM-NOPE11", "bob")
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
}

func TestJoinRoomFull(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, "ROOM-ABC123", "p1")
	require.NoError(t, err)
	for _, name := range []string{"p2", "p3", "p4"} {
		_, err := svc.JoinRoom(ctx, "ROOM-ABC123", name)
		require.NoError(t, err)
	}

	_, err = svc.JoinRoom(ctx, "ROOM-ABC123", "p5")
	assert.ErrorIs(t, err, models.ErrRoomFull)

	// capacity is checked first, so even a rejoin by a seated player fails
	_, err = svc.JoinRoom(ctx, "ROOM-ABC123", "p2")
	assert.ErrorIs(t, err, models.ErrRoomFull)
}

// vanishingStore drops the room after the first read, standing in for a room
// that expires between a write and the re-read that follows it.
type vanishingStore struct {
	store.RoomStore
	gets int
}

func (s *vanishingStore) Get(ctx context.Context, id string) (*models.Room, error) {
	s.gets++
	if s.gets > 1 {
		return nil, nil
	}
	return s.RoomStore.Get(ctx, id)
}

func TestJoinRoomVanishesBeforeReread(t *testing.T) {
	mem := store.NewMemoryStore(store.DefaultRetention)
	svc := NewRoomService(&vanishingStore{RoomStore: mem})
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, "ROOM-ABC123", "alice")
	require.NoError(t, err)

	room, err := svc.JoinRoom(ctx, "ROOM-ABC123", "bob")
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
	assert.Nil(t, room, "a vanished room must not surface as a nil-field success")
}

func TestCallNumber(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, "ROOM-ABC123", "alice")
	require.NoError(t, err)

	room, err := svc.CallNumber(ctx, "ROOM-ABC123", 42)
	require.NoError(t, err)

	require.NotNil(t, room.GameState.CurrentNumber)
	assert.Equal(t, 42, *room.GameState.CurrentNumber)
	assert.Equal(t, []int{42}, room.GameState.CalledNumbers)
	assert.Len(t, room.GameState.AvailableNumbers, 89)
	assert.NotContains(t, room.GameState.AvailableNumbers, 42)

	_, err = svc.CallNumber(ctx, "ROOM-ABC123", 42)
	assert.ErrorIs(t, err, models.ErrNumberCalled)
}

func TestCallNext(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, "ROOM-ABC123", "alice")
	require.NoError(t, err)

	called := map[int]bool{}
	for i := 0; i < models.MaxNumber; i++ {
		room, n, err := svc.CallNext(ctx, "ROOM-ABC123")
		require.NoError(t, err)
		assert.False(t, called[n], "number %d called twice", n)
		called[n] = true
		assert.Len(t, room.GameState.CalledNumbers, i+1)
	}

	_, _, err = svc.CallNext(ctx, "ROOM-ABC123")
	assert.ErrorIs(t, err, models.ErrNoNumbersLeft)
}

func TestResetGame(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, "ROOM-ABC123", "alice")
	require.NoError(t, err)
	_, err = svc.CallNumber(ctx, "ROOM-ABC123", 7)
	require.NoError(t, err)

	room, err := svc.ResetGame(ctx, "ROOM-ABC123")
	require.NoError(t, err)

	assert.Nil(t, room.GameState.CurrentNumber)
	assert.Empty(t, room.GameState.CalledNumbers)
	assert.Len(t, room.GameState.AvailableNumbers, models.MaxNumber)
}

func TestGenerateTicketsUpdatesCount(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, "ROOM-ABC123", "alice")
	require.NoError(t, err)

	tickets, err := svc.GenerateTickets(ctx, "ROOM-ABC123", "alice", 6)
	require.NoError(t, err)
	assert.Len(t, tickets, 6)

	room, err := svc.GetRoom(ctx, "ROOM-ABC123")
	require.NoError(t, err)
	assert.Equal(t, 6, room.Players[0].TicketCount)

	_, err = svc.GenerateTickets(ctx, "ROOM-ABC123", "alice", 1)
	require.NoError(t, err)

	room, err = svc.GetRoom(ctx, "ROOM-ABC123")
	require.NoError(t, err)
	assert.Equal(t, 7, room.Players[0].TicketCount)
}

// The full flow from the original game: create, join, call, leave.
func TestRoomLifecycleScenario(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "ROOM-ABC123", "alice")
	require.NoError(t, err)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsHost)

	room, err = svc.JoinRoom(ctx, "ROOM-ABC123", "bob")
	require.NoError(t, err)
	require.Len(t, room.Players, 2)
	assert.False(t, room.Players[1].IsHost)

	room, err = svc.CallNumber(ctx, "ROOM-ABC123", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, *room.GameState.CurrentNumber)
	assert.Equal(t, []int{42}, room.GameState.CalledNumbers)
	assert.Len(t, room.GameState.AvailableNumbers, 89)

	require.NoError(t, svc.LeaveRoom(ctx, "ROOM-ABC123", "alice"))

	room, err = svc.GetRoom(ctx, "ROOM-ABC123")
	require.NoError(t, err)
	require.Len(t, room.Players, 1)
	assert.Equal(t, "bob", room.Players[0].ID)
	assert.True(t, room.Players[0].IsHost)
	assert.Equal(t, "bob", room.Host)
}
