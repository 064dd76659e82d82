package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
)

func TestCall(t *testing.T) {
	gs := models.NewGameState()

	gs, err := Call(gs, 42)
	require.NoError(t, err)

	require.NotNil(t, gs.CurrentNumber)
	assert.Equal(t, 42, *gs.CurrentNumber)
	assert.Equal(t, []int{42}, gs.CalledNumbers)
	assert.Len(t, gs.AvailableNumbers, models.MaxNumber-1)
	assert.NotContains(t, gs.AvailableNumbers, 42)
}

func TestCallDuplicate(t *testing.T) {
	gs := models.NewGameState()

	gs, err := Call(gs, 7)
	require.NoError(t, err)

	_, err = Call(gs, 7)
	assert.ErrorIs(t, err, models.ErrNumberCalled)
	// state unchanged by the failed call
	assert.Equal(t, []int{7}, gs.CalledNumbers)
}

func TestCallKeepsPartition(t *testing.T) {
	gs := models.NewGameState()

	for _, n := range []int{1, 90, 45, 13} {
		var err error
		gs, err = Call(gs, n)
		require.NoError(t, err)
	}

	seen := map[int]bool{}
	for _, n := range gs.CalledNumbers {
		seen[n] = true
	}
	for _, n := range gs.AvailableNumbers {
		assert.False(t, seen[n], "number %d is both called and available", n)
		seen[n] = true
	}
	assert.Len(t, seen, models.MaxNumber)
}

func TestReset(t *testing.T) {
	gs := models.NewGameState()
	gs, err := Call(gs, 5)
	require.NoError(t, err)

	gs = Reset()
	assert.Nil(t, gs.CurrentNumber)
	assert.Empty(t, gs.CalledNumbers)
	require.Len(t, gs.AvailableNumbers, models.MaxNumber)

	distinct := map[int]bool{}
	for _, n := range gs.AvailableNumbers {
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, models.MaxNumber)
		distinct[n] = true
	}
	assert.Len(t, distinct, models.MaxNumber)
}

func TestNext(t *testing.T) {
	gs := models.NewGameState()

	n, err := Next(gs)
	require.NoError(t, err)
	assert.Contains(t, gs.AvailableNumbers, n)
}

func TestNextGameOver(t *testing.T) {
	gs := models.NewGameState()
	gs.AvailableNumbers = nil

	_, err := Next(gs)
	assert.ErrorIs(t, err, models.ErrNoNumbersLeft)
}

func TestNumberToWords(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "one"},
		{13, "thirteen"},
		{20, "twenty"},
		{42, "forty two"},
		{90, "ninety"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NumberToWords(tt.n))
	}
}
