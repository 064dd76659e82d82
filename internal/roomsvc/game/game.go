package game

import (
	"math/rand"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
)

// Call marks n as called: it becomes the current number, is appended to the
// call history and removed from the available set. Calling a number that is
// not available fails instead of producing a duplicate entry.
func Call(gs models.GameState, n int) (models.GameState, error) {
	idx := -1
	for i, v := range gs.AvailableNumbers {
		if v == n {
			idx = i
			break
		}
	}
	if idx < 0 {
		return gs, models.ErrNumberCalled
	}

	next := gs.Clone()
	next.CurrentNumber = &n
	next.CalledNumbers = append(next.CalledNumbers, n)
	next.AvailableNumbers = append(next.AvailableNumbers[:idx], next.AvailableNumbers[idx+1:]...)
	return next, nil
}

// Reset returns a fresh state with all 90 numbers available.
func Reset() models.GameState {
	return models.NewGameState()
}

// Next picks a uniform random number from the available set. It reports
// ErrNoNumbersLeft when the game is over.
func Next(gs models.GameState) (int, error) {
	if len(gs.AvailableNumbers) == 0 {
		return 0, models.ErrNoNumbersLeft
	}
	return gs.AvailableNumbers[rand.Intn(len(gs.AvailableNumbers))], nil
}
