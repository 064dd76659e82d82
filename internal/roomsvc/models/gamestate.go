package models

// MaxNumber is the highest callable number in tambola.
const MaxNumber = 90

type GameState struct {
	CurrentNumber    *int  `json:"current_number"`    // Last called number, nil before the first call
	CalledNumbers    []int `json:"called_numbers"`    // Call order, append-only until reset
	AvailableNumbers []int `json:"available_numbers"` // 1..90 minus called
}

// NewGameState returns a state with all 90 numbers still available.
func NewGameState() GameState {
	nums := make([]int, MaxNumber)
	for i := range nums {
		nums[i] = i + 1
	}
	return GameState{
		CurrentNumber:    nil,
		CalledNumbers:    []int{},
		AvailableNumbers: nums,
	}
}

// Clone returns a deep copy of the state.
func (gs GameState) Clone() GameState {
	c := gs
	if gs.CurrentNumber != nil {
		n := *gs.CurrentNumber
		c.CurrentNumber = &n
	}
	c.CalledNumbers = append([]int(nil), gs.CalledNumbers...)
	c.AvailableNumbers = append([]int(nil), gs.AvailableNumbers...)
	return c
}
