package ticket

import (
	"math/rand"
	"sort"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
)

// Generate produces count independent tickets. A count of zero or less yields
// an empty slice. Each ticket satisfies the standard tambola shape: column c
// holds 3 numbers drawn from its decade band sorted ascending, then each row
// is thinned down to exactly 5 numbers.
func Generate(count int) []models.Ticket {
	if count <= 0 {
		return []models.Ticket{}
	}

	tickets := make([]models.Ticket, 0, count)
	for t := 0; t < count; t++ {
		tickets = append(tickets, generateOne())
	}
	return tickets
}

func generateOne() models.Ticket {
	var tk models.Ticket

	for col := 0; col < models.TicketCols; col++ {
		min, max := ColumnRange(col)

		// shuffle the band and keep the first 3
		band := rand.Perm(max - min + 1)
		picked := []int{band[0] + min, band[1] + min, band[2] + min}
		sort.Ints(picked)

		for row, num := range picked {
			tk[row][col] = num
		}
	}

	// Every row starts with 9 numbers (one per column), so thinning always
	// lands on exactly 5.
	for row := 0; row < models.TicketRows; row++ {
		filled := make([]int, 0, models.TicketCols)
		for col := 0; col < models.TicketCols; col++ {
			if tk[row][col] > 0 {
				filled = append(filled, col)
			}
		}
		for len(filled) > models.TicketRowNumbers {
			i := rand.Intn(len(filled))
			tk[row][filled[i]] = 0
			filled = append(filled[:i], filled[i+1:]...)
		}
	}

	return tk
}

// ColumnRange returns the inclusive number band of a ticket column.
// Column 0 covers 1-10, column 8 covers 81-90.
func ColumnRange(col int) (min, max int) {
	min = col*10 + 1
	max = (col + 1) * 10
	if col == models.TicketCols-1 {
		max = models.MaxNumber
	}
	return min, max
}
