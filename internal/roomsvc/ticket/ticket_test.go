package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
)

func TestGenerateCount(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"zero", 0, 0},
		{"negative", -3, 0},
		{"one", 1, 1},
		{"six", 6, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Generate(tt.count), tt.want)
		})
	}
}

func TestGenerateTicketShape(t *testing.T) {
	for _, tk := range Generate(50) {
		for row := 0; row < models.TicketRows; row++ {
			filled := 0
			for col := 0; col < models.TicketCols; col++ {
				if tk[row][col] > 0 {
					filled++
				}
			}
			assert.Equal(t, models.TicketRowNumbers, filled, "row %d of %v", row, tk)
		}
	}
}

func TestGenerateColumnBands(t *testing.T) {
	for _, tk := range Generate(50) {
		for col := 0; col < models.TicketCols; col++ {
			min, max := ColumnRange(col)
			for row := 0; row < models.TicketRows; row++ {
				n := tk[row][col]
				if n == 0 {
					continue
				}
				assert.GreaterOrEqual(t, n, min, "col %d", col)
				assert.LessOrEqual(t, n, max, "col %d", col)
			}
		}
	}
}

func TestGenerateColumnsAscending(t *testing.T) {
	for _, tk := range Generate(50) {
		for col := 0; col < models.TicketCols; col++ {
			prev := 0
			for row := 0; row < models.TicketRows; row++ {
				n := tk[row][col]
				if n == 0 {
					continue
				}
				assert.Greater(t, n, prev, "col %d must ascend by row", col)
				prev = n
			}
		}
	}
}

func TestColumnRange(t *testing.T) {
	min, max := ColumnRange(0)
	require.Equal(t, 1, min)
	require.Equal(t, 10, max)

	min, max = ColumnRange(8)
	require.Equal(t, 81, min)
	require.Equal(t, 90, max)
}

func TestGenerateTicketsIndependent(t *testing.T) {
	// 50 tickets of 15 numbers each: at least two must differ
	tickets := Generate(50)
	allSame := true
	for _, tk := range tickets[1:] {
		if tk != tickets[0] {
			allSame = false
			break
		}
	}
	assert.False(t, allSame)
}
