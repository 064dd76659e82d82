package models

const (
	TicketRows = 3
	TicketCols = 9
	// TicketRowNumbers is how many cells of a row hold a number; the rest are blank.
	TicketRowNumbers = 5
)

// Ticket is a 3x9 grid. Zero means a blank cell. Column c holds numbers from
// its decade band only (col 0: 1-10, col 8: 81-90), ascending by row.
type Ticket [TicketRows][TicketCols]int
