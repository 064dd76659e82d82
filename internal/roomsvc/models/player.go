package models

type Player struct {
	ID          string `json:"id"`           // Equals the username, unique within a room
	Name        string `json:"name"`         // Display name
	TicketCount int    `json:"ticket_count"` // Number of tickets generated for this player
	IsHost      bool   `json:"is_host"`
}
