package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
)

// PostgresStore persists each room as a JSONB document keyed by room code.
type PostgresStore struct {
	db        *pgxpool.Pool
	retention time.Duration
}

func NewPostgresStore(db *pgxpool.Pool, retention time.Duration) *PostgresStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &PostgresStore{db: db, retention: retention}
}

// EnsureSchema creates the rooms table if it does not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rooms (
			id           TEXT PRIMARY KEY,
			data         JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create rooms table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Room, error) {
	query := `
		SELECT data, created_at, last_updated
		FROM rooms
		WHERE id = $1
	`

	var (
		data        []byte
		createdAt   time.Time
		lastUpdated time.Time
	)
	err := s.db.QueryRow(ctx, query, id).Scan(&data, &createdAt, &lastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // room not found
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	room := &models.Room{}
	if err := json.Unmarshal(data, room); err != nil {
		return nil, fmt.Errorf("failed to decode room %s: %w", id, err)
	}
	room.CreatedAt = createdAt
	room.LastUpdated = lastUpdated

	if room.Expired(s.retention) {
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return room, nil
}

func (s *PostgresStore) Save(ctx context.Context, room *models.Room) error {
	prev := room.LastUpdated
	room.LastUpdated = time.Now().UTC()

	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to encode room %s: %w", room.ID, err)
	}

	if prev.IsZero() {
		// fresh room, create wins over any stale leftover
		_, err := s.db.Exec(ctx, `
			INSERT INTO rooms (id, data, created_at, last_updated)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET data = EXCLUDED.data,
			    created_at = EXCLUDED.created_at,
			    last_updated = EXCLUDED.last_updated
		`, room.ID, data, room.CreatedAt, room.LastUpdated)
		if err != nil {
			return fmt.Errorf("failed to insert room %s: %w", room.ID, err)
		}
		return nil
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE rooms
		SET data = $2, last_updated = $3
		WHERE id = $1 AND last_updated = $4
	`, room.ID, data, room.LastUpdated, prev)
	if err != nil {
		return fmt.Errorf("failed to update room %s: %w", room.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrVersionConflict
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, s, id)
}

func (s *PostgresStore) AddPlayer(ctx context.Context, roomID string, player models.Player) error {
	return mutate(ctx, s, roomID, addPlayer(player))
}

func (s *PostgresStore) RemovePlayer(ctx context.Context, roomID, playerID string) error {
	return mutate(ctx, s, roomID, removePlayer(playerID))
}

func (s *PostgresStore) UpdateGameState(ctx context.Context, roomID string, gs models.GameState) error {
	return mutate(ctx, s, roomID, updateGameState(gs))
}

func (s *PostgresStore) SetTicketCount(ctx context.Context, roomID, playerID string, count int) error {
	return mutate(ctx, s, roomID, setTicketCount(playerID, count))
}
