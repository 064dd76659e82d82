package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tambolahq/tambola-services/internal/roomsvc/models"
)

// MongoStore persists one document per room. A TTL index on expires_at lets
// Mongo sweep rooms that nobody looked up again; expiry on read is still
// enforced so a freshly expired room never reaches a caller.
type MongoStore struct {
	coll      *mongo.Collection
	retention time.Duration
}

type roomDoc struct {
	ID          string      `bson:"_id"`
	Room        models.Room `bson:"room"`
	CreatedAt   time.Time   `bson:"created_at"`
	LastUpdated time.Time   `bson:"last_updated"`
	ExpiresAt   time.Time   `bson:"expires_at"`
}

func NewMongoStore(db *mongo.Database, retention time.Duration) *MongoStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MongoStore{coll: db.Collection("rooms"), retention: retention}
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.Room, error) {
	var doc roomDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // room not found
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	room := doc.Room
	room.CreatedAt = doc.CreatedAt
	room.LastUpdated = doc.LastUpdated

	if room.Expired(s.retention) {
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &room, nil
}

func (s *MongoStore) Save(ctx context.Context, room *models.Room) error {
	prev := room.LastUpdated
	room.LastUpdated = time.Now().UTC()

	doc := roomDoc{
		ID:          room.ID,
		Room:        *room,
		CreatedAt:   room.CreatedAt,
		LastUpdated: room.LastUpdated,
		ExpiresAt:   room.CreatedAt.Add(s.retention),
	}

	if prev.IsZero() {
		opts := options.Replace().SetUpsert(true)
		if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": room.ID}, doc, opts); err != nil {
			return fmt.Errorf("failed to insert room %s: %w", room.ID, err)
		}
		return nil
	}

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": room.ID, "last_updated": prev}, doc)
	if err != nil {
		return fmt.Errorf("failed to update room %s: %w", room.ID, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrVersionConflict
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", id, err)
	}
	return nil
}

func (s *MongoStore) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, s, id)
}

func (s *MongoStore) AddPlayer(ctx context.Context, roomID string, player models.Player) error {
	return mutate(ctx, s, roomID, addPlayer(player))
}

func (s *MongoStore) RemovePlayer(ctx context.Context, roomID, playerID string) error {
	return mutate(ctx, s, roomID, removePlayer(playerID))
}

func (s *MongoStore) UpdateGameState(ctx context.Context, roomID string, gs models.GameState) error {
	return mutate(ctx, s, roomID, updateGameState(gs))
}

func (s *MongoStore) SetTicketCount(ctx context.Context, roomID, playerID string, count int) error {
	return mutate(ctx, s, roomID, setTicketCount(playerID, count))
}
