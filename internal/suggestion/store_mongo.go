package suggestion

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"geoatlas/pkg/platform/sentinel"
)

// MongoStore persists suggestions.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{coll: db.Collection(collection)}
}

func (s *MongoStore) Save(ctx context.Context, sug Suggestion) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sug.ID}, sug, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save suggestion %s: %w", sug.ID, err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (Suggestion, error) {
	var sug Suggestion
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sug)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Suggestion{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Suggestion{}, fmt.Errorf("find suggestion %s: %w", id, err)
	}
	return sug, nil
}

func (s *MongoStore) ListPending(ctx context.Context, entity string) ([]Suggestion, error) {
	query := bson.M{"status": StatusPending}
	if entity != "" {
		query["entity"] = entity
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Suggestion
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	return out, nil
}
