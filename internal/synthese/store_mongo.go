package synthese

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"geoatlas/pkg/platform/sentinel"
)

// MongoStore persists syntheses.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{coll: db.Collection(collection)}
}

func (s *MongoStore) Save(ctx context.Context, syn Synthese) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": syn.ID}, syn, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save synthese %s: %w", syn.ID, err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (Synthese, error) {
	var syn Synthese
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&syn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Synthese{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Synthese{}, fmt.Errorf("find synthese %s: %w", id, err)
	}
	return syn, nil
}

func (s *MongoStore) ListByEntity(ctx context.Context, entity string) ([]Synthese, error) {
	query := bson.M{}
	if entity != "" {
		query["metadata.entity"] = entity
	}
	opts := options.Find().SetSort(bson.D{{Key: "metadata.created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list syntheses: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Synthese
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode syntheses: %w", err)
	}
	return out, nil
}
