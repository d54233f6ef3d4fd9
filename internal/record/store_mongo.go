package record

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"geoatlas/pkg/platform/sentinel"
)

// MongoStore persists records in a MongoDB collection, one document per
// record, laid out exactly as the Record bson tags describe.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{coll: db.Collection(collection)}
}

func (s *MongoStore) List(ctx context.Context, filter Filter) ([]Record, error) {
	query := bson.M{}
	if filter.Entity != "" {
		query["metadata.entity"] = filter.Entity
	}
	if filter.LabelContains != "" {
		query["metadata.label"] = bson.M{
			"$regex": filter.LabelContains, "$options": "i",
		}
	}
	cursor, err := s.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Record
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return out, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("find record %s: %w", id, err)
	}
	return rec, nil
}

func (s *MongoStore) Insert(ctx context.Context, rec Record) error {
	_, err := s.coll.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *MongoStore) Replace(ctx context.Context, rec Record) (int64, error) {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		return 0, fmt.Errorf("replace record %s: %w", rec.ID, err)
	}
	if res.MatchedCount == 0 {
		return 0, sentinel.ErrNotFound
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete record %s: %w", id, err)
	}
	return res.DeletedCount, nil
}

// BulkUpsert applies all records in a single unordered bulk write. Mongo keeps
// going after an individual failure, so a partial application is reported as
// both a count and an error, never silently.
func (s *MongoStore) BulkUpsert(ctx context.Context, recs []Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	models := make([]mongo.WriteModel, 0, len(recs))
	for _, rec := range recs {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": rec.ID}).
			SetReplacement(rec).
			SetUpsert(true))
	}
	res, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	var applied int64
	if res != nil {
		applied = res.ModifiedCount + res.UpsertedCount
	}
	if err != nil {
		return applied, fmt.Errorf("bulk upsert (%d of %d applied): %w", applied, len(recs), err)
	}
	return applied, nil
}
