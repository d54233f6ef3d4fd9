package habilitation

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"geoatlas/internal/identity"
	"geoatlas/pkg/platform/sentinel"
)

// MongoStore persists requests and grants in two collections.
type MongoStore struct {
	requests *mongo.Collection
	grants   *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		requests: db.Collection("habilitation_requests"),
		grants:   db.Collection("habilitations"),
	}
}

func (s *MongoStore) UpsertPending(ctx context.Context, req Request) (Request, error) {
	// One pending request per principal: reuse the existing pending document
	// when there is one.
	var existing Request
	err := s.requests.FindOne(ctx, bson.M{
		"principal.id": req.Principal.ID,
		"status":       RequestPending,
	}).Decode(&existing)
	switch {
	case err == nil:
		req.ID = existing.ID
		req.CreatedAt = existing.CreatedAt
	case !errors.Is(err, mongo.ErrNoDocuments):
		return Request{}, fmt.Errorf("find pending request: %w", err)
	}

	_, err = s.requests.ReplaceOne(ctx, bson.M{"_id": req.ID}, req, options.Replace().SetUpsert(true))
	if err != nil {
		return Request{}, fmt.Errorf("upsert request %s: %w", req.ID, err)
	}
	return req, nil
}

func (s *MongoStore) FindRequest(ctx context.Context, id string) (Request, error) {
	var req Request
	err := s.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Request{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Request{}, fmt.Errorf("find request %s: %w", id, err)
	}
	return req, nil
}

func (s *MongoStore) SaveRequest(ctx context.Context, req Request) error {
	_, err := s.requests.ReplaceOne(ctx, bson.M{"_id": req.ID}, req, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save request %s: %w", req.ID, err)
	}
	return nil
}

func (s *MongoStore) ListPending(ctx context.Context) ([]Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.requests.Find(ctx, bson.M{"status": RequestPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Request
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode requests: %w", err)
	}
	return out, nil
}

func (s *MongoStore) SaveGrant(ctx context.Context, grant identity.Habilitation) error {
	_, err := s.grants.ReplaceOne(ctx, bson.M{"principalId": grant.PrincipalID}, grant,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save grant for %s: %w", grant.PrincipalID, err)
	}
	return nil
}

func (s *MongoStore) FindGrant(ctx context.Context, principalID string) (identity.Habilitation, error) {
	var grant identity.Habilitation
	err := s.grants.FindOne(ctx, bson.M{"principalId": principalID}).Decode(&grant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return identity.Habilitation{}, sentinel.ErrNotFound
	}
	if err != nil {
		return identity.Habilitation{}, fmt.Errorf("find grant for %s: %w", principalID, err)
	}
	return grant, nil
}
