package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentawheel/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "sessions"

// MongoStore keeps sessions in a collection with a TTL index on expires_at,
// created by cmd/migrate. Reads also filter on expiry because the TTL
// monitor only runs once a minute.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(client *mongo.Client, databaseName string) *MongoStore {
	return &MongoStore{
		collection: client.Database(databaseName).Collection(CollectionName),
	}
}

func (m *MongoStore) Create(ctx context.Context, s *Session) error {
	if _, err := m.collection.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (m *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	filter := bson.M{
		"_id":        id,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}
	var s Session
	if err := m.collection.FindOne(ctx, filter).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

// SaveCheckout writes the checkout only over an older version. The version
// guard is part of the update filter so concurrent writers cannot interleave
// between check and write.
func (m *MongoStore) SaveCheckout(ctx context.Context, id string, checkout *model.CheckoutSession) error {
	if checkout == nil {
		return m.setField(ctx, id, "checkout", checkout)
	}

	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"checkout": nil},
			bson.M{"checkout.version": bson.M{"$exists": false}},
			bson.M{"checkout.version": bson.M{"$lt": checkout.Version}},
		},
	}
	res, err := m.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"checkout": checkout}})
	if err != nil {
		return fmt.Errorf("update session checkout: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := m.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStaleCheckout
}

func (m *MongoStore) SaveEdit(ctx context.Context, id string, edit *model.EditSession) error {
	return m.setField(ctx, id, "edit", edit)
}

func (m *MongoStore) setField(ctx context.Context, id, field string, value any) error {
	update := bson.M{"$set": bson.M{field: value}}
	if isNilPointer(value) {
		update = bson.M{"$unset": bson.M{field: ""}}
	}
	res, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update session %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func isNilPointer(v any) bool {
	switch p := v.(type) {
	case *model.CheckoutSession:
		return p == nil
	case *model.EditSession:
		return p == nil
	default:
		return v == nil
	}
}
