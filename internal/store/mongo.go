package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepo[T any] struct {
	coll *mongo.Collection
}

func newMongoRepo[T any](db *mongo.Database, name string) *mongoRepo[T] {
	return &mongoRepo[T]{coll: db.Collection(name)}
}

// query turns f into a mongo filter; a nil filter matches everything.
func query(f Filter) bson.M {
	if f == nil {
		return bson.M{}
	}
	return bson.M(f)
}

func (r *mongoRepo[T]) Insert(ctx context.Context, _ string, doc *T) error {
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return r.wrap(err)
	}
	return nil
}

func (r *mongoRepo[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s %s: %w", r.coll.Name(), id, ErrNotFound)
		}
		return nil, r.wrap(err)
	}
	return &out, nil
}

// findOptions orders results oldest first. Mongo keeps no insertion order,
// so documents without createdAt fall back to id order.
func findOptions() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}

func (r *mongoRepo[T]) Find(ctx context.Context, f Filter) ([]T, error) {
	cursor, err := r.coll.Find(ctx, query(f), findOptions())
	if err != nil {
		return nil, r.wrap(err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, r.wrap(err)
	}
	return out, nil
}

func (r *mongoRepo[T]) Count(ctx context.Context, f Filter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, query(f))
	if err != nil {
		return 0, r.wrap(err)
	}
	return n, nil
}

func (r *mongoRepo[T]) Replace(ctx context.Context, id string, doc *T) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return r.wrap(err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", r.coll.Name(), id, ErrNotFound)
	}
	return nil
}

func (r *mongoRepo[T]) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return r.wrap(err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", r.coll.Name(), id, ErrNotFound)
	}
	return nil
}

func (r *mongoRepo[T]) wrap(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %v: %w", r.coll.Name(), err, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", r.coll.Name(), err)
}

// ensureMongoIndexes creates one unique index per declared field.
func ensureMongoIndexes(ctx context.Context, db *mongo.Database, name string, unique []string) error {
	if len(unique) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(unique))
	for _, field := range unique {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(field + "_unique"),
		})
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes on %s: %w", name, err)
	}
	return nil
}
