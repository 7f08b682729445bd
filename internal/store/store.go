// Package store persists dashboard entities. Every entity type lives in its
// own collection behind a Repository; the backend is chosen by config.
package store

import (
	"context"
	"errors"
	"reflect"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Filter matches documents whose fields equal the given values. Keys are
// BSON field names. An array field matches when it contains the value.
type Filter map[string]any

// Repository stores documents of type T keyed by id. Find returns matches
// in insertion order, except on mongo where they are sorted by createdAt
// and then id.
type Repository[T any] interface {
	Insert(ctx context.Context, id string, doc *T) error
	Get(ctx context.Context, id string) (*T, error)
	Find(ctx context.Context, f Filter) ([]T, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Replace(ctx context.Context, id string, doc *T) error
	Delete(ctx context.Context, id string) error
}

func (f Filter) matches(doc bson.M) bool {
	for key, want := range f {
		got, ok := doc[key]
		if !ok {
			return false
		}
		if arr, isArr := got.(bson.A); isArr {
			if !contains(arr, want) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func contains(arr bson.A, want any) bool {
	for _, v := range arr {
		if reflect.DeepEqual(v, want) {
			return true
		}
	}
	return false
}

// keys returns the filter keys in a stable order.
func (f Filter) keys() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
