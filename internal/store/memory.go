package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// Memory keeps BSON-encoded documents in process memory.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	docs  map[string][]byte
	order []string
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memCollection)}
}

// collection must be called with mu held.
func (m *Memory) collection(name string) *memCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string][]byte)}
		m.collections[name] = c
	}
	return c
}

var emptyCollection = &memCollection{docs: map[string][]byte{}}

// lookup is the read-only variant of collection; it is safe under RLock.
func (m *Memory) lookup(name string) *memCollection {
	if c, ok := m.collections[name]; ok {
		return c
	}
	return emptyCollection
}

type memoryRepo[T any] struct {
	db     *Memory
	name   string
	unique []string
}

func newMemoryRepo[T any](db *Memory, name string, unique []string) *memoryRepo[T] {
	return &memoryRepo[T]{db: db, name: name, unique: unique}
}

func (r *memoryRepo[T]) Insert(_ context.Context, id string, doc *T) error {
	raw, m, err := encode(doc)
	if err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := r.db.collection(r.name)
	if _, exists := c.docs[id]; exists {
		return fmt.Errorf("%s %s: %w", r.name, id, ErrDuplicate)
	}
	if err := r.checkUnique(c, id, m); err != nil {
		return err
	}
	c.docs[id] = raw
	c.order = append(c.order, id)
	return nil
}

func (r *memoryRepo[T]) Get(_ context.Context, id string) (*T, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	raw, ok := r.db.lookup(r.name).docs[id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", r.name, id, ErrNotFound)
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", r.name, id, err)
	}
	return &out, nil
}

func (r *memoryRepo[T]) Find(_ context.Context, f Filter) ([]T, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c := r.db.lookup(r.name)

	out := []T{}
	for _, id := range c.order {
		raw := c.docs[id]
		if len(f) > 0 {
			var m bson.M
			if err := bson.Unmarshal(raw, &m); err != nil {
				return nil, fmt.Errorf("decode %s %s: %w", r.name, id, err)
			}
			if !f.matches(m) {
				continue
			}
		}
		var doc T
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", r.name, id, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (r *memoryRepo[T]) Count(ctx context.Context, f Filter) (int64, error) {
	docs, err := r.Find(ctx, f)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (r *memoryRepo[T]) Replace(_ context.Context, id string, doc *T) error {
	raw, m, err := encode(doc)
	if err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := r.db.collection(r.name)
	if _, ok := c.docs[id]; !ok {
		return fmt.Errorf("%s %s: %w", r.name, id, ErrNotFound)
	}
	if err := r.checkUnique(c, id, m); err != nil {
		return err
	}
	c.docs[id] = raw
	return nil
}

func (r *memoryRepo[T]) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := r.db.collection(r.name)
	if _, ok := c.docs[id]; !ok {
		return fmt.Errorf("%s %s: %w", r.name, id, ErrNotFound)
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// checkUnique rejects doc when another document shares a unique field value.
func (r *memoryRepo[T]) checkUnique(c *memCollection, id string, doc bson.M) error {
	if len(r.unique) == 0 {
		return nil
	}
	for otherID, raw := range c.docs {
		if otherID == id {
			continue
		}
		var other bson.M
		if err := bson.Unmarshal(raw, &other); err != nil {
			return fmt.Errorf("decode %s %s: %w", r.name, otherID, err)
		}
		for _, field := range r.unique {
			if reflect.DeepEqual(doc[field], other[field]) {
				return fmt.Errorf("%s.%s = %v: %w", r.name, field, doc[field], ErrDuplicate)
			}
		}
	}
	return nil
}

func encode(doc any) ([]byte, bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("encode document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("decode document: %w", err)
	}
	return raw, m, nil
}
