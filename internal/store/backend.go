package store

import (
	"context"
	"fmt"

	"field-service-api/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Backend owns the connection behind every repository.
type Backend struct {
	driver  string
	memory  *Memory
	client  *mongo.Client
	mongoDB *mongo.Database
	pool    *pgxpool.Pool

	// unique fields per collection, applied by Migrate
	unique map[string][]string
}

// NewMemoryBackend returns a backend that keeps everything in process.
func NewMemoryBackend() *Backend {
	return &Backend{driver: DriverMemory, memory: NewMemory(), unique: map[string][]string{}}
}

// Open connects to the backend selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.Storage.Driver {
	case DriverMemory, "":
		return NewMemoryBackend(), nil

	case DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		return &Backend{
			driver:  DriverMongo,
			client:  client,
			mongoDB: client.Database(cfg.Mongo.DBName),
			unique:  map[string][]string{},
		}, nil

	case DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return &Backend{driver: DriverPostgres, pool: pool, unique: map[string][]string{}}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func (b *Backend) Driver() string { return b.driver }

// Migrate prepares the schema: the documents table for postgres and the
// unique indexes for mongo and postgres.
func (b *Backend) Migrate(ctx context.Context) error {
	switch b.driver {
	case DriverMongo:
		for name, fields := range b.unique {
			if err := ensureMongoIndexes(ctx, b.mongoDB, name, fields); err != nil {
				return err
			}
		}
	case DriverPostgres:
		if _, err := b.pool.Exec(ctx, createDocumentsTable); err != nil {
			return fmt.Errorf("create documents table: %w", err)
		}
		for name, fields := range b.unique {
			if err := ensurePostgresIndexes(ctx, b.pool, name, fields); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Backend) Close(ctx context.Context) error {
	switch b.driver {
	case DriverMongo:
		return b.client.Disconnect(ctx)
	case DriverPostgres:
		b.pool.Close()
	}
	return nil
}

// Collection returns the repository for the named collection. unique lists
// fields whose values may not repeat across documents.
func Collection[T any](b *Backend, name string, unique ...string) Repository[T] {
	if len(unique) > 0 {
		b.unique[name] = unique
	}
	switch b.driver {
	case DriverMongo:
		return newMongoRepo[T](b.mongoDB, name)
	case DriverPostgres:
		return newPostgresRepo[T](b.pool, name)
	default:
		return newMemoryRepo[T](b.memory, name, unique)
	}
}
