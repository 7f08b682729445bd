package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson"
)

// Every collection shares one table; documents are stored as relaxed
// extended JSON so field names match the BSON names used by filters.
const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	seq        BIGSERIAL,
	doc        JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
)`

const uniqueViolation = "23505"

type postgresRepo[T any] struct {
	pool *pgxpool.Pool
	name string
}

func newPostgresRepo[T any](pool *pgxpool.Pool, name string) *postgresRepo[T] {
	return &postgresRepo[T]{pool: pool, name: name}
}

func (r *postgresRepo[T]) Insert(ctx context.Context, id string, doc *T) error {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", r.name, id, err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, doc) VALUES ($1, $2, $3)`,
		r.name, id, string(data),
	)
	return r.wrap(err)
}

func (r *postgresRepo[T]) Get(ctx context.Context, id string) (*T, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND id = $2`, r.name, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", r.name, id, ErrNotFound)
		}
		return nil, r.wrap(err)
	}
	var out T
	if err := bson.UnmarshalExtJSON(data, false, &out); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", r.name, id, err)
	}
	return &out, nil
}

func (r *postgresRepo[T]) Find(ctx context.Context, f Filter) ([]T, error) {
	where, args, err := r.where(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT doc FROM documents WHERE `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, r.wrap(err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, r.wrap(err)
		}
		var doc T
		if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.name, err)
		}
		out = append(out, doc)
	}
	return out, r.wrap(rows.Err())
}

func (r *postgresRepo[T]) Count(ctx context.Context, f Filter) (int64, error) {
	where, args, err := r.where(f)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM documents WHERE `+where, args...).Scan(&n); err != nil {
		return 0, r.wrap(err)
	}
	return n, nil
}

func (r *postgresRepo[T]) Replace(ctx context.Context, id string, doc *T) error {
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", r.name, id, err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET doc = $3 WHERE collection = $1 AND id = $2`,
		r.name, id, string(data),
	)
	if err != nil {
		return r.wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", r.name, id, ErrNotFound)
	}
	return nil
}

func (r *postgresRepo[T]) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, r.name, id)
	if err != nil {
		return r.wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", r.name, id, ErrNotFound)
	}
	return nil
}

// where builds the WHERE clause for f. A field matches when it equals the
// value or, for arrays, contains it.
func (r *postgresRepo[T]) where(f Filter) (string, []any, error) {
	clauses := []string{"collection = $1"}
	args := []any{r.name}
	for _, key := range f.keys() {
		value, err := json.Marshal(f[key])
		if err != nil {
			return "", nil, fmt.Errorf("encode filter %s: %w", key, err)
		}
		k := len(args) + 1
		v := k + 1
		clauses = append(clauses, fmt.Sprintf(
			"(doc -> $%[1]d::text = $%[2]d::jsonb OR (jsonb_typeof(doc -> $%[1]d::text) = 'array' AND doc -> $%[1]d::text @> jsonb_build_array($%[2]d::jsonb)))",
			k, v,
		))
		args = append(args, key, string(value))
	}
	return strings.Join(clauses, " AND "), args, nil
}

func (r *postgresRepo[T]) wrap(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %s: %w", r.name, pgErr.Detail, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", r.name, err)
}

// ensurePostgresIndexes creates a partial unique index per declared field.
func ensurePostgresIndexes(ctx context.Context, pool *pgxpool.Pool, name string, unique []string) error {
	for _, field := range unique {
		index := pgx.Identifier{fmt.Sprintf("documents_%s_%s_key", strings.ReplaceAll(name, "-", "_"), field)}.Sanitize()
		stmt := fmt.Sprintf(
			`CREATE UNIQUE INDEX IF NOT EXISTS %s ON documents ((doc ->> '%s')) WHERE collection = '%s'`,
			index, field, name,
		)
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create index %s: %w", index, err)
		}
	}
	return nil
}
