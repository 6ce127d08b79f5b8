package variantstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/recruitgraph/internal/variant"
)

// Schema is the SQL DDL for the recruit_variants table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS recruit_variants (
    name        TEXT PRIMARY KEY,
    description TEXT NOT NULL DEFAULT '',
    definition  JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by PostgreSQL. The full variant
// definition is stored as one JSONB document.
type PostgresStore struct {
	db DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] over db. The caller is
// responsible for calling [PostgresStore.Migrate] before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens a connection pool to dsn and verifies it with a ping. The
// caller owns the pool and must Close it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("variantstore: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("variantstore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("variantstore: ping: %w", err)
	}
	return pool, nil
}

// Migrate executes the [Schema] DDL, creating the recruit_variants table if
// it does not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("variantstore: migrate: %w", err)
	}
	return nil
}

// Save implements [Store.Save] as an upsert keyed by variant name.
func (s *PostgresStore) Save(ctx context.Context, f *variant.File) (Record, error) {
	if err := validate(f); err != nil {
		return Record{}, err
	}

	defJSON, err := json.Marshal(f)
	if err != nil {
		return Record{}, fmt.Errorf("variantstore: marshal %q: %w", f.Variant.Name, err)
	}

	const query = `
		INSERT INTO recruit_variants (name, description, definition)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			definition = EXCLUDED.definition,
			updated_at = now()
		RETURNING created_at, updated_at`

	rec := Record{
		Name:        f.Variant.Name,
		Description: f.Variant.Description,
		Definition:  f,
	}
	err = s.db.QueryRow(ctx, query, rec.Name, rec.Description, defJSON).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("variantstore: save %q: %w", rec.Name, err)
	}
	return rec, nil
}

// Get implements [Store.Get].
func (s *PostgresStore) Get(ctx context.Context, name string) (Record, error) {
	const query = `
		SELECT name, description, definition, created_at, updated_at
		FROM recruit_variants
		WHERE name = $1`

	var (
		rec     Record
		defJSON []byte
	)
	err := s.db.QueryRow(ctx, query, name).Scan(
		&rec.Name, &rec.Description, &defJSON, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("variantstore: get %q: %w", name, err)
	}
	if rec.Definition, err = unmarshalDefinition(rec.Name, defJSON); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List implements [Store.List].
func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	const query = `
		SELECT name, description, definition, created_at, updated_at
		FROM recruit_variants
		ORDER BY name`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("variantstore: list: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var (
			rec     Record
			defJSON []byte
		)
		if err := rows.Scan(&rec.Name, &rec.Description, &defJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("variantstore: list scan: %w", err)
		}
		if rec.Definition, err = unmarshalDefinition(rec.Name, defJSON); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("variantstore: list: %w", err)
	}
	return recs, nil
}

// Delete implements [Store.Delete].
func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	const query = `DELETE FROM recruit_variants WHERE name = $1`
	tag, err := s.db.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("variantstore: delete %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func unmarshalDefinition(name string, data []byte) (*variant.File, error) {
	var f variant.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("variantstore: unmarshal %q: %w", name, err)
	}
	return &f, nil
}
