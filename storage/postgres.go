package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/c360studio/swcgen/graph"
)

// PostgresStore keeps snapshots as JSONB rows with an LRU read cache.
type PostgresStore struct {
	db     *sql.DB
	cache  *lru.Cache[string, graph.Snapshot]
	logger *slog.Logger

	schemaOnce sync.Once
	schemaErr  error
}

// OpenPostgres connects through the pgx database/sql driver. A cacheSize of
// zero disables the read cache.
func OpenPostgres(ctx context.Context, dsn string, cacheSize int, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	s, err := NewPostgresStore(db, cacheSize, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open database.
func NewPostgresStore(db *sql.DB, cacheSize int, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PostgresStore{db: db, logger: logger}
	if cacheSize > 0 {
		cache, err := lru.New[string, graph.Snapshot](cacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS swcgen_projects (
  name TEXT PRIMARY KEY,
  snapshot JSONB NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`)
	})
	return s.schemaErr
}

// Save upserts the snapshot row.
func (s *PostgresStore) Save(ctx context.Context, snap graph.Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO swcgen_projects (name, snapshot, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (name)
DO UPDATE SET snapshot=EXCLUDED.snapshot, updated_at=NOW()`,
		snap.Name, string(data))
	if err != nil {
		return fmt.Errorf("store project %s: %w", snap.Name, err)
	}
	if s.cache != nil {
		s.cache.Remove(snap.Name)
	}
	return nil
}

// Load reads a snapshot, serving repeated reads from the cache.
func (s *PostgresStore) Load(ctx context.Context, name string) (graph.Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return graph.Snapshot{}, err
	}
	if s.cache != nil {
		if snap, ok := s.cache.Get(name); ok {
			return snap.Clone(), nil
		}
	}
	if err := s.ensureSchema(ctx); err != nil {
		return graph.Snapshot{}, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM swcgen_projects WHERE name = $1`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("get project %s: %w", name, err)
	}

	snap, err := decode(name, data)
	if err != nil {
		return graph.Snapshot{}, err
	}
	if s.cache != nil {
		s.cache.Add(name, snap.Clone())
	}
	return snap, nil
}

// List returns the stored names.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM swcgen_projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes a row.
func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Remove(name)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM swcgen_projects WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Close closes the database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
