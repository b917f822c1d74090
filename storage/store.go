// Package storage persists project graph snapshots. Backends: JSON files,
// a NATS JetStream key-value bucket and PostgreSQL.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/c360studio/swcgen/graph"
)

// Store persists snapshots keyed by project name.
type Store interface {
	// Save stores snap under snap.Name, replacing any previous version.
	Save(ctx context.Context, snap graph.Snapshot) error

	// Load returns the snapshot stored under name or ErrNotFound.
	Load(ctx context.Context, name string) (graph.Snapshot, error)

	// List returns the stored project names, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes a project or returns ErrNotFound.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close() error
}

// Backend names.
const (
	BackendFile     = "file"
	BackendNATS     = "nats"
	BackendPostgres = "postgres"
)

// Defaults.
const (
	DefaultPath      = ".swcgen/projects"
	DefaultBucket    = "SWCGEN_PROJECTS"
	DefaultCacheSize = 256
)

// Config selects and configures a backend.
type Config struct {
	Backend     string `yaml:"backend" json:"backend"`
	Path        string `yaml:"path,omitempty" json:"path,omitempty"`
	NATSURL     string `yaml:"nats_url,omitempty" json:"nats_url,omitempty"`
	Bucket      string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty" json:"postgres_dsn,omitempty"`
	CacheSize   int    `yaml:"cache_size,omitempty" json:"cache_size,omitempty"`
}

// DefaultConfig returns the file backend configuration.
func DefaultConfig() Config {
	return Config{
		Backend:   BackendFile,
		Path:      DefaultPath,
		Bucket:    DefaultBucket,
		CacheSize: DefaultCacheSize,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Path == "" {
			return fmt.Errorf("storage.path is required for the file backend")
		}
	case BackendNATS:
		if c.NATSURL == "" {
			return fmt.Errorf("storage.nats_url is required for the nats backend")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("storage.cache_size must not be negative, got %d", c.CacheSize)
	}
	return nil
}

// Open creates the configured backend.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case BackendNATS:
		return ConnectKV(ctx, cfg.NATSURL, cfg.Bucket, logger)
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN, cfg.CacheSize, logger)
	default:
		return NewFileStore(cfg.Path, logger)
	}
}

// Names become file names and KV keys.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9_.-]{0,126}[A-Za-z0-9_-])?$`)

// ValidateName checks that name is usable as a storage key.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func encode(snap graph.Snapshot) ([]byte, error) {
	if err := ValidateName(snap.Name); err != nil {
		return nil, err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal project %s: %w", snap.Name, err)
	}
	return data, nil
}

func decode(name string, data []byte) (graph.Snapshot, error) {
	var snap graph.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return graph.Snapshot{}, fmt.Errorf("unmarshal project %s: %w", name, err)
	}
	return snap, nil
}
