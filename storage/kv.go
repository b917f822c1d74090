package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/swcgen/graph"
)

// KVStore keeps snapshots in a NATS JetStream key-value bucket, one key per
// project.
type KVStore struct {
	kv     jetstream.KeyValue
	conn   *nats.Conn
	logger *slog.Logger
}

// NewKVStore creates a store on an existing JetStream context, creating the
// bucket if it doesn't exist.
func NewKVStore(ctx context.Context, js jetstream.JetStream, bucket string, logger *slog.Logger) (*KVStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	if logger == nil {
		logger = slog.Default()
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("create %s bucket: %w", bucket, err)
	}
	return &KVStore{kv: kv, logger: logger}, nil
}

// ConnectKV dials url and creates a KVStore that owns the connection.
func ConnectKV(ctx context.Context, url, bucket string, logger *slog.Logger) (*KVStore, error) {
	nc, err := nats.Connect(url, nats.Name("swcgen"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	s, err := NewKVStore(ctx, js, bucket, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	s.conn = nc
	return s, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("swcgen %s storage", strings.ToLower(name)),
		History:     5,
	})
}

// Save puts the snapshot under its name.
func (s *KVStore) Save(ctx context.Context, snap graph.Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	rev, err := s.kv.Put(ctx, snap.Name, data)
	if err != nil {
		return fmt.Errorf("store project %s: %w", snap.Name, err)
	}
	s.logger.Debug("Saved project", "name", snap.Name, "revision", rev)
	return nil
}

// Load gets the latest revision of a project.
func (s *KVStore) Load(ctx context.Context, name string) (graph.Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return graph.Snapshot{}, err
	}
	entry, err := s.kv.Get(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return graph.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return graph.Snapshot{}, fmt.Errorf("get project %s: %w", name, err)
	}
	return decode(name, entry.Value())
}

// List returns the keys of the bucket.
func (s *KVStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list project keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete places a delete marker on the project key.
func (s *KVStore) Delete(ctx context.Context, name string) error {
	if _, err := s.Load(ctx, name); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete project %s: %w", name, err)
	}
	return nil
}

// Close closes the connection when the store owns it.
func (s *KVStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted)
}
