package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/graph"
	"github.com/c360studio/swcgen/requirement"
)

const sensorRequirement = "The software component sensor_swc shall send a temperature value to the software component EMS_swc using a Sender-Receiver communication model, with a transmission period of 10 milliseconds."

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sensorSnapshot(t *testing.T, name string) graph.Snapshot {
	t.Helper()
	p := graph.NewProject(name, graph.WithIDGenerator(graph.SequentialIDs()), graph.WithLogger(quietLogger()))
	docs := requirement.NewDefaultExtractor().Parse(sensorRequirement)
	_, err := p.Integrate(artifact.NewDefaultSynthesizer().Generate(docs))
	require.NoError(t, err)
	return p.Snapshot()
}

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Load(ctx, "engine")
	assert.ErrorIs(t, err, ErrNotFound)

	snap := sensorSnapshot(t, "engine")
	require.NoError(t, s.Save(ctx, snap))
	require.NoError(t, s.Save(ctx, sensorSnapshot(t, "body")))

	loaded, err := s.Load(ctx, "engine")
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
	assert.True(t, graph.Restore(loaded).Validate().Valid)

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "engine"}, names)

	// Overwrite.
	p := graph.Restore(loaded, graph.WithLogger(quietLogger()))
	sensor, ok := p.SWCByName("sensor_swc")
	require.True(t, ok)
	require.NoError(t, p.DeleteSWC(sensor.ID))
	require.NoError(t, s.Save(ctx, p.Snapshot()))

	loaded, err = s.Load(ctx, "engine")
	require.NoError(t, err)
	assert.Len(t, loaded.SWCs, 1)

	require.NoError(t, s.Delete(ctx, "engine"))
	assert.ErrorIs(t, s.Delete(ctx, "engine"), ErrNotFound)
	_, err = s.Load(ctx, "engine")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Save(ctx, graph.Snapshot{Name: "../escape"}), ErrInvalidName)
	_, err = s.Load(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"engine", "Body_ECU", "v1.2", "a", "pt-2024"} {
		assert.NoError(t, ValidateName(name), name)
	}
	for _, name := range []string{"", ".hidden", "a/b", "trailing.", "with space", "../x"} {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidName, name)
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Backend: BackendFile}.Validate())
	assert.Error(t, Config{Backend: BackendNATS}.Validate())
	assert.Error(t, Config{Backend: BackendPostgres}.Validate())
	assert.ErrorIs(t, Config{Backend: "redis"}.Validate(), ErrUnknownBackend)
	assert.Error(t, Config{Backend: BackendFile, Path: "x", CacheSize: -1}.Validate())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), quietLogger())
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestFileStore_ListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, quietLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))
	require.NoError(t, s.Save(context.Background(), sensorSnapshot(t, "engine")))

	names, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"engine"}, names)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, quietLogger())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	_, err = s.Load(context.Background(), "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpen_File(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "nested", "projects")

	s, err := Open(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(context.Background(), Config{Backend: "redis"}, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestKVStore(t *testing.T) {
	url := os.Getenv("SWCGEN_TEST_NATS_URL")
	if url == "" {
		t.Skip("SWCGEN_TEST_NATS_URL not set")
	}
	ctx := context.Background()

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()
	js, err := jetstream.New(nc)
	require.NoError(t, err)

	bucket := "SWCGEN_TEST_" + graph.NewEntityID(artifact.KindSWC).ID[:8]
	t.Cleanup(func() { _ = js.DeleteKeyValue(ctx, bucket) })

	s, err := NewKVStore(ctx, js, bucket, quietLogger())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SWCGEN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SWCGEN_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	s, err := OpenPostgres(ctx, dsn, 8, quietLogger())
	require.NoError(t, err)
	defer s.Close()

	for _, name := range []string{"engine", "body"} {
		_ = s.Delete(ctx, name)
	}
	exerciseStore(t, s)
}
