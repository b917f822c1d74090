package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func newTestLoader(work, home string, env map[string]string) *Loader {
	return NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithWorkDir(work), WithHomeDir(home), WithEnv(envMap(env)))
}

func TestLoader_Defaults(t *testing.T) {
	cfg, err := newTestLoader(t.TempDir(), t.TempDir(), nil).Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Synthesis.DefaultECU != "SystemECU" {
		t.Errorf("expected default ECU, got %s", cfg.Synthesis.DefaultECU)
	}
}

func TestLoader_Precedence(t *testing.T) {
	home := t.TempDir()
	root := t.TempDir()
	work := filepath.Join(root, "a", "b")

	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
synthesis:
  default_ecu: UserECU
  default_period_ms: 20
extraction:
  source: user
`)
	// Found by searching upward from work.
	writeFile(t, filepath.Join(root, ProjectConfigFile), `
synthesis:
  default_ecu: ProjectECU
compiler:
  cache_size: 16
`)
	writeFile(t, filepath.Join(work, EnvFile), "SWCGEN_DEFAULT_PERIOD_MS=40\nSWCGEN_COMPILER_CACHE_SIZE=32\n")

	cfg, err := newTestLoader(work, home, map[string]string{
		"SWCGEN_COMPILER_CACHE_SIZE": "0",
	}).Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Extraction.Source != "user" {
		t.Errorf("expected user source, got %s", cfg.Extraction.Source)
	}
	if cfg.Synthesis.DefaultECU != "ProjectECU" {
		t.Errorf("expected project ECU to override user, got %s", cfg.Synthesis.DefaultECU)
	}
	if cfg.Synthesis.DefaultPeriodMillis != 40 {
		t.Errorf("expected .env period 40, got %d", cfg.Synthesis.DefaultPeriodMillis)
	}
	if cfg.Compiler.CacheSize != 0 {
		t.Errorf("expected environment to win over .env, got %d", cfg.Compiler.CacheSize)
	}
}

func TestLoader_ExplicitPath(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, ProjectConfigFile), "synthesis:\n  default_ecu: ProjectECU\n")
	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, explicit, "synthesis:\n  default_ecu: CustomECU\n")

	cfg, err := newTestLoader(work, t.TempDir(), nil).Load(explicit)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Synthesis.DefaultECU != "CustomECU" {
		t.Errorf("expected explicit config, got %s", cfg.Synthesis.DefaultECU)
	}

	if _, err := newTestLoader(work, t.TempDir(), nil).Load(filepath.Join(work, "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoader_EnvErrors(t *testing.T) {
	_, err := newTestLoader(t.TempDir(), t.TempDir(), map[string]string{
		"SWCGEN_MIN_UNIT_LENGTH": "ten",
	}).Load("")
	if err == nil {
		t.Error("expected error for non-integer variable")
	}

	_, err = newTestLoader(t.TempDir(), t.TempDir(), map[string]string{
		"SWCGEN_STORAGE_BACKEND": "postgres",
	}).Load("")
	if err == nil {
		t.Error("expected validation error for postgres without DSN")
	}
}

func TestLoader_EnvStorage(t *testing.T) {
	cfg, err := newTestLoader(t.TempDir(), t.TempDir(), map[string]string{
		"SWCGEN_STORAGE_BACKEND": "postgres",
		"SWCGEN_POSTGRES_DSN":    " postgres://localhost/swcgen ",
	}).Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.PostgresDSN != "postgres://localhost/swcgen" {
		t.Errorf("unexpected DSN %q", cfg.Storage.PostgresDSN)
	}
}

func TestEnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	l := newTestLoader(t.TempDir(), home, nil)

	if err := l.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load created config: %v", err)
	}
	if cfg.Synthesis.DefaultECU != "SystemECU" {
		t.Errorf("expected defaults in created config, got %s", cfg.Synthesis.DefaultECU)
	}

	writeFile(t, path, "synthesis:\n  default_ecu: Kept\n")
	if err := l.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	cfg, _ = LoadFromFile(path)
	if cfg.Synthesis.DefaultECU != "Kept" {
		t.Error("existing user config must not be overwritten")
	}
}
