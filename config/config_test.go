package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Extraction.MinUnitLength != 10 {
		t.Errorf("expected min unit length 10, got %d", cfg.Extraction.MinUnitLength)
	}
	if cfg.Synthesis.DefaultECU != "SystemECU" {
		t.Errorf("expected default ECU SystemECU, got %s", cfg.Synthesis.DefaultECU)
	}
	if cfg.Synthesis.DefaultPeriodMillis != 100 {
		t.Errorf("expected default period 100, got %d", cfg.Synthesis.DefaultPeriodMillis)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("expected file storage backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Compiler.CacheSize != 128 {
		t.Errorf("expected compiler cache size 128, got %d", cfg.Compiler.CacheSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "non-positive min unit length",
			modify:  func(c *Config) { c.Extraction.MinUnitLength = 0 },
			wantErr: true,
		},
		{
			name:    "missing default ECU",
			modify:  func(c *Config) { c.Synthesis.DefaultECU = "" },
			wantErr: true,
		},
		{
			name:    "negative period",
			modify:  func(c *Config) { c.Synthesis.DefaultPeriodMillis = -5 },
			wantErr: true,
		},
		{
			name:    "negative compiler cache",
			modify:  func(c *Config) { c.Compiler.CacheSize = -1 },
			wantErr: true,
		},
		{
			name:    "disabled compiler cache",
			modify:  func(c *Config) { c.Compiler.CacheSize = 0 },
			wantErr: false,
		},
		{
			name:    "unknown storage backend",
			modify:  func(c *Config) { c.Storage.Backend = "redis" },
			wantErr: true,
		},
		{
			name:    "nats backend without url",
			modify:  func(c *Config) { c.Storage.Backend = "nats" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
extraction:
  min_unit_length: 20
  source: "PT-REQ"
synthesis:
  default_ecu: "EngineECU"
  default_period_ms: 50
storage:
  backend: "nats"
  nats_url: "nats://test:4222"
compiler:
  cache_size: 8
watch:
  debounce_delay: "1s"
  file_extensions:
    - .md
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Extraction.MinUnitLength != 20 {
		t.Errorf("expected min unit length 20, got %d", cfg.Extraction.MinUnitLength)
	}
	if cfg.Extraction.Source != "PT-REQ" {
		t.Errorf("expected source PT-REQ, got %s", cfg.Extraction.Source)
	}
	if cfg.Synthesis.DefaultECU != "EngineECU" {
		t.Errorf("expected ECU EngineECU, got %s", cfg.Synthesis.DefaultECU)
	}
	if cfg.Synthesis.DefaultPeriodMillis != 50 {
		t.Errorf("expected period 50, got %d", cfg.Synthesis.DefaultPeriodMillis)
	}
	if cfg.Storage.NATSURL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.Storage.NATSURL)
	}
	if cfg.Compiler.CacheSize != 8 {
		t.Errorf("expected cache size 8, got %d", cfg.Compiler.CacheSize)
	}
	if len(cfg.Watch.FileExtensions) != 1 {
		t.Errorf("expected 1 watched extension, got %d", len(cfg.Watch.FileExtensions))
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Synthesis: SynthesisConfig{
			DefaultECU: "BodyECU",
		},
	}
	override.Storage.Path = "/data/projects"

	base.Merge(override)

	if base.Synthesis.DefaultECU != "BodyECU" {
		t.Errorf("expected ECU BodyECU, got %s", base.Synthesis.DefaultECU)
	}
	// Period should remain from base since override didn't set it
	if base.Synthesis.DefaultPeriodMillis != 100 {
		t.Errorf("expected period to remain default, got %d", base.Synthesis.DefaultPeriodMillis)
	}
	if base.Storage.Path != "/data/projects" {
		t.Errorf("expected storage path /data/projects, got %s", base.Storage.Path)
	}
	if base.Storage.Backend != "file" {
		t.Errorf("expected backend to remain file, got %s", base.Storage.Backend)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Synthesis.DefaultECU = "SavedECU"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Synthesis.DefaultECU != "SavedECU" {
		t.Errorf("expected ECU SavedECU, got %s", loaded.Synthesis.DefaultECU)
	}
}

func TestConfigSections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extraction.Source = "reqs"
	cfg.Compiler.CacheSize = 4

	if got := cfg.ExtractorConfig(); got.Source != "reqs" || got.MinUnitLength != 10 {
		t.Errorf("unexpected extractor config %+v", got)
	}
	if got := cfg.SynthesizerConfig(); got.DefaultECU != "SystemECU" {
		t.Errorf("unexpected synthesizer config %+v", got)
	}
	if got := cfg.CompileConfig(); got.CacheSize != 4 {
		t.Errorf("unexpected compiler config %+v", got)
	}
}
