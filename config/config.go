// Package config provides configuration loading and management for swcgen.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/compiler"
	"github.com/c360studio/swcgen/requirement"
	"github.com/c360studio/swcgen/source"
	"github.com/c360studio/swcgen/storage"
)

// Config represents the complete swcgen configuration
type Config struct {
	Extraction ExtractionConfig   `yaml:"extraction"`
	Synthesis  SynthesisConfig    `yaml:"synthesis"`
	Storage    storage.Config     `yaml:"storage"`
	Compiler   CompilerConfig     `yaml:"compiler"`
	Watch      source.WatchConfig `yaml:"watch"`
}

// ExtractionConfig configures the requirement extractor
type ExtractionConfig struct {
	// MinUnitLength is the shortest line treated as a requirement
	MinUnitLength int `yaml:"min_unit_length"`
	// Source labels requirements read from stdin or inline text
	Source string `yaml:"source"`
}

// SynthesisConfig configures the artifact synthesizer
type SynthesisConfig struct {
	// DefaultECU names the composition when no requirement names an ECU
	DefaultECU string `yaml:"default_ecu"`
	// DefaultPeriodMillis is the main runnable period without stated timing
	DefaultPeriodMillis int `yaml:"default_period_ms"`
}

// CompilerConfig configures the compile cache
type CompilerConfig struct {
	// CacheSize bounds the number of cached inputs (0 disables the cache)
	CacheSize int `yaml:"cache_size"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			MinUnitLength: requirement.DefaultMinUnitLength,
			Source:        requirement.DefaultSource,
		},
		Synthesis: SynthesisConfig{
			DefaultECU:          artifact.DefaultECUName,
			DefaultPeriodMillis: artifact.DefaultPeriodMillis,
		},
		Storage: storage.DefaultConfig(),
		Compiler: CompilerConfig{
			CacheSize: compiler.DefaultCacheSize,
		},
		Watch: source.DefaultWatchConfig(),
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := c.ExtractorConfig().Validate(); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if err := c.SynthesizerConfig().Validate(); err != nil {
		return fmt.Errorf("synthesis: %w", err)
	}
	if err := c.CompileConfig().Validate(); err != nil {
		return fmt.Errorf("compiler: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return nil
}

// ExtractorConfig returns the extractor section as a requirement.Config.
func (c *Config) ExtractorConfig() requirement.Config {
	return requirement.Config{
		MinUnitLength: c.Extraction.MinUnitLength,
		Source:        c.Extraction.Source,
	}
}

// SynthesizerConfig returns the synthesis section as an artifact.Config.
func (c *Config) SynthesizerConfig() artifact.Config {
	return artifact.Config{
		DefaultECU:          c.Synthesis.DefaultECU,
		DefaultPeriodMillis: c.Synthesis.DefaultPeriodMillis,
	}
}

// CompileConfig returns the compiler section as a compiler.Config.
func (c *Config) CompileConfig() compiler.Config {
	return compiler.Config{CacheSize: c.Compiler.CacheSize}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Extraction
	if other.Extraction.MinUnitLength != 0 {
		c.Extraction.MinUnitLength = other.Extraction.MinUnitLength
	}
	if other.Extraction.Source != "" {
		c.Extraction.Source = other.Extraction.Source
	}

	// Synthesis
	if other.Synthesis.DefaultECU != "" {
		c.Synthesis.DefaultECU = other.Synthesis.DefaultECU
	}
	if other.Synthesis.DefaultPeriodMillis != 0 {
		c.Synthesis.DefaultPeriodMillis = other.Synthesis.DefaultPeriodMillis
	}

	// Storage
	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
	if other.Storage.NATSURL != "" {
		c.Storage.NATSURL = other.Storage.NATSURL
	}
	if other.Storage.Bucket != "" {
		c.Storage.Bucket = other.Storage.Bucket
	}
	if other.Storage.PostgresDSN != "" {
		c.Storage.PostgresDSN = other.Storage.PostgresDSN
	}
	if other.Storage.CacheSize != 0 {
		c.Storage.CacheSize = other.Storage.CacheSize
	}

	// Compiler
	if other.Compiler.CacheSize != 0 {
		c.Compiler.CacheSize = other.Compiler.CacheSize
	}

	// Watch
	if other.Watch.DebounceDelay != "" {
		c.Watch.DebounceDelay = other.Watch.DebounceDelay
	}
	if len(other.Watch.FileExtensions) > 0 {
		c.Watch.FileExtensions = other.Watch.FileExtensions
	}
	if len(other.Watch.ExcludeDirs) > 0 {
		c.Watch.ExcludeDirs = other.Watch.ExcludeDirs
	}
}
