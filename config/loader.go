package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "swcgen.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/swcgen"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvFile is the dotenv file read from the working directory
	EnvFile = ".env"
	// EnvPrefix prefixes every environment override
	EnvPrefix = "SWCGEN_"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger  *slog.Logger
	workDir string
	homeDir string
	lookup  func(string) (string, bool)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithWorkDir sets the directory searched for the project config and .env
// instead of the process working directory.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) { l.workDir = dir }
}

// WithHomeDir sets the directory holding the user config.
func WithHomeDir(dir string) LoaderOption {
	return func(l *Loader) { l.homeDir = dir }
}

// WithEnv replaces os.LookupEnv.
func WithEnv(lookup func(string) (string, bool)) LoaderOption {
	return func(l *Loader) { l.lookup = lookup }
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger, lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	if l.workDir == "" {
		l.workDir, _ = os.Getwd()
	}
	if l.homeDir == "" {
		l.homeDir, _ = os.UserHomeDir()
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/swcgen/config.yaml)
// 3. Project config (swcgen.yaml in the working or parent directories), or
//    explicitPath when given
// 4. .env in the working directory
// 5. SWCGEN_* environment variables
func (l *Loader) Load(explicitPath string) (*Config, error) {
	config := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	if explicitPath != "" {
		explicitConfig, err := LoadFromFile(explicitPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", explicitPath))
		config.Merge(explicitConfig)
	} else if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	if err := l.applyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	if _, err := os.Stat(userConfigPath); err == nil {
		return nil
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	if l.homeDir == "" {
		return ""
	}
	return filepath.Join(l.homeDir, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for swcgen.yaml in the working and parent directories
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}

	dir := l.workDir
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// envBinding maps one SWCGEN_* variable onto a config field.
type envBinding struct {
	name string
	str  func(*Config) *string
	num  func(*Config) *int
}

var envBindings = []envBinding{
	{name: "MIN_UNIT_LENGTH", num: func(c *Config) *int { return &c.Extraction.MinUnitLength }},
	{name: "SOURCE", str: func(c *Config) *string { return &c.Extraction.Source }},
	{name: "DEFAULT_ECU", str: func(c *Config) *string { return &c.Synthesis.DefaultECU }},
	{name: "DEFAULT_PERIOD_MS", num: func(c *Config) *int { return &c.Synthesis.DefaultPeriodMillis }},
	{name: "STORAGE_BACKEND", str: func(c *Config) *string { return &c.Storage.Backend }},
	{name: "STORAGE_PATH", str: func(c *Config) *string { return &c.Storage.Path }},
	{name: "NATS_URL", str: func(c *Config) *string { return &c.Storage.NATSURL }},
	{name: "NATS_BUCKET", str: func(c *Config) *string { return &c.Storage.Bucket }},
	{name: "POSTGRES_DSN", str: func(c *Config) *string { return &c.Storage.PostgresDSN }},
	{name: "STORAGE_CACHE_SIZE", num: func(c *Config) *int { return &c.Storage.CacheSize }},
	{name: "COMPILER_CACHE_SIZE", num: func(c *Config) *int { return &c.Compiler.CacheSize }},
	{name: "WATCH_DEBOUNCE", str: func(c *Config) *string { return &c.Watch.DebounceDelay }},
}

// applyEnv overlays .env values and then process environment variables.
// Process variables win over .env entries.
func (l *Loader) applyEnv(config *Config) error {
	dotenv := map[string]string{}
	if l.workDir != "" {
		envPath := filepath.Join(l.workDir, EnvFile)
		values, err := godotenv.Read(envPath)
		switch {
		case err == nil:
			l.logger.Debug("Loaded env file", slog.String("path", envPath))
			dotenv = values
		case !errors.Is(err, os.ErrNotExist):
			l.logger.Warn("Failed to read env file", slog.String("path", envPath), slog.String("error", err.Error()))
		}
	}

	for _, b := range envBindings {
		key := EnvPrefix + b.name
		value, ok := l.lookup(key)
		if !ok {
			value, ok = dotenv[key]
		}
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		if b.str != nil {
			*b.str(config) = value
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, value)
		}
		*b.num(config) = n
	}
	return nil
}
