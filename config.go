package inlay

import (
	"fmt"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Config represents the .inlay.yaml configuration file.
type Config struct {
	// Which hint kinds are visible
	InlayHints Settings `yaml:"inlay_hints"`

	// Fetch tuning
	Fetch FetchConfig `yaml:"fetch"`

	// Logging
	Log LogConfig `yaml:"log"`

	// Language server used by the hints command
	Server ServerConfig `yaml:"server,omitempty"`
}

// FetchConfig tunes the fetch coordinator.
type FetchConfig struct {
	// Maximum number of hint queries in flight. Zero means unlimited.
	MaxConcurrentQueries int `yaml:"max_concurrent_queries"`
}

// LogConfig configures the logger built by binaries.
type LogConfig struct {
	// One of debug, info, warn, error
	Level string `yaml:"level"`
}

// ServerConfig describes the language server to launch.
type ServerConfig struct {
	Command    string   `yaml:"command,omitempty"`
	Args       []string `yaml:"args,omitempty"`
	LanguageID string   `yaml:"language_id,omitempty"`
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".inlay.yaml", ".inlay.yml", "inlay.yaml", "inlay.yml"}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		InlayHints: DefaultSettings(),
		Log:        LogConfig{Level: "info"},
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(&c.Fetch,
		validation.Field(&c.Fetch.MaxConcurrentQueries, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: fetch: %w", ErrInvalidConfig, err)
	}

	err = validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
	)
	if err != nil {
		return fmt.Errorf("%w: log: %w", ErrInvalidConfig, err)
	}

	return nil
}

// LoadConfig finds and loads the nearest config file walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
// Unset fields keep their defaults, and ${VAR} references are expanded from the environment.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, &ConfigError{Path: path, Cause: err}
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, &ConfigError{Path: path, Cause: err}
	}

	return cfg, nil
}

// ParseConfig decodes and validates config YAML.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
