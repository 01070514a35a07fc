package inlay

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrConfigNotFound is returned when no config file exists in dir or any parent.
	ErrConfigNotFound = errors.New("inlay: config file not found")

	// ErrInvalidConfig is returned when a config file fails validation.
	ErrInvalidConfig = errors.New("inlay: invalid config")

	// ErrUnknownKind is returned when a hint kind name is not recognised.
	ErrUnknownKind = errors.New("inlay: unknown hint kind")

	// ErrInvalidRange is returned when a range has negative offsets.
	ErrInvalidRange = errors.New("inlay: invalid range")

	// ErrInvertedRange is returned when a range ends before it starts.
	ErrInvertedRange = errors.New("inlay: range ends before it starts")
)

// ConfigError describes a config file that could not be loaded.
type ConfigError struct {
	// Path is the config file path.
	Path string
	// Cause is the underlying error.
	Cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("load config %q: %v", e.Path, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}
