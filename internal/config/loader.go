package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Logger is the logging surface the config package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Loader builds a Config from defaults, a TOML file and environment
// variables, in increasing order of precedence.
type Loader struct {
	path    string
	env     *EnvLoader
	logger  Logger
	require bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnv replaces the environment loader.
func WithEnv(env *EnvLoader) LoaderOption {
	return func(l *Loader) { l.env = env }
}

// WithLogger sets the loader logger.
func WithLogger(logger Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// RequireFile makes a missing file an error instead of falling back to
// defaults.
func RequireFile() LoaderOption {
	return func(l *Loader) { l.require = true }
}

// NewLoader creates a loader for the file at path. An empty path loads
// DefaultPath.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	if path == "" {
		path = DefaultPath()
	}
	l := &Loader{
		path:   path,
		env:    NewEnvLoader(EnvPrefix),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	c := Default()

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := decode(l.path, data, c); err != nil {
			return nil, err
		}
		l.logger.Debug("loaded config file", "path", l.path)
	case errors.Is(err, os.ErrNotExist):
		if l.require {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, l.path)
		}
		l.logger.Debug("no config file, using defaults", "path", l.path)
	default:
		return nil, fmt.Errorf("reading config file %s: %w", l.path, err)
	}

	if l.env != nil {
		unknown, err := l.env.Apply(c)
		if err != nil {
			return nil, err
		}
		for _, name := range unknown {
			l.logger.Warn("ignoring unknown environment setting", "variable", name)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load is NewLoader(path).Load().
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Parse decodes TOML over the defaults and validates the result. The
// environment is not consulted.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := decode("<bytes>", data, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// decode unmarshals data into c. Unknown keys are rejected.
func decode(source string, data []byte, c *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err := dec.Decode(c)
	if err == nil {
		return nil
	}

	pe := &ParseError{Path: source, Message: err.Error(), Err: err}
	var decErr *toml.DecodeError
	var strict *toml.StrictMissingError
	switch {
	case errors.As(err, &decErr):
		pe.Line, pe.Column = decErr.Position()
	case errors.As(err, &strict):
		pe.Message = strict.String()
		pe.Err = fmt.Errorf("%w: %w", ErrUnknownSetting, err)
	}
	return pe
}

// Save writes c as TOML to path, creating parent directories.
func Save(c *Config, path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
