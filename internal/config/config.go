package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quanmltya/repeat/internal/input/key"
)

// Config is the complete application configuration.
type Config struct {
	Trigger  TriggerConfig  `toml:"trigger"`
	Halt     HaltConfig     `toml:"halt"`
	Hotkeys  HotkeysConfig  `toml:"hotkeys"`
	Replay   ReplayConfig   `toml:"replay"`
	Executor ExecutorConfig `toml:"executor"`
	Logging  LoggingConfig  `toml:"logging"`
	Store    StoreConfig    `toml:"store"`
	Tasks    TasksConfig    `toml:"tasks"`
}

// TriggerConfig controls when chords and phrases fire.
type TriggerConfig struct {
	// ExecuteOnRelease fires on key release instead of key press.
	ExecuteOnRelease bool `toml:"execute_on_release"`
}

// HaltConfig controls the halt key.
type HaltConfig struct {
	Enabled bool   `toml:"enabled"`
	Key     string `toml:"key"`
}

// HotkeysConfig holds the built-in record and replay toggles.
type HotkeysConfig struct {
	Record string `toml:"record"`
	Replay string `toml:"replay"`
}

// ReplayConfig holds the replay defaults.
type ReplayConfig struct {
	Speedup    float64  `toml:"speedup"`
	Repeat     int      `toml:"repeat"`
	Delay      Duration `toml:"delay"`
	MaxSpeedup float64  `toml:"max_speedup"`
}

// ExecutorConfig sizes the action worker pool.
type ExecutorConfig struct {
	Workers   int      `toml:"workers"`
	QueueSize int      `toml:"queue_size"`
	Timeout   Duration `toml:"timeout"`
}

// LoggingConfig selects the log level and format.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// StoreConfig locates the statistics database.
type StoreConfig struct {
	Path string `toml:"path"`
}

// TasksConfig locates the task group file.
type TasksConfig struct {
	Path string `toml:"path"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Halt:    HaltConfig{Enabled: true, Key: "Escape"},
		Hotkeys: HotkeysConfig{Record: "F9", Replay: "F10"},
		Replay: ReplayConfig{
			Speedup:    1.0,
			Repeat:     1,
			MaxSpeedup: 5.0,
		},
		Executor: ExecutorConfig{Workers: 4, QueueSize: 64},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Store:    StoreConfig{Path: filepath.Join(Dir(), "repeat.db")},
		Tasks:    TasksConfig{Path: filepath.Join(Dir(), "tasks.yaml")},
	}
}

// Dir returns the per-user configuration directory.
func Dir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "repeat")
	}
	return ".repeat"
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Validate checks every setting. The error wraps ErrValidationFailed and
// lists each problem.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Halt.Enabled {
		if _, err := key.ParseCode(c.Halt.Key); err != nil {
			add("halt.key: %v", err)
		}
	}
	for name, spec := range map[string]string{"hotkeys.record": c.Hotkeys.Record, "hotkeys.replay": c.Hotkeys.Replay} {
		if spec == "" {
			continue
		}
		if _, err := key.ParseChain(spec); err != nil {
			add("%s: %v", name, err)
		}
	}
	if c.Hotkeys.Record != "" && strings.EqualFold(c.Hotkeys.Record, c.Hotkeys.Replay) {
		add("hotkeys.record and hotkeys.replay are both %q", c.Hotkeys.Record)
	}

	if !(c.Replay.Speedup > 0) || math.IsInf(c.Replay.Speedup, 0) {
		add("replay.speedup must be a positive number, got %v", c.Replay.Speedup)
	}
	if c.Replay.Repeat < 0 {
		add("replay.repeat must be >= 0, got %d", c.Replay.Repeat)
	}
	if c.Replay.Delay.Duration < 0 {
		add("replay.delay must be >= 0, got %s", c.Replay.Delay)
	}
	if math.IsNaN(c.Replay.MaxSpeedup) || math.IsInf(c.Replay.MaxSpeedup, 0) {
		add("replay.max_speedup must be finite, got %v", c.Replay.MaxSpeedup)
	}

	if c.Executor.Workers < 1 {
		add("executor.workers must be >= 1, got %d", c.Executor.Workers)
	}
	if c.Executor.QueueSize < 1 {
		add("executor.queue_size must be >= 1, got %d", c.Executor.QueueSize)
	}
	if c.Executor.Timeout.Duration < 0 {
		add("executor.timeout must be >= 0, got %s", c.Executor.Timeout)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("logging.level: unknown level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("logging.format: unknown format %q", c.Logging.Format)
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(problems, "; "))
}

// HaltCode returns the parsed halt key, or the zero Code when the halt
// key is disabled or invalid.
func (c *Config) HaltCode() key.Code {
	if !c.Halt.Enabled {
		return key.Code{}
	}
	code, err := key.ParseCode(c.Halt.Key)
	if err != nil {
		return key.Code{}
	}
	return code
}

// RecordChain returns the record toggle chord, if configured.
func (c *Config) RecordChain() (key.Chain, bool) {
	return parseOptionalChain(c.Hotkeys.Record)
}

// ReplayChain returns the replay toggle chord, if configured.
func (c *Config) ReplayChain() (key.Chain, bool) {
	return parseOptionalChain(c.Hotkeys.Replay)
}

func parseOptionalChain(spec string) (key.Chain, bool) {
	if spec == "" {
		return key.Chain{}, false
	}
	c, err := key.ParseChain(spec)
	if err != nil {
		return key.Chain{}, false
	}
	return c, true
}
