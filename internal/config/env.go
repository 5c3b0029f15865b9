package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REPEAT_"

// EnvConfigPath names the variable holding the config file path. It is
// read by the CLI, not by the loader.
const EnvConfigPath = EnvPrefix + "CONFIG"

// EnvLoader applies environment variables over a Config. Variables map to
// settings either through an explicit mapping or by convention:
// REPEAT_REPLAY_MAX_SPEEDUP sets replay.max_speedup.
type EnvLoader struct {
	prefix  string
	mapping map[string]string // env var -> setting path
	lookup  func() []string
}

// NewEnvLoader creates a loader reading os.Environ.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		lookup:  os.Environ,
	}
}

// NewEnvLoaderFrom creates a loader over a fixed KEY=VALUE list.
func NewEnvLoaderFrom(prefix string, environ []string) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.lookup = func() []string { return environ }
	return l
}

func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL":  "logging.level",
		prefix + "LOG_FORMAT": "logging.format",
		prefix + "DB":         "store.path",
		prefix + "TASKS":      "tasks.path",
		prefix + "HALT_KEY":   "halt.key",
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, path string) {
	l.mapping[envVar] = path
}

// Apply sets every recognised variable on c. It returns the prefixed
// variables that name no setting. Empty values are treated as set.
func (l *EnvLoader) Apply(c *Config) (unknown []string, err error) {
	for _, kv := range l.lookup() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) || name == EnvConfigPath {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		found, err := setByPath(c, path, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrValidationFailed, name, err)
		}
		if !found {
			unknown = append(unknown, name)
		}
	}
	return unknown, nil
}

// envToPath converts REPEAT_REPLAY_MAX_SPEEDUP to replay.max_speedup.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, setting, ok := strings.Cut(name, "_")
	if !ok {
		return section
	}
	return section + "." + setting
}

// setByPath assigns a string value to the setting at path. It reports
// false for paths that name no setting.
func setByPath(c *Config, path, value string) (bool, error) {
	var err error
	switch path {
	case "trigger.execute_on_release":
		c.Trigger.ExecuteOnRelease, err = parseBool(value)
	case "halt.enabled":
		c.Halt.Enabled, err = parseBool(value)
	case "halt.key":
		c.Halt.Key = value
	case "hotkeys.record":
		c.Hotkeys.Record = value
	case "hotkeys.replay":
		c.Hotkeys.Replay = value
	case "replay.speedup":
		c.Replay.Speedup, err = strconv.ParseFloat(value, 64)
	case "replay.repeat":
		c.Replay.Repeat, err = strconv.Atoi(value)
	case "replay.delay":
		c.Replay.Delay.Duration, err = time.ParseDuration(value)
	case "replay.max_speedup":
		c.Replay.MaxSpeedup, err = strconv.ParseFloat(value, 64)
	case "executor.workers":
		c.Executor.Workers, err = strconv.Atoi(value)
	case "executor.queue_size":
		c.Executor.QueueSize, err = strconv.Atoi(value)
	case "executor.timeout":
		c.Executor.Timeout.Duration, err = time.ParseDuration(value)
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "store.path":
		c.Store.Path = value
	case "tasks.path":
		c.Tasks.Path = value
	default:
		return false, nil
	}
	return true, err
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
