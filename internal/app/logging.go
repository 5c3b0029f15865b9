package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogLevel is the minimum severity a Logger writes.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levels = [...]struct {
	name  string
	slog  slog.Level
	alias string
}{
	LogLevelDebug: {"DEBUG", slog.LevelDebug, ""},
	LogLevelInfo:  {"INFO", slog.LevelInfo, ""},
	LogLevelWarn:  {"WARN", slog.LevelWarn, "WARNING"},
	LogLevelError: {"ERROR", slog.LevelError, ""},
}

func (l LogLevel) valid() bool { return l >= 0 && int(l) < len(levels) }

func (l LogLevel) String() string {
	if !l.valid() {
		return "UNKNOWN"
	}
	return levels[l].name
}

func (l LogLevel) slogLevel() slog.Level {
	if !l.valid() {
		return slog.LevelInfo
	}
	return levels[l].slog
}

// ParseLogLevel maps a case-insensitive level name to a LogLevel. Anything
// unrecognized is LogLevelInfo.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, lv := range levels {
		if s == lv.name || (lv.alias != "" && s == lv.alias) {
			return LogLevel(i)
		}
	}
	return LogLevelInfo
}

// LoggerConfig configures NewLogger. A nil Output means os.Stderr and a
// non-empty Prefix is attached to every record as the "app" attribute.
type LoggerConfig struct {
	Level  LogLevel
	Output io.Writer
	JSON   bool
	Prefix string
}

// DefaultLoggerConfig logs text at info level to stderr.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  LogLevelInfo,
		Output: os.Stderr,
		Prefix: "repeat",
	}
}

// Logger wraps a *slog.Logger whose level can change at runtime. The
// variadic arguments of the logging methods are slog key/value pairs.
// Loggers derived with WithField and friends share their parent's level.
type Logger struct {
	slog  *slog.Logger
	level *slog.LevelVar
}

// NewLogger builds a Logger on slog's text or JSON handler.
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	level := new(slog.LevelVar)
	level.Set(cfg.Level.slogLevel())

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		h = slog.NewTextHandler(cfg.Output, opts)
	}
	l := slog.New(h)
	if cfg.Prefix != "" {
		l = l.With("app", cfg.Prefix)
	}
	return &Logger{slog: l, level: level}
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), level: l.level}
}

// WithField derives a logger that adds key=value to every record.
func (l *Logger) WithField(key string, value any) *Logger { return l.with(key, value) }

// WithFields derives a logger that adds every entry of fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.with(args...)
}

// WithComponent tags records with the component that logged them.
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// SetLevel changes the level of l and of every logger sharing it.
func (l *Logger) SetLevel(level LogLevel) { l.level.Set(level.slogLevel()) }

// Slog exposes the wrapped logger.
func (l *Logger) Slog() *slog.Logger { return l.slog }

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// NullLogger drops everything.
var NullLogger = &Logger{slog: slog.New(slog.DiscardHandler), level: new(slog.LevelVar)}

var (
	appLoggerMu sync.RWMutex
	appLogger   *Logger
)

// GetLogger returns the process-wide logger set by SetLogger, or a
// default one.
func GetLogger() *Logger {
	appLoggerMu.RLock()
	l := appLogger
	appLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	appLoggerMu.Lock()
	defer appLoggerMu.Unlock()
	if appLogger == nil {
		appLogger = NewLogger(DefaultLoggerConfig())
	}
	return appLogger
}

// SetLogger replaces the process-wide logger.
func SetLogger(l *Logger) {
	appLoggerMu.Lock()
	defer appLoggerMu.Unlock()
	appLogger = l
}
