// Package commands implements the repeat command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quanmltya/repeat/internal/app"
	"github.com/quanmltya/repeat/internal/config"
	"github.com/quanmltya/repeat/internal/store"
)

// printedError marks an error whose details were already written for the
// user; Execute only sets the exit status for it.
type printedError struct{ err error }

func (e printedError) Error() string { return "error already printed" }

func (e printedError) Unwrap() error { return e.err }

// cli carries the state shared by every command: global flags and the
// configuration loaded before the command runs.
type cli struct {
	version    string
	configPath string
	logLevel   string
	logFile    string
	dbPath     string

	loader *config.Loader
	cfg    *config.Config
}

// Execute runs the CLI application.
func Execute(version string) error {
	root := NewRootCmd(version)
	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			newPrinter(root.ErrOrStderr()).failure("error: %v", err)
		}
	}
	return err
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	c := &cli{version: version}

	root := &cobra.Command{
		Use:           "repeat",
		Short:         "Hotkey and typed-phrase automation with input record and replay",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	fs := root.PersistentFlags()
	fs.StringVarP(&c.configPath, "config", "c", os.Getenv(config.EnvConfigPath), "Path to the configuration file")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&c.logFile, "log-file", "", "Write logs to this file instead of stderr")
	fs.StringVar(&c.dbPath, "db", "", "Override the statistics database path")

	root.AddCommand(newRunCmd(c))
	root.AddCommand(newReplayCmd(c))
	root.AddCommand(newCheckCmd(c))
	root.AddCommand(newSessionsCmd(c))
	root.AddCommand(newStatsCmd(c))
	root.AddCommand(newConfigCmd(c))

	return root
}

// load reads the configuration and applies flag overrides.
func (c *cli) load(cmd *cobra.Command) error {
	c.loader = config.NewLoader(c.configPath)
	cfg, err := c.loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if c.dbPath != "" {
		cfg.Store.Path = c.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// logger builds the application logger. Logs go to --log-file when set,
// otherwise to fallback.
func (c *cli) logger(fallback io.Writer) (*app.Logger, func(), error) {
	out, closeFn := fallback, func() {}
	if c.logFile != "" {
		if err := os.MkdirAll(filepath.Dir(c.logFile), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closeFn = f, func() { _ = f.Close() }
	}
	l := app.NewLogger(app.LoggerConfig{
		Level:  app.ParseLogLevel(c.cfg.Logging.Level),
		Output: out,
		JSON:   strings.EqualFold(c.cfg.Logging.Format, "json"),
		Prefix: "repeat",
	})
	app.SetLogger(l)
	return l, closeFn, nil
}

// openStore opens the configured database. An empty path disables it.
func (c *cli) openStore(ctx context.Context) (*store.Store, error) {
	if c.cfg.Store.Path == "" {
		return nil, nil
	}
	s, err := store.Open(ctx, c.cfg.Store.Path)
	if err != nil {
		return nil, app.NewComponentError("store", "open", err)
	}
	return s, nil
}

// requireStore is openStore for commands that cannot work without one.
func (c *cli) requireStore(ctx context.Context) (*store.Store, error) {
	s, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, app.ErrNoStore
	}
	return s, nil
}
