package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quanmltya/repeat/internal/app"
	"github.com/quanmltya/repeat/internal/config"
	"github.com/quanmltya/repeat/internal/dispatcher"
	"github.com/quanmltya/repeat/internal/hook"
)

// Input sources accepted by --source.
const (
	sourceAuto     = "auto"
	sourceTerminal = "terminal"
	sourceScript   = "script"
	sourceGlobal   = "global"
)

type runOptions struct {
	source string
	script string
	tasks  string
	gap    time.Duration
	watch  bool
}

func newRunCmd(c *cli) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Listen for input and fire bound tasks",
		Long: `Loads the task groups, binds the record, replay and halt keys, and feeds
input events to the dispatcher until interrupted.

Sources:
  terminal  keys and mouse events from this terminal
  script    keystroke specifications read line by line (stdin or --script)
  global    an OS-wide keyboard and mouse hook (builds tagged "gohook")
  auto      terminal when stdin is a terminal, script otherwise`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.source, "source", "s", sourceAuto, "Input source: auto, terminal, script or global")
	f.StringVar(&o.script, "script", "-", "Script file for the script source; - reads stdin")
	f.StringVarP(&o.tasks, "tasks", "t", "", "Task group file (default from config)")
	f.DurationVar(&o.gap, "gap", 0, "Pause between scripted keystrokes")
	f.BoolVar(&o.watch, "watch", true, "Apply configuration file changes while running")
	return cmd
}

func (c *cli) run(cmd *cobra.Command, o *runOptions) error {
	ctx, stop := interruptible(cmd.Context())
	defer stop()

	source := o.source
	if source == sourceAuto {
		source = sourceScript
		if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			source = sourceTerminal
		}
	}

	// The terminal source owns the screen; keep logs off it.
	if source == sourceTerminal && c.logFile == "" {
		c.logFile = filepath.Join(config.Dir(), "repeat.log")
	}
	logger, closeLog, err := c.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	src, closeSrc, err := c.source(cmd, source, o, logger)
	if err != nil {
		return err
	}
	defer closeSrc()

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	a, err := app.New(c.cfg, app.Options{Logger: logger, Store: st})
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return err
	}
	defer a.Close()

	if err := c.loadTasks(a, o.tasks, newPrinter(cmd.ErrOrStderr())); err != nil {
		return err
	}

	if o.watch {
		w := config.NewWatcher(c.loader, c.cfg, config.DefaultDebounce)
		go func() {
			if err := a.Watch(ctx, w); err != nil {
				logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	return a.Run(ctx, src)
}

// loadTasks registers the task file. Collisions are reported and the run
// continues; a missing default file is not an error.
func (c *cli) loadTasks(a *app.Application, explicit string, p *printer) error {
	path := explicit
	if path == "" {
		path = c.cfg.Tasks.Path
	}
	if path == "" {
		return nil
	}

	err := a.LoadTasks(path)
	var batch *dispatcher.BatchError
	switch {
	case err == nil:
		return nil
	case explicit == "" && errors.Is(err, fs.ErrNotExist):
		a.Logger().Debug("no task file", "path", path)
		return nil
	case errors.As(err, &batch):
		p.warning("some tasks were not bound:\n%v", err)
		return nil
	default:
		return err
	}
}

func (c *cli) source(cmd *cobra.Command, name string, o *runOptions, logger *app.Logger) (hook.Source, func(), error) {
	noop := func() {}
	switch name {
	case sourceTerminal:
		t, err := hook.NewTerminal(logger.WithComponent("terminal"))
		if err != nil {
			return nil, nil, err
		}
		return t, noop, nil
	case sourceGlobal:
		g, err := hook.NewGlobal(logger.WithComponent("global"))
		if err != nil {
			return nil, nil, err
		}
		return g, noop, nil
	case sourceScript:
		var r io.Reader = cmd.InOrStdin()
		closeFn := noop
		if o.script != "" && o.script != "-" {
			f, err := os.Open(o.script)
			if err != nil {
				return nil, nil, err
			}
			r, closeFn = f, func() { _ = f.Close() }
		}
		return hook.NewScript(r, o.gap, logger.WithComponent("script")), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q", name)
	}
}

// interruptible returns a context cancelled on SIGINT or SIGTERM.
func interruptible(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
