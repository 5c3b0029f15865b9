package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quanmltya/repeat/internal/app"
	"github.com/quanmltya/repeat/internal/config"
	"github.com/quanmltya/repeat/internal/input"
	"github.com/quanmltya/repeat/internal/recorder"
	"github.com/quanmltya/repeat/internal/store"
)

// replayFlags override the [replay] section for one invocation.
type replayFlags struct {
	repeat     int
	speedup    float64
	delay      time.Duration
	maxSpeedup float64
}

func (r *replayFlags) register(fs *pflag.FlagSet) {
	fs.IntVarP(&r.repeat, "repeat", "n", 1, "Number of passes; 0 repeats until interrupted")
	fs.Float64Var(&r.speedup, "speedup", 1, "Speed multiplier")
	fs.DurationVar(&r.delay, "delay", 0, "Pause between passes")
	fs.Float64Var(&r.maxSpeedup, "max-speedup", 5, "Upper bound on the speed multiplier; 0 disables it")
}

// apply copies every flag the user set into cfg.
func (r *replayFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "repeat":
			cfg.Replay.Repeat = r.repeat
		case "speedup":
			cfg.Replay.Speedup = r.speedup
		case "delay":
			cfg.Replay.Delay = config.Duration{Duration: r.delay}
		case "max-speedup":
			cfg.Replay.MaxSpeedup = r.maxSpeedup
		}
	})
}

type replayOptions struct {
	flags  replayFlags
	file   string
	tasks  string
	dryRun bool
}

func newReplayCmd(c *cli) *cobra.Command {
	o := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay [session-id]",
		Short: "Replay a recorded session through the bound tasks",
		Long: `Replays a session from the database (the latest one by default) or from an
exported JSON file. Replayed input goes through the dispatcher, so phrases
and hotkeys in the session fire their tasks again. --dry-run prints the
events instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.replay(cmd, o, args)
		},
	}
	f := cmd.Flags()
	o.flags.register(f)
	f.StringVarP(&o.file, "file", "f", "", "Replay an exported session file instead")
	f.StringVarP(&o.tasks, "tasks", "t", "", "Task group file (default from config)")
	f.BoolVar(&o.dryRun, "dry-run", false, "Print the events without firing anything")
	return cmd
}

func (c *cli) replay(cmd *cobra.Command, o *replayOptions, args []string) error {
	ctx, stop := interruptible(cmd.Context())
	defer stop()

	o.flags.apply(cmd.Flags(), c.cfg)
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	logger, closeLog, err := c.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	p := newPrinter(cmd.OutOrStdout())
	sess, st, err := c.session(ctx, o.file, args)
	if err != nil {
		return err
	}

	if o.dryRun {
		if st != nil {
			_ = st.Close()
		}
		return dryRun(ctx, c.cfg, sess, p)
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

	p.heading("replaying %s (%d events, %s)", sess.ID, sess.Len(), sess.Duration())
	if _, err := a.StartReplay(ctx, sess, true); err != nil {
		return err
	}
	if ctx.Err() != nil {
		p.warning("replay interrupted")
		return nil
	}
	p.success("replay finished")
	return nil
}

// session resolves the session to replay. The returned store, when
// non-nil, is handed to the caller.
func (c *cli) session(ctx context.Context, file string, args []string) (*recorder.Session, *store.Store, error) {
	if file != "" {
		if len(args) > 0 {
			return nil, nil, fmt.Errorf("--file and a session ID are mutually exclusive")
		}
		s, err := recorder.LoadFile(file)
		if err != nil {
			return nil, nil, err
		}
		st, err := c.openStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		return s, st, nil
	}

	st, err := c.requireStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	var s *recorder.Session
	if len(args) == 1 {
		id, perr := uuid.Parse(args[0])
		if perr != nil {
			_ = st.Close()
			return nil, nil, fmt.Errorf("invalid session ID %q: %w", args[0], perr)
		}
		s, err = st.LoadSession(ctx, id)
	} else {
		s, err = st.LatestSession(ctx)
	}
	if err != nil {
		_ = st.Close()
		return nil, nil, app.NewOperationError("load session", firstOr(args, "latest"), err)
	}
	return s, st, nil
}

func dryRun(ctx context.Context, cfg *config.Config, s *recorder.Session, p *printer) error {
	start := time.Now()
	r := recorder.New(recorder.EmitterFunc(func(_ context.Context, e input.Event) error {
		p.line("%10s  %s", time.Since(start).Round(time.Millisecond), e)
		return nil
	}))
	if err := r.SetSpeedup(cfg.Replay.Speedup); err != nil {
		return err
	}
	if err := r.Load(s); err != nil {
		return err
	}
	_, err := r.ReplayContext(ctx, recorder.ReplayOptions{
		Repeat:     cfg.Replay.Repeat,
		Delay:      cfg.Replay.Delay.Duration,
		MaxSpeedup: cfg.Replay.MaxSpeedup,
		Blocking:   true,
	}, nil)
	return err
}

func firstOr(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}
