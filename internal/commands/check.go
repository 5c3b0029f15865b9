package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quanmltya/repeat/internal/activation"
	"github.com/quanmltya/repeat/internal/app"
	"github.com/quanmltya/repeat/internal/config"
	"github.com/quanmltya/repeat/internal/dispatcher"
	"github.com/quanmltya/repeat/internal/input/key"
	"github.com/quanmltya/repeat/internal/taskgroup"
)

func newCheckCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check [tasks-file]",
		Short: "Report trigger collisions in a task group file",
		Long: `Registers every task of the file, together with the record and replay
hotkeys, against an empty dispatcher and reports which tasks would not be
bound and what they collide with. Exits non-zero when any task collides.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.cfg.Tasks.Path
			if len(args) == 1 {
				path = args[0]
			}
			return check(newPrinter(cmd.OutOrStdout()), c.cfg, path)
		},
	}
}

// checkReport counts the outcome of a check.
type checkReport struct {
	bound     int
	disabled  int
	inert     int
	collision int
}

func check(p *printer, cfg *config.Config, path string) error {
	groups, err := taskgroup.LoadFile(path)
	if err != nil {
		p.failure("%s: %v", path, err)
		return printedError{err: err}
	}

	d := dispatcher.NewWithDefaults()
	defer d.Close()
	if err := registerBuiltins(d, cfg); err != nil {
		return err
	}
	m := taskgroup.NewManager(d, nil)
	_ = m.AddAll(groups) // failures are reported per task below

	var r checkReport
	p.heading("%s", path)
	for _, g := range m.Groups() {
		state := ""
		if !g.Enabled {
			state = p.faint.Sprint(" (disabled)")
		}
		p.line("%s%s", p.bold.Sprint(g.Name), state)
		for _, t := range g.Tasks {
			r.add(p, d, m, g, t)
		}
	}

	summary := fmt.Sprintf("%d bound, %d disabled, %d without trigger, %d colliding",
		r.bound, r.disabled, r.inert, r.collision)
	if r.collision > 0 {
		p.failure("%s", summary)
		return printedError{err: fmt.Errorf("%d colliding tasks", r.collision)}
	}
	p.success("%s", summary)
	return nil
}

func (r *checkReport) add(p *printer, d *dispatcher.Dispatcher, m *taskgroup.Manager, g *taskgroup.Group, t *taskgroup.Task) {
	act := t.Activation()
	label := fmt.Sprintf("  %-24s %s", t.Name(), act)

	switch {
	case !g.Enabled || !t.Enabled():
		r.disabled++
		p.line("%s", p.faint.Sprint(label))
	case m.IsBound(t.ID()):
		r.bound++
		if act.IsInert() {
			r.inert++
			p.line("%s %s", label, p.warn.Sprint("no hotkey or phrase"))
			return
		}
		p.line("%s %s", label, p.ok.Sprint("ok"))
	default:
		r.collision++
		cols := d.Collisions(act, t.ID())
		names := make([]string, 0, len(cols))
		for _, c := range cols {
			names = append(names, c.Name())
		}
		p.line("%s %s", label, p.bad.Sprintf("collides with %s", strings.Join(names, ", ")))
	}
}

// registerBuiltins binds inert stand-ins for the record and replay toggles
// so task hotkeys are checked against them.
func registerBuiltins(d *dispatcher.Dispatcher, cfg *config.Config) error {
	for _, b := range []struct {
		id, name, spec string
	}{
		{app.RecordActionID, "toggle recording", cfg.Hotkeys.Record},
		{app.ReplayActionID, "toggle replay", cfg.Hotkeys.Replay},
	} {
		if b.spec == "" {
			continue
		}
		chain, err := key.ParseChain(b.spec)
		if err != nil {
			return err
		}
		if err := d.Register(activation.NewFuncAction(b.id, b.name, activation.FromChain(chain), nil)); err != nil {
			return err
		}
	}
	return nil
}
