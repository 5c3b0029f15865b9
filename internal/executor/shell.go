package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/quanmltya/repeat/internal/activation"
)

// ShellInterpreter runs a script as one command line. The line is split
// with POSIX shell quoting rules but never handed to a shell, so pipes and
// globs are not expanded.
type ShellInterpreter struct {
	// WaitDelay bounds how long a cancelled command may keep its output
	// pipes open.
	WaitDelay time.Duration
}

// NewShellInterpreter creates a shell interpreter.
func NewShellInterpreter() *ShellInterpreter {
	return &ShellInterpreter{WaitDelay: time.Second}
}

// Language implements Interpreter.
func (s *ShellInterpreter) Language() string { return "shell" }

// Run implements Interpreter. The action ID, name and matched trigger are
// exported as REPEAT_ACTION_ID, REPEAT_ACTION and REPEAT_TRIGGER.
func (s *ShellInterpreter) Run(ctx context.Context, script string, m activation.Match) error {
	argv, err := shellquote.Split(strings.TrimSpace(script))
	if err != nil {
		return fmt.Errorf("shell: parse %q: %w", script, err)
	}
	if len(argv) == 0 {
		return ErrEmptyScript
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = s.WaitDelay
	cmd.Env = append(os.Environ(),
		"REPEAT_ACTION_ID="+m.Action.ID(),
		"REPEAT_ACTION="+m.Action.Name(),
		"REPEAT_TRIGGER="+m.Trigger.String(),
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("shell: %s: %w", shellquote.Join(argv...), ctx.Err())
		}
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("shell: %s: %w: %s", shellquote.Join(argv...), err, msg)
		}
		return fmt.Errorf("shell: %s: %w", shellquote.Join(argv...), err)
	}
	return nil
}
