package executor

import (
	"context"
	"strings"
	"time"

	"github.com/quanmltya/repeat/internal/activation"
)

// Runner is an action with a Go body.
type Runner interface {
	Run(ctx context.Context, m activation.Match) error
}

// Scripted is an action whose body is source code in a named language.
type Scripted interface {
	Language() string
	Script() string
}

// Interpreter runs script bodies of one language.
type Interpreter interface {
	Language() string
	Run(ctx context.Context, script string, m activation.Match) error
}

// TimeSaver reports how much manual work one run of an action replaces.
type TimeSaver interface {
	TimeSaved() time.Duration
}

// Invocation describes one finished run.
type Invocation struct {
	ActionID  string
	Name      string
	Trigger   string
	Started   time.Time
	Duration  time.Duration
	Outcome   Outcome
	Err       error
	TimeSaved time.Duration
}

// StatsSink receives one Invocation per finished run.
type StatsSink interface {
	RecordInvocation(ctx context.Context, inv Invocation) error
}

// StatsSinkFunc is a function adapter for StatsSink.
type StatsSinkFunc func(ctx context.Context, inv Invocation) error

// RecordInvocation implements StatsSink.
func (f StatsSinkFunc) RecordInvocation(ctx context.Context, inv Invocation) error {
	return f(ctx, inv)
}

func normalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
