package hook

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/quanmltya/repeat/internal/input/key"
)

// Script is a Source reading keystrokes from text, one line at a time.
//
// Each line is a phrase specification as accepted by key.ParsePhrase:
// "hello", "h,i,Enter" or "<C-s>". Blank lines and lines starting with
// '#' are skipped. A line of the form "@sleep 200ms" pauses the input.
// Lines that fail to parse are logged and skipped.
type Script struct {
	r      io.Reader
	gap    time.Duration
	logger Logger
}

// NewScript creates a script source. gap is the pause between keystrokes.
func NewScript(r io.Reader, gap time.Duration, logger Logger) *Script {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Script{r: r, gap: gap, logger: logger}
}

// Name implements Source.
func (s *Script) Name() string { return "script" }

// Run implements Source. It returns nil when the input is exhausted.
func (s *Script) Run(ctx context.Context, sink Sink) error {
	sc := bufio.NewScanner(s.r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if rest, ok := strings.CutPrefix(text, "@sleep"); ok {
			d, err := time.ParseDuration(strings.TrimSpace(rest))
			if err != nil {
				s.logger.Warn("skipping script line", "line", line, "error", err)
				continue
			}
			if err := pause(ctx, d); err != nil {
				return err
			}
			continue
		}

		phrase, err := key.ParsePhrase(text)
		if err != nil {
			s.logger.Warn("skipping script line", "line", line, "text", text, "error", err)
			continue
		}
		for _, stroke := range phrase.Strokes() {
			if err := feed(ctx, sink, Expand(strokeEvent(stroke))); err != nil {
				return err
			}
			if err := pause(ctx, s.gap); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("hook: read script: %w", err)
	}
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// strokeEvent returns the press event that types s.
func strokeEvent(s key.Stroke) key.Event {
	return key.NewEvent(key.PhasePress, s.Code.Key, s.Code.Rune, s.Modifiers)
}
