package executor

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanmltya/repeat/internal/activation"
)

func luaMatch() activation.Match {
	return match(&scriptAction{id: "demo", lang: "lua"})
}

func TestLuaInterpreter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	l := NewLuaInterpreter(logger)
	ctx := context.Background()

	require.NoError(t, l.Run(ctx, `log("fired " .. action.name .. " via " .. action.trigger)`, luaMatch()))
	assert.Contains(t, buf.String(), "fired demo via [F1]")

	assert.ErrorIs(t, l.Run(ctx, "  ", luaMatch()), ErrEmptyScript)
	assert.Error(t, l.Run(ctx, "error('bad')", luaMatch()))
	assert.Error(t, l.Run(ctx, "return ((", luaMatch()))
}

func TestLuaInterpreterSandbox(t *testing.T) {
	l := NewLuaInterpreter(nil)
	ctx := context.Background()

	for _, script := range []string{
		`dofile("/etc/passwd")`,
		`loadstring("return 1")()`,
		`os.exit(1)`,
		`io.write("x")`,
		`require("os")`,
	} {
		assert.Error(t, l.Run(ctx, script, luaMatch()), script)
	}
	require.NoError(t, l.Run(ctx, `local s = string.upper("ok"); local t = {}; table.insert(t, math.max(1, 2))`, luaMatch()))
}

func TestLuaInterpreterCancel(t *testing.T) {
	l := NewLuaInterpreter(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Run(ctx, "sleep(60000)", luaMatch())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShellInterpreter(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	s := NewShellInterpreter()
	ctx := context.Background()
	m := match(&scriptAction{id: "sh", lang: "shell"})

	assert.Equal(t, "shell", s.Language())
	require.NoError(t, s.Run(ctx, `sh -c 'test "$REPEAT_ACTION" = sh'`, m))

	err := s.Run(ctx, `sh -c 'echo broken >&2; exit 3'`, m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	assert.ErrorIs(t, s.Run(ctx, "   ", m), ErrEmptyScript)
	assert.Error(t, s.Run(ctx, `echo "unterminated`, m))
}

func TestShellInterpreterCancel(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	s := NewShellInterpreter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, "sleep 30", match(&scriptAction{id: "sleepy", lang: "shell"}))
	assert.ErrorIs(t, err, context.Canceled)
}
