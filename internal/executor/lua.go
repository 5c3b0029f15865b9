package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/quanmltya/repeat/internal/activation"
)

// LuaInterpreter runs Lua task bodies in a fresh sandboxed state per run.
//
// Only the base, table, string and math libraries are opened, with the
// file loaders removed. Scripts see an "action" table (id, name, trigger)
// and two helpers: sleep(ms), which returns early when the run is
// cancelled, and log(msg).
type LuaInterpreter struct {
	logger Logger
}

// NewLuaInterpreter creates a Lua interpreter. A nil logger discards
// script log output.
func NewLuaInterpreter(logger Logger) *LuaInterpreter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LuaInterpreter{logger: logger}
}

// Language implements Interpreter.
func (l *LuaInterpreter) Language() string { return "lua" }

// Run implements Interpreter.
func (l *LuaInterpreter) Run(ctx context.Context, script string, m activation.Match) error {
	if strings.TrimSpace(script) == "" {
		return ErrEmptyScript
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	info := L.NewTable()
	info.RawSetString("id", lua.LString(m.Action.ID()))
	info.RawSetString("name", lua.LString(m.Action.Name()))
	info.RawSetString("trigger", lua.LString(m.Trigger.String()))
	L.SetGlobal("action", info)
	L.SetGlobal("sleep", L.NewFunction(func(L *lua.LState) int {
		d := time.Duration(L.CheckInt64(1)) * time.Millisecond
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			L.Push(lua.LTrue)
		case <-ctx.Done():
			L.Push(lua.LFalse)
		}
		return 1
	}))
	L.SetGlobal("log", L.NewFunction(func(L *lua.LState) int {
		l.logger.Info(L.CheckString(1), "action", m.Action.Name())
		return 0
	}))

	L.SetContext(ctx)
	if err := L.DoString(script); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("lua: %s: %w", m.Action.Name(), ctx.Err())
		}
		return fmt.Errorf("lua: %s: %w", m.Action.Name(), err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("lua: %s: %w", m.Action.Name(), ctx.Err())
	}
	return nil
}
