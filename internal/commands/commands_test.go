package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanmltya/repeat/internal/input/key"
	"github.com/quanmltya/repeat/internal/recorder"
)

type harness struct {
	dir  string
	base []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		dir: dir,
		base: []string{
			"--config", filepath.Join(dir, "config.toml"),
			"--db", filepath.Join(dir, "repeat.db"),
		},
	}
}

func (h *harness) run(stdin string, args ...string) (string, string, error) {
	root := NewRootCmd("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(append([]string(nil), h.base...), args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootHasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd("test")
	for _, name := range []string{"run", "replay", "check", "sessions", "stats", "config"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, sub.Name())
	}
	sessions, _, err := root.Find([]string{"sessions"})
	require.NoError(t, err)
	for _, name := range []string{"list", "delete", "export", "import"} {
		sub, _, err := sessions.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, sub.Name())
	}
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
	assert.FileExists(t, filepath.Join(h.dir, "config.toml"))

	_, _, err = h.run("", "config", "init")
	assert.ErrorContains(t, err, "already exists")

	out, _, err = h.run("", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.dir, "config.toml"), strings.TrimSpace(out))

	out, _, err = h.run("", "--log-level", "debug", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[replay]")
	assert.Contains(t, out, "debug")
}

func TestInvalidConfigFails(t *testing.T) {
	h := newHarness(t)
	h.write(t, "config.toml", "[replay]\nspeedup = -1\n")
	_, _, err := h.run("", "config", "path")
	assert.ErrorContains(t, err, "replay.speedup")
}

const collidingTasks = `groups:
  - name: editing
    tasks:
      - {id: sig, name: signature, phrases: ["sig"], script: "true"}
      - {id: save, name: save, hotkeys: ["Ctrl+s"], script: "true"}
      - {id: rec, name: clash, hotkeys: ["F9"], script: "true"}
  - name: off
    enabled: false
    tasks:
      - {id: off1, name: sleeping, hotkeys: ["Ctrl+s"], script: "true"}
`

func TestCheckReportsCollisions(t *testing.T) {
	h := newHarness(t)
	path := h.write(t, "tasks.yaml", collidingTasks)

	out, _, err := h.run("", "check", path)
	require.Error(t, err)
	var pe printedError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, out, "collides with toggle recording")
	assert.Contains(t, out, "2 bound, 1 disabled, 0 without trigger, 1 colliding")
}

func TestCheckClean(t *testing.T) {
	h := newHarness(t)
	path := h.write(t, "tasks.yaml", `groups:
  - name: editing
    tasks:
      - {id: sig, name: signature, phrases: ["sig"], script: "true"}
`)
	out, _, err := h.run("", "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "signature")
	assert.Contains(t, out, "1 bound")

	_, _, err = h.run("", "check", filepath.Join(h.dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRunScriptRecordsStatistics(t *testing.T) {
	h := newHarness(t)
	tasks := h.write(t, "tasks.yaml", `groups:
  - name: editing
    tasks:
      - {id: sig, name: signature, phrases: ["sig"], language: lua, script: "x = 1", time_saved: 2s}
`)

	_, _, err := h.run("sig\n@sleep 300ms\n", "run", "--source", "script", "--watch=false", "--tasks", tasks)
	require.NoError(t, err)

	out, _, err := h.run("", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "signature")
	assert.Contains(t, out, "total time saved: 2s")
}

func TestRunUnknownSource(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("", "run", "--source", "carrier-pigeon", "--watch=false")
	assert.ErrorContains(t, err, "unknown source")
}

func exportedSession(t *testing.T, h *harness) (*recorder.Session, string) {
	t.Helper()
	s := recorder.NewSession("demo")
	s.Append(0, key.Press(key.RuneCode('a'), 0))
	s.Append(5*time.Millisecond, key.Release(key.RuneCode('a'), 0))
	s.Append(10*time.Millisecond, key.Press(key.RuneCode('b'), 0))
	path := filepath.Join(h.dir, "demo.json")
	require.NoError(t, recorder.SaveFile(s, path))
	return s, path
}

func TestSessionsLifecycle(t *testing.T) {
	h := newHarness(t)
	s, path := exportedSession(t, h)

	out, _, err := h.run("", "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no sessions recorded")

	out, _, err = h.run("", "sessions", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, s.ID.String())

	out, _, err = h.run("", "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, s.ID.String())
	assert.Contains(t, out, "demo")

	out, _, err = h.run("", "sessions", "export", s.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)

	_, _, err = h.run("", "sessions", "delete", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid session ID")

	_, _, err = h.run("", "sessions", "delete", s.ID.String())
	require.NoError(t, err)
	out, _, err = h.run("", "sessions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no sessions recorded")
}

func TestReplayDryRun(t *testing.T) {
	h := newHarness(t)
	s, path := exportedSession(t, h)

	out, _, err := h.run("", "replay", "--dry-run", "--file", path, "--speedup", "4", "--repeat", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2*s.Len())
}

func TestReplayStoredSession(t *testing.T) {
	h := newHarness(t)
	_, path := exportedSession(t, h)

	_, _, err := h.run("", "replay")
	assert.Error(t, err, "no sessions stored yet")

	_, _, err = h.run("", "sessions", "import", path)
	require.NoError(t, err)

	out, _, err := h.run("", "replay", "--speedup", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "replay finished")
}
