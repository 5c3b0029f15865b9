package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanmltya/repeat/internal/input/key"
	"github.com/quanmltya/repeat/internal/input/mouse"
)

func sampleSession() *Session {
	s := NewSession("login")
	s.Append(0, key.Press(key.RuneCode('s'), key.ModCtrl))
	s.Append(1500*time.Microsecond, key.Release(key.RuneCode('s'), key.ModCtrl))
	s.Append(40*time.Millisecond, mouse.Press(mouse.ButtonLeft, mouse.Position{X: 100, Y: 20}))
	s.Append(55*time.Millisecond, mouse.Release(mouse.ButtonLeft, mouse.Position{X: 100, Y: 20}))
	s.Append(70*time.Millisecond, key.Press(key.SpecialCode(key.KeyEnter), key.ModShift))
	return s
}

func TestExportImport(t *testing.T) {
	orig := sampleSession()
	data, err := Export(orig)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind": "mouse"`)

	got, err := Import(data)
	require.NoError(t, err)
	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, orig.Name, got.Name)
	require.Equal(t, orig.Len(), got.Len())
	for i := range orig.Entries {
		assert.Equal(t, orig.Entries[i].Offset, got.Entries[i].Offset, "entry %d", i)
		assert.Equal(t, orig.Entries[i].Event.String(), got.Entries[i].Event.String(), "entry %d", i)
	}
}

func TestImportRejects(t *testing.T) {
	_, err := Import([]byte(`{"version": 99, "entries": []}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Import([]byte(`{"version": 1, "entries": [{"kind": "joystick"}]}`))
	assert.Error(t, err)

	_, err = Import([]byte(`{"version": 1, "entries": [{"kind": "key", "key": 0}]}`))
	assert.Error(t, err)

	_, err = Import([]byte(`not json`))
	assert.Error(t, err)

	s, err := Import([]byte(`{"version": 1, "entries": []}`))
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", s.ID.String())
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	orig := sampleSession()
	require.NoError(t, SaveFile(orig, path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, orig.Len(), got.Len())
	assert.Equal(t, orig.Duration(), got.Duration())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestTrimEdgesKeepsBalancedEvents(t *testing.T) {
	s := NewSession("")
	s.Append(5*time.Millisecond, press('a'))
	s.Append(9*time.Millisecond, release('a'))
	s.TrimEdges()
	require.Equal(t, 2, s.Len())
	assert.Equal(t, time.Duration(0), s.Entries[0].Offset)
	assert.Equal(t, 4*time.Millisecond, s.Entries[1].Offset)

	empty := NewSession("")
	empty.TrimEdges()
	assert.True(t, empty.IsEmpty())
}

func phases(s *Session) []string {
	out := make([]string, 0, s.Len())
	for _, e := range s.Entries {
		ke := e.Event.(key.Event)
		p := string(ke.Rune)
		if ke.IsRelease() {
			p = "^" + p
		}
		out = append(out, p)
	}
	return out
}

func TestTrimEdgesKeepsAutoRepeat(t *testing.T) {
	s := NewSession("")
	for i, e := range []key.Event{
		release('x'),
		press('a'), press('a'), press('a'), release('a'),
		press('b'), release('b'),
		press('c'), press('c'),
	} {
		s.Append(time.Duration(i)*time.Millisecond, e)
	}
	s.TrimEdges()
	assert.Equal(t, []string{"a", "a", "a", "^a", "b", "^b"}, phases(s))
	assert.Equal(t, time.Duration(0), s.Entries[0].Offset)
}

func TestTrimEdgesDropsOnlyTheFinalHold(t *testing.T) {
	s := NewSession("")
	for i, e := range []key.Event{
		press('a'), release('a'),
		press('b'), release('b'),
		press('a'), press('a'),
	} {
		s.Append(time.Duration(i)*time.Millisecond, e)
	}
	s.TrimEdges()
	assert.Equal(t, []string{"a", "^a", "b", "^b"}, phases(s))
}
