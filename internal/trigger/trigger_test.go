package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanmltya/repeat/internal/activation"
	"github.com/quanmltya/repeat/internal/input/key"
)

func chordAction(id, spec string) *activation.FuncAction {
	return activation.NewFuncAction(id, id, activation.FromChain(key.MustParseChain(spec)), nil)
}

func phraseAction(id, spec string) *activation.FuncAction {
	return activation.NewFuncAction(id, id, activation.FromPhrase(key.MustParsePhrase(spec)), nil)
}

func down(code key.Code) key.Event { return key.Press(code, key.ModNone) }
func up(code key.Code) key.Event   { return key.Release(code, key.ModNone) }

var (
	ctrl  = key.SpecialCode(key.KeyCtrl)
	shift = key.SpecialCode(key.KeyShift)
)

func r(c rune) key.Code { return key.RuneCode(c) }

// typeRunes presses and releases each rune, collecting matches per phase.
func typeRunes(m Manager, s string) (pressed, released [][]activation.Match) {
	for _, c := range s {
		pressed = append(pressed, m.KeyPressed(down(r(c))))
		released = append(released, m.KeyReleased(up(r(c))))
	}
	return pressed, released
}

func ids(matches []activation.Match) []string {
	var out []string
	for _, m := range matches {
		out = append(out, m.Action.ID())
	}
	return out
}

func TestChordManagerFiresOnExactHeldSet(t *testing.T) {
	m := NewChordManager(NewSettings(false))
	m.Register(chordAction("save", "Ctrl+s"))

	assert.Empty(t, m.KeyPressed(down(ctrl)))
	got := m.KeyPressed(down(r('s')))
	require.Len(t, got, 1)
	assert.Equal(t, "save", got[0].Action.ID())

	chain, ok := got[0].Trigger.RepresentativeChain()
	require.True(t, ok)
	assert.Equal(t, "Ctrl+s", chain.String())

	assert.Empty(t, m.KeyPressed(down(r('s'))), "auto-repeat must not re-fire")
	assert.Empty(t, m.KeyReleased(up(r('s'))))
	assert.Empty(t, m.KeyReleased(up(ctrl)))
	assert.Equal(t, 0, m.Held())
}

func TestChordManagerExtraKeyPreventsMatch(t *testing.T) {
	m := NewChordManager(nil)
	m.Register(chordAction("save", "Ctrl+s"))

	m.KeyPressed(down(ctrl))
	m.KeyPressed(down(shift))
	assert.Empty(t, m.KeyPressed(down(r('s'))))
}

func TestChordManagerOnRelease(t *testing.T) {
	settings := NewSettings(true)
	m := NewChordManager(settings)
	m.Register(chordAction("save", "Ctrl+s"))
	m.Register(chordAction("ctrl", "Ctrl"))

	assert.Empty(t, m.KeyPressed(down(ctrl)))
	assert.Empty(t, m.KeyPressed(down(r('s'))))

	got := m.KeyReleased(up(r('s')))
	assert.Equal(t, []string{"save"}, ids(got))
	assert.Empty(t, m.KeyReleased(up(ctrl)), "trailing release must not fire a sub-chord")

	m.KeyPressed(down(ctrl))
	assert.Equal(t, []string{"ctrl"}, ids(m.KeyReleased(up(ctrl))))
}

func TestChordManagerCollisions(t *testing.T) {
	m := NewChordManager(nil)
	a := chordAction("a", "Ctrl+Shift+p")
	m.Register(a)
	m.Register(chordAction("b", "F9"))

	candidate := activation.FromChain(key.MustParseChain("shift+ctrl+P"))
	assert.True(t, m.Collides(candidate, a))
	assert.Equal(t, []string{"a"}, actionIDs(m.Collisions(candidate)))
	assert.Empty(t, m.Collisions(candidate, "a"), "excluded IDs are skipped")

	a.SetEnabled(false)
	assert.Empty(t, m.Collisions(candidate), "disabled actions never collide")

	assert.Empty(t, m.Collisions(activation.FromPhrase(key.MustParsePhrase("x"))))
}

func TestCollisionsUseRegisteredActivation(t *testing.T) {
	m := NewChordManager(nil)
	a := chordAction("a", "Ctrl+k")
	m.Register(a)

	a.SetActivation(activation.FromChain(key.MustParseChain("F9")))
	assert.Equal(t, []string{"a"}, actionIDs(m.Collisions(activation.FromChain(key.MustParseChain("Ctrl+k")))))
	assert.Empty(t, m.Collisions(activation.FromChain(key.MustParseChain("F9"))))

	m.Register(a)
	assert.Empty(t, m.Collisions(activation.FromChain(key.MustParseChain("Ctrl+k"))))
	assert.Equal(t, []string{"a"}, actionIDs(m.Collisions(activation.FromChain(key.MustParseChain("F9")))))

	p := NewPhraseManager(nil)
	ab := phraseAction("ab", "a,b")
	p.Register(ab)
	ab.SetActivation(activation.FromPhrase(key.MustParsePhrase("x,y")))
	assert.Equal(t, []string{"ab"}, actionIDs(p.Collisions(activation.FromPhrase(key.MustParsePhrase("a,b")))))
	assert.Empty(t, p.Collisions(activation.FromPhrase(key.MustParsePhrase("x,y"))))
}

func TestChordManagerUnregister(t *testing.T) {
	m := NewChordManager(nil)
	m.Register(chordAction("f9", "F9"))
	require.True(t, m.Unregister("f9"))
	assert.False(t, m.Unregister("f9"))
	assert.Empty(t, m.KeyPressed(down(key.SpecialCode(key.KeyF9))))
	assert.Empty(t, m.Registered())
}

func TestPhraseManagerFiresOnFinalStrokeOnly(t *testing.T) {
	m := NewPhraseManager(NewSettings(false))
	m.Register(phraseAction("abc", "a,b,c"))

	pressed, released := typeRunes(m, "abc")
	assert.Empty(t, pressed[0])
	assert.Empty(t, pressed[1])
	assert.Equal(t, []string{"abc"}, ids(pressed[2]))
	for _, rel := range released {
		assert.Empty(t, rel)
	}
	assert.Equal(t, "a,b,c", pressed[2][0].Trigger.Phrases()[0].String())
}

func TestPhraseManagerClearsAfterMatch(t *testing.T) {
	m := NewPhraseManager(nil)
	m.Register(phraseAction("aa", "a,a"))

	pressed, _ := typeRunes(m, "aaaa")
	assert.Empty(t, pressed[0])
	assert.Len(t, pressed[1], 1)
	assert.Empty(t, pressed[2], "the second a of a match must not start a new one")
	assert.Len(t, pressed[3], 1)
	assert.Equal(t, 0, m.Series().Presses())
}

func TestPhraseManagerLongerPhraseFiresOnce(t *testing.T) {
	m := NewPhraseManager(nil)
	m.Register(phraseAction("abc", "a,b,c"))

	pressed, _ := typeRunes(m, "xxabcabc")
	var fired int
	for _, p := range pressed {
		fired += len(p)
	}
	assert.Equal(t, 2, fired)
}

func TestPhraseManagerOnRelease(t *testing.T) {
	m := NewPhraseManager(NewSettings(true))
	m.Register(phraseAction("hi", "h,i"))

	pressed, released := typeRunes(m, "hi")
	assert.Empty(t, pressed[0])
	assert.Empty(t, pressed[1])
	assert.Empty(t, released[0])
	assert.Equal(t, []string{"hi"}, ids(released[1]))
}

func TestPhraseManagerIgnoresModifierKeys(t *testing.T) {
	m := NewPhraseManager(nil)
	m.Register(phraseAction("Hi", "H,i"))

	m.KeyPressed(down(shift))
	assert.Empty(t, m.KeyPressed(key.Press(r('h'), key.ModShift)))
	m.KeyReleased(key.Release(r('h'), key.ModShift))
	m.KeyReleased(up(shift))
	got := m.KeyPressed(down(r('i')))
	assert.Equal(t, []string{"Hi"}, ids(got))
}

func TestPhraseManagerSkipsDisabled(t *testing.T) {
	m := NewPhraseManager(nil)
	a := phraseAction("ok", "o,k")
	a.SetEnabled(false)
	m.Register(a)

	pressed, _ := typeRunes(m, "ok")
	assert.Empty(t, pressed[1])
}

func TestPhraseManagerCollisions(t *testing.T) {
	m := NewPhraseManager(nil)
	ab := phraseAction("ab", "a,b")
	m.Register(ab)

	assert.True(t, m.Collides(activation.FromPhrase(key.MustParsePhrase("a,b,c")), ab))
	assert.True(t, m.Collides(activation.FromPhrase(key.MustParsePhrase("a")), ab))
	assert.True(t, m.Collides(activation.FromPhrase(key.MustParsePhrase("a,b")), ab))
	assert.False(t, m.Collides(activation.FromPhrase(key.MustParsePhrase("b,a")), ab))
	assert.Equal(t, []string{"ab"}, actionIDs(m.Collisions(activation.FromPhrase(key.MustParsePhrase("a,b,c")))))
}

func TestPhraseManagerUnregisterShrinksSeries(t *testing.T) {
	m := NewPhraseManager(nil)
	m.Register(phraseAction("long", "a,b,c,d"))
	m.Register(phraseAction("short", "x,y"))
	assert.Equal(t, 4, m.Series().Limit())

	require.True(t, m.Unregister("long"))
	assert.Equal(t, 2, m.Series().Limit())

	pressed, _ := typeRunes(m, "abcd")
	for _, p := range pressed {
		assert.Empty(t, p)
	}
}

func TestRollingSeriesBounded(t *testing.T) {
	s := NewRollingSeries(3)
	for _, c := range "abcdefgh" {
		s.Add(down(r(c)))
		s.Add(up(r(c)))
	}
	assert.Equal(t, 3, s.Presses())
	assert.LessOrEqual(t, s.Len(), 6)
	assert.Equal(t, "f,g,h", s.Phrase().String())
	assert.True(t, s.EndsWith(key.MustParsePhrase("g,h")))
	assert.False(t, s.EndsWith(key.MustParsePhrase("e,f,g,h")))
	assert.False(t, s.EndsWith(key.MustParsePhrase("f,g")))
}

func TestRollingSeriesSkipsOrphanReleases(t *testing.T) {
	s := NewRollingSeries(2)
	s.Add(up(r('q')))
	assert.Equal(t, 0, s.Len())

	s.Add(down(ctrl))
	assert.Equal(t, 0, s.Len(), "modifier keys are not stored")

	none := NewRollingSeries(0)
	none.Add(down(r('a')))
	assert.Equal(t, 0, none.Len())
}

func TestRollingSeriesAddDoesNotAllocate(t *testing.T) {
	s := NewRollingSeries(4)
	p := key.MustParsePhrase("a,b")
	e1, e2 := down(r('a')), up(r('a'))
	for range 16 {
		s.Add(e1)
		s.Add(e2)
	}
	allocs := testing.AllocsPerRun(100, func() {
		s.Add(e1)
		s.Add(e2)
		_ = s.EndsWith(p)
	})
	assert.Zero(t, allocs)
}

func actionIDs(actions []activation.Action) []string {
	var out []string
	for _, a := range actions {
		out = append(out, a.ID())
	}
	return out
}
