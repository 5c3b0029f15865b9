package activation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanmltya/repeat/internal/input/key"
)

func TestParse(t *testing.T) {
	a, err := Parse([]string{"Ctrl+Shift+P", "F9", "ctrl+shift+p"}, []string{"a,b,c", "a,b,c"})
	require.NoError(t, err)

	assert.Len(t, a.Chains(), 2, "duplicate chord should be dropped")
	assert.Len(t, a.Phrases(), 1, "duplicate phrase should be dropped")
	assert.False(t, a.IsInert())
	assert.Equal(t, 3, a.MaxPhraseLen())
	assert.Equal(t, "[Ctrl+Shift+p | F9 | a,b,c]", a.String())
}

func TestParseReportsEveryError(t *testing.T) {
	_, err := Parse([]string{"Ctrl+bogus", "F9"}, []string{"a,,b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ctrl+bogus")
	assert.Contains(t, err.Error(), "a,,b")
	assert.ErrorIs(t, err, key.ErrInvalidSpec)
}

func TestInert(t *testing.T) {
	var zero Activation
	assert.True(t, zero.IsInert())
	assert.Equal(t, "[]", zero.String())

	_, ok := zero.RepresentativeChain()
	assert.False(t, ok)

	a := New([]key.Chain{key.NewChain()}, []key.Phrase{{}})
	assert.True(t, a.IsInert(), "empty chains and phrases are dropped")
}

func TestRepresentativeChain(t *testing.T) {
	a := MustParse([]string{"F7", "F8"}, nil)
	c, ok := a.RepresentativeChain()
	require.True(t, ok)
	assert.Equal(t, "F7", c.String())
}

func TestWithoutChains(t *testing.T) {
	a := MustParse([]string{"F7"}, []string{"x,y"})
	b := a.WithoutChains()
	assert.False(t, b.HasChains())
	assert.True(t, b.HasPhrases())
	assert.True(t, a.HasChains(), "original is unchanged")
}

func TestSpecRoundTrip(t *testing.T) {
	a := MustParse([]string{"Ctrl+Alt+Delete"}, []string{"Hi", "Ctrl+x,Ctrl+s"})
	hotkeys, phrases := a.Spec()
	b, err := Parse(hotkeys, phrases)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestFuncAction(t *testing.T) {
	var got Match
	act := NewFuncAction("id-1", "greet", FromPhrase(key.MustParsePhrase("h,i")), func(_ context.Context, m Match) error {
		got = m
		return nil
	})

	assert.Equal(t, "id-1", act.ID())
	assert.Equal(t, "greet", act.Name())
	assert.True(t, act.Enabled())

	act.SetEnabled(false)
	assert.False(t, act.Enabled())

	act.SetActivation(FromChain(key.MustParseChain("F2")))
	assert.True(t, act.Activation().HasChains())
	assert.False(t, act.Activation().HasPhrases())

	m := Match{Action: act, Trigger: act.Activation()}
	require.NoError(t, act.Run(context.Background(), m))
	assert.Same(t, act, got.Action)

	var _ Rebindable = act
}
