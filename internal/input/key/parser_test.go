package key

import (
	"errors"
	"testing"
)

// want describes the press a spec should parse to.
type want struct {
	key  Key
	r    rune
	mods Modifier
}

func checkParse(t *testing.T, spec string, w want) {
	t.Helper()
	got, err := Parse(spec)
	if err != nil {
		t.Fatalf("Parse(%q): %v", spec, err)
	}
	if !got.IsPress() {
		t.Errorf("Parse(%q) phase = %v, want press", spec, got.Phase)
	}
	if got.Key != w.key {
		t.Errorf("Parse(%q) key = %v, want %v", spec, got.Key, w.key)
	}
	if w.key == KeyRune && got.Rune != w.r {
		t.Errorf("Parse(%q) rune = %q, want %q", spec, got.Rune, w.r)
	}
	if got.Modifiers != w.mods {
		t.Errorf("Parse(%q) mods = %v, want %v", spec, got.Modifiers, w.mods)
	}
}

func TestParse(t *testing.T) {
	cases := map[string]want{
		// characters
		"a": {KeyRune, 'a', ModNone},
		"Z": {KeyRune, 'Z', ModShift},
		"7": {KeyRune, '7', ModNone},
		"#": {KeyRune, '#', ModNone},
		"+": {KeyRune, '+', ModNone},

		// names
		"Return": {KeyEnter, 0, ModNone},
		"esc":    {KeyEscape, 0, ModNone},
		"Tab":    {KeyTab, 0, ModNone},
		"space":  {KeySpace, 0, ModNone},
		"F11":    {KeyF11, 0, ModNone},
		"Shift":  {KeyShift, 0, ModNone},

		// plus notation
		"Ctrl+v":       {KeyRune, 'v', ModCtrl},
		"Ctrl+V":       {KeyRune, 'v', ModCtrl},
		"Alt+Shift+q":  {KeyRune, 'q', ModAlt | ModShift},
		"Ctrl+Tab":     {KeyTab, 0, ModCtrl},
		"Alt+F2":       {KeyF2, 0, ModAlt},
		"Ctrl++":       {KeyRune, '+', ModCtrl},
		"Alt+minus":    {KeyRune, '-', ModAlt},
		"Shift+Ctrl":   {KeyCtrl, 0, ModShift},
		" Ctrl + k ":   {KeyRune, 'k', ModCtrl},
		"Ctrl+Alt+Del": {KeyDelete, 0, ModCtrl | ModAlt},

		// angle notation
		"<C-w>":    {KeyRune, 'w', ModCtrl},
		"<A-S-n>":  {KeyRune, 'n', ModAlt | ModShift},
		"<D-c>":    {KeyRune, 'c', ModMeta},
		"<CR>":     {KeyEnter, 0, ModNone},
		"<BS>":     {KeyBackspace, 0, ModNone},
		"<gt>":     {KeyRune, '>', ModNone},
		"<bslash>": {KeyRune, '\\', ModNone},
		"<S-Tab>":  {KeyTab, 0, ModShift},
	}
	for spec, w := range cases {
		checkParse(t, spec, w)
	}
}

func TestParseRejects(t *testing.T) {
	for spec, target := range map[string]error{
		"":          ErrEmptySpec,
		"\t":        ErrEmptySpec,
		"<>":        ErrInvalidSpec,
		"<A->":      ErrInvalidSpec,
		"<Q-x>":     ErrInvalidSpec,
		"Alt+":      ErrInvalidSpec,
		"Hyper+x":   ErrInvalidSpec,
		"notakey":   ErrInvalidSpec,
		"Ctrl+junk": ErrInvalidSpec,
	} {
		if _, err := Parse(spec); !errors.Is(err, target) {
			t.Errorf("Parse(%q) err = %v, want %v", spec, err, target)
		}
	}
}

func TestMustParsePanics(t *testing.T) {
	if e := MustParse("<C-r>"); e.Rune != 'r' || !e.Modifiers.HasCtrl() {
		t.Fatalf("MustParse(<C-r>) = %#v", e)
	}
	defer func() {
		if recover() == nil {
			t.Error("no panic for an invalid spec")
		}
	}()
	MustParse("<>")
}
