package key

import "testing"

func TestModifierSet(t *testing.T) {
	m := ModNone.With(ModShift).With(ModCtrl)
	if !m.HasShift() || !m.HasCtrl() || m.Has(ModAlt) {
		t.Fatalf("With built %v", m)
	}
	if m = m.Without(ModShift); m != ModCtrl {
		t.Errorf("Without(ModShift) = %v, want Ctrl", m)
	}
	if !ModNone.IsEmpty() || ModMeta.IsEmpty() {
		t.Error("IsEmpty")
	}
}

func TestModifierString(t *testing.T) {
	for m, want := range map[Modifier]string{
		ModNone:                               "",
		ModAlt:                                "Alt",
		ModShift | ModCtrl:                    "Ctrl+Shift",
		ModMeta | ModShift | ModAlt | ModCtrl: "Ctrl+Alt+Shift+Meta",
	} {
		if got := m.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", m, got, want)
		}
	}
}

func TestModifierCodesRoundTrip(t *testing.T) {
	all := ModCtrl | ModAlt | ModShift | ModMeta
	codes := all.Codes()
	if len(codes) != 4 || codes[0] != SpecialCode(KeyCtrl) || codes[3] != SpecialCode(KeyMeta) {
		t.Fatalf("Codes() = %v", codes)
	}
	var back Modifier
	for _, c := range codes {
		back = back.With(c.Modifier())
	}
	if back != all {
		t.Errorf("codes map back to %v", back)
	}
	if ModNone.Codes() != nil {
		t.Error("ModNone.Codes() should be nil")
	}
	if RuneCode('x').Modifier() != ModNone {
		t.Error("a letter is not a modifier")
	}
}

func TestModifierNames(t *testing.T) {
	for in, want := range map[string]Modifier{
		"ctrl":            ModCtrl,
		" Control ":       ModCtrl,
		"Option":          ModAlt,
		"super":           ModMeta,
		"Ctrl+Alt":        ModCtrl | ModAlt,
		"cmd+shift":       ModMeta | ModShift,
		"hyper":           ModNone,
		"ctrl+hyper+meta": ModCtrl | ModMeta,
	} {
		if got := ParseModifiers(in); got != want {
			t.Errorf("ParseModifiers(%q) = %v, want %v", in, got, want)
		}
	}
}
