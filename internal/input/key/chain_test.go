package key

import (
	"errors"
	"testing"
)

func TestParseChain(t *testing.T) {
	tests := []struct {
		spec string
		want Chain
		str  string
	}{
		{"F9", NewChain(SpecialCode(KeyF9)), "F9"},
		{"Ctrl+Shift+P", NewChain(SpecialCode(KeyCtrl), SpecialCode(KeyShift), RuneCode('p')), "Ctrl+Shift+p"},
		{"shift+ctrl+p", NewChain(SpecialCode(KeyCtrl), SpecialCode(KeyShift), RuneCode('p')), "Ctrl+Shift+p"},
		{"<C-S-p>", NewChain(SpecialCode(KeyCtrl), SpecialCode(KeyShift), RuneCode('p')), "Ctrl+Shift+p"},
		{"a+s", NewChain(RuneCode('a'), RuneCode('s')), "a+s"},
		{"Ctrl+Alt", NewChain(SpecialCode(KeyAlt), SpecialCode(KeyCtrl)), "Ctrl+Alt"},
		{"Ctrl++", NewChain(SpecialCode(KeyCtrl), RuneCode('+')), "Ctrl++"},
	}

	for _, tt := range tests {
		got, err := ParseChain(tt.spec)
		if err != nil {
			t.Errorf("ParseChain(%q) error = %v", tt.spec, err)
			continue
		}
		if !got.Equals(tt.want) {
			t.Errorf("ParseChain(%q) = %v, want %v", tt.spec, got, tt.want)
		}
		if got.String() != tt.str {
			t.Errorf("ParseChain(%q).String() = %q, want %q", tt.spec, got.String(), tt.str)
		}
	}
}

func TestParseChainErrors(t *testing.T) {
	if _, err := ParseChain(""); !errors.Is(err, ErrEmptySpec) {
		t.Errorf("ParseChain(\"\") error = %v, want ErrEmptySpec", err)
	}
	if _, err := ParseChain("Ctrl+bogus"); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("ParseChain(\"Ctrl+bogus\") error = %v, want ErrInvalidSpec", err)
	}
}

func TestChainSetEquality(t *testing.T) {
	a := NewChain(RuneCode('x'), SpecialCode(KeyCtrl), RuneCode('x'))
	b := NewChain(SpecialCode(KeyCtrl), RuneCode('X'))
	if !a.Equals(b) {
		t.Errorf("%v should equal %v", a, b)
	}
	if a.Len() != 2 {
		t.Errorf("duplicates should be dropped, Len() = %d", a.Len())
	}
	if a.Equals(NewChain(SpecialCode(KeyCtrl))) {
		t.Error("chains of different size should differ")
	}
	if !NewChain().IsEmpty() {
		t.Error("NewChain() should be empty")
	}
}

func TestChainMatchesHeld(t *testing.T) {
	chain := MustParseChain("Ctrl+Shift+p")
	held := map[Code]struct{}{
		SpecialCode(KeyCtrl):  {},
		SpecialCode(KeyShift): {},
	}
	if chain.MatchesHeld(held) {
		t.Error("partial hold should not match")
	}
	held[RuneCode('p')] = struct{}{}
	if !chain.MatchesHeld(held) {
		t.Error("exact hold should match")
	}
	held[RuneCode('q')] = struct{}{}
	if chain.MatchesHeld(held) {
		t.Error("extra held key should not match")
	}
	if NewChain().MatchesHeld(map[Code]struct{}{}) {
		t.Error("empty chain should never match")
	}
}

func TestChainFromEvent(t *testing.T) {
	got := ChainFromEvent(NewRuneEvent('s', ModCtrl|ModAlt))
	want := MustParseChain("Ctrl+Alt+s")
	if !got.Equals(want) {
		t.Errorf("ChainFromEvent = %v, want %v", got, want)
	}
}

func TestChainText(t *testing.T) {
	var c Chain
	if err := c.UnmarshalText([]byte("Alt+F4")); err != nil {
		t.Fatalf("UnmarshalText error = %v", err)
	}
	text, err := c.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText error = %v", err)
	}
	if string(text) != "Alt+F4" {
		t.Errorf("MarshalText = %q, want %q", text, "Alt+F4")
	}
}
