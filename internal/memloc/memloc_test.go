package memloc

import "testing"

func TestMake_Random(t *testing.T) {
	a := Make()
	b := Make()
	if a == b {
		t.Error("Make() produced two equal handles; expected randomness")
	}
	if a.IsZero() || b.IsZero() {
		t.Error("Make() produced a zero handle")
	}
}

func TestMakeFromBytes_Deterministic(t *testing.T) {
	label := []byte("a stable label, possibly longer than 16 bytes of input")

	a := MakeFromBytes(label)
	b := MakeFromBytes(label)
	if a != b {
		t.Error("MakeFromBytes() not deterministic for the same label")
	}

	c := MakeFromBytes([]byte("a different label"))
	if a == c {
		t.Error("MakeFromBytes() produced the same handle for two different labels")
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	h := Make()
	s := h.String()

	parsed, err := ParseString(s)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if parsed != h {
		t.Errorf("ParseString(%q) = %v, want %v", s, parsed, h)
	}
}

func TestParseString_BadInput(t *testing.T) {
	if _, err := ParseString("not-hex!!"); err == nil {
		t.Error("ParseString() with invalid hex should error")
	}
	if _, err := ParseString("ab"); err == nil {
		t.Error("ParseString() with too-short input should error")
	}
}
