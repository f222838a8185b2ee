package wireutil

import "testing"

func TestUint24RoundTrip(t *testing.T) {
	b := make([]byte, 3)
	Uint24ToBytes(b, 0x0102)
	if BytesToUint24(b) != 0x0102 {
		t.Fatalf("round trip failed: %#x", b)
	}

	Uint24ToBytes(b, 0xffffff)
	if BytesToUint24(b) != 0xffffff {
		t.Fatalf("max value round trip failed: %#x", b)
	}
}

func TestUint32RoundTrip(t *testing.T) {
	b := make([]byte, 4)
	Uint32ToBytes(b, 0xdeadbeef)
	if BytesToUint32(b) != 0xdeadbeef {
		t.Fatalf("round trip failed: %#x", b)
	}
}

func TestAppendUint32Bytes(t *testing.T) {
	got := AppendUint32Bytes([]byte{0xff}, 0x01020304)
	want := []byte{0xff, 0x01, 0x02, 0x03, 0x04}
	if len(got) != len(want) {
		t.Fatalf("got %#x, want %#x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %#x, want %#x", got, want)
		}
	}
}

func TestEqualsFold(t *testing.T) {
	if !EqualsFold([]byte("Content-Type"), []byte("content-type")) {
		t.Fatalf("expected case-insensitive match")
	}
	if EqualsFold([]byte("a"), []byte("ab")) {
		t.Fatalf("different lengths must not match")
	}
}

func TestResizeGrowsAndTruncates(t *testing.T) {
	b := make([]byte, 2, 8)
	b = Resize(b, 5)
	if len(b) != 5 {
		t.Fatalf("Resize grow: len = %d, want 5", len(b))
	}
	b = Resize(b, 2)
	if len(b) != 2 {
		t.Fatalf("Resize shrink: len = %d, want 2", len(b))
	}
}

func TestCutPaddingStripsPadLength(t *testing.T) {
	payload := []byte{2, 'h', 'i', 0, 0}
	got, err := CutPadding(payload, len(payload))
	if err != nil {
		t.Fatalf("CutPadding error: %v", err)
	}
	if string(got) != "hi" {
		t.Fatalf("got %q, want %q", got, "hi")
	}
}

func TestCutPaddingRejectsOverlongPad(t *testing.T) {
	payload := []byte{4, 'h', 'i'}
	if _, err := CutPadding(payload, len(payload)); err == nil {
		t.Fatalf("expected error: pad length exceeds payload")
	}
}

func TestCutPaddingRejectsEmptyPayload(t *testing.T) {
	if _, err := CutPadding(nil, 0); err == nil {
		t.Fatalf("expected error on empty payload")
	}
}

func TestB2SAndS2BRoundTrip(t *testing.T) {
	s := "content-type"
	b := S2B(s)
	if string(b) != s {
		t.Fatalf("S2B(%q) = %q", s, b)
	}
	if B2S(b) != s {
		t.Fatalf("B2S(S2B(%q)) = %q", s, B2S(b))
	}
	if B2S(nil) != "" {
		t.Fatalf("B2S(nil) = %q, want empty", B2S(nil))
	}
}

func TestAddPaddingLengthInRange(t *testing.T) {
	content := []byte("hello")
	for i := 0; i < 20; i++ {
		padded := AddPadding(append([]byte(nil), content...))
		padLen := int(padded[0])
		if padLen < 9 || padLen > 255 {
			t.Fatalf("pad length %d out of [9, 255]", padLen)
		}
		if len(padded) != 1+len(content)+padLen {
			t.Fatalf("padded length %d, want %d", len(padded), 1+len(content)+padLen)
		}
		stripped, err := CutPadding(padded, len(padded))
		if err != nil {
			t.Fatalf("CutPadding on AddPadding output: %v", err)
		}
		if string(stripped) != string(content) {
			t.Fatalf("stripped = %q, want %q", stripped, content)
		}
	}
}
