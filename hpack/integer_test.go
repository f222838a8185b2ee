package hpack

import (
	"bytes"
	"testing"
)

func TestAppendIntSmallFitsInPrefix(t *testing.T) {
	// RFC 7541 C.1.3: 42 encoded with an 8-bit prefix fits directly.
	got := AppendInt(nil, 42, 8, 0)
	want := []byte{42}
	if !bytes.Equal(got, want) {
		t.Fatalf("AppendInt(42, 8) = %#x, want %#x", got, want)
	}
}

func TestAppendIntRFCExamples(t *testing.T) {
	// RFC 7541 C.1.1: 10 encoded with a 5-bit prefix.
	if got := AppendInt(nil, 10, 5, 0); !bytes.Equal(got, []byte{0x0a}) {
		t.Fatalf("10/5-bit = %#x, want 0a", got)
	}
	// RFC 7541 C.1.2: 1337 encoded with a 5-bit prefix.
	if got := AppendInt(nil, 1337, 5, 0); !bytes.Equal(got, []byte{0x1f, 0x9a, 0x0a}) {
		t.Fatalf("1337/5-bit = %#x, want 1f9a0a", got)
	}
}

func TestReadIntRFCExamples(t *testing.T) {
	v, rest, err := ReadInt([]byte{0x0a}, 5)
	if err != nil || v != 10 || len(rest) != 0 {
		t.Fatalf("ReadInt(0a, 5) = %d, %v, %v", v, rest, err)
	}

	v, rest, err = ReadInt([]byte{0x1f, 0x9a, 0x0a}, 5)
	if err != nil || v != 1337 || len(rest) != 0 {
		t.Fatalf("ReadInt(1f9a0a, 5) = %d, %v, %v", v, rest, err)
	}
}

func TestIntRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 30, 31, 32, 127, 128, 129, 1337, 16383, 16384, 1 << 20, 1 << 40}
	for _, prefix := range []int{4, 5, 6, 7, 8} {
		for _, v := range values {
			enc := AppendInt(nil, v, prefix, 0)
			got, rest, err := ReadInt(enc, prefix)
			if err != nil {
				t.Fatalf("prefix=%d v=%d: ReadInt error: %v", prefix, v, err)
			}
			if len(rest) != 0 {
				t.Fatalf("prefix=%d v=%d: leftover bytes %#x", prefix, v, rest)
			}
			if got != v {
				t.Fatalf("prefix=%d v=%d: round-tripped to %d", prefix, v, got)
			}
		}
	}
}

func TestAppendIntPreservesFlagBits(t *testing.T) {
	got := AppendInt(nil, 5, 5, 0x80)
	if got[0] != 0x80|0x05 {
		t.Fatalf("flag bits not preserved: %#x", got[0])
	}
}

func TestReadIntNeedsMoreOnEmpty(t *testing.T) {
	if _, _, err := ReadInt(nil, 5); err != ErrNeedMore {
		t.Fatalf("ReadInt(nil) err = %v, want ErrNeedMore", err)
	}
}

func TestReadIntRejectsRunawayContinuation(t *testing.T) {
	b := make([]byte, 0, 16)
	b = append(b, 0x1f)
	for i := 0; i < 15; i++ {
		b = append(b, 0x80)
	}
	b = append(b, 0x01)
	if _, _, err := ReadInt(b, 5); err != ErrCorruptedInteger {
		t.Fatalf("ReadInt(runaway) err = %v, want ErrCorruptedInteger", err)
	}
}
