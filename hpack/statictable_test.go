package hpack

import "testing"

func TestStaticGetKnownEntries(t *testing.T) {
	cases := []struct {
		idx        uint64
		name, val string
	}{
		{1, ":authority", ""},
		{2, ":method", "GET"},
		{3, ":method", "POST"},
		{4, ":path", "/"},
		{8, ":status", "200"},
		{61, "www-authenticate", ""},
	}
	for _, c := range cases {
		name, val, ok := StaticGet(c.idx)
		if !ok {
			t.Fatalf("StaticGet(%d): not found", c.idx)
		}
		if name != c.name || val != c.val {
			t.Fatalf("StaticGet(%d) = (%q, %q), want (%q, %q)", c.idx, name, val, c.name, c.val)
		}
	}
}

func TestStaticGetOutOfRange(t *testing.T) {
	if _, _, ok := StaticGet(0); ok {
		t.Fatalf("StaticGet(0) should not be found")
	}
	if _, _, ok := StaticGet(StaticTableLen + 1); ok {
		t.Fatalf("StaticGet(%d) should not be found", StaticTableLen+1)
	}
}

func TestStaticSeekNameValue(t *testing.T) {
	idx, ok := StaticSeekNameValue(":method", "GET")
	if !ok || idx != 2 {
		t.Fatalf("StaticSeekNameValue(:method, GET) = %d, %v, want 2, true", idx, ok)
	}
	if _, ok := StaticSeekNameValue(":method", "PATCH"); ok {
		t.Fatalf("StaticSeekNameValue(:method, PATCH) unexpectedly found")
	}
}

func TestStaticSeekNameReturnsLowestIndex(t *testing.T) {
	// :status appears at indices 8-14; SeekName must return the lowest.
	idx, ok := StaticSeekName(":status")
	if !ok || idx != 8 {
		t.Fatalf("StaticSeekName(:status) = %d, %v, want 8, true", idx, ok)
	}
}

func TestStaticSeekNameUnknown(t *testing.T) {
	if _, ok := StaticSeekName("x-not-a-header"); ok {
		t.Fatalf("StaticSeekName(x-not-a-header) unexpectedly found")
	}
}
