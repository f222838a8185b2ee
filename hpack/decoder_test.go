package hpack

import (
	"errors"
	"testing"
)

func decodeOne(t *testing.T, d *Decoder, b []byte) *Field {
	t.Helper()
	f := &Field{}
	rest, err := d.Next(f, b)
	if err != nil {
		t.Fatalf("Next(%#x) error: %v", b, err)
	}
	if len(rest) != 0 {
		t.Fatalf("Next(%#x) left %d unconsumed bytes", b, len(rest))
	}
	return f
}

func TestDecoderIndexedHeaderField(t *testing.T) {
	// RFC 7541 C.2.4: :method: GET, fully indexed.
	d := NewDecoder(4096)
	f := decodeOne(t, d, []byte{0x82})
	if f.Key() != ":method" || f.Value() != "GET" {
		t.Fatalf("got %q: %q, want :method: GET", f.Key(), f.Value())
	}
	if d.DynamicTable().Len() != 0 {
		t.Fatalf("indexed representation must not touch the dynamic table")
	}
}

func TestDecoderLiteralWithIncrementalIndexingNewName(t *testing.T) {
	// RFC 7541 C.2.1: custom-key: custom-header, new name, indexed.
	b := []byte{
		0x40,
		0x0a, 'c', 'u', 's', 't', 'o', 'm', '-', 'k', 'e', 'y',
		0x0d, 'c', 'u', 's', 't', 'o', 'm', '-', 'h', 'e', 'a', 'd', 'e', 'r',
	}
	d := NewDecoder(4096)
	f := decodeOne(t, d, b)
	if f.Key() != "custom-key" || f.Value() != "custom-header" {
		t.Fatalf("got %q: %q, want custom-key: custom-header", f.Key(), f.Value())
	}
	if d.DynamicTable().Len() != 1 {
		t.Fatalf("incremental indexing must insert into the dynamic table, Len() = %d", d.DynamicTable().Len())
	}
	name, value, ok := d.DynamicTable().Get(1)
	if !ok || name != "custom-key" || value != "custom-header" {
		t.Fatalf("dynamic table entry = %q: %q, %v", name, value, ok)
	}
}

func TestDecoderLiteralWithoutIndexingIndexedName(t *testing.T) {
	// RFC 7541 C.2.2: :path: /sample/path, indexed name (4), not indexed.
	b := []byte{
		0x04,
		0x0c, '/', 's', 'a', 'm', 'p', 'l', 'e', '/', 'p', 'a', 't', 'h',
	}
	d := NewDecoder(4096)
	f := decodeOne(t, d, b)
	if f.Key() != ":path" || f.Value() != "/sample/path" {
		t.Fatalf("got %q: %q, want :path: /sample/path", f.Key(), f.Value())
	}
	if d.DynamicTable().Len() != 0 {
		t.Fatalf("without-indexing representation must not touch the dynamic table")
	}
}

func TestDecoderLiteralNeverIndexedNewName(t *testing.T) {
	// RFC 7541 C.2.3: password: secret, new name, never indexed.
	b := []byte{
		0x10,
		0x08, 'p', 'a', 's', 's', 'w', 'o', 'r', 'd',
		0x06, 's', 'e', 'c', 'r', 'e', 't',
	}
	d := NewDecoder(4096)
	f := decodeOne(t, d, b)
	if f.Key() != "password" || f.Value() != "secret" {
		t.Fatalf("got %q: %q, want password: secret", f.Key(), f.Value())
	}
	if !f.Sensitive() {
		t.Fatalf("never-indexed field must be marked Sensitive")
	}
	if d.DynamicTable().Len() != 0 {
		t.Fatalf("never-indexed representation must not touch the dynamic table")
	}
}

func TestDecoderIndexOutOfRange(t *testing.T) {
	d := NewDecoder(4096)
	f := &Field{}
	// Index 62 with an empty dynamic table does not exist.
	if _, err := d.Next(f, []byte{0xbe}); err == nil {
		t.Fatalf("expected ErrIndexOutOfRange")
	}
}

func TestDecoderZeroIndexIsDistinctFromOutOfRange(t *testing.T) {
	d := NewDecoder(4096)
	f := &Field{}
	// 0x80: Indexed Header Field, index 0 — forbidden outright, not merely
	// out of range.
	_, err := d.Next(f, []byte{0x80})
	if err == nil {
		t.Fatalf("expected ErrZeroIndex")
	}
	if !errors.Is(err, ErrZeroIndex) {
		t.Fatalf("got %v, want ErrZeroIndex", err)
	}
	if errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("index 0 must not also satisfy ErrIndexOutOfRange")
	}
}

func TestDecoderTableSizeUpdateMustPrecedeFields(t *testing.T) {
	d := NewDecoder(4096)
	f := &Field{}
	// :method: GET (indexed) followed by a table size update: invalid.
	rest, err := d.Next(f, []byte{0x82, 0x20})
	if err != nil {
		t.Fatalf("first representation should decode cleanly, got %v", err)
	}
	_, err = d.Next(f, rest)
	if err == nil {
		t.Fatalf("expected error: table size update after a header field")
	}
}

func TestDecoderTableSizeUpdateRejectsAboveCeiling(t *testing.T) {
	d := NewDecoder(100)
	f := &Field{}
	// Encode a table size update requesting 4096, above the 100-byte ceiling.
	b := AppendInt(nil, 4096, 5, maskTableSizeUpdate)
	if _, err := d.Next(f, b); err == nil {
		t.Fatalf("expected error: table size update above SETTINGS ceiling")
	}
}

func TestDecoderSequentialBlockSharesTable(t *testing.T) {
	d := NewDecoder(4096)

	b1 := []byte{
		0x40,
		0x01, 'x',
		0x01, '1',
	}
	decodeOne(t, d, b1)
	d.Reset()

	// Second block references the entry the first block just inserted.
	f2 := decodeOne(t, d, []byte{0xbe})
	if f2.Key() != "x" || f2.Value() != "1" {
		t.Fatalf("dynamic table entry did not survive across blocks: got %q: %q", f2.Key(), f2.Value())
	}
}
