package hpack

import "sync"

// Indexing selects which of the three HPACK literal representations
// (RFC 7541 §6.2) an encoder uses for a field that doesn't already hit
// the static or dynamic table by name+value.
type Indexing int

const (
	// PreferIndex encodes a Literal Header Field with Incremental
	// Indexing when no smaller indexed representation is available,
	// adding the field to the dynamic table.
	PreferIndex Indexing = iota
	// PreferNotIndex encodes a Literal Header Field without Indexing:
	// a one-off representation that does not touch the dynamic table,
	// but that intermediaries may still re-encode however they choose.
	PreferNotIndex
	// NeverIndex encodes a Literal Header Field Never Indexed: the same
	// wire shape as PreferNotIndex plus a bit telling every hop along
	// the path, including re-encoding proxies, never to index the field.
	NeverIndex
)

// Field is a decoded or to-be-encoded header field: a name/value pair plus
// the indexing hint (RFC 7541 §6.2) an encoder should follow when no
// indexed representation already covers it.
type Field struct {
	key, value []byte
	indexing   Indexing
}

// String renders the field the way a log line would: "name: value".
func (f *Field) String() string {
	return string(f.AppendBytes(nil))
}

var fieldPool = sync.Pool{
	New: func() interface{} { return &Field{} },
}

// AcquireField gets a Field from the pool.
func AcquireField() *Field { return fieldPool.Get().(*Field) }

// ReleaseField resets and returns a Field to the pool.
func ReleaseField(f *Field) {
	f.Reset()
	fieldPool.Put(f)
}

// Reset clears a Field for reuse.
func (f *Field) Reset() {
	f.key = f.key[:0]
	f.value = f.value[:0]
	f.indexing = PreferIndex
}

// Empty reports whether f carries neither a key nor a value.
func (f *Field) Empty() bool {
	return len(f.key) == 0 && len(f.value) == 0
}

// AppendBytes appends "key: value" to dst and returns the extended slice.
func (f *Field) AppendBytes(dst []byte) []byte {
	dst = append(dst, f.key...)
	dst = append(dst, ':', ' ')
	dst = append(dst, f.value...)
	return dst
}

// Size is the RFC 7541 §4.1 entry size: name octets + value octets + 32.
func (f *Field) Size() int {
	return len(f.key) + len(f.value) + 32
}

// CopyTo duplicates f's contents into other.
func (f *Field) CopyTo(other *Field) {
	other.key = append(other.key[:0], f.key...)
	other.value = append(other.value[:0], f.value...)
	other.indexing = f.indexing
}

func (f *Field) Set(k, v string)         { f.SetKey(k); f.SetValue(v) }
func (f *Field) SetBytes(k, v []byte)    { f.SetKeyBytes(k); f.SetValueBytes(v) }
func (f *Field) Key() string             { return string(f.key) }
func (f *Field) Value() string           { return string(f.value) }
func (f *Field) KeyBytes() []byte        { return f.key }
func (f *Field) ValueBytes() []byte      { return f.value }
func (f *Field) SetKey(key string)       { f.key = append(f.key[:0], key...) }
func (f *Field) SetValue(value string)   { f.value = append(f.value[:0], value...) }
func (f *Field) SetKeyBytes(key []byte)  { f.key = append(f.key[:0], key...) }
func (f *Field) SetValueBytes(v []byte)  { f.value = append(f.value[:0], v...) }

// IsPseudo reports whether the field name is a pseudo-header (":method",
// ":path", ...).
func (f *Field) IsPseudo() bool {
	return len(f.key) > 0 && f.key[0] == ':'
}

// Indexing reports the field's current indexing hint.
func (f *Field) Indexing() Indexing { return f.indexing }

// SetIndexing sets the field's indexing hint, overriding whatever
// SetSensitive previously set.
func (f *Field) SetIndexing(ix Indexing) { f.indexing = ix }

// Sensitive reports whether the field was marked never-indexed.
func (f *Field) Sensitive() bool { return f.indexing == NeverIndex }

// SetSensitive marks or unmarks the field as never-indexed. Kept as a
// convenience over SetIndexing(NeverIndex) for the common cookie/auth-
// token case (RFC 7541 §7.1); unmarking falls back to PreferIndex.
func (f *Field) SetSensitive(v bool) {
	if v {
		f.indexing = NeverIndex
	} else if f.indexing == NeverIndex {
		f.indexing = PreferIndex
	}
}
