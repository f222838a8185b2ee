package hpack

// Encoder holds the dynamic table state for one direction of one
// connection and turns Fields into wire bytes.
type Encoder struct {
	dyn          *DynamicTable
	tableSize    int // last size communicated to the peer via a size update
	pendingUpdate bool
}

// NewEncoder builds an Encoder with the given initial dynamic table size.
func NewEncoder(tableSize int) *Encoder {
	return &Encoder{
		dyn:       NewDynamicTable(tableSize),
		tableSize: tableSize,
	}
}

// DynamicTable exposes the underlying table, mainly for diagnostics/tests.
func (e *Encoder) DynamicTable() *DynamicTable { return e.dyn }

// SetMaxTableSize changes the encoder's local dynamic table size limit.
// Per this implementation's required deviation from a bare RFC minimum,
// a Dynamic Table Size Update is always queued to inform the peer,
// instead of only updating local bookkeeping silently.
func (e *Encoder) SetMaxTableSize(n int) {
	if n == e.tableSize {
		return
	}
	e.tableSize = n
	e.dyn.UpdateCapacity(n)
	e.pendingUpdate = true
}

// AppendField encodes f as an HPACK representation, appending it to dst.
// f.Indexing() picks the representation when no indexed name+value hit
// is available: PreferIndex inserts into the dynamic table (the default),
// PreferNotIndex emits a Literal Header Field without Indexing that
// leaves the table untouched, and NeverIndex does the same but also sets
// the bit forbidding any re-encoding hop from indexing the field either.
func (e *Encoder) AppendField(dst []byte, f *Field) []byte {
	if e.pendingUpdate {
		dst = AppendInt(dst, uint64(e.tableSize), 5, maskTableSizeUpdate)
		e.pendingUpdate = false
	}

	name, value := f.Key(), f.Value()

	if idx, ok := StaticSeekNameValue(name, value); ok {
		return AppendInt(dst, idx, 7, maskIndexed)
	}
	if idx, ok := e.dyn.SeekByNameValue(name, value); ok {
		return AppendInt(dst, idx+StaticTableLen, 7, maskIndexed)
	}

	switch f.Indexing() {
	case NeverIndex:
		return e.appendLiteral(dst, name, value, 4, maskLitNeverIndex, false)
	case PreferNotIndex:
		return e.appendLiteral(dst, name, value, 4, 0, false)
	}

	if idx, ok := StaticSeekName(name); ok {
		dst = AppendInt(dst, idx, 6, maskLitIncremental)
		dst = AppendString(dst, value)
		e.dyn.Prepend(name, value)
		return dst
	}
	if idx, ok := e.dyn.SeekByName(name); ok {
		dst = AppendInt(dst, idx+StaticTableLen, 6, maskLitIncremental)
		dst = AppendString(dst, value)
		e.dyn.Prepend(name, value)
		return dst
	}

	dst = AppendInt(dst, 0, 6, maskLitIncremental)
	dst = AppendString(dst, name)
	dst = AppendString(dst, value)
	e.dyn.Prepend(name, value)
	return dst
}

// appendLiteral writes a literal representation using an explicit name
// index when one is available, falling back to a literal name.
func (e *Encoder) appendLiteral(dst []byte, name, value string, prefixBits int, flag byte, index bool) []byte {
	if idx, ok := StaticSeekName(name); ok {
		dst = AppendInt(dst, idx, prefixBits, flag)
	} else if idx, ok := e.dyn.SeekByName(name); ok {
		dst = AppendInt(dst, idx+StaticTableLen, prefixBits, flag)
	} else {
		dst = AppendInt(dst, 0, prefixBits, flag)
		dst = AppendString(dst, name)
	}
	dst = AppendString(dst, value)
	if index {
		e.dyn.Prepend(name, value)
	}
	return dst
}
