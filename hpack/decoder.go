package hpack

// Representation-selector bits, RFC 7541 §6.
const (
	maskIndexed        = 0x80 // 1xxxxxxx
	maskLitIncremental = 0x40 // 01xxxxxx
	maskTableSizeUpdate = 0x20 // 001xxxxx
	maskLitNeverIndex  = 0x10 // 0001xxxx
	// maskLitNoIndex (0000xxxx) is the fallthrough default.
)

// Decoder holds the dynamic table state for one direction of one
// connection and turns wire bytes into Fields.
type Decoder struct {
	dyn          *DynamicTable
	maxTableSize int  // the SETTINGS-derived ceiling a peer's update may not exceed
	sawField     bool // a non-update representation has been seen in the current block
}

// NewDecoder builds a Decoder with the given initial dynamic table size.
func NewDecoder(tableSize int) *Decoder {
	return &Decoder{
		dyn:          NewDynamicTable(tableSize),
		maxTableSize: tableSize,
	}
}

// Reset clears per-block state. Call it before decoding each new header
// block; the dynamic table itself persists across blocks as required by
// HPACK.
func (d *Decoder) Reset() {
	d.sawField = false
}

// SetMaxTableSize updates the ceiling the peer's Dynamic Table Size Update
// representations may not exceed, and shrinks the live table to it if
// needed. Called when the local SETTINGS_HEADER_TABLE_SIZE changes.
func (d *Decoder) SetMaxTableSize(n int) {
	d.maxTableSize = n
	if d.dyn.Capacity() > n {
		d.dyn.UpdateCapacity(n)
	}
}

// DynamicTable exposes the underlying table, mainly for diagnostics/tests.
func (d *Decoder) DynamicTable() *DynamicTable { return d.dyn }

// Next decodes a single header-field representation from the front of b,
// storing the result in f and returning the unconsumed remainder.
//
// For a Literal Header Field with Incremental Indexing, the field is
// inserted into the dynamic table before Next returns, matching RFC 7541's
// requirement that insertion happens as the representation is processed
// (so a self-referential index within the same block, naming the entry
// the block itself about to add, is a HPACK decoding error rather than
// something that could decode to the being-added value).
func (d *Decoder) Next(f *Field, b []byte) (rest []byte, err error) {
	if len(b) == 0 {
		return nil, wrap(ErrNeedMore)
	}
	first := b[0]

	switch {
	case first&maskIndexed != 0:
		d.sawField = true
		return d.decodeIndexed(f, b)

	case first&maskLitIncremental != 0:
		d.sawField = true
		return d.decodeLiteralRaw(f, b, 6, true)

	case first&maskTableSizeUpdate != 0:
		if d.sawField {
			return nil, wrap(ErrTableUpdateNotFirst)
		}
		return d.decodeTableSizeUpdate(b)

	case first&maskLitNeverIndex != 0:
		d.sawField = true
		rest, err := d.decodeLiteralRaw(f, b, 4, false)
		if err == nil {
			f.SetSensitive(true)
		}
		return rest, err

	default: // Literal Header Field without Indexing, 0000xxxx
		d.sawField = true
		return d.decodeLiteralRaw(f, b, 4, false)
	}
}

func (d *Decoder) decodeIndexed(f *Field, b []byte) ([]byte, error) {
	index, rest, err := ReadInt(b, 7)
	if err != nil {
		return nil, err
	}
	if index == 0 {
		return nil, wrap(ErrZeroIndex)
	}
	name, value, ok := d.lookup(index)
	if !ok {
		return nil, wrap(ErrIndexOutOfRange)
	}
	f.SetKey(name)
	f.SetValue(value)
	return rest, nil
}

// decodeLiteralRaw is the shared path for all three literal
// representations, which differ only in the prefix width and whether the
// decoded field is inserted into the dynamic table.
func (d *Decoder) decodeLiteralRaw(f *Field, b []byte, prefixBits int, index bool) ([]byte, error) {
	nameIdx, rest, err := ReadInt(b, prefixBits)
	if err != nil {
		return nil, err
	}

	var name string
	if nameIdx == 0 {
		name, rest, err = ReadString(rest)
		if err != nil {
			return nil, err
		}
	} else {
		var ok bool
		name, _, ok = d.lookup(nameIdx)
		if !ok {
			return nil, wrap(ErrIndexOutOfRange)
		}
	}

	value, rest, err := ReadString(rest)
	if err != nil {
		return nil, err
	}

	f.SetKey(name)
	f.SetValue(value)

	if index {
		// name and value may alias the caller's header-block buffer (see
		// ReadString); the table keeps its own copies.
		d.dyn.Prepend(string(f.KeyBytes()), string(f.ValueBytes()))
	}
	return rest, nil
}

func (d *Decoder) decodeTableSizeUpdate(b []byte) ([]byte, error) {
	n, rest, err := ReadInt(b, 5)
	if err != nil {
		return nil, err
	}
	if int(n) > d.maxTableSize {
		return nil, wrap(ErrIndexOutOfRange)
	}
	d.dyn.UpdateCapacity(int(n))
	return rest, nil
}

// lookup resolves a 1-based HPACK index: 1..StaticTableLen is the static
// table, StaticTableLen+1.. is the dynamic table.
func (d *Decoder) lookup(index uint64) (name, value string, ok bool) {
	if index <= StaticTableLen {
		return StaticGet(index)
	}
	return d.dyn.Get(index - StaticTableLen)
}
