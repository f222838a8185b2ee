package hpack

import (
	"container/list"

	"github.com/cespare/xxhash/v2"
)

// DynamicEntry is one row of a DynamicTable. seq is a monotonically
// increasing sequence number assigned at insertion time; the HPACK wire
// index of an entry is derived from the distance between the table's
// newest seq and this one (see DynamicTable.Get).
type DynamicEntry struct {
	name, value string
	seq         uint64
}

func (e *DynamicEntry) size() int { return len(e.name) + len(e.value) + 32 }

// DynamicTable is the per-connection, per-direction HPACK dynamic table
// (RFC 7541 §2.3.2): a size-bounded FIFO with two extra lookup paths
// (by name, and by name+value) used to find candidates for the indexed
// and literal-with-name-reference representations.
//
// Grounded on the arena/cache-block design of the original Rust
// implementation's dynamic table: entries live in a doubly linked list in
// insertion order, oldest at the front, and are indexed by a digest of
// their name (and name+value) to avoid a linear scan on every lookup.
type DynamicTable struct {
	order    *list.List // *DynamicEntry, oldest at Front, newest at Back
	bySeq    map[uint64]*list.Element
	byName   map[uint64][]uint64 // xxhash(name) -> seq ids, oldest-first
	byNamVal map[uint64][]uint64 // xxhash(name+0+value) -> seq ids, oldest-first

	capacity int
	size     int
	nextSeq  uint64
}

// NewDynamicTable builds an empty dynamic table with the given maximum
// size in octets.
func NewDynamicTable(capacity int) *DynamicTable {
	return &DynamicTable{
		order:    list.New(),
		bySeq:    make(map[uint64]*list.Element),
		byName:   make(map[uint64][]uint64),
		byNamVal: make(map[uint64][]uint64),
		capacity: capacity,
		nextSeq:  1,
	}
}

// Len returns the number of live entries.
func (t *DynamicTable) Len() int { return t.order.Len() }

// Size returns the current total size in octets (RFC 7541 §4.1).
func (t *DynamicTable) Size() int { return t.size }

// Capacity returns the configured maximum size in octets.
func (t *DynamicTable) Capacity() int { return t.capacity }

func nameHash(name string) uint64 {
	return xxhash.Sum64String(name)
}

func nameValueHash(name, value string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(name)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(value)
	return d.Sum64()
}

// evictOldest removes the single oldest entry, unconditionally.
func (t *DynamicTable) evictOldest() {
	front := t.order.Front()
	if front == nil {
		return
	}
	e := front.Value.(*DynamicEntry)
	t.order.Remove(front)
	delete(t.bySeq, e.seq)
	t.size -= e.size()
	t.byName[nameHash(e.name)] = removeSeq(t.byName[nameHash(e.name)], e.seq)
	t.byNamVal[nameValueHash(e.name, e.value)] = removeSeq(t.byNamVal[nameValueHash(e.name, e.value)], e.seq)
}

func removeSeq(seqs []uint64, seq uint64) []uint64 {
	for i, s := range seqs {
		if s == seq {
			return append(seqs[:i], seqs[i+1:]...)
		}
	}
	return seqs
}

// makeRoom evicts the oldest entries until an entry of the given size
// would fit under capacity. If the entry alone exceeds capacity, every
// entry is evicted and makeRoom still returns false: the table ends up
// empty rather than holding a partially-fitting state.
func (t *DynamicTable) makeRoom(entrySize int) bool {
	if entrySize > t.capacity {
		for t.order.Len() > 0 {
			t.evictOldest()
		}
		return false
	}
	for t.size+entrySize > t.capacity {
		t.evictOldest()
	}
	return true
}

// UpdateCapacity changes the table's maximum size, evicting entries if the
// new capacity is smaller than the current size (RFC 7541 §4.2).
func (t *DynamicTable) UpdateCapacity(newCapacity int) {
	t.capacity = newCapacity
	t.makeRoom(0)
}

// Prepend inserts a new entry at the front of HPACK's logical numbering
// (the most-recently-added position), evicting older entries as needed.
// It reports whether the entry was actually inserted: a single entry
// whose own size exceeds the table's capacity is never inserted, and the
// whole table is emptied instead (RFC 7541 §4.4).
func (t *DynamicTable) Prepend(name, value string) (inserted bool) {
	e := &DynamicEntry{name: name, value: value}
	sz := e.size()
	if !t.makeRoom(sz) {
		return false
	}
	e.seq = t.nextSeq
	t.nextSeq++
	el := t.order.PushBack(e)
	t.bySeq[e.seq] = el
	t.size += sz

	nh := nameHash(name)
	t.byName[nh] = append(t.byName[nh], e.seq)
	nvh := nameValueHash(name, value)
	t.byNamVal[nvh] = append(t.byNamVal[nvh], e.seq)
	return true
}

// Get returns the entry at a 1-based dynamic-table index (1 = most
// recently inserted entry still live).
func (t *DynamicTable) Get(index uint64) (name, value string, ok bool) {
	if index < 1 || index > uint64(t.order.Len()) {
		return "", "", false
	}
	seq := t.nextSeq - index
	el, ok := t.bySeq[seq]
	if !ok {
		return "", "", false
	}
	e := el.Value.(*DynamicEntry)
	return e.name, e.value, true
}

// SeekByNameValue returns the dynamic index of the newest entry with an
// exact (name, value) match.
func (t *DynamicTable) SeekByNameValue(name, value string) (index uint64, ok bool) {
	seqs := t.byNamVal[nameValueHash(name, value)]
	for i := len(seqs) - 1; i >= 0; i-- {
		el, present := t.bySeq[seqs[i]]
		if !present {
			continue
		}
		e := el.Value.(*DynamicEntry)
		if e.name == name && e.value == value {
			return t.nextSeq - e.seq, true
		}
	}
	return 0, false
}

// SeekByName returns the dynamic index of the newest entry with a matching
// name, regardless of value.
func (t *DynamicTable) SeekByName(name string) (index uint64, ok bool) {
	seqs := t.byName[nameHash(name)]
	for i := len(seqs) - 1; i >= 0; i-- {
		el, present := t.bySeq[seqs[i]]
		if !present {
			continue
		}
		e := el.Value.(*DynamicEntry)
		if e.name == name {
			return t.nextSeq - e.seq, true
		}
	}
	return 0, false
}
