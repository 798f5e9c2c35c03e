package store

import "github.com/wasmi/wasmi/wasm"

// Table is one instantiated table. Elements are stored as plain 64-bit
// words using the same null-safe encoding as every other reference value
// that flows through the interpreter's untyped register file: 0 means
// null, anything else is a function index plus one (as written by ref.func
// in internal/vm and by this package's init-expression and element-segment
// setup). A table never needs to know whether its element type is funcref
// or externref at this layer -- both are opaque words to it.
type Table struct {
	elemType wasm.ValType
	elems    []uint64
	max      uint64
	hasMax   bool
}

// NewTable allocates a table of min entries, all null, bounded by max when
// hasMax is set.
func NewTable(elemType wasm.ValType, min uint64, max uint64, hasMax bool) *Table {
	return &Table{
		elemType: elemType,
		elems:    make([]uint64, min),
		max:      max,
		hasMax:   hasMax,
	}
}

func (t *Table) ElemType() wasm.ValType { return t.elemType }

// Size reports the table's current entry count.
func (t *Table) Size() uint32 { return uint32(len(t.elems)) }

// Get reads entry i, reporting false if i is out of bounds.
func (t *Table) Get(i uint32) (uint64, bool) {
	if uint64(i) >= uint64(len(t.elems)) {
		return 0, false
	}
	return t.elems[i], true
}

// Set writes entry i, reporting false if i is out of bounds.
func (t *Table) Set(i uint32, v uint64) bool {
	if uint64(i) >= uint64(len(t.elems)) {
		return false
	}
	t.elems[i] = v
	return true
}

// Grow extends the table by delta entries, each initialized to fill,
// returning the size before growth and whether the growth succeeded.
func (t *Table) Grow(delta uint32, fill uint64) (old uint32, ok bool) {
	old = t.Size()
	next := uint64(old) + uint64(delta)
	if t.hasMax && next > t.max {
		return old, false
	}
	if next > 1<<32-1 {
		return old, false
	}
	grown := make([]uint64, next)
	copy(grown, t.elems)
	for i := uint64(old); i < next; i++ {
		grown[i] = fill
	}
	t.elems = grown
	return old, true
}

// Fill writes val into [i, i+n), reporting false if the span overruns the
// table.
func (t *Table) Fill(i, n uint32, val uint64) bool {
	if uint64(i)+uint64(n) > uint64(len(t.elems)) {
		return false
	}
	for k := uint32(0); k < n; k++ {
		t.elems[i+k] = val
	}
	return true
}

// CopyWithin copies n entries from src to dst within t, honoring
// overlapping ranges the way memmove does.
func (t *Table) CopyWithin(dst, src, n uint32) bool {
	if uint64(dst)+uint64(n) > uint64(len(t.elems)) || uint64(src)+uint64(n) > uint64(len(t.elems)) {
		return false
	}
	copy(t.elems[dst:uint64(dst)+uint64(n)], t.elems[src:uint64(src)+uint64(n)])
	return true
}
