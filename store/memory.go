package store

// PageSize is the fixed size of one WebAssembly linear-memory page.
const PageSize = 65536

// maxPages is the absolute ceiling the core spec imposes regardless of a
// memory type's own declared maximum (2^16 pages = 4GiB of address space).
const maxPages = 65536

// Memory is one instantiated linear memory: a byte slice that only ever
// grows, in whole-page steps, up to its declared (or absolute) maximum.
type Memory struct {
	data    []byte
	maxPages uint32
	hasMax  bool
}

// NewMemory allocates a memory of minPages pages, zero-filled, bounded by
// maxPages when hasMax is set.
func NewMemory(minPages uint32, max uint32, hasMax bool) *Memory {
	return &Memory{
		data:     make([]byte, uint64(minPages)*PageSize),
		maxPages: max,
		hasMax:   hasMax,
	}
}

// Bytes exposes the memory's backing array directly; callers doing bounds
// checking have already validated the access against Pages().
func (m *Memory) Bytes() []byte { return m.data }

// Pages reports the memory's current size in pages.
func (m *Memory) Pages() uint32 { return uint32(len(m.data) / PageSize) }

// Grow extends the memory by delta pages, returning the size before growth
// and whether the growth succeeded. A failed grow leaves the memory
// untouched, matching memory.grow's "return -1" contract one level up in
// the interpreter.
func (m *Memory) Grow(delta uint32) (old uint32, ok bool) {
	old = m.Pages()
	next := uint64(old) + uint64(delta)
	if next > maxPages {
		return old, false
	}
	if m.hasMax && next > uint64(m.maxPages) {
		return old, false
	}
	grown := make([]byte, next*PageSize)
	copy(grown, m.data)
	m.data = grown
	return old, true
}
