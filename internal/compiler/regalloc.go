package compiler

import "github.com/wasmi/wasmi/internal/werr"

// storageSentinelBase marks the start of the temporary numbering space used
// for "storage" slots -- registers whose lifetime crosses a merge point and
// so can't simply ride the push/pop bump pointer of the dynamic region.
// Storage slots are handed out going downward from this sentinel during
// Alloc and only get their real, contiguous slot number during Defrag, once
// the dynamic region's final high-water mark is known. This constant is far
// enough from zero that it can never collide with a genuine constant-pool
// index (those stay within a few thousand of -1 for any realistic
// function).
const storageSentinelBase int32 = -1_000_000

const maxRegisters = 1 << 15 // slot indices are encoded in 16 signed bits

// regAlloc implements the three-phase allocator: Init fixes the locals
// region, Alloc hands out dynamic (stack-discipline) and storage slots as
// the function is walked once, and Defrag computes the final contiguous
// layout and rewrites every storage placeholder in the emitted code.
type regAlloc struct {
	numLocals int
	top       int32 // bump pointer for the dynamic region, starts at numLocals
	maxTop    int32

	storageLive  int
	storageFree  []int32 // freed storage handles available for reuse
	storageCount int

	v128 map[int32]bool // set of dynamic/storage slots known to hold v128 values

	constPool  []uint64
	constIndex map[uint64]int32

	v128Pool  [][16]byte
	v128Index map[[16]byte]int32
}

func newRegAlloc(numLocals int) *regAlloc {
	return &regAlloc{
		numLocals:  numLocals,
		top:        int32(numLocals),
		maxTop:     int32(numLocals),
		v128:       make(map[int32]bool),
		constIndex: make(map[uint64]int32),
		v128Index:  make(map[[16]byte]int32),
	}
}

// Push allocates the next dynamic slot (stack discipline: callers push in
// the same order they'll pop).
func (r *regAlloc) Push(isV128 bool) int32 {
	s := r.top
	r.top++
	if r.top > r.maxTop {
		r.maxTop = r.top
	}
	if isV128 {
		r.v128[s] = true
	}
	return s
}

// Pop releases n dynamic slots most recently pushed.
func (r *regAlloc) Pop(n int32) {
	r.top -= n
}

// Depth reports the current dynamic stack height above the locals region.
func (r *regAlloc) Depth() int32 { return r.top - int32(r.numLocals) }

// SetDepth resets the bump pointer, used when a branch target's stack
// height is known in advance (e.g. after an unreachable instruction, where
// the validated height along the taken path must be restored).
func (r *regAlloc) SetDepth(depth int32) { r.top = int32(r.numLocals) + depth }

// AllocStorage hands out a placeholder slot for a value that must survive
// past a structured-control merge point (e.g. a block result register).
// The placeholder is rewritten to a real slot number by Defrag.
func (r *regAlloc) AllocStorage(isV128 bool) int32 {
	if len(r.storageFree) > 0 {
		h := r.storageFree[len(r.storageFree)-1]
		r.storageFree = r.storageFree[:len(r.storageFree)-1]
		if isV128 {
			r.v128[h] = true
		}
		return h
	}
	h := storageSentinelBase - int32(r.storageCount)
	r.storageCount++
	if isV128 {
		r.v128[h] = true
	}
	return h
}

// FreeStorage returns a storage placeholder to the free list once its
// value's last use has been emitted.
func (r *regAlloc) FreeStorage(h int32) {
	r.storageFree = append(r.storageFree, h)
}

// ConstSlot returns the (negative) slot index for a scalar bit-pattern
// constant, interning repeated values.
func (r *regAlloc) ConstSlot(bits uint64) int32 {
	if idx, ok := r.constIndex[bits]; ok {
		return idx
	}
	n := int32(len(r.constPool))
	r.constPool = append(r.constPool, bits)
	slot := -(n + 1)
	r.constIndex[bits] = slot
	return slot
}

// V128ConstSlot returns the slot index for a v128 constant, interning
// repeated values. During Alloc the returned index is a placeholder in a
// disjoint namespace keyed by value; Defrag remaps the n-th v128 constant to
// V128ConstBase-n, i.e. at or below the function's V128ConstBase.
func (r *regAlloc) V128ConstSlot(v [16]byte) int32 {
	if idx, ok := r.v128Index[v]; ok {
		return idx
	}
	n := int32(len(r.v128Pool))
	r.v128Pool = append(r.v128Pool, v)
	// Use a distinct small negative namespace during Alloc; Defrag below
	// v128ConstBase remaps these the same way it remaps storage handles.
	slot := storageSentinelBase - 1_000_000 - n
	r.v128Index[v] = slot
	return slot
}

// defragResult is the finalized layout Defrag computes.
type defragResult struct {
	numRegisters  int
	v128ConstBase int32
	remap         map[int32]int32 // storage/v128-const placeholder -> final slot
	isV128        []bool          // per final dynamic slot (0..numRegisters-1)
}

// Defrag computes the final contiguous register layout: the dynamic region
// occupies [0, maxTop), followed immediately by the storage region
// [maxTop, maxTop+storageCount). It returns the remap table the caller
// (translate.go) applies to every emitted Instruction's operand fields.
func (r *regAlloc) Defrag() (*defragResult, error) {
	total := int(r.maxTop) + r.storageCount
	if total > maxRegisters {
		return nil, werr.TooManyRegisters(
			"function needs more than 32768 registers")
	}

	remap := make(map[int32]int32, r.storageCount+len(r.v128Pool))
	for i := 0; i < r.storageCount; i++ {
		placeholder := storageSentinelBase - int32(i)
		remap[placeholder] = r.maxTop + int32(i)
	}

	isV128 := make([]bool, total)
	for slot := range r.v128 {
		if slot >= 0 {
			isV128[slot] = true
			continue
		}
		if final, ok := remap[slot]; ok {
			isV128[final] = true
		}
	}

	v128ConstBase := int32(-(len(r.constPool) + 1))
	for i := range r.v128Pool {
		remap[storageSentinelBase-1_000_000-int32(i)] = v128ConstBase - int32(i)
	}

	return &defragResult{
		numRegisters:  total,
		v128ConstBase: v128ConstBase,
		remap:         remap,
		isV128:        isV128,
	}, nil
}

// remapSlot applies a Defrag remap to a single operand, leaving ordinary
// dynamic slots, real constant-pool indices, and the zero/unused sentinel
// untouched.
func remapSlot(remap map[int32]int32, s int32) int32 {
	if final, ok := remap[s]; ok {
		return final
	}
	return s
}
