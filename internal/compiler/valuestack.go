package compiler

import "github.com/wasmi/wasmi/wasm"

// vsEntry is one value-stack entry. The common case carries an already-
// resolved register or constant slot; a local.get instead defers
// materialization by recording which local it names, so a local value can
// be read straight out of its permanent slot without a copy unless an
// intervening local.set/tee to the same index forces it to be snapshotted
// first (see materializeLocal).
type vsEntry struct {
	slot        int32
	vt          wasm.ValType
	isDynamic   bool // true if slot was handed out by regAlloc.Push and must be released on pop
	isLocal     bool
	localIdx    int32
	isImmediate bool // true if slot indexes a function-local constant-pool entry
}

type valueStack struct {
	entries []vsEntry
}

func (s *valueStack) push(e vsEntry) { s.entries = append(s.entries, e) }

func (s *valueStack) pop() vsEntry {
	e := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return e
}

func (s *valueStack) peek() *vsEntry { return &s.entries[len(s.entries)-1] }

func (s *valueStack) height() int32 { return int32(len(s.entries)) }

func (s *valueStack) truncate(height int32) { s.entries = s.entries[:height] }

// materializeLocal rewrites every outstanding deferred reference to local
// idx into a snapshot in a fresh register, emitting the copy now, because
// the local's slot is about to be overwritten by a set/tee.
func (c *compState) materializeLocal(idx int32) {
	for i := range c.stack.entries {
		e := &c.stack.entries[i]
		if e.isLocal && e.localIdx == idx {
			v128 := isV128Type(e.vt)
			dst := c.regs.Push(v128)
			c.enc.emit(Instruction{Op: OpCopy, A: dst, B: e.slot})
			e.isLocal = false
			e.isDynamic = true
			e.slot = dst
		}
	}
}

// releaseEntry frees the dynamic register (if any) an entry occupies.
func (c *compState) releaseEntry(e vsEntry) {
	if e.isDynamic {
		c.regs.Pop(1)
	}
}

// preserveAllLocals materializes every outstanding deferred local reference
// on the value stack into a fresh register snapshot. Called before any
// structured-control boundary (block/loop/if) and before a call, so a
// local's permanent slot is never read across a point where the allocator's
// bookkeeping or a callee could observe it in a stale or ambiguous state.
func (c *compState) preserveAllLocals() {
	for i := range c.stack.entries {
		e := &c.stack.entries[i]
		if e.isLocal {
			v128 := isV128Type(e.vt)
			dst := c.regs.Push(v128)
			c.enc.emit(Instruction{Op: OpCopy, A: dst, B: e.slot})
			e.isLocal = false
			e.isDynamic = true
			e.slot = dst
		}
	}
}

// constBits returns the interned bit pattern for a genuine constant-pool
// slot (vsEntry.isImmediate == true). ConstSlot encodes slot = -(n+1) for
// pool index n, so recovering n is a direct arithmetic inverse -- no
// reverse index needed.
func (c *compState) constBits(slot int32) uint64 {
	return c.regs.constPool[-slot-1]
}

// branchParamEntries reads (without popping) the top n value-stack entries,
// the values a branch out of the current position would carry to its
// target. Reading rather than popping matters for br_if and br_table: the
// not-taken path must leave the stack exactly as it found it.
func (c *compState) branchParamEntries(n int) []vsEntry {
	h := c.stack.height()
	out := make([]vsEntry, n)
	copy(out, c.stack.entries[h-int32(n):])
	return out
}
