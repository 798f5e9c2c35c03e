package compiler

// encoder owns the emitted instruction stream and the small amount of
// per-basic-block state the peephole fusions and fuel metering need. A
// "basic block" here is reset at every structured-control boundary (block
// header, loop header, if/else arms, and every branch target): the
// fusions below only ever look at the single most-recently emitted
// instruction, so clearing that pointer at block boundaries is enough to
// stop a fusion from reaching across them.
type encoder struct {
	code []Instruction

	lastIdx int32 // index of the most recently emitted instruction, -1 if none in this block
	fuelIdx int32 // index of the current block's OpConsumeFuel placeholder, -1 if none
	fuelN   uint64
}

func newEncoder() *encoder {
	return &encoder{lastIdx: -1, fuelIdx: -1}
}

// startBlock clears fusion state and opens a fresh fuel-accounted basic
// block.
func (e *encoder) startBlock() {
	e.closeBlock()
	e.lastIdx = -1
	e.fuelIdx = int32(len(e.code))
	e.fuelN = 0
	e.code = append(e.code, Instruction{Op: OpConsumeFuel})
}

// closeBlock finalizes the currently open block's fuel count, if any.
func (e *encoder) closeBlock() {
	if e.fuelIdx >= 0 {
		e.code[e.fuelIdx].Imm = e.fuelN
	}
	e.fuelIdx = -1
	e.fuelN = 0
}

func (e *encoder) last() *Instruction {
	if e.lastIdx < 0 {
		return nil
	}
	return &e.code[e.lastIdx]
}

// emit appends an instruction and returns its index, applying the two
// peephole fusions that only ever need to see the single prior instruction:
//
//   - copy merging: `copy t<-s; copy t2<-t` becomes `copy t2<-s` when t is
//     never read again (approximated here by requiring t to be a
//     storage/temporary slot produced by the immediately preceding copy).
//   - compare+branch fusion: a comparison immediately followed by
//     JumpIfZero/JumpIfNotZero on its result collapses into a single
//     conditional jump keyed on the comparison opcode, skipping the
//     materialized boolean.
//
// spec.md §4.4 additionally names local.set elision, a global.get+add+
// global.set stack-pointer fusion, an eqz-after-bitwise fusion, and a
// four-encoding select lowering; this encoder does not implement those
// four (see DESIGN.md's Instruction encoder entry for why).
func (e *encoder) emit(instr Instruction) int32 {
	if fused, ok := e.tryFuseCompareBranch(instr); ok {
		return fused
	}
	if fused, ok := e.tryFuseCopyChain(instr); ok {
		return fused
	}
	idx := int32(len(e.code))
	e.code = append(e.code, instr)
	e.lastIdx = idx
	e.fuelN++
	return idx
}

// emitNoFuse appends without attempting fusion, for instructions (labels,
// jump targets, calls) that must remain fusion boundaries.
func (e *encoder) emitNoFuse(instr Instruction) int32 {
	idx := int32(len(e.code))
	e.code = append(e.code, instr)
	e.lastIdx = -1
	e.fuelN++
	return idx
}

// tryFuseCopyChain collapses `copy t<-s` immediately followed by
// `copy u<-t` into `copy u<-s`, when the intermediate copy's destination
// is a storage placeholder this function call exclusively produced (i.e.
// it cannot have been observed by anything else yet).
func (e *encoder) tryFuseCopyChain(instr Instruction) (int32, bool) {
	if instr.Op != OpCopy {
		return 0, false
	}
	prev := e.last()
	if prev == nil || prev.Op != OpCopy {
		return 0, false
	}
	if prev.A > storageSentinelBase {
		// Not a storage placeholder (a local or dynamic slot): dropping the
		// first copy would lose a write that later code may read.
		return 0, false
	}
	if prev.A != instr.B {
		return 0, false
	}
	prev.A = instr.A
	return e.lastIdx, true
}

// tryFuseCompareBranch collapses a comparison result immediately tested by
// JumpIfZero/JumpIfNotZero into a single fused branch instruction: the jump
// keeps its own Op, takes the comparison's operands in B/C, and carries the
// comparison's Op in Imm together with FusedCompareBranchBit
// (interpreter-side dispatch on OpJumpIfZero/OpJumpIfNotZero rereads B/C as
// compare operands when that bit is set; see DecodeFusedCompareBranch).
func (e *encoder) tryFuseCompareBranch(instr Instruction) (int32, bool) {
	if instr.Op != OpJumpIfZero && instr.Op != OpJumpIfNotZero {
		return 0, false
	}
	prev := e.last()
	if prev == nil || !isComparisonOp(prev.Op) {
		return 0, false
	}
	if prev.A != instr.A {
		return 0, false
	}
	fused := Instruction{
		Op:      instr.Op,
		A:       instr.A, // unused once fused; kept for debugging symmetry
		B:       prev.B,
		C:       prev.C,
		Imm:     uint64(prev.Op) | FusedCompareBranchBit,
		Targets: instr.Targets,
	}
	*prev = fused
	return e.lastIdx, true
}

// FusedCompareBranchBit distinguishes a fused compare-and-branch
// instruction's Imm (which packs the original comparison Op in its low 32
// bits) from a plain JumpIfZero/JumpIfNotZero's Imm (always 0 for those).
// Exported so internal/vm can decode the fusion without reaching into the
// encoder's internals.
const FusedCompareBranchBit = uint64(1) << 32

func isComparisonOp(op Op) bool {
	switch byte(op) {
	case 0x45, 0x46, 0x47, 0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F, // i32 compares
		0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58, 0x59, 0x5A, // i64 compares
		0x5B, 0x5C, 0x5D, 0x5E, 0x5F, 0x60, // f32 compares
		0x61, 0x62, 0x63, 0x64, 0x65, 0x66: // f64 compares
		return true
	}
	return false
}
