package vm

import (
	"github.com/wasmi/wasmi/internal/compiler"
	"github.com/wasmi/wasmi/internal/trap"
	"github.com/wasmi/wasmi/wasm"
)

// execMisc dispatches one OpMisc instruction: the eight saturating
// truncation conversions, which behave like any other unary numeric op,
// and the bulk memory/table family, grounded directly on
// internal/compiler/misc.go's encoding of each sub-opcode's operand slots.
func (e *engine) execMisc(f *frame, instr *compiler.Instruction) TrapCode {
	switch instr.SubOp {
	case wasm.MiscI32TruncSatF32S, wasm.MiscI32TruncSatF32U, wasm.MiscI32TruncSatF64S, wasm.MiscI32TruncSatF64U,
		wasm.MiscI64TruncSatF32S, wasm.MiscI64TruncSatF32U, wasm.MiscI64TruncSatF64S, wasm.MiscI64TruncSatF64U:
		f.set64(instr.A, compiler.EvalSatUnary(instr.SubOp, f.get64(instr.B)))
		return TrapCode{}

	case wasm.MiscMemoryInit:
		return e.execMemoryInit(f, instr)
	case wasm.MiscDataDrop:
		e.inst.DropData(instr.MemIdx)
		return TrapCode{}
	case wasm.MiscMemoryCopy:
		return e.execMemoryCopy(f, instr)
	case wasm.MiscMemoryFill:
		return e.execMemoryFill(f, instr)
	case wasm.MiscTableInit:
		return e.execTableInit(f, instr)
	case wasm.MiscElemDrop:
		e.inst.DropElem(instr.MemIdx)
		return TrapCode{}
	case wasm.MiscTableCopy:
		return e.execTableCopy(f, instr)
	case wasm.MiscTableGrow:
		return e.execTableGrow(f, instr)
	case wasm.MiscTableSize:
		f.set64(instr.A, uint64(e.inst.Table(instr.MemIdx).Size()))
		return TrapCode{}
	case wasm.MiscTableFill:
		return e.execTableFill(f, instr)
	}
	return TrapCode{}
}

func (e *engine) execMemoryInit(f *frame, instr *compiler.Instruction) TrapCode {
	dst, src, n := uint32(f.get64(instr.A)), uint32(f.get64(instr.B)), uint32(f.get64(instr.C))
	data := e.inst.DataSegment(instr.MemIdx)
	mem := e.inst.Memory(instr.Idx2)

	if uint64(src)+uint64(n) > uint64(len(data)) {
		return trapOf(trap.MemoryOutOfBounds)
	}
	bytes := mem.Bytes()
	if uint64(dst)+uint64(n) > uint64(len(bytes)) {
		return trapOf(trap.MemoryOutOfBounds)
	}
	copy(bytes[dst:uint64(dst)+uint64(n)], data[src:uint64(src)+uint64(n)])
	return TrapCode{}
}

func (e *engine) execMemoryCopy(f *frame, instr *compiler.Instruction) TrapCode {
	dst, src, n := uint32(f.get64(instr.A)), uint32(f.get64(instr.B)), uint32(f.get64(instr.C))
	dstMem := e.inst.Memory(instr.MemIdx).Bytes()
	srcMem := e.inst.Memory(instr.Idx2).Bytes()

	if uint64(dst)+uint64(n) > uint64(len(dstMem)) || uint64(src)+uint64(n) > uint64(len(srcMem)) {
		return trapOf(trap.MemoryOutOfBounds)
	}
	srcCopy := make([]byte, n)
	copy(srcCopy, srcMem[src:uint64(src)+uint64(n)])
	copy(dstMem[dst:uint64(dst)+uint64(n)], srcCopy)
	return TrapCode{}
}

func (e *engine) execMemoryFill(f *frame, instr *compiler.Instruction) TrapCode {
	dst, val, n := uint32(f.get64(instr.A)), byte(f.get64(instr.B)), uint32(f.get64(instr.C))
	bytes := e.inst.Memory(instr.MemIdx).Bytes()
	if uint64(dst)+uint64(n) > uint64(len(bytes)) {
		return trapOf(trap.MemoryOutOfBounds)
	}
	span := bytes[dst : uint64(dst)+uint64(n)]
	for i := range span {
		span[i] = val
	}
	return TrapCode{}
}

func (e *engine) execTableInit(f *frame, instr *compiler.Instruction) TrapCode {
	dst, src, n := uint32(f.get64(instr.A)), uint32(f.get64(instr.B)), uint32(f.get64(instr.C))
	seg := e.inst.ElemSegment(instr.MemIdx)
	tbl := e.inst.Table(instr.Idx2)

	if uint64(src)+uint64(n) > uint64(len(seg)) {
		return trapOf(trap.TableOutOfBounds)
	}
	for k := uint32(0); k < n; k++ {
		if !tbl.Set(dst+k, seg[src+k]) {
			return trapOf(trap.TableOutOfBounds)
		}
	}
	return TrapCode{}
}

func (e *engine) execTableCopy(f *frame, instr *compiler.Instruction) TrapCode {
	dst, src, n := uint32(f.get64(instr.A)), uint32(f.get64(instr.B)), uint32(f.get64(instr.C))
	dstTbl := e.inst.Table(instr.MemIdx)
	srcTbl := e.inst.Table(instr.Idx2)

	if dstTbl == srcTbl {
		if !dstTbl.CopyWithin(dst, src, n) {
			return trapOf(trap.TableOutOfBounds)
		}
		return TrapCode{}
	}
	vals := make([]uint64, n)
	for k := uint32(0); k < n; k++ {
		v, ok := srcTbl.Get(src + k)
		if !ok {
			return trapOf(trap.TableOutOfBounds)
		}
		vals[k] = v
	}
	for k := uint32(0); k < n; k++ {
		if !dstTbl.Set(dst+k, vals[k]) {
			return trapOf(trap.TableOutOfBounds)
		}
	}
	return TrapCode{}
}

func (e *engine) execTableGrow(f *frame, instr *compiler.Instruction) TrapCode {
	val, n := f.get64(instr.B), uint32(f.get64(instr.C))
	old, ok := e.inst.Table(instr.MemIdx).Grow(n, val)
	if !ok {
		f.set64(instr.A, uint64(uint32(0xFFFFFFFF)))
		return TrapCode{}
	}
	f.set64(instr.A, uint64(old))
	return TrapCode{}
}

func (e *engine) execTableFill(f *frame, instr *compiler.Instruction) TrapCode {
	dst, val, n := uint32(f.get64(instr.A)), f.get64(instr.B), uint32(f.get64(instr.C))
	if !e.inst.Table(instr.MemIdx).Fill(dst, n, val) {
		return trapOf(trap.TableOutOfBounds)
	}
	return TrapCode{}
}
