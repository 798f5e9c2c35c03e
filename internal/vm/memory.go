package vm

import (
	"encoding/binary"

	"github.com/wasmi/wasmi/internal/compiler"
	"github.com/wasmi/wasmi/internal/trap"
	"github.com/wasmi/wasmi/wasm"
)

// execNumericOrMemory dispatches every Op that reuses its Wasm opcode byte
// directly: single-instruction loads and stores, memory.size/memory.grow,
// table.get/table.set, and the full numeric/comparison/conversion family.
// This mirrors compiler.visitNumericOrMemory's own classification so the
// two sides of the translate/execute boundary never drift apart.
func (e *engine) execNumericOrMemory(f *frame, instr *compiler.Instruction) TrapCode {
	op := byte(instr.Op)

	if compiler.IsLoadOp(op) {
		return e.execLoad(f, instr, op)
	}
	if compiler.IsStoreOp(op) {
		return e.execStore(f, instr, op)
	}

	switch op {
	case wasm.OpMemorySize:
		f.set64(instr.A, uint64(e.inst.Memory(instr.MemIdx).Pages()))
		return TrapCode{}

	case wasm.OpMemoryGrow:
		old, ok := e.inst.Memory(instr.MemIdx).Grow(uint32(f.get64(instr.B)))
		if !ok {
			f.set64(instr.A, uint64(uint32(int32(-1))))
			return TrapCode{}
		}
		f.set64(instr.A, uint64(old))
		return TrapCode{}

	case wasm.OpTableGet:
		tbl := e.inst.Table(uint32(instr.Imm))
		v, ok := tbl.Get(uint32(f.get64(instr.B)))
		if !ok {
			return trapOf(trap.TableOutOfBounds)
		}
		f.set64(instr.A, v)
		return TrapCode{}

	case wasm.OpTableSet:
		tbl := e.inst.Table(uint32(instr.Imm))
		if !tbl.Set(uint32(f.get64(instr.A)), f.get64(instr.B)) {
			return trapOf(trap.TableOutOfBounds)
		}
		return TrapCode{}
	}

	if compiler.NumericArity(op) == 1 {
		v, tr := compiler.EvalUnary(op, f.get64(instr.B))
		if tr != trap.None {
			return trapOf(tr)
		}
		f.set64(instr.A, v)
		return TrapCode{}
	}
	v, tr := compiler.EvalBinary(op, f.get64(instr.B), f.get64(instr.C))
	if tr != trap.None {
		return trapOf(tr)
	}
	f.set64(instr.A, v)
	return TrapCode{}
}

// effectiveAddr adds a load/store's static offset immediate to its dynamic
// pointer operand, reporting a trap rather than wrapping on overflow: a
// 32-bit address plus a 32-bit offset can exceed uint32 range well before
// it would exceed the actual memory size.
func effectiveAddr(ptr uint32, offset uint64, width uint64, memLen int) (uint64, bool) {
	end := uint64(ptr) + offset + width
	if end > uint64(memLen) {
		return 0, false
	}
	return uint64(ptr) + offset, true
}

func (e *engine) execLoad(f *frame, instr *compiler.Instruction, op byte) TrapCode {
	mem := e.inst.Memory(instr.MemIdx)
	bytes := mem.Bytes()
	ptr := uint32(f.get64(instr.B))

	width := loadWidth(op)
	addr, ok := effectiveAddr(ptr, instr.Imm, width, len(bytes))
	if !ok {
		return trapOf(trap.MemoryOutOfBounds)
	}
	b := bytes[addr : addr+width]

	var v uint64
	switch op {
	case wasm.OpI32Load, wasm.OpF32Load:
		v = uint64(binary.LittleEndian.Uint32(b))
	case wasm.OpI64Load, wasm.OpF64Load:
		v = binary.LittleEndian.Uint64(b)
	case wasm.OpI32Load8S:
		v = uint64(uint32(int32(int8(b[0]))))
	case wasm.OpI32Load8U:
		v = uint64(b[0])
	case wasm.OpI32Load16S:
		v = uint64(uint32(int32(int16(binary.LittleEndian.Uint16(b)))))
	case wasm.OpI32Load16U:
		v = uint64(binary.LittleEndian.Uint16(b))
	case wasm.OpI64Load8S:
		v = uint64(int64(int8(b[0])))
	case wasm.OpI64Load8U:
		v = uint64(b[0])
	case wasm.OpI64Load16S:
		v = uint64(int64(int16(binary.LittleEndian.Uint16(b))))
	case wasm.OpI64Load16U:
		v = uint64(binary.LittleEndian.Uint16(b))
	case wasm.OpI64Load32S:
		v = uint64(int64(int32(binary.LittleEndian.Uint32(b))))
	case wasm.OpI64Load32U:
		v = uint64(binary.LittleEndian.Uint32(b))
	}
	f.set64(instr.A, v)
	return TrapCode{}
}

func (e *engine) execStore(f *frame, instr *compiler.Instruction, op byte) TrapCode {
	mem := e.inst.Memory(instr.MemIdx)
	bytes := mem.Bytes()
	ptr := uint32(f.get64(instr.A))
	val := f.get64(instr.B)

	width := storeWidth(op)
	addr, ok := effectiveAddr(ptr, instr.Imm, width, len(bytes))
	if !ok {
		return trapOf(trap.MemoryOutOfBounds)
	}
	b := bytes[addr : addr+width]

	switch op {
	case wasm.OpI32Store, wasm.OpF32Store:
		binary.LittleEndian.PutUint32(b, uint32(val))
	case wasm.OpI64Store, wasm.OpF64Store:
		binary.LittleEndian.PutUint64(b, val)
	case wasm.OpI32Store8, wasm.OpI64Store8:
		b[0] = byte(val)
	case wasm.OpI32Store16, wasm.OpI64Store16:
		binary.LittleEndian.PutUint16(b, uint16(val))
	case wasm.OpI64Store32:
		binary.LittleEndian.PutUint32(b, uint32(val))
	}
	return TrapCode{}
}

func loadWidth(op byte) uint64 {
	switch op {
	case wasm.OpI32Load, wasm.OpF32Load, wasm.OpI64Load32S, wasm.OpI64Load32U:
		return 4
	case wasm.OpI64Load, wasm.OpF64Load:
		return 8
	case wasm.OpI32Load16S, wasm.OpI32Load16U, wasm.OpI64Load16S, wasm.OpI64Load16U:
		return 2
	default: // OpI32Load8S/U, OpI64Load8S/U
		return 1
	}
}

func storeWidth(op byte) uint64 {
	switch op {
	case wasm.OpI32Store, wasm.OpF32Store, wasm.OpI64Store32:
		return 4
	case wasm.OpI64Store, wasm.OpF64Store:
		return 8
	case wasm.OpI32Store16, wasm.OpI64Store16:
		return 2
	default: // OpI32Store8, OpI64Store8
		return 1
	}
}
