package compiler

import (
	"github.com/wasmi/wasmi/internal/trap"
	"github.com/wasmi/wasmi/wasm"
)

// visitNumericOrMemory handles every opcode not already special-cased in
// step: the numeric/comparison/conversion family (classifyNumeric) and the
// single-instruction memory loads and stores. Both share one shape: pop
// fixed operands, either fold (all-immediate) or emit one instruction and
// push a fresh dynamic result.
func (c *compState) visitNumericOrMemory(instr wasm.Instruction) error {
	if isLoadOp(instr.Opcode) {
		return c.visitLoad(instr)
	}
	if isStoreOp(instr.Opcode) {
		return c.visitStore(instr)
	}
	shape := classifyNumeric(instr.Opcode)
	if shape.arity == 1 {
		return c.visitUnary(instr.Opcode, shape.result)
	}
	return c.visitBinary(instr.Opcode, shape.result)
}

// visitUnary folds a constant operand at translate time; otherwise it emits
// a register-register unary instruction. Truncation-to-integer opcodes can
// trap even on a constant input, in which case the fold is replaced with a
// trapping instruction rather than silently producing a bogus value.
func (c *compState) visitUnary(op byte, result wasm.ValType) error {
	a := c.pop()
	if a.isImmediate {
		bits := c.constBits(a.slot)
		v, tr := EvalUnary(op, bits)
		c.releaseEntry(a)
		if tr != trap.None {
			dst := c.regs.Push(isV128Type(result))
			c.enc.emitNoFuse(Instruction{Op: OpUnreachable, Imm: uint64(tr)})
			c.topFrame().unreachable = true
			c.stack.push(vsEntry{slot: dst, vt: result, isDynamic: true})
			return nil
		}
		c.stack.push(vsEntry{slot: c.regs.ConstSlot(v), vt: result, isImmediate: true})
		return nil
	}
	dst := c.regs.Push(isV128Type(result))
	c.enc.emit(Instruction{Op: Op(op), A: dst, B: a.slot})
	c.releaseEntry(a)
	c.stack.push(vsEntry{slot: dst, vt: result, isDynamic: true})
	return nil
}

// visitBinary handles three cases: full constant folding when both operands
// are immediates, visitBinaryMixed when exactly one is, and a plain
// register-register instruction otherwise. There are no separate rri/rir
// encodings and no 16-bit immediate budget: a constant operand is addressed
// through its constant-pool slot like any register.
func (c *compState) visitBinary(op byte, result wasm.ValType) error {
	b := c.pop()
	a := c.pop()

	if a.isImmediate && b.isImmediate {
		v, tr := EvalBinary(op, c.constBits(a.slot), c.constBits(b.slot))
		c.releaseEntry(a)
		c.releaseEntry(b)
		if tr != trap.None {
			dst := c.regs.Push(isV128Type(result))
			c.enc.emitNoFuse(Instruction{Op: OpUnreachable, Imm: uint64(tr)})
			c.topFrame().unreachable = true
			c.stack.push(vsEntry{slot: dst, vt: result, isDynamic: true})
			return nil
		}
		c.stack.push(vsEntry{slot: c.regs.ConstSlot(v), vt: result, isImmediate: true})
		return nil
	}

	// Exactly one immediate operand: visitBinaryMixed turns a shift/rotate
	// by a multiple of the bit width into an identity and a division or
	// remainder by an immediate zero into an unconditional trap.
	if a.isImmediate != b.isImmediate {
		return c.visitBinaryMixed(op, result, a, b)
	}

	dst := c.regs.Push(isV128Type(result))
	c.enc.emit(Instruction{Op: Op(op), A: dst, B: a.slot, C: b.slot})
	c.releaseEntry(a)
	c.releaseEntry(b)
	c.stack.push(vsEntry{slot: dst, vt: result, isDynamic: true})
	return nil
}

// visitBinaryMixed handles exactly one immediate operand. Because a
// constant operand already lives in a (negative) slot in the same
// namespace as a register -- the interpreter's get() resolves either
// uniformly -- there is no separate rri/rir encoding to choose here; B/C
// simply carry the operands in their original left-to-right order. What's
// left is recognizing the handful of immediate shapes that let the
// instruction be skipped or replaced outright: a zero shift/rotate amount
// is an identity, and a zero immediate divisor is an unconditional trap.
func (c *compState) visitBinaryMixed(op byte, result wasm.ValType, a, b vsEntry) error {
	if isShiftOrRotate(op) && b.isImmediate {
		width := uint64(32)
		if result == wasm.ValI64 {
			width = 64
		}
		if c.constBits(b.slot)%width == 0 {
			c.releaseEntry(b)
			c.stack.push(a)
			return nil
		}
	}

	if isDivRem(op) && b.isImmediate && c.constBits(b.slot) == 0 {
		c.releaseEntry(a)
		c.releaseEntry(b)
		dst := c.regs.Push(isV128Type(result))
		c.enc.emitNoFuse(Instruction{Op: OpUnreachable, Imm: uint64(trap.IntegerDivisionByZero)})
		c.topFrame().unreachable = true
		c.stack.push(vsEntry{slot: dst, vt: result, isDynamic: true})
		return nil
	}

	dst := c.regs.Push(isV128Type(result))
	c.enc.emit(Instruction{Op: Op(op), A: dst, B: a.slot, C: b.slot})
	c.releaseEntry(a)
	c.releaseEntry(b)
	c.stack.push(vsEntry{slot: dst, vt: result, isDynamic: true})
	return nil
}

func isShiftOrRotate(op byte) bool {
	switch op {
	case wasm.OpI32Shl, wasm.OpI32ShrS, wasm.OpI32ShrU, wasm.OpI32Rotl, wasm.OpI32Rotr,
		wasm.OpI64Shl, wasm.OpI64ShrS, wasm.OpI64ShrU, wasm.OpI64Rotl, wasm.OpI64Rotr:
		return true
	}
	return false
}

func isDivRem(op byte) bool {
	switch op {
	case wasm.OpI32DivS, wasm.OpI32DivU, wasm.OpI32RemS, wasm.OpI32RemU,
		wasm.OpI64DivS, wasm.OpI64DivU, wasm.OpI64RemS, wasm.OpI64RemU:
		return true
	}
	return false
}

// visitLoad translates a load opcode. The address operand is never folded
// at translate time, even when constant: bounds checking depends on the
// memory's current size, which can change between translation and
// execution via memory.grow, so every load's address check happens in the
// interpreter.
func (c *compState) visitLoad(instr wasm.Instruction) error {
	imm := instr.Imm.(wasm.MemoryImm)
	ptr := c.pop()
	rt := loadResultType(instr.Opcode)

	dst := c.regs.Push(isV128Type(rt))
	c.enc.emit(Instruction{Op: Op(instr.Opcode), A: dst, B: ptr.slot, Imm: imm.Offset, MemIdx: imm.MemIdx})
	c.releaseEntry(ptr)
	c.stack.push(vsEntry{slot: dst, vt: rt, isDynamic: true})
	return nil
}

func (c *compState) visitStore(instr wasm.Instruction) error {
	imm := instr.Imm.(wasm.MemoryImm)
	val := c.pop()
	ptr := c.pop()
	c.enc.emit(Instruction{Op: Op(instr.Opcode), A: ptr.slot, B: val.slot, Imm: imm.Offset, MemIdx: imm.MemIdx})
	c.releaseEntry(val)
	c.releaseEntry(ptr)
	return nil
}
