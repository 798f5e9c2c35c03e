package compiler

import (
	"github.com/wasmi/wasmi/wasm"
)

// visitMisc translates one 0xFC-prefixed instruction: the eight saturating
// truncation conversions (which fold like any other numeric op) and the
// bulk-memory/table family, none of which fold since they operate on
// runtime-sized regions rather than single values.
func (c *compState) visitMisc(instr wasm.Instruction) error {
	imm := instr.Imm.(wasm.MiscImm)
	switch imm.SubOpcode {
	case wasm.MiscI32TruncSatF32S, wasm.MiscI32TruncSatF32U, wasm.MiscI32TruncSatF64S, wasm.MiscI32TruncSatF64U:
		return c.visitSatTrunc(imm.SubOpcode, wasm.ValI32)
	case wasm.MiscI64TruncSatF32S, wasm.MiscI64TruncSatF32U, wasm.MiscI64TruncSatF64S, wasm.MiscI64TruncSatF64U:
		return c.visitSatTrunc(imm.SubOpcode, wasm.ValI64)
	case wasm.MiscMemoryInit:
		return c.visitMemoryInit(imm)
	case wasm.MiscDataDrop:
		c.enc.emit(Instruction{Op: OpMisc, SubOp: wasm.MiscDataDrop, MemIdx: imm.Operands[0]})
		return nil
	case wasm.MiscMemoryCopy:
		return c.visitMemoryCopy(imm)
	case wasm.MiscMemoryFill:
		return c.visitMemoryFill(imm)
	case wasm.MiscTableInit:
		return c.visitTableInit(imm)
	case wasm.MiscElemDrop:
		c.enc.emit(Instruction{Op: OpMisc, SubOp: wasm.MiscElemDrop, MemIdx: imm.Operands[0]})
		return nil
	case wasm.MiscTableCopy:
		return c.visitTableCopy(imm)
	case wasm.MiscTableGrow:
		return c.visitTableGrow(imm)
	case wasm.MiscTableSize:
		return c.visitTableSize(imm)
	case wasm.MiscTableFill:
		return c.visitTableFill(imm)
	}
	panic("compiler: visitMisc called with unknown sub-opcode")
}

func (c *compState) visitSatTrunc(sub uint32, result wasm.ValType) error {
	a := c.pop()
	if a.isImmediate {
		v := EvalSatUnary(sub, c.constBits(a.slot))
		c.releaseEntry(a)
		c.stack.push(vsEntry{slot: c.regs.ConstSlot(v), vt: result, isImmediate: true})
		return nil
	}
	dst := c.regs.Push(false)
	c.enc.emit(Instruction{Op: OpMisc, SubOp: sub, A: dst, B: a.slot})
	c.releaseEntry(a)
	c.stack.push(vsEntry{slot: dst, vt: result, isDynamic: true})
	return nil
}

// visitMemoryInit pops (dest, src, len) -- wasm pushes them in that order,
// so len is popped first. MemIdx carries the data-segment index, Idx2 the
// memory index, mirroring table.init's MemIdx/Idx2 split.
func (c *compState) visitMemoryInit(imm wasm.MiscImm) error {
	n := c.pop()
	src := c.pop()
	dst := c.pop()
	c.enc.emit(Instruction{Op: OpMisc, SubOp: wasm.MiscMemoryInit,
		A: dst.slot, B: src.slot, C: n.slot,
		MemIdx: imm.Operands[0], Idx2: imm.Operands[1]})
	c.releaseEntry(n)
	c.releaseEntry(src)
	c.releaseEntry(dst)
	return nil
}

func (c *compState) visitMemoryCopy(imm wasm.MiscImm) error {
	n := c.pop()
	src := c.pop()
	dst := c.pop()
	c.enc.emit(Instruction{Op: OpMisc, SubOp: wasm.MiscMemoryCopy,
		A: dst.slot, B: src.slot, C: n.slot,
		MemIdx: imm.Operands[0], Idx2: imm.Operands[1]})
	c.releaseEntry(n)
	c.releaseEntry(src)
	c.releaseEntry(dst)
	return nil
}

func (c *compState) visitMemoryFill(imm wasm.MiscImm) error {
	n := c.pop()
	val := c.pop()
	dst := c.pop()
	c.enc.emit(Instruction{Op: OpMisc, SubOp: wasm.MiscMemoryFill,
		A: dst.slot, B: val.slot, C: n.slot, MemIdx: imm.Operands[0]})
	c.releaseEntry(n)
	c.releaseEntry(val)
	c.releaseEntry(dst)
	return nil
}

func (c *compState) visitTableInit(imm wasm.MiscImm) error {
	n := c.pop()
	src := c.pop()
	dst := c.pop()
	c.enc.emit(Instruction{Op: OpMisc, SubOp: wasm.MiscTableInit,
		A: dst.slot, B: src.slot, C: n.slot,
		MemIdx: imm.Operands[0], Idx2: imm.Operands[1]})
	c.releaseEntry(n)
	c.releaseEntry(src)
	c.releaseEntry(dst)
	return nil
}

func (c *compState) visitTableCopy(imm wasm.MiscImm) error {
	n := c.pop()
	src := c.pop()
	dst := c.pop()
	c.enc.emit(Instruction{Op: OpMisc, SubOp: wasm.MiscTableCopy,
		A: dst.slot, B: src.slot, C: n.slot,
		MemIdx: imm.Operands[0], Idx2: imm.Operands[1]})
	c.releaseEntry(n)
	c.releaseEntry(src)
	c.releaseEntry(dst)
	return nil
}

func (c *compState) visitTableGrow(imm wasm.MiscImm) error {
	n := c.pop()
	val := c.pop()
	dst := c.regs.Push(false)
	c.enc.emit(Instruction{Op: OpMisc, SubOp: wasm.MiscTableGrow, A: dst, B: val.slot, C: n.slot, MemIdx: imm.Operands[0]})
	c.releaseEntry(n)
	c.releaseEntry(val)
	c.stack.push(vsEntry{slot: dst, vt: wasm.ValI32, isDynamic: true})
	return nil
}

func (c *compState) visitTableSize(imm wasm.MiscImm) error {
	dst := c.regs.Push(false)
	c.enc.emit(Instruction{Op: OpMisc, SubOp: wasm.MiscTableSize, A: dst, MemIdx: imm.Operands[0]})
	c.stack.push(vsEntry{slot: dst, vt: wasm.ValI32, isDynamic: true})
	return nil
}

func (c *compState) visitTableFill(imm wasm.MiscImm) error {
	n := c.pop()
	val := c.pop()
	dst := c.pop()
	c.enc.emit(Instruction{Op: OpMisc, SubOp: wasm.MiscTableFill,
		A: dst.slot, B: val.slot, C: n.slot, MemIdx: imm.Operands[0]})
	c.releaseEntry(n)
	c.releaseEntry(val)
	c.releaseEntry(dst)
	return nil
}
