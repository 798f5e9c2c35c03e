package compiler

import "github.com/wasmi/wasmi/wasm"

// visitSIMD translates one 0xFD-prefixed SIMD instruction into a single
// OpSimd register instruction carrying the sub-opcode in SubOp. Unlike the
// scalar numeric path, no SIMD operator folds at translate time even when
// every operand is constant: the fold payoff for 128-bit lane math is
// small next to the size of a full EvalUnary/EvalBinary-style table for
// ~150 lane operators, so every SIMD operator's result materializes into a
// real register and the lane arithmetic lives once, in the interpreter, against
// internal/lanes.
func (c *compState) visitSIMD(instr wasm.Instruction) error {
	imm := instr.Imm.(wasm.SIMDImm)
	sub := imm.SubOpcode

	switch sub {
	case wasm.SimdV128Load, wasm.SimdV128Load8x8S, wasm.SimdV128Load8x8U,
		wasm.SimdV128Load16x4S, wasm.SimdV128Load16x4U,
		wasm.SimdV128Load32x2S, wasm.SimdV128Load32x2U,
		wasm.SimdV128Load32Zero, wasm.SimdV128Load64Zero,
		wasm.SimdV128Load8Splat, wasm.SimdV128Load16Splat,
		wasm.SimdV128Load32Splat, wasm.SimdV128Load64Splat:
		return c.visitSIMDLoad(sub, imm)

	case wasm.SimdV128Store:
		return c.visitSIMDStore(sub, imm)

	case wasm.SimdV128Const:
		slot := c.regs.V128ConstSlot(imm.V128Const)
		c.stack.push(vsEntry{slot: slot, vt: wasm.ValV128, isImmediate: true})
		return nil

	case wasm.SimdI8x16Shuffle:
		return c.visitShuffle(sub, imm)

	case wasm.SimdI8x16Splat, wasm.SimdI16x8Splat, wasm.SimdI32x4Splat,
		wasm.SimdI64x2Splat, wasm.SimdF32x4Splat, wasm.SimdF64x2Splat:
		return c.visitSIMDSplat(sub)

	case wasm.SimdI8x16ExtractLaneS, wasm.SimdI8x16ExtractLaneU,
		wasm.SimdI16x8ExtractLaneS, wasm.SimdI16x8ExtractLaneU,
		wasm.SimdI32x4ExtractLane, wasm.SimdI64x2ExtractLane,
		wasm.SimdF32x4ExtractLane, wasm.SimdF64x2ExtractLane:
		return c.visitExtractLane(sub, imm)

	case wasm.SimdI8x16ReplaceLane, wasm.SimdI16x8ReplaceLane,
		wasm.SimdI32x4ReplaceLane, wasm.SimdI64x2ReplaceLane,
		wasm.SimdF32x4ReplaceLane, wasm.SimdF64x2ReplaceLane:
		return c.visitReplaceLane(sub, imm)

	case wasm.SimdV128AnyTrue, wasm.SimdI8x16AllTrue, wasm.SimdI16x8AllTrue,
		wasm.SimdI32x4AllTrue, wasm.SimdI64x2AllTrue,
		wasm.SimdI8x16Bitmask, wasm.SimdI16x8Bitmask,
		wasm.SimdI32x4Bitmask, wasm.SimdI64x2Bitmask:
		return c.visitSIMDReduce(sub)

	case wasm.SimdI8x16Shl, wasm.SimdI8x16ShrS, wasm.SimdI8x16ShrU,
		wasm.SimdI16x8Shl, wasm.SimdI16x8ShrS, wasm.SimdI16x8ShrU,
		wasm.SimdI32x4Shl, wasm.SimdI32x4ShrS, wasm.SimdI32x4ShrU,
		wasm.SimdI64x2Shl, wasm.SimdI64x2ShrS, wasm.SimdI64x2ShrU:
		return c.visitSIMDShift(sub)

	case wasm.SimdV128Bitselect,
		wasm.SimdI8x16RelaxedLaneselect, wasm.SimdI16x8RelaxedLaneselect,
		wasm.SimdI32x4RelaxedLaneselect, wasm.SimdI64x2RelaxedLaneselect,
		wasm.SimdF32x4RelaxedMadd, wasm.SimdF32x4RelaxedNmadd,
		wasm.SimdF64x2RelaxedMadd, wasm.SimdF64x2RelaxedNmadd,
		wasm.SimdI32x4RelaxedDotI8x16I7x16AddS:
		return c.visitSIMDTernary(sub)

	default:
		return c.visitSIMDBinaryOrUnary(sub)
	}
}

func (c *compState) visitSIMDLoad(sub uint32, imm wasm.SIMDImm) error {
	addr := c.pop()
	dst := c.regs.Push(true)
	c.enc.emit(Instruction{Op: OpSimd, SubOp: sub, A: dst, B: addr.slot, Imm: imm.MemArg.Offset, MemIdx: imm.MemArg.MemIdx})
	c.releaseEntry(addr)
	c.stack.push(vsEntry{slot: dst, vt: wasm.ValV128, isDynamic: true})
	return nil
}

func (c *compState) visitSIMDStore(sub uint32, imm wasm.SIMDImm) error {
	val := c.pop()
	addr := c.pop()
	c.enc.emit(Instruction{Op: OpSimd, SubOp: sub, A: addr.slot, B: val.slot, Imm: imm.MemArg.Offset, MemIdx: imm.MemArg.MemIdx})
	c.releaseEntry(val)
	c.releaseEntry(addr)
	return nil
}

// visitShuffle stashes the 16-byte lane-select mask in the v128 constant
// pool and carries its slot in Targets: Instruction has no field wide
// enough to hold an inline 16-byte immediate directly.
func (c *compState) visitShuffle(sub uint32, imm wasm.SIMDImm) error {
	var mask [16]byte
	copy(mask[:], imm.ShuffleMask)
	maskSlot := c.regs.V128ConstSlot(mask)
	b := c.pop()
	a := c.pop()
	dst := c.regs.Push(true)
	c.enc.emit(Instruction{Op: OpSimd, SubOp: sub, A: dst, B: a.slot, C: b.slot, Targets: []int32{maskSlot}})
	c.releaseEntry(a)
	c.releaseEntry(b)
	c.stack.push(vsEntry{slot: dst, vt: wasm.ValV128, isDynamic: true})
	return nil
}

func (c *compState) visitSIMDSplat(sub uint32) error {
	a := c.pop()
	dst := c.regs.Push(true)
	c.enc.emit(Instruction{Op: OpSimd, SubOp: sub, A: dst, B: a.slot})
	c.releaseEntry(a)
	c.stack.push(vsEntry{slot: dst, vt: wasm.ValV128, isDynamic: true})
	return nil
}

func (c *compState) visitExtractLane(sub uint32, imm wasm.SIMDImm) error {
	v := c.pop()
	dst := c.regs.Push(false)
	c.enc.emit(Instruction{Op: OpSimd, SubOp: sub, A: dst, B: v.slot, Lane: *imm.LaneIdx})
	c.releaseEntry(v)
	c.stack.push(vsEntry{slot: dst, vt: extractLaneResultType(sub), isDynamic: true})
	return nil
}

func extractLaneResultType(sub uint32) wasm.ValType {
	switch sub {
	case wasm.SimdI64x2ExtractLane:
		return wasm.ValI64
	case wasm.SimdF32x4ExtractLane:
		return wasm.ValF32
	case wasm.SimdF64x2ExtractLane:
		return wasm.ValF64
	default:
		return wasm.ValI32
	}
}

func (c *compState) visitReplaceLane(sub uint32, imm wasm.SIMDImm) error {
	x := c.pop()
	v := c.pop()
	dst := c.regs.Push(true)
	c.enc.emit(Instruction{Op: OpSimd, SubOp: sub, A: dst, B: v.slot, C: x.slot, Lane: *imm.LaneIdx})
	c.releaseEntry(x)
	c.releaseEntry(v)
	c.stack.push(vsEntry{slot: dst, vt: wasm.ValV128, isDynamic: true})
	return nil
}

func (c *compState) visitSIMDReduce(sub uint32) error {
	v := c.pop()
	dst := c.regs.Push(false)
	c.enc.emit(Instruction{Op: OpSimd, SubOp: sub, A: dst, B: v.slot})
	c.releaseEntry(v)
	c.stack.push(vsEntry{slot: dst, vt: wasm.ValI32, isDynamic: true})
	return nil
}

// visitSIMDShift handles the twelve shift-by-scalar opcodes (shl, shr_s and
// shr_u over four lane shapes): the shift count
// is a plain i32, not a second v128 lane vector.
func (c *compState) visitSIMDShift(sub uint32) error {
	n := c.pop()
	v := c.pop()
	dst := c.regs.Push(true)
	c.enc.emit(Instruction{Op: OpSimd, SubOp: sub, A: dst, B: v.slot, C: n.slot})
	c.releaseEntry(n)
	c.releaseEntry(v)
	c.stack.push(vsEntry{slot: dst, vt: wasm.ValV128, isDynamic: true})
	return nil
}

// visitSIMDTernary covers the three-v128-operand family: bitselect, the
// relaxed per-lane-select variants (same semantics as bitselect, kept as
// distinct sub-opcodes so the interpreter's behavior matches the source
// instruction exactly), the relaxed fused multiply-add/subtract pair, and
// the relaxed dot-and-accumulate. The third operand has nowhere to live
// among A/B/C, so it rides in Targets, the same reuse Shuffle makes of
// that field for its mask slot.
func (c *compState) visitSIMDTernary(sub uint32) error {
	z := c.pop()
	y := c.pop()
	x := c.pop()
	dst := c.regs.Push(true)
	c.enc.emit(Instruction{Op: OpSimd, SubOp: sub, A: dst, B: x.slot, C: y.slot, Targets: []int32{z.slot}})
	c.releaseEntry(x)
	c.releaseEntry(y)
	c.releaseEntry(z)
	c.stack.push(vsEntry{slot: dst, vt: wasm.ValV128, isDynamic: true})
	return nil
}

// visitSIMDBinaryOrUnary handles every remaining sub-opcode: pointwise
// arithmetic, bitwise, comparison, narrowing, widening, and conversion
// ops, all either one or two v128-in, v128-out. simdIsBinary enumerates
// the two-operand half; everything else reaching here is unary.
func (c *compState) visitSIMDBinaryOrUnary(sub uint32) error {
	if simdIsBinary(sub) {
		b := c.pop()
		a := c.pop()
		dst := c.regs.Push(true)
		c.enc.emit(Instruction{Op: OpSimd, SubOp: sub, A: dst, B: a.slot, C: b.slot})
		c.releaseEntry(a)
		c.releaseEntry(b)
		c.stack.push(vsEntry{slot: dst, vt: wasm.ValV128, isDynamic: true})
		return nil
	}
	a := c.pop()
	dst := c.regs.Push(true)
	c.enc.emit(Instruction{Op: OpSimd, SubOp: sub, A: dst, B: a.slot})
	c.releaseEntry(a)
	c.stack.push(vsEntry{slot: dst, vt: wasm.ValV128, isDynamic: true})
	return nil
}

func simdIsBinary(sub uint32) bool {
	switch sub {
	case wasm.SimdI8x16Eq, wasm.SimdI8x16Ne, wasm.SimdI8x16LtS, wasm.SimdI8x16LtU,
		wasm.SimdI8x16GtS, wasm.SimdI8x16GtU, wasm.SimdI8x16LeS, wasm.SimdI8x16LeU,
		wasm.SimdI8x16GeS, wasm.SimdI8x16GeU,
		wasm.SimdI16x8Eq, wasm.SimdI16x8Ne, wasm.SimdI16x8LtS, wasm.SimdI16x8LtU,
		wasm.SimdI16x8GtS, wasm.SimdI16x8GtU, wasm.SimdI16x8LeS, wasm.SimdI16x8LeU,
		wasm.SimdI16x8GeS, wasm.SimdI16x8GeU,
		wasm.SimdI32x4Eq, wasm.SimdI32x4Ne, wasm.SimdI32x4LtS, wasm.SimdI32x4LtU,
		wasm.SimdI32x4GtS, wasm.SimdI32x4GtU, wasm.SimdI32x4LeS, wasm.SimdI32x4LeU,
		wasm.SimdI32x4GeS, wasm.SimdI32x4GeU,
		wasm.SimdI64x2Eq, wasm.SimdI64x2Ne, wasm.SimdI64x2LtS, wasm.SimdI64x2GtS,
		wasm.SimdI64x2LeS, wasm.SimdI64x2GeS,
		wasm.SimdF32x4Eq, wasm.SimdF32x4Ne, wasm.SimdF32x4Lt, wasm.SimdF32x4Gt,
		wasm.SimdF32x4Le, wasm.SimdF32x4Ge,
		wasm.SimdF64x2Eq, wasm.SimdF64x2Ne, wasm.SimdF64x2Lt, wasm.SimdF64x2Gt,
		wasm.SimdF64x2Le, wasm.SimdF64x2Ge,
		wasm.SimdV128And, wasm.SimdV128AndNot, wasm.SimdV128Or, wasm.SimdV128Xor,
		wasm.SimdI8x16Swizzle,
		wasm.SimdI8x16NarrowI16x8S, wasm.SimdI8x16NarrowI16x8U,
		wasm.SimdI8x16Add, wasm.SimdI8x16AddSatS, wasm.SimdI8x16AddSatU,
		wasm.SimdI8x16Sub, wasm.SimdI8x16SubSatS, wasm.SimdI8x16SubSatU,
		wasm.SimdI8x16MinS, wasm.SimdI8x16MinU, wasm.SimdI8x16MaxS, wasm.SimdI8x16MaxU,
		wasm.SimdI8x16AvgrU,
		wasm.SimdI16x8NarrowI32x4S, wasm.SimdI16x8NarrowI32x4U,
		wasm.SimdI16x8Add, wasm.SimdI16x8AddSatS, wasm.SimdI16x8AddSatU,
		wasm.SimdI16x8Sub, wasm.SimdI16x8SubSatS, wasm.SimdI16x8SubSatU,
		wasm.SimdI16x8Mul, wasm.SimdI16x8MinS, wasm.SimdI16x8MinU,
		wasm.SimdI16x8MaxS, wasm.SimdI16x8MaxU, wasm.SimdI16x8AvgrU,
		wasm.SimdI16x8Q15mulrSatS, wasm.SimdI32x4DotI16x8S,
		wasm.SimdI32x4Add, wasm.SimdI32x4Sub, wasm.SimdI32x4Mul,
		wasm.SimdI32x4MinS, wasm.SimdI32x4MinU, wasm.SimdI32x4MaxS, wasm.SimdI32x4MaxU,
		wasm.SimdI64x2Add, wasm.SimdI64x2Sub, wasm.SimdI64x2Mul,
		wasm.SimdF32x4Add, wasm.SimdF32x4Sub, wasm.SimdF32x4Mul, wasm.SimdF32x4Div,
		wasm.SimdF32x4Min, wasm.SimdF32x4Max, wasm.SimdF32x4Pmin, wasm.SimdF32x4Pmax,
		wasm.SimdF64x2Add, wasm.SimdF64x2Sub, wasm.SimdF64x2Mul, wasm.SimdF64x2Div,
		wasm.SimdF64x2Min, wasm.SimdF64x2Max, wasm.SimdF64x2Pmin, wasm.SimdF64x2Pmax,
		wasm.SimdF32x4RelaxedMin, wasm.SimdF32x4RelaxedMax,
		wasm.SimdF64x2RelaxedMin, wasm.SimdF64x2RelaxedMax,
		wasm.SimdI16x8RelaxedQ15mulrS, wasm.SimdI16x8RelaxedDotI8x16I7x16S:
		return true
	default:
		return false
	}
}
