package vm

import (
	"encoding/binary"
	"math"

	"github.com/wasmi/wasmi/internal/compiler"
	"github.com/wasmi/wasmi/internal/lanes"
	"github.com/wasmi/wasmi/internal/trap"
	"github.com/wasmi/wasmi/wasm"
)

// execSimd dispatches one OpSimd instruction to internal/lanes, decoding
// operands exactly as internal/compiler/simd.go encoded them for each
// sub-opcode family.
func (e *engine) execSimd(f *frame, instr *compiler.Instruction) TrapCode {
	switch instr.SubOp {
	case wasm.SimdV128Load, wasm.SimdV128Load8x8S, wasm.SimdV128Load8x8U,
		wasm.SimdV128Load16x4S, wasm.SimdV128Load16x4U,
		wasm.SimdV128Load32x2S, wasm.SimdV128Load32x2U,
		wasm.SimdV128Load32Zero, wasm.SimdV128Load64Zero,
		wasm.SimdV128Load8Splat, wasm.SimdV128Load16Splat,
		wasm.SimdV128Load32Splat, wasm.SimdV128Load64Splat:
		return e.execSimdLoad(f, instr)

	case wasm.SimdV128Store:
		return e.execSimdStore(f, instr)
	}

	v := dispatchSimd(instr.SubOp, f, instr)
	f.setV128(instr.A, v)
	return TrapCode{}
}

func (e *engine) execSimdLoad(f *frame, instr *compiler.Instruction) TrapCode {
	mem := e.inst.Memory(instr.MemIdx)
	bytes := mem.Bytes()
	ptr := uint32(f.get64(instr.B))

	width := simdLoadWidth(instr.SubOp)
	addr, ok := effectiveAddr(ptr, instr.Imm, width, len(bytes))
	if !ok {
		return trapOf(trap.MemoryOutOfBounds)
	}
	b := bytes[addr : addr+width]

	var out lanes.V128
	switch instr.SubOp {
	case wasm.SimdV128Load:
		copy(out[:], b)
	case wasm.SimdV128Load8x8S:
		for i := 0; i < 8; i++ {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(int8(b[i]))))
		}
	case wasm.SimdV128Load8x8U:
		for i := 0; i < 8; i++ {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(b[i]))
		}
	case wasm.SimdV128Load16x4S:
		for i := 0; i < 4; i++ {
			v := int16(binary.LittleEndian.Uint16(b[i*2:]))
			binary.LittleEndian.PutUint32(out[i*4:], uint32(int32(v)))
		}
	case wasm.SimdV128Load16x4U:
		for i := 0; i < 4; i++ {
			v := binary.LittleEndian.Uint16(b[i*2:])
			binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
		}
	case wasm.SimdV128Load32x2S:
		for i := 0; i < 2; i++ {
			v := int32(binary.LittleEndian.Uint32(b[i*4:]))
			binary.LittleEndian.PutUint64(out[i*8:], uint64(int64(v)))
		}
	case wasm.SimdV128Load32x2U:
		for i := 0; i < 2; i++ {
			v := binary.LittleEndian.Uint32(b[i*4:])
			binary.LittleEndian.PutUint64(out[i*8:], uint64(v))
		}
	case wasm.SimdV128Load32Zero:
		copy(out[0:4], b)
	case wasm.SimdV128Load64Zero:
		copy(out[0:8], b)
	case wasm.SimdV128Load8Splat:
		out = lanes.SplatI8x16(int8(b[0]))
	case wasm.SimdV128Load16Splat:
		out = lanes.SplatI16x8(int16(binary.LittleEndian.Uint16(b)))
	case wasm.SimdV128Load32Splat:
		out = lanes.SplatI32x4(int32(binary.LittleEndian.Uint32(b)))
	case wasm.SimdV128Load64Splat:
		out = lanes.SplatI64x2(int64(binary.LittleEndian.Uint64(b)))
	}
	f.setV128(instr.A, out)
	return TrapCode{}
}

func (e *engine) execSimdStore(f *frame, instr *compiler.Instruction) TrapCode {
	mem := e.inst.Memory(instr.MemIdx)
	bytes := mem.Bytes()
	ptr := uint32(f.get64(instr.A))

	addr, ok := effectiveAddr(ptr, instr.Imm, 16, len(bytes))
	if !ok {
		return trapOf(trap.MemoryOutOfBounds)
	}
	v := f.getV128(instr.B)
	copy(bytes[addr:addr+16], v[:])
	return TrapCode{}
}

func simdLoadWidth(sub uint32) uint64 {
	switch sub {
	case wasm.SimdV128Load:
		return 16
	case wasm.SimdV128Load8x8S, wasm.SimdV128Load8x8U,
		wasm.SimdV128Load16x4S, wasm.SimdV128Load16x4U,
		wasm.SimdV128Load32x2S, wasm.SimdV128Load32x2U,
		wasm.SimdV128Load64Splat, wasm.SimdV128Load64Zero:
		return 8
	case wasm.SimdV128Load32Splat, wasm.SimdV128Load32Zero:
		return 4
	case wasm.SimdV128Load16Splat:
		return 2
	default: // SimdV128Load8Splat
		return 1
	}
}

// dispatchSimd handles every sub-opcode that isn't a load or store: shuffle,
// splat, extract/replace-lane, reduce, shift, ternary, and the large
// pointwise binary/unary family, all producing (or, for reduce, deriving an
// i32 from) a v128 value.
func dispatchSimd(sub uint32, f *frame, instr *compiler.Instruction) lanes.V128 {
	switch sub {
	case wasm.SimdV128Const:
		// Never emitted: v128.const folds directly into the constant pool
		// at translate time (see compiler/simd.go), so this sub-opcode
		// never reaches the interpreter.
		return lanes.V128{}

	case wasm.SimdI8x16Shuffle:
		mask := f.getV128(instr.Targets[0])
		return lanes.Shuffle(f.getV128(instr.B), f.getV128(instr.C), [16]byte(mask))

	case wasm.SimdI8x16Splat:
		return lanes.SplatI8x16(int8(f.get64(instr.B)))
	case wasm.SimdI16x8Splat:
		return lanes.SplatI16x8(int16(f.get64(instr.B)))
	case wasm.SimdI32x4Splat:
		return lanes.SplatI32x4(int32(f.get64(instr.B)))
	case wasm.SimdI64x2Splat:
		return lanes.SplatI64x2(int64(f.get64(instr.B)))
	case wasm.SimdF32x4Splat:
		return lanes.SplatF32x4(math.Float32frombits(uint32(f.get64(instr.B))))
	case wasm.SimdF64x2Splat:
		return lanes.SplatF64x2(math.Float64frombits(f.get64(instr.B)))

	case wasm.SimdI8x16ExtractLaneS:
		f.set64(instr.A, uint64(uint32(lanes.ExtractLaneI8x16S(f.getV128(instr.B), int(instr.Lane)))))
		return lanes.V128{}
	case wasm.SimdI8x16ExtractLaneU:
		f.set64(instr.A, uint64(uint32(lanes.ExtractLaneI8x16U(f.getV128(instr.B), int(instr.Lane)))))
		return lanes.V128{}
	case wasm.SimdI16x8ExtractLaneS:
		f.set64(instr.A, uint64(uint32(lanes.ExtractLaneI16x8S(f.getV128(instr.B), int(instr.Lane)))))
		return lanes.V128{}
	case wasm.SimdI16x8ExtractLaneU:
		f.set64(instr.A, uint64(uint32(lanes.ExtractLaneI16x8U(f.getV128(instr.B), int(instr.Lane)))))
		return lanes.V128{}
	case wasm.SimdI32x4ExtractLane:
		f.set64(instr.A, uint64(uint32(lanes.ExtractLaneI32x4(f.getV128(instr.B), int(instr.Lane)))))
		return lanes.V128{}
	case wasm.SimdI64x2ExtractLane:
		f.set64(instr.A, uint64(lanes.ExtractLaneI64x2(f.getV128(instr.B), int(instr.Lane))))
		return lanes.V128{}
	case wasm.SimdF32x4ExtractLane:
		f.set64(instr.A, uint64(math.Float32bits(lanes.ExtractLaneF32x4(f.getV128(instr.B), int(instr.Lane)))))
		return lanes.V128{}
	case wasm.SimdF64x2ExtractLane:
		f.set64(instr.A, math.Float64bits(lanes.ExtractLaneF64x2(f.getV128(instr.B), int(instr.Lane))))
		return lanes.V128{}

	case wasm.SimdI8x16ReplaceLane:
		return lanes.ReplaceLaneI8x16(f.getV128(instr.B), int(instr.Lane), int8(f.get64(instr.C)))
	case wasm.SimdI16x8ReplaceLane:
		return lanes.ReplaceLaneI16x8(f.getV128(instr.B), int(instr.Lane), int16(f.get64(instr.C)))
	case wasm.SimdI32x4ReplaceLane:
		return lanes.ReplaceLaneI32x4(f.getV128(instr.B), int(instr.Lane), int32(f.get64(instr.C)))
	case wasm.SimdI64x2ReplaceLane:
		return lanes.ReplaceLaneI64x2(f.getV128(instr.B), int(instr.Lane), int64(f.get64(instr.C)))
	case wasm.SimdF32x4ReplaceLane:
		return lanes.ReplaceLaneF32x4(f.getV128(instr.B), int(instr.Lane), math.Float32frombits(uint32(f.get64(instr.C))))
	case wasm.SimdF64x2ReplaceLane:
		return lanes.ReplaceLaneF64x2(f.getV128(instr.B), int(instr.Lane), math.Float64frombits(f.get64(instr.C)))

	case wasm.SimdV128AnyTrue:
		f.set64(instr.A, b2u64(lanes.AnyTrue(f.getV128(instr.B))))
		return lanes.V128{}
	case wasm.SimdI8x16AllTrue:
		f.set64(instr.A, b2u64(lanes.AllTrueI8x16(f.getV128(instr.B))))
		return lanes.V128{}
	case wasm.SimdI16x8AllTrue:
		f.set64(instr.A, b2u64(lanes.AllTrueI16x8(f.getV128(instr.B))))
		return lanes.V128{}
	case wasm.SimdI32x4AllTrue:
		f.set64(instr.A, b2u64(lanes.AllTrueI32x4(f.getV128(instr.B))))
		return lanes.V128{}
	case wasm.SimdI64x2AllTrue:
		f.set64(instr.A, b2u64(lanes.AllTrueI64x2(f.getV128(instr.B))))
		return lanes.V128{}
	case wasm.SimdI8x16Bitmask:
		f.set64(instr.A, uint64(uint32(lanes.BitmaskI8x16(f.getV128(instr.B)))))
		return lanes.V128{}
	case wasm.SimdI16x8Bitmask:
		f.set64(instr.A, uint64(uint32(lanes.BitmaskI16x8(f.getV128(instr.B)))))
		return lanes.V128{}
	case wasm.SimdI32x4Bitmask:
		f.set64(instr.A, uint64(uint32(lanes.BitmaskI32x4(f.getV128(instr.B)))))
		return lanes.V128{}
	case wasm.SimdI64x2Bitmask:
		f.set64(instr.A, uint64(uint32(lanes.BitmaskI64x2(f.getV128(instr.B)))))
		return lanes.V128{}

	case wasm.SimdI8x16Shl:
		return lanes.ShlI8x16(f.getV128(instr.B), int(f.get64(instr.C)))
	case wasm.SimdI8x16ShrS:
		return lanes.ShrI8x16S(f.getV128(instr.B), int(f.get64(instr.C)))
	case wasm.SimdI8x16ShrU:
		return lanes.ShrI8x16U(f.getV128(instr.B), int(f.get64(instr.C)))
	case wasm.SimdI16x8Shl:
		return lanes.ShlI16x8(f.getV128(instr.B), int(f.get64(instr.C)))
	case wasm.SimdI16x8ShrS:
		return lanes.ShrI16x8S(f.getV128(instr.B), int(f.get64(instr.C)))
	case wasm.SimdI16x8ShrU:
		return lanes.ShrI16x8U(f.getV128(instr.B), int(f.get64(instr.C)))
	case wasm.SimdI32x4Shl:
		return lanes.ShlI32x4(f.getV128(instr.B), int(f.get64(instr.C)))
	case wasm.SimdI32x4ShrS:
		return lanes.ShrI32x4S(f.getV128(instr.B), int(f.get64(instr.C)))
	case wasm.SimdI32x4ShrU:
		return lanes.ShrI32x4U(f.getV128(instr.B), int(f.get64(instr.C)))
	case wasm.SimdI64x2Shl:
		return lanes.ShlI64x2(f.getV128(instr.B), int(f.get64(instr.C)))
	case wasm.SimdI64x2ShrS:
		return lanes.ShrI64x2S(f.getV128(instr.B), int(f.get64(instr.C)))
	case wasm.SimdI64x2ShrU:
		return lanes.ShrI64x2U(f.getV128(instr.B), int(f.get64(instr.C)))

	case wasm.SimdV128Bitselect,
		wasm.SimdI8x16RelaxedLaneselect, wasm.SimdI16x8RelaxedLaneselect,
		wasm.SimdI32x4RelaxedLaneselect, wasm.SimdI64x2RelaxedLaneselect:
		// Every relaxed laneselect is defined here as exactly bitselect's
		// semantics: this engine picks the deterministic behavior for
		// every relaxed-SIMD op (see DESIGN.md).
		return lanes.Bitselect(f.getV128(instr.B), f.getV128(instr.C), f.getV128(instr.Targets[0]))
	case wasm.SimdF32x4RelaxedMadd:
		return lanes.MaddF32x4(f.getV128(instr.B), f.getV128(instr.C), f.getV128(instr.Targets[0]))
	case wasm.SimdF32x4RelaxedNmadd:
		return lanes.NmaddF32x4(f.getV128(instr.B), f.getV128(instr.C), f.getV128(instr.Targets[0]))
	case wasm.SimdF64x2RelaxedMadd:
		return lanes.MaddF64x2(f.getV128(instr.B), f.getV128(instr.C), f.getV128(instr.Targets[0]))
	case wasm.SimdF64x2RelaxedNmadd:
		return lanes.NmaddF64x2(f.getV128(instr.B), f.getV128(instr.C), f.getV128(instr.Targets[0]))
	case wasm.SimdI32x4RelaxedDotI8x16I7x16AddS:
		return lanes.DotI8x16I7x16AddS(f.getV128(instr.B), f.getV128(instr.C), f.getV128(instr.Targets[0]))

	default:
		return dispatchSimdBinaryOrUnary(sub, f, instr)
	}
}

func dispatchSimdBinaryOrUnary(sub uint32, f *frame, instr *compiler.Instruction) lanes.V128 {
	a := f.getV128(instr.B)
	if !simdIsUnary(sub) {
		return simdBinary(sub, a, f.getV128(instr.C))
	}
	return simdUnary(sub, a)
}

func simdIsUnary(sub uint32) bool {
	switch sub {
	case wasm.SimdV128Not,
		wasm.SimdI8x16Abs, wasm.SimdI8x16Neg,
		wasm.SimdI16x8ExtaddPairwiseI8x16S, wasm.SimdI16x8ExtaddPairwiseI8x16U,
		wasm.SimdI16x8Abs, wasm.SimdI16x8Neg,
		wasm.SimdI16x8ExtendLowI8x16S, wasm.SimdI16x8ExtendHighI8x16S,
		wasm.SimdI16x8ExtendLowI8x16U, wasm.SimdI16x8ExtendHighI8x16U,
		wasm.SimdI32x4ExtaddPairwiseI16x8S, wasm.SimdI32x4ExtaddPairwiseI16x8U,
		wasm.SimdI32x4Abs, wasm.SimdI32x4Neg,
		wasm.SimdI32x4ExtendLowI16x8S, wasm.SimdI32x4ExtendHighI16x8S,
		wasm.SimdI32x4ExtendLowI16x8U, wasm.SimdI32x4ExtendHighI16x8U,
		wasm.SimdI64x2Abs, wasm.SimdI64x2Neg,
		wasm.SimdI64x2ExtendLowI32x4S, wasm.SimdI64x2ExtendHighI32x4S,
		wasm.SimdI64x2ExtendLowI32x4U, wasm.SimdI64x2ExtendHighI32x4U,
		wasm.SimdF32x4Ceil, wasm.SimdF32x4Floor, wasm.SimdF32x4Trunc, wasm.SimdF32x4Nearest,
		wasm.SimdF32x4Abs, wasm.SimdF32x4Neg, wasm.SimdF32x4Sqrt,
		wasm.SimdF64x2Ceil, wasm.SimdF64x2Floor, wasm.SimdF64x2Trunc, wasm.SimdF64x2Nearest,
		wasm.SimdF64x2Abs, wasm.SimdF64x2Neg, wasm.SimdF64x2Sqrt,
		wasm.SimdI32x4TruncSatF32x4S, wasm.SimdI32x4TruncSatF32x4U,
		wasm.SimdF32x4ConvertI32x4S, wasm.SimdF32x4ConvertI32x4U,
		wasm.SimdI32x4TruncSatF64x2SZero, wasm.SimdI32x4TruncSatF64x2UZero,
		wasm.SimdF64x2ConvertLowI32x4S, wasm.SimdF64x2ConvertLowI32x4U,
		wasm.SimdF32x4DemoteF64x2Zero, wasm.SimdF64x2PromoteLowF32x4,
		wasm.SimdI32x4RelaxedTruncF32x4S, wasm.SimdI32x4RelaxedTruncF32x4U,
		wasm.SimdI32x4RelaxedTruncF64x2SZero, wasm.SimdI32x4RelaxedTruncF64x2UZero:
		return true
	}
	return false
}

func simdUnary(sub uint32, v lanes.V128) lanes.V128 {
	switch sub {
	case wasm.SimdV128Not:
		return lanes.Not(v)
	case wasm.SimdI8x16Abs:
		return lanes.AbsI8x16(v)
	case wasm.SimdI8x16Neg:
		return lanes.NegI8x16(v)
	case wasm.SimdI16x8ExtaddPairwiseI8x16S:
		return lanes.ExtaddPairwiseI8x16S(v)
	case wasm.SimdI16x8ExtaddPairwiseI8x16U:
		return lanes.ExtaddPairwiseI8x16U(v)
	case wasm.SimdI16x8Abs:
		return lanes.AbsI16x8(v)
	case wasm.SimdI16x8Neg:
		return lanes.NegI16x8(v)
	case wasm.SimdI16x8ExtendLowI8x16S:
		return lanes.ExtendLowI8x16S(v)
	case wasm.SimdI16x8ExtendHighI8x16S:
		return lanes.ExtendHighI8x16S(v)
	case wasm.SimdI16x8ExtendLowI8x16U:
		return lanes.ExtendLowI8x16U(v)
	case wasm.SimdI16x8ExtendHighI8x16U:
		return lanes.ExtendHighI8x16U(v)
	case wasm.SimdI32x4ExtaddPairwiseI16x8S:
		return lanes.ExtaddPairwiseI16x8S(v)
	case wasm.SimdI32x4ExtaddPairwiseI16x8U:
		return lanes.ExtaddPairwiseI16x8U(v)
	case wasm.SimdI32x4Abs:
		return lanes.AbsI32x4(v)
	case wasm.SimdI32x4Neg:
		return lanes.NegI32x4(v)
	case wasm.SimdI32x4ExtendLowI16x8S:
		return lanes.ExtendLowI16x8S(v)
	case wasm.SimdI32x4ExtendHighI16x8S:
		return lanes.ExtendHighI16x8S(v)
	case wasm.SimdI32x4ExtendLowI16x8U:
		return lanes.ExtendLowI16x8U(v)
	case wasm.SimdI32x4ExtendHighI16x8U:
		return lanes.ExtendHighI16x8U(v)
	case wasm.SimdI64x2Abs:
		return lanes.AbsI64x2(v)
	case wasm.SimdI64x2Neg:
		return lanes.NegI64x2(v)
	case wasm.SimdI64x2ExtendLowI32x4S:
		return lanes.ExtendLowI32x4S(v)
	case wasm.SimdI64x2ExtendHighI32x4S:
		return lanes.ExtendHighI32x4S(v)
	case wasm.SimdI64x2ExtendLowI32x4U:
		return lanes.ExtendLowI32x4U(v)
	case wasm.SimdI64x2ExtendHighI32x4U:
		return lanes.ExtendHighI32x4U(v)
	case wasm.SimdF32x4Ceil:
		return lanes.CeilF32x4(v)
	case wasm.SimdF32x4Floor:
		return lanes.FloorF32x4(v)
	case wasm.SimdF32x4Trunc:
		return lanes.TruncF32x4(v)
	case wasm.SimdF32x4Nearest:
		return lanes.NearestF32x4(v)
	case wasm.SimdF32x4Abs:
		return lanes.AbsF32x4(v)
	case wasm.SimdF32x4Neg:
		return lanes.NegF32x4(v)
	case wasm.SimdF32x4Sqrt:
		return lanes.SqrtF32x4(v)
	case wasm.SimdF64x2Ceil:
		return lanes.CeilF64x2(v)
	case wasm.SimdF64x2Floor:
		return lanes.FloorF64x2(v)
	case wasm.SimdF64x2Trunc:
		return lanes.TruncF64x2(v)
	case wasm.SimdF64x2Nearest:
		return lanes.NearestF64x2(v)
	case wasm.SimdF64x2Abs:
		return lanes.AbsF64x2(v)
	case wasm.SimdF64x2Neg:
		return lanes.NegF64x2(v)
	case wasm.SimdF64x2Sqrt:
		return lanes.SqrtF64x2(v)
	case wasm.SimdI32x4TruncSatF32x4S, wasm.SimdI32x4RelaxedTruncF32x4S:
		return lanes.TruncSatF32x4ToI32x4S(v)
	case wasm.SimdI32x4TruncSatF32x4U, wasm.SimdI32x4RelaxedTruncF32x4U:
		return lanes.TruncSatF32x4ToI32x4U(v)
	case wasm.SimdF32x4ConvertI32x4S:
		return lanes.ConvertI32x4ToF32x4S(v)
	case wasm.SimdF32x4ConvertI32x4U:
		return lanes.ConvertI32x4ToF32x4U(v)
	case wasm.SimdI32x4TruncSatF64x2SZero, wasm.SimdI32x4RelaxedTruncF64x2SZero:
		return lanes.TruncSatF64x2ToI32x4SZero(v)
	case wasm.SimdI32x4TruncSatF64x2UZero, wasm.SimdI32x4RelaxedTruncF64x2UZero:
		return lanes.TruncSatF64x2ToI32x4UZero(v)
	case wasm.SimdF64x2ConvertLowI32x4S:
		return lanes.ConvertLowI32x4ToF64x2S(v)
	case wasm.SimdF64x2ConvertLowI32x4U:
		return lanes.ConvertLowI32x4ToF64x2U(v)
	case wasm.SimdF32x4DemoteF64x2Zero:
		return lanes.DemoteF64x2ToF32x4Zero(v)
	case wasm.SimdF64x2PromoteLowF32x4:
		return lanes.PromoteLowF32x4ToF64x2(v)
	}
	return lanes.V128{}
}

func simdBinary(sub uint32, a, b lanes.V128) lanes.V128 {
	switch sub {
	case wasm.SimdI8x16Eq:
		return lanes.EqI8x16(a, b)
	case wasm.SimdI8x16Ne:
		return lanes.NeI8x16(a, b)
	case wasm.SimdI8x16LtS:
		return lanes.LtI8x16S(a, b)
	case wasm.SimdI8x16LtU:
		return lanes.LtI8x16U(a, b)
	case wasm.SimdI8x16GtS:
		return lanes.GtI8x16S(a, b)
	case wasm.SimdI8x16GtU:
		return lanes.GtI8x16U(a, b)
	case wasm.SimdI8x16LeS:
		return lanes.LeI8x16S(a, b)
	case wasm.SimdI8x16LeU:
		return lanes.LeI8x16U(a, b)
	case wasm.SimdI8x16GeS:
		return lanes.GeI8x16S(a, b)
	case wasm.SimdI8x16GeU:
		return lanes.GeI8x16U(a, b)
	case wasm.SimdI16x8Eq:
		return lanes.EqI16x8(a, b)
	case wasm.SimdI16x8Ne:
		return lanes.NeI16x8(a, b)
	case wasm.SimdI16x8LtS:
		return lanes.LtI16x8S(a, b)
	case wasm.SimdI16x8LtU:
		return lanes.LtI16x8U(a, b)
	case wasm.SimdI16x8GtS:
		return lanes.GtI16x8S(a, b)
	case wasm.SimdI16x8GtU:
		return lanes.GtI16x8U(a, b)
	case wasm.SimdI16x8LeS:
		return lanes.LeI16x8S(a, b)
	case wasm.SimdI16x8LeU:
		return lanes.LeI16x8U(a, b)
	case wasm.SimdI16x8GeS:
		return lanes.GeI16x8S(a, b)
	case wasm.SimdI16x8GeU:
		return lanes.GeI16x8U(a, b)
	case wasm.SimdI32x4Eq:
		return lanes.EqI32x4(a, b)
	case wasm.SimdI32x4Ne:
		return lanes.NeI32x4(a, b)
	case wasm.SimdI32x4LtS:
		return lanes.LtI32x4S(a, b)
	case wasm.SimdI32x4LtU:
		return lanes.LtI32x4U(a, b)
	case wasm.SimdI32x4GtS:
		return lanes.GtI32x4S(a, b)
	case wasm.SimdI32x4GtU:
		return lanes.GtI32x4U(a, b)
	case wasm.SimdI32x4LeS:
		return lanes.LeI32x4S(a, b)
	case wasm.SimdI32x4LeU:
		return lanes.LeI32x4U(a, b)
	case wasm.SimdI32x4GeS:
		return lanes.GeI32x4S(a, b)
	case wasm.SimdI32x4GeU:
		return lanes.GeI32x4U(a, b)
	case wasm.SimdI64x2Eq:
		return lanes.EqI64x2(a, b)
	case wasm.SimdI64x2Ne:
		return lanes.NeI64x2(a, b)
	case wasm.SimdI64x2LtS:
		return lanes.LtI64x2S(a, b)
	case wasm.SimdI64x2GtS:
		return lanes.GtI64x2S(a, b)
	case wasm.SimdI64x2LeS:
		return lanes.LeI64x2S(a, b)
	case wasm.SimdI64x2GeS:
		return lanes.GeI64x2S(a, b)
	case wasm.SimdF32x4Eq:
		return lanes.EqF32x4(a, b)
	case wasm.SimdF32x4Ne:
		return lanes.NeF32x4(a, b)
	case wasm.SimdF32x4Lt:
		return lanes.LtF32x4(a, b)
	case wasm.SimdF32x4Gt:
		return lanes.GtF32x4(a, b)
	case wasm.SimdF32x4Le:
		return lanes.LeF32x4(a, b)
	case wasm.SimdF32x4Ge:
		return lanes.GeF32x4(a, b)
	case wasm.SimdF64x2Eq:
		return lanes.EqF64x2(a, b)
	case wasm.SimdF64x2Ne:
		return lanes.NeF64x2(a, b)
	case wasm.SimdF64x2Lt:
		return lanes.LtF64x2(a, b)
	case wasm.SimdF64x2Gt:
		return lanes.GtF64x2(a, b)
	case wasm.SimdF64x2Le:
		return lanes.LeF64x2(a, b)
	case wasm.SimdF64x2Ge:
		return lanes.GeF64x2(a, b)
	case wasm.SimdV128And:
		return lanes.And(a, b)
	case wasm.SimdV128AndNot:
		return lanes.AndNot(a, b)
	case wasm.SimdV128Or:
		return lanes.Or(a, b)
	case wasm.SimdV128Xor:
		return lanes.Xor(a, b)
	case wasm.SimdI8x16Swizzle:
		return lanes.Swizzle(a, b)
	case wasm.SimdI8x16NarrowI16x8S:
		return lanes.NarrowI16x8ToI8x16S(a, b)
	case wasm.SimdI8x16NarrowI16x8U:
		return lanes.NarrowI16x8ToI8x16U(a, b)
	case wasm.SimdI8x16Add:
		return lanes.AddI8x16(a, b)
	case wasm.SimdI8x16AddSatS:
		return lanes.AddSatI8x16S(a, b)
	case wasm.SimdI8x16AddSatU:
		return lanes.AddSatI8x16U(a, b)
	case wasm.SimdI8x16Sub:
		return lanes.SubI8x16(a, b)
	case wasm.SimdI8x16SubSatS:
		return lanes.SubSatI8x16S(a, b)
	case wasm.SimdI8x16SubSatU:
		return lanes.SubSatI8x16U(a, b)
	case wasm.SimdI8x16MinS:
		return lanes.MinI8x16S(a, b)
	case wasm.SimdI8x16MinU:
		return lanes.MinI8x16U(a, b)
	case wasm.SimdI8x16MaxS:
		return lanes.MaxI8x16S(a, b)
	case wasm.SimdI8x16MaxU:
		return lanes.MaxI8x16U(a, b)
	case wasm.SimdI8x16AvgrU:
		return lanes.AvgrU8(a, b)
	case wasm.SimdI16x8NarrowI32x4S:
		return lanes.NarrowI32x4ToI16x8S(a, b)
	case wasm.SimdI16x8NarrowI32x4U:
		return lanes.NarrowI32x4ToI16x8U(a, b)
	case wasm.SimdI16x8Add:
		return lanes.AddI16x8(a, b)
	case wasm.SimdI16x8AddSatS:
		return lanes.AddSatI16x8S(a, b)
	case wasm.SimdI16x8AddSatU:
		return lanes.AddSatI16x8U(a, b)
	case wasm.SimdI16x8Sub:
		return lanes.SubI16x8(a, b)
	case wasm.SimdI16x8SubSatS:
		return lanes.SubSatI16x8S(a, b)
	case wasm.SimdI16x8SubSatU:
		return lanes.SubSatI16x8U(a, b)
	case wasm.SimdI16x8Mul:
		return lanes.MulI16x8(a, b)
	case wasm.SimdI16x8MinS:
		return lanes.MinI16x8S(a, b)
	case wasm.SimdI16x8MinU:
		return lanes.MinI16x8U(a, b)
	case wasm.SimdI16x8MaxS:
		return lanes.MaxI16x8S(a, b)
	case wasm.SimdI16x8MaxU:
		return lanes.MaxI16x8U(a, b)
	case wasm.SimdI16x8AvgrU:
		return lanes.AvgrU16(a, b)
	case wasm.SimdI16x8Q15mulrSatS, wasm.SimdI16x8RelaxedQ15mulrS:
		return lanes.Q15mulrSatS(a, b)
	case wasm.SimdI32x4DotI16x8S:
		return lanes.DotI16x8S(a, b)
	case wasm.SimdI16x8RelaxedDotI8x16I7x16S:
		return dotI8x16I7x16AsV128(a, b)
	case wasm.SimdI32x4Add:
		return lanes.AddI32x4(a, b)
	case wasm.SimdI32x4Sub:
		return lanes.SubI32x4(a, b)
	case wasm.SimdI32x4Mul:
		return lanes.MulI32x4(a, b)
	case wasm.SimdI32x4MinS:
		return lanes.MinI32x4S(a, b)
	case wasm.SimdI32x4MinU:
		return lanes.MinI32x4U(a, b)
	case wasm.SimdI32x4MaxS:
		return lanes.MaxI32x4S(a, b)
	case wasm.SimdI32x4MaxU:
		return lanes.MaxI32x4U(a, b)
	case wasm.SimdI64x2Add:
		return lanes.AddI64x2(a, b)
	case wasm.SimdI64x2Sub:
		return lanes.SubI64x2(a, b)
	case wasm.SimdI64x2Mul:
		return lanes.MulI64x2(a, b)
	case wasm.SimdF32x4Add:
		return lanes.AddF32x4(a, b)
	case wasm.SimdF32x4Sub:
		return lanes.SubF32x4(a, b)
	case wasm.SimdF32x4Mul:
		return lanes.MulF32x4(a, b)
	case wasm.SimdF32x4Div:
		return lanes.DivF32x4(a, b)
	case wasm.SimdF32x4Min, wasm.SimdF32x4RelaxedMin:
		return lanes.MinF32x4(a, b)
	case wasm.SimdF32x4Max, wasm.SimdF32x4RelaxedMax:
		return lanes.MaxF32x4(a, b)
	case wasm.SimdF32x4Pmin:
		return lanes.PminF32x4(a, b)
	case wasm.SimdF32x4Pmax:
		return lanes.PmaxF32x4(a, b)
	case wasm.SimdF64x2Add:
		return lanes.AddF64x2(a, b)
	case wasm.SimdF64x2Sub:
		return lanes.SubF64x2(a, b)
	case wasm.SimdF64x2Mul:
		return lanes.MulF64x2(a, b)
	case wasm.SimdF64x2Div:
		return lanes.DivF64x2(a, b)
	case wasm.SimdF64x2Min, wasm.SimdF64x2RelaxedMin:
		return lanes.MinF64x2(a, b)
	case wasm.SimdF64x2Max, wasm.SimdF64x2RelaxedMax:
		return lanes.MaxF64x2(a, b)
	case wasm.SimdF64x2Pmin:
		return lanes.PminF64x2(a, b)
	case wasm.SimdF64x2Pmax:
		return lanes.PmaxF64x2(a, b)
	}
	return lanes.V128{}
}

// dotI8x16I7x16AsV128 widens DotI8x16I7x16S's raw [16]int16 product into the
// v128 lane layout i16x8.relaxed_dot_i8x16_i7x16_s actually produces.
func dotI8x16I7x16AsV128(a, b lanes.V128) lanes.V128 {
	prod := lanes.DotI8x16I7x16S(a, b)
	var out lanes.V128
	for i, x := range prod {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(x))
	}
	return out
}
