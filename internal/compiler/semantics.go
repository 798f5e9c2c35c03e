package compiler

import (
	"math"
	"math/bits"

	"github.com/wasmi/wasmi/internal/trap"
	"github.com/wasmi/wasmi/wasm"
)

// This file holds the pure numeric semantics shared by the translator's
// constant folder (§4.5: "constant folding is sound") and the interpreter's
// register-register execution of the same opcodes. Keeping one
// implementation per opcode, expressed directly on the 64-bit bit pattern
// the slot holds, is what makes that soundness property automatic instead
// of something that has to be separately verified between two codepaths.

func f32bits(f float32) uint32 { return math.Float32bits(f) }
func f64bits(f float64) uint64 { return math.Float64bits(f) }
func bitsF32(u uint64) float32 { return math.Float32frombits(uint32(u)) }
func bitsF64(u uint64) float64 { return math.Float64frombits(u) }

// EvalUnary evaluates a unary numeric/conversion opcode on operand a,
// returning the trapped indicator when the conversion is out of range.
func EvalUnary(op byte, a uint64) (uint64, trap.Code) {
	switch op {
	case wasm.OpI32Eqz:
		return b2u(uint32(a) == 0), trap.None
	case wasm.OpI64Eqz:
		return b2u(a == 0), trap.None
	case wasm.OpI32Clz:
		return uint64(bits.LeadingZeros32(uint32(a))), trap.None
	case wasm.OpI32Ctz:
		return uint64(bits.TrailingZeros32(uint32(a))), trap.None
	case wasm.OpI32Popcnt:
		return uint64(bits.OnesCount32(uint32(a))), trap.None
	case wasm.OpI32Extend8S:
		return uint64(uint32(int32(int8(a)))), trap.None
	case wasm.OpI32Extend16S:
		return uint64(uint32(int32(int16(a)))), trap.None
	case wasm.OpI64Clz:
		return uint64(bits.LeadingZeros64(a)), trap.None
	case wasm.OpI64Ctz:
		return uint64(bits.TrailingZeros64(a)), trap.None
	case wasm.OpI64Popcnt:
		return uint64(bits.OnesCount64(a)), trap.None
	case wasm.OpI64Extend8S:
		return uint64(int64(int8(a))), trap.None
	case wasm.OpI64Extend16S:
		return uint64(int64(int16(a))), trap.None
	case wasm.OpI64Extend32S:
		return uint64(int64(int32(a))), trap.None
	case wasm.OpF32Abs:
		return uint64(f32bits(float32(math.Abs(float64(bitsF32(a)))))), trap.None
	case wasm.OpF32Neg:
		return uint64(f32bits(-bitsF32(a))), trap.None
	case wasm.OpF32Ceil:
		return uint64(f32bits(float32(math.Ceil(float64(bitsF32(a)))))), trap.None
	case wasm.OpF32Floor:
		return uint64(f32bits(float32(math.Floor(float64(bitsF32(a)))))), trap.None
	case wasm.OpF32Trunc:
		return uint64(f32bits(float32(math.Trunc(float64(bitsF32(a)))))), trap.None
	case wasm.OpF32Nearest:
		return uint64(f32bits(float32(math.RoundToEven(float64(bitsF32(a)))))), trap.None
	case wasm.OpF32Sqrt:
		return uint64(f32bits(float32(math.Sqrt(float64(bitsF32(a)))))), trap.None
	case wasm.OpF64Abs:
		return f64bits(math.Abs(bitsF64(a))), trap.None
	case wasm.OpF64Neg:
		return f64bits(-bitsF64(a)), trap.None
	case wasm.OpF64Ceil:
		return f64bits(math.Ceil(bitsF64(a))), trap.None
	case wasm.OpF64Floor:
		return f64bits(math.Floor(bitsF64(a))), trap.None
	case wasm.OpF64Trunc:
		return f64bits(math.Trunc(bitsF64(a))), trap.None
	case wasm.OpF64Nearest:
		return f64bits(math.RoundToEven(bitsF64(a))), trap.None
	case wasm.OpF64Sqrt:
		return f64bits(math.Sqrt(bitsF64(a))), trap.None
	case wasm.OpI32WrapI64:
		return uint64(uint32(a)), trap.None
	case wasm.OpI64ExtendI32S:
		return uint64(int64(int32(a))), trap.None
	case wasm.OpI64ExtendI32U:
		return uint64(uint32(a)), trap.None
	case wasm.OpF32DemoteF64:
		return uint64(f32bits(float32(bitsF64(a)))), trap.None
	case wasm.OpF64PromoteF32:
		return f64bits(float64(bitsF32(a))), trap.None
	case wasm.OpF32ConvertI32S:
		return uint64(f32bits(float32(int32(a)))), trap.None
	case wasm.OpF32ConvertI32U:
		return uint64(f32bits(float32(uint32(a)))), trap.None
	case wasm.OpF32ConvertI64S:
		return uint64(f32bits(float32(int64(a)))), trap.None
	case wasm.OpF32ConvertI64U:
		return uint64(f32bits(float32(a))), trap.None
	case wasm.OpF64ConvertI32S:
		return f64bits(float64(int32(a))), trap.None
	case wasm.OpF64ConvertI32U:
		return f64bits(float64(uint32(a))), trap.None
	case wasm.OpF64ConvertI64S:
		return f64bits(float64(int64(a))), trap.None
	case wasm.OpF64ConvertI64U:
		return f64bits(float64(a)), trap.None
	case wasm.OpI32ReinterpretF32, wasm.OpI64ReinterpretF64, wasm.OpF32ReinterpretI32, wasm.OpF64ReinterpretI64:
		return a, trap.None
	case wasm.OpI32TruncF32S:
		return truncToInt(float64(bitsF32(a)), math.MinInt32, math.MaxInt32, 32, true)
	case wasm.OpI32TruncF32U:
		return truncToInt(float64(bitsF32(a)), 0, math.MaxUint32, 32, false)
	case wasm.OpI32TruncF64S:
		return truncToInt(bitsF64(a), math.MinInt32, math.MaxInt32, 32, true)
	case wasm.OpI32TruncF64U:
		return truncToInt(bitsF64(a), 0, math.MaxUint32, 32, false)
	case wasm.OpI64TruncF32S:
		return truncToInt64(float64(bitsF32(a)), true)
	case wasm.OpI64TruncF32U:
		return truncToInt64(float64(bitsF32(a)), false)
	case wasm.OpI64TruncF64S:
		return truncToInt64(bitsF64(a), true)
	case wasm.OpI64TruncF64U:
		return truncToInt64(bitsF64(a), false)
	}
	panic("compiler: EvalUnary called with non-unary opcode")
}

// EvalSatUnary evaluates the saturating truncation family (0xFC misc
// sub-opcodes 0-7): it never traps, clamping out-of-range and NaN inputs to
// the representable extreme instead.
func EvalSatUnary(sub uint32, a uint64) uint64 {
	switch sub {
	case wasm.MiscI32TruncSatF32S:
		return uint64(uint32(satTrunc(float64(bitsF32(a)), math.MinInt32, math.MaxInt32)))
	case wasm.MiscI32TruncSatF32U:
		return uint64(uint32(satTrunc(float64(bitsF32(a)), 0, math.MaxUint32)))
	case wasm.MiscI32TruncSatF64S:
		return uint64(uint32(satTrunc(bitsF64(a), math.MinInt32, math.MaxInt32)))
	case wasm.MiscI32TruncSatF64U:
		return uint64(uint32(satTrunc(bitsF64(a), 0, math.MaxUint32)))
	case wasm.MiscI64TruncSatF32S:
		return uint64(satTruncI64(float64(bitsF32(a)), true))
	case wasm.MiscI64TruncSatF32U:
		return uint64(satTruncI64(float64(bitsF32(a)), false))
	case wasm.MiscI64TruncSatF64S:
		return uint64(satTruncI64(bitsF64(a), true))
	case wasm.MiscI64TruncSatF64U:
		return uint64(satTruncI64(bitsF64(a), false))
	}
	panic("compiler: EvalSatUnary called with non-sat-trunc sub-opcode")
}

func satTrunc(f float64, lo, hi int64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	t := math.Trunc(f)
	if t < float64(lo) {
		return lo
	}
	if t > float64(hi) {
		return hi
	}
	return int64(t)
}

func satTruncI64(f float64, signed bool) int64 {
	if math.IsNaN(f) {
		return 0
	}
	t := math.Trunc(f)
	if signed {
		if t < math.MinInt64 {
			return math.MinInt64
		}
		if t >= math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(t)
	}
	if t < 0 {
		return 0
	}
	if t >= math.MaxUint64 {
		return -1 // uint64(math.MaxUint64)
	}
	return int64(uint64(t))
}

func truncToInt(f float64, lo, hi int64, _ int, signed bool) (uint64, trap.Code) {
	if math.IsNaN(f) {
		return 0, trap.InvalidConversionToInteger
	}
	t := math.Trunc(f)
	if t < float64(lo) || t > float64(hi) {
		return 0, trap.IntegerOverflow
	}
	if signed {
		return uint64(uint32(int32(t))), trap.None
	}
	return uint64(uint32(t)), trap.None
}

func truncToInt64(f float64, signed bool) (uint64, trap.Code) {
	if math.IsNaN(f) {
		return 0, trap.InvalidConversionToInteger
	}
	t := math.Trunc(f)
	if signed {
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return 0, trap.IntegerOverflow
		}
		return uint64(int64(t)), trap.None
	}
	if t < 0 || t >= math.MaxUint64 {
		return 0, trap.IntegerOverflow
	}
	return uint64(t), trap.None
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// EvalBinary evaluates a binary numeric/comparison opcode on operands a, b
// (a is the left/first-pushed operand). Division and remainder report
// trap.IntegerDivisionByZero / trap.IntegerOverflow instead of panicking so
// both the constant folder and the interpreter can surface a trap the same
// way.
func EvalBinary(op byte, a, b uint64) (uint64, trap.Code) {
	switch op {
	case wasm.OpI32Add:
		return uint64(uint32(a) + uint32(b)), trap.None
	case wasm.OpI32Sub:
		return uint64(uint32(a) - uint32(b)), trap.None
	case wasm.OpI32Mul:
		return uint64(uint32(a) * uint32(b)), trap.None
	case wasm.OpI32DivS:
		x, y := int32(a), int32(b)
		if y == 0 {
			return 0, trap.IntegerDivisionByZero
		}
		if x == math.MinInt32 && y == -1 {
			return 0, trap.IntegerOverflow
		}
		return uint64(uint32(x / y)), trap.None
	case wasm.OpI32DivU:
		if uint32(b) == 0 {
			return 0, trap.IntegerDivisionByZero
		}
		return uint64(uint32(a) / uint32(b)), trap.None
	case wasm.OpI32RemS:
		x, y := int32(a), int32(b)
		if y == 0 {
			return 0, trap.IntegerDivisionByZero
		}
		if x == math.MinInt32 && y == -1 {
			return 0, trap.None
		}
		return uint64(uint32(x % y)), trap.None
	case wasm.OpI32RemU:
		if uint32(b) == 0 {
			return 0, trap.IntegerDivisionByZero
		}
		return uint64(uint32(a) % uint32(b)), trap.None
	case wasm.OpI32And:
		return uint64(uint32(a) & uint32(b)), trap.None
	case wasm.OpI32Or:
		return uint64(uint32(a) | uint32(b)), trap.None
	case wasm.OpI32Xor:
		return uint64(uint32(a) ^ uint32(b)), trap.None
	case wasm.OpI32Shl:
		return uint64(uint32(a) << (uint32(b) & 31)), trap.None
	case wasm.OpI32ShrS:
		return uint64(uint32(int32(a) >> (uint32(b) & 31))), trap.None
	case wasm.OpI32ShrU:
		return uint64(uint32(a) >> (uint32(b) & 31)), trap.None
	case wasm.OpI32Rotl:
		return uint64(bits.RotateLeft32(uint32(a), int(b&31))), trap.None
	case wasm.OpI32Rotr:
		return uint64(bits.RotateLeft32(uint32(a), -int(b&31))), trap.None

	case wasm.OpI64Add:
		return a + b, trap.None
	case wasm.OpI64Sub:
		return a - b, trap.None
	case wasm.OpI64Mul:
		return a * b, trap.None
	case wasm.OpI64DivS:
		x, y := int64(a), int64(b)
		if y == 0 {
			return 0, trap.IntegerDivisionByZero
		}
		if x == math.MinInt64 && y == -1 {
			return 0, trap.IntegerOverflow
		}
		return uint64(x / y), trap.None
	case wasm.OpI64DivU:
		if b == 0 {
			return 0, trap.IntegerDivisionByZero
		}
		return a / b, trap.None
	case wasm.OpI64RemS:
		x, y := int64(a), int64(b)
		if y == 0 {
			return 0, trap.IntegerDivisionByZero
		}
		if x == math.MinInt64 && y == -1 {
			return 0, trap.None
		}
		return uint64(x % y), trap.None
	case wasm.OpI64RemU:
		if b == 0 {
			return 0, trap.IntegerDivisionByZero
		}
		return a % b, trap.None
	case wasm.OpI64And:
		return a & b, trap.None
	case wasm.OpI64Or:
		return a | b, trap.None
	case wasm.OpI64Xor:
		return a ^ b, trap.None
	case wasm.OpI64Shl:
		return a << (b & 63), trap.None
	case wasm.OpI64ShrS:
		return uint64(int64(a) >> (b & 63)), trap.None
	case wasm.OpI64ShrU:
		return a >> (b & 63), trap.None
	case wasm.OpI64Rotl:
		return bits.RotateLeft64(a, int(b&63)), trap.None
	case wasm.OpI64Rotr:
		return bits.RotateLeft64(a, -int(b&63)), trap.None

	case wasm.OpF32Add:
		return uint64(f32bits(bitsF32(a) + bitsF32(b))), trap.None
	case wasm.OpF32Sub:
		return uint64(f32bits(bitsF32(a) - bitsF32(b))), trap.None
	case wasm.OpF32Mul:
		return uint64(f32bits(bitsF32(a) * bitsF32(b))), trap.None
	case wasm.OpF32Div:
		return uint64(f32bits(bitsF32(a) / bitsF32(b))), trap.None
	case wasm.OpF32Min:
		return uint64(f32bits(wasmMinF32(bitsF32(a), bitsF32(b)))), trap.None
	case wasm.OpF32Max:
		return uint64(f32bits(wasmMaxF32(bitsF32(a), bitsF32(b)))), trap.None
	case wasm.OpF32Copysign:
		return uint64(f32bits(float32(math.Copysign(float64(bitsF32(a)), float64(bitsF32(b)))))), trap.None

	case wasm.OpF64Add:
		return f64bits(bitsF64(a) + bitsF64(b)), trap.None
	case wasm.OpF64Sub:
		return f64bits(bitsF64(a) - bitsF64(b)), trap.None
	case wasm.OpF64Mul:
		return f64bits(bitsF64(a) * bitsF64(b)), trap.None
	case wasm.OpF64Div:
		return f64bits(bitsF64(a) / bitsF64(b)), trap.None
	case wasm.OpF64Min:
		return f64bits(wasmMinF64(bitsF64(a), bitsF64(b))), trap.None
	case wasm.OpF64Max:
		return f64bits(wasmMaxF64(bitsF64(a), bitsF64(b))), trap.None
	case wasm.OpF64Copysign:
		return f64bits(math.Copysign(bitsF64(a), bitsF64(b))), trap.None

	case wasm.OpI32Eq:
		return b2u(uint32(a) == uint32(b)), trap.None
	case wasm.OpI32Ne:
		return b2u(uint32(a) != uint32(b)), trap.None
	case wasm.OpI32LtS:
		return b2u(int32(a) < int32(b)), trap.None
	case wasm.OpI32LtU:
		return b2u(uint32(a) < uint32(b)), trap.None
	case wasm.OpI32GtS:
		return b2u(int32(a) > int32(b)), trap.None
	case wasm.OpI32GtU:
		return b2u(uint32(a) > uint32(b)), trap.None
	case wasm.OpI32LeS:
		return b2u(int32(a) <= int32(b)), trap.None
	case wasm.OpI32LeU:
		return b2u(uint32(a) <= uint32(b)), trap.None
	case wasm.OpI32GeS:
		return b2u(int32(a) >= int32(b)), trap.None
	case wasm.OpI32GeU:
		return b2u(uint32(a) >= uint32(b)), trap.None

	case wasm.OpI64Eq:
		return b2u(a == b), trap.None
	case wasm.OpI64Ne:
		return b2u(a != b), trap.None
	case wasm.OpI64LtS:
		return b2u(int64(a) < int64(b)), trap.None
	case wasm.OpI64LtU:
		return b2u(a < b), trap.None
	case wasm.OpI64GtS:
		return b2u(int64(a) > int64(b)), trap.None
	case wasm.OpI64GtU:
		return b2u(a > b), trap.None
	case wasm.OpI64LeS:
		return b2u(int64(a) <= int64(b)), trap.None
	case wasm.OpI64LeU:
		return b2u(a <= b), trap.None
	case wasm.OpI64GeS:
		return b2u(int64(a) >= int64(b)), trap.None
	case wasm.OpI64GeU:
		return b2u(a >= b), trap.None

	case wasm.OpF32Eq:
		return b2u(bitsF32(a) == bitsF32(b)), trap.None
	case wasm.OpF32Ne:
		return b2u(bitsF32(a) != bitsF32(b)), trap.None
	case wasm.OpF32Lt:
		return b2u(bitsF32(a) < bitsF32(b)), trap.None
	case wasm.OpF32Gt:
		return b2u(bitsF32(a) > bitsF32(b)), trap.None
	case wasm.OpF32Le:
		return b2u(bitsF32(a) <= bitsF32(b)), trap.None
	case wasm.OpF32Ge:
		return b2u(bitsF32(a) >= bitsF32(b)), trap.None

	case wasm.OpF64Eq:
		return b2u(bitsF64(a) == bitsF64(b)), trap.None
	case wasm.OpF64Ne:
		return b2u(bitsF64(a) != bitsF64(b)), trap.None
	case wasm.OpF64Lt:
		return b2u(bitsF64(a) < bitsF64(b)), trap.None
	case wasm.OpF64Gt:
		return b2u(bitsF64(a) > bitsF64(b)), trap.None
	case wasm.OpF64Le:
		return b2u(bitsF64(a) <= bitsF64(b)), trap.None
	case wasm.OpF64Ge:
		return b2u(bitsF64(a) >= bitsF64(b)), trap.None
	}
	panic("compiler: EvalBinary called with non-binary opcode")
}

func wasmMinF32(x, y float32) float32 {
	if math.IsNaN(float64(x)) || math.IsNaN(float64(y)) {
		return float32(math.NaN())
	}
	if x == 0 && y == 0 {
		if math.Signbit(float64(x)) || math.Signbit(float64(y)) {
			return float32(math.Copysign(0, -1))
		}
		return 0
	}
	if x < y {
		return x
	}
	return y
}

func wasmMaxF32(x, y float32) float32 {
	if math.IsNaN(float64(x)) || math.IsNaN(float64(y)) {
		return float32(math.NaN())
	}
	if x == 0 && y == 0 {
		if !math.Signbit(float64(x)) || !math.Signbit(float64(y)) {
			return 0
		}
		return float32(math.Copysign(0, -1))
	}
	if x > y {
		return x
	}
	return y
}

func wasmMinF64(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	if x == 0 && y == 0 {
		if math.Signbit(x) || math.Signbit(y) {
			return math.Copysign(0, -1)
		}
		return 0
	}
	if x < y {
		return x
	}
	return y
}

func wasmMaxF64(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	if x == 0 && y == 0 {
		if !math.Signbit(x) || !math.Signbit(y) {
			return 0
		}
		return math.Copysign(0, -1)
	}
	if x > y {
		return x
	}
	return y
}

// IsCommutative reports whether swapping a binary opcode's operands leaves
// its result unchanged. The translator does not consult it: mixed
// register/constant operands keep their source order (see
// visitBinaryMixed).
func IsCommutative(op byte) bool {
	switch op {
	case wasm.OpI32Add, wasm.OpI32Mul, wasm.OpI32And, wasm.OpI32Or, wasm.OpI32Xor,
		wasm.OpI64Add, wasm.OpI64Mul, wasm.OpI64And, wasm.OpI64Or, wasm.OpI64Xor,
		wasm.OpF32Add, wasm.OpF32Mul, wasm.OpF64Add, wasm.OpF64Mul,
		wasm.OpI32Eq, wasm.OpI32Ne, wasm.OpI64Eq, wasm.OpI64Ne,
		wasm.OpF32Eq, wasm.OpF32Ne, wasm.OpF64Eq, wasm.OpF64Ne:
		return true
	default:
		return false
	}
}
