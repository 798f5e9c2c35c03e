// Package lanes implements the typed-lane operations the SIMD operator
// visitor and interpreter share: splat, extract/replace, pointwise
// unary/binary/comparison ops, narrowing/widening, shuffle/swizzle, and the
// handful of named special ops (q15mulr_sat, bitselect, dot).
//
// Wasm source code expresses this with a trait-like generic abstraction
// over a macro-expanded lane-shape family; a single byte array plus a
// lane-count type parameter is not expressible the same way in Go, so this
// package instead exposes one concrete function per shape (I8x16, I16x8,
// I32x4, I64x2, F32x4, F64x2) built on a small set of generic map/map2
// helpers that do know how to walk a fixed lane width. The lane-count
// safety the source gets from its type system, this package gets from
// ExtractLane/ReplaceLane taking a lane index already range-checked by the
// decode-time validator (see wasm.validateLaneIdx).
package lanes

import (
	"encoding/binary"
	"math"
)

// V128 is a 128-bit SIMD value. Byte order matches the Wasm binary
// encoding: lane 0 occupies the low-order bytes.
type V128 [16]byte

func laneU8(v V128, i int) uint8    { return v[i] }
func laneU16(v V128, i int) uint16  { return binary.LittleEndian.Uint16(v[i*2:]) }
func laneU32(v V128, i int) uint32  { return binary.LittleEndian.Uint32(v[i*4:]) }
func laneU64(v V128, i int) uint64  { return binary.LittleEndian.Uint64(v[i*8:]) }
func setU8(v *V128, i int, x uint8) { v[i] = x }
func setU16(v *V128, i int, x uint16) {
	binary.LittleEndian.PutUint16(v[i*2:], x)
}
func setU32(v *V128, i int, x uint32) {
	binary.LittleEndian.PutUint32(v[i*4:], x)
}
func setU64(v *V128, i int, x uint64) {
	binary.LittleEndian.PutUint64(v[i*8:], x)
}

func mapU8(v V128, f func(uint8) uint8) V128 {
	var out V128
	for i := 0; i < 16; i++ {
		setU8(&out, i, f(laneU8(v, i)))
	}
	return out
}

func map2U8(a, b V128, f func(uint8, uint8) uint8) V128 {
	var out V128
	for i := 0; i < 16; i++ {
		setU8(&out, i, f(laneU8(a, i), laneU8(b, i)))
	}
	return out
}

func mapU16(v V128, f func(uint16) uint16) V128 {
	var out V128
	for i := 0; i < 8; i++ {
		setU16(&out, i, f(laneU16(v, i)))
	}
	return out
}

func map2U16(a, b V128, f func(uint16, uint16) uint16) V128 {
	var out V128
	for i := 0; i < 8; i++ {
		setU16(&out, i, f(laneU16(a, i), laneU16(b, i)))
	}
	return out
}

func mapU32(v V128, f func(uint32) uint32) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		setU32(&out, i, f(laneU32(v, i)))
	}
	return out
}

func map2U32(a, b V128, f func(uint32, uint32) uint32) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		setU32(&out, i, f(laneU32(a, i), laneU32(b, i)))
	}
	return out
}

func mapU64(v V128, f func(uint64) uint64) V128 {
	var out V128
	for i := 0; i < 2; i++ {
		setU64(&out, i, f(laneU64(v, i)))
	}
	return out
}

func map2U64(a, b V128, f func(uint64, uint64) uint64) V128 {
	var out V128
	for i := 0; i < 2; i++ {
		setU64(&out, i, f(laneU64(a, i), laneU64(b, i)))
	}
	return out
}

func boolMask8(b bool) uint8 {
	if b {
		return 0xFF
	}
	return 0
}
func boolMask16(b bool) uint16 {
	if b {
		return 0xFFFF
	}
	return 0
}
func boolMask32(b bool) uint32 {
	if b {
		return 0xFFFFFFFF
	}
	return 0
}
func boolMask64(b bool) uint64 {
	if b {
		return 0xFFFFFFFFFFFFFFFF
	}
	return 0
}

func satI8(x int32) int8 {
	if x > 127 {
		return 127
	}
	if x < -128 {
		return -128
	}
	return int8(x)
}
func satU8(x int32) uint8 {
	if x > 255 {
		return 255
	}
	if x < 0 {
		return 0
	}
	return uint8(x)
}
func satI16(x int32) int16 {
	if x > 32767 {
		return 32767
	}
	if x < -32768 {
		return -32768
	}
	return int16(x)
}
func satU16(x int32) uint16 {
	if x > 65535 {
		return 65535
	}
	if x < 0 {
		return 0
	}
	return uint16(x)
}

// --- splat ---

func SplatI8x16(x int8) V128 {
	var v V128
	for i := range v {
		v[i] = byte(x)
	}
	return v
}

func SplatI16x8(x int16) V128 {
	var v V128
	for i := 0; i < 8; i++ {
		setU16(&v, i, uint16(x))
	}
	return v
}

func SplatI32x4(x int32) V128 {
	var v V128
	for i := 0; i < 4; i++ {
		setU32(&v, i, uint32(x))
	}
	return v
}

func SplatI64x2(x int64) V128 {
	var v V128
	for i := 0; i < 2; i++ {
		setU64(&v, i, uint64(x))
	}
	return v
}

func SplatF32x4(x float32) V128 {
	return SplatI32x4(int32(math.Float32bits(x)))
}

func SplatF64x2(x float64) V128 {
	return SplatI64x2(int64(math.Float64bits(x)))
}

// --- extract / replace lane ---

func ExtractLaneI8x16S(v V128, i int) int32  { return int32(int8(laneU8(v, i))) }
func ExtractLaneI8x16U(v V128, i int) int32  { return int32(laneU8(v, i)) }
func ExtractLaneI16x8S(v V128, i int) int32  { return int32(int16(laneU16(v, i))) }
func ExtractLaneI16x8U(v V128, i int) int32  { return int32(laneU16(v, i)) }
func ExtractLaneI32x4(v V128, i int) int32   { return int32(laneU32(v, i)) }
func ExtractLaneI64x2(v V128, i int) int64   { return int64(laneU64(v, i)) }
func ExtractLaneF32x4(v V128, i int) float32 { return math.Float32frombits(laneU32(v, i)) }
func ExtractLaneF64x2(v V128, i int) float64 { return math.Float64frombits(laneU64(v, i)) }

func ReplaceLaneI8x16(v V128, i int, x int8) V128 {
	out := v
	setU8(&out, i, uint8(x))
	return out
}
func ReplaceLaneI16x8(v V128, i int, x int16) V128 {
	out := v
	setU16(&out, i, uint16(x))
	return out
}
func ReplaceLaneI32x4(v V128, i int, x int32) V128 {
	out := v
	setU32(&out, i, uint32(x))
	return out
}
func ReplaceLaneI64x2(v V128, i int, x int64) V128 {
	out := v
	setU64(&out, i, uint64(x))
	return out
}
func ReplaceLaneF32x4(v V128, i int, x float32) V128 {
	return ReplaceLaneI32x4(v, i, int32(math.Float32bits(x)))
}
func ReplaceLaneF64x2(v V128, i int, x float64) V128 {
	return ReplaceLaneI64x2(v, i, int64(math.Float64bits(x)))
}

// --- bitwise ---

func Not(v V128) V128 { return mapU8(v, func(x uint8) uint8 { return ^x }) }
func And(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return x & y })
}
func AndNot(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return x &^ y })
}
func Or(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return x | y })
}
func Xor(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return x ^ y })
}

// Bitselect computes, per bit, (v1 & c) | (v2 & ~c).
func Bitselect(v1, v2, c V128) V128 {
	return Or(And(v1, c), AndNot(v2, c))
}

// --- any_true / all_true / bitmask ---

func AnyTrue(v V128) bool {
	for _, b := range v {
		if b != 0 {
			return true
		}
	}
	return false
}

func AllTrueI8x16(v V128) bool {
	for i := 0; i < 16; i++ {
		if laneU8(v, i) == 0 {
			return false
		}
	}
	return true
}
func AllTrueI16x8(v V128) bool {
	for i := 0; i < 8; i++ {
		if laneU16(v, i) == 0 {
			return false
		}
	}
	return true
}
func AllTrueI32x4(v V128) bool {
	for i := 0; i < 4; i++ {
		if laneU32(v, i) == 0 {
			return false
		}
	}
	return true
}
func AllTrueI64x2(v V128) bool {
	for i := 0; i < 2; i++ {
		if laneU64(v, i) == 0 {
			return false
		}
	}
	return true
}

func BitmaskI8x16(v V128) int32 {
	var m int32
	for i := 0; i < 16; i++ {
		if int8(laneU8(v, i)) < 0 {
			m |= 1 << uint(i)
		}
	}
	return m
}
func BitmaskI16x8(v V128) int32 {
	var m int32
	for i := 0; i < 8; i++ {
		if int16(laneU16(v, i)) < 0 {
			m |= 1 << uint(i)
		}
	}
	return m
}
func BitmaskI32x4(v V128) int32 {
	var m int32
	for i := 0; i < 4; i++ {
		if int32(laneU32(v, i)) < 0 {
			m |= 1 << uint(i)
		}
	}
	return m
}
func BitmaskI64x2(v V128) int32 {
	var m int32
	for i := 0; i < 2; i++ {
		if int64(laneU64(v, i)) < 0 {
			m |= 1 << uint(i)
		}
	}
	return m
}

// --- integer arithmetic ---

func AbsI8x16(v V128) V128 {
	return mapU8(v, func(x uint8) uint8 {
		s := int8(x)
		if s < 0 {
			s = -s
		}
		return uint8(s)
	})
}
func NegI8x16(v V128) V128 { return mapU8(v, func(x uint8) uint8 { return uint8(-int8(x)) }) }
func AddI8x16(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return x + y })
}
func SubI8x16(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return x - y })
}
func AddSatI8x16S(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return uint8(satI8(int32(int8(x)) + int32(int8(y)))) })
}
func AddSatI8x16U(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return satU8(int32(x) + int32(y)) })
}
func SubSatI8x16S(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return uint8(satI8(int32(int8(x)) - int32(int8(y)))) })
}
func SubSatI8x16U(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return satU8(int32(x) - int32(y)) })
}
func MinI8x16S(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 {
		if int8(x) < int8(y) {
			return x
		}
		return y
	})
}
func MinI8x16U(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 {
		if x < y {
			return x
		}
		return y
	})
}
func MaxI8x16S(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 {
		if int8(x) > int8(y) {
			return x
		}
		return y
	})
}
func MaxI8x16U(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 {
		if x > y {
			return x
		}
		return y
	})
}
func AvgrU8(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return uint8((uint32(x) + uint32(y) + 1) / 2) })
}

func AbsI16x8(v V128) V128 {
	return mapU16(v, func(x uint16) uint16 {
		s := int16(x)
		if s < 0 {
			s = -s
		}
		return uint16(s)
	})
}
func NegI16x8(v V128) V128 { return mapU16(v, func(x uint16) uint16 { return uint16(-int16(x)) }) }
func AddI16x8(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return x + y })
}
func SubI16x8(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return x - y })
}
func MulI16x8(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return x * y })
}
func AddSatI16x8S(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 {
		return uint16(satI16(int32(int16(x)) + int32(int16(y))))
	})
}
func AddSatI16x8U(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return satU16(int32(x) + int32(y)) })
}
func SubSatI16x8S(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 {
		return uint16(satI16(int32(int16(x)) - int32(int16(y))))
	})
}
func SubSatI16x8U(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return satU16(int32(x) - int32(y)) })
}
func MinI16x8S(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 {
		if int16(x) < int16(y) {
			return x
		}
		return y
	})
}
func MinI16x8U(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 {
		if x < y {
			return x
		}
		return y
	})
}
func MaxI16x8S(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 {
		if int16(x) > int16(y) {
			return x
		}
		return y
	})
}
func MaxI16x8U(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 {
		if x > y {
			return x
		}
		return y
	})
}
func AvgrU16(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return uint16((uint32(x) + uint32(y) + 1) / 2) })
}

// Q15mulrSatS computes (a*b + 0x4000) >> 15, clamped to i16, per lane.
func Q15mulrSatS(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 {
		prod := (int32(int16(x))*int32(int16(y)) + 0x4000) >> 15
		return uint16(satI16(prod))
	})
}

func AbsI32x4(v V128) V128 {
	return mapU32(v, func(x uint32) uint32 {
		s := int32(x)
		if s < 0 {
			s = -s
		}
		return uint32(s)
	})
}
func NegI32x4(v V128) V128 { return mapU32(v, func(x uint32) uint32 { return uint32(-int32(x)) }) }
func AddI32x4(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return x + y })
}
func SubI32x4(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return x - y })
}
func MulI32x4(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return x * y })
}
func MinI32x4S(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 {
		if int32(x) < int32(y) {
			return x
		}
		return y
	})
}
func MinI32x4U(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 {
		if x < y {
			return x
		}
		return y
	})
}
func MaxI32x4S(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 {
		if int32(x) > int32(y) {
			return x
		}
		return y
	})
}
func MaxI32x4U(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 {
		if x > y {
			return x
		}
		return y
	})
}

// DotI16x8S computes i32x4.dot_i16x8_s: pairwise-multiply-add of adjacent
// i16 lanes into i32 results.
func DotI16x8S(a, b V128) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		lo := int32(int16(laneU16(a, 2*i))) * int32(int16(laneU16(b, 2*i)))
		hi := int32(int16(laneU16(a, 2*i+1))) * int32(int16(laneU16(b, 2*i+1)))
		setU32(&out, i, uint32(lo+hi))
	}
	return out
}

func AbsI64x2(v V128) V128 {
	return mapU64(v, func(x uint64) uint64 {
		s := int64(x)
		if s < 0 {
			s = -s
		}
		return uint64(s)
	})
}
func NegI64x2(v V128) V128 { return mapU64(v, func(x uint64) uint64 { return uint64(-int64(x)) }) }
func AddI64x2(a, b V128) V128 {
	return map2U64(a, b, func(x, y uint64) uint64 { return x + y })
}
func SubI64x2(a, b V128) V128 {
	return map2U64(a, b, func(x, y uint64) uint64 { return x - y })
}
func MulI64x2(a, b V128) V128 {
	return map2U64(a, b, func(x, y uint64) uint64 { return x * y })
}

// --- shifts (scalar shift count, taken mod lane width) ---

func ShlI8x16(v V128, n int) V128 {
	n &= 7
	return mapU8(v, func(x uint8) uint8 { return x << uint(n) })
}
func ShrI8x16S(v V128, n int) V128 {
	n &= 7
	return mapU8(v, func(x uint8) uint8 { return uint8(int8(x) >> uint(n)) })
}
func ShrI8x16U(v V128, n int) V128 {
	n &= 7
	return mapU8(v, func(x uint8) uint8 { return x >> uint(n) })
}
func ShlI16x8(v V128, n int) V128 {
	n &= 15
	return mapU16(v, func(x uint16) uint16 { return x << uint(n) })
}
func ShrI16x8S(v V128, n int) V128 {
	n &= 15
	return mapU16(v, func(x uint16) uint16 { return uint16(int16(x) >> uint(n)) })
}
func ShrI16x8U(v V128, n int) V128 {
	n &= 15
	return mapU16(v, func(x uint16) uint16 { return x >> uint(n) })
}
func ShlI32x4(v V128, n int) V128 {
	n &= 31
	return mapU32(v, func(x uint32) uint32 { return x << uint(n) })
}
func ShrI32x4S(v V128, n int) V128 {
	n &= 31
	return mapU32(v, func(x uint32) uint32 { return uint32(int32(x) >> uint(n)) })
}
func ShrI32x4U(v V128, n int) V128 {
	n &= 31
	return mapU32(v, func(x uint32) uint32 { return x >> uint(n) })
}
func ShlI64x2(v V128, n int) V128 {
	n &= 63
	return mapU64(v, func(x uint64) uint64 { return x << uint(n) })
}
func ShrI64x2S(v V128, n int) V128 {
	n &= 63
	return mapU64(v, func(x uint64) uint64 { return uint64(int64(x) >> uint(n)) })
}
func ShrI64x2U(v V128, n int) V128 {
	n &= 63
	return mapU64(v, func(x uint64) uint64 { return x >> uint(n) })
}

// --- comparisons (produce all-ones/all-zeros masks) ---

func EqI8x16(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return boolMask8(x == y) })
}
func NeI8x16(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return boolMask8(x != y) })
}
func LtI8x16S(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return boolMask8(int8(x) < int8(y)) })
}
func LtI8x16U(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return boolMask8(x < y) })
}
func GtI8x16S(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return boolMask8(int8(x) > int8(y)) })
}
func GtI8x16U(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return boolMask8(x > y) })
}
func LeI8x16S(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return boolMask8(int8(x) <= int8(y)) })
}
func LeI8x16U(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return boolMask8(x <= y) })
}
func GeI8x16S(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return boolMask8(int8(x) >= int8(y)) })
}
func GeI8x16U(a, b V128) V128 {
	return map2U8(a, b, func(x, y uint8) uint8 { return boolMask8(x >= y) })
}

func EqI16x8(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return boolMask16(x == y) })
}
func NeI16x8(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return boolMask16(x != y) })
}
func LtI16x8S(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return boolMask16(int16(x) < int16(y)) })
}
func LtI16x8U(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return boolMask16(x < y) })
}
func GtI16x8S(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return boolMask16(int16(x) > int16(y)) })
}
func GtI16x8U(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return boolMask16(x > y) })
}
func LeI16x8S(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return boolMask16(int16(x) <= int16(y)) })
}
func LeI16x8U(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return boolMask16(x <= y) })
}
func GeI16x8S(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return boolMask16(int16(x) >= int16(y)) })
}
func GeI16x8U(a, b V128) V128 {
	return map2U16(a, b, func(x, y uint16) uint16 { return boolMask16(x >= y) })
}

func EqI32x4(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(x == y) })
}
func NeI32x4(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(x != y) })
}
func LtI32x4S(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(int32(x) < int32(y)) })
}
func LtI32x4U(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(x < y) })
}
func GtI32x4S(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(int32(x) > int32(y)) })
}
func GtI32x4U(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(x > y) })
}
func LeI32x4S(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(int32(x) <= int32(y)) })
}
func LeI32x4U(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(x <= y) })
}
func GeI32x4S(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(int32(x) >= int32(y)) })
}
func GeI32x4U(a, b V128) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(x >= y) })
}

func EqI64x2(a, b V128) V128 {
	return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(x == y) })
}
func NeI64x2(a, b V128) V128 {
	return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(x != y) })
}
func LtI64x2S(a, b V128) V128 {
	return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(int64(x) < int64(y)) })
}
func GtI64x2S(a, b V128) V128 {
	return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(int64(x) > int64(y)) })
}
func LeI64x2S(a, b V128) V128 {
	return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(int64(x) <= int64(y)) })
}
func GeI64x2S(a, b V128) V128 {
	return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(int64(x) >= int64(y)) })
}

// --- float ops ---

func mapF32(v V128, f func(float32) float32) V128 {
	return mapU32(v, func(x uint32) uint32 {
		return math.Float32bits(f(math.Float32frombits(x)))
	})
}
func map2F32(a, b V128, f func(float32, float32) float32) V128 {
	return map2U32(a, b, func(x, y uint32) uint32 {
		return math.Float32bits(f(math.Float32frombits(x), math.Float32frombits(y)))
	})
}
func mapF64(v V128, f func(float64) float64) V128 {
	return mapU64(v, func(x uint64) uint64 {
		return math.Float64bits(f(math.Float64frombits(x)))
	})
}
func map2F64(a, b V128, f func(float64, float64) float64) V128 {
	return map2U64(a, b, func(x, y uint64) uint64 {
		return math.Float64bits(f(math.Float64frombits(x), math.Float64frombits(y)))
	})
}

func AbsF32x4(v V128) V128        { return mapF32(v, func(x float32) float32 { return float32(math.Abs(float64(x))) }) }
func NegF32x4(v V128) V128        { return mapF32(v, func(x float32) float32 { return -x }) }
func SqrtF32x4(v V128) V128       { return mapF32(v, func(x float32) float32 { return float32(math.Sqrt(float64(x))) }) }
func CeilF32x4(v V128) V128       { return mapF32(v, func(x float32) float32 { return float32(math.Ceil(float64(x))) }) }
func FloorF32x4(v V128) V128      { return mapF32(v, func(x float32) float32 { return float32(math.Floor(float64(x))) }) }
func TruncF32x4(v V128) V128      { return mapF32(v, func(x float32) float32 { return float32(math.Trunc(float64(x))) }) }
func NearestF32x4(v V128) V128    { return mapF32(v, func(x float32) float32 { return float32(math.RoundToEven(float64(x))) }) }
func AddF32x4(a, b V128) V128     { return map2F32(a, b, func(x, y float32) float32 { return x + y }) }
func SubF32x4(a, b V128) V128     { return map2F32(a, b, func(x, y float32) float32 { return x - y }) }
func MulF32x4(a, b V128) V128     { return map2F32(a, b, func(x, y float32) float32 { return x * y }) }
func DivF32x4(a, b V128) V128     { return map2F32(a, b, func(x, y float32) float32 { return x / y }) }
func MinF32x4(a, b V128) V128     { return map2F32(a, b, wasmMinF32) }
func MaxF32x4(a, b V128) V128     { return map2F32(a, b, wasmMaxF32) }
func PminF32x4(a, b V128) V128    { return map2F32(a, b, func(x, y float32) float32 { if y < x { return y }; return x }) }
func PmaxF32x4(a, b V128) V128    { return map2F32(a, b, func(x, y float32) float32 { if x < y { return y }; return x }) }
func EqF32x4(a, b V128) V128      { return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(math.Float32frombits(x) == math.Float32frombits(y)) }) }
func NeF32x4(a, b V128) V128      { return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(math.Float32frombits(x) != math.Float32frombits(y)) }) }
func LtF32x4(a, b V128) V128      { return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(math.Float32frombits(x) < math.Float32frombits(y)) }) }
func GtF32x4(a, b V128) V128      { return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(math.Float32frombits(x) > math.Float32frombits(y)) }) }
func LeF32x4(a, b V128) V128      { return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(math.Float32frombits(x) <= math.Float32frombits(y)) }) }
func GeF32x4(a, b V128) V128      { return map2U32(a, b, func(x, y uint32) uint32 { return boolMask32(math.Float32frombits(x) >= math.Float32frombits(y)) }) }

func AbsF64x2(v V128) V128     { return mapF64(v, math.Abs) }
func NegF64x2(v V128) V128     { return mapF64(v, func(x float64) float64 { return -x }) }
func SqrtF64x2(v V128) V128    { return mapF64(v, math.Sqrt) }
func CeilF64x2(v V128) V128    { return mapF64(v, math.Ceil) }
func FloorF64x2(v V128) V128   { return mapF64(v, math.Floor) }
func TruncF64x2(v V128) V128   { return mapF64(v, math.Trunc) }
func NearestF64x2(v V128) V128 { return mapF64(v, math.RoundToEven) }
func AddF64x2(a, b V128) V128  { return map2F64(a, b, func(x, y float64) float64 { return x + y }) }
func SubF64x2(a, b V128) V128  { return map2F64(a, b, func(x, y float64) float64 { return x - y }) }
func MulF64x2(a, b V128) V128  { return map2F64(a, b, func(x, y float64) float64 { return x * y }) }
func DivF64x2(a, b V128) V128  { return map2F64(a, b, func(x, y float64) float64 { return x / y }) }
func MinF64x2(a, b V128) V128  { return map2F64(a, b, wasmMinF64) }
func MaxF64x2(a, b V128) V128  { return map2F64(a, b, wasmMaxF64) }
func PminF64x2(a, b V128) V128 { return map2F64(a, b, func(x, y float64) float64 { if y < x { return y }; return x }) }
func PmaxF64x2(a, b V128) V128 { return map2F64(a, b, func(x, y float64) float64 { if x < y { return y }; return x }) }
func EqF64x2(a, b V128) V128   { return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(math.Float64frombits(x) == math.Float64frombits(y)) }) }
func NeF64x2(a, b V128) V128   { return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(math.Float64frombits(x) != math.Float64frombits(y)) }) }
func LtF64x2(a, b V128) V128   { return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(math.Float64frombits(x) < math.Float64frombits(y)) }) }
func GtF64x2(a, b V128) V128   { return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(math.Float64frombits(x) > math.Float64frombits(y)) }) }
func LeF64x2(a, b V128) V128   { return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(math.Float64frombits(x) <= math.Float64frombits(y)) }) }
func GeF64x2(a, b V128) V128   { return map2U64(a, b, func(x, y uint64) uint64 { return boolMask64(math.Float64frombits(x) >= math.Float64frombits(y)) }) }

// wasmMinF32/MaxF32/MinF64/MaxF64 implement Wasm's NaN-propagating,
// signed-zero-aware min/max (distinct from Go's math.Min/Max rounding).
func wasmMinF32(x, y float32) float32 {
	if math.IsNaN(float64(x)) || math.IsNaN(float64(y)) {
		return float32(math.NaN())
	}
	if x == 0 && y == 0 {
		if math.Signbit(float64(x)) {
			return x
		}
		return y
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
		if math.Signbit(float64(x)) {
			return y
		}
		return x
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
		if math.Signbit(x) {
			return x
		}
		return y
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
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x > y {
		return x
	}
	return y
}

// --- narrow / widen ---

func NarrowI16x8ToI8x16S(a, b V128) V128 {
	var out V128
	for i := 0; i < 8; i++ {
		setU8(&out, i, uint8(satI8(int32(int16(laneU16(a, i))))))
	}
	for i := 0; i < 8; i++ {
		setU8(&out, i+8, uint8(satI8(int32(int16(laneU16(b, i))))))
	}
	return out
}
func NarrowI16x8ToI8x16U(a, b V128) V128 {
	var out V128
	for i := 0; i < 8; i++ {
		setU8(&out, i, satU8(int32(int16(laneU16(a, i)))))
	}
	for i := 0; i < 8; i++ {
		setU8(&out, i+8, satU8(int32(int16(laneU16(b, i)))))
	}
	return out
}
func NarrowI32x4ToI16x8S(a, b V128) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		setU16(&out, i, uint16(satI16(int32(laneU32(a, i)))))
	}
	for i := 0; i < 4; i++ {
		setU16(&out, i+4, uint16(satI16(int32(laneU32(b, i)))))
	}
	return out
}
func NarrowI32x4ToI16x8U(a, b V128) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		setU16(&out, i, satU16(int32(laneU32(a, i))))
	}
	for i := 0; i < 4; i++ {
		setU16(&out, i+4, satU16(int32(laneU32(b, i))))
	}
	return out
}

func ExtendLowI8x16S(v V128) V128 {
	var out V128
	for i := 0; i < 8; i++ {
		setU16(&out, i, uint16(int16(int8(laneU8(v, i)))))
	}
	return out
}
func ExtendHighI8x16S(v V128) V128 {
	var out V128
	for i := 0; i < 8; i++ {
		setU16(&out, i, uint16(int16(int8(laneU8(v, i+8)))))
	}
	return out
}
func ExtendLowI8x16U(v V128) V128 {
	var out V128
	for i := 0; i < 8; i++ {
		setU16(&out, i, uint16(laneU8(v, i)))
	}
	return out
}
func ExtendHighI8x16U(v V128) V128 {
	var out V128
	for i := 0; i < 8; i++ {
		setU16(&out, i, uint16(laneU8(v, i+8)))
	}
	return out
}
func ExtendLowI16x8S(v V128) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		setU32(&out, i, uint32(int32(int16(laneU16(v, i)))))
	}
	return out
}
func ExtendHighI16x8S(v V128) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		setU32(&out, i, uint32(int32(int16(laneU16(v, i+4)))))
	}
	return out
}
func ExtendLowI16x8U(v V128) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		setU32(&out, i, uint32(laneU16(v, i)))
	}
	return out
}
func ExtendHighI16x8U(v V128) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		setU32(&out, i, uint32(laneU16(v, i+4)))
	}
	return out
}
func ExtendLowI32x4S(v V128) V128 {
	var out V128
	for i := 0; i < 2; i++ {
		setU64(&out, i, uint64(int64(int32(laneU32(v, i)))))
	}
	return out
}
func ExtendHighI32x4S(v V128) V128 {
	var out V128
	for i := 0; i < 2; i++ {
		setU64(&out, i, uint64(int64(int32(laneU32(v, i+2)))))
	}
	return out
}
func ExtendLowI32x4U(v V128) V128 {
	var out V128
	for i := 0; i < 2; i++ {
		setU64(&out, i, uint64(laneU32(v, i)))
	}
	return out
}
func ExtendHighI32x4U(v V128) V128 {
	var out V128
	for i := 0; i < 2; i++ {
		setU64(&out, i, uint64(laneU32(v, i+2)))
	}
	return out
}

func ExtaddPairwiseI8x16S(v V128) V128 {
	var out V128
	for i := 0; i < 8; i++ {
		sum := int32(int8(laneU8(v, 2*i))) + int32(int8(laneU8(v, 2*i+1)))
		setU16(&out, i, uint16(int16(sum)))
	}
	return out
}
func ExtaddPairwiseI8x16U(v V128) V128 {
	var out V128
	for i := 0; i < 8; i++ {
		sum := uint32(laneU8(v, 2*i)) + uint32(laneU8(v, 2*i+1))
		setU16(&out, i, uint16(sum))
	}
	return out
}
func ExtaddPairwiseI16x8S(v V128) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		sum := int32(int16(laneU16(v, 2*i))) + int32(int16(laneU16(v, 2*i+1)))
		setU32(&out, i, uint32(sum))
	}
	return out
}
func ExtaddPairwiseI16x8U(v V128) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		sum := uint32(laneU16(v, 2*i)) + uint32(laneU16(v, 2*i+1))
		setU32(&out, i, sum)
	}
	return out
}

// --- shuffle / swizzle ---

// Shuffle selects, for each output lane i, source byte mask[i] from the
// concatenation of a (indices 0-15) and b (indices 16-31). mask entries
// must already be validated to lie in [0, 32) (see wasm decode-time check).
func Shuffle(a, b V128, mask [16]byte) V128 {
	var out V128
	for i, m := range mask {
		if m < 16 {
			out[i] = a[m]
		} else {
			out[i] = b[m-16]
		}
	}
	return out
}

// Swizzle selects lanes of a by the indices in s, masking any index >= 16
// to a zero result lane (not index 0 — per the Wasm spec, out-of-range
// swizzle indices produce 0).
func Swizzle(a, s V128) V128 {
	var out V128
	for i, idx := range s {
		if idx < 16 {
			out[i] = a[idx]
		} else {
			out[i] = 0
		}
	}
	return out
}

// --- conversions ---

func TruncSatF32x4ToI32x4S(v V128) V128 {
	return mapF32asU32(v, func(x float32) uint32 { return uint32(truncSatI32(float64(x))) })
}
func TruncSatF32x4ToI32x4U(v V128) V128 {
	return mapF32asU32(v, func(x float32) uint32 { return truncSatU32(float64(x)) })
}
func mapF32asU32(v V128, f func(float32) uint32) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		setU32(&out, i, f(math.Float32frombits(laneU32(v, i))))
	}
	return out
}

func truncSatI32(x float64) int32 {
	if math.IsNaN(x) {
		return 0
	}
	if x <= -2147483649.0 {
		return math.MinInt32
	}
	if x >= 2147483648.0 {
		return math.MaxInt32
	}
	return int32(math.Trunc(x))
}
func truncSatU32(x float64) uint32 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x >= 4294967296.0 {
		return math.MaxUint32
	}
	return uint32(math.Trunc(x))
}

func ConvertI32x4ToF32x4S(v V128) V128 {
	return mapU32AsF32(v, func(x uint32) float32 { return float32(int32(x)) })
}
func ConvertI32x4ToF32x4U(v V128) V128 {
	return mapU32AsF32(v, func(x uint32) float32 { return float32(x) })
}
func mapU32AsF32(v V128, f func(uint32) float32) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		setU32(&out, i, math.Float32bits(f(laneU32(v, i))))
	}
	return out
}

// TruncSatF64x2ToI32x4SZero truncates the two f64 lanes to i32, zeroing the
// high two lanes (the "_zero" shape: two source lanes -> four result lanes).
func TruncSatF64x2ToI32x4SZero(v V128) V128 {
	var out V128
	setU32(&out, 0, uint32(truncSatI32(math.Float64frombits(laneU64(v, 0)))))
	setU32(&out, 1, uint32(truncSatI32(math.Float64frombits(laneU64(v, 1)))))
	return out
}
func TruncSatF64x2ToI32x4UZero(v V128) V128 {
	var out V128
	setU32(&out, 0, truncSatU32(math.Float64frombits(laneU64(v, 0))))
	setU32(&out, 1, truncSatU32(math.Float64frombits(laneU64(v, 1))))
	return out
}

func ConvertLowI32x4ToF64x2S(v V128) V128 {
	var out V128
	setU64(&out, 0, math.Float64bits(float64(int32(laneU32(v, 0)))))
	setU64(&out, 1, math.Float64bits(float64(int32(laneU32(v, 1)))))
	return out
}
func ConvertLowI32x4ToF64x2U(v V128) V128 {
	var out V128
	setU64(&out, 0, math.Float64bits(float64(laneU32(v, 0))))
	setU64(&out, 1, math.Float64bits(float64(laneU32(v, 1))))
	return out
}

func DemoteF64x2ToF32x4Zero(v V128) V128 {
	var out V128
	setU32(&out, 0, math.Float32bits(float32(math.Float64frombits(laneU64(v, 0)))))
	setU32(&out, 1, math.Float32bits(float32(math.Float64frombits(laneU64(v, 1)))))
	return out
}
func PromoteLowF32x4ToF64x2(v V128) V128 {
	var out V128
	setU64(&out, 0, math.Float64bits(float64(math.Float32frombits(laneU32(v, 0)))))
	setU64(&out, 1, math.Float64bits(float64(math.Float32frombits(laneU32(v, 1)))))
	return out
}

// Relaxed-SIMD. This build defines every relaxed op to equal its
// deterministic counterpart, so madd/nmadd/dot need their own lane
// functions: nothing above already computes a fused multiply-add or an
// i8x16 dot product.

func MaddF32x4(a, b, c V128) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		x := math.Float32frombits(laneU32(a, i))
		y := math.Float32frombits(laneU32(b, i))
		z := math.Float32frombits(laneU32(c, i))
		setU32(&out, i, math.Float32bits(x*y+z))
	}
	return out
}

func NmaddF32x4(a, b, c V128) V128 {
	var out V128
	for i := 0; i < 4; i++ {
		x := math.Float32frombits(laneU32(a, i))
		y := math.Float32frombits(laneU32(b, i))
		z := math.Float32frombits(laneU32(c, i))
		setU32(&out, i, math.Float32bits(z-x*y))
	}
	return out
}

func MaddF64x2(a, b, c V128) V128 {
	var out V128
	for i := 0; i < 2; i++ {
		x := math.Float64frombits(laneU64(a, i))
		y := math.Float64frombits(laneU64(b, i))
		z := math.Float64frombits(laneU64(c, i))
		setU64(&out, i, math.Float64bits(x*y+z))
	}
	return out
}

func NmaddF64x2(a, b, c V128) V128 {
	var out V128
	for i := 0; i < 2; i++ {
		x := math.Float64frombits(laneU64(a, i))
		y := math.Float64frombits(laneU64(b, i))
		z := math.Float64frombits(laneU64(c, i))
		setU64(&out, i, math.Float64bits(z-x*y))
	}
	return out
}

// DotI8x16I7x16S computes, for each of the 16 lanes, the product of a's
// signed i8 lane and b's i7 lane (top bit ignored, per the relaxed-simd
// proposal) widened to i16 -- the building block dot_add accumulates
// pairwise into i32 lanes.
func DotI8x16I7x16S(a, b V128) [16]int16 {
	var out [16]int16
	for i := 0; i < 16; i++ {
		x := int16(int8(laneU8(a, i)))
		y := int16(int8(laneU8(b, i) & 0x7f))
		out[i] = x * y
	}
	return out
}

func DotI8x16I7x16AddS(a, b, c V128) V128 {
	products := DotI8x16I7x16S(a, b)
	var out V128
	for i := 0; i < 4; i++ {
		sum := int32(products[i*4]) + int32(products[i*4+1]) + int32(products[i*4+2]) + int32(products[i*4+3])
		setU32(&out, i, uint32(sum+int32(laneU32(c, i))))
	}
	return out
}
