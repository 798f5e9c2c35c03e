package wasm

// Magic and Version are the WebAssembly binary header fields.
const (
	Magic   uint32 = 0x6D736100 // "\0asm"
	Version uint32 = 0x01
)

// Section ids, in the order sections must appear (barring custom sections,
// which may appear anywhere).
const (
	SecCustom    byte = 0
	SecType      byte = 1
	SecImport    byte = 2
	SecFunction  byte = 3
	SecTable     byte = 4
	SecMemory    byte = 5
	SecGlobal    byte = 6
	SecExport    byte = 7
	SecStart     byte = 8
	SecElement   byte = 9
	SecCode      byte = 10
	SecData      byte = 11
	SecDataCount byte = 12
)

// ValType is a WebAssembly value type, encoded as its binary-format byte.
type ValType byte

const (
	ValI32     ValType = 0x7F
	ValI64     ValType = 0x7E
	ValF32     ValType = 0x7D
	ValF64     ValType = 0x7C
	ValV128    ValType = 0x7B
	ValFuncRef ValType = 0x70
	ValExtern  ValType = 0x6F
)

func (t ValType) String() string {
	switch t {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValFuncRef:
		return "funcref"
	case ValExtern:
		return "externref"
	default:
		return "unknown"
	}
}

// IsRef reports whether t is one of the reference types.
func (t ValType) IsRef() bool { return t == ValFuncRef || t == ValExtern }

// Import/export descriptor kinds.
const (
	KindFunc   byte = 0
	KindTable  byte = 1
	KindMemory byte = 2
	KindGlobal byte = 3
)

// Block type sentinels for the single-result encodings of block/loop/if.
const (
	BlockTypeVoid int32 = -64
	BlockTypeI32  int32 = -1
	BlockTypeI64  int32 = -2
	BlockTypeF32  int32 = -3
	BlockTypeF64  int32 = -4
	BlockTypeV128 int32 = -5
	BlockTypeFunc int32 = -16 // funcref
	BlockTypeExt  int32 = -17 // externref
)

// Control-flow opcodes.
const (
	OpUnreachable        byte = 0x00
	OpNop                byte = 0x01
	OpBlock              byte = 0x02
	OpLoop               byte = 0x03
	OpIf                 byte = 0x04
	OpElse               byte = 0x05
	OpEnd                byte = 0x0B
	OpBr                 byte = 0x0C
	OpBrIf               byte = 0x0D
	OpBrTable            byte = 0x0E
	OpReturn             byte = 0x0F
	OpCall               byte = 0x10
	OpCallIndirect       byte = 0x11
	OpReturnCall         byte = 0x12 // tail-call proposal
	OpReturnCallIndirect byte = 0x13 // tail-call proposal
)

// Reference-type opcodes.
const (
	OpRefNull   byte = 0xD0
	OpRefIsNull byte = 0xD1
	OpRefFunc   byte = 0xD2
)

// Parametric opcodes.
const (
	OpDrop       byte = 0x1A
	OpSelect     byte = 0x1B
	OpSelectType byte = 0x1C
)

// Variable-access opcodes.
const (
	OpLocalGet  byte = 0x20
	OpLocalSet  byte = 0x21
	OpLocalTee  byte = 0x22
	OpGlobalGet byte = 0x23
	OpGlobalSet byte = 0x24
)

// Table opcodes (WASM 2.0 reference types).
const (
	OpTableGet byte = 0x25
	OpTableSet byte = 0x26
)

// Memory load opcodes.
const (
	OpI32Load    byte = 0x28
	OpI64Load    byte = 0x29
	OpF32Load    byte = 0x2A
	OpF64Load    byte = 0x2B
	OpI32Load8S  byte = 0x2C
	OpI32Load8U  byte = 0x2D
	OpI32Load16S byte = 0x2E
	OpI32Load16U byte = 0x2F
	OpI64Load8S  byte = 0x30
	OpI64Load8U  byte = 0x31
	OpI64Load16S byte = 0x32
	OpI64Load16U byte = 0x33
	OpI64Load32S byte = 0x34
	OpI64Load32U byte = 0x35
)

// Memory store opcodes.
const (
	OpI32Store   byte = 0x36
	OpI64Store   byte = 0x37
	OpF32Store   byte = 0x38
	OpF64Store   byte = 0x39
	OpI32Store8  byte = 0x3A
	OpI32Store16 byte = 0x3B
	OpI64Store8  byte = 0x3C
	OpI64Store16 byte = 0x3D
	OpI64Store32 byte = 0x3E
)

// Memory size/grow opcodes.
const (
	OpMemorySize byte = 0x3F
	OpMemoryGrow byte = 0x40
)

// Constant opcodes.
const (
	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
	OpF32Const byte = 0x43
	OpF64Const byte = 0x44
)

// i32 comparisons.
const (
	OpI32Eqz byte = 0x45
	OpI32Eq  byte = 0x46
	OpI32Ne  byte = 0x47
	OpI32LtS byte = 0x48
	OpI32LtU byte = 0x49
	OpI32GtS byte = 0x4A
	OpI32GtU byte = 0x4B
	OpI32LeS byte = 0x4C
	OpI32LeU byte = 0x4D
	OpI32GeS byte = 0x4E
	OpI32GeU byte = 0x4F
)

// i64 comparisons.
const (
	OpI64Eqz byte = 0x50
	OpI64Eq  byte = 0x51
	OpI64Ne  byte = 0x52
	OpI64LtS byte = 0x53
	OpI64LtU byte = 0x54
	OpI64GtS byte = 0x55
	OpI64GtU byte = 0x56
	OpI64LeS byte = 0x57
	OpI64LeU byte = 0x58
	OpI64GeS byte = 0x59
	OpI64GeU byte = 0x5A
)

// f32/f64 comparisons.
const (
	OpF32Eq byte = 0x5B
	OpF32Ne byte = 0x5C
	OpF32Lt byte = 0x5D
	OpF32Gt byte = 0x5E
	OpF32Le byte = 0x5F
	OpF32Ge byte = 0x60
	OpF64Eq byte = 0x61
	OpF64Ne byte = 0x62
	OpF64Lt byte = 0x63
	OpF64Gt byte = 0x64
	OpF64Le byte = 0x65
	OpF64Ge byte = 0x66
)

// i32 numeric opcodes.
const (
	OpI32Clz    byte = 0x67
	OpI32Ctz    byte = 0x68
	OpI32Popcnt byte = 0x69
	OpI32Add    byte = 0x6A
	OpI32Sub    byte = 0x6B
	OpI32Mul    byte = 0x6C
	OpI32DivS   byte = 0x6D
	OpI32DivU   byte = 0x6E
	OpI32RemS   byte = 0x6F
	OpI32RemU   byte = 0x70
	OpI32And    byte = 0x71
	OpI32Or     byte = 0x72
	OpI32Xor    byte = 0x73
	OpI32Shl    byte = 0x74
	OpI32ShrS   byte = 0x75
	OpI32ShrU   byte = 0x76
	OpI32Rotl   byte = 0x77
	OpI32Rotr   byte = 0x78
)

// i64 numeric opcodes.
const (
	OpI64Clz    byte = 0x79
	OpI64Ctz    byte = 0x7A
	OpI64Popcnt byte = 0x7B
	OpI64Add    byte = 0x7C
	OpI64Sub    byte = 0x7D
	OpI64Mul    byte = 0x7E
	OpI64DivS   byte = 0x7F
	OpI64DivU   byte = 0x80
	OpI64RemS   byte = 0x81
	OpI64RemU   byte = 0x82
	OpI64And    byte = 0x83
	OpI64Or     byte = 0x84
	OpI64Xor    byte = 0x85
	OpI64Shl    byte = 0x86
	OpI64ShrS   byte = 0x87
	OpI64ShrU   byte = 0x88
	OpI64Rotl   byte = 0x89
	OpI64Rotr   byte = 0x8A
)

// f32 numeric opcodes.
const (
	OpF32Abs      byte = 0x8B
	OpF32Neg      byte = 0x8C
	OpF32Ceil     byte = 0x8D
	OpF32Floor    byte = 0x8E
	OpF32Trunc    byte = 0x8F
	OpF32Nearest  byte = 0x90
	OpF32Sqrt     byte = 0x91
	OpF32Add      byte = 0x92
	OpF32Sub      byte = 0x93
	OpF32Mul      byte = 0x94
	OpF32Div      byte = 0x95
	OpF32Min      byte = 0x96
	OpF32Max      byte = 0x97
	OpF32Copysign byte = 0x98
)

// f64 numeric opcodes.
const (
	OpF64Abs      byte = 0x99
	OpF64Neg      byte = 0x9A
	OpF64Ceil     byte = 0x9B
	OpF64Floor    byte = 0x9C
	OpF64Trunc    byte = 0x9D
	OpF64Nearest  byte = 0x9E
	OpF64Sqrt     byte = 0x9F
	OpF64Add      byte = 0xA0
	OpF64Sub      byte = 0xA1
	OpF64Mul      byte = 0xA2
	OpF64Div      byte = 0xA3
	OpF64Min      byte = 0xA4
	OpF64Max      byte = 0xA5
	OpF64Copysign byte = 0xA6
)

// Conversion opcodes.
const (
	OpI32WrapI64        byte = 0xA7
	OpI32TruncF32S       byte = 0xA8
	OpI32TruncF32U       byte = 0xA9
	OpI32TruncF64S       byte = 0xAA
	OpI32TruncF64U       byte = 0xAB
	OpI64ExtendI32S      byte = 0xAC
	OpI64ExtendI32U      byte = 0xAD
	OpI64TruncF32S       byte = 0xAE
	OpI64TruncF32U       byte = 0xAF
	OpI64TruncF64S       byte = 0xB0
	OpI64TruncF64U       byte = 0xB1
	OpF32ConvertI32S     byte = 0xB2
	OpF32ConvertI32U     byte = 0xB3
	OpF32ConvertI64S     byte = 0xB4
	OpF32ConvertI64U     byte = 0xB5
	OpF32DemoteF64       byte = 0xB6
	OpF64ConvertI32S     byte = 0xB7
	OpF64ConvertI32U     byte = 0xB8
	OpF64ConvertI64S     byte = 0xB9
	OpF64ConvertI64U     byte = 0xBA
	OpF64PromoteF32      byte = 0xBB
	OpI32ReinterpretF32  byte = 0xBC
	OpI64ReinterpretF64  byte = 0xBD
	OpF32ReinterpretI32  byte = 0xBE
	OpF64ReinterpretI64  byte = 0xBF
)

// Sign-extension proposal.
const (
	OpI32Extend8S  byte = 0xC0
	OpI32Extend16S byte = 0xC1
	OpI64Extend8S  byte = 0xC2
	OpI64Extend16S byte = 0xC3
	OpI64Extend32S byte = 0xC4
)

// OpPrefixMisc (0xFC) introduces saturating truncation and bulk-memory
// operators; the sub-opcode is a LEB128 varuint32 following the prefix
// byte.
const OpPrefixMisc byte = 0xFC

const (
	MiscI32TruncSatF32S uint32 = 0
	MiscI32TruncSatF32U uint32 = 1
	MiscI32TruncSatF64S uint32 = 2
	MiscI32TruncSatF64U uint32 = 3
	MiscI64TruncSatF32S uint32 = 4
	MiscI64TruncSatF32U uint32 = 5
	MiscI64TruncSatF64S uint32 = 6
	MiscI64TruncSatF64U uint32 = 7

	MiscMemoryInit uint32 = 8
	MiscDataDrop   uint32 = 9
	MiscMemoryCopy uint32 = 10
	MiscMemoryFill uint32 = 11
	MiscTableInit  uint32 = 12
	MiscElemDrop   uint32 = 13
	MiscTableCopy  uint32 = 14
	MiscTableGrow  uint32 = 15
	MiscTableSize  uint32 = 16
	MiscTableFill  uint32 = 17
)

// OpPrefixSIMD (0xFD) introduces the 128-bit SIMD operator space; the
// sub-opcode is a LEB128 varuint32 following the prefix byte. Sub-opcode
// values below are internal identifiers grouped by operation family and
// numbered in declaration order; from SimdV128Load32Zero onward they do not
// follow the upstream binary encoding's sub-opcode numbers.
const OpPrefixSIMD byte = 0xFD

const (
	SimdV128Load uint32 = iota
	SimdV128Load8x8S
	SimdV128Load8x8U
	SimdV128Load16x4S
	SimdV128Load16x4U
	SimdV128Load32x2S
	SimdV128Load32x2U
	SimdV128Load32Zero
	SimdV128Load64Zero
	SimdV128Load8Splat
	SimdV128Load16Splat
	SimdV128Load32Splat
	SimdV128Load64Splat
	SimdV128Store
	SimdV128Const

	SimdI8x16Shuffle
	SimdI8x16Swizzle
	SimdI8x16Splat
	SimdI16x8Splat
	SimdI32x4Splat
	SimdI64x2Splat
	SimdF32x4Splat
	SimdF64x2Splat

	SimdI8x16ExtractLaneS
	SimdI8x16ExtractLaneU
	SimdI8x16ReplaceLane
	SimdI16x8ExtractLaneS
	SimdI16x8ExtractLaneU
	SimdI16x8ReplaceLane
	SimdI32x4ExtractLane
	SimdI32x4ReplaceLane
	SimdI64x2ExtractLane
	SimdI64x2ReplaceLane
	SimdF32x4ExtractLane
	SimdF32x4ReplaceLane
	SimdF64x2ExtractLane
	SimdF64x2ReplaceLane

	SimdI8x16Eq
	SimdI8x16Ne
	SimdI8x16LtS
	SimdI8x16LtU
	SimdI8x16GtS
	SimdI8x16GtU
	SimdI8x16LeS
	SimdI8x16LeU
	SimdI8x16GeS
	SimdI8x16GeU
	SimdI16x8Eq
	SimdI16x8Ne
	SimdI16x8LtS
	SimdI16x8LtU
	SimdI16x8GtS
	SimdI16x8GtU
	SimdI16x8LeS
	SimdI16x8LeU
	SimdI16x8GeS
	SimdI16x8GeU
	SimdI32x4Eq
	SimdI32x4Ne
	SimdI32x4LtS
	SimdI32x4LtU
	SimdI32x4GtS
	SimdI32x4GtU
	SimdI32x4LeS
	SimdI32x4LeU
	SimdI32x4GeS
	SimdI32x4GeU
	SimdI64x2Eq
	SimdI64x2Ne
	SimdI64x2LtS
	SimdI64x2GtS
	SimdI64x2LeS
	SimdI64x2GeS
	SimdF32x4Eq
	SimdF32x4Ne
	SimdF32x4Lt
	SimdF32x4Gt
	SimdF32x4Le
	SimdF32x4Ge
	SimdF64x2Eq
	SimdF64x2Ne
	SimdF64x2Lt
	SimdF64x2Gt
	SimdF64x2Le
	SimdF64x2Ge

	SimdV128Not
	SimdV128And
	SimdV128AndNot
	SimdV128Or
	SimdV128Xor
	SimdV128Bitselect
	SimdV128AnyTrue

	SimdI8x16Abs
	SimdI8x16Neg
	SimdI8x16AllTrue
	SimdI8x16Bitmask
	SimdI8x16NarrowI16x8S
	SimdI8x16NarrowI16x8U
	SimdI8x16Shl
	SimdI8x16ShrS
	SimdI8x16ShrU
	SimdI8x16Add
	SimdI8x16AddSatS
	SimdI8x16AddSatU
	SimdI8x16Sub
	SimdI8x16SubSatS
	SimdI8x16SubSatU
	SimdI8x16MinS
	SimdI8x16MinU
	SimdI8x16MaxS
	SimdI8x16MaxU
	SimdI8x16AvgrU

	SimdI16x8ExtaddPairwiseI8x16S
	SimdI16x8ExtaddPairwiseI8x16U
	SimdI16x8Abs
	SimdI16x8Neg
	SimdI16x8AllTrue
	SimdI16x8Bitmask
	SimdI16x8NarrowI32x4S
	SimdI16x8NarrowI32x4U
	SimdI16x8ExtendLowI8x16S
	SimdI16x8ExtendHighI8x16S
	SimdI16x8ExtendLowI8x16U
	SimdI16x8ExtendHighI8x16U
	SimdI16x8Shl
	SimdI16x8ShrS
	SimdI16x8ShrU
	SimdI16x8Add
	SimdI16x8AddSatS
	SimdI16x8AddSatU
	SimdI16x8Sub
	SimdI16x8SubSatS
	SimdI16x8SubSatU
	SimdI16x8Mul
	SimdI16x8MinS
	SimdI16x8MinU
	SimdI16x8MaxS
	SimdI16x8MaxU
	SimdI16x8AvgrU
	SimdI16x8Q15mulrSatS
	SimdI32x4DotI16x8S

	SimdI32x4ExtaddPairwiseI16x8S
	SimdI32x4ExtaddPairwiseI16x8U
	SimdI32x4Abs
	SimdI32x4Neg
	SimdI32x4AllTrue
	SimdI32x4Bitmask
	SimdI32x4ExtendLowI16x8S
	SimdI32x4ExtendHighI16x8S
	SimdI32x4ExtendLowI16x8U
	SimdI32x4ExtendHighI16x8U
	SimdI32x4Shl
	SimdI32x4ShrS
	SimdI32x4ShrU
	SimdI32x4Add
	SimdI32x4Sub
	SimdI32x4Mul
	SimdI32x4MinS
	SimdI32x4MinU
	SimdI32x4MaxS
	SimdI32x4MaxU

	SimdI64x2Abs
	SimdI64x2Neg
	SimdI64x2AllTrue
	SimdI64x2Bitmask
	SimdI64x2ExtendLowI32x4S
	SimdI64x2ExtendHighI32x4S
	SimdI64x2ExtendLowI32x4U
	SimdI64x2ExtendHighI32x4U
	SimdI64x2Shl
	SimdI64x2ShrS
	SimdI64x2ShrU
	SimdI64x2Add
	SimdI64x2Sub
	SimdI64x2Mul

	SimdF32x4Ceil
	SimdF32x4Floor
	SimdF32x4Trunc
	SimdF32x4Nearest
	SimdF32x4Abs
	SimdF32x4Neg
	SimdF32x4Sqrt
	SimdF32x4Add
	SimdF32x4Sub
	SimdF32x4Mul
	SimdF32x4Div
	SimdF32x4Min
	SimdF32x4Max
	SimdF32x4Pmin
	SimdF32x4Pmax

	SimdF64x2Ceil
	SimdF64x2Floor
	SimdF64x2Trunc
	SimdF64x2Nearest
	SimdF64x2Abs
	SimdF64x2Neg
	SimdF64x2Sqrt
	SimdF64x2Add
	SimdF64x2Sub
	SimdF64x2Mul
	SimdF64x2Div
	SimdF64x2Min
	SimdF64x2Max
	SimdF64x2Pmin
	SimdF64x2Pmax

	SimdI32x4TruncSatF32x4S
	SimdI32x4TruncSatF32x4U
	SimdF32x4ConvertI32x4S
	SimdF32x4ConvertI32x4U
	SimdI32x4TruncSatF64x2SZero
	SimdI32x4TruncSatF64x2UZero
	SimdF64x2ConvertLowI32x4S
	SimdF64x2ConvertLowI32x4U
	SimdF32x4DemoteF64x2Zero
	SimdF64x2PromoteLowF32x4

	// Relaxed-SIMD. This engine defines every relaxed op as equal to its
	// deterministic counterpart (see DESIGN.md open-question record).
	SimdI32x4RelaxedTruncF32x4S
	SimdI32x4RelaxedTruncF32x4U
	SimdI32x4RelaxedTruncF64x2SZero
	SimdI32x4RelaxedTruncF64x2UZero
	SimdF32x4RelaxedMadd
	SimdF32x4RelaxedNmadd
	SimdF64x2RelaxedMadd
	SimdF64x2RelaxedNmadd
	SimdI8x16RelaxedLaneselect
	SimdI16x8RelaxedLaneselect
	SimdI32x4RelaxedLaneselect
	SimdI64x2RelaxedLaneselect
	SimdF32x4RelaxedMin
	SimdF32x4RelaxedMax
	SimdF64x2RelaxedMin
	SimdF64x2RelaxedMax
	SimdI16x8RelaxedQ15mulrS
	SimdI16x8RelaxedDotI8x16I7x16S
	SimdI32x4RelaxedDotI8x16I7x16AddS
)

// LaneCount returns the number of lanes of a v128 shape given its lane
// width in bits (8, 16, 32 or 64). Returns 0 for any other width.
func LaneCount(shape byte) int {
	switch shape {
	case 8:
		return 16
	case 16:
		return 8
	case 32:
		return 4
	case 64:
		return 2
	default:
		return 0
	}
}
