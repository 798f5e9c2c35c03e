package wasm

// Instruction is one decoded WebAssembly operator. Imm holds the
// opcode-specific immediate payload (one of the *Imm types below, or nil
// for opcodes that carry none).
type Instruction struct {
	Opcode byte
	Imm    any
}

// BlockImm is the block type of block/loop/if.
type BlockImm struct {
	Type int32 // BlockTypeVoid / BlockTypeI32 / ... / >=0 is a type index
}

// BranchImm is the relative label depth of br/br_if.
type BranchImm struct {
	LabelIdx uint32
}

// BrTableImm is the label vector of br_table.
type BrTableImm struct {
	Labels  []uint32
	Default uint32
}

// CallImm is the function index of call/return_call.
type CallImm struct {
	FuncIdx uint32
}

// CallIndirectImm is the type+table index pair of
// call_indirect/return_call_indirect.
type CallIndirectImm struct {
	TypeIdx  uint32
	TableIdx uint32
}

// LocalImm is the local index of local.get/local.set/local.tee.
type LocalImm struct {
	LocalIdx uint32
}

// GlobalImm is the global index of global.get/global.set.
type GlobalImm struct {
	GlobalIdx uint32
}

// MemoryImm is the alignment hint and offset of a load/store.
type MemoryImm struct {
	Offset uint64
	Align  uint32
	MemIdx uint32
}

// MemoryIdxImm is the memory index of memory.size/memory.grow.
type MemoryIdxImm struct {
	MemIdx uint32
}

// I32Imm is the constant operand of i32.const.
type I32Imm struct{ Value int32 }

// I64Imm is the constant operand of i64.const.
type I64Imm struct{ Value int64 }

// F32Imm is the constant operand of f32.const.
type F32Imm struct{ Value float32 }

// F64Imm is the constant operand of f64.const.
type F64Imm struct{ Value float64 }

// MiscImm is the decoded payload of a 0xFC-prefixed instruction: a
// sub-opcode plus whatever operands that sub-opcode needs (memory/table
// indices for bulk-memory ops, none for saturating truncations).
type MiscImm struct {
	SubOpcode uint32
	Operands  []uint32
}

// TableImm is the table index of table.get/table.set.
type TableImm struct {
	TableIdx uint32
}

// RefNullImm is the heap type of ref.null (ValFuncRef or ValExtern).
type RefNullImm struct {
	HeapType ValType
}

// RefFuncImm is the function index of ref.func.
type RefFuncImm struct {
	FuncIdx uint32
}

// SelectTypeImm is the explicit result type list of typed select.
type SelectTypeImm struct {
	Types []ValType
}

// SIMDImm is the decoded payload of a 0xFD-prefixed instruction.
type SIMDImm struct {
	SubOpcode uint32
	MemArg    *MemoryImm
	LaneIdx   *byte
	ShuffleMask []byte // 16-byte lane-select mask for i8x16.shuffle
	V128Const   [16]byte
}

// GetCallTarget returns the callee function index if instr is call or
// return_call.
func (instr Instruction) GetCallTarget() (uint32, bool) {
	if instr.Opcode != OpCall && instr.Opcode != OpReturnCall {
		return 0, false
	}
	imm, ok := instr.Imm.(CallImm)
	if !ok {
		return 0, false
	}
	return imm.FuncIdx, true
}

// IsIndirectCall reports whether instr is call_indirect or
// return_call_indirect.
func (instr Instruction) IsIndirectCall() bool {
	return instr.Opcode == OpCallIndirect || instr.Opcode == OpReturnCallIndirect
}

// IsReturnVariant reports whether instr is one of the tail-call /
// return-style terminators that clear reachability without an explicit
// `end`.
func (instr Instruction) IsReturnVariant() bool {
	switch instr.Opcode {
	case OpReturn, OpReturnCall, OpReturnCallIndirect:
		return true
	default:
		return false
	}
}
