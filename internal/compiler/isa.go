// Package compiler translates a decoded and validated Wasm function body
// (wasm.FuncBody, a stack-machine instruction stream) into a register
// machine program: a flat slice of fixed-width Instructions operating on
// indexed slots instead of an implicit operand stack.
//
// Slot numbering follows the source material directly: non-negative slot
// indices name a function's dynamic register file (locals plus every
// temporary the translator introduces); negative slot indices name entries
// in the function's local constant pool, so an operand that happens to be
// a compile-time constant never needs a dedicated "load constant"
// instruction -- it's simply an operand whose index is negative.
package compiler

import "github.com/wasmi/wasmi/wasm"

// Op identifies what an Instruction does. Most arithmetic, comparison,
// conversion, memory, and table instructions reuse the corresponding Wasm
// opcode byte (widened to Op) directly: the register machine performs the
// identical operation, only the operand addressing mode changes from an
// implicit stack to explicit slots. Control flow, which has no 1:1 stack
// counterpart once blocks are resolved to jump targets, and a handful of
// slot-only operations (copies, drop-keep, fuel accounting) get fresh
// synthetic Op values starting at opSyntheticBase.
type Op uint16

const opSyntheticBase Op = 0x0200

const (
	OpUnreachable Op = opSyntheticBase + iota
	OpJump
	OpJumpIfZero
	OpJumpIfNotZero
	OpJumpTable
	OpReturn
	OpCall
	OpCallIndirect
	OpReturnCall
	OpReturnCallIndirect
	OpCopy
	OpCopyV128
	OpDropKeep
	OpConsumeFuel
	OpGlobalGet
	OpGlobalSet
	OpRefNull
	OpRefIsNull
	OpRefFunc
	OpSelect
	// OpMisc carries a wasm Misc (0xFC-prefixed) sub-opcode in SubOp: bulk
	// memory/table operations (memory.init/copy/fill, table.init/copy/
	// grow/size/fill, data.drop, elem.drop) plus the saturating truncation
	// conversions.
	OpMisc
	// OpSimd carries a wasm Simd (0xFD-prefixed) sub-opcode in SubOp; see
	// simd.go for the interpreter-facing dispatch built on internal/lanes.
	OpSimd
)

// ConvOp returns the Op that performs the same operation as the given Wasm
// primary opcode on register operands instead of stack operands. Valid for
// every numeric, comparison, conversion, memory-access, and table-access
// opcode; callers must not pass control-flow or parametric opcodes.
func ConvOp(wasmOp byte) Op { return Op(wasmOp) }

// Instruction is one register-machine instruction. A, B, C are signed slot
// indices (meaning documented on Op); Imm carries an opcode-specific
// payload: the memory offset for loads and stores, the fuel amount for
// OpConsumeFuel, the global/table/function index for ops that name one,
// the packed comparison of a fused compare-and-branch, and so on. Jump
// targets live in A (OpJump) or Targets (conditional jumps), and 0xFC/0xFD
// sub-opcodes in SubOp. Not every field is meaningful for every Op.
type Instruction struct {
	Op      Op
	A, B, C int32
	Imm     uint64

	// MemIdx is the memory or table index for load/store/table
	// instructions in multi-memory/multi-table-capable opcodes; always 0
	// in this engine's single-memory/single-table scope but kept explicit
	// so the interpreter never has to guess.
	MemIdx uint32

	// Idx2 is a second index for the two-index bulk-memory/table
	// operators: table.copy's src table (MemIdx holds dst), table.init's
	// table index (MemIdx holds the element-segment index), memory.init's
	// memory index (MemIdx holds the data-segment index), and memory.copy's
	// source memory (MemIdx holds the destination memory).
	Idx2 uint32

	// SubOp carries the 0xFC/0xFD-prefixed sub-opcode for OpMisc/OpSimd
	// instructions (wasm.MiscXxx / wasm.SimdXxx constants).
	SubOp uint32

	// Lane is the lane-index immediate for SIMD extract_lane/
	// replace_lane instructions.
	Lane uint8

	// Targets holds branch targets for OpJumpTable (Targets[i] for table
	// index i, last entry the default target), or a list of argument
	// slots for OpCall/OpCallIndirect/OpReturnCall/OpReturnCallIndirect,
	// or the list of result slots for OpReturn. Which interpretation
	// applies is determined entirely by Op.
	Targets []int32

	// Aux holds a second slot list where one instruction needs both: the
	// result slots of a non-tail call (Targets holds its argument slots).
	Aux []int32
}

// Function is the compiled form of one Wasm function: straight-line
// register-machine code plus the metadata the interpreter needs to set up
// a call frame.
type Function struct {
	Code         []Instruction
	NumRegisters int
	NumParams    int
	NumResults   int
	NumLocals    int // NumParams + declared locals, i.e. the initial dynamic slot count

	// Consts holds the function-local constant pool for scalar (i32/i64
	// bit pattern, f32/f64 bit pattern) constants. A negative slot index
	// -(n+1) addresses Consts[n].
	Consts []uint64
	// ConstsV128 is the analogous pool for v128 constants, addressed the
	// same way through a disjoint negative-index range recorded in
	// V128ConstBase (see regalloc.go).
	ConstsV128 [][16]byte
	// V128ConstBase is the slot index of the first v128 constant; the n-th
	// v128 constant sits at slot V128ConstBase-n, so any slot at or below
	// this threshold indexes into ConstsV128 (as ConstsV128[V128ConstBase-
	// slot]) rather than Consts. Scalar and vector registers live in separate
	// banks in the interpreter, so this only disambiguates the constant
	// pool, not the dynamic register file.
	V128ConstBase int32

	// IsV128Register marks, for every non-negative dynamic slot, whether
	// that slot lives in the vector register bank (true) or the scalar
	// bank (false). Index i describes slot i.
	IsV128Register []bool

	FuncType wasm.FuncType
}
