package compiler

import "github.com/wasmi/wasmi/wasm"

// numShape describes a numeric/comparison/conversion opcode's operand
// arity and result type, mirroring wasm.ValidateModule's own classification
// (see wasm/validate.go's stepNumeric) so the translator pops exactly what
// validation already proved is on the stack.
type numShape struct {
	arity  int // 1 (unary) or 2 (binary)
	result wasm.ValType
}

func classifyNumeric(op byte) numShape {
	switch op {
	case wasm.OpI32Eqz:
		return numShape{1, wasm.ValI32}
	case wasm.OpI32Eq, wasm.OpI32Ne, wasm.OpI32LtS, wasm.OpI32LtU, wasm.OpI32GtS, wasm.OpI32GtU,
		wasm.OpI32LeS, wasm.OpI32LeU, wasm.OpI32GeS, wasm.OpI32GeU:
		return numShape{2, wasm.ValI32}
	case wasm.OpI64Eqz:
		return numShape{1, wasm.ValI32}
	case wasm.OpI64Eq, wasm.OpI64Ne, wasm.OpI64LtS, wasm.OpI64LtU, wasm.OpI64GtS, wasm.OpI64GtU,
		wasm.OpI64LeS, wasm.OpI64LeU, wasm.OpI64GeS, wasm.OpI64GeU:
		return numShape{2, wasm.ValI32}
	case wasm.OpF32Eq, wasm.OpF32Ne, wasm.OpF32Lt, wasm.OpF32Gt, wasm.OpF32Le, wasm.OpF32Ge:
		return numShape{2, wasm.ValI32}
	case wasm.OpF64Eq, wasm.OpF64Ne, wasm.OpF64Lt, wasm.OpF64Gt, wasm.OpF64Le, wasm.OpF64Ge:
		return numShape{2, wasm.ValI32}
	case wasm.OpI32Clz, wasm.OpI32Ctz, wasm.OpI32Popcnt, wasm.OpI32Extend8S, wasm.OpI32Extend16S:
		return numShape{1, wasm.ValI32}
	case wasm.OpI32Add, wasm.OpI32Sub, wasm.OpI32Mul, wasm.OpI32DivS, wasm.OpI32DivU,
		wasm.OpI32RemS, wasm.OpI32RemU, wasm.OpI32And, wasm.OpI32Or, wasm.OpI32Xor,
		wasm.OpI32Shl, wasm.OpI32ShrS, wasm.OpI32ShrU, wasm.OpI32Rotl, wasm.OpI32Rotr:
		return numShape{2, wasm.ValI32}
	case wasm.OpI64Clz, wasm.OpI64Ctz, wasm.OpI64Popcnt, wasm.OpI64Extend8S, wasm.OpI64Extend16S, wasm.OpI64Extend32S:
		return numShape{1, wasm.ValI64}
	case wasm.OpI64Add, wasm.OpI64Sub, wasm.OpI64Mul, wasm.OpI64DivS, wasm.OpI64DivU,
		wasm.OpI64RemS, wasm.OpI64RemU, wasm.OpI64And, wasm.OpI64Or, wasm.OpI64Xor,
		wasm.OpI64Shl, wasm.OpI64ShrS, wasm.OpI64ShrU, wasm.OpI64Rotl, wasm.OpI64Rotr:
		return numShape{2, wasm.ValI64}
	case wasm.OpF32Abs, wasm.OpF32Neg, wasm.OpF32Ceil, wasm.OpF32Floor, wasm.OpF32Trunc, wasm.OpF32Nearest, wasm.OpF32Sqrt:
		return numShape{1, wasm.ValF32}
	case wasm.OpF32Add, wasm.OpF32Sub, wasm.OpF32Mul, wasm.OpF32Div, wasm.OpF32Min, wasm.OpF32Max, wasm.OpF32Copysign:
		return numShape{2, wasm.ValF32}
	case wasm.OpF64Abs, wasm.OpF64Neg, wasm.OpF64Ceil, wasm.OpF64Floor, wasm.OpF64Trunc, wasm.OpF64Nearest, wasm.OpF64Sqrt:
		return numShape{1, wasm.ValF64}
	case wasm.OpF64Add, wasm.OpF64Sub, wasm.OpF64Mul, wasm.OpF64Div, wasm.OpF64Min, wasm.OpF64Max, wasm.OpF64Copysign:
		return numShape{2, wasm.ValF64}
	case wasm.OpI32WrapI64:
		return numShape{1, wasm.ValI32}
	case wasm.OpI32TruncF32S, wasm.OpI32TruncF32U, wasm.OpI32TruncF64S, wasm.OpI32TruncF64U:
		return numShape{1, wasm.ValI32}
	case wasm.OpI64ExtendI32S, wasm.OpI64ExtendI32U:
		return numShape{1, wasm.ValI64}
	case wasm.OpI64TruncF32S, wasm.OpI64TruncF32U, wasm.OpI64TruncF64S, wasm.OpI64TruncF64U:
		return numShape{1, wasm.ValI64}
	case wasm.OpF32ConvertI32S, wasm.OpF32ConvertI32U, wasm.OpF32ConvertI64S, wasm.OpF32ConvertI64U, wasm.OpF32DemoteF64:
		return numShape{1, wasm.ValF32}
	case wasm.OpF64ConvertI32S, wasm.OpF64ConvertI32U, wasm.OpF64ConvertI64S, wasm.OpF64ConvertI64U, wasm.OpF64PromoteF32:
		return numShape{1, wasm.ValF64}
	case wasm.OpI32ReinterpretF32:
		return numShape{1, wasm.ValI32}
	case wasm.OpI64ReinterpretF64:
		return numShape{1, wasm.ValI64}
	case wasm.OpF32ReinterpretI32:
		return numShape{1, wasm.ValF32}
	case wasm.OpF64ReinterpretI64:
		return numShape{1, wasm.ValF64}
	}
	panic("compiler: classifyNumeric called with non-numeric opcode")
}

// loadResultType and storeValueType classify the 1-instruction memory
// access opcodes: every load pops an i32 address and pushes a value of the
// listed type; every store pops a value of the listed type then an i32
// address.
func loadResultType(op byte) wasm.ValType {
	switch op {
	case wasm.OpI32Load, wasm.OpI32Load8S, wasm.OpI32Load8U, wasm.OpI32Load16S, wasm.OpI32Load16U:
		return wasm.ValI32
	case wasm.OpI64Load, wasm.OpI64Load8S, wasm.OpI64Load8U, wasm.OpI64Load16S, wasm.OpI64Load16U, wasm.OpI64Load32S, wasm.OpI64Load32U:
		return wasm.ValI64
	case wasm.OpF32Load:
		return wasm.ValF32
	case wasm.OpF64Load:
		return wasm.ValF64
	}
	panic("compiler: loadResultType called with non-load opcode")
}

func storeValueType(op byte) wasm.ValType {
	switch op {
	case wasm.OpI32Store, wasm.OpI32Store8, wasm.OpI32Store16:
		return wasm.ValI32
	case wasm.OpI64Store, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32:
		return wasm.ValI64
	case wasm.OpF32Store:
		return wasm.ValF32
	case wasm.OpF64Store:
		return wasm.ValF64
	}
	panic("compiler: storeValueType called with non-store opcode")
}

func isLoadOp(op byte) bool {
	switch op {
	case wasm.OpI32Load, wasm.OpI32Load8S, wasm.OpI32Load8U, wasm.OpI32Load16S, wasm.OpI32Load16U,
		wasm.OpI64Load, wasm.OpI64Load8S, wasm.OpI64Load8U, wasm.OpI64Load16S, wasm.OpI64Load16U,
		wasm.OpI64Load32S, wasm.OpI64Load32U, wasm.OpF32Load, wasm.OpF64Load:
		return true
	}
	return false
}

func isStoreOp(op byte) bool {
	switch op {
	case wasm.OpI32Store, wasm.OpI32Store8, wasm.OpI32Store16,
		wasm.OpI64Store, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32,
		wasm.OpF32Store, wasm.OpF64Store:
		return true
	}
	return false
}
