package store

import (
	"math"

	"github.com/wasmi/wasmi/internal/werr"
	"github.com/wasmi/wasmi/wasm"
)

// constResult is the decoded value of a constant init expression: either a
// scalar word or, for v128.const, the full 16-byte lane pattern.
type constResult struct {
	bits   uint64
	vec    [16]byte
	isV128 bool
}

// evalConstExpr evaluates one init expression (global init, element/data
// offset, or an element segment's ref.null/ref.func entry). Only the
// single-instruction forms the MVP constant-expression grammar allows are
// supported: i32/i64/f32/f64.const, global.get of an earlier (necessarily
// imported and immutable) global, ref.null, ref.func, and v128.const.
// priorGlobals indexes the globals visible to a global.get here, i.e.
// every import plus every module-local global already initialized before
// this one in module order.
func evalConstExpr(priorGlobals []*Global, instrs []wasm.Instruction) (constResult, error) {
	if len(instrs) != 1 {
		return constResult{}, werr.New(werr.PhaseRuntime, werr.KindUnsupported).
			Detail("constant expression needs exactly one instruction, got %d", len(instrs)).Build()
	}
	instr := instrs[0]
	switch instr.Opcode {
	case wasm.OpI32Const:
		return constResult{bits: uint64(uint32(instr.Imm.(wasm.I32Imm).Value))}, nil
	case wasm.OpI64Const:
		return constResult{bits: uint64(instr.Imm.(wasm.I64Imm).Value)}, nil
	case wasm.OpF32Const:
		return constResult{bits: uint64(math.Float32bits(instr.Imm.(wasm.F32Imm).Value))}, nil
	case wasm.OpF64Const:
		return constResult{bits: math.Float64bits(instr.Imm.(wasm.F64Imm).Value)}, nil
	case wasm.OpGlobalGet:
		idx := instr.Imm.(wasm.GlobalImm).GlobalIdx
		if int(idx) >= len(priorGlobals) {
			return constResult{}, werr.New(werr.PhaseRuntime, werr.KindOutOfBounds).
				Detail("constant expression: global %d not yet defined", idx).Build()
		}
		g := priorGlobals[idx]
		if g.IsV128() {
			return constResult{vec: g.GetV128(), isV128: true}, nil
		}
		return constResult{bits: g.Get()}, nil
	case wasm.OpRefNull:
		return constResult{bits: 0}, nil
	case wasm.OpRefFunc:
		idx := instr.Imm.(wasm.RefFuncImm).FuncIdx
		return constResult{bits: uint64(idx) + 1}, nil
	case wasm.OpPrefixSIMD:
		imm := instr.Imm.(wasm.SIMDImm)
		if imm.SubOpcode == wasm.SimdV128Const {
			return constResult{vec: imm.V128Const, isV128: true}, nil
		}
	}
	return constResult{}, werr.New(werr.PhaseRuntime, werr.KindUnsupported).
		Detail("unsupported constant expression opcode 0x%02x", instr.Opcode).Build()
}
