package compiler

import (
	"github.com/wasmi/wasmi/internal/trap"
	"github.com/wasmi/wasmi/internal/werr"
	"github.com/wasmi/wasmi/wasm"
)

// compState is the mutable state threaded through one function's
// translation: the register allocator, the value stack (with its
// deferred-local entries), the open control-frame stack, and the
// instruction encoder.
type compState struct {
	module *wasm.Module
	regs   *regAlloc
	stack  valueStack
	enc    *encoder
	frames []*ctrlFrame
	locals []wasm.ValType
}

func (c *compState) topFrame() *ctrlFrame { return c.frames[len(c.frames)-1] }

func (c *compState) frameAt(depth uint32) *ctrlFrame {
	return c.frames[len(c.frames)-1-int(depth)]
}

// pop returns the top value-stack entry, or a harmless placeholder without
// underflowing once the current frame has gone unreachable -- mirroring
// the validator's polymorphic stack, since dead code never actually
// executes and its "operands" are never read.
func (c *compState) pop() vsEntry {
	f := c.topFrame()
	if f.unreachable && c.stack.height() <= f.startHeight {
		return vsEntry{}
	}
	return c.stack.pop()
}

// Translate compiles one module-local function into register-machine code.
func Translate(m *wasm.Module, funcIdx uint32) (*Function, error) {
	ft := m.GetFuncType(funcIdx)
	body := m.LocalFuncBody(funcIdx)
	if ft == nil || body == nil {
		return nil, werr.New(werr.PhaseTranslate, werr.KindNotFound).
			Detail("function %d has no local body", funcIdx).Build()
	}
	if len(ft.Results) > 1<<15 {
		return nil, werr.TooManyFunctionResults(len(ft.Results))
	}

	locals := append([]wasm.ValType{}, ft.Params...)
	for _, le := range body.Locals {
		for i := uint32(0); i < le.Count; i++ {
			locals = append(locals, le.ValType)
		}
	}

	c := &compState{
		module: m,
		regs:   newRegAlloc(len(locals)),
		enc:    newEncoder(),
		locals: locals,
	}

	root := &ctrlFrame{
		kind:        frameBlock,
		resultTypes: toInts(ft.Results),
		resultV128:  v128Flags(ft.Results),
	}
	root.exitLabel = newLabel()
	root.resultSlots = c.allocStorageSlots(ft.Results)
	c.frames = append(c.frames, root)
	c.enc.startBlock()

	for _, instr := range body.Instrs {
		if err := c.step(instr); err != nil {
			return nil, err
		}
	}
	c.enc.closeBlock()

	if len(c.frames) != 0 {
		return nil, errUnclosedControl
	}

	layout, err := c.regs.Defrag()
	if err != nil {
		return nil, err
	}
	code := c.enc.code
	for i := range code {
		code[i].A = remapSlot(layout.remap, code[i].A)
		code[i].B = remapSlot(layout.remap, code[i].B)
		code[i].C = remapSlot(layout.remap, code[i].C)
		for j, t := range code[i].Targets {
			code[i].Targets[j] = remapSlot(layout.remap, t)
		}
		for j, t := range code[i].Aux {
			code[i].Aux[j] = remapSlot(layout.remap, t)
		}
	}

	isV128Reg := make([]bool, c.regs.numLocals)
	for i, t := range locals {
		isV128Reg[i] = isV128Type(t)
	}
	if len(layout.isV128) > len(isV128Reg) {
		isV128Reg = append(isV128Reg, layout.isV128[len(isV128Reg):]...)
	}

	return &Function{
		Code:           code,
		NumRegisters:   layout.numRegisters,
		NumParams:      len(ft.Params),
		NumResults:     len(ft.Results),
		NumLocals:      len(locals),
		Consts:         c.regs.constPool,
		ConstsV128:     c.regs.v128Pool,
		V128ConstBase:  layout.v128ConstBase,
		IsV128Register: isV128Reg,
		FuncType:       *ft,
	}, nil
}

func toInts(ts []wasm.ValType) []int {
	out := make([]int, len(ts))
	for i, t := range ts {
		out[i] = int(t)
	}
	return out
}

func (c *compState) allocStorageSlots(ts []wasm.ValType) []int32 {
	out := make([]int32, len(ts))
	for i, t := range ts {
		out[i] = c.regs.AllocStorage(isV128Type(t))
	}
	return out
}

// step dispatches one source instruction. Structured-control opcodes
// always run (they keep the frame stack synchronized with the
// instruction stream); everything else is skipped once the enclosing
// frame has gone unreachable, since dead code never executes and so
// never needs real registers or instructions.
func (c *compState) step(instr wasm.Instruction) error {
	switch instr.Opcode {
	case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
		return c.visitBlockLike(instr)
	case wasm.OpElse:
		return c.visitElse()
	case wasm.OpEnd:
		return c.visitEnd()
	}

	if c.topFrame().unreachable {
		return nil
	}

	switch instr.Opcode {
	case wasm.OpUnreachable:
		c.enc.emitNoFuse(Instruction{Op: OpUnreachable, Imm: uint64(trap.UnreachableCodeReached)})
		c.topFrame().unreachable = true
	case wasm.OpNop:
	case wasm.OpBr:
		return c.visitBr(instr)
	case wasm.OpBrIf:
		return c.visitBrIf(instr)
	case wasm.OpBrTable:
		return c.visitBrTable(instr)
	case wasm.OpReturn:
		return c.visitReturn()
	case wasm.OpCall:
		return c.visitCall(instr, false)
	case wasm.OpReturnCall:
		return c.visitCall(instr, true)
	case wasm.OpCallIndirect:
		return c.visitCallIndirect(instr, false)
	case wasm.OpReturnCallIndirect:
		return c.visitCallIndirect(instr, true)
	case wasm.OpDrop:
		c.releaseEntry(c.pop())
	case wasm.OpSelect:
		return c.visitSelect()
	case wasm.OpSelectType:
		return c.visitSelect()
	case wasm.OpLocalGet:
		return c.visitLocalGet(instr)
	case wasm.OpLocalSet:
		return c.visitLocalSetTee(instr, false)
	case wasm.OpLocalTee:
		return c.visitLocalSetTee(instr, true)
	case wasm.OpGlobalGet:
		return c.visitGlobalGet(instr)
	case wasm.OpGlobalSet:
		return c.visitGlobalSet(instr)
	case wasm.OpTableGet:
		return c.visitTableGet(instr)
	case wasm.OpTableSet:
		return c.visitTableSet(instr)
	case wasm.OpRefNull:
		c.stack.push(vsEntry{slot: c.regs.ConstSlot(0), vt: instr.Imm.(wasm.RefNullImm).HeapType, isImmediate: true})
	case wasm.OpRefIsNull:
		return c.visitUnaryGeneric(OpRefIsNull, wasm.ValI32)
	case wasm.OpRefFunc:
		idx := instr.Imm.(wasm.RefFuncImm).FuncIdx
		dst := c.regs.Push(false)
		c.enc.emit(Instruction{Op: OpRefFunc, A: dst, Imm: uint64(idx)})
		c.stack.push(vsEntry{slot: dst, vt: wasm.ValFuncRef, isDynamic: true})
	case wasm.OpMemorySize:
		dst := c.regs.Push(false)
		c.enc.emit(Instruction{Op: Op(wasm.OpMemorySize), A: dst})
		c.stack.push(vsEntry{slot: dst, vt: wasm.ValI32, isDynamic: true})
	case wasm.OpMemoryGrow:
		delta := c.pop()
		dst := c.regs.Push(false)
		c.enc.emit(Instruction{Op: Op(wasm.OpMemoryGrow), A: dst, B: delta.slot})
		c.releaseEntry(delta)
		c.stack.push(vsEntry{slot: dst, vt: wasm.ValI32, isDynamic: true})
	case wasm.OpI32Const:
		c.stack.push(vsEntry{slot: c.regs.ConstSlot(uint64(uint32(instr.Imm.(wasm.I32Imm).Value))), vt: wasm.ValI32, isImmediate: true})
	case wasm.OpI64Const:
		c.stack.push(vsEntry{slot: c.regs.ConstSlot(uint64(instr.Imm.(wasm.I64Imm).Value)), vt: wasm.ValI64, isImmediate: true})
	case wasm.OpF32Const:
		c.stack.push(vsEntry{slot: c.regs.ConstSlot(uint64(f32bits(instr.Imm.(wasm.F32Imm).Value))), vt: wasm.ValF32, isImmediate: true})
	case wasm.OpF64Const:
		c.stack.push(vsEntry{slot: c.regs.ConstSlot(f64bits(instr.Imm.(wasm.F64Imm).Value)), vt: wasm.ValF64, isImmediate: true})
	case wasm.OpPrefixMisc:
		return c.visitMisc(instr)
	case wasm.OpPrefixSIMD:
		return c.visitSIMD(instr)
	default:
		return c.visitNumericOrMemory(instr)
	}
	return nil
}
