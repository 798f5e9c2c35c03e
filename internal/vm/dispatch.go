package vm

import (
	"github.com/wasmi/wasmi/internal/compiler"
	"github.com/wasmi/wasmi/internal/lanes"
	"github.com/wasmi/wasmi/internal/trap"
	"github.com/wasmi/wasmi/store"
	"github.com/wasmi/wasmi/wasm"
)

// step executes exactly one compiler.Instruction from f, advancing f.pc (a
// control-flow op overwrites pc itself rather than letting the default
// advance stand). Exactly one of the four return values is meaningful on
// any given call: a non-nil frameResult means f hit an OpReturn and is
// done; a non-None TrapCode means the instruction trapped; a non-nil
// tailTarget means f hit a return_call and execFrame should reuse its loop
// for the callee; anything else means keep looping. err is reserved for
// conditions that indicate a bug in the compiled program rather than a
// condition Wasm itself defines as trapping (e.g. an out-of-range function
// index that passed validation).
func (e *engine) step(f *frame) (*frameResult, TrapCode, *tailTarget, error) {
	instr := &f.fn.Code[f.pc]
	f.pc++

	switch instr.Op {
	case compiler.OpConsumeFuel:
		if e.fuelEnabled {
			e.fuel -= int64(instr.Imm)
			if e.fuel < 0 {
				return nil, trapOf(trap.OutOfFuel), nil, nil
			}
		}
		return nil, TrapCode{}, nil, nil

	case compiler.OpUnreachable:
		return nil, trapOf(trap.Code(instr.Imm)), nil, nil

	case compiler.OpJump:
		f.pc = instr.A
		return nil, TrapCode{}, nil, nil

	case compiler.OpJumpIfZero, compiler.OpJumpIfNotZero:
		taken, tc := evalJumpCond(f, instr)
		if !tc.None() {
			return nil, tc, nil, nil
		}
		if taken == (instr.Op == compiler.OpJumpIfNotZero) {
			f.pc = instr.Targets[0]
		}
		return nil, TrapCode{}, nil, nil

	case compiler.OpJumpTable:
		// The translator never emits this op (br_table lowers to a chain of
		// conditional jumps instead); kept only so an exhaustive switch
		// doesn't need a panic default for a declared Op value.
		idx := int(uint32(f.get64(instr.A)))
		if idx < 0 || idx >= len(instr.Targets)-1 {
			idx = len(instr.Targets) - 1
		}
		f.pc = instr.Targets[idx]
		return nil, TrapCode{}, nil, nil

	case compiler.OpReturn:
		return buildResult(f, instr.Targets, f.fn.FuncType.Results), TrapCode{}, nil, nil

	case compiler.OpCall:
		callee := e.inst.FuncInstance(uint32(instr.Imm))
		scalars, vecs := gatherArgs(f, instr.Targets, callee.Type.Params)
		res, tc, err := e.callFunc(callee, scalars, vecs)
		if err != nil || !tc.None() {
			return nil, tc, nil, err
		}
		deliverResult(f, instr.Aux, callee.Type.Results, res)
		return nil, TrapCode{}, nil, nil

	case compiler.OpCallIndirect:
		callee, tc := e.resolveIndirect(f, instr)
		if !tc.None() {
			return nil, tc, nil, nil
		}
		scalars, vecs := gatherArgs(f, instr.Targets, callee.Type.Params)
		res, tc, err := e.callFunc(callee, scalars, vecs)
		if err != nil || !tc.None() {
			return nil, tc, nil, err
		}
		deliverResult(f, instr.Aux, callee.Type.Results, res)
		return nil, TrapCode{}, nil, nil

	case compiler.OpReturnCall:
		callee := e.inst.FuncInstance(uint32(instr.Imm))
		scalars, vecs := gatherArgs(f, instr.Targets, callee.Type.Params)
		return nil, TrapCode{}, &tailTarget{callee: callee, scalarArgs: scalars, vecArgs: vecs}, nil

	case compiler.OpReturnCallIndirect:
		callee, tc := e.resolveIndirect(f, instr)
		if !tc.None() {
			return nil, tc, nil, nil
		}
		scalars, vecs := gatherArgs(f, instr.Targets, callee.Type.Params)
		return nil, TrapCode{}, &tailTarget{callee: callee, scalarArgs: scalars, vecArgs: vecs}, nil

	case compiler.OpCopy:
		f.copySlot(instr.A, instr.B)
		return nil, TrapCode{}, nil, nil

	case compiler.OpCopyV128:
		// Vestigial: the translator only ever emits OpCopy, picking the
		// bank by IsV128Register at the VM's copySlot. Kept for symmetry.
		f.setV128(instr.A, f.getV128(instr.B))
		return nil, TrapCode{}, nil, nil

	case compiler.OpDropKeep:
		// Vestigial: stack-depth bookkeeping is fully resolved to slot
		// assignment at translate time; no runtime drop/keep is needed.
		return nil, TrapCode{}, nil, nil

	case compiler.OpGlobalGet:
		g := e.inst.Global(uint32(instr.Imm))
		if g.IsV128() {
			f.setV128(instr.A, lanes.V128(g.GetV128()))
		} else {
			f.set64(instr.A, g.Get())
		}
		return nil, TrapCode{}, nil, nil

	case compiler.OpGlobalSet:
		g := e.inst.Global(uint32(instr.Imm))
		if g.IsV128() {
			g.SetV128([16]byte(f.getV128(instr.B)))
		} else {
			g.Set(f.get64(instr.B))
		}
		return nil, TrapCode{}, nil, nil

	case compiler.OpRefNull:
		// Vestigial: ref.null folds to the scalar constant 0 at translate
		// time, so this op is never actually emitted.
		f.set64(instr.A, 0)
		return nil, TrapCode{}, nil, nil

	case compiler.OpRefIsNull:
		f.set64(instr.A, b2u64(f.get64(instr.B) == 0))
		return nil, TrapCode{}, nil, nil

	case compiler.OpRefFunc:
		f.set64(instr.A, uint64(instr.Imm)+1)
		return nil, TrapCode{}, nil, nil

	case compiler.OpSelect:
		cond := f.get64(int32(uint32(instr.Imm)))
		src := instr.C
		if cond != 0 {
			src = instr.B
		}
		if f.fn.IsV128Register[instr.A] {
			f.setV128(instr.A, f.getV128(src))
		} else {
			f.set64(instr.A, f.get64(src))
		}
		return nil, TrapCode{}, nil, nil

	case compiler.OpMisc:
		return nil, e.execMisc(f, instr), nil, nil

	case compiler.OpSimd:
		return nil, e.execSimd(f, instr), nil, nil

	default:
		return nil, e.execNumericOrMemory(f, instr), nil, nil
	}
}

// evalJumpCond resolves a JumpIfZero/JumpIfNotZero's condition, reading
// either the materialized boolean (A) or, when the compare+branch fusion
// applies, re-evaluating the original comparison directly from its
// operands (B, C) without ever having materialized a boolean at all.
func evalJumpCond(f *frame, instr *compiler.Instruction) (bool, TrapCode) {
	if op, ok := compiler.DecodeFusedCompareBranch(instr.Imm); ok {
		v, tr := compiler.EvalBinary(op, f.get64(instr.B), f.get64(instr.C))
		if tr != trap.None {
			return false, trapOf(tr)
		}
		return v != 0, TrapCode{}
	}
	return f.get64(instr.A) != 0, TrapCode{}
}

// resolveIndirect performs a call_indirect/return_call_indirect's table
// lookup, null check, and signature check, in that order, matching the
// core spec's trap precedence.
func (e *engine) resolveIndirect(f *frame, instr *compiler.Instruction) (*store.FunctionInstance, TrapCode) {
	tbl := e.inst.Table(uint32(instr.B))
	raw, ok := tbl.Get(uint32(f.get64(instr.A)))
	if !ok {
		return nil, trapOf(trap.TableOutOfBounds)
	}
	if raw == 0 {
		return nil, trapOf(trap.IndirectCallToNull)
	}
	callee := e.inst.FuncInstance(uint32(raw - 1))
	want := &e.inst.Module.Types[instr.C]
	if !want.Equal(&callee.Type) {
		return nil, trapOf(trap.IndirectCallTypeMismatch)
	}
	return callee, TrapCode{}
}

// buildResult materializes an OpReturn's result slots, in FuncType order,
// into the value set a caller (or run, for the outermost frame) receives.
func buildResult(f *frame, slots []int32, types []wasm.ValType) *frameResult {
	res := &frameResult{scalars: make([]uint64, len(slots))}
	for i, t := range types {
		if t == wasm.ValV128 {
			if res.vecs == nil {
				res.vecs = make([]lanes.V128, len(slots))
			}
			res.vecs[i] = f.getV128(slots[i])
			continue
		}
		res.scalars[i] = f.get64(slots[i])
	}
	return res
}

func b2u64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
