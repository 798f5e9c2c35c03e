package vm

import (
	"context"

	"github.com/wasmi/wasmi/internal/compiler"
	"github.com/wasmi/wasmi/internal/lanes"
	"github.com/wasmi/wasmi/internal/trap"
	"github.com/wasmi/wasmi/store"
	"github.com/wasmi/wasmi/wasm"
)

// engine drives one Invoke call: it owns the explicit call stack (for depth
// accounting) and the fuel budget, if any, that spans every frame the call
// pushes.
type engine struct {
	ctx  context.Context
	inst *store.Instance

	stack []*frame

	fuelEnabled bool
	fuel        int64

	outResults []uint64
}

// frameResult carries one frame's materialized return values, in FuncType
// order, up to whoever is waiting on it: either run() for the outermost
// frame, or a non-tail call site one level up in a caller's own step loop.
type frameResult struct {
	scalars []uint64
	vecs    []lanes.V128
}

// tailTarget is what a return_call/return_call_indirect resolves to: either
// module-local bytecode, reusing execFrame's loop in place, or a host
// import, which simply runs synchronously and hands its results up as if
// they were this frame's own.
type tailTarget struct {
	callee     *store.FunctionInstance
	scalarArgs []uint64
	vecArgs    []lanes.V128
}

// run drives the engine's outermost frame to completion, returning the trap
// (if any) the call stack raised. A successful return has already copied
// its results into e.outResults by the time run returns.
func (e *engine) run() TrapCode {
	res, tc, err := e.execFrame(e.stack[0])
	if err != nil {
		debugf("vm: internal error: %v", err)
		return trapOf(trap.Host)
	}
	if !tc.None() {
		return tc
	}
	e.outResults = res.scalars
	return TrapCode{}
}

// execFrame runs f to completion, looping in place -- never recursing -- on
// a tail call, so an unbounded return_call chain costs no Go stack. A
// non-tail call instead recurses through step, bounded by maxCallDepth.
func (e *engine) execFrame(f *frame) (*frameResult, TrapCode, error) {
	for {
		res, tc, tail, err := e.step(f)
		if err != nil {
			return nil, TrapCode{}, err
		}
		if !tc.None() {
			return nil, tc, nil
		}
		if res != nil {
			return res, TrapCode{}, nil
		}
		if tail == nil {
			continue
		}

		if tail.callee.IsHost() {
			results := make([]uint64, len(tail.callee.Type.Results))
			if herr := tail.callee.Host(e.ctx, tail.scalarArgs, results); herr != nil {
				debugf("vm: host function error: %v", herr)
				return nil, hostTrap(0), nil
			}
			return &frameResult{scalars: results}, TrapCode{}, nil
		}

		nf := newFrame(tail.callee.Compiled)
		copy(nf.regs, tail.scalarArgs)
		for i, t := range tail.callee.Type.Params {
			if t == wasm.ValV128 {
				nf.setV128(int32(i), tail.vecArgs[i])
			}
		}
		f = nf
	}
}

// callFunc invokes callee synchronously from inside a non-tail OpCall/
// OpCallIndirect, recursing through execFrame (host calls run directly, no
// recursion needed). Depth accounting only applies to module-local callees,
// since a host call consumes no interpreter frame.
func (e *engine) callFunc(callee *store.FunctionInstance, scalarArgs []uint64, vecArgs []lanes.V128) (*frameResult, TrapCode, error) {
	if callee.IsHost() {
		results := make([]uint64, len(callee.Type.Results))
		if herr := callee.Host(e.ctx, scalarArgs, results); herr != nil {
			debugf("vm: host function error: %v", herr)
			return nil, hostTrap(0), nil
		}
		return &frameResult{scalars: results}, TrapCode{}, nil
	}

	if len(e.stack) >= maxCallDepth {
		return nil, trapOf(trap.StackOverflow), nil
	}

	nf := newFrame(callee.Compiled)
	copy(nf.regs, scalarArgs)
	for i, t := range callee.Type.Params {
		if t == wasm.ValV128 {
			nf.setV128(int32(i), vecArgs[i])
		}
	}

	e.stack = append(e.stack, nf)
	res, tc, err := e.execFrame(nf)
	e.stack = e.stack[:len(e.stack)-1]
	return res, tc, err
}

// gatherArgs reads slots in param order from f, splitting into the scalar
// and (lazily populated) vector argument arrays a callee needs.
func gatherArgs(f *frame, slots []int32, params []wasm.ValType) ([]uint64, []lanes.V128) {
	scalars := make([]uint64, len(slots))
	var vecs []lanes.V128
	for i, s := range slots {
		if params[i] == wasm.ValV128 {
			if vecs == nil {
				vecs = make([]lanes.V128, len(slots))
			}
			vecs[i] = f.getV128(s)
			continue
		}
		scalars[i] = f.get64(s)
	}
	return scalars, vecs
}

// deliverResult writes a non-tail call's results into the caller frame's
// Aux slots.
func deliverResult(f *frame, dst []int32, results []wasm.ValType, res *frameResult) {
	for i, t := range results {
		if t == wasm.ValV128 {
			f.setV128(dst[i], res.vecs[i])
			continue
		}
		f.set64(dst[i], res.scalars[i])
	}
}
