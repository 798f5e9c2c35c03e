// Package vm is the interpreter: it executes a compiled register-machine
// function (internal/compiler.Function) against a host-managed store,
// dispatching one instruction at a time, raising traps in place of panics
// on every condition Wasm defines as trapping, and reusing the current call
// frame on a tail call so an unbounded return_call chain runs in bounded
// Go stack space.
package vm

import (
	"context"

	"github.com/wasmi/wasmi/internal/compiler"
	"github.com/wasmi/wasmi/internal/lanes"
	"github.com/wasmi/wasmi/internal/werr"
	"github.com/wasmi/wasmi/store"
)

// maxCallDepth bounds the manual call-stack depth (non-tail calls only; a
// tail call reuses its frame and never grows this). Reference engines pick
// a similar bound to turn runaway non-tail recursion into a catchable trap
// instead of an unbounded Go allocation.
const maxCallDepth = 1 << 14

// frame is one activation record: the callee's register file plus enough
// bookkeeping to resume the caller once it returns. Scalar and vector
// values live in parallel banks indexed by the same dynamic slot number,
// exactly as internal/compiler's register allocator documents; vecs is
// allocated lazily since most functions touch no v128 value at all.
type frame struct {
	fn   *compiler.Function
	regs []uint64
	vecs []lanes.V128
	pc   int32
}

func newFrame(fn *compiler.Function) *frame {
	return &frame{fn: fn, regs: make([]uint64, fn.NumRegisters)}
}

func (f *frame) vecBank() []lanes.V128 {
	if f.vecs == nil {
		f.vecs = make([]lanes.V128, len(f.regs))
	}
	return f.vecs
}

// get64 resolves a slot to its scalar 64-bit word: a dynamic register, a
// scalar constant, or (reinterpreting only the low 8 bytes) a v128
// constant, matching how the translator would never route a v128-typed
// operand through get64 in valid code but a slot's sign alone can't tell
// the interpreter which bank a negative constant index belongs to without
// comparing against V128ConstBase.
func (f *frame) get64(slot int32) uint64 {
	if slot >= 0 {
		return f.regs[slot]
	}
	if slot <= f.fn.V128ConstBase {
		v := f.fn.ConstsV128[f.fn.V128ConstBase-slot]
		return leU64(v[:8])
	}
	return f.fn.Consts[-slot-1]
}

func (f *frame) set64(slot int32, v uint64) { f.regs[slot] = v }

func (f *frame) getV128(slot int32) lanes.V128 {
	if slot >= 0 {
		return f.vecBank()[slot]
	}
	return lanes.V128(f.fn.ConstsV128[f.fn.V128ConstBase-slot])
}

func (f *frame) setV128(slot int32, v lanes.V128) { f.vecBank()[slot] = v }

// copySlot moves one value between two slots of the same frame, picking the
// bank by the destination's declared kind. Slot A is always a dynamic
// register for OpCopy (translator never copies into a constant), so
// IsV128Register[dst] is always safe to consult.
func (f *frame) copySlot(dst, src int32) {
	if f.fn.IsV128Register[dst] {
		f.setV128(dst, f.getV128(src))
		return
	}
	f.set64(dst, f.get64(src))
}

func leU64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// Invoke runs fn to completion (or to a trap) against inst, reading
// arguments from args and writing results into results. Both slices are
// scalar words: a v128-typed export parameter or result cannot cross this
// boundary, since the embedder-facing call convention (shared with
// cmd/wasmi) only ever marshals i32/i64/f32/f64 values.
func Invoke(ctx context.Context, inst *store.Instance, fn *compiler.Function, args []uint64, results []uint64) (TrapCode, error) {
	if fn == nil {
		return TrapCode{}, werr.New(werr.PhaseRuntime, werr.KindNotFound).Detail("invoke: nil function").Build()
	}
	if len(args) != fn.NumParams {
		return TrapCode{}, werr.New(werr.PhaseRuntime, werr.KindInvalidData).
			Detail("invoke: want %d arguments, got %d", fn.NumParams, len(args)).Build()
	}
	if len(results) != fn.NumResults {
		return TrapCode{}, werr.New(werr.PhaseRuntime, werr.KindInvalidData).
			Detail("invoke: want %d results, got %d", fn.NumResults, len(results)).Build()
	}

	top := newFrame(fn)
	copy(top.regs, args)

	e := &engine{ctx: ctx, inst: inst, stack: []*frame{top}}
	if f, ok := fuelFromContext(ctx); ok {
		e.fuelEnabled = true
		e.fuel = f
	}
	tc := e.run()
	if !tc.None() {
		return tc, nil
	}
	copy(results, e.outResults)
	return TrapCode{}, nil
}
