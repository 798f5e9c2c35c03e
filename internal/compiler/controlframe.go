package compiler

import (
	"github.com/wasmi/wasmi/internal/werr"
	"github.com/wasmi/wasmi/wasm"
)

type frameKind int

const (
	frameBlock frameKind = iota
	frameLoop
	frameIf
	frameElse
)

// label tracks a branch target that may be known immediately (a loop's own
// header, "Pinned") or only once its enclosing structured-control
// construct closes ("Unresolved", e.g. every forward block/if exit). Sites
// that branch to an unresolved label are recorded and rewritten once the
// label is pinned.
type label struct {
	pinned  bool
	target  int32
	patches []patchSite
}

type patchKind int

const (
	patchA patchKind = iota
	patchTargetEntry
)

type patchSite struct {
	kind  patchKind
	instr int32
	entry int
}

func newLabel() *label { return &label{} }

func (l *label) addPatch(p patchSite, code []Instruction) {
	if l.pinned {
		applyPatch(code, p, l.target)
		return
	}
	l.patches = append(l.patches, p)
}

func (l *label) pin(target int32, code []Instruction) {
	l.pinned = true
	l.target = target
	for _, p := range l.patches {
		applyPatch(code, p, target)
	}
	l.patches = nil
}

func applyPatch(code []Instruction, p patchSite, target int32) {
	switch p.kind {
	case patchA:
		code[p.instr].A = target
	case patchTargetEntry:
		code[p.instr].Targets[p.entry] = target
	}
}

// ctrlFrame mirrors the validator's control-frame stack but additionally
// carries the registers and labels the translator needs: where a branch
// out of this frame should jump, where this frame's results live, and the
// dynamic stack height to restore on exit.
type ctrlFrame struct {
	kind frameKind

	paramTypes  []int // count only matters for height bookkeeping; types tracked for v128-ness
	resultTypes []int
	paramV128   []bool
	resultV128  []bool

	// exitLabel is branched to by br targeting this frame (block/if) --
	// i.e. "jump past the end". loopHeadLabel is branched to by br
	// targeting a loop (jump back to the top) and is pinned immediately.
	exitLabel     *label
	loopHeadLabel *label

	// startHeight is the dynamic register-stack depth (in slots, not
	// counting constants) when this frame was entered, i.e. the height to
	// which the stack unwinds on exit after popping the frame's own
	// working values.
	startHeight int32

	// resultSlots are the storage-region placeholders results must land
	// in so every branch out of the frame converges on the same
	// registers.
	resultSlots []int32

	unreachable bool

	// branchTargetReached records whether any br/br_if/br_table ever
	// targeted this frame's exit (not a loop's head): if so, the code
	// after the matching End is reachable even when the frame's own
	// straight-line fallthrough was not.
	branchTargetReached bool

	// paramSlots, for a Loop frame only, are the fixed registers its
	// params were snapshotted into on entry; every branch back to the
	// loop head must copy its operands into these same slots first so the
	// loop body always reads its parameters from one stable place.
	paramSlots []int32

	// paramEntries snapshots the block/if's param value-stack entries at
	// entry, so the Else arm (which logically receives the same params as
	// the Then arm) can restore them after Then's working values are
	// unwound.
	paramEntries []vsEntry

	// elseLabel, for an If frame, marks where the Else arm begins (or,
	// absent an explicit Else, where End begins); the If's initial
	// JumpIfZero targets it.
	elseLabel *label
	hasElse   bool
}

// blockArity resolves a BlockImm's encoded type to its param and result
// types, using the enclosing module's type section for function-typed
// blocks.
func blockArity(m *compState, bt int32) (params, results []wasm.ValType) {
	switch bt {
	case wasm.BlockTypeVoid:
		return nil, nil
	case wasm.BlockTypeI32, wasm.BlockTypeI64, wasm.BlockTypeF32, wasm.BlockTypeF64, wasm.BlockTypeV128, wasm.BlockTypeFunc, wasm.BlockTypeExt:
		return nil, []wasm.ValType{valTypeFromBlockType(bt)}
	default:
		ft := m.module.Types[bt]
		return ft.Params, ft.Results
	}
}

func valTypeFromBlockType(bt int32) wasm.ValType {
	switch bt {
	case wasm.BlockTypeI32:
		return wasm.ValI32
	case wasm.BlockTypeI64:
		return wasm.ValI64
	case wasm.BlockTypeF32:
		return wasm.ValF32
	case wasm.BlockTypeF64:
		return wasm.ValF64
	case wasm.BlockTypeV128:
		return wasm.ValV128
	case wasm.BlockTypeFunc:
		return wasm.ValFuncRef
	default:
		return wasm.ValExtern
	}
}

func isV128Type(t wasm.ValType) bool { return t == wasm.ValV128 }

func v128Flags(ts []wasm.ValType) []bool {
	out := make([]bool, len(ts))
	for i, t := range ts {
		out[i] = isV128Type(t)
	}
	return out
}

var errUnclosedControl = werr.New(werr.PhaseTranslate, werr.KindUnsupported).Detail("unclosed control frame").Build()
