package compiler_test

import (
	"context"
	"testing"

	"github.com/wasmi/wasmi/internal/compiler"
	"github.com/wasmi/wasmi/internal/trap"
	"github.com/wasmi/wasmi/internal/vm"
	"github.com/wasmi/wasmi/wasm"
)

// moduleWith builds a single-function module: functype at type index 0 is
// the function's own signature, extraTypes are appended after it (so an
// `if`/`block`/`loop` blocktype can reference them by index starting at 1).
func moduleWith(ft wasm.FuncType, locals []wasm.LocalEntry, instrs []wasm.Instruction, extraTypes ...wasm.FuncType) *wasm.Module {
	return &wasm.Module{
		Types:     append([]wasm.FuncType{ft}, extraTypes...),
		Functions: []uint32{0},
		Code: []wasm.FuncBody{
			{Locals: locals, Instrs: instrs},
		},
	}
}

func invoke(t *testing.T, ctx context.Context, fn *compiler.Function, args, results []uint64) vm.TrapCode {
	t.Helper()
	tc, err := vm.Invoke(ctx, nil, fn, args, results)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	return tc
}

// TestTranslateLoopBrReentersFuelCharge is a regression test for a bug where
// the loop continue label was pinned after the block's ConsumeFuel
// placeholder instead of at it, so `br` back to the top of a loop skipped
// the fuel charge on every iteration but the first and the loop never
// trapped OutOfFuel.
func TestTranslateLoopBrReentersFuelCharge(t *testing.T) {
	m := moduleWith(
		wasm.FuncType{},
		nil,
		[]wasm.Instruction{
			{Opcode: wasm.OpLoop, Imm: wasm.BlockImm{Type: wasm.BlockTypeVoid}},
			{Opcode: wasm.OpBr, Imm: wasm.BranchImm{LabelIdx: 0}},
			{Opcode: wasm.OpEnd},
			{Opcode: wasm.OpEnd},
		},
	)

	fn, err := compiler.Translate(m, 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	ctx := vm.WithFuel(context.Background(), 100)
	tc := invoke(t, ctx, fn, nil, nil)
	if tc.None() {
		t.Fatalf("expected a trap, got none")
	}
	if tc.Code != trap.OutOfFuel {
		t.Fatalf("trap = %v, want OutOfFuel", tc.Code)
	}
}

// TestTranslateIfNoElseForwardsParamsOnFalsePath and
// TestTranslateIfNoElseRunsThenArmOnTruePath are regression tests for a bug
// where an else-less `if (param t)(result t)` compiled both arms wrong: the
// then-arm fell through into the false path's param-forwarding copies
// (overwriting its own result), and the false path landed past those copies
// without ever running them.
func ifNoElseModule() *wasm.Module {
	paramResult := wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}}
	return moduleWith(
		paramResult,
		nil,
		[]wasm.Instruction{
			{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}}, // condition
			{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}}, // blocktype param
			{Opcode: wasm.OpIf, Imm: wasm.BlockImm{Type: 1}},
			{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 1}},
			{Opcode: wasm.OpI32Add},
			{Opcode: wasm.OpEnd}, // end if, no else
			{Opcode: wasm.OpEnd}, // end function
		},
		paramResult, // type index 1: the if's blocktype, (i32)->(i32)
	)
}

func TestTranslateIfNoElseRunsThenArmOnTruePath(t *testing.T) {
	fn, err := compiler.Translate(ifNoElseModule(), 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	results := make([]uint64, 1)
	tc := invoke(t, context.Background(), fn, []uint64{5}, results)
	if !tc.None() {
		t.Fatalf("unexpected trap: %s", tc.Error())
	}
	if got := int32(uint32(results[0])); got != 6 {
		t.Fatalf("then-arm(5) = %d, want 6", got)
	}
}

func TestTranslateIfNoElseForwardsParamsOnFalsePath(t *testing.T) {
	fn, err := compiler.Translate(ifNoElseModule(), 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	results := make([]uint64, 1)
	tc := invoke(t, context.Background(), fn, []uint64{0}, results)
	if !tc.None() {
		t.Fatalf("unexpected trap: %s", tc.Error())
	}
	if got := int32(uint32(results[0])); got != 0 {
		t.Fatalf("no-else fallthrough(0) = %d, want 0 (param forwarded unchanged)", got)
	}
}

// TestTranslateDefragLargestSlotIsNumRegistersMinusOne exercises the
// register allocator's final layout property directly: once Defrag runs,
// the highest slot any instruction references is exactly NumRegisters-1,
// with no gaps left by the storage/dynamic split.
func TestTranslateDefragLargestSlotIsNumRegistersMinusOne(t *testing.T) {
	// (block (result i32) (local.get 0) (local.get 1) i32.add)
	ft := wasm.FuncType{Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}}
	m := moduleWith(ft, nil, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 1}},
		{Opcode: wasm.OpI32Add},
		{Opcode: wasm.OpEnd},
	})

	fn, err := compiler.Translate(m, 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	var maxSlot int32 = -1
	walk := func(s int32) {
		if s >= 0 && s > maxSlot {
			maxSlot = s
		}
	}
	for _, instr := range fn.Code {
		walk(instr.A)
		walk(instr.B)
		walk(instr.C)
		for _, t := range instr.Targets {
			walk(t)
		}
		for _, t := range instr.Aux {
			walk(t)
		}
	}
	if maxSlot != int32(fn.NumRegisters-1) {
		t.Fatalf("largest referenced slot = %d, want NumRegisters-1 = %d", maxSlot, fn.NumRegisters-1)
	}

	results := make([]uint64, 1)
	tc := invoke(t, context.Background(), fn, []uint64{2, 3}, results)
	if !tc.None() {
		t.Fatalf("unexpected trap: %s", tc.Error())
	}
	if got := int32(uint32(results[0])); got != 5 {
		t.Fatalf("2+3 = %d, want 5", got)
	}
}

// TestTranslateCompareBranchFusionSound checks that an `i32.eq` immediately
// tested by `br_if` produces the same observable result as the unfused
// semantics: branch taken iff the operands are equal.
func TestTranslateCompareBranchFusionSound(t *testing.T) {
	// (func (param i32 i32) (result i32)
	//   (block (result i32)
	//     local.get 0
	//     local.get 1
	//     i32.eq
	//     (if (then (i32.const 1) (return)))
	//     (i32.const 0)))
	ft := wasm.FuncType{Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}}
	m := moduleWith(ft, nil, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 1}},
		{Opcode: wasm.OpI32Eq},
		{Opcode: wasm.OpIf, Imm: wasm.BlockImm{Type: wasm.BlockTypeVoid}},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 1}},
		{Opcode: wasm.OpReturn},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 0}},
		{Opcode: wasm.OpEnd},
	})

	fn, err := compiler.Translate(m, 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	for _, c := range []struct {
		a, b uint64
		want int32
	}{
		{3, 3, 1},
		{3, 4, 0},
	} {
		results := make([]uint64, 1)
		tc := invoke(t, context.Background(), fn, []uint64{c.a, c.b}, results)
		if !tc.None() {
			t.Fatalf("unexpected trap: %s", tc.Error())
		}
		if got := int32(uint32(results[0])); got != c.want {
			t.Fatalf("eq(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

// TestTranslateConstantFoldsAtCompileTime checks that a fully constant
// expression is folded to a single constant slot rather than emitting an
// arithmetic instruction.
func TestTranslateConstantFoldsAtCompileTime(t *testing.T) {
	ft := wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}}
	m := moduleWith(ft, nil, []wasm.Instruction{
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 2}},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 3}},
		{Opcode: wasm.OpI32Add},
		{Opcode: wasm.OpEnd},
	})

	fn, err := compiler.Translate(m, 0)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	for _, instr := range fn.Code {
		if instr.Op == compiler.Op(wasm.OpI32Add) {
			t.Fatalf("expected i32.add on two constants to be folded, found an add instruction in %v", fn.Code)
		}
	}

	results := make([]uint64, 1)
	tc := invoke(t, context.Background(), fn, nil, results)
	if !tc.None() {
		t.Fatalf("unexpected trap: %s", tc.Error())
	}
	if got := int32(uint32(results[0])); got != 5 {
		t.Fatalf("const-folded 2+3 = %d, want 5", got)
	}
}
