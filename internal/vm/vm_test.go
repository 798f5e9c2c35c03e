package vm_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/wasmi/wasmi/internal/compiler"
	"github.com/wasmi/wasmi/internal/trap"
	"github.com/wasmi/wasmi/internal/vm"
	"github.com/wasmi/wasmi/wasm"
)

func i32Results() wasm.FuncType { return wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}} }

func TestInvokeI32Add(t *testing.T) {
	fn := &compiler.Function{
		Code: []compiler.Instruction{
			{Op: compiler.Op(wasm.OpI32Add), A: 0, B: -1, C: -2},
			{Op: compiler.OpReturn, Targets: []int32{0}},
		},
		NumRegisters:   1,
		NumResults:     1,
		Consts:         []uint64{2, 3},
		V128ConstBase:  -3,
		IsV128Register: []bool{false},
		FuncType:       i32Results(),
	}

	results := make([]uint64, 1)
	tc, err := vm.Invoke(context.Background(), nil, fn, nil, results)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !tc.None() {
		t.Fatalf("unexpected trap: %s", tc.Error())
	}
	if got := int32(uint32(results[0])); got != 5 {
		t.Fatalf("2+3 = %d, want 5", got)
	}
}

func TestInvokeFuelExhaustion(t *testing.T) {
	fn := &compiler.Function{
		Code: []compiler.Instruction{
			{Op: compiler.OpConsumeFuel, Imm: 10},
			{Op: compiler.OpReturn, Targets: []int32{}},
		},
	}

	ctx := vm.WithFuel(context.Background(), 5)
	tc, err := vm.Invoke(ctx, nil, fn, nil, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if tc.None() {
		t.Fatalf("expected a trap, got none")
	}
	if tc.Code != trap.OutOfFuel {
		t.Fatalf("trap = %v, want OutOfFuel", tc.Code)
	}
}

func TestInvokeFuelSufficient(t *testing.T) {
	fn := &compiler.Function{
		Code: []compiler.Instruction{
			{Op: compiler.OpConsumeFuel, Imm: 3},
			{Op: compiler.OpReturn, Targets: []int32{}},
		},
	}

	ctx := vm.WithFuel(context.Background(), 5)
	tc, err := vm.Invoke(ctx, nil, fn, nil, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !tc.None() {
		t.Fatalf("unexpected trap: %s", tc.Error())
	}
}

func TestInvokeIntegerDivisionByZero(t *testing.T) {
	fn := &compiler.Function{
		Code: []compiler.Instruction{
			{Op: compiler.Op(wasm.OpI32DivS), A: 0, B: -1, C: -2},
			{Op: compiler.OpReturn, Targets: []int32{0}},
		},
		NumRegisters:  1,
		NumResults:    1,
		Consts:        []uint64{10, 0},
		V128ConstBase: -3,
		FuncType:      i32Results(),
	}

	tc, err := vm.Invoke(context.Background(), nil, fn, nil, make([]uint64, 1))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if tc.Code != trap.IntegerDivisionByZero {
		t.Fatalf("trap = %v, want IntegerDivisionByZero", tc.Code)
	}
}

func TestInvokeSimdSplatAddExtractLane(t *testing.T) {
	fn := &compiler.Function{
		Code: []compiler.Instruction{
			{Op: compiler.OpSimd, SubOp: wasm.SimdI32x4Splat, A: 0, B: -1},
			{Op: compiler.OpSimd, SubOp: wasm.SimdI32x4Splat, A: 1, B: -2},
			{Op: compiler.OpSimd, SubOp: wasm.SimdI32x4Add, A: 2, B: 0, C: 1},
			{Op: compiler.OpSimd, SubOp: wasm.SimdI32x4ExtractLane, A: 3, B: 2, Lane: 0},
			{Op: compiler.OpReturn, Targets: []int32{3}},
		},
		NumRegisters:  4,
		NumResults:    1,
		Consts:        []uint64{4, 3},
		V128ConstBase: -3,
		FuncType:      i32Results(),
	}

	results := make([]uint64, 1)
	tc, err := vm.Invoke(context.Background(), nil, fn, nil, results)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !tc.None() {
		t.Fatalf("unexpected trap: %s", tc.Error())
	}
	if got := int32(uint32(results[0])); got != 7 {
		t.Fatalf("splat(4)+splat(3) lane0 = %d, want 7", got)
	}
}

// i16x8Const packs up to 8 signed 16-bit lanes (little-endian, per
// internal/lanes's documented byte order) into a v128 constant.
func i16x8Const(lanes ...int16) [16]byte {
	var v [16]byte
	for i, l := range lanes {
		binary.LittleEndian.PutUint16(v[i*2:], uint16(l))
	}
	return v
}

func TestInvokeSimdNarrowSaturatesOutOfRangeLanes(t *testing.T) {
	a := i16x8Const(200, -200, 100, -100, 0, 0, 0, 0)
	b := i16x8Const(0, 0, 0, 0, 0, 0, 0, 0)

	fn := &compiler.Function{
		Code: []compiler.Instruction{
			{Op: compiler.OpSimd, SubOp: wasm.SimdI8x16NarrowI16x8S, A: 0, B: -1, C: -2},
			{Op: compiler.OpSimd, SubOp: wasm.SimdI8x16ExtractLaneS, A: 1, B: 0, Lane: 0},
			{Op: compiler.OpReturn, Targets: []int32{1}},
		},
		NumRegisters:  2,
		NumResults:    1,
		ConstsV128:    [][16]byte{a, b},
		V128ConstBase: -1,
		FuncType:      i32Results(),
	}

	results := make([]uint64, 1)
	tc, err := vm.Invoke(context.Background(), nil, fn, nil, results)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !tc.None() {
		t.Fatalf("unexpected trap: %s", tc.Error())
	}
	if got := int32(uint32(results[0])); got != 127 {
		t.Fatalf("narrow_i16x8_s(200) lane0 = %d, want 127 (saturated)", got)
	}
}

func TestInvokeArgumentCountMismatch(t *testing.T) {
	fn := &compiler.Function{
		NumParams: 1,
		FuncType:  wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}},
	}
	if _, err := vm.Invoke(context.Background(), nil, fn, nil, nil); err == nil {
		t.Fatalf("expected an error for a missing argument, got nil")
	}
}
