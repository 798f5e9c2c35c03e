package wasm

import "fmt"

// ValidateModule runs the classic stack-polymorphic type check over every
// module-local function body, plus index-range checks over every section
// that references the function/type/table/memory/global spaces.
//
// This is the "validated operator stream" the translator assumes as input
// (spec.md §1): it is intentionally narrower than a fully conformant Wasm
// validator (see the wasm package doc comment): it checks that every
// local, global, function and type index in a function body is in range, as
// are the table indices of table.get/table.set and of active element
// segments and the memory indices of active data segments, and that every
// function body is well-typed against its declared signature. It does not
// check that a memory exists for loads, stores, memory.size/memory.grow and
// the bulk-memory operators, nor the segment and table indices of the 0xFC
// bulk memory/table operators.
func ValidateModule(m *Module) error {
	for i := range m.Imports {
		if err := validateImportDesc(m, &m.Imports[i].Desc); err != nil {
			return fmt.Errorf("import %d: %w", i, err)
		}
	}
	for i, typeIdx := range m.Functions {
		if int(typeIdx) >= len(m.Types) {
			return fmt.Errorf("function %d: type index %d out of range", i, typeIdx)
		}
	}
	for i := range m.Tables {
		if len(m.Tables) > 1 {
			return fmt.Errorf("table %d: multiple tables not supported", i)
		}
	}
	for i := range m.Memories {
		if len(m.Memories) > 1 {
			return fmt.Errorf("memory %d: multi-memory not supported", i)
		}
	}
	for i := range m.Globals {
		g := &m.Globals[i]
		if err := validateConstExpr(m, g.Init, g.Type.ValType, uint32(i)); err != nil {
			return fmt.Errorf("global %d init: %w", i, err)
		}
	}
	for i := range m.Exports {
		if err := validateExport(m, &m.Exports[i]); err != nil {
			return fmt.Errorf("export %d: %w", i, err)
		}
	}
	if m.Start != nil {
		ft := m.GetFuncType(*m.Start)
		if ft == nil {
			return fmt.Errorf("start function %d: unknown", *m.Start)
		}
		if len(ft.Params) != 0 || len(ft.Results) != 0 {
			return fmt.Errorf("start function %d: must take no params and return no results", *m.Start)
		}
	}
	for i := range m.Elements {
		el := &m.Elements[i]
		if el.Mode == ElementActive {
			if int(el.TableIdx) >= len(m.Tables)+m.NumImportedTables() {
				return fmt.Errorf("element %d: table index %d out of range", i, el.TableIdx)
			}
			if err := validateConstExpr(m, el.Offset, ValI32, 0); err != nil {
				return fmt.Errorf("element %d offset: %w", i, err)
			}
		}
		for _, fi := range el.Funcs {
			if int(fi) >= m.NumFuncs() {
				return fmt.Errorf("element %d: function index %d out of range", i, fi)
			}
		}
	}
	for i := range m.Data {
		d := &m.Data[i]
		if d.Mode == DataActive {
			if int(d.MemIdx) >= len(m.Memories)+m.NumImportedMemories() {
				return fmt.Errorf("data %d: memory index %d out of range", i, d.MemIdx)
			}
			if err := validateConstExpr(m, d.Offset, ValI32, 0); err != nil {
				return fmt.Errorf("data %d offset: %w", i, err)
			}
		}
	}
	numImported := uint32(m.NumImportedFuncs())
	for i := range m.Code {
		funcIdx := numImported + uint32(i)
		ft := m.GetFuncType(funcIdx)
		if ft == nil {
			return fmt.Errorf("function %d: missing type", funcIdx)
		}
		if err := validateFuncBody(m, ft, &m.Code[i]); err != nil {
			return fmt.Errorf("function %d: %w", funcIdx, err)
		}
	}
	return nil
}

func validateImportDesc(m *Module, d *ImportDesc) error {
	if d.Kind == KindFunc && int(d.FuncType) >= len(m.Types) {
		return fmt.Errorf("type index %d out of range", d.FuncType)
	}
	return nil
}

func validateExport(m *Module, e *Export) error {
	switch e.Kind {
	case KindFunc:
		if int(e.Idx) >= m.NumFuncs() {
			return fmt.Errorf("function index %d out of range", e.Idx)
		}
	case KindTable:
		if int(e.Idx) >= len(m.Tables)+m.NumImportedTables() {
			return fmt.Errorf("table index %d out of range", e.Idx)
		}
	case KindMemory:
		if int(e.Idx) >= len(m.Memories)+m.NumImportedMemories() {
			return fmt.Errorf("memory index %d out of range", e.Idx)
		}
	case KindGlobal:
		if int(e.Idx) >= len(m.Globals)+m.NumImportedGlobals() {
			return fmt.Errorf("global index %d out of range", e.Idx)
		}
	default:
		return fmt.Errorf("unknown export kind %d", e.Kind)
	}
	return nil
}

// validateConstExpr checks that an init expression is one of the constant
// forms allowed by the spec (const, global.get of an imported immutable
// global, ref.null, ref.func) and that it leaves exactly one value of type
// want on the stack.
func validateConstExpr(m *Module, instrs []Instruction, want ValType, selfGlobalIdx uint32) error {
	if len(instrs) != 1 {
		return fmt.Errorf("init expression must be a single constant instruction")
	}
	instr := instrs[0]
	var got ValType
	switch instr.Opcode {
	case OpI32Const:
		got = ValI32
	case OpI64Const:
		got = ValI64
	case OpF32Const:
		got = ValF32
	case OpF64Const:
		got = ValF64
	case OpRefNull:
		got = instr.Imm.(RefNullImm).HeapType
	case OpRefFunc:
		fi := instr.Imm.(RefFuncImm).FuncIdx
		if int(fi) >= m.NumFuncs() {
			return fmt.Errorf("ref.func: function index %d out of range", fi)
		}
		got = ValFuncRef
	case OpGlobalGet:
		gi := instr.Imm.(GlobalImm).GlobalIdx
		if int(gi) >= m.NumImportedGlobals() {
			return fmt.Errorf("global.get in init expr must reference an imported global")
		}
		gt := importedGlobalType(m, gi)
		if gt.Mutable {
			return fmt.Errorf("global.get in init expr must reference an immutable global")
		}
		got = gt.ValType
	default:
		return fmt.Errorf("opcode 0x%x is not valid in a constant expression", instr.Opcode)
	}
	if got != want {
		return fmt.Errorf("init expression type %s does not match declared type %s", got, want)
	}
	return nil
}

func importedGlobalType(m *Module, idx uint32) GlobalType {
	i := uint32(0)
	for _, imp := range m.Imports {
		if imp.Desc.Kind != KindGlobal {
			continue
		}
		if i == idx {
			return imp.Desc.Global
		}
		i++
	}
	return GlobalType{}
}

// operandStack is the type-checker's symbolic operand stack. A nil entry
// means "unknown type" (used only while the surrounding code is
// unreachable, matching Wasm's stack-polymorphic typing).
type operandStack struct {
	types []ValType
	poly  []bool
}

func (s *operandStack) push(t ValType) {
	s.types = append(s.types, t)
	s.poly = append(s.poly, false)
}

func (s *operandStack) pushPoly() {
	s.types = append(s.types, 0)
	s.poly = append(s.poly, true)
}

type ctrlFrame struct {
	blockType  int32
	startTypes []ValType
	endTypes   []ValType
	height     int
	unreachable bool
}

type typeChecker struct {
	m       *Module
	stack   operandStack
	ctrl    []ctrlFrame
	locals  []ValType
	results []ValType
}

func validateFuncBody(m *Module, ft *FuncType, body *FuncBody) error {
	locals := append([]ValType{}, ft.Params...)
	for _, le := range body.Locals {
		for i := uint32(0); i < le.Count; i++ {
			locals = append(locals, le.ValType)
		}
	}
	tc := &typeChecker{m: m, locals: locals, results: ft.Results}
	tc.pushCtrl(BlockTypeVoid, nil, ft.Results)
	for _, instr := range body.Instrs {
		if err := tc.step(instr); err != nil {
			return err
		}
	}
	if len(tc.ctrl) != 0 {
		return fmt.Errorf("missing end: %d unclosed block(s)", len(tc.ctrl))
	}
	return nil
}

func (tc *typeChecker) pushCtrl(blockType int32, start, end []ValType) {
	tc.ctrl = append(tc.ctrl, ctrlFrame{
		blockType: blockType, startTypes: start, endTypes: end, height: len(tc.stack.types),
	})
}

func (tc *typeChecker) topCtrl() *ctrlFrame { return &tc.ctrl[len(tc.ctrl)-1] }

func (tc *typeChecker) popCtrl() (ctrlFrame, error) {
	f := tc.topCtrl()
	if err := tc.popVals(f.endTypes); err != nil {
		return ctrlFrame{}, err
	}
	if len(tc.stack.types) != f.height {
		return ctrlFrame{}, fmt.Errorf("stack height mismatch at end of block")
	}
	frame := *f
	tc.ctrl = tc.ctrl[:len(tc.ctrl)-1]
	return frame, nil
}

func (tc *typeChecker) setUnreachable() {
	f := tc.topCtrl()
	tc.stack.types = tc.stack.types[:f.height]
	tc.stack.poly = tc.stack.poly[:f.height]
	f.unreachable = true
}

func (tc *typeChecker) push(t ValType) { tc.stack.push(t) }

func (tc *typeChecker) pop() (ValType, error) {
	f := tc.topCtrl()
	if len(tc.stack.types) == f.height {
		if f.unreachable {
			return 0, nil
		}
		return 0, fmt.Errorf("operand stack underflow")
	}
	n := len(tc.stack.types) - 1
	t := tc.stack.types[n]
	tc.stack.types = tc.stack.types[:n]
	tc.stack.poly = tc.stack.poly[:n]
	return t, nil
}

func (tc *typeChecker) popExpect(want ValType) error {
	got, err := tc.pop()
	if err != nil {
		return err
	}
	f := tc.topCtrl()
	if f.unreachable && len(tc.stack.types) == f.height && got == 0 {
		return nil
	}
	if got != want {
		return fmt.Errorf("type mismatch: expected %s, got %s", want, got)
	}
	return nil
}

func (tc *typeChecker) popVals(want []ValType) error {
	for i := len(want) - 1; i >= 0; i-- {
		if err := tc.popExpect(want[i]); err != nil {
			return err
		}
	}
	return nil
}

func (tc *typeChecker) labelTypes(depth uint32) ([]ValType, error) {
	if int(depth) >= len(tc.ctrl) {
		return nil, fmt.Errorf("branch depth %d out of range", depth)
	}
	f := &tc.ctrl[len(tc.ctrl)-1-int(depth)]
	if f.blockType == loopSentinel {
		return f.startTypes, nil
	}
	return f.endTypes, nil
}

const loopSentinel = int32(-1000) // distinguishes loop frames for label-type purposes

func (tc *typeChecker) blockTypes(bt int32) (params, results []ValType, err error) {
	switch bt {
	case BlockTypeVoid:
		return nil, nil, nil
	case BlockTypeI32:
		return nil, []ValType{ValI32}, nil
	case BlockTypeI64:
		return nil, []ValType{ValI64}, nil
	case BlockTypeF32:
		return nil, []ValType{ValF32}, nil
	case BlockTypeF64:
		return nil, []ValType{ValF64}, nil
	case BlockTypeV128:
		return nil, []ValType{ValV128}, nil
	case BlockTypeFunc:
		return nil, []ValType{ValFuncRef}, nil
	case BlockTypeExt:
		return nil, []ValType{ValExtern}, nil
	default:
		if bt < 0 || int(bt) >= len(tc.m.Types) {
			return nil, nil, fmt.Errorf("invalid block type %d", bt)
		}
		ft := tc.m.Types[bt]
		return ft.Params, ft.Results, nil
	}
}

func (tc *typeChecker) step(instr Instruction) error {
	switch instr.Opcode {
	case OpUnreachable:
		tc.setUnreachable()
	case OpNop:
	case OpBlock, OpLoop, OpIf:
		bt := instr.Imm.(BlockImm).Type
		params, results, err := tc.blockTypes(bt)
		if err != nil {
			return err
		}
		if err := tc.popVals(params); err != nil {
			return err
		}
		if instr.Opcode == OpIf {
			if err := tc.popExpect(ValI32); err != nil {
				return err
			}
		}
		for _, p := range params {
			tc.push(p)
		}
		tagBT := bt
		if instr.Opcode == OpLoop {
			tagBT = loopSentinel
		}
		f := ctrlFrame{blockType: tagBT, startTypes: params, endTypes: results, height: len(tc.stack.types)}
		tc.ctrl = append(tc.ctrl, f)
	case OpElse:
		frame, err := tc.popCtrl()
		if err != nil {
			return err
		}
		for _, p := range frame.startTypes {
			tc.push(p)
		}
		tc.ctrl = append(tc.ctrl, ctrlFrame{blockType: 0, startTypes: frame.startTypes, endTypes: frame.endTypes, height: len(tc.stack.types) - len(frame.startTypes)})
	case OpEnd:
		frame, err := tc.popCtrl()
		if err != nil {
			return err
		}
		for _, r := range frame.endTypes {
			tc.push(r)
		}
	case OpBr:
		depth := instr.Imm.(BranchImm).LabelIdx
		types, err := tc.labelTypes(depth)
		if err != nil {
			return err
		}
		if err := tc.popVals(types); err != nil {
			return err
		}
		tc.setUnreachable()
	case OpBrIf:
		depth := instr.Imm.(BranchImm).LabelIdx
		types, err := tc.labelTypes(depth)
		if err != nil {
			return err
		}
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		if err := tc.popVals(types); err != nil {
			return err
		}
		for _, t := range types {
			tc.push(t)
		}
	case OpBrTable:
		bt := instr.Imm.(BrTableImm)
		defTypes, err := tc.labelTypes(bt.Default)
		if err != nil {
			return err
		}
		for _, l := range bt.Labels {
			if _, err := tc.labelTypes(l); err != nil {
				return err
			}
		}
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		if err := tc.popVals(defTypes); err != nil {
			return err
		}
		tc.setUnreachable()
	case OpReturn:
		if err := tc.popVals(tc.results); err != nil {
			return err
		}
		tc.setUnreachable()
	case OpCall:
		ft := tc.m.GetFuncType(instr.Imm.(CallImm).FuncIdx)
		if ft == nil {
			return fmt.Errorf("call: unknown function")
		}
		if err := tc.popVals(ft.Params); err != nil {
			return err
		}
		for _, r := range ft.Results {
			tc.push(r)
		}
	case OpReturnCall:
		ft := tc.m.GetFuncType(instr.Imm.(CallImm).FuncIdx)
		if ft == nil {
			return fmt.Errorf("return_call: unknown function")
		}
		if !sameTypes(ft.Results, tc.results) {
			return fmt.Errorf("return_call: result type mismatch with caller")
		}
		if err := tc.popVals(ft.Params); err != nil {
			return err
		}
		tc.setUnreachable()
	case OpCallIndirect, OpReturnCallIndirect:
		ci := instr.Imm.(CallIndirectImm)
		if int(ci.TypeIdx) >= len(tc.m.Types) {
			return fmt.Errorf("call_indirect: unknown type")
		}
		ft := tc.m.Types[ci.TypeIdx]
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		if err := tc.popVals(ft.Params); err != nil {
			return err
		}
		if instr.Opcode == OpReturnCallIndirect {
			if !sameTypes(ft.Results, tc.results) {
				return fmt.Errorf("return_call_indirect: result type mismatch with caller")
			}
			tc.setUnreachable()
		} else {
			for _, r := range ft.Results {
				tc.push(r)
			}
		}
	case OpDrop:
		if _, err := tc.pop(); err != nil {
			return err
		}
	case OpSelect:
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		b, err := tc.pop()
		if err != nil {
			return err
		}
		if err := tc.popExpect(b); err != nil {
			return err
		}
		tc.push(b)
	case OpSelectType:
		types := instr.Imm.(SelectTypeImm).Types
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		if len(types) != 1 {
			return fmt.Errorf("select: expected exactly one result type")
		}
		if err := tc.popExpect(types[0]); err != nil {
			return err
		}
		if err := tc.popExpect(types[0]); err != nil {
			return err
		}
		tc.push(types[0])
	case OpLocalGet:
		idx := instr.Imm.(LocalImm).LocalIdx
		if int(idx) >= len(tc.locals) {
			return fmt.Errorf("local.get: index %d out of range", idx)
		}
		tc.push(tc.locals[idx])
	case OpLocalSet:
		idx := instr.Imm.(LocalImm).LocalIdx
		if int(idx) >= len(tc.locals) {
			return fmt.Errorf("local.set: index %d out of range", idx)
		}
		if err := tc.popExpect(tc.locals[idx]); err != nil {
			return err
		}
	case OpLocalTee:
		idx := instr.Imm.(LocalImm).LocalIdx
		if int(idx) >= len(tc.locals) {
			return fmt.Errorf("local.tee: index %d out of range", idx)
		}
		if err := tc.popExpect(tc.locals[idx]); err != nil {
			return err
		}
		tc.push(tc.locals[idx])
	case OpGlobalGet:
		gt, err := tc.globalType(instr.Imm.(GlobalImm).GlobalIdx)
		if err != nil {
			return err
		}
		tc.push(gt.ValType)
	case OpGlobalSet:
		gt, err := tc.globalType(instr.Imm.(GlobalImm).GlobalIdx)
		if err != nil {
			return err
		}
		if !gt.Mutable {
			return fmt.Errorf("global.set: global is immutable")
		}
		if err := tc.popExpect(gt.ValType); err != nil {
			return err
		}
	case OpTableGet, OpTableSet, OpRefNull, OpRefIsNull, OpRefFunc:
		return tc.stepRef(instr)
	case OpMemorySize:
		tc.push(ValI32)
	case OpMemoryGrow:
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		tc.push(ValI32)
	case OpI32Const:
		tc.push(ValI32)
	case OpI64Const:
		tc.push(ValI64)
	case OpF32Const:
		tc.push(ValF32)
	case OpF64Const:
		tc.push(ValF64)
	case OpPrefixMisc:
		return tc.stepMisc(instr)
	case OpPrefixSIMD:
		return tc.stepSIMD(instr)
	default:
		return tc.stepNumeric(instr)
	}
	return nil
}

func sameTypes(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (tc *typeChecker) globalType(idx uint32) (GlobalType, error) {
	nImported := uint32(tc.m.NumImportedGlobals())
	if idx < nImported {
		return importedGlobalType(tc.m, idx), nil
	}
	local := idx - nImported
	if int(local) >= len(tc.m.Globals) {
		return GlobalType{}, fmt.Errorf("global index %d out of range", idx)
	}
	return tc.m.Globals[local].Type, nil
}

func (tc *typeChecker) stepRef(instr Instruction) error {
	switch instr.Opcode {
	case OpRefNull:
		tc.push(instr.Imm.(RefNullImm).HeapType)
	case OpRefIsNull:
		t, err := tc.pop()
		if err != nil {
			return err
		}
		f := tc.topCtrl()
		if !(f.unreachable && t == 0) && !ValType(t).IsRef() {
			return fmt.Errorf("ref.is_null: expected a reference type")
		}
		tc.push(ValI32)
	case OpRefFunc:
		fi := instr.Imm.(RefFuncImm).FuncIdx
		if int(fi) >= tc.m.NumFuncs() {
			return fmt.Errorf("ref.func: function index %d out of range", fi)
		}
		tc.push(ValFuncRef)
	case OpTableGet:
		tt, err := tc.tableType(instr.Imm.(TableImm).TableIdx)
		if err != nil {
			return err
		}
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		tc.push(tt.ElemType)
	case OpTableSet:
		tt, err := tc.tableType(instr.Imm.(TableImm).TableIdx)
		if err != nil {
			return err
		}
		if err := tc.popExpect(tt.ElemType); err != nil {
			return err
		}
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
	}
	return nil
}

func (tc *typeChecker) tableType(idx uint32) (TableType, error) {
	nImported := uint32(tc.m.NumImportedTables())
	if idx < nImported {
		i := uint32(0)
		for _, imp := range tc.m.Imports {
			if imp.Desc.Kind != KindTable {
				continue
			}
			if i == idx {
				return imp.Desc.Table, nil
			}
			i++
		}
	}
	local := idx - nImported
	if int(local) >= len(tc.m.Tables) {
		return TableType{}, fmt.Errorf("table index %d out of range", idx)
	}
	return tc.m.Tables[local], nil
}

func (tc *typeChecker) stepMisc(instr Instruction) error {
	sub := instr.Imm.(MiscImm).SubOpcode
	switch sub {
	case MiscI32TruncSatF32S, MiscI32TruncSatF32U:
		return tc.unary(ValF32, ValI32)
	case MiscI32TruncSatF64S, MiscI32TruncSatF64U:
		return tc.unary(ValF64, ValI32)
	case MiscI64TruncSatF32S, MiscI64TruncSatF32U:
		return tc.unary(ValF32, ValI64)
	case MiscI64TruncSatF64S, MiscI64TruncSatF64U:
		return tc.unary(ValF64, ValI64)
	case MiscMemoryInit, MiscMemoryCopy, MiscMemoryFill:
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		return tc.popExpect(ValI32)
	case MiscDataDrop, MiscElemDrop:
		return nil
	case MiscTableInit, MiscTableCopy:
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		return tc.popExpect(ValI32)
	case MiscTableGrow:
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		if _, err := tc.pop(); err != nil {
			return err
		}
		tc.push(ValI32)
		return nil
	case MiscTableSize:
		tc.push(ValI32)
		return nil
	case MiscTableFill:
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		if _, err := tc.pop(); err != nil {
			return err
		}
		return tc.popExpect(ValI32)
	}
	return fmt.Errorf("unknown misc sub-opcode %d", sub)
}

func (tc *typeChecker) unary(in, out ValType) error {
	if err := tc.popExpect(in); err != nil {
		return err
	}
	tc.push(out)
	return nil
}

// stepSIMD applies a coarse stack effect for v128 instructions: the front
// end trusts the translator/interpreter (grounded on the same SIMD lane
// library) to reject truly malformed lane operations; here we only track
// gross arity (how many v128/scalar operands are consumed and produced) so
// that non-SIMD code around a SIMD op is still checked precisely.
func (tc *typeChecker) stepSIMD(instr Instruction) error {
	imm := instr.Imm.(SIMDImm)
	switch imm.SubOpcode {
	case SimdV128Load, SimdV128Load8x8S, SimdV128Load8x8U, SimdV128Load16x4S, SimdV128Load16x4U,
		SimdV128Load32x2S, SimdV128Load32x2U, SimdV128Load32Zero, SimdV128Load64Zero,
		SimdV128Load8Splat, SimdV128Load16Splat, SimdV128Load32Splat, SimdV128Load64Splat:
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		tc.push(ValV128)
	case SimdV128Store:
		if err := tc.popExpect(ValV128); err != nil {
			return err
		}
		return tc.popExpect(ValI32)
	case SimdV128Const:
		tc.push(ValV128)
	case SimdI8x16Splat, SimdI16x8Splat, SimdI32x4Splat, SimdI64x2Splat:
		scalar := ValI32
		if imm.SubOpcode == SimdI64x2Splat {
			scalar = ValI64
		}
		if err := tc.popExpect(scalar); err != nil {
			return err
		}
		tc.push(ValV128)
	case SimdF32x4Splat, SimdF64x2Splat:
		scalar := ValF32
		if imm.SubOpcode == SimdF64x2Splat {
			scalar = ValF64
		}
		if err := tc.popExpect(scalar); err != nil {
			return err
		}
		tc.push(ValV128)
	case SimdI8x16ExtractLaneS, SimdI8x16ExtractLaneU, SimdI16x8ExtractLaneS, SimdI16x8ExtractLaneU, SimdI32x4ExtractLane:
		if err := tc.popExpect(ValV128); err != nil {
			return err
		}
		tc.push(ValI32)
	case SimdI64x2ExtractLane:
		if err := tc.popExpect(ValV128); err != nil {
			return err
		}
		tc.push(ValI64)
	case SimdF32x4ExtractLane:
		if err := tc.popExpect(ValV128); err != nil {
			return err
		}
		tc.push(ValF32)
	case SimdF64x2ExtractLane:
		if err := tc.popExpect(ValV128); err != nil {
			return err
		}
		tc.push(ValF64)
	case SimdI8x16ReplaceLane, SimdI16x8ReplaceLane, SimdI32x4ReplaceLane:
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		return tc.unary(ValV128, ValV128)
	case SimdI64x2ReplaceLane:
		if err := tc.popExpect(ValI64); err != nil {
			return err
		}
		return tc.unary(ValV128, ValV128)
	case SimdF32x4ReplaceLane:
		if err := tc.popExpect(ValF32); err != nil {
			return err
		}
		return tc.unary(ValV128, ValV128)
	case SimdF64x2ReplaceLane:
		if err := tc.popExpect(ValF64); err != nil {
			return err
		}
		return tc.unary(ValV128, ValV128)
	case SimdV128AnyTrue, SimdI8x16AllTrue, SimdI16x8AllTrue, SimdI32x4AllTrue, SimdI64x2AllTrue,
		SimdI8x16Bitmask, SimdI16x8Bitmask, SimdI32x4Bitmask, SimdI64x2Bitmask:
		if err := tc.popExpect(ValV128); err != nil {
			return err
		}
		tc.push(ValI32)
	case SimdV128Bitselect, SimdI8x16RelaxedLaneselect, SimdI16x8RelaxedLaneselect,
		SimdI32x4RelaxedLaneselect, SimdI64x2RelaxedLaneselect, SimdI32x4RelaxedDotI8x16I7x16AddS,
		SimdF32x4RelaxedMadd, SimdF32x4RelaxedNmadd, SimdF64x2RelaxedMadd, SimdF64x2RelaxedNmadd:
		if err := tc.popExpect(ValV128); err != nil {
			return err
		}
		if err := tc.popExpect(ValV128); err != nil {
			return err
		}
		return tc.unary(ValV128, ValV128)
	case SimdI8x16Shuffle:
		if err := tc.popExpect(ValV128); err != nil {
			return err
		}
		return tc.unary(ValV128, ValV128)
	case SimdI8x16Shl, SimdI8x16ShrS, SimdI8x16ShrU, SimdI16x8Shl, SimdI16x8ShrS, SimdI16x8ShrU,
		SimdI32x4Shl, SimdI32x4ShrS, SimdI32x4ShrU, SimdI64x2Shl, SimdI64x2ShrS, SimdI64x2ShrU:
		if err := tc.popExpect(ValI32); err != nil {
			return err
		}
		return tc.unary(ValV128, ValV128)
	default:
		// Remaining SIMD ops are unary or binary v128->v128 (the
		// overwhelming majority: arithmetic, comparisons producing
		// mask lanes, narrow/widen, conversions). Binary ops consume
		// two v128s; unary ops consume one. isBinarySIMD tells them
		// apart by sub-opcode.
		if isBinarySIMD(imm.SubOpcode) {
			if err := tc.popExpect(ValV128); err != nil {
				return err
			}
			return tc.unary(ValV128, ValV128)
		}
		return tc.unary(ValV128, ValV128)
	}
	return nil
}

// IsBinarySIMD reports whether a Simd sub-opcode takes two v128 operands
// (as opposed to one). internal/compiler keeps its own classification and
// does not call this function.
func IsBinarySIMD(sub uint32) bool { return isBinarySIMD(sub) }

func isBinarySIMD(sub uint32) bool {
	switch {
	case sub >= SimdI8x16Shl && sub <= SimdI8x16ShrU, sub >= SimdI16x8Shl && sub <= SimdI16x8ShrU:
		return false
	case sub == SimdI8x16Swizzle, sub == SimdI16x8NarrowI32x4S, sub == SimdI16x8NarrowI32x4U:
		return true
	case sub >= SimdF32x4RelaxedMin && sub <= SimdI16x8RelaxedDotI8x16I7x16S:
		return true
	case sub >= SimdI8x16Eq && sub <= SimdF64x2Ge:
		return true
	case sub >= SimdI8x16NarrowI16x8S && sub <= SimdI8x16AvgrU:
		return sub != SimdI8x16Abs && sub != SimdI8x16Neg
	case sub >= SimdI16x8Shl && sub <= SimdI32x4DotI16x8S:
		return true
	case sub >= SimdI32x4Add && sub <= SimdI32x4MaxU:
		return true
	case sub >= SimdI64x2Add && sub <= SimdI64x2Mul:
		return true
	case sub >= SimdF32x4Add && sub <= SimdF32x4Pmax:
		return true
	case sub >= SimdF64x2Add && sub <= SimdF64x2Pmax:
		return true
	case sub == SimdV128And || sub == SimdV128AndNot || sub == SimdV128Or || sub == SimdV128Xor:
		return true
	default:
		return false
	}
}

func (tc *typeChecker) stepNumeric(instr Instruction) error {
	unary := func(in, out ValType) error { return tc.unary(in, out) }
	binary := func(t ValType) error {
		if err := tc.popExpect(t); err != nil {
			return err
		}
		return tc.unary(t, t)
	}
	cmp := func(t ValType) error {
		if err := tc.popExpect(t); err != nil {
			return err
		}
		if err := tc.popExpect(t); err != nil {
			return err
		}
		tc.push(ValI32)
		return nil
	}
	switch instr.Opcode {
	case OpI32Eqz:
		return unary(ValI32, ValI32)
	case OpI32Eq, OpI32Ne, OpI32LtS, OpI32LtU, OpI32GtS, OpI32GtU, OpI32LeS, OpI32LeU, OpI32GeS, OpI32GeU:
		return cmp(ValI32)
	case OpI64Eqz:
		return unary(ValI64, ValI32)
	case OpI64Eq, OpI64Ne, OpI64LtS, OpI64LtU, OpI64GtS, OpI64GtU, OpI64LeS, OpI64LeU, OpI64GeS, OpI64GeU:
		return cmp(ValI64)
	case OpF32Eq, OpF32Ne, OpF32Lt, OpF32Gt, OpF32Le, OpF32Ge:
		return cmp(ValF32)
	case OpF64Eq, OpF64Ne, OpF64Lt, OpF64Gt, OpF64Le, OpF64Ge:
		return cmp(ValF64)
	case OpI32Clz, OpI32Ctz, OpI32Popcnt, OpI32Extend8S, OpI32Extend16S:
		return unary(ValI32, ValI32)
	case OpI32Add, OpI32Sub, OpI32Mul, OpI32DivS, OpI32DivU, OpI32RemS, OpI32RemU,
		OpI32And, OpI32Or, OpI32Xor, OpI32Shl, OpI32ShrS, OpI32ShrU, OpI32Rotl, OpI32Rotr:
		return binary(ValI32)
	case OpI64Clz, OpI64Ctz, OpI64Popcnt, OpI64Extend8S, OpI64Extend16S, OpI64Extend32S:
		return unary(ValI64, ValI64)
	case OpI64Add, OpI64Sub, OpI64Mul, OpI64DivS, OpI64DivU, OpI64RemS, OpI64RemU,
		OpI64And, OpI64Or, OpI64Xor, OpI64Shl, OpI64ShrS, OpI64ShrU, OpI64Rotl, OpI64Rotr:
		return binary(ValI64)
	case OpF32Abs, OpF32Neg, OpF32Ceil, OpF32Floor, OpF32Trunc, OpF32Nearest, OpF32Sqrt:
		return unary(ValF32, ValF32)
	case OpF32Add, OpF32Sub, OpF32Mul, OpF32Div, OpF32Min, OpF32Max, OpF32Copysign:
		return binary(ValF32)
	case OpF64Abs, OpF64Neg, OpF64Ceil, OpF64Floor, OpF64Trunc, OpF64Nearest, OpF64Sqrt:
		return unary(ValF64, ValF64)
	case OpF64Add, OpF64Sub, OpF64Mul, OpF64Div, OpF64Min, OpF64Max, OpF64Copysign:
		return binary(ValF64)
	case OpI32WrapI64:
		return unary(ValI64, ValI32)
	case OpI32TruncF32S, OpI32TruncF32U:
		return unary(ValF32, ValI32)
	case OpI32TruncF64S, OpI32TruncF64U:
		return unary(ValF64, ValI32)
	case OpI64ExtendI32S, OpI64ExtendI32U:
		return unary(ValI32, ValI64)
	case OpI64TruncF32S, OpI64TruncF32U:
		return unary(ValF32, ValI64)
	case OpI64TruncF64S, OpI64TruncF64U:
		return unary(ValF64, ValI64)
	case OpF32ConvertI32S, OpF32ConvertI32U:
		return unary(ValI32, ValF32)
	case OpF32ConvertI64S, OpF32ConvertI64U:
		return unary(ValI64, ValF32)
	case OpF32DemoteF64:
		return unary(ValF64, ValF32)
	case OpF64ConvertI32S, OpF64ConvertI32U:
		return unary(ValI32, ValF64)
	case OpF64ConvertI64S, OpF64ConvertI64U:
		return unary(ValI64, ValF64)
	case OpF64PromoteF32:
		return unary(ValF32, ValF64)
	case OpI32ReinterpretF32:
		return unary(ValF32, ValI32)
	case OpI64ReinterpretF64:
		return unary(ValF64, ValI64)
	case OpF32ReinterpretI32:
		return unary(ValI32, ValF32)
	case OpF64ReinterpretI64:
		return unary(ValI64, ValF64)
	}
	// Loads/stores.
	switch instr.Opcode {
	case OpI32Load, OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U:
		return tc.load(ValI32)
	case OpI64Load, OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U, OpI64Load32S, OpI64Load32U:
		return tc.load(ValI64)
	case OpF32Load:
		return tc.load(ValF32)
	case OpF64Load:
		return tc.load(ValF64)
	case OpI32Store, OpI32Store8, OpI32Store16:
		return tc.store(ValI32)
	case OpI64Store, OpI64Store8, OpI64Store16, OpI64Store32:
		return tc.store(ValI64)
	case OpF32Store:
		return tc.store(ValF32)
	case OpF64Store:
		return tc.store(ValF64)
	}
	return fmt.Errorf("unhandled opcode 0x%x in type checker", instr.Opcode)
}

func (tc *typeChecker) load(t ValType) error {
	if err := tc.popExpect(ValI32); err != nil {
		return err
	}
	tc.push(t)
	return nil
}

func (tc *typeChecker) store(t ValType) error {
	if err := tc.popExpect(t); err != nil {
		return err
	}
	return tc.popExpect(ValI32)
}
