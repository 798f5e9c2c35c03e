package store

import (
	"github.com/wasmi/wasmi/internal/compiler"
	"github.com/wasmi/wasmi/internal/werr"
	"github.com/wasmi/wasmi/wasm"
)

// Instance is one instantiated module: its combined import+local function,
// table, memory, and global spaces, plus the element/data segments and
// export directory a running program addresses by index or name.
//
// An Instance is not safe for concurrent execution, per the thread-safety
// note in the root wasmi package doc: exactly one vm.Invoke may be in flight against it at
// a time, including through re-entrant host calls.
type Instance struct {
	Module *wasm.Module

	Funcs    []*FunctionInstance
	Tables   []*Table
	Memories []*Memory
	Globals  []*Global

	exports map[string]wasm.Export

	elemSegs    [][]uint64
	elemDropped []bool
	dataSegs    [][]byte
	dataDropped []bool

	startIdx int
	hasStart bool
}

// Instantiate builds a running Instance from a decoded module: it resolves
// imports against imports (nil means "no imports available"), translates
// every module-local function body, allocates tables/memories/globals,
// applies active element and data segments, and leaves the start function
// (if any) for the caller to invoke explicitly -- store has no dependency
// on internal/vm, so running the start function is the embedder's job,
// exactly as it is for any other exported function.
func Instantiate(mod *wasm.Module, imports *Imports) (*Instance, error) {
	if err := wasm.ValidateModule(mod); err != nil {
		return nil, werr.New(werr.PhaseRuntime, werr.KindInvalidData).
			Detail("instantiate: module failed validation").Cause(err).Build()
	}

	inst := &Instance{Module: mod}

	if err := inst.bindFuncs(mod, imports); err != nil {
		return nil, err
	}
	if err := inst.bindTables(mod, imports); err != nil {
		return nil, err
	}
	if err := inst.bindMemories(mod, imports); err != nil {
		return nil, err
	}
	if err := inst.bindGlobals(mod, imports); err != nil {
		return nil, err
	}
	if err := inst.initElements(mod); err != nil {
		return nil, err
	}
	if err := inst.initData(mod); err != nil {
		return nil, err
	}

	inst.exports = make(map[string]wasm.Export, len(mod.Exports))
	for _, e := range mod.Exports {
		inst.exports[e.Name] = e
	}

	if mod.Start != nil {
		inst.startIdx = int(*mod.Start)
		inst.hasStart = true
	}

	return inst, nil
}

func (i *Instance) bindFuncs(mod *wasm.Module, imports *Imports) error {
	i.Funcs = make([]*FunctionInstance, 0, mod.NumFuncs())
	for _, imp := range mod.Imports {
		if imp.Desc.Kind != wasm.KindFunc {
			continue
		}
		ft := mod.Types[imp.Desc.FuncType]
		fn, gotType, ok := imports.lookupFunc(imp.Module, imp.Name)
		if !ok {
			return werr.New(werr.PhaseRuntime, werr.KindNotFound).
				Detail("instantiate: missing function import %s.%s", imp.Module, imp.Name).Build()
		}
		if !ft.Equal(&gotType) {
			return werr.New(werr.PhaseRuntime, werr.KindInvalidData).
				Detail("instantiate: function import %s.%s type mismatch", imp.Module, imp.Name).Build()
		}
		i.Funcs = append(i.Funcs, &FunctionInstance{Type: ft, Host: fn})
	}
	numImported := uint32(len(i.Funcs))
	for idx := range mod.Functions {
		funcIdx := numImported + uint32(idx)
		ft := mod.GetFuncType(funcIdx)
		fn, err := compiler.Translate(mod, funcIdx)
		if err != nil {
			return err
		}
		i.Funcs = append(i.Funcs, &FunctionInstance{Type: *ft, Compiled: fn})
	}
	return nil
}

func (i *Instance) bindTables(mod *wasm.Module, imports *Imports) error {
	for _, imp := range mod.Imports {
		if imp.Desc.Kind != wasm.KindTable {
			continue
		}
		t, ok := imports.lookupTable(imp.Module, imp.Name)
		if !ok {
			return werr.New(werr.PhaseRuntime, werr.KindNotFound).
				Detail("instantiate: missing table import %s.%s", imp.Module, imp.Name).Build()
		}
		i.Tables = append(i.Tables, t)
	}
	for _, tt := range mod.Tables {
		i.Tables = append(i.Tables, NewTable(tt.ElemType, tt.Limits.Min, tt.Limits.Max, tt.Limits.HasMax))
	}
	return nil
}

func (i *Instance) bindMemories(mod *wasm.Module, imports *Imports) error {
	for _, imp := range mod.Imports {
		if imp.Desc.Kind != wasm.KindMemory {
			continue
		}
		m, ok := imports.lookupMemory(imp.Module, imp.Name)
		if !ok {
			return werr.New(werr.PhaseRuntime, werr.KindNotFound).
				Detail("instantiate: missing memory import %s.%s", imp.Module, imp.Name).Build()
		}
		i.Memories = append(i.Memories, m)
	}
	for _, mt := range mod.Memories {
		i.Memories = append(i.Memories, NewMemory(uint32(mt.Limits.Min), uint32(mt.Limits.Max), mt.Limits.HasMax))
	}
	return nil
}

func (i *Instance) bindGlobals(mod *wasm.Module, imports *Imports) error {
	for _, imp := range mod.Imports {
		if imp.Desc.Kind != wasm.KindGlobal {
			continue
		}
		g, ok := imports.lookupGlobal(imp.Module, imp.Name)
		if !ok {
			return werr.New(werr.PhaseRuntime, werr.KindNotFound).
				Detail("instantiate: missing global import %s.%s", imp.Module, imp.Name).Build()
		}
		i.Globals = append(i.Globals, g)
	}
	for _, g := range mod.Globals {
		nv := NewGlobal(g.Type.ValType, g.Type.Mutable)
		v, err := evalConstExpr(i.Globals, g.Init)
		if err != nil {
			return err
		}
		if v.isV128 {
			nv.SetV128(v.vec)
		} else {
			nv.Set(v.bits)
		}
		i.Globals = append(i.Globals, nv)
	}
	return nil
}

func (i *Instance) initElements(mod *wasm.Module) error {
	i.elemSegs = make([][]uint64, len(mod.Elements))
	i.elemDropped = make([]bool, len(mod.Elements))

	for idx := range mod.Elements {
		el := &mod.Elements[idx]
		vals := make([]uint64, 0, len(el.Funcs)+len(el.Exprs))
		for _, fi := range el.Funcs {
			vals = append(vals, uint64(fi)+1)
		}
		for _, expr := range el.Exprs {
			v, err := evalConstExpr(i.Globals, expr)
			if err != nil {
				return err
			}
			vals = append(vals, v.bits)
		}
		i.elemSegs[idx] = vals

		switch el.Mode {
		case wasm.ElementDeclared:
			i.elemDropped[idx] = true
		case wasm.ElementActive:
			off, err := evalConstExpr(i.Globals, el.Offset)
			if err != nil {
				return err
			}
			t := i.Tables[el.TableIdx]
			for k, v := range vals {
				if !t.Set(uint32(off.bits)+uint32(k), v) {
					return werr.New(werr.PhaseRuntime, werr.KindOutOfBounds).
						Detail("instantiate: active element segment %d out of table bounds", idx).Build()
				}
			}
		}
	}
	return nil
}

func (i *Instance) initData(mod *wasm.Module) error {
	i.dataSegs = make([][]byte, len(mod.Data))
	i.dataDropped = make([]bool, len(mod.Data))

	for idx := range mod.Data {
		d := &mod.Data[idx]
		i.dataSegs[idx] = d.Bytes

		if d.Mode == wasm.DataActive {
			off, err := evalConstExpr(i.Globals, d.Offset)
			if err != nil {
				return err
			}
			mem := i.Memories[d.MemIdx]
			start := off.bits
			end := start + uint64(len(d.Bytes))
			if end > uint64(len(mem.Bytes())) {
				return werr.New(werr.PhaseRuntime, werr.KindOutOfBounds).
					Detail("instantiate: active data segment %d out of memory bounds", idx).Build()
			}
			copy(mem.Bytes()[start:end], d.Bytes)
		}
	}
	return nil
}

// Func resolves an exported function by name, returning its compiled form
// or nil if the export doesn't exist, isn't a function, or names a host
// import rather than module-local bytecode.
func (i *Instance) Func(name string) *compiler.Function {
	e, ok := i.exports[name]
	if !ok || e.Kind != wasm.KindFunc {
		return nil
	}
	return i.Funcs[e.Idx].Compiled
}

// FuncInstance resolves a function by its combined import+local index.
func (i *Instance) FuncInstance(idx uint32) *FunctionInstance {
	if int(idx) >= len(i.Funcs) {
		return nil
	}
	return i.Funcs[idx]
}

// Memory resolves a memory by combined import+local index, or nil if out
// of range.
func (i *Instance) Memory(idx uint32) *Memory {
	if int(idx) >= len(i.Memories) {
		return nil
	}
	return i.Memories[idx]
}

// Table resolves a table by combined import+local index, or nil if out of
// range.
func (i *Instance) Table(idx uint32) *Table {
	if int(idx) >= len(i.Tables) {
		return nil
	}
	return i.Tables[idx]
}

// Global resolves a global by combined import+local index, or nil if out
// of range.
func (i *Instance) Global(idx uint32) *Global {
	if int(idx) >= len(i.Globals) {
		return nil
	}
	return i.Globals[idx]
}

// ElemSegment returns element segment idx's materialized values. A
// dropped segment (explicitly, or implicitly for a declared segment)
// returns a zero-length slice, matching table.init's "nothing to copy"
// behavior rather than an error.
func (i *Instance) ElemSegment(idx uint32) []uint64 {
	if i.elemDropped[idx] {
		return nil
	}
	return i.elemSegs[idx]
}

func (i *Instance) DropElem(idx uint32) { i.elemDropped[idx] = true }

// DataSegment mirrors ElemSegment for the data/memory.init side.
func (i *Instance) DataSegment(idx uint32) []byte {
	if i.dataDropped[idx] {
		return nil
	}
	return i.dataSegs[idx]
}

func (i *Instance) DropData(idx uint32) { i.dataDropped[idx] = true }

// StartFunc returns the module's start function if it has one and it is
// module-local bytecode; ok is false both when there is no start function
// and when the start function is a host import (callers should invoke
// FuncInstance's Host field directly in that case).
func (i *Instance) StartFunc() (fn *compiler.Function, ok bool) {
	if !i.hasStart {
		return nil, false
	}
	f := i.Funcs[i.startIdx]
	return f.Compiled, f.Compiled != nil
}

// ExportNames lists every export name, for tooling (e.g. a CLI's -list
// flag) that wants to enumerate a module's surface.
func (i *Instance) ExportNames() []string {
	names := make([]string, 0, len(i.exports))
	for name := range i.exports {
		names = append(names, name)
	}
	return names
}

// ExportKind reports the kind of a named export and whether it exists.
func (i *Instance) ExportKind(name string) (byte, bool) {
	e, ok := i.exports[name]
	return e.Kind, ok
}
