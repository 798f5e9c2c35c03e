package wasm

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two function types have identical param/result
// sequences.
func (f *FuncType) Equal(o *FuncType) bool {
	if len(f.Params) != len(o.Params) || len(f.Results) != len(o.Results) {
		return false
	}
	for i, t := range f.Params {
		if o.Params[i] != t {
			return false
		}
	}
	for i, t := range f.Results {
		if o.Results[i] != t {
			return false
		}
	}
	return true
}

// Limits is the min/max pair shared by table and memory types.
type Limits struct {
	Min uint64
	Max uint64
	HasMax bool
}

// TableType describes a table's element type and size limits.
type TableType struct {
	ElemType ValType
	Limits   Limits
}

// MemoryType describes a linear memory's size limits, in 64KiB pages.
type MemoryType struct {
	Limits Limits
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// ImportDesc is the tagged payload of an import entry.
type ImportDesc struct {
	Kind      byte
	FuncType  uint32 // valid when Kind == KindFunc: index into Module.Types
	Table     TableType
	Memory    MemoryType
	Global    GlobalType
}

// Import is one entry of the import section.
type Import struct {
	Module string
	Name   string
	Desc   ImportDesc
}

// Export is one entry of the export section.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// LocalEntry is a run-length-encoded group of locals of one type, as they
// appear in a function body's locals declaration.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// FuncBody is one function's locals declaration and decoded instruction
// stream.
type FuncBody struct {
	Locals []LocalEntry
	Instrs []Instruction
}

// ElementMode distinguishes the three WASM element segment modes.
type ElementMode byte

const (
	ElementActive ElementMode = iota
	ElementPassive
	ElementDeclared
)

// Element is one entry of the element section. Active segments carry a
// TableIdx and Offset init expression; passive/declared segments carry
// neither.
type Element struct {
	Mode     ElementMode
	TableIdx uint32
	Offset   []Instruction
	RefType  ValType
	// Funcs holds function indices for the common func-index-vector
	// encoding. Exprs holds general ref.null/ref.func init expressions for
	// the expression-vector encoding; at most one of the two is non-nil.
	Funcs []uint32
	Exprs [][]Instruction
}

// DataMode distinguishes active and passive data segments.
type DataMode byte

const (
	DataActive DataMode = iota
	DataPassive
)

// Data is one entry of the data section.
type Data struct {
	Mode   DataMode
	MemIdx uint32
	Offset []Instruction
	Bytes  []byte
}

// Global is one entry of the global section: a type plus a constant
// initializer expression.
type Global struct {
	Type GlobalType
	Init []Instruction
}

// Module is the fully decoded (but not yet validated) contents of a
// WebAssembly binary.
type Module struct {
	Types     []FuncType
	Imports   []Import
	Functions []uint32 // type indices for module-local functions
	Tables    []TableType
	Memories  []MemoryType
	Globals   []Global
	Exports   []Export
	Start     *uint32
	Elements  []Element
	Code      []FuncBody
	Data      []Data
	DataCount *uint32
}

// NumImportedFuncs returns how many of the import entries are functions.
func (m *Module) NumImportedFuncs() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc {
			n++
		}
	}
	return n
}

// NumImportedTables, NumImportedMemories, NumImportedGlobals mirror
// NumImportedFuncs for the other three importable spaces.
func (m *Module) NumImportedTables() int   { return m.countImports(KindTable) }
func (m *Module) NumImportedMemories() int { return m.countImports(KindMemory) }
func (m *Module) NumImportedGlobals() int  { return m.countImports(KindGlobal) }

func (m *Module) countImports(kind byte) int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == kind {
			n++
		}
	}
	return n
}

// NumFuncs is the total function space size: imported + module-local.
func (m *Module) NumFuncs() int {
	return m.NumImportedFuncs() + len(m.Functions)
}

// FuncTypeIndex returns the type index of function funcIdx in the combined
// import+local function space, or false if out of range.
func (m *Module) FuncTypeIndex(funcIdx uint32) (uint32, bool) {
	imported := uint32(m.NumImportedFuncs())
	if funcIdx < imported {
		i := -1
		for idx, imp := range m.Imports {
			if imp.Desc.Kind != KindFunc {
				continue
			}
			i++
			if uint32(i) == funcIdx {
				return imp.Desc.FuncType, true
			}
			_ = idx
		}
		return 0, false
	}
	local := funcIdx - imported
	if int(local) >= len(m.Functions) {
		return 0, false
	}
	return m.Functions[local], true
}

// GetFuncType resolves funcIdx to its *FuncType, or nil if out of range.
func (m *Module) GetFuncType(funcIdx uint32) *FuncType {
	typeIdx, ok := m.FuncTypeIndex(funcIdx)
	if !ok || int(typeIdx) >= len(m.Types) {
		return nil
	}
	return &m.Types[typeIdx]
}

// IsImportedFunc reports whether funcIdx names an imported (host) function
// rather than a module-local one with a compiled body.
func (m *Module) IsImportedFunc(funcIdx uint32) bool {
	return funcIdx < uint32(m.NumImportedFuncs())
}

// LocalFuncBody returns the FuncBody for funcIdx, which must be a
// module-local (non-imported) function.
func (m *Module) LocalFuncBody(funcIdx uint32) *FuncBody {
	local := funcIdx - uint32(m.NumImportedFuncs())
	if int(local) >= len(m.Code) {
		return nil
	}
	return &m.Code[local]
}

// GlobalType resolves globalIdx in the combined import+local global space.
func (m *Module) GlobalType(globalIdx uint32) GlobalType {
	imported := uint32(m.NumImportedGlobals())
	if globalIdx < imported {
		return importedGlobalType(m, globalIdx)
	}
	local := globalIdx - imported
	if int(local) >= len(m.Globals) {
		return GlobalType{}
	}
	return m.Globals[local].Type
}
