package store

import "github.com/wasmi/wasmi/wasm"

// Imports resolves every import a module declares, grouped by the
// module/name pair the import section names. A nil *Imports (or a field
// left nil) instantiates as if that import space were simply empty --
// Instantiate then fails with a clear error the first time the module
// actually declares an import nothing here can satisfy, rather than
// panicking on a nil map lookup.
type Imports struct {
	Funcs    map[string]map[string]HostFunc
	FuncTypes map[string]map[string]wasm.FuncType
	Tables   map[string]map[string]*Table
	Memories map[string]map[string]*Memory
	Globals  map[string]map[string]*Global
}

// NewImports returns an empty, ready-to-populate Imports.
func NewImports() *Imports {
	return &Imports{
		Funcs:     map[string]map[string]HostFunc{},
		FuncTypes: map[string]map[string]wasm.FuncType{},
		Tables:    map[string]map[string]*Table{},
		Memories:  map[string]map[string]*Memory{},
		Globals:   map[string]map[string]*Global{},
	}
}

// DefineFunc registers a host function import under module/name.
func (im *Imports) DefineFunc(module, name string, ft wasm.FuncType, fn HostFunc) {
	if im.Funcs[module] == nil {
		im.Funcs[module] = map[string]HostFunc{}
		im.FuncTypes[module] = map[string]wasm.FuncType{}
	}
	im.Funcs[module][name] = fn
	im.FuncTypes[module][name] = ft
}

// DefineTable, DefineMemory, DefineGlobal register a shared instance
// import under module/name -- typically one owned by an already
// instantiated sibling module.
func (im *Imports) DefineTable(module, name string, t *Table) {
	if im.Tables[module] == nil {
		im.Tables[module] = map[string]*Table{}
	}
	im.Tables[module][name] = t
}

func (im *Imports) DefineMemory(module, name string, m *Memory) {
	if im.Memories[module] == nil {
		im.Memories[module] = map[string]*Memory{}
	}
	im.Memories[module][name] = m
}

func (im *Imports) DefineGlobal(module, name string, g *Global) {
	if im.Globals[module] == nil {
		im.Globals[module] = map[string]*Global{}
	}
	im.Globals[module][name] = g
}

func (im *Imports) lookupFunc(module, name string) (HostFunc, wasm.FuncType, bool) {
	if im == nil {
		return nil, wasm.FuncType{}, false
	}
	fn, ok := im.Funcs[module][name]
	if !ok {
		return nil, wasm.FuncType{}, false
	}
	return fn, im.FuncTypes[module][name], true
}

func (im *Imports) lookupTable(module, name string) (*Table, bool) {
	if im == nil {
		return nil, false
	}
	t, ok := im.Tables[module][name]
	return t, ok
}

func (im *Imports) lookupMemory(module, name string) (*Memory, bool) {
	if im == nil {
		return nil, false
	}
	m, ok := im.Memories[module][name]
	return m, ok
}

func (im *Imports) lookupGlobal(module, name string) (*Global, bool) {
	if im == nil {
		return nil, false
	}
	g, ok := im.Globals[module][name]
	return g, ok
}
