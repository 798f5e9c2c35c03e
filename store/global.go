package store

import "github.com/wasmi/wasmi/wasm"

// Global is one instantiated global variable. Scalars live in bits;
// v128-typed globals use vec instead, mirroring the interpreter's own
// scalar/vector bank split so a global's storage needs no runtime type
// tag beyond the one bit recorded here.
type Global struct {
	bits    uint64
	vec     [16]byte
	isV128  bool
	mutable bool
	valType wasm.ValType
}

// NewGlobal creates a global of the given type and mutability, initialized
// to the zero value; Instantiate overwrites it with the module's init
// expression immediately after.
func NewGlobal(vt wasm.ValType, mutable bool) *Global {
	return &Global{valType: vt, isV128: vt == wasm.ValV128, mutable: mutable}
}

func (g *Global) Mutable() bool      { return g.mutable }
func (g *Global) IsV128() bool       { return g.isV128 }
func (g *Global) ValType() wasm.ValType { return g.valType }

func (g *Global) Get() uint64    { return g.bits }
func (g *Global) Set(v uint64)   { g.bits = v }
func (g *Global) GetV128() [16]byte  { return g.vec }
func (g *Global) SetV128(v [16]byte) { g.vec = v }
