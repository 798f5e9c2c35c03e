package store

import (
	"context"

	"github.com/wasmi/wasmi/internal/compiler"
	"github.com/wasmi/wasmi/wasm"
)

// HostFunc is the signature an imported function must implement. args and
// results are scalar words in the same convention vm.Invoke uses at the
// embedder boundary; a host function that needs to call back into the
// instance (e.g. a WASI-style callback) closes over the *Instance and the
// embedder's own vm.Invoke at wiring time, since store cannot import vm
// without creating a cycle.
type HostFunc func(ctx context.Context, args []uint64, results []uint64) error

// FunctionInstance is a function in the combined import+local function
// space: exactly one of Compiled or Host is set.
type FunctionInstance struct {
	Type     wasm.FuncType
	Compiled *compiler.Function
	Host     HostFunc
}

// IsHost reports whether this function instance is a host import rather
// than module-local bytecode.
func (f *FunctionInstance) IsHost() bool { return f.Host != nil }
