// Package wasmi is a register-machine WebAssembly execution engine.
//
// It parses and validates WebAssembly modules, translates their function
// bodies into an internal register-based bytecode, and executes that
// bytecode against a host-managed store of memories, tables, globals, and
// functions. There is no JIT: translation is a single-pass streaming
// compile from the validated operator stream to the internal ISA, and
// execution is a straight interpreter loop.
//
// # Architecture
//
//	wasm/               Binary decode/validate front end: bytes -> *wasm.Module
//	internal/compiler/  The translator: operator stream -> register ISA
//	internal/lanes/     SIMD v128 lane arithmetic, used by the vm
//	internal/vm/        The interpreter: register ISA -> results or a trap
//	internal/werr/      Structured error/trap taxonomy
//	store/              Host-managed runtime state: memories, tables, globals,
//	                    function instances, and instance wiring
//	cmd/wasmi/          Command-line driver
//
// # Quick start
//
//	data, _ := os.ReadFile("add.wasm")
//	mod, err := wasm.DecodeModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := wasm.ValidateModule(mod); err != nil {
//	    log.Fatal(err)
//	}
//	inst, err := store.Instantiate(mod, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	results := make([]uint64, 1)
//	trap, err := vm.Invoke(context.Background(), inst, inst.Func("add"), []uint64{2, 3}, results)
//
// # Thread safety
//
// A single store.Instance (and everything reachable from it: memories, tables,
// globals, function instances) is not safe for concurrent use — exactly one
// execution may hold it at a time, including through re-entrant host calls.
// Separate instances that share no imported memories, tables, globals or host
// state may run on separate goroutines.
//
// # Non-goals
//
// No JIT or native codegen, no ambient authority for guest code, no garbage
// collection of guest values, and no observable deviation from WebAssembly
// trap/NaN semantics for the proposals this engine implements (MVP,
// sign-extension, saturating truncation, bulk memory, reference types,
// tail call, SIMD, and relaxed SIMD). Wide-arithmetic operators are not
// decoded: the front end rejects them as unknown 0xFC sub-opcodes. The GC and exception
// handling proposals, multi-memory, and shared-memory threads execution are
// out of scope.
package wasmi
