// Package wasm decodes WebAssembly binaries into a validated operator
// stream.
//
// This is the thin front end the translator (internal/compiler) and
// interpreter (internal/vm) build on: it owns the binary format only, not
// register allocation or execution. DecodeModule parses sections into a
// *Module; DecodeInstructions turns one function body's raw bytes into a
// []Instruction stream; ValidateModule runs the classic stack-polymorphic
// type check so that whatever reaches the translator is well-typed.
//
// The decoder covers the MVP plus the sign-extension, saturating
// truncation, bulk-memory, reference-types, tail-call, SIMD and relaxed-SIMD
// proposals; wide-arithmetic operators are not decoded and are rejected as
// unknown 0xFC sub-opcodes. It is deliberately not a fully conformant
// validator for every edge case the upstream spec test suite exercises —
// see the package's companion SPEC_FULL.md for the exact boundary.
package wasm
