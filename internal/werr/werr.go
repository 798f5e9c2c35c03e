// Package werr is the structured error taxonomy shared by the decode,
// translate, and runtime phases.
package werr

import (
	"fmt"
	"strings"
)

// Phase indicates which stage of the pipeline produced the error.
type Phase string

const (
	PhaseDecode    Phase = "decode"
	PhaseValidate  Phase = "validate"
	PhaseTranslate Phase = "translate"
	PhaseRuntime   Phase = "runtime"
)

// Kind categorizes the error within its phase.
type Kind string

const (
	KindInvalidData      Kind = "invalid_data"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindUnsupported      Kind = "unsupported"
	KindTooManyRegisters Kind = "too_many_registers"
	KindBranchOffset     Kind = "branch_offset_out_of_range"
	KindTooManyResults   Kind = "too_many_function_results"
	KindConstantPool     Kind = "constant_pool_exhausted"
	KindNotFound         Kind = "not_found"
)

// Error is the structured error type used throughout this module.
type Error struct {
	Phase  Phase
	Kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides fluent structured error construction.
type Builder struct {
	err Error
}

// New starts a builder for an error in the given phase and kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

func (b *Builder) Detail(format string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(format, args...)
	} else {
		b.err.Detail = format
	}
	return b
}

func (b *Builder) Build() *Error {
	return &b.err
}

// TooManyRegisters reports that a function's register space overflowed the
// 16-bit slot encoding.
func TooManyRegisters(detail string) *Error {
	return New(PhaseTranslate, KindTooManyRegisters).Detail("%s", detail).Build()
}

// BranchOffsetOutOfRange reports a branch whose offset doesn't fit the
// instruction's jump-target field.
func BranchOffsetOutOfRange(detail string) *Error {
	return New(PhaseTranslate, KindBranchOffset).Detail("%s", detail).Build()
}

// TooManyFunctionResults reports a function signature with more results
// than the interpreter's results span can address.
func TooManyFunctionResults(n int) *Error {
	return New(PhaseTranslate, KindTooManyResults).Detail("%d results", n).Build()
}

// ConstantPoolExhausted reports that a function's local constant pool grew
// beyond the negative-slot index range.
func ConstantPoolExhausted(detail string) *Error {
	return New(PhaseTranslate, KindConstantPool).Detail("%s", detail).Build()
}
