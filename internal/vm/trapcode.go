package vm

import "github.com/wasmi/wasmi/internal/trap"

// TrapCode is the interpreter's outward-facing trap signal: a zero value
// means no trap. It carries trap.Code for the fixed enum plus, for the
// Host variant, an out-of-band int32 the host handler supplied, keeping
// trap.Code itself a small comparable value as the hot dispatch loop
// requires.
type TrapCode struct {
	Code     trap.Code
	HostCode int32
}

// None reports whether tc represents "no trap", i.e. a normal return.
func (tc TrapCode) None() bool { return tc.Code == trap.None }

// Error renders tc for embedder-facing diagnostics. Never consulted by the
// interpreter itself for control flow.
func (tc TrapCode) Error() string {
	if tc.Code == trap.Host {
		return "host trap"
	}
	return tc.Code.String()
}

func trapOf(c trap.Code) TrapCode { return TrapCode{Code: c} }

func hostTrap(code int32) TrapCode { return TrapCode{Code: trap.Host, HostCode: code} }
