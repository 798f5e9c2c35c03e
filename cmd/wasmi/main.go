// Command wasmi loads a core WebAssembly module, translates and instantiates
// it, and invokes one exported function with CLI-supplied scalar arguments.
// It is the thin embedder surface over internal/compiler, internal/vm,
// store, and wasm -- a runnable consumer of the public API, not a
// competing runtime front end.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wasmi/wasmi/internal/vm"
	"github.com/wasmi/wasmi/store"
	"github.com/wasmi/wasmi/wasm"
)

func main() {
	var (
		wasmFile   = flag.String("wasm", "", "Path to a core .wasm module")
		funcName   = flag.String("func", "", "Exported function to call")
		argsStr    = flag.String("args", "", "Comma-separated argument values, in declared param order")
		list       = flag.Bool("list", false, "List exported functions and exit")
		fuel       = flag.Int64("fuel", 0, "Fuel budget for the call (0 disables metering)")
		debugLog   = flag.Bool("debug", false, "Enable debug logging")
		cpuprofile = flag.String("cpuprofile", "", "Write a CPU profile to this file")
		interactive = flag.Bool("i", false, "Interactive mode: browse and call exports from a TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wasmi -wasm <file.wasm> [-func name] [-args v1,v2,...]")
		fmt.Fprintln(os.Stderr, "       wasmi -wasm <file.wasm> -list")
		os.Exit(1)
	}

	if *debugLog {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: build logger: %v\n", err)
			os.Exit(1)
		}
		vm.SetLogger(l)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: create cpu profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error: start cpu profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *interactive {
		if err := runInteractiveFile(*wasmFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *funcName, *argsStr, *fuel, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInteractiveFile(wasmFile string) error {
	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	mod, err := wasm.DecodeModule(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	inst, err := store.Instantiate(mod, nil)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	if fn, ok := inst.StartFunc(); ok {
		if tc, err := vm.Invoke(context.Background(), inst, fn, nil, nil); err != nil {
			return fmt.Errorf("start function: %w", err)
		} else if !tc.None() {
			return fmt.Errorf("start function trapped: %s", tc.Error())
		}
	}
	return runInteractive(inst, wasmFile)
}

func run(wasmFile, funcName, argsStr string, fuel int64, listOnly bool) error {
	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	mod, err := wasm.DecodeModule(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	inst, err := store.Instantiate(mod, nil)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}

	if listOnly {
		printExports(inst, mod)
		return nil
	}

	if fn, ok := inst.StartFunc(); ok {
		if tc, err := vm.Invoke(context.Background(), inst, fn, nil, nil); err != nil {
			return fmt.Errorf("start function: %w", err)
		} else if !tc.None() {
			return fmt.Errorf("start function trapped: %s", tc.Error())
		}
	}

	if funcName == "" {
		printExports(inst, mod)
		return nil
	}

	fn := inst.Func(funcName)
	if fn == nil {
		return fmt.Errorf("%q is not an exported function", funcName)
	}

	args, err := parseArgs(argsStr, fn.FuncType.Params)
	if err != nil {
		return fmt.Errorf("parse args: %w", err)
	}
	if len(args) != len(fn.FuncType.Params) {
		return fmt.Errorf("%q takes %d argument(s), got %d", funcName, len(fn.FuncType.Params), len(args))
	}

	ctx := context.Background()
	if fuel > 0 {
		ctx = vm.WithFuel(ctx, fuel)
	}

	results := make([]uint64, len(fn.FuncType.Results))
	tc, err := vm.Invoke(ctx, inst, fn, args, results)
	if err != nil {
		return fmt.Errorf("invoke: %w", err)
	}
	if !tc.None() {
		return fmt.Errorf("trap: %s", tc.Error())
	}

	fmt.Println(formatResults(fn.FuncType.Results, results))
	return nil
}

func printExports(inst *store.Instance, mod *wasm.Module) {
	fmt.Printf("Exports:\n")
	for _, name := range inst.ExportNames() {
		kind, _ := inst.ExportKind(name)
		if kind != wasm.KindFunc {
			continue
		}
		fn := inst.Func(name)
		if fn == nil {
			continue
		}
		fmt.Printf("  %s(%s) -> (%s)\n", name, joinTypes(fn.FuncType.Params), joinTypes(fn.FuncType.Results))
	}
}

func joinTypes(ts []wasm.ValType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func parseArgs(s string, params []wasm.ValType) ([]uint64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != len(params) {
		return nil, fmt.Errorf("want %d argument(s), got %d", len(params), len(parts))
	}
	out := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := parseScalar(p, params[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseScalar(s string, t wasm.ValType) (uint64, error) {
	switch t {
	case wasm.ValI32:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint64(uint32(int32(n))), nil
	case wasm.ValI64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint64(n), nil
	case wasm.ValF32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, err
		}
		return uint64(math.Float32bits(float32(f))), nil
	case wasm.ValF64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return math.Float64bits(f), nil
	default:
		return 0, fmt.Errorf("unsupported parameter type %s", t)
	}
}

func formatResults(types []wasm.ValType, vals []uint64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		switch types[i] {
		case wasm.ValI32:
			parts[i] = strconv.FormatInt(int64(int32(uint32(v))), 10)
		case wasm.ValI64:
			parts[i] = strconv.FormatInt(int64(v), 10)
		case wasm.ValF32:
			parts[i] = strconv.FormatFloat(float64(math.Float32frombits(uint32(v))), 'g', -1, 32)
		case wasm.ValF64:
			parts[i] = strconv.FormatFloat(math.Float64frombits(v), 'g', -1, 64)
		default:
			parts[i] = strconv.FormatUint(v, 10)
		}
	}
	return strings.Join(parts, ", ")
}
