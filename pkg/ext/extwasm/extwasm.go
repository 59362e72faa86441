// Package extwasm loads unary calculator functions from WebAssembly modules.
//
// Every exported function with the signature (f64) -> f64 becomes a custom
// function callable from expressions. The module runs inside a wazero
// runtime with no host imports besides WASI preview1, so it can compute but
// cannot reach the network or the filesystem.
//
// # Example
//
//	mod, err := extwasm.LoadFile(ctx, "finance.wasm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mod.Close(ctx)
//
//	ev := evaluator.New(evaluator.WithFunctions(mod.Functions()...))
package extwasm

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/sandrolain/gocalc/pkg/functions"
)

// defaultMemoryLimitPages caps module memory at 16 MiB (64 KiB pages).
const defaultMemoryLimitPages = 256

// Module is an instantiated WebAssembly module exposing unary functions.
//
// Calls into the module are serialized; a Module is safe for concurrent use.
type Module struct {
	runtime wazero.Runtime
	module  api.Module
	names   []string

	mu sync.Mutex
}

// Option configures module loading.
type Option func(*options)

type options struct {
	name        string
	memoryPages uint32
	only        map[string]bool
}

// WithName sets the module name reported in diagnostics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithMemoryLimitPages caps the module's linear memory, in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *options) {
		o.memoryPages = pages
	}
}

// WithExports restricts the exposed functions to the given export names.
func WithExports(names ...string) Option {
	return func(o *options) {
		if o.only == nil {
			o.only = make(map[string]bool, len(names))
		}
		for _, n := range names {
			o.only[n] = true
		}
	}
}

// Load compiles and instantiates a WebAssembly binary.
func Load(ctx context.Context, wasm []byte, opts ...Option) (*Module, error) {
	o := options{memoryPages: defaultMemoryLimitPages}
	for _, opt := range opts {
		opt(&o)
	}

	rt := wazero.NewRuntimeWithConfig(ctx,
		wazero.NewRuntimeConfig().WithMemoryLimitPages(o.memoryPages),
	)

	// Modules built by standard toolchains often import WASI even when the
	// exported math never touches it.
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("extwasm: instantiate WASI: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("extwasm: compile module: %w", err)
	}

	var names []string
	for name, def := range compiled.ExportedFunctions() {
		if o.only != nil && !o.only[name] {
			continue
		}
		if !isUnaryF64(def) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	// Reactor-style instantiation: do not run _start.
	cfg := wazero.NewModuleConfig().WithName(o.name).WithStartFunctions()
	mod, err := rt.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("extwasm: instantiate module: %w", err)
	}

	return &Module{
		runtime: rt,
		module:  mod,
		names:   names,
	}, nil
}

// LoadFile reads and loads a WebAssembly binary from path.
func LoadFile(ctx context.Context, path string, opts ...Option) (*Module, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("extwasm: %w", err)
	}
	return Load(ctx, wasm, opts...)
}

// Names returns the sorted export names exposed as functions.
func (m *Module) Names() []string {
	return append([]string(nil), m.names...)
}

// Functions returns one custom function definition per exposed export.
// Exports whose names are not valid function identifiers are skipped.
func (m *Module) Functions() []functions.CustomFunctionDef {
	defs := make([]functions.CustomFunctionDef, 0, len(m.names))
	for _, name := range m.names {
		def := functions.CustomFunctionDef{
			Name:        name,
			Description: "WebAssembly export " + name,
			Fn:          m.caller(name),
		}
		if def.Validate() != nil {
			continue
		}
		defs = append(defs, def)
	}
	return defs
}

// Call invokes the named export with x.
func (m *Module) Call(ctx context.Context, name string, x float64) (float64, error) {
	return m.caller(name)(ctx, x)
}

func (m *Module) caller(name string) functions.CustomFunc {
	return func(ctx context.Context, x float64) (float64, error) {
		fn := m.module.ExportedFunction(name)
		if fn == nil {
			return 0, fmt.Errorf("wasm export %q not found", name)
		}

		m.mu.Lock()
		defer m.mu.Unlock()

		results, err := fn.Call(ctx, api.EncodeF64(x))
		if err != nil {
			return 0, fmt.Errorf("wasm export %q: %w", name, err)
		}
		if len(results) != 1 {
			return 0, fmt.Errorf("wasm export %q returned %d values", name, len(results))
		}
		return api.DecodeF64(results[0]), nil
	}
}

// Close releases the runtime and the module instance.
func (m *Module) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}

func isUnaryF64(def api.FunctionDefinition) bool {
	params, results := def.ParamTypes(), def.ResultTypes()
	return len(params) == 1 && params[0] == api.ValueTypeF64 &&
		len(results) == 1 && results[0] == api.ValueTypeF64
}
