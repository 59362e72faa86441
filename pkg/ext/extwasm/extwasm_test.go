package extwasm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/ext/extwasm"
)

// doubleWasm is a minimal module exporting double(x f64) f64 { return x + x }.
var doubleWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x06, 0x01, 0x60, 0x01, 0x7c, 0x01, 0x7c, // type: (f64) -> f64
	0x03, 0x02, 0x01, 0x00, // func: type 0
	0x07, 0x0a, 0x01, 0x06, 'd', 'o', 'u', 'b', 'l', 'e', 0x00, 0x00, // export "double"
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x00, 0xa0, 0x0b, // local.get 0; local.get 0; f64.add
}

func TestLoadAndCall(t *testing.T) {
	ctx := context.Background()
	mod, err := extwasm.Load(ctx, doubleWasm, extwasm.WithName("double"))
	require.NoError(t, err)
	defer mod.Close(ctx)

	assert.Equal(t, []string{"double"}, mod.Names())

	got, err := mod.Call(ctx, "double", 1.25)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got)

	_, err = mod.Call(ctx, "missing", 1)
	assert.Error(t, err)
}

func TestFunctionsInEvaluator(t *testing.T) {
	ctx := context.Background()
	mod, err := extwasm.Load(ctx, doubleWasm)
	require.NoError(t, err)
	defer mod.Close(ctx)

	ev := evaluator.New(evaluator.WithFunctions(mod.Functions()...))
	got, err := ev.EvalString(ctx, "double(21) + 1", nil)
	require.NoError(t, err)
	assert.Equal(t, 43.0, got)

	results, err := ev.EvalMany(ctx, []string{"double(1)", "double(2)", "double(3)"}, nil)
	require.NoError(t, err)
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, float64(2*(i+1)), r.Value)
	}
}

func TestWithExportsFilters(t *testing.T) {
	ctx := context.Background()
	mod, err := extwasm.Load(ctx, doubleWasm, extwasm.WithExports("triple"))
	require.NoError(t, err)
	defer mod.Close(ctx)

	assert.Empty(t, mod.Names())
	assert.Empty(t, mod.Functions())
}

func TestLoadInvalid(t *testing.T) {
	_, err := extwasm.Load(context.Background(), []byte("not wasm"))
	assert.Error(t, err)

	_, err = extwasm.LoadFile(context.Background(), "/nonexistent/module.wasm")
	assert.Error(t, err)
}
