//go:build wasip1

// Command gocalc-wasm-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "expression": "<expression>", "angle_mode": "deg" | "rad" }
//	stdout: { "result": <number>, "display": "<canonical>" }   on success
//	        { "error":  <diagnostic>                        }   on failure (exit code 1)
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gocalc.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"expression":"sin(30) × 2"}' | wasmtime gocalc.wasm
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sandrolain/gocalc"
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/types"
)

type request struct {
	Expression string              `json:"expression"`
	AngleMode  evaluator.AngleMode `json:"angle_mode"`
}

type response struct {
	Result  *float64 `json:"result,omitempty"`
	Display string   `json:"display,omitempty"`
	Error   any      `json:"error,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	result, err := gocalc.EvalWithContext(context.Background(), req.Expression,
		evaluator.NewContextWithMode(req.AngleMode),
		gocalc.WithConcurrency(false),
	)
	if err != nil {
		if diag, ok := types.AsDiagnostic(err); ok {
			writeResponse(response{Error: diag}, 1)
		}
		writeResponse(response{Error: err.Error()}, 1)
	}

	writeResponse(response{Result: &result, Display: evaluator.Canonical(result)}, 0)
}
