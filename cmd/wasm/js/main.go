//go:build js && wasm

// Command gocalc-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `gocalc` object with the following API:
//
//	gocalc.version()                     → string
//	gocalc.eval(expression, angleMode)   → number  (throws on error)
//	gocalc.format(value, locale, digits) → string
//	gocalc.session(angleMode)            → { press(key), snapshot() → JSON }
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o gocalc.wasm ./cmd/wasm/js/
//
// Usage in the browser:
//
//	<script src="wasm_exec.js"></script>
//	<script>
//	  const s = gocalc.session('deg')
//	  for (const k of ['2', '+', '3', '=']) s.press(k)
//	  console.log(JSON.parse(s.snapshot()).display) // '5'
//	</script>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/gocalc"
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/session"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

func angleArg(args []js.Value, i int) evaluator.AngleMode {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return evaluator.Degrees
	}
	mode, err := evaluator.ParseAngleMode(args[i].String())
	if err != nil {
		jsThrow(err.Error())
	}
	return mode
}

// jsEval implements gocalc.eval(expression, angleMode) → number.
func jsEval(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("gocalc.eval requires 1 argument: expression (string)")
	}
	result, err := gocalc.EvalWithContext(context.Background(), args[0].String(),
		evaluator.NewContextWithMode(angleArg(args, 1)),
		gocalc.WithConcurrency(false),
	)
	if err != nil {
		jsThrow(fmt.Sprintf("gocalc.eval: %v", err))
	}
	return result
}

// jsFormat implements gocalc.format(value, locale, digits) → string.
func jsFormat(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("gocalc.format requires 1 argument: value (number)")
	}
	locale, digits := "en", -1
	if len(args) > 1 {
		locale = args[1].String()
	}
	if len(args) > 2 {
		digits = args[2].Int()
	}
	return evaluator.FormatNumber(args[0].Float(), locale, digits)
}

// jsSession implements gocalc.session(angleMode) → { press, snapshot }.
func jsSession(_ js.Value, args []js.Value) any {
	sess := gocalc.NewSession(session.WithAngleMode(angleArg(args, 0)))

	press := js.FuncOf(func(_ js.Value, in []js.Value) any {
		if len(in) < 1 {
			jsThrow("session.press requires 1 argument: key (string)")
		}
		if err := sess.Press(in[0].String()); err != nil {
			jsThrow(fmt.Sprintf("session.press: %v", err))
		}
		return nil
	})
	snapshot := js.FuncOf(func(_ js.Value, _ []js.Value) any {
		out, err := json.Marshal(sess.Snapshot())
		if err != nil {
			jsThrow(fmt.Sprintf("session.snapshot: %v", err))
		}
		return string(out)
	})

	return js.ValueOf(map[string]any{"press": press, "snapshot": snapshot})
}

func main() {
	api := map[string]any{
		"eval":    js.FuncOf(jsEval),
		"format":  js.FuncOf(jsFormat),
		"session": js.FuncOf(jsSession),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) any {
			return gocalc.Version()
		}),
	}
	js.Global().Set("gocalc", js.ValueOf(api))

	// Block forever; the JS event loop owns execution from here.
	select {}
}
