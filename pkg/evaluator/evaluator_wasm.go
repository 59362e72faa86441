//go:build (js && wasm) || wasip1

package evaluator

// init disables concurrent EvalMany on WebAssembly targets, where the Go
// runtime schedules all goroutines on a single thread.
func init() {
	defaultConcurrency = false
}
