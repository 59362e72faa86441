// Package evaluator implements the arithmetic evaluation engine.
//
// The evaluator receives a compiled expression from the parser and walks its
// tree against an EvalContext, producing either a finite number or a
// diagnostic. It provides:
//   - IEEE-754 arithmetic with explicit domain checks (division by zero,
//     negative roots, logarithms of non-positive numbers, factorial domain)
//   - Trigonometry honoring the context's angle mode
//   - Overflow detection: no Inf or NaN ever leaves the evaluator
//   - Rounding to a fixed number of significant digits
//   - Custom unary functions
//   - Concurrent evaluation of independent expressions
//
// # Example
//
//	ev := evaluator.New()
//	result, err := ev.Eval(ctx, expr, evaluator.NewContext())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// An Evaluator is safe for concurrent use; an EvalContext is not. Give each
// session its own context, or use EvalMany, which clones it per expression.
//
//	results, err := ev.EvalMany(ctx, inputs, evalCtx)
package evaluator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sandrolain/gocalc/pkg/cache"
	"github.com/sandrolain/gocalc/pkg/functions"
	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/types"
)

// DefaultPrecision is the number of significant digits results are rounded to.
const DefaultPrecision = 15

// Evaluator evaluates arithmetic expressions.
type Evaluator struct {
	opts        EvalOptions
	logger      *zap.Logger
	cache       *cache.Cache                          // non-nil when Caching is enabled
	customFns   map[string]functions.CustomFunctionDef // user-registered custom functions
	customNames []string
	cacheScope  string // prefixes cache keys with what compilation depends on
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables expression compilation caching.
	// When true, compiled expressions are cached by source text.
	// The default cache holds up to 256 entries with LRU eviction.
	Caching bool
	// CacheSize sets the maximum number of cached expressions.
	// Only used when Caching is true and no explicit Cache is provided.
	// Defaults to 256.
	CacheSize int
	// Cache is a custom expression cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// Concurrency enables concurrent evaluation in EvalMany.
	Concurrency bool
	// MaxDepth limits expression nesting at compile time.
	MaxDepth int
	// Precision is the number of significant digits results are rounded to.
	Precision int
	// Logger for structured logging.
	Logger *zap.Logger
	// CustomFunctions holds user-defined functions to register with the evaluator.
	CustomFunctions []functions.CustomFunctionDef
}

// defaultConcurrency controls the default value of EvalOptions.Concurrency for
// newly created Evaluators. It is false on WebAssembly targets, see
// evaluator_wasm.go.
var defaultConcurrency = true

// New creates a new Evaluator with default options.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		Caching:     false,
		Concurrency: defaultConcurrency,
		MaxDepth:    256,
		Precision:   DefaultPrecision,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Precision <= 0 || options.Precision > 17 {
		options.Precision = DefaultPrecision
	}

	// Initialise expression cache when caching is enabled.
	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		size := options.CacheSize
		if size <= 0 {
			size = 256
		}
		c = cache.New(size)
	}

	// Build custom function lookup map.
	customFns := make(map[string]functions.CustomFunctionDef, len(options.CustomFunctions))
	for _, cfd := range options.CustomFunctions {
		if err := cfd.Validate(); err != nil {
			options.Logger.Warn("skipping custom function", zap.Error(err))
			continue
		}
		if _, ok := builtins[cfd.Name]; ok {
			options.Logger.Warn("custom function shadows a builtin, skipping", zap.String("name", cfd.Name))
			continue
		}
		customFns[cfd.Name] = cfd
	}
	registered := make([]functions.CustomFunctionDef, 0, len(customFns))
	for _, cfd := range customFns {
		registered = append(registered, cfd)
	}
	names := functions.Names(registered)

	return &Evaluator{
		opts:        options,
		logger:      options.Logger,
		cache:       c,
		customFns:   customFns,
		customNames: names,
		cacheScope:  fmt.Sprintf("%d;%s;", options.MaxDepth, strings.Join(names, ",")),
	}
}

// Cache returns the expression cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache {
	return e.cache
}

// Precision returns the number of significant digits results are rounded to.
func (e *Evaluator) Precision() int {
	return e.opts.Precision
}

// Functions returns the definitions of the registered custom functions,
// sorted by name.
func (e *Evaluator) Functions() []functions.CustomFunctionDef {
	out := make([]functions.CustomFunctionDef, 0, len(e.customNames))
	for _, name := range e.customNames {
		out = append(out, e.customFns[name])
	}
	return out
}

// Compile parses input into an expression accepting the builtin and the
// registered custom function names. The cache is consulted when enabled.
// Cache entries are keyed by the source text together with the function
// names and nesting limit, so evaluators with different configurations can
// share one cache.
func (e *Evaluator) Compile(input string) (*types.Expression, error) {
	compile := func() (*types.Expression, error) {
		return parser.Compile(input,
			parser.WithMaxDepth(e.opts.MaxDepth),
			parser.WithFunctions(e.customNames...),
		)
	}
	if e.cache != nil {
		return e.cache.GetOrCompile(e.cacheScope+input, compile)
	}
	return compile()
}

// Eval evaluates a compiled expression against evalCtx and returns a finite
// number rounded to the configured precision. On success the result becomes
// the context's last result. A nil evalCtx evaluates in degree mode with an
// empty memory register.
func (e *Evaluator) Eval(ctx context.Context, expr *types.Expression, evalCtx *EvalContext) (result float64, err error) {
	if expr == nil || expr.AST() == nil {
		return 0, types.NewError(types.ErrInternal, "invalid expression", -1)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if evalCtx == nil {
		evalCtx = NewContext()
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("evaluation panicked",
				zap.String("expression", expr.Source()),
				zap.Any("panic", r))
			result = 0
			err = types.NewError(types.ErrInternal, fmt.Sprintf("internal error: %v", r), -1)
		}
	}()

	v, err := e.evalNode(ctx, expr.AST(), evalCtx)
	if err != nil {
		e.logger.Debug("evaluation failed",
			zap.String("expression", expr.Source()),
			zap.Error(err))
		return 0, err
	}
	if err := checkFinite(v, "result"); err != nil {
		return 0, err
	}

	v = Round(v, e.opts.Precision)
	evalCtx.SetLastResult(v)

	e.logger.Debug("evaluated",
		zap.String("expression", expr.Source()),
		zap.Float64("result", v),
		zap.Stringer("angle", evalCtx.AngleMode()))

	return v, nil
}

// EvalString compiles and evaluates input in one step.
func (e *Evaluator) EvalString(ctx context.Context, input string, evalCtx *EvalContext) (float64, error) {
	expr, err := e.Compile(input)
	if err != nil {
		return 0, err
	}
	return e.Eval(ctx, expr, evalCtx)
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithCaching enables or disables expression compilation caching.
// When enabled, a default LRU cache of 256 entries is created.
// To control the cache size use WithCacheSize; to supply your own cache use WithCache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached expressions.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external expression cache.
// The evaluator will use this cache regardless of the Caching flag.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithConcurrency enables or disables concurrent evaluation in EvalMany.
func WithConcurrency(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Concurrency = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum expression nesting depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithPrecision sets the number of significant digits results are rounded
// to. Values outside 1..17 fall back to DefaultPrecision.
func WithPrecision(digits int) EvalOption {
	return func(opts *EvalOptions) {
		opts.Precision = digits
	}
}

// WithCustomFunction registers a user-defined unary function with the evaluator.
//
// Example:
//
//	ev := evaluator.New(evaluator.WithCustomFunction("half", func(_ context.Context, x float64) (float64, error) {
//	    return x / 2, nil
//	}))
func WithCustomFunction(name string, fn functions.CustomFunc) EvalOption {
	return func(opts *EvalOptions) {
		opts.CustomFunctions = append(opts.CustomFunctions, functions.CustomFunctionDef{
			Name: name,
			Fn:   fn,
		})
	}
}

// WithFunctions registers multiple custom function definitions at once.
// It is the idiomatic way to load extension packages:
//
//	evaluator.New(evaluator.WithFunctions(extmath.All()...))
func WithFunctions(defs ...functions.CustomFunctionDef) EvalOption {
	return func(opts *EvalOptions) {
		opts.CustomFunctions = append(opts.CustomFunctions, defs...)
	}
}
