package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sandrolain/gocalc/internal/config"
	"github.com/sandrolain/gocalc/pkg/catalog"
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/ext"
	"github.com/sandrolain/gocalc/pkg/ext/extwasm"
	"github.com/sandrolain/gocalc/pkg/history"
)

// engine is the evaluator plus the WebAssembly modules backing it.
type engine struct {
	ev      *evaluator.Evaluator
	modules []*extwasm.Module
}

func (e *engine) Close(ctx context.Context) error {
	var errs []error
	for _, m := range e.modules {
		errs = append(errs, m.Close(ctx))
	}
	return errors.Join(errs...)
}

// buildEngine creates the evaluator described by cfg.
func buildEngine(ctx context.Context, cfg config.EngineConfig, logger *zap.Logger) (*engine, error) {
	opts := []evaluator.EvalOption{
		evaluator.WithLogger(logger.Named("evaluator")),
		evaluator.WithMaxDepth(cfg.MaxDepth),
		evaluator.WithPrecision(cfg.Precision),
	}
	if cfg.CacheSize > 0 {
		opts = append(opts, evaluator.WithCaching(true), evaluator.WithCacheSize(cfg.CacheSize))
	}
	if cfg.Extensions {
		opts = append(opts, ext.WithMath())
	}

	e := &engine{}
	for _, path := range cfg.WasmModules {
		m, err := extwasm.LoadFile(ctx, path)
		if err != nil {
			_ = e.Close(ctx)
			return nil, fmt.Errorf("load wasm module %s: %w", path, err)
		}
		logger.Info("loaded wasm module", zap.String("path", path), zap.Strings("functions", m.Names()))
		e.modules = append(e.modules, m)
	}
	if len(e.modules) > 0 {
		opts = append(opts, ext.WithWasm(e.modules...))
	}

	e.ev = evaluator.New(opts...)
	return e, nil
}

func (a *app) catalog(ev *evaluator.Evaluator) (*catalog.Catalog, error) {
	return catalog.New(
		catalog.WithEvaluator(ev),
		catalog.WithLocale(a.cfg.Engine.Locale),
		catalog.WithLogger(a.logger.Named("catalog")),
	)
}

func (a *app) openHistory(ctx context.Context) (*history.Store, error) {
	return history.Open(ctx, a.cfg.History.Database,
		history.WithLogger(a.logger.Named("history")),
		history.WithPageSize(a.cfg.History.PageSize),
	)
}
