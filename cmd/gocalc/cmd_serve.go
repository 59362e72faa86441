package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sandrolain/gocalc/internal/config"
	"github.com/sandrolain/gocalc/internal/logging"
	"github.com/sandrolain/gocalc/internal/server"
	"github.com/sandrolain/gocalc/pkg/assistant"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the calculator HTTP API and WebSocket sessions.

With --watch, changes to the config file update the angle mode, locale,
fraction digits, base URL and log level without a restart.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.serve(cmd.Context(), watch)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload settings when the config file changes")
	return cmd
}

func (a *app) serve(ctx context.Context, watch bool) error {
	shutdownTracer, err := server.InitTracer(ctx, a.cfg.Server.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	eng, err := buildEngine(ctx, a.cfg.Engine, a.logger)
	if err != nil {
		return err
	}
	defer eng.Close(context.Background())

	cat, err := a.catalog(eng.ev)
	if err != nil {
		return err
	}
	store, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	asst, err := assistant.NewGemini(ctx, a.cfg.Assistant.APIKey, a.cfg.Assistant.Model,
		assistant.WithTimeout(a.cfg.Assistant.Timeout),
		assistant.WithLogger(a.logger.Named("assistant")),
	)
	if err != nil {
		return err
	}
	if !asst.Enabled() {
		a.logger.Info("assistant disabled, no API key configured")
	}

	srv := server.New(a.cfg, server.Deps{
		Evaluator: eng.ev,
		Catalog:   cat,
		History:   store,
		Assistant: asst,
		Logger:    a.logger.Named("server"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	if watch {
		path := a.watchPath()
		if _, err := os.Stat(path); err != nil {
			a.logger.Warn("config file not found, not watching", zap.String("path", path))
		} else {
			g.Go(func() error {
				return config.Watch(gctx, path, a.logger.Named("config"), a.reload(srv))
			})
		}
	}
	return g.Wait()
}

// reload applies a changed configuration to the running server.
func (a *app) reload(srv *server.Server) func(config.Config) {
	return func(cfg config.Config) {
		srv.ApplyConfig(cfg)
		if a.verbose {
			return
		}
		lvl, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			a.logger.Warn("ignoring log level", zap.Error(err))
			return
		}
		a.level.SetLevel(lvl)
	}
}
