// Command gocalc evaluates calculator expressions, runs the catalog of
// everyday calculators and serves both over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sandrolain/gocalc/internal/config"
	"github.com/sandrolain/gocalc/internal/logging"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
	level  zap.AtomicLevel
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "gocalc",
		Short: "Scientific calculator engine and calculator catalog",
		Long: `gocalc evaluates arithmetic expressions with scientific functions,
runs a catalog of health, finance and conversion calculators, and serves
both over an HTTP API with interactive WebSocket sessions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default "+config.DefaultPath+" if present)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newEvalCmd(a),
		newTUICmd(a),
		newServeCmd(a),
		newListCmd(a),
		newSearchCmd(a),
		newComputeCmd(a),
		newHistoryCmd(a),
		newExplainCmd(a),
		newSolveCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, level, err := logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.level = cfg, logger, level
	return nil
}

// watchPath returns the config file to watch for changes.
func (a *app) watchPath() string {
	if a.configPath != "" {
		return a.configPath
	}
	return config.DefaultPath
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
