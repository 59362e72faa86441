package main

import (
	"github.com/spf13/cobra"

	"github.com/sandrolain/gocalc/internal/tui"
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/session"
)

func newTUICmd(a *app) *cobra.Command {
	var angle string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive calculator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, err := buildEngine(ctx, a.cfg.Engine, a.logger)
			if err != nil {
				return err
			}
			defer eng.Close(ctx)

			mode := a.cfg.Engine.DefaultAngleMode()
			if angle != "" {
				if mode, err = evaluator.ParseAngleMode(angle); err != nil {
					return err
				}
			}
			sess := session.New(
				session.WithEvaluator(eng.ev),
				session.WithAngleMode(mode),
				session.WithLogger(a.logger.Named("session")),
			)
			return tui.Run(ctx, sess)
		},
	}
	cmd.Flags().StringVar(&angle, "angle", "", "initial angle mode: deg or rad")
	return cmd
}
