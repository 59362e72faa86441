package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sandrolain/gocalc/pkg/assistant"
)

func (a *app) assistant(ctx context.Context) (*assistant.Assistant, error) {
	asst, err := assistant.NewGemini(ctx, a.cfg.Assistant.APIKey, a.cfg.Assistant.Model,
		assistant.WithTimeout(a.cfg.Assistant.Timeout),
		assistant.WithLogger(a.logger.Named("assistant")),
	)
	if err != nil {
		return nil, err
	}
	if !asst.Enabled() {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY or assistant.api_key", assistant.ErrNotConfigured)
	}
	return asst, nil
}

func newExplainCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "explain <slug>",
		Short: "Explain the formula behind a calculator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := a.catalog(nil)
			if err != nil {
				return err
			}
			calc, err := cat.Get(args[0])
			if err != nil {
				return err
			}
			asst, err := a.assistant(ctx)
			if err != nil {
				return err
			}

			formula := calc.FormulaDescription
			if strings.TrimSpace(formula) == "" {
				formula = calc.Article
			}
			text, err := asst.Explain(ctx, calc.Title, formula)
			if err != nil {
				return err
			}
			return a.renderMarkdown(cmd.OutOrStdout(), "# "+calc.Title+"\n\n"+text, raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown without rendering")
	return cmd
}

func newSolveCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "solve <equation>",
		Short: "Solve an equation or word problem step by step",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			asst, err := a.assistant(ctx)
			if err != nil {
				return err
			}
			sol, err := asst.Solve(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			md := sol.Solution + "\n\n**Answer:** " + sol.Answer
			return a.renderMarkdown(cmd.OutOrStdout(), md, raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown without rendering")
	return cmd
}

// renderMarkdown writes md to w, rendered for the terminal unless raw is set.
// Rendering failures fall back to the raw text.
func (a *app) renderMarkdown(w io.Writer, md string, raw bool) error {
	if !raw {
		out, err := renderTerminal(md)
		if err == nil {
			_, err = io.WriteString(w, out)
			return err
		}
		a.logger.Debug("markdown rendering failed", zap.Error(err))
	}
	_, err := fmt.Fprintln(w, md)
	return err
}

func renderTerminal(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
