package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/types"
)

// errEvalFailed is returned after the diagnostic has been printed.
var errEvalFailed = errors.New("evaluation failed")

type evalFlags struct {
	angle  string
	locale string
	digits int
	json   bool
}

func newEvalCmd(a *app) *cobra.Command {
	f := &evalFlags{}
	cmd := &cobra.Command{
		Use:   "eval [expression]",
		Short: "Evaluate an expression",
		Long: `Evaluate an arithmetic expression and print the result.

Without arguments, expressions are read from stdin, one per line. All lines
share one memory register and angle mode.`,
		Example: `  gocalc eval "2 + 3 × 4"
  gocalc eval --angle rad "sin(π ÷ 2)"
  printf '1/3\n2^10\n' | gocalc eval --digits 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEval(cmd, args, f)
		},
	}
	cmd.Flags().StringVar(&f.angle, "angle", "", "angle mode: deg or rad (default from config)")
	cmd.Flags().StringVar(&f.locale, "locale", "", "locale for number formatting (default from config)")
	cmd.Flags().IntVar(&f.digits, "digits", -2, "fraction digits, -1 for as many as needed (default from config)")
	cmd.Flags().BoolVar(&f.json, "json", false, "print results and diagnostics as JSON")
	return cmd
}

func (a *app) runEval(cmd *cobra.Command, args []string, f *evalFlags) error {
	ctx := cmd.Context()
	eng, err := buildEngine(ctx, a.cfg.Engine, a.logger)
	if err != nil {
		return err
	}
	defer eng.Close(ctx)

	mode := a.cfg.Engine.DefaultAngleMode()
	if f.angle != "" {
		if mode, err = evaluator.ParseAngleMode(f.angle); err != nil {
			return err
		}
	}
	locale := a.cfg.Engine.Locale
	if f.locale != "" {
		locale = f.locale
	}
	digits := a.cfg.Engine.FractionDigits
	if f.digits >= -1 {
		digits = f.digits
	}

	evalCtx := evaluator.NewContextWithMode(mode)
	out := cmd.OutOrStdout()

	eval := func(input string) error {
		v, err := eng.ev.EvalString(ctx, input, evalCtx)
		if err != nil {
			printDiagnostic(out, input, err, f.json)
			return errEvalFailed
		}
		if f.json {
			return json.NewEncoder(out).Encode(map[string]any{
				"expression": input,
				"result":     v,
				"formatted":  evaluator.FormatNumber(v, locale, digits),
			})
		}
		fmt.Fprintln(out, evaluator.FormatNumber(v, locale, digits))
		return nil
	}

	if len(args) > 0 {
		return eval(strings.Join(args, " "))
	}

	var failed int
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := eval(line); err != nil {
			failed++
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d expression(s)", errEvalFailed, failed)
	}
	return nil
}

// printDiagnostic writes err for input, pointing at the offending rune
// when the position is known.
func printDiagnostic(w io.Writer, input string, err error, asJSON bool) {
	diag, ok := types.AsDiagnostic(err)
	if asJSON {
		var body any = err.Error()
		if ok {
			body = diag
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"expression": input, "error": body})
		return
	}
	if !ok {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", diag.Kind(), err)
	if diag.Position >= 0 && diag.Position <= len([]rune(input)) {
		fmt.Fprintf(w, "  %s\n  %s^\n", input, strings.Repeat(" ", diag.Position))
	}
}
