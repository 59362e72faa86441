package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gocalc/pkg/catalog"
	"github.com/sandrolain/gocalc/pkg/formulas"
	"github.com/sandrolain/gocalc/pkg/history"
)

func newListCmd(a *app) *cobra.Command {
	var (
		category string
		featured bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the calculators in the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.catalog(nil)
			if err != nil {
				return err
			}
			var list []catalog.Calculator
			switch {
			case category != "":
				if _, ok := cat.Category(category); !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				list = cat.ByCategory(category)
			case featured:
				list = cat.Featured()
			default:
				list = cat.Calculators()
			}
			printCalculators(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list calculators of this category")
	cmd.Flags().BoolVar(&featured, "featured", false, "only list featured calculators")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search calculators by title and description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog(nil)
			if err != nil {
				return err
			}
			hits := cat.Search(strings.Join(args, " "))
			if len(hits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No calculators found.")
				return nil
			}
			printCalculators(cmd.OutOrStdout(), hits)
			return nil
		},
	}
}

func printCalculators(w io.Writer, list []catalog.Calculator) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tCATEGORY\tDESCRIPTION")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Slug, c.Category, c.ShortDescription)
	}
	_ = tw.Flush()
}

func newComputeCmd(a *app) *cobra.Command {
	var (
		user   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "compute <slug> [name=value...]",
		Short: "Run a calculator",
		Long: `Run a calculator from the catalog with the given inputs.

With --user, the computation is saved to that user's history.`,
		Example: `  gocalc compute bmi-calculator weight=70 height=175
  gocalc compute unit-converter value=1 from=km to=mi --user alice`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inputs, err := parseInputs(args[1:])
			if err != nil {
				return err
			}

			eng, err := buildEngine(ctx, a.cfg.Engine, a.logger)
			if err != nil {
				return err
			}
			defer eng.Close(ctx)
			cat, err := a.catalog(eng.ev)
			if err != nil {
				return err
			}

			out, err := cat.Compute(ctx, args[0], inputs)
			if err != nil {
				return err
			}

			var historyID string
			if user != "" {
				store, err := a.openHistory(ctx)
				if err != nil {
					return err
				}
				defer store.Close()
				e, err := store.Save(ctx, history.Entry{
					UserID:          user,
					CalculatorSlug:  out.Slug,
					CalculatorTitle: out.Title,
					Inputs:          out.Inputs,
					Results:         out.Values(),
				})
				if err != nil {
					return err
				}
				historyID = e.ID
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(w).Encode(struct {
					*catalog.Computation
					HistoryID string `json:"history_id,omitempty"`
				}{out, historyID})
			}
			fmt.Fprintln(w, out.Title)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, r := range out.Results {
				fmt.Fprintf(tw, "  %s\t%s %s\n", r.Label, r.Formatted, r.Unit)
			}
			_ = tw.Flush()
			if historyID != "" {
				fmt.Fprintf(w, "saved as %s\n", historyID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "save the computation to this user's history")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the computation as JSON")
	return cmd
}

// parseInputs turns name=value arguments into calculator inputs.
func parseInputs(args []string) (formulas.Inputs, error) {
	in := make(formulas.Inputs, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid input %q, want name=value", arg)
		}
		in[name] = value
	}
	return in, nil
}
