package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved computations",
	}
	cmd.PersistentFlags().StringVar(&user, "user", "", "history owner (required)")
	_ = cmd.MarkPersistentFlagRequired("user")

	var (
		limit  int
		cursor string
		asJSON bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved computations, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			page, err := store.List(ctx, user, limit, cursor)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(w).Encode(page)
			}
			if len(page.Entries) == 0 {
				fmt.Fprintln(w, "No saved computations.")
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCALCULATOR\tSAVED\tINPUTS")
			for _, e := range page.Entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					e.ID, e.CalculatorSlug, e.CreatedAt.Local().Format(time.DateTime), formatInputs(e.Inputs))
			}
			_ = tw.Flush()
			if page.NextCursor != "" {
				fmt.Fprintf(w, "more: --cursor %s\n", page.NextCursor)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 0, "page size (default from config)")
	listCmd.Flags().StringVar(&cursor, "cursor", "", "continue after a previous page")
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print the page as JSON")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one saved computation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Delete(ctx, user, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved computations of the user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.Clear(ctx, user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d computation(s)\n", n)
			return nil
		},
	}

	cmd.AddCommand(listCmd, deleteCmd, clearCmd)
	return cmd
}

// formatInputs renders inputs as sorted name=value pairs.
func formatInputs(in map[string]string) string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + in[k]
	}
	return strings.Join(parts, " ")
}
