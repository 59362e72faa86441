package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gocalc"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gocalc", gocalc.Version())
		},
	}
}
