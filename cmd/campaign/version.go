package main

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipApp": "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			banner := figure.NewFigure("Campaign Tracker", "cybermedium", true)
			fmt.Fprintln(cmd.OutOrStdout(), banner.String())
			fmt.Fprintf(cmd.OutOrStdout(), "campaign %s\n", version)
		},
	}
}
