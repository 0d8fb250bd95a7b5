package main

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.Version=... -X main.GitSHA=...".
var (
	Version = "dev"
	GitSHA  = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s version:\t%s\n", AppName, Version)
			fmt.Fprintf(w, "git sha:\t%s\n", GitSHA)
			fmt.Fprintf(w, "go version:\t%s\n", runtime.Version())
			return w.Flush()
		},
	}
}
