package main

import (
	"github.com/spf13/cobra"

	"github.com/feddict/feddict/internal/version"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			a.printf("feddict-cli %s\n", version.Get().String())
		},
	}
}
