package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/euforicio/richmd/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "richmd %s %s/%s\n", buildinfo.Summary(), runtime.GOOS, runtime.GOARCH)
		return err
	},
}
