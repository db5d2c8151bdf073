package main

import (
	"fmt"

	"github.com/auvred/regbridge"
	"github.com/spf13/cobra"
)

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "regbridge %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  engine: %s\n", regbridge.EngineVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
