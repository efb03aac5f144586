package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/toolserve"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of toolserve",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "toolserve version %s\n", toolserve.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
