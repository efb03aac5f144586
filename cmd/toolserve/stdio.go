package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/toolserve"
)

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve MCP over standard input/output",
	Long: `Runs the tool server on Stdin/Stdout for clients that spawn it as a
subprocess. Logs go to Stderr so they never corrupt the JSON-RPC stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.SetOutput(os.Stderr)

		srv, err := toolserve.New(serverOptions(cfg, logger)...)
		if err != nil {
			return err
		}
		bridge, err := srv.MCP()
		if err != nil {
			return err
		}

		logger.Info("Starting MCP server (stdio)", "tools", srv.Registry.Len())
		return bridge.ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(stdioCmd)
}
