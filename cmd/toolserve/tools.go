package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/toolserve"
	"github.com/aretw0/toolserve/internal/presentation/tui"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := toolserve.New(serverOptions(cfg, logger)...)
		if err != nil {
			return err
		}
		md := tui.CatalogMarkdown(srv.Dispatcher.Tools())

		out := cmd.OutOrStdout()
		fd := int(os.Stdout.Fd())
		if out != os.Stdout || !term.IsTerminal(fd) {
			fmt.Fprint(out, md)
			return nil
		}

		width, _, err := term.GetSize(fd)
		if err != nil {
			width = 0
		}
		rendered, err := tui.NewRenderer(width)(md)
		if err != nil {
			rendered = md
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
