package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/toolserve/internal/hexcodec"
)

var hexdecodeCmd = &cobra.Command{
	Use:   "hexdecode <input> <output>",
	Short: "Decode a comma-separated hex byte dump into UTF-8 text",
	Long: `Reads a file of comma-separated hex bytes (for example "0x7b, 0x22, 0x61")
and writes the decoded UTF-8 text to the output file. Runs offline; no
server is started.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Debug("Decoding hex dump", "input", args[0], "output", args[1])
		n, err := hexcodec.DecodeFile(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Decoded %d bytes written to %s\n", n, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hexdecodeCmd)
}
