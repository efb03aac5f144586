package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/toolserve"
	"github.com/aretw0/toolserve/internal/config"
	"github.com/aretw0/toolserve/internal/logging"
)

var (
	cfgFile string
	cfg     = config.Default()
	logger  = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "toolserve",
	Short: "toolserve is a minimal MCP tool server",
	Long: `toolserve publishes a registry of typed tools over the Model Context Protocol.
Clients discover the tools and invoke them over stateless streamable HTTP,
session-bound HTTP or stdio.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("log-format") {
			loaded.LogFormat, _ = cmd.Flags().GetString("log-format")
		}
		if cmd.Flags().Changed("tools-file") {
			loaded.ToolsFile, _ = cmd.Flags().GetString("tools-file")
		}

		level, err := logging.ParseLevel(loaded.LogLevel)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(level, cfg.LogFormat)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("tools-file", "", "YAML or JSON file declaring command-backed tools")
}

// serverOptions are the toolserve options every command shares.
func serverOptions(c config.Config, logger *slog.Logger) []toolserve.Option {
	opts := []toolserve.Option{
		toolserve.WithLogger(logger),
		toolserve.WithMaxMessageSize(c.MaxMessageSize),
	}
	if c.ToolsFile != "" {
		opts = append(opts, toolserve.WithTools(toolserve.ProcessTools(c.ToolsFile)))
	}
	return opts
}
