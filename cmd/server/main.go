// Command jobingest runs the ingestion MCP server or a one-shot ingestion.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/jobingest/internal/config"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

const version = "0.2.0"

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "jobingest",
		Short:         "Job posting ingestion across multiple providers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().String("config", "", "YAML config file (overrides CONFIG_FILE)")
	root.PersistentFlags().Bool("synthetic", false, "use synthetic adapters instead of the live providers")

	root.AddCommand(
		newServeCommand(),
		newIngestCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "jobingest version %s\n", version)
			},
		},
	)
	return root
}

// loadConfig applies the persistent flags on top of config.Load
func loadConfig(cmd *cobra.Command) (config.Config, *logging.Logger, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv("CONFIG_FILE", path); err != nil {
			return config.Config{}, nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if synthetic, _ := cmd.Flags().GetBool("synthetic"); synthetic {
		cfg.Mode = config.ModeSynthetic
	}

	return cfg, logging.New(cfg.LogLevel), nil
}
