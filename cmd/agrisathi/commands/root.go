// Package commands defines all Cobra CLI commands for the agrisathi binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/agrisathi/agrisathi-go/internal/audit"
	"github.com/agrisathi/agrisathi-go/internal/config"
	"github.com/agrisathi/agrisathi-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agrisathi",
		Short: "AgriSathi — an AI farming companion for Indian agriculture",
		Long: `AgriSathi is a retrieval-augmented AI assistant for farmers.

It answers questions about crops, weather, soil health, market prices,
fertilisers, agricultural finance, and government schemes, grounding its
answers in documents you ingest into a vector store (Qdrant or Milvus)
and falling back to web search for live information.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.agrisathi/config.yaml).
See 'agrisathi --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.agrisathi/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewSearchCmd(),
		NewStatsCmd(),
		NewVersionCmd(),
	)

	return root
}
