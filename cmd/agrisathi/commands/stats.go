package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agrisathi/agrisathi-go/internal/logging"
)

// NewStatsCmd constructs the `agrisathi stats` command, which prints the
// vector store collection statistics as JSON.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print vector store collection statistics",
		Long: `Print statistics for the configured collection as JSON.

Reports point counts and collection status from the backend. Prints null
if the collection does not exist yet.

Examples:
  agrisathi stats
  VECTOR_STORE=milvus agrisathi stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			docStore, _, err := buildDocumentStore(ctx, log)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			defer docStore.Close()

			stats, err := docStore.Stats(ctx)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(stats); err != nil {
				return fmt.Errorf("stats: encode: %w", err)
			}
			return nil
		},
	}
}
