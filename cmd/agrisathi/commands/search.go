package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agrisathi/agrisathi-go/internal/logging"
	"github.com/agrisathi/agrisathi-go/internal/rag"
)

// NewSearchCmd constructs the `agrisathi search` command, which runs a
// similarity search against the vector store and prints the results.
func NewSearchCmd() *cobra.Command {
	var topK int
	var namespace string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the ingested knowledge base",
		Long: `Run a similarity search against the ingested document collection.

This queries the vector store directly, without involving the LLM. Useful
for checking what the assistant would retrieve for a given question.

Examples:
  agrisathi search "zinc deficiency in paddy"
  agrisathi search --top-k 10 --namespace farmer-42 "PM-KISAN eligibility"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			docStore, _, err := buildDocumentStore(ctx, log)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer docStore.Close()

			retriever, err := rag.NewRetriever(docStore, 0)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			results, err := retriever.Retrieve(ctx, args[0], topK, namespace)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if len(results) == 0 {
				fmt.Println("No results.")
				return nil
			}
			for i, res := range results {
				source, _ := res.Metadata["source"].(string)
				fmt.Printf("%d. [%.4f] %s\n%s\n\n", i+1, res.Score, source, res.Text)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "Number of results to return")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace to restrict the search to")

	return cmd
}
