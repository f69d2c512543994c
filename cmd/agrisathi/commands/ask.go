package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agrisathi/agrisathi-go/internal/agent"
	"github.com/agrisathi/agrisathi-go/internal/logging"
	"github.com/agrisathi/agrisathi-go/internal/provider"
	"github.com/agrisathi/agrisathi-go/internal/rag"
)

// NewAskCmd constructs the `agrisathi ask` command, which sends a single
// question to the assistant and streams the answer to stdout.
func NewAskCmd() *cobra.Command {
	var category string
	var language string
	var namespace string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the farming assistant a question",
		Long: `Ask AgriSathi a natural language question.

The assistant searches the ingested knowledge base first and falls back to
web search for live information such as weather and mandi prices. The
--category flag selects a specialist persona; --language sets the response
language as a BCP-47 tag.

Examples:
  agrisathi ask "when should I sow wheat in Punjab?"
  agrisathi ask --category gov_schemes "am I eligible for PM-KISAN?"
  agrisathi ask --language hi-IN --namespace farmer-42 "मेरी मिट्टी के लिए कौन सा उर्वरक सही है?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise model provider: %w", err)
			}

			docStore, _, err := buildDocumentStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer docStore.Close()

			retriever, err := rag.NewRetriever(docStore, 0)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			advisor, err := agent.New(ctx, &agent.Config{
				ChatModel: chatModel,
				Tools:     buildTools(retriever, namespace, log),
			})
			if err != nil {
				return fmt.Errorf("ask: failed to initialise agent: %w", err)
			}

			cat, known := agent.ParseCategory(category)
			if !known && category != "" {
				fmt.Fprintf(os.Stderr, "warning: unknown category %q, using general advisor\n", category)
			}

			err = advisor.Query(ctx, &agent.QueryRequest{
				Message:   args[0],
				Category:  cat,
				Language:  language,
				Namespace: namespace,
			}, os.Stdout)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Advisor category (weather, crop, market, finance, soil, fertilizer, gov_schemes, other)")
	cmd.Flags().StringVarP(&language, "language", "l", "en-US", "Response language as a BCP-47 tag (e.g. hi-IN)")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace to scope knowledge base retrieval to")

	return cmd
}
