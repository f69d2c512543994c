package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agrisathi/agrisathi-go/internal/ingestion"
	"github.com/agrisathi/agrisathi-go/internal/logging"
)

// NewIngestCmd constructs the `agrisathi ingest` command, which chunks local
// documents and indexes them into the vector store.
func NewIngestCmd() *cobra.Command {
	var filePaths []string
	var namespace string
	var recreate bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest documents into the vector store",
		Long: `Chunk and index local documents (PDF or plain text) into the vector store.

Ingested documents feed the knowledge_base_search tool the assistant uses
to ground its answers. The optional namespace scopes documents to a single
tenant; searches within that namespace only see its documents.

Required environment variables:
  VECTOR_STORE         Backend: qdrant, milvus (default: qdrant)
  COLLECTION_NAME      Collection name (default: rag_documents)
  QDRANT_* / MILVUS_*  Backend connection settings (see README)
  MODEL_PROVIDER       Embedding backend: gemini, ollama, openai, azure (default: gemini)
  EMBEDDING_*          Provider-specific overrides (see README)

Examples:
  agrisathi ingest --file crop_advisory.pdf
  agrisathi ingest --file soil.pdf --file schemes.pdf --namespace farmer-42
  agrisathi ingest --file advisory.pdf --recreate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			if len(filePaths) == 0 {
				return fmt.Errorf("ingest: at least one --file is required")
			}

			docStore, _, err := buildDocumentStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer docStore.Close()

			if recreate {
				log.Info("recreating collection")
				if err := docStore.RecreateCollection(ctx); err != nil {
					return fmt.Errorf("ingest: failed to recreate collection: %w", err)
				}
			} else if err := docStore.EnsureCollection(ctx); err != nil {
				return fmt.Errorf("ingest: failed to ensure collection: %w", err)
			}

			textChunker, err := buildChunker()
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			pipeline, err := ingestion.New(docStore, textChunker)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			files := make([]ingestion.File, 0, len(filePaths))
			for _, p := range filePaths {
				data, err := os.ReadFile(p)
				if err != nil {
					return fmt.Errorf("ingest: cannot read %s: %w", p, err)
				}
				files = append(files, ingestion.File{Name: filepath.Base(p), Data: data})
			}

			log.Info("starting ingestion",
				slog.Int("files", len(files)),
				slog.String("namespace", namespace),
			)

			result, err := pipeline.Ingest(logging.WithLogger(ctx, log), files, namespace)
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			log.Info("ingestion complete",
				slog.Int("ingested_chunks", result.ChunksIngested),
				slog.Int("files_processed", result.FilesProcessed),
			)
			if result.Stats != nil {
				log.Info("collection stats", slog.Any("stats", result.Stats))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&filePaths, "file", "f", nil, "Document to ingest (repeatable)")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace to scope the documents to")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "Drop and recreate the collection before ingesting")

	return cmd
}
