package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/cloudwego/eino/components/tool"

	"github.com/agrisathi/agrisathi-go/internal/chunker"
	"github.com/agrisathi/agrisathi-go/internal/embedder"
	"github.com/agrisathi/agrisathi-go/internal/rag"
	"github.com/agrisathi/agrisathi-go/internal/tools"
	"github.com/agrisathi/agrisathi-go/internal/websearch"
)

// buildDocumentStore validates the embedding configuration, constructs the
// embedder, and opens the configured vector store. The returned name is the
// backend label ("qdrant", "milvus") used for logging and readiness probes.
func buildDocumentStore(ctx context.Context, log *slog.Logger) (rag.DocumentStore, string, error) {
	if err := embedder.Validate(log); err != nil {
		return nil, "", err
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialise embedder: %w", err)
	}
	embBackend := embedder.ResolveBackend()
	log.Info("embedder initialised", slog.String("provider", embBackend))

	docStore, err := rag.NewStoreFromEnv(ctx, emb, embedder.DefaultDimensions(embBackend))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open vector store: %w", err)
	}

	storeName := getEnvOrDefault("VECTOR_STORE", "qdrant")
	log.Info("vector store ready",
		slog.String("backend", storeName),
		slog.String("collection", getEnvOrDefault("COLLECTION_NAME", "rag_documents")),
	)
	return docStore, storeName, nil
}

// buildChunker constructs the text chunker from CHUNK_SIZE / CHUNK_OVERLAP
// environment overrides, falling back to the package defaults.
func buildChunker() (*chunker.Chunker, error) {
	size := getEnvInt("CHUNK_SIZE", chunker.DefaultChunkSize)
	overlap := getEnvInt("CHUNK_OVERLAP", chunker.DefaultChunkOverlap)
	return chunker.New(size, overlap)
}

// buildTools constructs the list of Eino-compatible tools to register with
// the agent. Web search requires TAVILY_API_KEY and is omitted gracefully
// when the key is absent.
func buildTools(retriever rag.Retriever, namespace string, log *slog.Logger) []tool.BaseTool {
	toolList := []tool.BaseTool{
		tools.NewKnowledgeBaseTool(retriever, namespace, 0),
	}

	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		searcher := websearch.NewTavilyClient(&websearch.TavilyConfig{APIKey: key})
		toolList = append(toolList, tools.NewWebSearchTool(searcher, 0))
	} else {
		log.Warn("web search disabled", slog.String("reason", "TAVILY_API_KEY not set"))
	}

	return toolList
}

// resolveListenAddr applies the SERVER_HOST / SERVER_PORT environment values
// (set directly or via the YAML config layer) when the corresponding flag was
// not given on the command line. Explicit flags always win.
func resolveListenAddr(host string, hostSet bool, port int, portSet bool) (string, int) {
	if !hostSet {
		host = getEnvOrDefault("SERVER_HOST", host)
	}
	if !portSet {
		port = getEnvInt("SERVER_PORT", port)
	}
	return host, port
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the named environment variable parsed as an int, or
// fallback if unset or unparsable.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
