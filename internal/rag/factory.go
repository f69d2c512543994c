package rag

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"
)

// StoreBackend enumerates the supported document store backends.
type StoreBackend string

const (
	// BackendQdrant selects the Qdrant gRPC store.
	BackendQdrant StoreBackend = "qdrant"
	// BackendMilvus selects the Milvus HTTP store.
	BackendMilvus StoreBackend = "milvus"
)

// NewStoreFromEnv constructs the configured DocumentStore from environment
// variables. VECTOR_STORE selects the backend (default: qdrant); each backend
// reads its own connection settings.
//
//	Qdrant:  QDRANT_HOST (default: localhost), QDRANT_PORT (default: 6334),
//	         QDRANT_API_KEY, QDRANT_TLS
//	Milvus:  MILVUS_URI (default: http://localhost:19530), MILVUS_TOKEN
//	Shared:  COLLECTION_NAME (default: rag_documents)
//
// vectorSize is the embedding dimension the collection is created with; use
// embedder.DefaultDimensions to derive it from the embedding backend.
func NewStoreFromEnv(ctx context.Context, embedder Embedder, vectorSize int) (DocumentStore, error) {
	backend := StoreBackend(getEnvOrDefault("VECTOR_STORE", string(BackendQdrant)))
	collection := getEnvOrDefault("COLLECTION_NAME", "rag_documents")

	switch backend {
	case BackendQdrant:
		port, _ := strconv.Atoi(getEnvOrDefault("QDRANT_PORT", "6334"))
		return NewQdrantStore(ctx, &QdrantConfig{
			Host:       getEnvOrDefault("QDRANT_HOST", "localhost"),
			Port:       port,
			Collection: collection,
			VectorSize: uint64(vectorSize), //nolint:gosec // dimensions are bounded
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     os.Getenv("QDRANT_TLS") == "true",
		}, embedder)

	case BackendMilvus:
		return NewMilvusStore(ctx, &MilvusConfig{
			BaseURL:    getEnvOrDefault("MILVUS_URI", "http://localhost:19530"),
			Token:      os.Getenv("MILVUS_TOKEN"),
			Collection: collection,
			VectorSize: vectorSize,
			Timeout:    30 * time.Second,
		}, embedder)

	default:
		return nil, fmt.Errorf("rag: unknown vector store backend %q — valid values: qdrant, milvus", backend)
	}
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
