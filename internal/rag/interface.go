// Package rag defines the interfaces for retrieval-augmented generation
// components: document storage, similarity search, and embedding.
// Two concrete document stores exist (Qdrant, Milvus); both normalise their
// native result shapes into [SearchResult] so callers never depend on a
// specific backend.
package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SearchResult is the normalised shape returned to callers regardless of
// which backend produced it. Result lists are ordered by descending Score.
type SearchResult struct {
	// Text is the verbatim chunk text stored with the record.
	Text string `json:"text"`

	// Score is the backend-native similarity score (higher = more relevant).
	Score float32 `json:"score"`

	// Metadata is the flat map stored with the record at ingest time.
	Metadata map[string]any `json:"metadata"`
}

// ChunkMetadata is the metadata persisted with every stored chunk.
type ChunkMetadata struct {
	// Source is the originating filename.
	Source string `json:"source"`

	// ChunkID is the zero-based position of the chunk within its source file.
	ChunkID int `json:"chunk_id"`

	// FileSize is the length in bytes of the file's extracted text, which
	// differs from the raw file size for PDFs and non-UTF-8 encodings.
	FileSize int `json:"file_size"`

	// ChunkSize is the length in bytes of the chunk text.
	ChunkSize int `json:"chunk_size"`

	// Namespace is the optional logical partition for filtered retrieval.
	// Records stored without a namespace are not matched by namespace-filtered
	// queries in either backend.
	Namespace string `json:"namespace,omitempty"`

	// TotalChunks is the number of chunks produced from this source file.
	TotalChunks int `json:"total_chunks"`
}

// Map renders the metadata as the flat key→value map persisted with the
// record. The namespace key is omitted entirely when empty so that equality
// filters never match unscoped records.
func (m ChunkMetadata) Map() map[string]any {
	out := map[string]any{
		"source":       m.Source,
		"chunk_id":     m.ChunkID,
		"file_size":    m.FileSize,
		"chunk_size":   m.ChunkSize,
		"total_chunks": m.TotalChunks,
	}
	if m.Namespace != "" {
		out["namespace"] = m.Namespace
	}
	return out
}

// Record is one chunk to be embedded and persisted by a DocumentStore.
type Record struct {
	// Text is the chunk text. Embedded by the store's Insert call.
	Text string

	// Meta is the metadata persisted alongside the text.
	Meta ChunkMetadata
}

// ID returns a deterministic UUID for the record derived from its source,
// chunk position, and namespace. Re-ingesting the same file into the same
// namespace upserts rather than duplicating.
func (r Record) ID() string {
	key := fmt.Sprintf("%s#%d#%s", r.Meta.Source, r.Meta.ChunkID, r.Meta.Namespace)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentStore is the backend-agnostic adapter over one vector database
// collection. Implementations own the collection lifecycle and must be safe
// to call from multiple goroutines.
type DocumentStore interface {
	// EnsureCollection creates the configured collection if it does not exist
	// (cosine distance, the configured vector size, and a keyword index on
	// metadata.namespace). An existing collection is reused as-is; its
	// dimension is not verified against the configured size.
	EnsureCollection(ctx context.Context) error

	// RecreateCollection drops the collection if present and creates it fresh.
	// This is the operator path for schema/dimension changes — the store never
	// drops a collection on its own.
	RecreateCollection(ctx context.Context) error

	// Insert embeds all records in one batched Embed call and writes one
	// stored record per input. Insertion is not transactional: a failure
	// midway leaves previously written records persisted, and the underlying
	// error propagates to the caller.
	Insert(ctx context.Context, records []Record) error

	// Search embeds query once and returns the backend's native top-k ranking,
	// at most topK results ordered by descending score. A non-empty namespace
	// restricts results to records whose metadata.namespace equals it; if the
	// filtered query fails for any reason, the search is retried once without
	// the filter, and if that also fails the original error is returned.
	Search(ctx context.Context, query string, topK int, namespace string) ([]SearchResult, error)

	// Stats returns nil (and no error) when the collection does not exist;
	// otherwise a map with at least the record count and a status description.
	// Read-only, side-effect-free.
	Stats(ctx context.Context) (map[string]any, error)

	// Ping checks backend reachability for readiness probes.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Retriever is the caller-facing retrieval surface used by the agent and the
// HTTP search endpoint. Implementations must be safe to call from multiple
// goroutines.
type Retriever interface {
	// Retrieve returns the top-k most relevant results for query, optionally
	// restricted to namespace. The store's own filtered-then-unfiltered
	// fallback is the sole retry policy.
	Retrieve(ctx context.Context, query string, topK int, namespace string) ([]SearchResult, error)
}
