// Package ingestion turns uploaded files into indexed vector-store records.
// The pipeline extracts text, chunks it, attaches per-chunk metadata and
// performs a single batched insert so a multi-file upload either lands
// together or fails together.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agrisathi/agrisathi-go/internal/chunker"
	"github.com/agrisathi/agrisathi-go/internal/extract"
	"github.com/agrisathi/agrisathi-go/internal/logging"
	"github.com/agrisathi/agrisathi-go/internal/rag"
)

// ErrNoContent is returned when no file in the batch produced any chunks —
// every file was empty, whitespace-only, or unreadable.
var ErrNoContent = errors.New("no ingestable content")

// File is a single named upload to ingest.
type File struct {
	Name string
	Data []byte
}

// Result summarises a completed ingestion run.
type Result struct {
	// ChunksIngested is the total number of chunks written to the store.
	ChunksIngested int `json:"ingested_chunks"`
	// FilesProcessed counts files that contributed at least one chunk.
	FilesProcessed int `json:"files_processed"`
	// Stats is the store's collection stats after the insert, or nil when
	// stats could not be fetched (the insert itself still succeeded).
	Stats map[string]any `json:"collection_stats,omitempty"`
}

// Pipeline ingests documents into a rag.DocumentStore.
type Pipeline struct {
	store   rag.DocumentStore
	chunker *chunker.Chunker
}

// New constructs an ingestion Pipeline over the given store and chunker.
func New(store rag.DocumentStore, c *chunker.Chunker) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("ingestion: nil document store")
	}
	if c == nil {
		return nil, fmt.Errorf("ingestion: nil chunker")
	}
	return &Pipeline{store: store, chunker: c}, nil
}

// Ingest extracts, chunks and indexes the given files under namespace (empty
// means unscoped). Unreadable files are skipped with a warning rather than
// failing the batch; the batch fails only when nothing at all could be
// ingested (ErrNoContent) or the store insert fails.
func (p *Pipeline) Ingest(ctx context.Context, files []File, namespace string) (*Result, error) {
	log := logging.FromContext(ctx)

	var records []rag.Record
	filesProcessed := 0
	for _, f := range files {
		text, err := extract.Extract(f.Name, f.Data)
		if err != nil {
			log.Warn("ingestion: skipping unreadable file",
				slog.String("file", f.Name),
				slog.String("error", err.Error()),
			)
			continue
		}

		chunks := p.chunker.Chunk(text)
		if len(chunks) == 0 {
			log.Warn("ingestion: file produced no chunks", slog.String("file", f.Name))
			continue
		}

		for i, chunk := range chunks {
			records = append(records, rag.Record{
				Text: chunk,
				Meta: rag.ChunkMetadata{
					Source:      f.Name,
					ChunkID:     i,
					FileSize:    len(text),
					ChunkSize:   len(chunk),
					Namespace:   namespace,
					TotalChunks: len(chunks),
				},
			})
		}
		filesProcessed++
	}

	if len(records) == 0 {
		return nil, ErrNoContent
	}

	if err := p.store.Insert(ctx, records); err != nil {
		return nil, fmt.Errorf("ingestion: insert failed: %w", err)
	}

	log.Info("ingestion: batch complete",
		slog.Int("files", filesProcessed),
		slog.Int("chunks", len(records)),
		slog.String("namespace", namespace),
	)

	result := &Result{
		ChunksIngested: len(records),
		FilesProcessed: filesProcessed,
	}

	// Stats are informational — a failure here must not fail the ingest.
	stats, err := p.store.Stats(ctx)
	if err != nil {
		log.Warn("ingestion: stats unavailable after insert", slog.String("error", err.Error()))
	} else {
		result.Stats = stats
	}

	return result, nil
}
