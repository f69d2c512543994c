package rag

import (
	"context"
	"fmt"
)

// DefaultRetriever implements Retriever as a thin pass-through over a
// DocumentStore. It adds no retry of its own — the store's single
// filtered-then-unfiltered fallback is the whole retry policy — and exists
// to present one caller-facing result shape regardless of backend.
type DefaultRetriever struct {
	// store performs the embedding and similarity search.
	store DocumentStore

	// defaultTopK is the number of results to return when the caller passes 0.
	defaultTopK int
}

// NewRetriever constructs a DefaultRetriever over the given DocumentStore.
// defaultTopK sets the fallback result count when Retrieve is called with
// topK <= 0.
func NewRetriever(store DocumentStore, defaultTopK int) (*DefaultRetriever, error) {
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &DefaultRetriever{store: store, defaultTopK: defaultTopK}, nil
}

// Retrieve returns the top-k most relevant results for query, restricted to
// namespace when non-empty.
func (r *DefaultRetriever) Retrieve(ctx context.Context, query string, topK int, namespace string) ([]SearchResult, error) {
	if topK <= 0 {
		topK = r.defaultTopK
	}

	results, err := r.store.Search(ctx, query, topK, namespace)
	if err != nil {
		return nil, fmt.Errorf("rag: search failed: %w", err)
	}

	return results, nil
}
