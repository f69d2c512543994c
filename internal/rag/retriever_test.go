package rag

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	DocumentStore
	results   []SearchResult
	err       error
	query     string
	topK      int
	namespace string
}

func (f *fakeStore) Search(_ context.Context, query string, topK int, namespace string) ([]SearchResult, error) {
	f.query = query
	f.topK = topK
	f.namespace = namespace
	return f.results, f.err
}

func TestNewRetrieverNilStore(t *testing.T) {
	t.Parallel()

	if _, err := NewRetriever(nil, 5); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestRetrievePassesThrough(t *testing.T) {
	t.Parallel()

	store := &fakeStore{results: []SearchResult{{Text: "chunk", Score: 0.8}}}
	r, err := NewRetriever(store, 5)
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}

	results, err := r.Retrieve(context.Background(), "soil ph", 3, "farmer-42")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 1 || results[0].Text != "chunk" {
		t.Errorf("unexpected results: %+v", results)
	}
	if store.query != "soil ph" || store.topK != 3 || store.namespace != "farmer-42" {
		t.Errorf("store got (%q, %d, %q)", store.query, store.topK, store.namespace)
	}
}

func TestRetrieveDefaultTopK(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	r, err := NewRetriever(store, 7)
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}

	if _, err := r.Retrieve(context.Background(), "q", 0, ""); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.topK != 7 {
		t.Errorf("topK = %d, want configured default 7", store.topK)
	}

	// A zero configured default falls back to the package default.
	r2, err := NewRetriever(store, 0)
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}
	if _, err := r2.Retrieve(context.Background(), "q", -1, ""); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.topK != 5 {
		t.Errorf("topK = %d, want package default 5", store.topK)
	}
}

func TestRetrieveStoreError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{err: errors.New("connection refused")}
	r, err := NewRetriever(store, 5)
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}

	if _, err := r.Retrieve(context.Background(), "q", 5, ""); err == nil {
		t.Fatal("expected store error to surface")
	}
}
