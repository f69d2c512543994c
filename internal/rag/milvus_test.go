package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeEmbedder struct {
	dims  int
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	dims := f.dims
	if dims == 0 {
		dims = 4
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, dims)
	}
	return out, nil
}

// milvusFake simulates the /v2/vectordb HTTP API surface the store uses.
type milvusFake struct {
	t *testing.T

	hasCollection bool
	created       bool
	dropped       bool

	insertedRows []map[string]any

	// searchFilters records the filter expression of each search request
	// ("" when absent).
	searchFilters []string
	searchFail    func(filter string) bool
	searchHits    []map[string]any

	rowCount int64
}

func (m *milvusFake) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			m.t.Errorf("decode request to %s: %v", r.URL.Path, err)
		}

		write := func(data any) {
			json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": data})
		}

		switch strings.TrimPrefix(r.URL.Path, "/v2/vectordb") {
		case "/collections/has":
			write(map[string]any{"has": m.hasCollection})
		case "/collections/create":
			m.created = true
			m.hasCollection = true
			write(map[string]any{})
		case "/collections/drop":
			m.dropped = true
			m.hasCollection = false
			write(map[string]any{})
		case "/entities/insert":
			rows, _ := body["data"].([]any)
			for _, row := range rows {
				m.insertedRows = append(m.insertedRows, row.(map[string]any))
			}
			write(map[string]any{"insertCount": len(rows)})
		case "/entities/search":
			filter, _ := body["filter"].(string)
			m.searchFilters = append(m.searchFilters, filter)
			if m.searchFail != nil && m.searchFail(filter) {
				msg := "filter syntax error"
				if filter == "" {
					msg = "collection not loaded"
				}
				json.NewEncoder(w).Encode(map[string]any{"code": 1100, "message": msg})
				return
			}
			write(m.searchHits)
		case "/collections/get_stats":
			write(map[string]any{"rowCount": m.rowCount})
		case "/collections/list":
			write([]string{"rag_documents"})
		default:
			m.t.Errorf("unexpected request path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newMilvusTestStore(t *testing.T, fake *milvusFake) *MilvusStore {
	t.Helper()
	fake.t = t
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	store, err := NewMilvusStore(context.Background(), &MilvusConfig{
		BaseURL:    srv.URL,
		Collection: "rag_documents",
		VectorSize: 4,
	}, &fakeEmbedder{dims: 4})
	if err != nil {
		t.Fatalf("NewMilvusStore: %v", err)
	}
	return store
}

func TestMilvusCreatesMissingCollection(t *testing.T) {
	t.Parallel()

	fake := &milvusFake{hasCollection: false}
	newMilvusTestStore(t, fake)

	if !fake.created {
		t.Error("missing collection was not created")
	}
}

func TestMilvusReusesExistingCollection(t *testing.T) {
	t.Parallel()

	fake := &milvusFake{hasCollection: true}
	newMilvusTestStore(t, fake)

	if fake.created {
		t.Error("existing collection must be reused, not recreated")
	}
}

func TestMilvusRecreateCollection(t *testing.T) {
	t.Parallel()

	fake := &milvusFake{hasCollection: true}
	store := newMilvusTestStore(t, fake)

	if err := store.RecreateCollection(context.Background()); err != nil {
		t.Fatalf("RecreateCollection: %v", err)
	}
	if !fake.dropped || !fake.created {
		t.Errorf("dropped = %v, created = %v, want both", fake.dropped, fake.created)
	}
}

func TestMilvusInsert(t *testing.T) {
	t.Parallel()

	fake := &milvusFake{hasCollection: true}
	store := newMilvusTestStore(t, fake)

	records := []Record{
		{Text: "chunk one", Meta: ChunkMetadata{Source: "a.pdf", ChunkID: 0, Namespace: "ns", TotalChunks: 2}},
		{Text: "chunk two", Meta: ChunkMetadata{Source: "a.pdf", ChunkID: 1, Namespace: "ns", TotalChunks: 2}},
	}
	if err := store.Insert(context.Background(), records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if len(fake.insertedRows) != 2 {
		t.Fatalf("inserted %d rows, want 2", len(fake.insertedRows))
	}
	row := fake.insertedRows[0]
	if row["text"] != "chunk one" {
		t.Errorf("text = %v", row["text"])
	}
	meta := row["metadata"].(map[string]any)
	if meta["namespace"] != "ns" || meta["source"] != "a.pdf" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestMilvusInsertEmptyIsNoop(t *testing.T) {
	t.Parallel()

	fake := &milvusFake{hasCollection: true}
	store := newMilvusTestStore(t, fake)

	if err := store.Insert(context.Background(), nil); err != nil {
		t.Fatalf("Insert(nil): %v", err)
	}
	if len(fake.insertedRows) != 0 {
		t.Errorf("no rows should be inserted, got %d", len(fake.insertedRows))
	}
}

func TestMilvusSearchAppliesNamespaceFilter(t *testing.T) {
	t.Parallel()

	fake := &milvusFake{
		hasCollection: true,
		searchHits: []map[string]any{
			{"distance": 0.9, "text": "hit", "metadata": map[string]any{"source": "a.pdf"}},
		},
	}
	store := newMilvusTestStore(t, fake)

	results, err := store.Search(context.Background(), "query", 3, "farmer-42")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Text != "hit" || results[0].Score != 0.9 {
		t.Errorf("unexpected results: %+v", results)
	}

	want := `metadata["namespace"] == "farmer-42"`
	if len(fake.searchFilters) != 1 || fake.searchFilters[0] != want {
		t.Errorf("filters = %q, want [%q]", fake.searchFilters, want)
	}
}

func TestMilvusSearchFallsBackUnfiltered(t *testing.T) {
	t.Parallel()

	fake := &milvusFake{
		hasCollection: true,
		// Only filtered requests fail; the unfiltered retry succeeds.
		searchFail: func(filter string) bool { return filter != "" },
		searchHits: []map[string]any{
			{"distance": 0.5, "text": "fallback hit", "metadata": map[string]any{}},
		},
	}
	store := newMilvusTestStore(t, fake)

	results, err := store.Search(context.Background(), "query", 0, "farmer-42")
	if err != nil {
		t.Fatalf("Search with fallback: %v", err)
	}
	if len(results) != 1 || results[0].Text != "fallback hit" {
		t.Errorf("unexpected results: %+v", results)
	}
	if len(fake.searchFilters) != 2 || fake.searchFilters[1] != "" {
		t.Errorf("filters = %q, want filtered then unfiltered", fake.searchFilters)
	}
}

func TestMilvusSearchFallbackFailureSurfacesOriginalError(t *testing.T) {
	t.Parallel()

	fake := &milvusFake{
		hasCollection: true,
		searchFail:    func(string) bool { return true },
	}
	store := newMilvusTestStore(t, fake)

	_, err := store.Search(context.Background(), "query", 5, "farmer-42")
	if err == nil {
		t.Fatal("expected error when both searches fail")
	}
	if !strings.Contains(err.Error(), "filter syntax error") {
		t.Errorf("error = %v, want the original filtered-search failure", err)
	}
	if strings.Contains(err.Error(), "collection not loaded") {
		t.Errorf("error = %v, fallback failure must not replace the original", err)
	}
}

func TestMilvusSearchUnscopedDoesNotRetry(t *testing.T) {
	t.Parallel()

	fake := &milvusFake{
		hasCollection: true,
		searchFail:    func(string) bool { return true },
	}
	store := newMilvusTestStore(t, fake)

	if _, err := store.Search(context.Background(), "query", 5, ""); err == nil {
		t.Fatal("expected error")
	}
	if len(fake.searchFilters) != 1 {
		t.Errorf("unscoped search retried %d times, want a single attempt", len(fake.searchFilters)-1)
	}
}

func TestMilvusStats(t *testing.T) {
	t.Parallel()

	t.Run("existing collection", func(t *testing.T) {
		fake := &milvusFake{hasCollection: true, rowCount: 42}
		store := newMilvusTestStore(t, fake)

		stats, err := store.Stats(context.Background())
		if err != nil {
			t.Fatalf("Stats: %v", err)
		}
		if stats["points_count"] != int64(42) {
			t.Errorf("points_count = %v, want 42", stats["points_count"])
		}
		if stats["collection_name"] != "rag_documents" {
			t.Errorf("collection_name = %v", stats["collection_name"])
		}
	})

	t.Run("missing collection", func(t *testing.T) {
		fake := &milvusFake{hasCollection: true}
		store := newMilvusTestStore(t, fake)
		fake.hasCollection = false

		stats, err := store.Stats(context.Background())
		if err != nil {
			t.Fatalf("Stats: %v", err)
		}
		if stats != nil {
			t.Errorf("stats = %v, want nil for missing collection", stats)
		}
	})
}

func TestMilvusAuthHeader(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": map[string]any{"has": true}})
	}))
	defer srv.Close()

	_, err := NewMilvusStore(context.Background(), &MilvusConfig{
		BaseURL:    srv.URL,
		Token:      "root:Milvus",
		Collection: "rag_documents",
		VectorSize: 4,
	}, &fakeEmbedder{})
	if err != nil {
		t.Fatalf("NewMilvusStore: %v", err)
	}
	if want := "Bearer root:Milvus"; gotAuth != want {
		t.Errorf("Authorization = %q, want %q", gotAuth, want)
	}
}
