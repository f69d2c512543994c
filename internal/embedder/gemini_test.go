package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeminiEmbedder_Embed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/text-embedding-004:batchEmbedContents" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}

		var req geminiEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Requests) != 2 {
			t.Fatalf("expected 2 requests, got %d", len(req.Requests))
		}
		if req.Requests[0].Model != "models/text-embedding-004" {
			t.Errorf("request model = %q", req.Requests[0].Model)
		}
		if req.Requests[0].OutputDimensionality != 4 {
			t.Errorf("outputDimensionality = %d", req.Requests[0].OutputDimensionality)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": []map[string]any{
				{"values": []float32{0.1, 0.2, 0.3, 0.4}},
				{"values": []float32{0.5, 0.6, 0.7, 0.8}},
			},
		})
	}))
	defer srv.Close()

	e := NewGeminiEmbedder(&GeminiConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Model:      "text-embedding-004",
		Dimensions: 4,
	})

	vecs, err := e.Embed(context.Background(), []string{"paddy irrigation", "soil testing"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(vecs))
	}
	if vecs[1][0] != 0.5 {
		t.Errorf("vecs[1][0] = %v", vecs[1][0])
	}
}

func TestGeminiEmbedder_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "API key not valid"},
		})
	}))
	defer srv.Close()

	e := NewGeminiEmbedder(&GeminiConfig{BaseURL: srv.URL, APIKey: "bad", Model: "text-embedding-004"})
	_, err := e.Embed(context.Background(), []string{"x"})
	if err == nil {
		t.Fatal("Embed() expected error")
	}
}

func TestGeminiEmbedder_CountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": []map[string]any{{"values": []float32{0.1}}},
		})
	}))
	defer srv.Close()

	e := NewGeminiEmbedder(&GeminiConfig{BaseURL: srv.URL, APIKey: "k", Model: "text-embedding-004"})
	_, err := e.Embed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("Embed() expected count mismatch error")
	}
}
