package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTavilySearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tvly-test" {
			t.Errorf("Authorization = %q", got)
		}

		var req tavilySearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "onion mandi price nashik" {
			t.Errorf("query = %q", req.Query)
		}
		if req.MaxResults != 3 {
			t.Errorf("max_results = %d", req.MaxResults)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Nashik mandi rates", "url": "https://example.com/rates", "content": "Onion ₹2400/quintal", "score": 0.93},
			},
		})
	}))
	defer srv.Close()

	c := NewTavilyClient(&TavilyConfig{BaseURL: srv.URL, APIKey: "tvly-test"})
	results, err := c.Search(context.Background(), "onion mandi price nashik", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Title != "Nashik mandi rates" {
		t.Errorf("title = %q", results[0].Title)
	}
}

func TestTavilySearch_DefaultMaxResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavilySearchRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.MaxResults != 5 {
			t.Errorf("max_results = %d, want default 5", req.MaxResults)
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer srv.Close()

	c := NewTavilyClient(&TavilyConfig{BaseURL: srv.URL, APIKey: "k"})
	if _, err := c.Search(context.Background(), "q", 0); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
}

func TestTavilySearch_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"error": "invalid api key"})
	}))
	defer srv.Close()

	c := NewTavilyClient(&TavilyConfig{BaseURL: srv.URL, APIKey: "bad"})
	if _, err := c.Search(context.Background(), "q", 1); err == nil {
		t.Fatal("Search() expected error")
	}
}
