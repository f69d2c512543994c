package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agrisathi/agrisathi-go/internal/logging"
)

// MilvusConfig holds connection parameters for a Milvus document store
// reached over its HTTP v2 API.
type MilvusConfig struct {
	// BaseURL is the Milvus server base URL (default: http://localhost:19530).
	BaseURL string

	// Token is the optional bearer token ("user:password" or an API key for
	// managed clusters).
	Token string

	// Collection is the Milvus collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this
	// collection, fixed at collection-creation time.
	VectorSize int

	// Timeout is the per-request HTTP timeout (default: 30s).
	Timeout time.Duration
}

// MilvusStore implements DocumentStore backed by a Milvus instance.
// It speaks the /v2/vectordb HTTP API directly; collections are created with
// the quick-setup schema (auto-id primary key, one vector field, dynamic
// fields enabled) so text and metadata ride along as dynamic fields.
type MilvusStore struct {
	// baseURL is the server base URL without a trailing slash.
	baseURL string

	// token is the optional bearer token.
	token string

	// embedder converts chunk and query text into vectors.
	embedder Embedder

	// cfg holds the resolved configuration for this store.
	cfg *MilvusConfig

	// client is the shared HTTP client.
	client *http.Client
}

// milvusEnvelope is the response wrapper used by every /v2/vectordb endpoint.
// A non-zero Code indicates a server-side failure even when HTTP status is 200.
type milvusEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewMilvusStore creates a MilvusStore and ensures the target collection
// exists, creating it with cosine distance if necessary.
func NewMilvusStore(ctx context.Context, cfg *MilvusConfig, embedder Embedder) (*MilvusStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("milvus: embedder must not be nil")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:19530"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	store := &MilvusStore{
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		embedder: embedder,
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
	if err := store.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// post sends a JSON body to one /v2/vectordb endpoint and decodes the
// response envelope, returning the raw data payload.
func (s *MilvusStore) post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("milvus: marshal request: %w", err)
	}

	url := s.baseURL + "/v2/vectordb" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("milvus: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("milvus: request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	var env milvusEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("milvus: decode response from %s: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("milvus: %s returned HTTP %d: %s", endpoint, resp.StatusCode, env.Message)
	}
	if env.Code != 0 {
		return nil, fmt.Errorf("milvus: %s failed with code %d: %s", endpoint, env.Code, env.Message)
	}

	return env.Data, nil
}

// hasCollection reports whether the configured collection exists.
func (s *MilvusStore) hasCollection(ctx context.Context) (bool, error) {
	data, err := s.post(ctx, "/collections/has", map[string]any{
		"collectionName": s.cfg.Collection,
	})
	if err != nil {
		return false, err
	}
	var out struct {
		Has bool `json:"has"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return false, fmt.Errorf("milvus: decode has-collection response: %w", err)
	}
	return out.Has, nil
}

// EnsureCollection creates the collection if it does not already exist.
// An existing collection is reused without verifying its vector size —
// operators handle dimension changes via RecreateCollection.
func (s *MilvusStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.hasCollection(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.createCollection(ctx)
}

// RecreateCollection drops the collection if present and creates it fresh
// with the currently configured vector size.
func (s *MilvusStore) RecreateCollection(ctx context.Context) error {
	exists, err := s.hasCollection(ctx)
	if err != nil {
		return err
	}
	if exists {
		if _, err := s.post(ctx, "/collections/drop", map[string]any{
			"collectionName": s.cfg.Collection,
		}); err != nil {
			return fmt.Errorf("milvus: failed to drop collection %q: %w", s.cfg.Collection, err)
		}
		logging.FromContext(ctx).Info("milvus: dropped existing collection",
			slog.String("collection", s.cfg.Collection))
	}
	return s.createCollection(ctx)
}

// createCollection quick-creates the collection: auto-id primary key, one
// cosine vector field, dynamic fields enabled for text and metadata.
func (s *MilvusStore) createCollection(ctx context.Context) error {
	_, err := s.post(ctx, "/collections/create", map[string]any{
		"collectionName": s.cfg.Collection,
		"dimension":      s.cfg.VectorSize,
		"metricType":     "COSINE",
	})
	if err != nil {
		return fmt.Errorf("milvus: failed to create collection %q: %w", s.cfg.Collection, err)
	}
	return nil
}

// Insert embeds all records in one batched call and inserts one row per
// record. Partial failures leave already-written rows persisted; the first
// error propagates to the caller.
func (s *MilvusStore) Insert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}

	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("milvus: embedding batch failed: %w", err)
	}
	if len(embeddings) != len(records) {
		return fmt.Errorf("milvus: expected %d embeddings, got %d", len(records), len(embeddings))
	}

	rows := make([]map[string]any, 0, len(records))
	for i, r := range records {
		rows = append(rows, map[string]any{
			"vector":   embeddings[i],
			"text":     r.Text,
			"metadata": r.Meta.Map(),
		})
	}

	if _, err := s.post(ctx, "/entities/insert", map[string]any{
		"collectionName": s.cfg.Collection,
		"data":           rows,
	}); err != nil {
		return fmt.Errorf("milvus: insert failed: %w", err)
	}

	return nil
}

// milvusHit is one scored row returned by /entities/search. Dynamic output
// fields (text, metadata) appear as top-level keys alongside the distance.
type milvusHit struct {
	Distance float32        `json:"distance"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// Search embeds query once and runs a cosine top-k search, restricted to
// namespace when non-empty via a dynamic-field filter expression. A failed
// filtered query is retried once without the filter; if the retry also fails
// the original error is returned so the root cause is preserved.
func (s *MilvusStore) Search(ctx context.Context, query string, topK int, namespace string) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	embeddings, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("milvus: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("milvus: embedder returned empty result for query")
	}

	body := map[string]any{
		"collectionName": s.cfg.Collection,
		"data":           [][]float32{embeddings[0]},
		"limit":          topK,
		"outputFields":   []string{"text", "metadata"},
	}
	if namespace != "" {
		body["filter"] = fmt.Sprintf(`metadata["namespace"] == %q`, namespace)
	}

	data, err := s.post(ctx, "/entities/search", body)
	if err != nil {
		if namespace == "" {
			return nil, fmt.Errorf("milvus: search failed: %w", err)
		}
		logging.FromContext(ctx).Warn("milvus: filtered search failed, retrying without namespace filter",
			slog.String("namespace", namespace),
			slog.Any("error", err),
		)
		delete(body, "filter")
		data, fallbackErr := s.post(ctx, "/entities/search", body)
		if fallbackErr != nil {
			// Surface the original filtered-search error, not the fallback's.
			return nil, fmt.Errorf("milvus: search failed: %w", err)
		}
		return s.normalise(data)
	}

	return s.normalise(data)
}

// normalise converts the raw search payload into the backend-agnostic result
// shape, preserving the backend's own ranking order.
func (s *MilvusStore) normalise(data json.RawMessage) ([]SearchResult, error) {
	var hits []milvusHit
	if err := json.Unmarshal(data, &hits); err != nil {
		return nil, fmt.Errorf("milvus: decode search response: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		meta := h.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		results = append(results, SearchResult{
			Text:     h.Text,
			Score:    h.Distance,
			Metadata: meta,
		})
	}
	return results, nil
}

// Stats returns the collection's row count, or nil if the collection does
// not exist.
func (s *MilvusStore) Stats(ctx context.Context) (map[string]any, error) {
	exists, err := s.hasCollection(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	data, err := s.post(ctx, "/collections/get_stats", map[string]any{
		"collectionName": s.cfg.Collection,
	})
	if err != nil {
		return nil, fmt.Errorf("milvus: failed to get collection stats: %w", err)
	}

	var out struct {
		RowCount int64 `json:"rowCount"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("milvus: decode stats response: %w", err)
	}

	return map[string]any{
		"collection_name": s.cfg.Collection,
		"points_count":    out.RowCount,
		"status":          "loaded",
	}, nil
}

// Ping lists collections as a cheap reachability probe — Milvus has no
// dedicated health RPC on the HTTP API.
func (s *MilvusStore) Ping(ctx context.Context) error {
	if _, err := s.post(ctx, "/collections/list", map[string]any{}); err != nil {
		return fmt.Errorf("milvus: health check failed: %w", err)
	}
	return nil
}

// Close releases resources. The HTTP client holds no persistent connection
// state worth tearing down, so Close is a no-op that exists to satisfy
// DocumentStore.
func (s *MilvusStore) Close() error { return nil }
