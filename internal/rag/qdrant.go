package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/agrisathi/agrisathi-go/internal/logging"
)

// namespaceField is the payload path indexed and filtered for namespace
// equality. Both backends use the same logical path.
const namespaceField = "metadata.namespace"

// QdrantConfig holds connection parameters for a Qdrant document store.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this
	// collection, fixed at collection-creation time.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements DocumentStore backed by a Qdrant instance.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// embedder converts chunk and query text into vectors.
	embedder Embedder

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore creates a QdrantStore and ensures the target collection
// exists, creating it with cosine distance if necessary.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig, embedder Embedder) (*QdrantStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("qdrant: embedder must not be nil")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	store := &QdrantStore{client: client, embedder: embedder, cfg: cfg}
	if err := store.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// EnsureCollection creates the collection if it does not already exist.
// An existing collection is reused without verifying its vector size —
// operators handle dimension changes via RecreateCollection.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}
	return s.createCollection(ctx)
}

// RecreateCollection drops the collection if present and creates it fresh
// with the currently configured vector size.
func (s *QdrantStore) RecreateCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.cfg.Collection); err != nil {
			return fmt.Errorf("qdrant: failed to drop collection %q: %w", s.cfg.Collection, err)
		}
		logging.FromContext(ctx).Info("qdrant: dropped existing collection",
			slog.String("collection", s.cfg.Collection))
	}
	return s.createCollection(ctx)
}

// createCollection creates the collection with cosine distance and a keyword
// index on the namespace payload field. Index creation failure is logged and
// non-fatal — search falls back to an unfiltered query if filtering fails.
func (s *QdrantStore) createCollection(ctx context.Context) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.cfg.Collection,
		FieldName:      namespaceField,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		logging.FromContext(ctx).Warn("qdrant: could not create namespace index",
			slog.String("collection", s.cfg.Collection),
			slog.Any("error", err),
		)
	}

	return nil
}

// Insert embeds all records in one batched call and upserts one point per
// record. Partial failures leave already-written points persisted; the first
// error propagates to the caller.
func (s *QdrantStore) Insert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}

	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("qdrant: embedding batch failed: %w", err)
	}
	if len(embeddings) != len(records) {
		return fmt.Errorf("qdrant: expected %d embeddings, got %d", len(records), len(embeddings))
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for i, r := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(r.ID()),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":     r.Text,
				"metadata": r.Meta.Map(),
			}),
		})
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}

	return nil
}

// Search embeds query once and runs a cosine top-k query, restricted to
// namespace when non-empty. A failed filtered query is retried once without
// the filter; if the retry also fails the original error is returned so the
// root cause is preserved.
func (s *QdrantStore) Search(ctx context.Context, query string, topK int, namespace string) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	embeddings, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("qdrant: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("qdrant: embedder returned empty result for query")
	}

	limit := uint64(topK)
	params := &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(embeddings[0]...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if namespace != "" {
		params.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(namespaceField, namespace),
			},
		}
	}

	points, err := s.client.Query(ctx, params)
	if err != nil {
		if namespace == "" {
			return nil, fmt.Errorf("qdrant: search failed: %w", err)
		}
		logging.FromContext(ctx).Warn("qdrant: filtered search failed, retrying without namespace filter",
			slog.String("namespace", namespace),
			slog.Any("error", err),
		)
		params.Filter = nil
		points, fallbackErr := s.client.Query(ctx, params)
		if fallbackErr != nil {
			// Surface the original filtered-search error, not the fallback's.
			return nil, fmt.Errorf("qdrant: search failed: %w", err)
		}
		return s.normalise(points), nil
	}

	return s.normalise(points), nil
}

// normalise converts Qdrant scored points into the backend-agnostic result
// shape, preserving the backend's own ranking order.
func (s *QdrantStore) normalise(points []*qdrant.ScoredPoint) []SearchResult {
	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		r := SearchResult{Score: p.Score, Metadata: map[string]any{}}
		if payload := p.Payload; payload != nil {
			if v, ok := payload["text"]; ok {
				r.Text = v.GetStringValue()
			}
			if v, ok := payload["metadata"]; ok {
				if st := v.GetStructValue(); st != nil {
					for k, f := range st.Fields {
						r.Metadata[k] = valueToAny(f)
					}
				}
			}
		}
		results = append(results, r)
	}
	return results
}

// valueToAny converts a Qdrant payload value into a plain Go value suitable
// for JSON serialisation.
func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		out := make(map[string]any, len(kind.StructValue.GetFields()))
		for k, f := range kind.StructValue.GetFields() {
			out[k] = valueToAny(f)
		}
		return out
	case *qdrant.Value_ListValue:
		vals := kind.ListValue.GetValues()
		out := make([]any, 0, len(vals))
		for _, f := range vals {
			out = append(out, valueToAny(f))
		}
		return out
	default:
		return nil
	}
}

// Stats returns the collection's point count and status, or nil if the
// collection does not exist.
func (s *QdrantStore) Stats(ctx context.Context) (map[string]any, error) {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if !exists {
		return nil, nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to get collection info: %w", err)
	}

	return map[string]any{
		"collection_name": s.cfg.Collection,
		"points_count":    info.GetPointsCount(),
		"status":          info.GetStatus().String(),
	}, nil
}

// Ping calls the Qdrant HealthCheck RPC.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
