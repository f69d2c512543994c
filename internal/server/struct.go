package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agrisathi/agrisathi-go/internal/agent"
	"github.com/agrisathi/agrisathi-go/internal/ingestion"
	"github.com/agrisathi/agrisathi-go/internal/rag"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 0.0.0.0).
	Host string
	// Port is the TCP port to listen on (default: 8000).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// MaxUploadBytes caps the total size of a multipart ingest request.
	// Defaults to 64 MiB if zero.
	MaxUploadBytes int64
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics. If nil a fresh
	// registry is created (also serving /metrics), keeping tests hermetic.
	Registry *prometheus.Registry
}

// querier is the interface handleChat calls to stream a response.
// *agent.AdvisorAgent satisfies it; tests inject a fake.
type querier interface {
	Query(ctx context.Context, req *agent.QueryRequest, w io.Writer) error
}

// ingestor is the interface handleIngest calls to run the document pipeline.
// *ingestion.Pipeline satisfies it; tests inject a fake.
type ingestor interface {
	Ingest(ctx context.Context, files []ingestion.File, namespace string) (*ingestion.Result, error)
}

// Deps bundles the domain components the server exposes over HTTP.
type Deps struct {
	// Agent handles POST /api/chat. Required.
	Agent querier
	// Pipeline handles POST /api/ingest. Required.
	Pipeline ingestor
	// Retriever handles POST /api/search. Required.
	Retriever rag.Retriever
}

// Server is the HTTP server exposing the assistant's REST/SSE API.
type Server struct {
	agent      querier
	pipeline   ingestor
	retriever  rag.Retriever
	cfg        *Config
	httpServer *http.Server
	log        *slog.Logger
	pingers    []Pinger
	metrics    *serverMetrics
	registry   *prometheus.Registry
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	// Message is the user's natural language query.
	Message string `json:"message"`
	// Category selects the advisor persona (e.g. "crop", "weather").
	Category string `json:"category"`
	// Language is the BCP-47 response language tag (e.g. "hi-IN").
	Language string `json:"language"`
	// Namespace scopes retrieval and keys the conversation thread.
	Namespace string `json:"namespace"`
}

// searchRequest is the JSON body for POST /api/search.
type searchRequest struct {
	// Query is the natural-language search query.
	Query string `json:"query"`
	// TopK is the number of results to return (0 = server default).
	TopK int `json:"top_k"`
	// Namespace restricts results to a single tenant scope.
	Namespace string `json:"namespace"`
}

// searchResponse is the JSON response for POST /api/search.
type searchResponse struct {
	Results []rag.SearchResult `json:"results"`
}

// ingestResponse is the JSON response for POST /api/ingest.
type ingestResponse struct {
	Status         string         `json:"status"`
	IngestedChunks int            `json:"ingested_chunks"`
	FilesProcessed int            `json:"files_processed"`
	Stats          map[string]any `json:"collection_stats,omitempty"`
}

// errorResponse is the JSON error body for all /api endpoints.
type errorResponse struct {
	Error string `json:"error"`
}
