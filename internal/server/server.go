// Package server implements the HTTP server that exposes the assistant over
// a REST/SSE API: document ingestion, vector search, streaming chat, health
// and readiness probes, and Prometheus metrics.
// The server is started by the `agrisathi serve` CLI command.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrisathi/agrisathi-go/internal/agent"
	"github.com/agrisathi/agrisathi-go/internal/ingestion"
	"github.com/agrisathi/agrisathi-go/internal/logging"
	"github.com/agrisathi/agrisathi-go/internal/rag"
)

// defaultMaxUploadBytes caps multipart ingest requests at 64 MiB.
const defaultMaxUploadBytes = 64 << 20

// New constructs a Server from the provided dependencies and config.
func New(deps *Deps, cfg *Config) (*Server, error) {
	if deps == nil || deps.Agent == nil || deps.Pipeline == nil || deps.Retriever == nil {
		return nil, fmt.Errorf("server: agent, pipeline and retriever must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must be long enough for streaming responses.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		agent:     deps.Agent,
		pipeline:  deps.Pipeline,
		retriever: deps.Retriever,
		cfg:       cfg,
		log:       log,
		pingers:   cfg.Pingers,
		metrics:   newServerMetrics(registry),
		registry:  registry,
	}

	if cfg.APIKey == "" {
		log.Warn("server: AGRISATHI_API_KEY not set, API authentication disabled")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	api := http.NewServeMux()
	api.HandleFunc("POST /api/ingest", s.handleIngest)
	api.HandleFunc("POST /api/search", s.handleSearch)
	api.HandleFunc("POST /api/chat", s.handleChat)

	mux := http.NewServeMux()
	// Protected, rate-limited API routes.
	mux.Handle("/api/", authMiddleware(cfg.APIKey, rl.middleware(api)))
	// Probes and metrics stay unauthenticated so orchestrators can reach them.
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the server's root handler; used by httptest in unit tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleIngest handles POST /api/ingest. It accepts a multipart form with one
// or more "files" parts and an optional "namespace" field, runs the ingestion
// pipeline, and returns chunk/file counts plus collection stats.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		writeError(w, http.StatusBadRequest, "at least one file is required")
		return
	}
	namespace := r.FormValue("namespace")

	files := make([]ingestion.File, 0, len(parts))
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot open upload %q", part.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot read upload %q", part.Filename))
			return
		}
		files = append(files, ingestion.File{Name: part.Filename, Data: data})
	}

	result, err := s.pipeline.Ingest(r.Context(), files, namespace)
	if err != nil {
		if errors.Is(err, ingestion.ErrNoContent) {
			writeError(w, http.StatusBadRequest, "no ingestable content in uploaded files")
			return
		}
		log.Error("ingest failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	s.metrics.ingestChunksTotal.Add(float64(result.ChunksIngested))
	s.metrics.ingestDurationSeconds.Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, ingestResponse{
		Status:         "success",
		IngestedChunks: result.ChunksIngested,
		FilesProcessed: result.FilesProcessed,
		Stats:          result.Stats,
	})
}

// handleSearch handles POST /api/search: embeds the query, searches the
// document store, and returns normalised results.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := s.retriever.Retrieve(r.Context(), req.Query, req.TopK, req.Namespace)
	if err != nil {
		s.metrics.searchRequestsTotal.WithLabelValues("error").Inc()
		log.Error("search failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	s.metrics.searchRequestsTotal.WithLabelValues("ok").Inc()
	if results == nil {
		results = []rag.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// handleChat handles POST /api/chat requests. It streams the agent's response
// using Server-Sent Events (SSE) so the client can render tokens as they arrive.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	category, known := agent.ParseCategory(req.Category)
	if !known && req.Category != "" {
		logging.FromContext(r.Context()).Warn("chat: unknown category, using general advisor",
			slog.String("category", req.Category),
		)
	}
	language := req.Language
	if language == "" {
		language = "en-US"
	}

	// Set SSE headers so the client receives a streaming response.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	s.metrics.chatActiveStreams.Inc()
	defer s.metrics.chatActiveStreams.Dec()

	sw := &sseWriter{w: w, flusher: flusher}
	err := s.agent.Query(r.Context(), &agent.QueryRequest{
		Message:   req.Message,
		Category:  category,
		Language:  language,
		Namespace: req.Namespace,
		SessionID: req.Namespace,
	}, sw)
	if err != nil {
		s.metrics.chatRequestsTotal.WithLabelValues("error").Inc()
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", err.Error())
		flusher.Flush()
		return
	}

	s.metrics.chatRequestsTotal.WithLabelValues("ok").Inc()
	// Signal stream completion.
	fmt.Fprintf(w, "event: done\ndata: [DONE]\n\n")
	flusher.Flush()
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// sseWriter wraps an http.ResponseWriter to emit Server-Sent Event data frames.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// Write formats p as one or more SSE data lines and flushes to the client.
// Each newline in p is prefixed with "data: " so multi-line chunks never
// break the SSE frame boundary.
func (s *sseWriter) Write(p []byte) (n int, err error) {
	chunk := strings.TrimRight(string(bytes.Clone(p)), "\n")
	lines := strings.Split(chunk, "\n")
	var buf strings.Builder
	for _, line := range lines {
		buf.WriteString("data: ")
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
	if _, err = fmt.Fprint(s.w, buf.String()); err != nil {
		return 0, err
	}
	s.flusher.Flush()
	return len(p), nil
}
