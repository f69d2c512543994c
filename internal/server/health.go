package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/agrisathi/agrisathi-go/internal/logging"
)

// probeTimeout bounds how long each readiness probe may take.
const probeTimeout = 5 * time.Second

// readyCheck is the per-dependency result within a readiness response.
type readyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// readyResponse is the body of GET /api/ready.
type readyResponse struct {
	Status string       `json:"status"`
	Checks []readyCheck `json:"checks"`
}

// handleReady handles GET /api/ready. It probes every configured dependency
// and returns 503 if any of them fails, so orchestrators hold traffic until
// the vector store is actually reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := readyResponse{Status: "ready", Checks: make([]readyCheck, 0, len(s.pingers))}
	status := http.StatusOK

	for _, p := range s.pingers {
		check := readyCheck{Name: p.Name(), Status: "ok"}

		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		if err := p.Ping(ctx); err != nil {
			check.Status = "failed"
			check.Error = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			log.Warn("readiness probe failed",
				slog.String("dependency", p.Name()),
				slog.String("error", err.Error()),
			)
		}
		cancel()

		resp.Checks = append(resp.Checks, check)
	}

	writeJSON(w, status, resp)
}
