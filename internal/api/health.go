package api

import (
	"context"
	"net/http"

	"github.com/vintra/vintra/internal/log"
)

// Pinger reports database connectivity. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChunkCounter reports how many document chunks are indexed.
// *retrieval.Store satisfies it.
type ChunkCounter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	db     Pinger
	chunks ChunkCounter
	logger log.Logger
}

// NewHealthHandler creates a health handler. db and chunks back the
// readiness probe.
func NewHealthHandler(db Pinger, chunks ChunkCounter, logger log.Logger) *HealthHandler {
	return &HealthHandler{db: db, chunks: chunks, logger: logger}
}

// RegisterRoutes registers health routes on mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.liveness)
	mux.HandleFunc("GET /readyz", h.readiness)
}

// liveness returns 200 while the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness returns 200 once the database answers and the chunk index
// is reachable. An empty index is still ready; the engine answers
// without document context.
func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "database pool not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}
	if h.chunks != nil {
		if _, err := h.chunks.Count(r.Context()); err != nil {
			h.logger.Error("chunk index not reachable", "error", err)
			http.Error(w, "chunk index not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
