package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vintra/vintra/internal/chat"
	"github.com/vintra/vintra/internal/log"
	"github.com/vintra/vintra/internal/retrieval"
)

// DebugHandler exposes the retrieval pipeline directly so corpus and
// threshold tuning can be inspected without running a generation turn.
type DebugHandler struct {
	embedder chat.Embedder
	searcher chat.Searcher
	agg      *retrieval.Aggregator
	logger   log.Logger
}

// NewDebugHandler creates the retrieval inspection handler.
func NewDebugHandler(embedder chat.Embedder, searcher chat.Searcher, agg *retrieval.Aggregator, logger log.Logger) *DebugHandler {
	return &DebugHandler{embedder: embedder, searcher: searcher, agg: agg, logger: logger}
}

// RegisterRoutes registers debug routes on mux.
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/debug/retrieval", h.handleRetrieval)
}

// debugRequest tunes one inspection query. Zero values fall back to
// the search defaults.
type debugRequest struct {
	Query      string  `json:"query"`
	Threshold  float64 `json:"threshold,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	DocumentID string  `json:"documentId,omitempty"`
}

// debugResponse shows both the raw matches and what consolidation
// made of them.
type debugResponse struct {
	Chunks  []retrieval.ScoredChunk `json:"chunks"`
	Sources []retrieval.Source      `json:"sources"`
}

func (h *DebugHandler) handleRetrieval(w http.ResponseWriter, r *http.Request) {
	var req debugRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	embedding, err := h.embedder.Embed(r.Context(), req.Query)
	if err != nil {
		h.logger.Error("debug embedding failed", "error", err)
		writeError(w, http.StatusBadGateway, "embedding_failed", err.Error())
		return
	}

	var opts []retrieval.SearchOption
	if req.Threshold > 0 {
		opts = append(opts, retrieval.WithThreshold(req.Threshold))
	}
	if req.Limit > 0 {
		opts = append(opts, retrieval.WithLimit(req.Limit))
	}
	if req.DocumentID != "" {
		opts = append(opts, retrieval.WithDocumentFilter(req.DocumentID))
	}

	chunks, err := h.searcher.Search(r.Context(), embedding, opts...)
	if err != nil {
		h.logger.Error("debug search failed", "error", err)
		writeError(w, http.StatusBadGateway, "search_failed", err.Error())
		return
	}

	resp := debugResponse{
		Chunks:  chunks,
		Sources: h.agg.Aggregate(chunks),
	}
	if resp.Chunks == nil {
		resp.Chunks = []retrieval.ScoredChunk{}
	}
	writeJSON(w, http.StatusOK, resp)
}
