package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vintra/vintra/internal/chat"
	"github.com/vintra/vintra/internal/log"
	"github.com/vintra/vintra/internal/stream"
)

// Responder runs one chat turn against an encoder. *chat.Engine
// satisfies it.
type Responder interface {
	Respond(ctx context.Context, req chat.Request, enc *stream.Encoder) error
}

// ChatHandler serves the streaming chat endpoint.
type ChatHandler struct {
	engine Responder
	logger log.Logger
}

// NewChatHandler creates a chat handler over the engine.
func NewChatHandler(engine Responder, logger log.Logger) *ChatHandler {
	return &ChatHandler{engine: engine, logger: logger}
}

// RegisterRoutes registers chat routes on mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
}

// handleChat decodes the turn and streams the framed response.
//
// Errors before the first frame map to an HTTP status. Once a frame
// has been written the status line is gone; later failures are logged
// and the connection closed mid-stream.
func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body is not valid JSON")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	tw := &trackingWriter{ResponseWriter: w}
	err := h.engine.Respond(r.Context(), req, stream.NewEncoder(tw))
	if err == nil {
		return
	}

	kind := chat.KindOf(err)
	if tw.wrote {
		// Status already committed; nothing to send but the log line.
		h.logger.Error("chat stream aborted", "kind", kind, "error", err)
		return
	}

	h.logger.Error("chat request failed", "kind", kind, "error", err)
	switch kind {
	case chat.KindInput:
		writeError(w, http.StatusBadRequest, string(kind), "message is missing or malformed")
	case chat.KindRetrieval, chat.KindGenerationTool:
		writeError(w, http.StatusBadGateway, string(kind), "upstream dependency failed")
	default:
		writeError(w, http.StatusInternalServerError, string(kind), "chat turn failed")
	}
}

// trackingWriter records whether any frame reached the wire, and
// keeps http.Flusher visible through the wrap.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(p)
}

func (t *trackingWriter) Flush() {
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
