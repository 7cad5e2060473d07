package chat

import (
	"context"
	"iter"

	"github.com/vintra/vintra/internal/citation"
	"github.com/vintra/vintra/internal/retrieval"
)

// Roles for conversation turns.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one prior message in the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one user utterance plus its conversation context.
type Request struct {
	Message string `json:"message"`
	History []Turn `json:"history,omitempty"`

	// ImageContext marks that the client attached an image this turn.
	// It forces retrieval for short utterances and is echoed back in
	// the final data frame.
	ImageContext bool `json:"imageContext,omitempty"`
}

// GenerateRequest is what the engine asks the model service for.
type GenerateRequest struct {
	System    string // system instruction (verbosity + source context)
	History   []Turn // prior turns, oldest first
	Message   string // current user message
	Grounding bool   // enable the web-grounding tool
}

// StreamEvent is one element of the model's output sequence: a text
// fragment, and on at most one event the grounding metadata.
type StreamEvent struct {
	Text      string
	Grounding *citation.Metadata
}

// Generator is the generative model service. The sequence yields text
// fragments as they are produced; iteration stops at the first error.
type Generator interface {
	Stream(ctx context.Context, req GenerateRequest) iter.Seq2[StreamEvent, error]
}

// Embedder turns text into a query embedding, invoked once per
// request when retrieval is triggered.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the similarity search service.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, opts ...retrieval.SearchOption) ([]retrieval.ScoredChunk, error)
}
