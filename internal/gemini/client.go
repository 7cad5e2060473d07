// Package gemini implements the embedding and generative model
// services on the Gemini API, including optional Google Search
// grounding whose metadata feeds citation injection.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"google.golang.org/genai"

	"github.com/vintra/vintra/internal/chat"
	"github.com/vintra/vintra/internal/citation"
)

// Config holds the model parameters captured at construction.
type Config struct {
	APIKey        string
	Model         string  // e.g. "gemini-2.5-flash"
	EmbedderModel string  // e.g. "gemini-embedding-001"
	EmbedDim      int32   // pgvector column dimension
	Temperature   float32 // generation temperature
}

// Client talks to the Gemini API. It implements chat.Generator and
// chat.Embedder.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	genai  *genai.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a Client for the Gemini API backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Client{genai: gc, cfg: cfg, logger: logger}, nil
}

// Embed generates a query embedding for text, truncated to the
// configured pgvector dimension.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var embedCfg *genai.EmbedContentConfig
	if c.cfg.EmbedDim > 0 {
		embedCfg = &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(c.cfg.EmbedDim),
		}
	}

	resp, err := c.genai.Models.EmbedContent(ctx, c.cfg.EmbedderModel,
		genai.Text(text), embedCfg)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return resp.Embeddings[0].Values, nil
}

// Stream runs a streaming generation call and yields text fragments as
// they arrive. When req.Grounding is set the Google Search tool is
// attached and any grounding metadata on the stream is converted and
// yielded alongside the fragment that carried it.
func (c *Client) Stream(ctx context.Context, req chat.GenerateRequest) iter.Seq2[chat.StreamEvent, error] {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		var role genai.Role = genai.RoleUser
		if turn.Role == chat.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Message, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.cfg.Temperature),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Grounding {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	return func(yield func(chat.StreamEvent, error) bool) {
		for resp, err := range c.genai.Models.GenerateContentStream(ctx, c.cfg.Model, contents, cfg) {
			if err != nil {
				yield(chat.StreamEvent{}, fmt.Errorf("streaming generation: %w", err))
				return
			}
			ev, ok := c.toEvent(resp)
			if !ok {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// toEvent flattens one stream response into a StreamEvent. Responses
// with neither text nor grounding metadata are dropped.
func (c *Client) toEvent(resp *genai.GenerateContentResponse) (chat.StreamEvent, bool) {
	if len(resp.Candidates) == 0 {
		return chat.StreamEvent{}, false
	}
	cand := resp.Candidates[0]

	var ev chat.StreamEvent
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			ev.Text += part.Text
		}
	}
	if md := convertGrounding(cand.GroundingMetadata); md != nil {
		ev.Grounding = md
		c.logger.Debug("grounding metadata received",
			"supports", len(md.Supports),
			"webSources", len(md.Sources),
		)
	}
	if ev.Text == "" && ev.Grounding == nil {
		return chat.StreamEvent{}, false
	}
	return ev, true
}

// convertGrounding maps the provider grounding metadata onto the
// citation package's provider-neutral form. Nil in, nil out.
func convertGrounding(md *genai.GroundingMetadata) *citation.Metadata {
	if md == nil || (len(md.GroundingSupports) == 0 && len(md.GroundingChunks) == 0) {
		return nil
	}

	out := &citation.Metadata{
		Supports: make([]citation.Support, 0, len(md.GroundingSupports)),
		Sources:  make([]citation.WebSource, 0, len(md.GroundingChunks)),
	}
	for _, gs := range md.GroundingSupports {
		if gs == nil || gs.Segment == nil {
			continue
		}
		indices := make([]int, 0, len(gs.GroundingChunkIndices))
		for _, idx := range gs.GroundingChunkIndices {
			indices = append(indices, int(idx))
		}
		out.Supports = append(out.Supports, citation.Support{
			EndIndex:      int(gs.Segment.EndIndex),
			SourceIndices: indices,
		})
	}
	for _, gc := range md.GroundingChunks {
		var src citation.WebSource
		if gc != nil && gc.Web != nil {
			src.Title = gc.Web.Title
			src.URI = gc.Web.URI
		}
		out.Sources = append(out.Sources, src)
	}
	return out
}
