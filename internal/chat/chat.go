// Package chat implements the conversation engine: it classifies the
// utterance, retrieves and consolidates document context, generates
// the answer, injects citation markers, and frames the result on the
// response stream.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/vintra/vintra/internal/citation"
	"github.com/vintra/vintra/internal/classify"
	"github.com/vintra/vintra/internal/retrieval"
	"github.com/vintra/vintra/internal/stream"
)

// maxMessageLen rejects pathological inputs before they reach the
// embedder.
const maxMessageLen = 8192

// Config wires the engine's collaborators and retrieval policy.
type Config struct {
	Generator  Generator
	Embedder   Embedder
	Searcher   Searcher
	Aggregator *retrieval.Aggregator
	Logger     *slog.Logger

	// SimilarityThreshold and MatchCount bound the vector search.
	// Zero values fall back to the search defaults.
	SimilarityThreshold float64
	MatchCount          int

	// Grounding enables the web-grounding tool on generation calls.
	Grounding bool

	// ModelRate caps outbound model calls per second. Zero means no
	// limit.
	ModelRate float64
}

func (c Config) validate() error {
	if c.Generator == nil {
		return errors.New("generator is required")
	}
	if c.Embedder == nil {
		return errors.New("embedder is required")
	}
	if c.Searcher == nil {
		return errors.New("searcher is required")
	}
	if c.Aggregator == nil {
		return errors.New("aggregator is required")
	}
	return nil
}

// Engine orchestrates one chat turn end to end.
//
// Engine is safe for concurrent use by multiple goroutines.
type Engine struct {
	gen     Generator
	embed   Embedder
	search  Searcher
	agg     *retrieval.Aggregator
	limiter *rate.Limiter
	logger  *slog.Logger
	cfg     Config
}

// New creates an Engine from cfg.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid chat config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.ModelRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ModelRate), 1)
	}

	return &Engine{
		gen:     cfg.Generator,
		embed:   cfg.Embedder,
		search:  cfg.Searcher,
		agg:     cfg.Aggregator,
		limiter: limiter,
		logger:  logger,
		cfg:     cfg,
	}, nil
}

// completion is the final data frame: the consolidated document
// sources, any web sources the grounding tool consulted, and whether
// an attached image influenced the turn.
type completion struct {
	Sources    []retrieval.Source   `json:"sources"`
	WebSources []citation.WebSource `json:"webSources"`
	ImageUsed  bool                 `json:"imageUsed"`
}

// Respond handles one chat turn and writes the framed response to enc.
//
// Frame order: the consolidated sources as a data frame (when
// retrieval produced any), then the complete answer as a single text
// frame, then a final data frame when grounding metadata arrived.
// The answer is buffered in full before the text frame is written so
// citation markers land at stable byte offsets.
func (e *Engine) Respond(ctx context.Context, req Request, enc *stream.Encoder) error {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return newError(KindInput, "message is empty", nil)
	}
	if len(msg) > maxMessageLen {
		return newError(KindInput, "message too long", nil)
	}

	cls := classify.Classify(msg, req.ImageContext)
	e.logger.Debug("utterance classified",
		"category", cls.Category,
		"retrieve", cls.ShouldRetrieve,
	)

	var sources []retrieval.Source
	if cls.ShouldRetrieve {
		var err error
		sources, err = e.retrieve(ctx, msg)
		if err != nil {
			return err
		}
	}

	if len(sources) > 0 {
		if err := enc.WriteData(map[string]any{"sources": sources}); err != nil {
			return newError(KindStreamWrite, "writing sources frame", err)
		}
	}

	genReq := GenerateRequest{
		System:    buildSystemPrompt(cls.Category, sources),
		History:   req.History,
		Message:   msg,
		Grounding: e.cfg.Grounding,
	}
	text, grounding, err := e.generate(ctx, genReq)
	if err != nil {
		return err
	}

	if grounding != nil {
		text = citation.Inject(text, grounding.Supports, len(sources))
	}

	if err := enc.WriteText(text); err != nil {
		return newError(KindStreamWrite, "writing answer frame", err)
	}

	if grounding != nil {
		final := completion{
			Sources:    sources,
			WebSources: grounding.Sources,
			ImageUsed:  req.ImageContext,
		}
		if final.Sources == nil {
			final.Sources = []retrieval.Source{}
		}
		if err := enc.WriteData(final); err != nil {
			return newError(KindStreamWrite, "writing completion frame", err)
		}
	}
	return nil
}

// retrieve embeds the utterance, searches, and consolidates matches
// into at most one numbered source per document.
func (e *Engine) retrieve(ctx context.Context, msg string) ([]retrieval.Source, error) {
	embedding, err := e.embed.Embed(ctx, msg)
	if err != nil {
		return nil, newError(KindRetrieval, "embedding utterance", err)
	}

	opts := []retrieval.SearchOption{}
	if e.cfg.SimilarityThreshold > 0 {
		opts = append(opts, retrieval.WithThreshold(e.cfg.SimilarityThreshold))
	}
	if e.cfg.MatchCount > 0 {
		opts = append(opts, retrieval.WithLimit(e.cfg.MatchCount))
	}
	chunks, err := e.search.Search(ctx, embedding, opts...)
	if err != nil {
		return nil, newError(KindRetrieval, "similarity search", err)
	}
	if len(chunks) == 0 {
		e.logger.Debug("retrieval matched nothing", "message_len", len(msg))
		return nil, nil
	}
	return e.agg.Aggregate(chunks), nil
}

// generate runs the model call, buffering the full answer. A failure
// with the grounding tool enabled is retried once without it; only
// the retry's failure is fatal.
func (e *Engine) generate(ctx context.Context, req GenerateRequest) (string, *citation.Metadata, error) {
	text, grounding, err := e.collect(ctx, req)
	if err == nil {
		return text, grounding, nil
	}
	if !req.Grounding {
		return "", nil, newError(KindGenerationFatal, "generation failed", err)
	}

	toolErr := newError(KindGenerationTool, "grounded generation failed", err)
	e.logger.Warn("retrying generation without grounding tool", "error", toolErr)

	req.Grounding = false
	text, grounding, err = e.collect(ctx, req)
	if err != nil {
		return "", nil, newError(KindGenerationFatal, "ungrounded retry failed", err)
	}
	return text, grounding, nil
}

// collect drains one generation stream into a single buffered answer,
// keeping the last grounding metadata seen.
func (e *Engine) collect(ctx context.Context, req GenerateRequest) (string, *citation.Metadata, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", nil, fmt.Errorf("model rate limit: %w", err)
	}

	var (
		b         strings.Builder
		grounding *citation.Metadata
	)
	for ev, err := range e.gen.Stream(ctx, req) {
		if err != nil {
			return "", nil, err
		}
		b.WriteString(ev.Text)
		if ev.Grounding != nil {
			grounding = ev.Grounding
		}
	}
	return b.String(), grounding, nil
}
