package retrieval

// ScoredChunk is one raw match returned by the similarity search.
// Chunks are immutable; many chunks may share a document and page.
type ScoredChunk struct {
	DocumentID string  // owning document
	Page       int     // 1-based page number; 0 = unpaginated
	Content    string  // chunk text
	Similarity float64 // cosine similarity in [0,1]
	SourceName string  // human-readable document name
}

// Paged reports whether the chunk carries a page number.
func (c ScoredChunk) Paged() bool { return c.Page > 0 }

// Source is the deduplicated citation entry for one document: the best
// chunk to quote, the remaining matched pages in presentation order,
// and the 1-based number used in [n] markers.
//
// Sources live for a single request and are never persisted.
type Source struct {
	Primary       ScoredChunk `json:"primary"`
	ExtraPages    []int       `json:"extraPages,omitempty"`
	CitationIndex int         `json:"citationIndex"`
}

// Config holds the aggregation policy knobs.
type Config struct {
	// TieEpsilon treats two page quality scores closer than this as
	// equal when ordering, suppressing rank churn from float noise.
	// Default 0.05.
	TieEpsilon float64

	// VolumeCap caps the chunk-count multiplier in the page quality
	// score so chunk volume cannot outweigh relevance. Default 3.
	VolumeCap int
}

// normalized returns cfg with defaults applied.
func (cfg Config) normalized() Config {
	if cfg.TieEpsilon <= 0 {
		cfg.TieEpsilon = 0.05
	}
	if cfg.VolumeCap <= 0 {
		cfg.VolumeCap = 3
	}
	return cfg
}

// SearchOption configures Store.Search using the functional options
// pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	threshold float64
	limit     int
	document  string
}

// WithThreshold sets the minimum similarity for a match. Default 0.7.
func WithThreshold(t float64) SearchOption {
	return func(c *searchConfig) { c.threshold = t }
}

// WithLimit sets the maximum number of chunks returned. Default 10.
func WithLimit(n int) SearchOption {
	return func(c *searchConfig) { c.limit = n }
}

// WithDocumentFilter restricts the search to a single document.
func WithDocumentFilter(documentID string) SearchOption {
	return func(c *searchConfig) { c.document = documentID }
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		threshold: 0.7,
		limit:     10,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
