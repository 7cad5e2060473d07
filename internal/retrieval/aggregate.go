// Package retrieval consolidates raw similarity matches into ranked,
// deduplicated citation sources and implements the pgvector-backed
// search they come from.
package retrieval

import (
	"log/slog"
	"slices"
)

// pageStats accumulates per-(document, page) scoring during
// aggregation. It never escapes Aggregate.
type pageStats struct {
	page    int
	chunks  []ScoredChunk
	total   float64
	quality float64
}

func (p *pageStats) avg() float64 {
	return p.total / float64(len(p.chunks))
}

// best returns the highest-similarity chunk on the page, first-seen
// order breaking ties.
func (p *pageStats) best() ScoredChunk {
	best := p.chunks[0]
	for _, c := range p.chunks[1:] {
		if c.Similarity > best.Similarity {
			best = c
		}
	}
	return best
}

// Aggregator collapses scored chunks into one Source per document.
type Aggregator struct {
	cfg    Config
	logger *slog.Logger
}

// NewAggregator creates an Aggregator with the given policy. A nil
// logger disables the diagnostic heuristics logging.
func NewAggregator(cfg Config, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{cfg: cfg.normalized(), logger: logger}
}

// Aggregate groups chunks by document, scores each matched page, and
// returns one renumbered Source per distinct document in first-seen
// document order. Empty input yields an empty, non-nil result.
//
// Page quality is avg(similarity) * min(chunkCount, VolumeCap): the cap
// keeps a page with many weak chunks from outranking a page with a few
// strong ones.
func (a *Aggregator) Aggregate(chunks []ScoredChunk) []Source {
	sources := make([]Source, 0, len(chunks))
	if len(chunks) == 0 {
		return sources
	}

	type docGroup struct {
		all   []ScoredChunk
		pages map[int]*pageStats
		order []int // page numbers in first-seen order
	}

	var docOrder []string
	docs := make(map[string]*docGroup)

	for _, c := range chunks {
		d, ok := docs[c.DocumentID]
		if !ok {
			d = &docGroup{pages: make(map[int]*pageStats)}
			docs[c.DocumentID] = d
			docOrder = append(docOrder, c.DocumentID)
		}
		d.all = append(d.all, c)
		if !c.Paged() {
			continue // unpaginated chunks only participate in the fallback
		}
		p, ok := d.pages[c.Page]
		if !ok {
			p = &pageStats{page: c.Page}
			d.pages[c.Page] = p
			d.order = append(d.order, c.Page)
		}
		p.chunks = append(p.chunks, c)
		p.total += c.Similarity
	}

	for _, id := range docOrder {
		d := docs[id]

		// Fallback: no page-numbered chunks at all. Take the single
		// strongest chunk and report no additional pages.
		if len(d.order) == 0 {
			best := d.all[0]
			for _, c := range d.all[1:] {
				if c.Similarity > best.Similarity {
					best = c
				}
			}
			sources = append(sources, Source{Primary: best})
			continue
		}

		ranked := make([]*pageStats, 0, len(d.order))
		for _, page := range d.order {
			p := d.pages[page]
			p.quality = p.avg() * float64(min(len(p.chunks), a.cfg.VolumeCap))
			ranked = append(ranked, p)
		}

		primary := a.selectPrimary(ranked)
		src := Source{Primary: primary.best()}

		if len(ranked) > 1 {
			src.ExtraPages = a.orderExtraPages(ranked, primary)
		}
		a.logHeuristics(id, ranked, primary)
		sources = append(sources, src)
	}

	return Renumber(sources)
}

// selectPrimary picks the page with the highest quality score, lower
// page number breaking exact ties.
func (*Aggregator) selectPrimary(ranked []*pageStats) *pageStats {
	primary := ranked[0]
	for _, p := range ranked[1:] {
		if p.quality > primary.quality ||
			(p.quality == primary.quality && p.page < primary.page) {
			primary = p
		}
	}
	return primary
}

// orderExtraPages ranks the non-primary pages by quality descending.
// Scores closer than TieEpsilon count as tied and fall back to
// ascending page number; the primary page is excluded because it is
// always presented first.
func (a *Aggregator) orderExtraPages(ranked []*pageStats, primary *pageStats) []int {
	rest := make([]*pageStats, 0, len(ranked)-1)
	for _, p := range ranked {
		if p != primary {
			rest = append(rest, p)
		}
	}
	slices.SortStableFunc(rest, func(x, y *pageStats) int {
		diff := x.quality - y.quality
		if diff < a.cfg.TieEpsilon && diff > -a.cfg.TieEpsilon {
			return x.page - y.page
		}
		if diff > 0 {
			return -1
		}
		return 1
	})

	pages := make([]int, len(rest))
	for i, p := range rest {
		pages[i] = p.page
	}
	return pages
}

// logHeuristics emits diagnostic-only observations about the ranking.
// It encodes no behavior contract.
func (a *Aggregator) logHeuristics(docID string, ranked []*pageStats, primary *pageStats) {
	lo, hi := ranked[0].page, ranked[0].page
	for _, p := range ranked[1:] {
		lo, hi = min(lo, p.page), max(hi, p.page)
	}
	if hi-lo > 50 {
		a.logger.Debug("large page gap between matched pages",
			"document", docID, "first", lo, "last", hi)
	}
	if len(primary.chunks) == 1 && len(ranked) > 1 {
		a.logger.Debug("primary page selected from a single chunk",
			"document", docID, "page", primary.page,
			"similarity", primary.chunks[0].Similarity)
	}
}

// Renumber assigns CitationIndex = position + 1 across sources in
// order. It is stable under re-invocation and is applied again by
// callers that filter the source list.
func Renumber(sources []Source) []Source {
	for i := range sources {
		sources[i].CitationIndex = i + 1
	}
	return sources
}
