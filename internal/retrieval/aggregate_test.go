package retrieval

import (
	"slices"
	"testing"

	"github.com/vintra/vintra/internal/log"
)

func newTestAggregator(cfg Config) *Aggregator {
	return NewAggregator(cfg, log.NewNop())
}

func TestAggregateEmptyInput(t *testing.T) {
	got := newTestAggregator(Config{}).Aggregate(nil)
	if got == nil {
		t.Fatal("Aggregate(nil) = nil, want empty slice")
	}
	if len(got) != 0 {
		t.Fatalf("Aggregate(nil) returned %d sources, want 0", len(got))
	}
}

func TestAggregatePrimaryPageSelection(t *testing.T) {
	// Page 3 has two chunks (avg 0.85, quality 0.85*2 = 1.7); page 9 has
	// one chunk (quality 0.85). Page 3 wins and its sim-0.9 chunk is the
	// representative; page 9 remains as an additional page.
	chunks := []ScoredChunk{
		{DocumentID: "doc-1", Page: 3, Similarity: 0.9, Content: "a"},
		{DocumentID: "doc-1", Page: 3, Similarity: 0.8, Content: "b"},
		{DocumentID: "doc-1", Page: 9, Similarity: 0.85, Content: "c"},
	}

	got := newTestAggregator(Config{}).Aggregate(chunks)
	if len(got) != 1 {
		t.Fatalf("got %d sources, want 1", len(got))
	}
	src := got[0]
	if src.Primary.Page != 3 {
		t.Errorf("primary page = %d, want 3", src.Primary.Page)
	}
	if src.Primary.Similarity != 0.9 {
		t.Errorf("primary chunk similarity = %v, want 0.9", src.Primary.Similarity)
	}
	if !slices.Equal(src.ExtraPages, []int{9}) {
		t.Errorf("extra pages = %v, want [9]", src.ExtraPages)
	}
	if src.CitationIndex != 1 {
		t.Errorf("citation index = %d, want 1", src.CitationIndex)
	}
}

func TestAggregateVolumeCap(t *testing.T) {
	// Twenty weak chunks on page 1 (avg 0.3, capped quality 0.9) must not
	// outrank two strong chunks on page 2 (avg 0.85, quality 1.7).
	var chunks []ScoredChunk
	for range 20 {
		chunks = append(chunks, ScoredChunk{DocumentID: "d", Page: 1, Similarity: 0.3})
	}
	chunks = append(chunks,
		ScoredChunk{DocumentID: "d", Page: 2, Similarity: 0.9},
		ScoredChunk{DocumentID: "d", Page: 2, Similarity: 0.8},
	)

	got := newTestAggregator(Config{}).Aggregate(chunks)
	if len(got) != 1 || got[0].Primary.Page != 2 {
		t.Fatalf("primary page = %d, want 2", got[0].Primary.Page)
	}
}

func TestAggregateOneSourcePerDocument(t *testing.T) {
	chunks := []ScoredChunk{
		{DocumentID: "b", Page: 1, Similarity: 0.8},
		{DocumentID: "a", Page: 2, Similarity: 0.9},
		{DocumentID: "b", Page: 4, Similarity: 0.7},
		{DocumentID: "c", Similarity: 0.75}, // unpaginated
	}

	got := newTestAggregator(Config{}).Aggregate(chunks)
	if len(got) != 3 {
		t.Fatalf("got %d sources, want 3", len(got))
	}

	// First-seen document order is preserved.
	wantOrder := []string{"b", "a", "c"}
	for i, want := range wantOrder {
		if got[i].Primary.DocumentID != want {
			t.Errorf("source[%d].DocumentID = %q, want %q", i, got[i].Primary.DocumentID, want)
		}
	}

	// Citation indices are a contiguous 1..K sequence.
	for i, src := range got {
		if src.CitationIndex != i+1 {
			t.Errorf("source[%d].CitationIndex = %d, want %d", i, src.CitationIndex, i+1)
		}
	}
}

func TestAggregateUnpaginatedFallback(t *testing.T) {
	chunks := []ScoredChunk{
		{DocumentID: "d", Similarity: 0.6, Content: "weak"},
		{DocumentID: "d", Similarity: 0.9, Content: "strong"},
		{DocumentID: "d", Similarity: 0.9, Content: "strong-later"},
	}

	got := newTestAggregator(Config{}).Aggregate(chunks)
	if len(got) != 1 {
		t.Fatalf("got %d sources, want 1", len(got))
	}
	if got[0].Primary.Content != "strong" {
		t.Errorf("fallback primary = %q, want first-seen strongest chunk", got[0].Primary.Content)
	}
	if len(got[0].ExtraPages) != 0 {
		t.Errorf("fallback extra pages = %v, want none", got[0].ExtraPages)
	}
}

func TestAggregateSinglePageNoExtraPages(t *testing.T) {
	chunks := []ScoredChunk{
		{DocumentID: "d", Page: 7, Similarity: 0.9},
		{DocumentID: "d", Page: 7, Similarity: 0.8},
	}

	got := newTestAggregator(Config{}).Aggregate(chunks)
	if len(got[0].ExtraPages) != 0 {
		t.Errorf("single-page document has extra pages %v, want none", got[0].ExtraPages)
	}
}

func TestAggregateExtraPagesNeverContainPrimary(t *testing.T) {
	chunks := []ScoredChunk{
		{DocumentID: "d", Page: 2, Similarity: 0.9},
		{DocumentID: "d", Page: 5, Similarity: 0.8},
		{DocumentID: "d", Page: 8, Similarity: 0.7},
	}

	got := newTestAggregator(Config{}).Aggregate(chunks)
	src := got[0]
	if slices.Contains(src.ExtraPages, src.Primary.Page) {
		t.Errorf("extra pages %v contain primary page %d", src.ExtraPages, src.Primary.Page)
	}
	if !slices.Equal(src.ExtraPages, []int{5, 8}) {
		t.Errorf("extra pages = %v, want [5 8]", src.ExtraPages)
	}
}

func TestAggregateTieEpsilonOrdering(t *testing.T) {
	// Pages 12 and 4 score within the default epsilon of each other
	// (0.80 vs 0.83), so ascending page number wins the ordering. Page 1
	// is clearly best and becomes primary.
	chunks := []ScoredChunk{
		{DocumentID: "d", Page: 1, Similarity: 0.95},
		{DocumentID: "d", Page: 12, Similarity: 0.80},
		{DocumentID: "d", Page: 4, Similarity: 0.83},
	}

	got := newTestAggregator(Config{}).Aggregate(chunks)
	if !slices.Equal(got[0].ExtraPages, []int{4, 12}) {
		t.Errorf("extra pages = %v, want [4 12] (epsilon tie, ascending page)", got[0].ExtraPages)
	}

	// With a tiny epsilon the same scores order strictly by quality.
	got = newTestAggregator(Config{TieEpsilon: 0.001}).Aggregate(chunks)
	if !slices.Equal(got[0].ExtraPages, []int{4, 12}) {
		t.Errorf("extra pages = %v, want [4 12] (0.83 > 0.80)", got[0].ExtraPages)
	}

	// Swap the scores so strict ordering flips while the epsilon
	// ordering stays page-ascending.
	chunks[1].Similarity, chunks[2].Similarity = 0.83, 0.80
	got = newTestAggregator(Config{TieEpsilon: 0.001}).Aggregate(chunks)
	if !slices.Equal(got[0].ExtraPages, []int{12, 4}) {
		t.Errorf("extra pages = %v, want [12 4] (strict quality order)", got[0].ExtraPages)
	}
	got = newTestAggregator(Config{}).Aggregate(chunks)
	if !slices.Equal(got[0].ExtraPages, []int{4, 12}) {
		t.Errorf("extra pages = %v, want [4 12] (epsilon tie, ascending page)", got[0].ExtraPages)
	}
}

func TestAggregateIdempotence(t *testing.T) {
	chunks := []ScoredChunk{
		{DocumentID: "x", Page: 3, Similarity: 0.9, Content: "a"},
		{DocumentID: "x", Page: 3, Similarity: 0.8, Content: "b"},
		{DocumentID: "x", Page: 9, Similarity: 0.85, Content: "c"},
		{DocumentID: "y", Page: 1, Similarity: 0.75, Content: "d"},
	}

	agg := newTestAggregator(Config{})
	first := agg.Aggregate(chunks)

	// Re-running on the primaries alone must re-select the same primaries.
	primaries := make([]ScoredChunk, len(first))
	for i, src := range first {
		primaries[i] = src.Primary
	}
	second := agg.Aggregate(primaries)

	if len(second) != len(first) {
		t.Fatalf("re-aggregation produced %d sources, want %d", len(second), len(first))
	}
	for i := range first {
		if second[i].Primary != first[i].Primary {
			t.Errorf("source[%d] primary changed: %+v -> %+v", i, first[i].Primary, second[i].Primary)
		}
	}
}

func TestRenumber(t *testing.T) {
	sources := []Source{
		{Primary: ScoredChunk{DocumentID: "a"}, CitationIndex: 9},
		{Primary: ScoredChunk{DocumentID: "b"}},
		{Primary: ScoredChunk{DocumentID: "c"}, CitationIndex: -1},
	}

	got := Renumber(sources)
	for i, src := range got {
		if src.CitationIndex != i+1 {
			t.Errorf("CitationIndex[%d] = %d, want %d", i, src.CitationIndex, i+1)
		}
	}

	// Stable under re-invocation.
	again := Renumber(got)
	for i := range got {
		if again[i].CitationIndex != got[i].CitationIndex {
			t.Errorf("Renumber not stable at %d", i)
		}
	}
}
