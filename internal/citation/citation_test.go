package citation

import (
	"strings"
	"testing"
)

func TestInjectEmptySupportsIsNoop(t *testing.T) {
	texts := []string{"", "plain text", "already [1] cited."}
	for _, text := range texts {
		if got := Inject(text, nil, 3); got != text {
			t.Errorf("Inject(%q, nil) = %q, want unchanged", text, got)
		}
		if got := Inject(text, []Support{}, 0); got != text {
			t.Errorf("Inject(%q, []) = %q, want unchanged", text, got)
		}
	}
}

func TestInjectAfterSentenceBoundary(t *testing.T) {
	// The support ends mid-sentence; the marker lands just past the
	// period instead, and the web index 0 maps to [3] after the offset
	// by two document sources.
	text := "Smoke taint reduces quality. It is caused by fire exposure"
	supports := []Support{{EndIndex: strings.Index(text, "."), SourceIndices: []int{0}}}

	got := Inject(text, supports, 2)
	want := "Smoke taint reduces quality.[3] It is caused by fire exposure"
	if got != want {
		t.Errorf("Inject() = %q, want %q", got, want)
	}
}

func TestInjectMultipleIndicesAdjacentBrackets(t *testing.T) {
	text := "Verjus is pressed from unripe grapes."
	supports := []Support{{EndIndex: len(text), SourceIndices: []int{0, 2}}}

	got := Inject(text, supports, 1)
	want := "Verjus is pressed from unripe grapes.[2][4]"
	if got != want {
		t.Errorf("Inject() = %q, want %q", got, want)
	}
}

func TestInjectDescendingOrderPreservesEarlierOffsets(t *testing.T) {
	// Two supports given in ascending order; processing must still
	// resolve both against their original offsets.
	text := "Cap management matters. Punch-downs extract color. Pump-overs are gentler."
	first := strings.Index(text, "matters.") + len("matters")
	second := strings.Index(text, "color.") + len("color")
	supports := []Support{
		{EndIndex: first, SourceIndices: []int{0}},
		{EndIndex: second, SourceIndices: []int{1}},
	}

	got := Inject(text, supports, 0)
	want := "Cap management matters.[1] Punch-downs extract color.[2] Pump-overs are gentler."
	if got != want {
		t.Errorf("Inject() = %q, want %q", got, want)
	}
}

func TestInjectPrefixInvariance(t *testing.T) {
	// No text preceding the earliest marker may change length or content.
	text := "First sentence here. Second sentence there. Third one closes."
	supports := []Support{
		{EndIndex: 45, SourceIndices: []int{1}},
		{EndIndex: 5, SourceIndices: []int{0}},
	}

	got := Inject(text, supports, 0)
	earliest := strings.Index(got, "[1]")
	if earliest < 0 {
		t.Fatalf("marker [1] missing from %q", got)
	}
	if got[:earliest] != text[:earliest] {
		t.Errorf("prefix before earliest marker changed: %q vs %q", got[:earliest], text[:earliest])
	}
}

func TestInjectClauseBreak(t *testing.T) {
	// No sentence end within 50 chars, but a comma inside the first 20:
	// the marker advances past the comma.
	text := "after veraison, the berries soften and accumulate sugars steadily until harvest time arrives"
	supports := []Support{{EndIndex: strings.Index(text, "veraison"), SourceIndices: []int{0}}}

	got := Inject(text, supports, 0)
	want := "after veraison,[1] the berries soften and accumulate sugars steadily until harvest time arrives"
	if got != want {
		t.Errorf("Inject() = %q, want %q", got, want)
	}
}

func TestInjectWhitespaceFallback(t *testing.T) {
	// Neither sentence nor clause punctuation in range; the marker moves
	// to the next whitespace.
	text := "photosynthetically productive leafareaindex measurements continue without punctuation whatsoever here"
	start := strings.Index(text, "productive") + 2
	supports := []Support{{EndIndex: start, SourceIndices: []int{0}}}

	got := Inject(text, supports, 0)
	wantAt := strings.Index(text, " leafareaindex")
	want := text[:wantAt] + "[1]" + text[wantAt:]
	if got != want {
		t.Errorf("Inject() = %q, want %q", got, want)
	}
}

func TestInjectNoBoundaryUsesOriginalOffset(t *testing.T) {
	// A 60-char unbroken token offers no boundary at all; the marker
	// stays at the original offset.
	token := strings.Repeat("x", 60)
	supports := []Support{{EndIndex: 5, SourceIndices: []int{0}}}

	got := Inject(token, supports, 0)
	want := token[:5] + "[1]" + token[5:]
	if got != want {
		t.Errorf("Inject() = %q, want %q", got, want)
	}
}

func TestInjectClampsOutOfRangeOffsets(t *testing.T) {
	text := "Short answer."
	supports := []Support{
		{EndIndex: 500, SourceIndices: []int{0}},
		{EndIndex: -3, SourceIndices: []int{1}},
	}

	// The oversized offset clamps to the end of the text and appends
	// [1] there. The negative offset clamps to zero; by then the period
	// is followed by a bracket rather than whitespace, so the marker
	// falls back to the first whitespace.
	got := Inject(text, supports, 0)
	want := "Short[2] answer.[1]"
	if got != want {
		t.Errorf("Inject() = %q, want %q", got, want)
	}
}

func TestInjectSupportsWithoutIndicesSkipped(t *testing.T) {
	text := "No sources back this claim."
	supports := []Support{{EndIndex: 10, SourceIndices: nil}}

	if got := Inject(text, supports, 4); got != text {
		t.Errorf("Inject() = %q, want unchanged", got)
	}
}

func TestInjectDeterministic(t *testing.T) {
	text := "One. Two. Three. Four. Five."
	supports := []Support{
		{EndIndex: 4, SourceIndices: []int{0}},
		{EndIndex: 9, SourceIndices: []int{1}},
		{EndIndex: 16, SourceIndices: []int{0, 1}},
	}

	first := Inject(text, supports, 3)
	for range 20 {
		if got := Inject(text, supports, 3); got != first {
			t.Fatalf("Inject not deterministic: %q vs %q", got, first)
		}
	}
}
