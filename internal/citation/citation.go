// Package citation rewrites generated text to carry bracketed citation
// markers, reconciling retrieved-document sources and web-grounding
// sources into one numbering scheme.
package citation

import (
	"fmt"
	"slices"
	"strings"
)

// Support describes one grounded span of generated text: the byte
// offset where the span ends and the web-source indices backing it.
// It mirrors the grounding metadata shape returned by the model
// service.
type Support struct {
	EndIndex      int   `json:"endIndex"`
	SourceIndices []int `json:"sourceIndices"`
}

// WebSource is one web-grounding source referenced by supports.
type WebSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Metadata is the grounding metadata attached to a generated response.
type Metadata struct {
	Supports []Support   `json:"supports"`
	Sources  []WebSource `json:"sources"`
}

// searchWindow bounds how far past a support's end offset the injector
// looks for a linguistically sensible insertion point.
const (
	searchWindow     = 50 // sentence-terminal punctuation
	clauseWindow     = 20 // comma/semicolon/colon
	whitespaceWindow = 15 // any whitespace
)

// Inject inserts citation markers into text at the offsets described
// by supports. Characters are never removed or reordered; with no
// supports the text is returned unchanged.
//
// Each support's source indices are rendered as adjacent brackets
// offset by ragSourceCount, so document numbers 1..ragSourceCount and
// web numbers ragSourceCount+1.. never collide.
//
// Supports are processed in descending end-offset order: splicing at a
// later offset leaves every earlier, still-unprocessed offset valid,
// whereas ascending order would shift and corrupt them.
func Inject(text string, supports []Support, ragSourceCount int) string {
	if len(supports) == 0 {
		return text
	}

	ordered := slices.Clone(supports)
	slices.SortStableFunc(ordered, func(a, b Support) int {
		return b.EndIndex - a.EndIndex
	})

	for _, s := range ordered {
		if len(s.SourceIndices) == 0 {
			continue
		}
		pos := min(max(s.EndIndex, 0), len(text))
		pos = insertionPoint(text, pos)
		text = text[:pos] + marker(s.SourceIndices, ragSourceCount) + text[pos:]
	}
	return text
}

// marker renders source indices as concatenated [n] brackets in the
// combined numbering space.
func marker(indices []int, ragSourceCount int) string {
	var b strings.Builder
	for _, idx := range indices {
		fmt.Fprintf(&b, "[%d]", idx+ragSourceCount+1)
	}
	return b.String()
}

// insertionPoint advances start to the best offset within the search
// window so a marker never severs a word or sentence. Priority:
// just past sentence-terminal punctuation, then past a clause break,
// then at the next whitespace, else start itself.
func insertionPoint(text string, start int) int {
	window := min(searchWindow, len(text)-start)

	for i := range window {
		c := text[start+i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		next := start + i + 1
		if next >= len(text) || isSpace(text[next]) {
			return next
		}
	}

	for i := range min(clauseWindow, window) {
		c := text[start+i]
		if c != ',' && c != ';' && c != ':' {
			continue
		}
		next := start + i + 1
		if next < len(text) && isSpace(text[next]) {
			return next
		}
	}

	for i := range min(whitespaceWindow, window) {
		if isSpace(text[start+i]) {
			return start + i
		}
	}

	return start
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
