package chat

import (
	"fmt"
	"strings"

	"github.com/vintra/vintra/internal/classify"
	"github.com/vintra/vintra/internal/retrieval"
)

const basePrompt = `You are Vintra, an assistant for viticulture and winemaking.
Answer from the supplied documents when they are relevant; say so plainly
when they are not. Cite facts, do not invent them.`

// verbosityFor maps the utterance category to answer-length guidance.
// Conversational turns get a short reply, specific questions a direct
// answer, open-ended ones room to elaborate.
func verbosityFor(cat classify.Category) string {
	switch cat {
	case classify.Conversational:
		return "Reply briefly and naturally, one or two sentences."
	case classify.Specific:
		return "Answer the question directly, then add only essential context."
	default:
		return "Give a thorough answer with the relevant background."
	}
}

// buildSystemPrompt assembles the system instruction: base persona,
// verbosity guidance, and the numbered source excerpts the answer may
// cite. Source numbering matches the citation indices sent to the
// client, so bracketed references in the answer line up.
func buildSystemPrompt(cat classify.Category, sources []retrieval.Source) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\n")
	b.WriteString(verbosityFor(cat))

	if len(sources) == 0 {
		return b.String()
	}

	b.WriteString("\n\nDocument excerpts:\n")
	for _, src := range sources {
		loc := src.Primary.SourceName
		if src.Primary.Paged() {
			loc = fmt.Sprintf("%s, p. %d", loc, src.Primary.Page)
		}
		fmt.Fprintf(&b, "\n[%d] %s\n%s\n", src.CitationIndex, loc, src.Primary.Content)
	}
	b.WriteString("\nReference excerpts by their bracketed number, e.g. [1].")
	return b.String()
}
