// Package classify decides the response shape of a user utterance and
// whether document retrieval is worth the round trip.
//
// Classification is a pure lexical function: identical input always
// produces identical output, which keeps the chat engine deterministic
// and testable without a model in the loop.
package classify

import "strings"

// Category is the response-shape category passed to the model as a
// verbosity instruction.
type Category string

const (
	// Conversational covers greetings and small talk; answered briefly
	// without retrieval.
	Conversational Category = "conversational"

	// Specific covers direct factual questions; answered concisely.
	Specific Category = "specific"

	// OpenEnded covers explanatory questions; answered in depth.
	OpenEnded Category = "open-ended"
)

// Result is the classifier output for one utterance.
type Result struct {
	Category       Category
	ShouldRetrieve bool
}

// greetings are exact-match conversational phrases (compared after
// trimming and lower-casing).
var greetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "yo": {}, "sup": {},
	"thanks": {}, "thank you": {}, "ok": {}, "okay": {},
	"bye": {}, "goodbye": {}, "good morning": {}, "good afternoon": {},
	"good evening": {}, "how are you": {},
}

// domainKeywords is the fixed retrieval vocabulary. An utterance that
// mentions any of these is assumed to need document context even when
// it is short.
var domainKeywords = []string{
	"wine", "grape", "vineyard", "vintage", "harvest", "fermentation",
	"tannin", "taint", "smoke", "soil", "irrigation", "pest", "yield",
	"barrel", "acidity", "brix", "canopy", "rootstock", "mildew",
	"pruning", "terroir", "must", "oak", "bottling",
}

// questionWords trigger retrieval for short questions.
var questionWords = []string{
	"what", "how", "why", "when", "where", "who", "which",
	"is", "are", "does", "can", "should",
}

// specificPrefixes mark direct-factual sentence openings.
var specificPrefixes = []string{
	"what is the", "what's the",
	"is ", "are ", "was ", "does ",
	"how much", "how many",
	"when ", "where ",
}

// openEndedPrefixes mark explanatory sentence openings.
var openEndedPrefixes = []string{
	"how to", "how do", "how does",
	"why ", "why?",
	"explain", "describe",
}

// openEndedTerms mark explanatory topics anywhere in the utterance.
var openEndedTerms = []string{"process", "benefits", "difference"}

// conjunctions whose presence suggests a compound, open-ended ask.
var conjunctions = []string{" and ", " or ", " but ", " as well as "}

// Classify maps an utterance to a response-shape category and a
// retrieval decision. Rules are evaluated in priority order; the first
// match wins. hasImageContext forces retrieval for non-trivial
// utterances that would otherwise be dismissed as conversational.
func Classify(utterance string, hasImageContext bool) Result {
	q := strings.ToLower(strings.TrimSpace(utterance))

	// Rule 1: trivially short utterances and fixed greetings are
	// conversational and skip retrieval. With image context attached we
	// still retrieve, unless the utterance is empty or a pure greeting.
	_, isGreeting := greetings[q]
	if len(q) < 3 || isGreeting {
		retrieve := hasImageContext && q != "" && !isGreeting
		return Result{Category: Conversational, ShouldRetrieve: retrieve}
	}

	return Result{
		Category:       categorize(q),
		ShouldRetrieve: shouldRetrieve(q),
	}
}

// categorize applies rules 2-4 to a normalized, non-conversational
// utterance.
func categorize(q string) Category {
	// Rule 2: direct factual patterns.
	for _, p := range specificPrefixes {
		if strings.HasPrefix(q, p) {
			return Specific
		}
	}
	if strings.Contains(q, "true or false") {
		return Specific
	}

	// Rule 3: open-ended patterns.
	for _, p := range openEndedPrefixes {
		if strings.HasPrefix(q, p) {
			return OpenEnded
		}
	}
	for _, t := range openEndedTerms {
		if strings.Contains(q, t) {
			return OpenEnded
		}
	}

	// Rule 4: long or compound utterances lean open-ended.
	if len(q) > 20 {
		return OpenEnded
	}
	for _, c := range conjunctions {
		if strings.Contains(q, c) {
			return OpenEnded
		}
	}
	return Specific
}

// shouldRetrieve is the retrieval trigger, independent of category.
func shouldRetrieve(q string) bool {
	for _, kw := range domainKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	if len(q) > 5 {
		for _, w := range questionWords {
			if strings.Contains(q, w) {
				return true
			}
		}
	}
	return len(q) > 8
}
