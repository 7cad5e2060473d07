package classify

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		utterance    string
		hasImage     bool
		wantCategory Category
		wantRetrieve bool
	}{
		{
			name:         "greeting",
			utterance:    "hi",
			wantCategory: Conversational,
			wantRetrieve: false,
		},
		{
			name:         "greeting with surrounding whitespace",
			utterance:    "  Hello  ",
			wantCategory: Conversational,
			wantRetrieve: false,
		},
		{
			name:         "too short",
			utterance:    "ab",
			wantCategory: Conversational,
			wantRetrieve: false,
		},
		{
			name:         "empty",
			utterance:    "",
			wantCategory: Conversational,
			wantRetrieve: false,
		},
		{
			name:         "empty with image does not retrieve",
			utterance:    "",
			hasImage:     true,
			wantCategory: Conversational,
			wantRetrieve: false,
		},
		{
			name:         "pure greeting with image does not retrieve",
			utterance:    "hello",
			hasImage:     true,
			wantCategory: Conversational,
			wantRetrieve: false,
		},
		{
			name:         "short non-greeting with image retrieves",
			utterance:    "ph",
			hasImage:     true,
			wantCategory: Conversational,
			wantRetrieve: true,
		},
		{
			name:         "what is the attribute",
			utterance:    "What is the ideal brix at harvest",
			wantCategory: Specific,
			wantRetrieve: true,
		},
		{
			name:         "is question",
			utterance:    "Is smoke taint reversible",
			wantCategory: Specific,
			wantRetrieve: true,
		},
		{
			name:         "how many",
			utterance:    "how many vines per acre",
			wantCategory: Specific,
			wantRetrieve: true,
		},
		{
			name:         "true or false",
			utterance:    "tannins soften with age, true or false",
			wantCategory: Specific,
			wantRetrieve: true,
		},
		{
			name:         "how to",
			utterance:    "how to manage powdery mildew",
			wantCategory: OpenEnded,
			wantRetrieve: true,
		},
		{
			name:         "why question",
			utterance:    "why does fermentation stall",
			wantCategory: OpenEnded,
			wantRetrieve: true,
		},
		{
			name:         "explain",
			utterance:    "explain malolactic conversion",
			wantCategory: OpenEnded,
			wantRetrieve: true,
		},
		{
			name:         "contains process",
			utterance:    "the bottling process",
			wantCategory: OpenEnded,
			wantRetrieve: true,
		},
		{
			name:         "contains difference",
			utterance:    "difference between clones",
			wantCategory: OpenEnded,
			wantRetrieve: true,
		},
		{
			name:         "long fallback is open-ended",
			utterance:    "tell me about trellis systems",
			wantCategory: OpenEnded,
			wantRetrieve: true,
		},
		{
			name:         "conjunction fallback is open-ended",
			utterance:    "pests and frost",
			wantCategory: OpenEnded,
			wantRetrieve: true,
		},
		{
			name:         "short fallback is specific",
			utterance:    "ph level",
			wantCategory: Specific,
			wantRetrieve: false,
		},
		{
			name:         "short fallback over length trigger",
			utterance:    "best clone",
			wantCategory: Specific,
			wantRetrieve: true,
		},
		{
			name:         "short domain keyword retrieves",
			utterance:    "oak use",
			wantCategory: Specific,
			wantRetrieve: true,
		},
		{
			name:         "default length trigger",
			utterance:    "ripeness", // 8 chars, no keyword, no question word
			wantCategory: Specific,
			wantRetrieve: false,
		},
		{
			name:         "just over default length trigger",
			utterance:    "ripenesses",
			wantCategory: Specific,
			wantRetrieve: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.utterance, tt.hasImage)
			if got.Category != tt.wantCategory {
				t.Errorf("Classify(%q).Category = %q, want %q", tt.utterance, got.Category, tt.wantCategory)
			}
			if got.ShouldRetrieve != tt.wantRetrieve {
				t.Errorf("Classify(%q).ShouldRetrieve = %v, want %v", tt.utterance, got.ShouldRetrieve, tt.wantRetrieve)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	const q = "How does smoke exposure affect tannin structure and acidity?"
	first := Classify(q, false)
	for range 10 {
		if got := Classify(q, false); got != first {
			t.Fatalf("Classify not deterministic: %+v vs %+v", got, first)
		}
	}
}
