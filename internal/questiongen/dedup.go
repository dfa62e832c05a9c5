package questiongen

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultSimilarity is the normalized Levenshtein similarity at or above
// which two prompts count as the same question.
const DefaultSimilarity = 0.85

// DedupValidator rejects questions whose prompt is nearly identical to one
// already asked in the session.
type DedupValidator struct {
	// Threshold in (0, 1]. Zero means DefaultSimilarity.
	Threshold float64
}

func (v *DedupValidator) Name() string { return "dedup" }

func (v *DedupValidator) Validate(q *Question, input GenerateInput) *ValidationError {
	threshold := v.Threshold
	if threshold <= 0 {
		threshold = DefaultSimilarity
	}

	prompt := normalizePrompt(q.Prompt)
	for _, prior := range input.PriorQuestions {
		if s := similarity(prompt, normalizePrompt(prior)); s >= threshold {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("prompt repeats a prior question (similarity %.2f)", s),
				Retryable: true,
			}
		}
	}
	return nil
}

// similarity returns 1 - distance/maxLen over runes.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(fuzzy.LevenshteinDistance(a, b))/float64(longest)
}

func normalizePrompt(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// buildDedup formats prior questions for the prompt, keeping the most
// recent max entries. Returns "None" if there are no prior questions.
func buildDedup(priorQuestions []string, max int) string {
	if len(priorQuestions) == 0 {
		return "None"
	}
	if max > 0 && len(priorQuestions) > max {
		priorQuestions = priorQuestions[len(priorQuestions)-max:]
	}

	var b strings.Builder
	for i, q := range priorQuestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
