package questiongen

import (
	"fmt"
	"strings"
)

// Field length limits, in bytes.
const (
	maxPromptLen      = 1000
	maxCodeLen        = 4000
	maxAnswerLen      = 1000
	maxExplanationLen = 2000
	choiceCount       = 4
)

// StructuralValidator checks that required fields are present, within
// length limits, and consistent with the format.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question, _ GenerateInput) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...), Retryable: true}
	}

	switch {
	case strings.TrimSpace(q.Prompt) == "":
		return fail("prompt is empty")
	case len(q.Prompt) > maxPromptLen:
		return fail("prompt exceeds %d characters", maxPromptLen)
	case len(q.Code) > maxCodeLen:
		return fail("code exceeds %d characters", maxCodeLen)
	case strings.TrimSpace(q.Answer) == "":
		return fail("answer is empty")
	case len(q.Answer) > maxAnswerLen:
		return fail("answer exceeds %d characters", maxAnswerLen)
	case strings.TrimSpace(q.Explanation) == "":
		return fail("explanation is empty")
	case len(q.Explanation) > maxExplanationLen:
		return fail("explanation exceeds %d characters", maxExplanationLen)
	}

	switch q.Format {
	case FormatMultipleChoice:
		if len(q.Choices) != choiceCount {
			return fail("multiple_choice needs exactly %d choices, got %d", choiceCount, len(q.Choices))
		}
		matches := 0
		seen := make(map[string]bool, len(q.Choices))
		for _, c := range q.Choices {
			norm := strings.ToLower(strings.TrimSpace(c))
			if norm == "" {
				return fail("choice is empty")
			}
			if seen[norm] {
				return fail("duplicate choice %q", c)
			}
			seen[norm] = true
			if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(q.Answer)) {
				matches++
			}
		}
		if matches != 1 {
			return fail("answer must match exactly one choice")
		}
	case FormatFreeText:
		if len(q.Choices) != 0 {
			return fail("free_text must not carry choices")
		}
	default:
		return fail("format must be %q or %q", FormatMultipleChoice, FormatFreeText)
	}
	return nil
}
