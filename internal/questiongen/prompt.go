package questiongen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write short programming comprehension questions.

Rules:
- Generate one question for the given topic and language at the requested difficulty (1 trivial, 100 expert).
- Prefer questions about reading code: predict output, spot the bug, explain behavior.
- Keep code snippets under 30 lines and put them in the "code" field, not in the prompt.
- For multiple_choice give exactly 4 options where exactly one is correct; distractors should be plausible mistakes.
- For free_text the answer should be one or two sentences a grader can compare against.
- Do not repeat any question from the "already asked" list.`

func buildUserMessage(input GenerateInput, cfg Config) string {
	lang := input.Language
	if lang == "" {
		lang = cfg.DefaultLanguage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", input.Topic)
	fmt.Fprintf(&b, "Language: %s\n", lang)
	fmt.Fprintf(&b, "Difficulty: %d\n", input.TargetDifficulty)
	b.WriteString("\nAlready asked in this session:\n")
	b.WriteString(buildDedup(input.PriorQuestions, cfg.MaxPriorQuestions))
	return b.String()
}
