package questiongen

import "github.com/abhisek/codequiz/internal/llm"

// QuestionSchema defines the JSON schema for question generation responses.
var QuestionSchema = &llm.Schema{
	Name:        "code-question",
	Description: "A single programming comprehension question with answer and explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "The question shown to the user",
			},
			"code": map[string]any{
				"type":        "string",
				"description": "A code snippet the prompt refers to, or an empty string",
			},
			"format": map[string]any{
				"type":        "string",
				"enum":        []any{"multiple_choice", "free_text"},
				"description": "Pick from 4 choices, or answer in a sentence",
			},
			"choices": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Exactly 4 options for multiple_choice. Empty array for free_text.",
			},
			"answer": map[string]any{
				"type":        "string",
				"description": "For multiple_choice the text of the correct option; for free_text the expected answer a grader compares against",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Why the answer is correct",
			},
			"difficulty": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"maximum":     100,
				"description": "Difficulty from 1 (trivial) to 100 (expert)",
			},
		},
		"required":             []any{"prompt", "code", "format", "choices", "answer", "explanation", "difficulty"},
		"additionalProperties": false,
	},
}
