package judge

import "github.com/abhisek/codequiz/internal/llm"

// VerdictSchema defines the JSON schema for LLM judging responses.
var VerdictSchema = &llm.Schema{
	Name:        "answer-verdict",
	Description: "Whether a free text answer to a programming question is correct",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct": map[string]any{
				"type":        "boolean",
				"description": "True when the answer is substantively correct",
			},
			"confidence": map[string]any{
				"type":        "number",
				"minimum":     0.0,
				"maximum":     1.0,
				"description": "Confidence in the verdict from 0.0 to 1.0",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "One or two sentences addressed to the user",
			},
		},
		"required":             []any{"correct", "confidence", "feedback"},
		"additionalProperties": false,
	},
}
