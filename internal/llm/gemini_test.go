package llm

import (
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":       map[string]any{"type": "string", "description": "who"},
			"difficulty": map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
			"grade":      map[string]any{"type": "string", "enum": []any{"A", "B", "C"}},
			"choices": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 2,
				"maxItems": 6,
			},
		},
		"required": []string{"name", "difficulty"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if p := schema.Properties["name"]; p.Type != genai.TypeString || p.Description != "who" {
		t.Fatalf("name = %+v", p)
	}
	diff := schema.Properties["difficulty"]
	if diff.Type != genai.TypeInteger || diff.Minimum == nil || *diff.Minimum != 1 || diff.Maximum == nil || *diff.Maximum != 100 {
		t.Fatalf("difficulty bounds not carried: %+v", diff)
	}
	if len(schema.Properties["grade"].Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Properties["grade"].Enum))
	}
	choices := schema.Properties["choices"]
	if choices.Type != genai.TypeArray || choices.Items.Type != genai.TypeString {
		t.Fatalf("choices = %+v", choices)
	}
	if choices.MinItems == nil || *choices.MinItems != 2 || choices.MaxItems == nil || *choices.MaxItems != 6 {
		t.Fatalf("choices item bounds not carried")
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}

func TestMapGeminiError(t *testing.T) {
	var rl *ErrRateLimit
	if err := mapGeminiError(genai.APIError{Code: 429, Message: "quota"}); !errors.As(err, &rl) {
		t.Errorf("429: got %T", err)
	}
	var rej *ErrRequestRejected
	if err := mapGeminiError(genai.APIError{Code: 403, Message: "denied"}); !errors.As(err, &rej) {
		t.Errorf("403: got %T", err)
	}
	var unavail *ErrProviderUnavailable
	if err := mapGeminiError(errors.New("dial tcp: refused")); !errors.As(err, &unavail) {
		t.Errorf("network: got %T", err)
	}
}
