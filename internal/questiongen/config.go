package questiongen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order; the first failure stops the pipeline.
	Validators []Validator

	MaxTokens   int
	Temperature float64

	// MaxPriorQuestions caps how many prior prompts are sent to the LLM.
	MaxPriorQuestions int

	// DefaultLanguage is used when GenerateInput.Language is empty.
	DefaultLanguage string
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&DedupValidator{},
		},
		MaxTokens:         1024,
		Temperature:       0.7,
		MaxPriorQuestions: 10,
		DefaultLanguage:   "go",
	}
}
