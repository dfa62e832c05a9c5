package questiongen

import "context"

// Generator produces programming-comprehension questions.
type Generator interface {
	// Generate produces a single question for the given input context.
	// All configured validators are run before returning.
	Generate(ctx context.Context, input GenerateInput) (*Question, error)
}
