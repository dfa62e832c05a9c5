package questiongen

import "fmt"

// Validator checks a generated question. Implementations should be
// stateless and safe for concurrent use.
type Validator interface {
	Name() string
	Validate(q *Question, input GenerateInput) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Message   string
	Retryable bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}
