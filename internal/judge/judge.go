// Package judge decides whether a user's answer to a generated question is
// correct.
package judge

import (
	"context"
	"errors"

	"github.com/abhisek/codequiz/internal/questiongen"
)

// ErrUnsupportedFormat is returned by judges that cannot grade a question
// format.
var ErrUnsupportedFormat = errors.New("judge: unsupported question format")

// Judge produces a definitive verdict. A returned error means no verdict
// was reached and the caller must not record an attempt.
type Judge interface {
	Judge(ctx context.Context, in Input) (*Verdict, error)
}

// Input is the question being answered plus the user's raw answer.
type Input struct {
	Question *questiongen.Question
	Answer   string
}

// Verdict is the outcome of judging one answer.
type Verdict struct {
	Correct  bool
	Feedback string

	// Confidence in [0, 1]. Local judges always report 1.
	Confidence float64

	// Judge names the judge that produced the verdict.
	Judge string
}
