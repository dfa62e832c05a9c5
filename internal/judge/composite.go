package judge

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/codequiz/internal/questiongen"
)

// Composite routes multiple choice questions to a local judge and free
// text questions to the local fast path first, then to the LLM judge.
type Composite struct {
	Local Judge
	LLM   Judge
}

// NewComposite returns a Composite using ExactJudge locally.
func NewComposite(llmJudge Judge) *Composite {
	return &Composite{Local: ExactJudge{}, LLM: llmJudge}
}

func (c *Composite) Judge(ctx context.Context, in Input) (*Verdict, error) {
	if in.Question == nil {
		return nil, errors.New("judge: nil question")
	}

	v, err := c.Local.Judge(ctx, in)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrUnsupportedFormat) || in.Question.Format != questiongen.FormatFreeText {
		return nil, err
	}

	if c.LLM == nil {
		return nil, fmt.Errorf("free text answer needs an LLM judge: %w", ErrUnsupportedFormat)
	}
	return c.LLM.Judge(ctx, in)
}
