package judge

import (
	"context"
	"strconv"
	"strings"

	"github.com/abhisek/codequiz/internal/questiongen"
)

// ExactJudge grades answers locally. Multiple choice answers match by
// 1-based index, by letter (A-D) or by option text. Free text answers are
// only accepted on a normalized exact match, which makes ExactJudge a
// fast path rather than a complete free text grader.
type ExactJudge struct{}

func (ExactJudge) Judge(_ context.Context, in Input) (*Verdict, error) {
	q := in.Question
	answer := strings.TrimSpace(in.Answer)

	switch q.Format {
	case questiongen.FormatMultipleChoice:
		correct := answer != "" && matchChoice(answer, q)
		return &Verdict{
			Correct:    correct,
			Feedback:   feedback(correct, q),
			Confidence: 1,
			Judge:      "exact",
		}, nil
	case questiongen.FormatFreeText:
		if answer != "" && normalize(answer) == normalize(q.Answer) {
			return &Verdict{Correct: true, Feedback: feedback(true, q), Confidence: 1, Judge: "exact"}, nil
		}
		return nil, ErrUnsupportedFormat
	default:
		return nil, ErrUnsupportedFormat
	}
}

// matchChoice resolves the answer to an option. Option text wins over the
// index and letter forms so numeric options stay unambiguous.
func matchChoice(answer string, q *questiongen.Question) bool {
	pick := ""
	for _, c := range q.Choices {
		if strings.EqualFold(strings.TrimSpace(c), answer) {
			pick = c
			break
		}
	}
	if pick == "" {
		if idx, err := strconv.Atoi(answer); err == nil && idx >= 1 && idx <= len(q.Choices) {
			pick = q.Choices[idx-1]
		} else if len(answer) == 1 {
			letter := strings.ToUpper(answer)[0]
			if letter >= 'A' && int(letter-'A') < len(q.Choices) {
				pick = q.Choices[letter-'A']
			}
		}
	}
	return pick != "" && strings.EqualFold(strings.TrimSpace(pick), strings.TrimSpace(q.Answer))
}

func normalize(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.TrimRight(s, ".!")
}

func feedback(correct bool, q *questiongen.Question) string {
	if correct {
		return q.Explanation
	}
	if q.Explanation == "" {
		return "The correct answer is " + q.Answer + "."
	}
	return "The correct answer is " + q.Answer + ". " + q.Explanation
}
