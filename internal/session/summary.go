package session

import "time"

// Summary is the derived view of a session.
type Summary struct {
	Attempted int
	Correct   int
	Accuracy  float64
	Duration  time.Duration
	Ended     bool
}

// Summarize derives accuracy and duration. Open sessions are measured up to
// now.
func Summarize(s Session, now time.Time) Summary {
	var accuracy float64
	if s.QuestionsAttempted > 0 {
		accuracy = float64(s.QuestionsCorrect) / float64(s.QuestionsAttempted)
	}

	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	d := end.Sub(s.StartedAt)
	if d < 0 {
		d = 0
	}

	return Summary{
		Attempted: s.QuestionsAttempted,
		Correct:   s.QuestionsCorrect,
		Accuracy:  accuracy,
		Duration:  d,
		Ended:     s.EndedAt != nil,
	}
}
