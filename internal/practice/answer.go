package practice

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/codequiz/internal/cache"
	"github.com/abhisek/codequiz/internal/event"
	"github.com/abhisek/codequiz/internal/judge"
	"github.com/abhisek/codequiz/internal/session"
	"github.com/abhisek/codequiz/internal/skill"
	"github.com/abhisek/codequiz/internal/store"
)

// Submission is one answer to an issued question.
type Submission struct {
	UserID     string
	SessionID  string
	QuestionID string
	Answer     string
}

// Result is the outcome of a scored submission.
type Result struct {
	QuestionID    string  `json:"question_id"`
	Correct       bool    `json:"correct"`
	Feedback      string  `json:"feedback,omitempty"`
	Explanation   string  `json:"explanation,omitempty"`
	CorrectAnswer string  `json:"correct_answer"`
	Judge         string  `json:"judge"`
	Confidence    float64 `json:"confidence"`

	PreviousScore int `json:"previous_score"`
	Score         int `json:"score"`
	Delta         int `json:"delta"`
	Streak        int `json:"streak"`
	BestStreak    int `json:"best_streak"`

	SessionAttempted int `json:"session_attempted"`
	SessionCorrect   int `json:"session_correct"`
}

// SubmitAnswer judges an answer and, with a verdict, applies it to the
// skill state, the session and the leaderboards. A question scores once:
// later submissions fail with ErrDuplicateSubmission. When judging or
// persisting fails nothing is changed and the question stays answerable.
func (s *Service) SubmitAnswer(ctx context.Context, sub Submission) (*Result, error) {
	data, err := s.questions.GetQuestion(ctx, sub.QuestionID)
	if err != nil {
		return nil, err
	}
	if data == nil || (sub.SessionID != "" && data.SessionID != sub.SessionID) {
		return nil, fmt.Errorf("question %s: %w", sub.QuestionID, ErrQuestionNotFound)
	}
	if data.UserID != sub.UserID {
		return nil, fmt.Errorf("question %s: %w", sub.QuestionID, ErrForbidden)
	}
	if data.AnsweredAt != nil {
		return nil, fmt.Errorf("question %s: %w", sub.QuestionID, ErrDuplicateSubmission)
	}

	sess, err := s.ownedSession(ctx, sub.UserID, data.SessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Open() {
		return nil, fmt.Errorf("session %s: %w", sess.ID, ErrSessionClosed)
	}

	q, err := loadQuestion(data)
	if err != nil {
		return nil, err
	}

	verdict, err := s.judge.Judge(ctx, judge.Input{Question: q, Answer: sub.Answer})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJudging, err)
	}

	unlock, err := s.locker.Lock(ctx, cache.LockKey(sub.UserID, data.Topic))
	if err != nil {
		return nil, fmt.Errorf("acquire practice lock: %w", err)
	}
	defer unlock()

	var (
		before, after skill.State
		updated       session.Session
		closed        bool
	)
	err = s.tx.InTx(ctx, func(r store.Repos) error {
		ok, err := r.Questions.MarkAnswered(ctx, data.ID, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("question %s: %w", sub.QuestionID, ErrDuplicateSubmission)
		}

		skills := s.skills.WithRepo(r.Skills)
		if before, err = skills.Get(ctx, sub.UserID, data.Topic); err != nil {
			return err
		}
		if after, err = skills.ApplyResult(ctx, sub.UserID, data.Topic, verdict.Correct, data.Difficulty); err != nil {
			return err
		}

		updated, err = s.sessions.WithRepo(r.Sessions).RecordAttempt(ctx, data.SessionID, verdict.Correct)
		if errors.Is(err, session.ErrSessionClosed) {
			// Ended between the check above and now. The skill update stands.
			closed = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if closed {
		s.logger.Warn("session closed before attempt was recorded",
			"session", data.SessionID, "question", data.ID)
	}

	res := &Result{
		QuestionID:       data.ID,
		Correct:          verdict.Correct,
		Feedback:         verdict.Feedback,
		Explanation:      q.Explanation,
		CorrectAnswer:    q.Answer,
		Judge:            verdict.Judge,
		Confidence:       verdict.Confidence,
		PreviousScore:    before.Score,
		Score:            after.Score,
		Delta:            after.Score - before.Score,
		Streak:           after.Streak,
		BestStreak:       after.BestStreak,
		SessionAttempted: updated.QuestionsAttempted,
		SessionCorrect:   updated.QuestionsCorrect,
	}

	if s.leaderboard != nil {
		if err := s.leaderboard.Update(ctx, data.Topic, sub.UserID, after.Score, after.BestStreak); err != nil {
			s.logger.Warn("failed to update leaderboard", "topic", data.Topic, "user", sub.UserID, "error", err)
		}
	}

	s.metrics.ObserveAnswer(data.Topic, verdict.Correct, res.Delta)
	s.publish(ctx, event.Event{
		Type:      event.TypeAnswerJudged,
		UserID:    sub.UserID,
		Topic:     data.Topic,
		SessionID: data.SessionID,
		Data: map[string]any{
			"question_id": data.ID,
			"correct":     verdict.Correct,
			"difficulty":  data.Difficulty,
			"score":       after.Score,
			"delta":       res.Delta,
			"streak":      after.Streak,
			"judge":       verdict.Judge,
		},
	})

	s.logger.Info("answer judged",
		"user", sub.UserID, "topic", data.Topic, "question", data.ID,
		"correct", verdict.Correct, "score", after.Score, "delta", res.Delta)
	return res, nil
}
