package practice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/codequiz/internal/questiongen"
	"github.com/abhisek/codequiz/internal/store"
)

// IssuedQuestion is the client view of a question. It never carries the
// canonical answer.
type IssuedQuestion struct {
	ID         string             `json:"id"`
	SessionID  string             `json:"session_id"`
	Topic      string             `json:"topic"`
	Language   string             `json:"language"`
	Prompt     string             `json:"prompt"`
	Code       string             `json:"code,omitempty"`
	Format     questiongen.Format `json:"format"`
	Choices    []string           `json:"choices,omitempty"`
	Difficulty int                `json:"difficulty"`
	IssuedAt   time.Time          `json:"issued_at"`
}

// payload is the stored part of a question that is not a column.
type payload struct {
	Language    string             `json:"language"`
	Code        string             `json:"code,omitempty"`
	Format      questiongen.Format `json:"format"`
	Choices     []string           `json:"choices,omitempty"`
	Answer      string             `json:"answer"`
	Explanation string             `json:"explanation,omitempty"`
}

// NextQuestion generates a question for topic at the user's current score
// and records it as issued in the session. An empty topic falls back to the
// session's topic.
func (s *Service) NextQuestion(ctx context.Context, userID, sessionID, topic string) (*IssuedQuestion, error) {
	sess, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Open() {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionClosed)
	}
	if topic == "" {
		topic = sess.Topic
	}
	if topic == "" {
		return nil, ErrTopicRequired
	}

	state, err := s.skills.Get(ctx, userID, topic)
	if err != nil {
		return nil, err
	}
	prior, err := s.priorPrompts(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load prior prompts: %w", err)
	}

	q, err := s.generate(ctx, questiongen.GenerateInput{
		Topic:            topic,
		Language:         s.config.DefaultLanguage,
		TargetDifficulty: state.Score,
		PriorQuestions:   prior,
	})
	s.metrics.ObserveQuestion(topic, err)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload{
		Language:    q.Language,
		Code:        q.Code,
		Format:      q.Format,
		Choices:     q.Choices,
		Answer:      q.Answer,
		Explanation: q.Explanation,
	})
	if err != nil {
		return nil, fmt.Errorf("encode question payload: %w", err)
	}

	data := &store.IssuedQuestionData{
		ID:         q.ID,
		UserID:     userID,
		SessionID:  sessionID,
		Topic:      topic,
		Difficulty: q.Difficulty,
		Prompt:     q.Prompt,
		Payload:    body,
		IssuedAt:   s.now().UTC(),
	}
	if err := s.questions.SaveQuestion(ctx, data); err != nil {
		return nil, err
	}

	s.logger.Debug("question issued",
		"user", userID, "session", sessionID, "topic", topic,
		"question", q.ID, "target", state.Score, "difficulty", q.Difficulty)

	return &IssuedQuestion{
		ID:         q.ID,
		SessionID:  sessionID,
		Topic:      topic,
		Language:   q.Language,
		Prompt:     q.Prompt,
		Code:       q.Code,
		Format:     q.Format,
		Choices:    q.Choices,
		Difficulty: q.Difficulty,
		IssuedAt:   data.IssuedAt,
	}, nil
}

// generate calls the generator, retrying retryable validation failures.
func (s *Service) generate(ctx context.Context, input questiongen.GenerateInput) (*questiongen.Question, error) {
	var lastErr error
	for attempt := 1; attempt <= s.config.GenerateAttempts; attempt++ {
		q, err := s.generator.Generate(ctx, input)
		if err == nil {
			return q, nil
		}
		lastErr = err

		var verr *questiongen.ValidationError
		if !errors.As(err, &verr) || !verr.Retryable {
			break
		}
		s.logger.Info("generated question rejected, retrying",
			"topic", input.Topic, "attempt", attempt, "validator", verr.Validator, "reason", verr.Message)
	}
	return nil, fmt.Errorf("%w: %w", ErrGeneration, lastErr)
}

// loadQuestion rebuilds a stored question, answer included.
func loadQuestion(d *store.IssuedQuestionData) (*questiongen.Question, error) {
	var p payload
	if err := json.Unmarshal(d.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode question %s payload: %w", d.ID, err)
	}
	return &questiongen.Question{
		ID:          d.ID,
		Topic:       d.Topic,
		Language:    p.Language,
		Prompt:      d.Prompt,
		Code:        p.Code,
		Format:      p.Format,
		Choices:     p.Choices,
		Answer:      p.Answer,
		Explanation: p.Explanation,
		Difficulty:  d.Difficulty,
	}, nil
}
