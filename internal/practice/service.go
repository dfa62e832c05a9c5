// Package practice runs the question/answer loop: it issues generated
// questions, judges answers and applies the results to skill state,
// sessions and leaderboards.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/abhisek/codequiz/internal/cache"
	"github.com/abhisek/codequiz/internal/event"
	"github.com/abhisek/codequiz/internal/judge"
	"github.com/abhisek/codequiz/internal/questiongen"
	"github.com/abhisek/codequiz/internal/session"
	"github.com/abhisek/codequiz/internal/skill"
	"github.com/abhisek/codequiz/internal/store"
)

// Metrics receives practice counters. *metrics.Metrics implements it.
type Metrics interface {
	ObserveAnswer(topic string, correct bool, delta int)
	ObserveQuestion(topic string, err error)
	SessionStarted()
	SessionEnded()
}

type nopMetrics struct{}

func (nopMetrics) ObserveAnswer(string, bool, int)  {}
func (nopMetrics) ObserveQuestion(string, error)    {}
func (nopMetrics) SessionStarted()                  {}
func (nopMetrics) SessionEnded()                    {}

// Config tunes the service.
type Config struct {
	DefaultLanguage string

	// MaxPriorQuestions caps the session prompts passed to the generator
	// for deduplication.
	MaxPriorQuestions int

	// GenerateAttempts bounds generator calls per question when
	// validation fails with a retryable error.
	GenerateAttempts int
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		DefaultLanguage:   "go",
		MaxPriorQuestions: 10,
		GenerateAttempts:  3,
	}
}

// Deps are the collaborators of a Service. Skills, Sessions, Questions, Tx,
// Generator and Judge are required; the rest default to in-process or
// no-op implementations.
type Deps struct {
	Skills    *skill.Tracker
	Sessions  *session.Recorder
	Questions store.QuestionRepo
	Generator questiongen.Generator
	Judge     judge.Judge

	// Tx scores an answer atomically: consuming the question, updating the
	// skill and counting the attempt commit or roll back together.
	Tx store.Transactor

	Locker      cache.Locker
	Leaderboard cache.Leaderboard
	Events      event.Publisher
	Metrics     Metrics
	Logger      *slog.Logger
	Now         func() time.Time
}

// Service implements the practice operations.
type Service struct {
	skills    *skill.Tracker
	sessions  *session.Recorder
	questions store.QuestionRepo
	generator questiongen.Generator
	judge     judge.Judge
	tx        store.Transactor

	locker      cache.Locker
	leaderboard cache.Leaderboard
	events      event.Publisher
	metrics     Metrics
	logger      *slog.Logger
	now         func() time.Time
	config      Config
}

// New creates a Service.
func New(d Deps, cfg Config) (*Service, error) {
	switch {
	case d.Skills == nil:
		return nil, errors.New("practice: skill tracker is required")
	case d.Sessions == nil:
		return nil, errors.New("practice: session recorder is required")
	case d.Questions == nil:
		return nil, errors.New("practice: question repo is required")
	case d.Generator == nil:
		return nil, errors.New("practice: generator is required")
	case d.Judge == nil:
		return nil, errors.New("practice: judge is required")
	case d.Tx == nil:
		return nil, errors.New("practice: transactor is required")
	}

	if cfg.GenerateAttempts < 1 {
		cfg.GenerateAttempts = 1
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = DefaultConfig().DefaultLanguage
	}

	s := &Service{
		skills:      d.Skills,
		sessions:    d.Sessions,
		questions:   d.Questions,
		generator:   d.Generator,
		judge:       d.Judge,
		tx:          d.Tx,
		locker:      d.Locker,
		leaderboard: d.Leaderboard,
		events:      d.Events,
		metrics:     d.Metrics,
		logger:      d.Logger,
		now:         d.Now,
		config:      cfg,
	}
	if s.locker == nil {
		s.locker = cache.NewLocalLocker()
	}
	if s.events == nil {
		s.events = event.Nop{}
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// StartSession opens a practice session. topic may be empty.
func (s *Service) StartSession(ctx context.Context, userID, topic string) (session.Session, error) {
	sess, err := s.sessions.Start(ctx, userID, topic)
	if err != nil {
		return session.Session{}, err
	}
	s.metrics.SessionStarted()
	s.publish(ctx, event.Event{
		Type:      event.TypeSessionStarted,
		UserID:    userID,
		Topic:     topic,
		SessionID: sess.ID,
	})
	return sess, nil
}

// GetSession returns a session owned by userID with its summary.
func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (session.Session, session.Summary, error) {
	sess, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return session.Session{}, session.Summary{}, err
	}
	return sess, session.Summarize(sess, s.now()), nil
}

// EndSession closes a session owned by userID.
func (s *Service) EndSession(ctx context.Context, userID, sessionID string) (session.Session, session.Summary, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return session.Session{}, session.Summary{}, err
	}

	now := s.now()
	ended, err := s.sessions.End(ctx, sessionID, now)
	if err != nil {
		return session.Session{}, session.Summary{}, err
	}
	sum := session.Summarize(ended, now)

	s.metrics.SessionEnded()
	s.publish(ctx, event.Event{
		Type:      event.TypeSessionEnded,
		UserID:    userID,
		Topic:     ended.Topic,
		SessionID: sessionID,
		Data: map[string]any{
			"attempted":        sum.Attempted,
			"correct":          sum.Correct,
			"duration_seconds": int(sum.Duration.Seconds()),
		},
	})
	return ended, sum, nil
}

// ListSessions returns the user's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID string, limit int) ([]session.Session, error) {
	return s.sessions.ListByUser(ctx, userID, limit)
}

// Skill returns the user's state for one topic.
func (s *Service) Skill(ctx context.Context, userID, topic string) (skill.State, error) {
	return s.skills.Get(ctx, userID, topic)
}

// Progress returns the user's state for every practiced topic.
func (s *Service) Progress(ctx context.Context, userID string) ([]skill.State, error) {
	return s.skills.Progress(ctx, userID)
}

// Leaderboard returns the top entries for a topic.
func (s *Service) Leaderboard(ctx context.Context, topic string, board cache.Board, limit int) ([]cache.Entry, error) {
	if s.leaderboard == nil {
		return nil, errors.New("leaderboard not configured")
	}
	return s.leaderboard.Top(ctx, topic, board, limit)
}

// Ranks returns the user's rank on both boards for a topic.
func (s *Service) Ranks(ctx context.Context, topic, userID string) (cache.Ranks, error) {
	if s.leaderboard == nil {
		return cache.Ranks{}, nil
	}
	return cache.RanksFor(ctx, s.leaderboard, topic, userID)
}

// ownedSession loads a session and checks that userID owns it.
func (s *Service) ownedSession(ctx context.Context, userID, sessionID string) (session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return session.Session{}, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	if err != nil {
		return session.Session{}, err
	}
	if sess.UserID != userID {
		return session.Session{}, fmt.Errorf("session %s: %w", sessionID, ErrForbidden)
	}
	return sess, nil
}

// publish delivers an event. Failures are logged and swallowed.
func (s *Service) publish(ctx context.Context, e event.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now().UTC()
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", "type", e.Type, "user", e.UserID, "error", err)
	}
}

// priorPrompts returns the session's issued prompts, oldest first.
func (s *Service) priorPrompts(ctx context.Context, sessionID string) ([]string, error) {
	prompts, err := s.questions.RecentPrompts(ctx, sessionID, s.config.MaxPriorQuestions)
	if err != nil {
		return nil, err
	}
	slices.Reverse(prompts)
	return prompts, nil
}
