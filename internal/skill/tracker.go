package skill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/codequiz/internal/store"
)

// Tracker applies judged answers to persisted skill states.
type Tracker struct {
	repo   store.SkillRepo
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source used for LastPracticedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger used for clamping warnings.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker creates a Tracker backed by repo.
func NewTracker(repo store.SkillRepo, opts ...Option) *Tracker {
	t := &Tracker{
		repo:   repo,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Get returns the state for userID×topic. A pair that has never been
// practiced yields the default state, not an error.
func (t *Tracker) Get(ctx context.Context, userID, topic string) (State, error) {
	data, err := t.repo.GetSkill(ctx, userID, topic)
	if err != nil {
		return State{}, fmt.Errorf("load skill %s/%s: %w", userID, topic, err)
	}
	if data == nil {
		return NewState(userID, topic), nil
	}
	return fromData(data), nil
}

// ApplyResult records one judged answer and returns the new state. The
// caller must serialize calls for the same userID×topic.
func (t *Tracker) ApplyResult(ctx context.Context, userID, topic string, correct bool, difficulty int) (State, error) {
	if clamped, out := ClampDifficulty(difficulty); out {
		t.logger.Warn("difficulty out of range, clamping",
			"user", userID, "topic", topic,
			"difficulty", difficulty, "clamped", clamped)
	}

	cur, err := t.Get(ctx, userID, topic)
	if err != nil {
		return State{}, err
	}

	now := t.now().UTC()
	next := Transition(cur, correct, difficulty, now)
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	next.UpdatedAt = now

	if err := t.repo.UpsertSkill(ctx, toData(next)); err != nil {
		return State{}, fmt.Errorf("save skill %s/%s: %w", userID, topic, err)
	}

	t.logger.Debug("skill updated",
		"user", userID, "topic", topic, "correct", correct,
		"score_before", cur.Score, "score_after", next.Score, "streak", next.Streak)
	return next, nil
}

// Progress returns every practiced topic for a user ordered by topic.
func (t *Tracker) Progress(ctx context.Context, userID string) ([]State, error) {
	rows, err := t.repo.ListSkills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list skills for %s: %w", userID, err)
	}
	out := make([]State, 0, len(rows))
	for i := range rows {
		out = append(out, fromData(&rows[i]))
	}
	return out, nil
}

// Reset puts the score back to DefaultScore and clears the current streak.
// The state itself is kept along with its totals and BestStreak. It reports
// whether a state existed; a pair never practiced is left alone.
func (t *Tracker) Reset(ctx context.Context, userID, topic string) (State, bool, error) {
	data, err := t.repo.GetSkill(ctx, userID, topic)
	if err != nil {
		return State{}, false, fmt.Errorf("load skill %s/%s: %w", userID, topic, err)
	}
	if data == nil {
		return NewState(userID, topic), false, nil
	}

	s := fromData(data)
	s.Score = DefaultScore
	s.Streak = 0
	s.UpdatedAt = t.now().UTC()
	if err := t.repo.UpsertSkill(ctx, toData(s)); err != nil {
		return State{}, false, fmt.Errorf("reset skill %s/%s: %w", userID, topic, err)
	}
	t.logger.Info("skill reset", "user", userID, "topic", topic, "best_streak", s.BestStreak)
	return s, true, nil
}

// WithRepo returns a copy of t that reads and writes through repo, such as
// one bound to a transaction.
func (t *Tracker) WithRepo(repo store.SkillRepo) *Tracker {
	c := *t
	c.repo = repo
	return &c
}

func fromData(d *store.SkillData) State {
	return State{
		UserID:          d.UserID,
		Topic:           d.Topic,
		Score:           d.Score,
		Streak:          d.Streak,
		BestStreak:      d.BestStreak,
		TotalAttempted:  d.TotalAttempted,
		TotalCorrect:    d.TotalCorrect,
		LastPracticedAt: d.LastPracticedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toData(s State) *store.SkillData {
	return &store.SkillData{
		UserID:          s.UserID,
		Topic:           s.Topic,
		Score:           s.Score,
		Streak:          s.Streak,
		BestStreak:      s.BestStreak,
		TotalAttempted:  s.TotalAttempted,
		TotalCorrect:    s.TotalCorrect,
		LastPracticedAt: s.LastPracticedAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
