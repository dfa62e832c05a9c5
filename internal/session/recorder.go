package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/codequiz/internal/store"
	"github.com/google/uuid"
)

// DefaultListLimit caps ListByUser when the caller passes no limit.
const DefaultListLimit = 50

// Recorder persists sessions through a store.SessionRepo. Concurrent
// updates to the same session are last-write-wins.
type Recorder struct {
	repo   store.SessionRepo
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder. A nil logger uses slog.Default.
func NewRecorder(repo store.SessionRepo, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger, now: time.Now}
}

// SetClock overrides the time source.
func (r *Recorder) SetClock(now func() time.Time) {
	r.now = now
}

// WithRepo returns a copy of r that persists through repo, such as one bound
// to a transaction.
func (r *Recorder) WithRepo(repo store.SessionRepo) *Recorder {
	c := *r
	c.repo = repo
	return &c
}

// Start opens a new session for userID.
func (r *Recorder) Start(ctx context.Context, userID, topic string) (Session, error) {
	s := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Topic:     topic,
		StartedAt: r.now().UTC(),
	}
	if err := r.repo.CreateSession(ctx, toData(s, s.StartedAt)); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	r.logger.Info("session started", "session", s.ID, "user", userID, "topic", topic)
	return s, nil
}

// Get loads a session. Returns ErrNotFound if it does not exist.
func (r *Recorder) Get(ctx context.Context, id string) (Session, error) {
	d, err := r.repo.GetSession(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("load session %s: %w", id, err)
	}
	if d == nil {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return fromData(d), nil
}

// RecordAttempt counts one judged answer against the session.
func (r *Recorder) RecordAttempt(ctx context.Context, id string, correct bool) (Session, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	next, err := RecordAttempt(s, correct)
	if err != nil {
		return s, err
	}
	if err := r.repo.UpdateSession(ctx, toData(next, r.now().UTC())); err != nil {
		return Session{}, fmt.Errorf("save session %s: %w", id, err)
	}
	return next, nil
}

// End closes the session at the given time.
func (r *Recorder) End(ctx context.Context, id string, at time.Time) (Session, error) {
	s, err := r.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	next, err := End(s, at.UTC())
	if err != nil {
		return s, err
	}
	if err := r.repo.UpdateSession(ctx, toData(next, r.now().UTC())); err != nil {
		return Session{}, fmt.Errorf("save session %s: %w", id, err)
	}
	sum := Summarize(next, at)
	r.logger.Info("session ended",
		"session", id, "user", next.UserID,
		"attempted", sum.Attempted, "correct", sum.Correct, "duration", sum.Duration)
	return next, nil
}

// EndNow closes the session at the recorder's current time.
func (r *Recorder) EndNow(ctx context.Context, id string) (Session, error) {
	return r.End(ctx, id, r.now())
}

// ListByUser returns a user's sessions, newest first.
func (r *Recorder) ListByUser(ctx context.Context, userID string, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := r.repo.ListSessions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", userID, err)
	}
	out := make([]Session, 0, len(rows))
	for i := range rows {
		out = append(out, fromData(&rows[i]))
	}
	return out, nil
}

// Now returns the recorder's current time.
func (r *Recorder) Now() time.Time {
	return r.now()
}

func fromData(d *store.SessionData) Session {
	return Session{
		ID:                 d.ID,
		UserID:             d.UserID,
		Topic:              d.Topic,
		StartedAt:          d.StartedAt,
		EndedAt:            d.EndedAt,
		QuestionsAttempted: d.QuestionsAttempted,
		QuestionsCorrect:   d.QuestionsCorrect,
	}
}

func toData(s Session, updatedAt time.Time) *store.SessionData {
	return &store.SessionData{
		ID:                 s.ID,
		UserID:             s.UserID,
		Topic:              s.Topic,
		StartedAt:          s.StartedAt,
		EndedAt:            s.EndedAt,
		QuestionsAttempted: s.QuestionsAttempted,
		QuestionsCorrect:   s.QuestionsCorrect,
		UpdatedAt:          updatedAt,
	}
}
