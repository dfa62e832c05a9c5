package session

import (
	"errors"
	"time"
)

var (
	// ErrSessionClosed is returned when recording into or ending a session
	// that has already ended.
	ErrSessionClosed = errors.New("session already ended")

	// ErrEndBeforeStart is returned when the end time precedes the start.
	ErrEndBeforeStart = errors.New("session end precedes start")

	// ErrNotFound is returned when a session ID does not exist.
	ErrNotFound = errors.New("session not found")
)

// Session holds the aggregate counters for one bounded practice window.
type Session struct {
	ID     string
	UserID string

	// Topic is optional. A session may span several topics.
	Topic string

	StartedAt time.Time
	EndedAt   *time.Time // nil while open

	QuestionsAttempted int
	QuestionsCorrect   int
}

// Open reports whether the session still accepts attempts.
func (s Session) Open() bool {
	return s.EndedAt == nil
}

// RecordAttempt returns s with one more attempt counted.
func RecordAttempt(s Session, correct bool) (Session, error) {
	if !s.Open() {
		return s, ErrSessionClosed
	}
	s.QuestionsAttempted++
	if correct {
		s.QuestionsCorrect++
	}
	return s, nil
}

// End returns s closed at now.
func End(s Session, now time.Time) (Session, error) {
	if !s.Open() {
		return s, ErrSessionClosed
	}
	if now.Before(s.StartedAt) {
		return s, ErrEndBeforeStart
	}
	end := now
	s.EndedAt = &end
	return s, nil
}
