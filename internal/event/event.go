// Package event publishes practice domain events.
package event

import (
	"context"
	"sync"
	"time"
)

// Type is the routing key of an event.
type Type string

const (
	TypeAnswerJudged   Type = "practice.answer.judged"
	TypeSessionStarted Type = "practice.session.started"
	TypeSessionEnded   Type = "practice.session.ended"
)

// Event is a domain event. Data carries type-specific fields.
type Event struct {
	Type       Type           `json:"type"`
	UserID     string         `json:"user_id"`
	Topic      string         `json:"topic,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher delivers events. Publishing is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Memory keeps published events in memory.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}
