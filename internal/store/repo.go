package store

import (
	"context"
	"encoding/json"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match ("" = any)
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
}

// SkillData is the persisted form of one user×topic skill state.
type SkillData struct {
	UserID          string
	Topic           string
	Score           int
	Streak          int
	BestStreak      int
	TotalAttempted  int
	TotalCorrect    int
	LastPracticedAt time.Time // zero if never practiced
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SkillOrder selects the ranking column for TopSkills.
type SkillOrder string

const (
	OrderByScore      SkillOrder = "score"
	OrderByBestStreak SkillOrder = "best_streak"
)

// SkillRepo stores the current skill state per user×topic. Only the latest
// state is kept and states are never deleted.
type SkillRepo interface {
	// GetSkill returns the state for userID×topic, or nil if none exists.
	GetSkill(ctx context.Context, userID, topic string) (*SkillData, error)

	// UpsertSkill inserts or replaces the state for data.UserID×data.Topic.
	UpsertSkill(ctx context.Context, data *SkillData) error

	// ListSkills returns every topic state for a user ordered by topic.
	ListSkills(ctx context.Context, userID string) ([]SkillData, error)

	// TopSkills returns the highest ranked states for a topic.
	TopSkills(ctx context.Context, topic string, order SkillOrder, limit int) ([]SkillData, error)
}

// SessionData is the persisted form of a practice session.
type SessionData struct {
	ID                 string
	UserID             string
	Topic              string
	StartedAt          time.Time
	EndedAt            *time.Time
	QuestionsAttempted int
	QuestionsCorrect   int
	UpdatedAt          time.Time
}

// SessionRepo stores session aggregates.
type SessionRepo interface {
	CreateSession(ctx context.Context, data *SessionData) error

	// GetSession returns the session, or nil if not found.
	GetSession(ctx context.Context, id string) (*SessionData, error)

	// UpdateSession overwrites the mutable columns of an existing session.
	// Returns ErrNotFound if the session does not exist.
	UpdateSession(ctx context.Context, data *SessionData) error

	// ListSessions returns a user's sessions, newest first.
	ListSessions(ctx context.Context, userID string, limit int) ([]SessionData, error)
}

// IssuedQuestionData is a question handed to a user together with its
// hidden payload (canonical answer, choices).
type IssuedQuestionData struct {
	ID         string
	UserID     string
	SessionID  string
	Topic      string
	Difficulty int
	Prompt     string
	Payload    json.RawMessage
	IssuedAt   time.Time
	AnsweredAt *time.Time
}

// QuestionRepo stores issued questions until they are pruned.
type QuestionRepo interface {
	SaveQuestion(ctx context.Context, data *IssuedQuestionData) error

	// GetQuestion returns the question, or nil if not found.
	GetQuestion(ctx context.Context, id string) (*IssuedQuestionData, error)

	// MarkAnswered sets answered_at if it is still unset. It reports false
	// when the question was already answered or does not exist.
	MarkAnswered(ctx context.Context, id string, at time.Time) (bool, error)

	// RecentPrompts returns prompts issued in a session, newest first.
	RecentPrompts(ctx context.Context, sessionID string, limit int) ([]string, error)

	// PruneQuestions deletes questions issued before cutoff and returns the
	// number of rows removed.
	PruneQuestions(ctx context.Context, cutoff time.Time) (int, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMPurposeUsage aggregates token usage for one purpose.
type LLMPurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns a single event, or nil if not found.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMPurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
