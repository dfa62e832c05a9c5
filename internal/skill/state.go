package skill

import "time"

// Score bounds and lazy-initialization defaults.
const (
	MinScore     = 1
	MaxScore     = 100
	DefaultScore = 10

	MinDifficulty = 1
	MaxDifficulty = 100
)

// State is a user's current proficiency in one topic.
type State struct {
	UserID string
	Topic  string

	// Score is the skill estimate in [MinScore, MaxScore]. It doubles as the
	// target difficulty for the next generated question.
	Score int

	// Streak counts consecutive correct answers. Any incorrect answer resets it.
	Streak int

	// BestStreak is the highest Streak ever observed.
	BestStreak int

	TotalAttempted int
	TotalCorrect   int

	// LastPracticedAt is zero until the first attempt.
	LastPracticedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewState returns the default state for a user×topic pair that has never
// been practiced.
func NewState(userID, topic string) State {
	return State{
		UserID: userID,
		Topic:  topic,
		Score:  DefaultScore,
	}
}

// Accuracy returns the fraction of attempts answered correctly, 0 when
// nothing has been attempted.
func (s State) Accuracy() float64 {
	if s.TotalAttempted == 0 {
		return 0
	}
	return float64(s.TotalCorrect) / float64(s.TotalAttempted)
}

// IsNew reports whether the state has never been persisted.
func (s State) IsNew() bool {
	return s.TotalAttempted == 0 && s.CreatedAt.IsZero()
}
