package cache

import (
	"context"

	"github.com/samber/lo"

	"github.com/abhisek/codequiz/internal/store"
)

// SQLLeaderboard ranks directly from the skill store. Update is a no-op
// because the skill state already holds both values.
type SQLLeaderboard struct {
	skills store.SkillRepo
}

// NewSQLLeaderboard creates a leaderboard over the skill store.
func NewSQLLeaderboard(skills store.SkillRepo) *SQLLeaderboard {
	return &SQLLeaderboard{skills: skills}
}

func (l *SQLLeaderboard) Update(context.Context, string, string, int, int) error {
	return nil
}

func (l *SQLLeaderboard) Top(ctx context.Context, topic string, board Board, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := l.skills.TopSkills(ctx, topic, skillOrder(board), limit)
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(d store.SkillData, i int) Entry {
		return Entry{UserID: d.UserID, Value: boardValue(board, d), Rank: int64(i) + 1}
	}), nil
}

func (l *SQLLeaderboard) Rank(ctx context.Context, topic string, board Board, userID string) (int64, error) {
	rows, err := l.skills.TopSkills(ctx, topic, skillOrder(board), 0)
	if err != nil {
		return 0, err
	}
	_, idx, found := lo.FindIndexOf(rows, func(d store.SkillData) bool { return d.UserID == userID })
	if !found {
		return 0, nil
	}
	return int64(idx) + 1, nil
}

func skillOrder(board Board) store.SkillOrder {
	if board == BoardStreak {
		return store.OrderByBestStreak
	}
	return store.OrderByScore
}

func boardValue(board Board, d store.SkillData) int {
	if board == BoardStreak {
		return d.BestStreak
	}
	return d.Score
}
