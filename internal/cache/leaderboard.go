package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Board selects the ranking metric.
type Board string

const (
	BoardScore  Board = "score"
	BoardStreak Board = "streak"
)

// ParseBoard validates a board name, defaulting to BoardScore for "".
func ParseBoard(s string) (Board, error) {
	switch Board(s) {
	case "", BoardScore:
		return BoardScore, nil
	case BoardStreak:
		return BoardStreak, nil
	}
	return "", fmt.Errorf("unknown leaderboard %q", s)
}

// Entry is one leaderboard row. Rank is 1-based.
type Entry struct {
	UserID string `json:"user_id"`
	Value  int    `json:"value"`
	Rank   int64  `json:"rank"`
}

// Ranks holds a user's 1-based rank on both boards; 0 means unranked.
type Ranks struct {
	Score  int64 `json:"score"`
	Streak int64 `json:"streak"`
}

// Leaderboard ranks users per topic by skill score and best streak.
type Leaderboard interface {
	// Update records the user's current score and best streak.
	Update(ctx context.Context, topic, userID string, score, bestStreak int) error

	// Top returns up to limit entries, highest first.
	Top(ctx context.Context, topic string, board Board, limit int) ([]Entry, error)

	// Rank returns the user's 1-based rank, or 0 if the user is unranked.
	Rank(ctx context.Context, topic string, board Board, userID string) (int64, error)
}

// RanksFor looks up both ranks concurrently.
func RanksFor(ctx context.Context, lb Leaderboard, topic, userID string) (Ranks, error) {
	var r Ranks
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		r.Score, err = lb.Rank(ctx, topic, BoardScore, userID)
		return err
	})
	g.Go(func() error {
		var err error
		r.Streak, err = lb.Rank(ctx, topic, BoardStreak, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Ranks{}, err
	}
	return r, nil
}
