package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const leaderboardKeyPrefix = "leaderboard:"

// RedisLeaderboard keeps one sorted set per topic and board.
type RedisLeaderboard struct {
	client redis.UniversalClient
}

// NewRedisLeaderboard creates a leaderboard over client.
func NewRedisLeaderboard(client redis.UniversalClient) *RedisLeaderboard {
	return &RedisLeaderboard{client: client}
}

func leaderboardKey(board Board, topic string) string {
	return leaderboardKeyPrefix + string(board) + ":" + topic
}

func (l *RedisLeaderboard) Update(ctx context.Context, topic, userID string, score, bestStreak int) error {
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, leaderboardKey(BoardScore, topic), redis.Z{Score: float64(score), Member: userID})
		p.ZAdd(ctx, leaderboardKey(BoardStreak, topic), redis.Z{Score: float64(bestStreak), Member: userID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("update leaderboard %s: %w", topic, err)
	}
	return nil
}

func (l *RedisLeaderboard) Top(ctx context.Context, topic string, board Board, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	results, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey(board, topic), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard %s: %w", topic, err)
	}

	entries := make([]Entry, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries[i] = Entry{UserID: member, Value: int(z.Score), Rank: int64(i) + 1}
	}
	return entries, nil
}

func (l *RedisLeaderboard) Rank(ctx context.Context, topic string, board Board, userID string) (int64, error) {
	rank, err := l.client.ZRevRank(ctx, leaderboardKey(board, topic), userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rank %s on %s: %w", userID, topic, err)
	}
	return rank + 1, nil
}

// Remove drops the user from both boards of a topic.
func (l *RedisLeaderboard) Remove(ctx context.Context, topic, userID string) error {
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRem(ctx, leaderboardKey(BoardScore, topic), userID)
		p.ZRem(ctx, leaderboardKey(BoardStreak, topic), userID)
		return nil
	})
	return err
}
