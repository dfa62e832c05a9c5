package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

var skillColumns = []string{
	"user_id", "topic", "score", "streak", "best_streak",
	"total_attempted", "total_correct", "last_practiced_at",
	"created_at", "updated_at",
}

// skillRepo implements SkillRepo.
type skillRepo struct {
	sqlRepo
}

func (r *skillRepo) GetSkill(ctx context.Context, userID, topic string) (*SkillData, error) {
	b := r.builder()
	q := b.Select(skillColumns...).
		From(b.Table(skillStatesTable)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("topic", topic))).
		Limit(1)

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query skill: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	d, err := scanSkill(rows)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *skillRepo) UpsertSkill(ctx context.Context, data *SkillData) error {
	data.CreatedAt = nowIfZero(data.CreatedAt)
	data.UpdatedAt = nowIfZero(data.UpdatedAt)

	q := r.builder().Insert(skillStatesTable).
		Columns(skillColumns...).
		Values(
			data.UserID, data.Topic, data.Score, data.Streak, data.BestStreak,
			data.TotalAttempted, data.TotalCorrect, nullableTime(data.LastPracticedAt),
			data.CreatedAt, data.UpdatedAt,
		).
		OnConflict(
			entsql.ConflictColumns("user_id", "topic"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range skillColumns[2:] {
					if c == "created_at" {
						continue
					}
					u.SetExcluded(c)
				}
			}),
		)

	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("upsert skill %s/%s: %w", data.UserID, data.Topic, err)
	}
	return nil
}

func (r *skillRepo) ListSkills(ctx context.Context, userID string) ([]SkillData, error) {
	b := r.builder()
	q := b.Select(skillColumns...).
		From(b.Table(skillStatesTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("topic")
	return r.list(ctx, q)
}

func (r *skillRepo) TopSkills(ctx context.Context, topic string, order SkillOrder, limit int) ([]SkillData, error) {
	switch order {
	case OrderByScore, OrderByBestStreak:
	default:
		return nil, fmt.Errorf("unsupported skill order %q", order)
	}

	b := r.builder()
	q := b.Select(skillColumns...).
		From(b.Table(skillStatesTable)).
		Where(entsql.And(entsql.EQ("topic", topic), entsql.GT("total_attempted", 0))).
		OrderBy(entsql.Desc(string(order)), entsql.Asc("user_id"))
	if limit > 0 {
		q.Limit(limit)
	}
	return r.list(ctx, q)
}

func (r *skillRepo) list(ctx context.Context, q *entsql.Selector) ([]SkillData, error) {
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	var out []SkillData
	for rows.Next() {
		d, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanSkill(rows *sql.Rows) (SkillData, error) {
	var (
		d    SkillData
		last sql.NullTime
	)
	err := rows.Scan(
		&d.UserID, &d.Topic, &d.Score, &d.Streak, &d.BestStreak,
		&d.TotalAttempted, &d.TotalCorrect, &last,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return SkillData{}, fmt.Errorf("scan skill: %w", err)
	}
	if last.Valid {
		d.LastPracticedAt = last.Time
	}
	return d, nil
}
