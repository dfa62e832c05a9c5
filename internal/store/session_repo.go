package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

var sessionColumns = []string{
	"id", "user_id", "topic", "started_at", "ended_at",
	"questions_attempted", "questions_correct", "updated_at",
}

// sessionRepo implements SessionRepo.
type sessionRepo struct {
	sqlRepo
}

func (r *sessionRepo) CreateSession(ctx context.Context, data *SessionData) error {
	data.StartedAt = nowIfZero(data.StartedAt)
	data.UpdatedAt = nowIfZero(data.UpdatedAt)

	q := r.builder().Insert(sessionsTable).
		Columns(sessionColumns...).
		Values(
			data.ID, data.UserID, data.Topic, data.StartedAt, timePtrValue(data.EndedAt),
			data.QuestionsAttempted, data.QuestionsCorrect, data.UpdatedAt,
		)
	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("create session %s: %w", data.ID, err)
	}
	return nil
}

func (r *sessionRepo) GetSession(ctx context.Context, id string) (*SessionData, error) {
	b := r.builder()
	q := b.Select(sessionColumns...).
		From(b.Table(sessionsTable)).
		Where(entsql.EQ("id", id)).
		Limit(1)

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	d, err := scanSession(rows)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *sessionRepo) UpdateSession(ctx context.Context, data *SessionData) error {
	data.UpdatedAt = nowIfZero(data.UpdatedAt)

	q := r.builder().Update(sessionsTable).
		Set("ended_at", timePtrValue(data.EndedAt)).
		Set("questions_attempted", data.QuestionsAttempted).
		Set("questions_correct", data.QuestionsCorrect).
		Set("updated_at", data.UpdatedAt).
		Where(entsql.EQ("id", data.ID))

	res, err := r.exec(ctx, q)
	if err != nil {
		return fmt.Errorf("update session %s: %w", data.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", data.ID, ErrNotFound)
	}
	return nil
}

func (r *sessionRepo) ListSessions(ctx context.Context, userID string, limit int) ([]SessionData, error) {
	b := r.builder()
	q := b.Select(sessionColumns...).
		From(b.Table(sessionsTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id"))
	if limit > 0 {
		q.Limit(limit)
	}

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionData
	for rows.Next() {
		d, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanSession(rows *sql.Rows) (SessionData, error) {
	var (
		d     SessionData
		ended sql.NullTime
	)
	err := rows.Scan(
		&d.ID, &d.UserID, &d.Topic, &d.StartedAt, &ended,
		&d.QuestionsAttempted, &d.QuestionsCorrect, &d.UpdatedAt,
	)
	if err != nil {
		return SessionData{}, fmt.Errorf("scan session: %w", err)
	}
	if ended.Valid {
		t := ended.Time
		d.EndedAt = &t
	}
	return d, nil
}
