package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var questionColumns = []string{
	"id", "user_id", "session_id", "topic", "difficulty",
	"prompt", "payload", "issued_at", "answered_at",
}

// questionRepo implements QuestionRepo.
type questionRepo struct {
	sqlRepo
}

func (r *questionRepo) SaveQuestion(ctx context.Context, data *IssuedQuestionData) error {
	data.IssuedAt = nowIfZero(data.IssuedAt)

	payload := data.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	// Payload is bound as a string: lib/pq sends []byte as bytea, which
	// jsonb rejects.
	q := r.builder().Insert(issuedQuestionsTable).
		Columns(questionColumns...).
		Values(
			data.ID, data.UserID, data.SessionID, data.Topic, data.Difficulty,
			data.Prompt, string(payload), data.IssuedAt, timePtrValue(data.AnsweredAt),
		)
	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("save question %s: %w", data.ID, err)
	}
	return nil
}

func (r *questionRepo) GetQuestion(ctx context.Context, id string) (*IssuedQuestionData, error) {
	b := r.builder()
	q := b.Select(questionColumns...).
		From(b.Table(issuedQuestionsTable)).
		Where(entsql.EQ("id", id)).
		Limit(1)

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query question: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var (
		d        IssuedQuestionData
		payload  []byte
		answered sql.NullTime
	)
	err = rows.Scan(
		&d.ID, &d.UserID, &d.SessionID, &d.Topic, &d.Difficulty,
		&d.Prompt, &payload, &d.IssuedAt, &answered,
	)
	if err != nil {
		return nil, fmt.Errorf("scan question: %w", err)
	}
	d.Payload = json.RawMessage(payload)
	if answered.Valid {
		t := answered.Time
		d.AnsweredAt = &t
	}
	return &d, nil
}

func (r *questionRepo) MarkAnswered(ctx context.Context, id string, at time.Time) (bool, error) {
	q := r.builder().Update(issuedQuestionsTable).
		Set("answered_at", at.UTC()).
		Where(entsql.And(entsql.EQ("id", id), entsql.IsNull("answered_at")))

	res, err := r.exec(ctx, q)
	if err != nil {
		return false, fmt.Errorf("mark question %s answered: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *questionRepo) RecentPrompts(ctx context.Context, sessionID string, limit int) ([]string, error) {
	b := r.builder()
	q := b.Select("prompt").
		From(b.Table(issuedQuestionsTable)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Desc("issued_at"))
	if limit > 0 {
		q.Limit(limit)
	}

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *questionRepo) PruneQuestions(ctx context.Context, cutoff time.Time) (int, error) {
	q := r.builder().Delete(issuedQuestionsTable).
		Where(entsql.LT("issued_at", cutoff.UTC()))

	res, err := r.exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("prune questions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
