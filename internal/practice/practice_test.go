package practice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/codequiz/internal/cache"
	"github.com/abhisek/codequiz/internal/event"
	"github.com/abhisek/codequiz/internal/judge"
	"github.com/abhisek/codequiz/internal/llm"
	"github.com/abhisek/codequiz/internal/questiongen"
	"github.com/abhisek/codequiz/internal/session"
	"github.com/abhisek/codequiz/internal/skill"
	"github.com/abhisek/codequiz/internal/store"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// stubGenerator returns queued results, then a fixed question.
type stubGenerator struct {
	mu      sync.Mutex
	errs    []error
	calls   int
	inputs  []questiongen.GenerateInput
	nextDif int
}

func (g *stubGenerator) Generate(_ context.Context, in questiongen.GenerateInput) (*questiongen.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.inputs = append(g.inputs, in)
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return nil, err
	}
	difficulty := g.nextDif
	if difficulty == 0 {
		difficulty = 35
	}
	return &questiongen.Question{
		ID:          fmt.Sprintf("q-%d", g.calls),
		Topic:       in.Topic,
		Language:    in.Language,
		Prompt:      "What does append do when capacity is exhausted?",
		Format:      questiongen.FormatMultipleChoice,
		Choices:     []string{"panics", "allocates a new array", "truncates", "blocks"},
		Answer:      "allocates a new array",
		Explanation: "append grows the backing array.",
		Difficulty:  difficulty,
	}, nil
}

type failingJudge struct{ err error }

func (j failingJudge) Judge(context.Context, judge.Input) (*judge.Verdict, error) {
	return nil, j.err
}

type fixture struct {
	svc    *Service
	store  *store.Store
	gen    *stubGenerator
	events *event.Memory
}

func newFixture(t *testing.T, opts ...func(*Deps)) *fixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "practice.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return testNow }

	recorder := session.NewRecorder(st.SessionRepo(), logger)
	recorder.SetClock(clock)

	f := &fixture{store: st, gen: &stubGenerator{}, events: &event.Memory{}}
	deps := Deps{
		Skills:      skill.NewTracker(st.SkillRepo(), skill.WithClock(clock), skill.WithLogger(logger)),
		Sessions:    recorder,
		Questions:   st.QuestionRepo(),
		Tx:          st,
		Generator:   f.gen,
		Judge:       judge.NewComposite(nil),
		Leaderboard: cache.NewSQLLeaderboard(st.SkillRepo()),
		Events:      f.events,
		Logger:      logger,
		Now:         clock,
	}
	for _, o := range opts {
		o(&deps)
	}

	f.svc, err = New(deps, DefaultConfig())
	require.NoError(t, err)
	return f
}

func (f *fixture) startAndIssue(t *testing.T, user string) (session.Session, *IssuedQuestion) {
	t.Helper()
	ctx := context.Background()
	sess, err := f.svc.StartSession(ctx, user, "slices")
	require.NoError(t, err)
	q, err := f.svc.NextQuestion(ctx, user, sess.ID, "")
	require.NoError(t, err)
	return sess, q
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{}, DefaultConfig())
	assert.Error(t, err)
}

func TestPracticeLoop_CorrectAnswer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, q := f.startAndIssue(t, "ana")
	assert.Equal(t, "slices", q.Topic, "topic falls back to the session")
	assert.Equal(t, 10, f.gen.inputs[0].TargetDifficulty, "new users start at the default score")
	assert.Equal(t, "go", f.gen.inputs[0].Language)

	view, err := json.Marshal(q)
	require.NoError(t, err)
	assert.NotContains(t, string(view), `"answer"`, "issued view must not expose the answer")

	res, err := f.svc.SubmitAnswer(ctx, Submission{
		UserID: "ana", SessionID: sess.ID, QuestionID: q.ID, Answer: "B",
	})
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, 10, res.PreviousScore)
	assert.Equal(t, 13, res.Score, "above-level correct answer adds 3")
	assert.Equal(t, 3, res.Delta)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, "allocates a new array", res.CorrectAnswer)
	assert.Equal(t, 1, res.SessionAttempted)
	assert.Equal(t, 1, res.SessionCorrect)

	state, err := f.svc.Skill(ctx, "ana", "slices")
	require.NoError(t, err)
	assert.Equal(t, 13, state.Score)
	assert.Equal(t, testNow, state.LastPracticedAt)

	top, err := f.svc.Leaderboard(ctx, "slices", cache.BoardScore, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, cache.Entry{UserID: "ana", Value: 13, Rank: 1}, top[0])

	events := f.events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, event.TypeSessionStarted, events[0].Type)
	assert.Equal(t, event.TypeAnswerJudged, events[1].Type)
	assert.Equal(t, true, events[1].Data["correct"])
	assert.Equal(t, 13, events[1].Data["score"])

	// The next question targets the new score.
	_, err = f.svc.NextQuestion(ctx, "ana", sess.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 13, f.gen.inputs[1].TargetDifficulty)
	assert.Equal(t, []string{q.Prompt}, f.gen.inputs[1].PriorQuestions)
}

func TestPracticeLoop_IncorrectAnswer(t *testing.T) {
	f := newFixture(t)
	f.gen.nextDif = 5
	sess, q := f.startAndIssue(t, "ana")

	res, err := f.svc.SubmitAnswer(context.Background(), Submission{
		UserID: "ana", SessionID: sess.ID, QuestionID: q.ID, Answer: "panics",
	})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, 5, res.Score, "easy miss with no streak costs 5")
	assert.Equal(t, -5, res.Delta)
	assert.Equal(t, 0, res.Streak)
	assert.Contains(t, res.Feedback, "allocates a new array")
}

func TestSubmitAnswer_Duplicate(t *testing.T) {
	f := newFixture(t)
	sess, q := f.startAndIssue(t, "ana")
	sub := Submission{UserID: "ana", SessionID: sess.ID, QuestionID: q.ID, Answer: "2"}

	_, err := f.svc.SubmitAnswer(context.Background(), sub)
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswer(context.Background(), sub)
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	state, err := f.svc.Skill(context.Background(), "ana", "slices")
	require.NoError(t, err)
	assert.Equal(t, 1, state.TotalAttempted)
}

func TestSubmitAnswer_ConcurrentDuplicatesScoreOnce(t *testing.T) {
	f := newFixture(t)
	sess, q := f.startAndIssue(t, "ana")
	sub := Submission{UserID: "ana", SessionID: sess.ID, QuestionID: q.ID, Answer: "B"}

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SubmitAnswer(context.Background(), sub)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrDuplicateSubmission):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, dupes)

	state, err := f.svc.Skill(context.Background(), "ana", "slices")
	require.NoError(t, err)
	assert.Equal(t, 1, state.TotalAttempted)
	assert.Equal(t, 13, state.Score)
}

func TestSubmitAnswer_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, q := f.startAndIssue(t, "ana")

	_, err := f.svc.SubmitAnswer(ctx, Submission{UserID: "bob", SessionID: sess.ID, QuestionID: q.ID, Answer: "B"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.NextQuestion(ctx, "bob", sess.ID, "slices")
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = f.svc.EndSession(ctx, "bob", sess.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSubmitAnswer_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, q := f.startAndIssue(t, "ana")

	_, err := f.svc.SubmitAnswer(ctx, Submission{UserID: "ana", SessionID: sess.ID, QuestionID: "missing"})
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	_, err = f.svc.SubmitAnswer(ctx, Submission{UserID: "ana", SessionID: "other-session", QuestionID: q.ID})
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	_, err = f.svc.NextQuestion(ctx, "ana", "missing", "slices")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmitAnswer_JudgeFailureChangesNothing(t *testing.T) {
	judgeErr := &llm.ErrProviderUnavailable{Err: errors.New("down")}
	f := newFixture(t, func(d *Deps) { d.Judge = failingJudge{err: judgeErr} })
	ctx := context.Background()
	sess, q := f.startAndIssue(t, "ana")

	_, err := f.svc.SubmitAnswer(ctx, Submission{UserID: "ana", SessionID: sess.ID, QuestionID: q.ID, Answer: "B"})
	assert.ErrorIs(t, err, ErrJudging)
	var unavailable *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)

	state, err := f.svc.Skill(ctx, "ana", "slices")
	require.NoError(t, err)
	assert.True(t, state.IsNew())

	data, err := f.store.QuestionRepo().GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Nil(t, data.AnsweredAt, "question stays answerable")

	got, _, err := f.svc.GetSession(ctx, "ana", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.QuestionsAttempted)
	assert.Len(t, f.events.Events(), 1, "only the session start event")
}

// flakySkillRepo fails UpsertSkill while *fails is positive.
type flakySkillRepo struct {
	store.SkillRepo
	fails *int
}

func (r flakySkillRepo) UpsertSkill(ctx context.Context, d *store.SkillData) error {
	if *r.fails > 0 {
		*r.fails--
		return errors.New("db blip")
	}
	return r.SkillRepo.UpsertSkill(ctx, d)
}

// flakySessionRepo fails UpdateSession while *fails is positive.
type flakySessionRepo struct {
	store.SessionRepo
	fails *int
}

func (r flakySessionRepo) UpdateSession(ctx context.Context, d *store.SessionData) error {
	if *r.fails > 0 {
		*r.fails--
		return errors.New("db blip")
	}
	return r.SessionRepo.UpdateSession(ctx, d)
}

// flakyTx runs real transactions with failing repositories swapped in.
type flakyTx struct {
	st           *store.Store
	skillFails   int
	sessionFails int
}

func (f *flakyTx) InTx(ctx context.Context, fn func(store.Repos) error) error {
	return f.st.InTx(ctx, func(r store.Repos) error {
		r.Skills = flakySkillRepo{SkillRepo: r.Skills, fails: &f.skillFails}
		r.Sessions = flakySessionRepo{SessionRepo: r.Sessions, fails: &f.sessionFails}
		return fn(r)
	})
}

func TestSubmitAnswer_SaveFailureRollsBack(t *testing.T) {
	tests := []struct {
		name         string
		skillFails   int
		sessionFails int
	}{
		{"skill save fails", 1, 0},
		{"session save fails", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &flakyTx{skillFails: tt.skillFails, sessionFails: tt.sessionFails}
			f := newFixture(t, func(d *Deps) {
				tx.st = d.Tx.(*store.Store)
				d.Tx = tx
			})
			ctx := context.Background()
			sess, q := f.startAndIssue(t, "ana")
			sub := Submission{UserID: "ana", SessionID: sess.ID, QuestionID: q.ID, Answer: "B"}

			_, err := f.svc.SubmitAnswer(ctx, sub)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "db blip")
			assert.NotErrorIs(t, err, ErrDuplicateSubmission)

			data, err := f.store.QuestionRepo().GetQuestion(ctx, q.ID)
			require.NoError(t, err)
			assert.Nil(t, data.AnsweredAt, "question stays answerable")

			state, err := f.svc.Skill(ctx, "ana", "slices")
			require.NoError(t, err)
			assert.True(t, state.IsNew(), "skill update rolled back")

			got, _, err := f.svc.GetSession(ctx, "ana", sess.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, got.QuestionsAttempted)
			assert.Len(t, f.events.Events(), 1, "only the session start event")

			res, err := f.svc.SubmitAnswer(ctx, sub)
			require.NoError(t, err, "retry scores the same question")
			assert.Equal(t, 13, res.Score)
			assert.Equal(t, 1, res.SessionAttempted)

			state, err = f.svc.Skill(ctx, "ana", "slices")
			require.NoError(t, err)
			assert.Equal(t, 1, state.TotalAttempted)
		})
	}
}

func TestSubmitAnswer_LockFailure(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Locker = timeoutLocker{} })
	sess, q := f.startAndIssue(t, "ana")

	_, err := f.svc.SubmitAnswer(context.Background(), Submission{UserID: "ana", SessionID: sess.ID, QuestionID: q.ID, Answer: "B"})
	assert.ErrorIs(t, err, cache.ErrLockTimeout)

	data, err := f.store.QuestionRepo().GetQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Nil(t, data.AnsweredAt)
}

type timeoutLocker struct{}

func (timeoutLocker) Lock(context.Context, string) (func(), error) {
	return nil, cache.ErrLockTimeout
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, q := f.startAndIssue(t, "ana")

	_, err := f.svc.SubmitAnswer(ctx, Submission{UserID: "ana", SessionID: sess.ID, QuestionID: q.ID, Answer: "B"})
	require.NoError(t, err)

	ended, sum, err := f.svc.EndSession(ctx, "ana", sess.ID)
	require.NoError(t, err)
	assert.False(t, ended.Open())
	assert.Equal(t, 1, sum.Attempted)
	assert.Equal(t, 1.0, sum.Accuracy)

	_, _, err = f.svc.EndSession(ctx, "ana", sess.ID)
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = f.svc.NextQuestion(ctx, "ana", sess.ID, "slices")
	assert.ErrorIs(t, err, ErrSessionClosed)

	list, err := f.svc.ListSessions(ctx, "ana", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sess.ID, list[0].ID)

	events := f.events.Events()
	assert.Equal(t, event.TypeSessionEnded, events[len(events)-1].Type)
}

func TestSubmitAnswer_ClosedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, q := f.startAndIssue(t, "ana")

	_, _, err := f.svc.EndSession(ctx, "ana", sess.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswer(ctx, Submission{UserID: "ana", SessionID: sess.ID, QuestionID: q.ID, Answer: "B"})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestNextQuestion_TopicRequired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.svc.StartSession(ctx, "ana", "")
	require.NoError(t, err)

	_, err = f.svc.NextQuestion(ctx, "ana", sess.ID, "")
	assert.ErrorIs(t, err, ErrTopicRequired)
	assert.Zero(t, f.gen.calls)
}

func TestNextQuestion_RetriesRetryableValidation(t *testing.T) {
	f := newFixture(t)
	f.gen.errs = []error{
		&questiongen.ValidationError{Validator: "dedup", Message: "repeat", Retryable: true},
		&questiongen.ValidationError{Validator: "dedup", Message: "repeat", Retryable: true},
	}
	_, q := f.startAndIssue(t, "ana")
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, 3, f.gen.calls)
}

func TestNextQuestion_GenerationErrors(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
	}{
		{
			name:      "non-retryable validation",
			errs:      []error{&questiongen.ValidationError{Validator: "structural", Message: "bad", Retryable: false}},
			wantCalls: 1,
		},
		{
			name:      "provider failure",
			errs:      []error{&llm.ErrRateLimit{Err: errors.New("429")}},
			wantCalls: 1,
		},
		{
			name: "retries exhausted",
			errs: []error{
				&questiongen.ValidationError{Validator: "dedup", Retryable: true},
				&questiongen.ValidationError{Validator: "dedup", Retryable: true},
				&questiongen.ValidationError{Validator: "dedup", Retryable: true},
			},
			wantCalls: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.gen.errs = tt.errs
			ctx := context.Background()
			sess, err := f.svc.StartSession(ctx, "ana", "slices")
			require.NoError(t, err)

			_, err = f.svc.NextQuestion(ctx, "ana", sess.ID, "")
			assert.ErrorIs(t, err, ErrGeneration)
			assert.Equal(t, tt.wantCalls, f.gen.calls)
		})
	}
}

func TestNextQuestion_WithLLMGenerator(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetHandler(questiongen.SampleHandler())
	gen := questiongen.New(mock, questiongen.DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	f := newFixture(t, func(d *Deps) { d.Generator = gen })
	ctx := context.Background()
	sess, err := f.svc.StartSession(ctx, "ana", "go-basics")
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		q, err := f.svc.NextQuestion(ctx, "ana", sess.ID, "")
		require.NoError(t, err)
		assert.Equal(t, questiongen.FormatMultipleChoice, q.Format)
		assert.Len(t, q.Choices, 4)
		assert.False(t, seen[q.Prompt], "prompt repeated: %s", q.Prompt)
		seen[q.Prompt] = true
	}
}

func TestPrune(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, q := f.startAndIssue(t, "ana")

	n, err := f.svc.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n, "fresh questions survive")

	later := testNow.Add(2 * time.Hour)
	f.svc.now = func() time.Time { return later }
	n, err = f.svc.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.svc.SubmitAnswer(ctx, Submission{UserID: "ana", QuestionID: q.ID, Answer: "B"})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestRanks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, user := range []string{"ana", "bob"} {
		sess, q := f.startAndIssue(t, user)
		answer := "B"
		if user == "bob" {
			answer = "A"
		}
		_, err := f.svc.SubmitAnswer(ctx, Submission{UserID: user, SessionID: sess.ID, QuestionID: q.ID, Answer: answer})
		require.NoError(t, err)
	}

	ranks, err := f.svc.Ranks(ctx, "slices", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), ranks.Score)
}
