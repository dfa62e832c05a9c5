package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/codequiz/internal/cache"
	"github.com/abhisek/codequiz/internal/judge"
	"github.com/abhisek/codequiz/internal/llm"
	"github.com/abhisek/codequiz/internal/metrics"
	"github.com/abhisek/codequiz/internal/practice"
	"github.com/abhisek/codequiz/internal/questiongen"
	"github.com/abhisek/codequiz/internal/session"
	"github.com/abhisek/codequiz/internal/skill"
	"github.com/abhisek/codequiz/internal/store"
)

const testSecret = "test-secret"

type testServer struct {
	handler http.Handler
	mock    *llm.MockProvider
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mock := llm.NewMockProvider()
	mock.SetHandler(questiongen.SampleHandler())
	m := metrics.New()

	svc, err := practice.New(practice.Deps{
		Skills:      skill.NewTracker(st.SkillRepo(), skill.WithLogger(logger)),
		Sessions:    session.NewRecorder(st.SessionRepo(), logger),
		Questions:   st.QuestionRepo(),
		Tx:          st,
		Generator:   questiongen.New(mock, questiongen.DefaultConfig(), logger),
		Judge:       judge.NewComposite(nil),
		Leaderboard: cache.NewSQLLeaderboard(st.SkillRepo()),
		Metrics:     m,
		Logger:      logger,
	}, practice.DefaultConfig())
	require.NoError(t, err)

	opts.Logger = logger
	opts.Metrics = m.Handler()
	opts.Health = st.Ping
	return &testServer{handler: New(svc, opts).Handler(), mock: mock}
}

func (ts *testServer) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestPracticeFlow(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(t, http.MethodPost, "/v1/sessions", "ana", map[string]string{"topic": "go"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decode[sessionResponse](t, rec)
	assert.Equal(t, "go", sess.Topic)

	rec = ts.do(t, http.MethodGet, "/v1/questions/next?session_id="+sess.ID, "ana", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), `"answer"`)
	q := decode[practice.IssuedQuestion](t, rec)
	require.Len(t, q.Choices, 4)

	// First sample question: the answer is "[1 2 9]", choice B.
	rec = ts.do(t, http.MethodPost, "/v1/answers", "ana", map[string]string{
		"question_id": q.ID, "session_id": sess.ID, "answer": "B",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[practice.Result](t, rec)
	assert.True(t, res.Correct)
	assert.Equal(t, 13, res.Score)

	rec = ts.do(t, http.MethodPost, "/v1/answers", "ana", map[string]string{
		"question_id": q.ID, "session_id": sess.ID, "answer": "B",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_submission", decode[errorBody](t, rec).Code)

	rec = ts.do(t, http.MethodGet, "/v1/skills/go", "ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 13, decode[skillResponse](t, rec).Score)

	rec = ts.do(t, http.MethodGet, "/v1/skills", "ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	skills := decode[struct {
		Skills []skillResponse `json:"skills"`
	}](t, rec)
	require.Len(t, skills.Skills, 1)

	rec = ts.do(t, http.MethodGet, "/v1/leaderboard/go?by=score&limit=5", "ana", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	board := decode[struct {
		Entries []cache.Entry `json:"entries"`
		You     cache.Ranks   `json:"you"`
	}](t, rec)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, int64(1), board.You.Score)

	rec = ts.do(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/end", "ana", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ended := decode[sessionResponse](t, rec)
	assert.NotNil(t, ended.EndedAt)
	assert.Equal(t, 1, ended.Attempted)

	rec = ts.do(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/end", "ana", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/sessions", "ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Sessions []sessionResponse `json:"sessions"`
	}](t, rec)
	require.Len(t, list.Sessions, 1)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(t, http.MethodPost, "/v1/sessions", "ana", map[string]string{"topic": "go"})
	require.Equal(t, http.StatusCreated, rec.Code)
	sess := decode[sessionResponse](t, rec)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   any
		status int
		code   string
	}{
		{"missing user", http.MethodGet, "/v1/skills", "", nil, http.StatusUnauthorized, "unauthorized"},
		{"unknown session", http.MethodGet, "/v1/sessions/nope", "ana", nil, http.StatusNotFound, "session_not_found"},
		{"foreign session", http.MethodGet, "/v1/sessions/" + sess.ID, "bob", nil, http.StatusForbidden, "forbidden"},
		{"next without session", http.MethodGet, "/v1/questions/next", "ana", nil, http.StatusBadRequest, "invalid_request"},
		{"answer without question", http.MethodPost, "/v1/answers", "ana", map[string]string{}, http.StatusBadRequest, "invalid_request"},
		{"unknown question", http.MethodPost, "/v1/answers", "ana", map[string]string{"question_id": "nope"}, http.StatusNotFound, "question_not_found"},
		{"bad board", http.MethodGet, "/v1/leaderboard/go?by=speed", "ana", nil, http.StatusBadRequest, "invalid_request"},
		{"bad limit", http.MethodGet, "/v1/leaderboard/go?limit=x", "ana", nil, http.StatusBadRequest, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[errorBody](t, rec).Code)
		})
	}
}

func TestGenerationFailureIsBadGateway(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.mock.SetHandler(func(llm.Request) (json.RawMessage, error) {
		return nil, &llm.ErrProviderUnavailable{Err: errors.New("down")}
	})

	rec := ts.do(t, http.MethodPost, "/v1/sessions", "ana", map[string]string{"topic": "go"})
	sess := decode[sessionResponse](t, rec)

	rec = ts.do(t, http.MethodGet, "/v1/questions/next?session_id="+sess.ID, "ana", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "generation_failed", decode[errorBody](t, rec).Code)
}

func TestJWTAuth(t *testing.T) {
	ts := newTestServer(t, Options{JWTSecret: testSecret})

	sign := func(secret string, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + sign(testSecret, jwt.RegisteredClaims{Subject: "ana"}), http.StatusOK},
		{"wrong secret", "Bearer " + sign("other", jwt.RegisteredClaims{Subject: "ana"}), http.StatusUnauthorized},
		{"no subject", "Bearer " + sign(testSecret, jwt.RegisteredClaims{}), http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/skills", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			// The header is ignored when a secret is configured.
			req.Header.Set("X-User-ID", "mallory")
			rec := httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHealthFailure(t *testing.T) {
	failing := New(nil, Options{Health: func(context.Context) error { return errors.New("db down") }})

	rec := httptest.NewRecorder()
	failing.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestClassify(t *testing.T) {
	status, code := classify(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal", code)

	status, _ = classify(practice.ErrJudging)
	assert.Equal(t, http.StatusBadGateway, status)
}
