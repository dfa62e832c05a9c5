package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/abhisek/codequiz/internal/cache"
	"github.com/abhisek/codequiz/internal/practice"
	"github.com/abhisek/codequiz/internal/session"
	"github.com/abhisek/codequiz/internal/skill"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type sessionResponse struct {
	ID              string     `json:"id"`
	Topic           string     `json:"topic,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Attempted       int        `json:"questions_attempted"`
	Correct         int        `json:"questions_correct"`
	Accuracy        float64    `json:"accuracy"`
	DurationSeconds int64      `json:"duration_seconds"`
}

func newSessionResponse(s session.Session, sum session.Summary) sessionResponse {
	return sessionResponse{
		ID:              s.ID,
		Topic:           s.Topic,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
		Attempted:       sum.Attempted,
		Correct:         sum.Correct,
		Accuracy:        sum.Accuracy,
		DurationSeconds: int64(sum.Duration.Seconds()),
	}
}

type skillResponse struct {
	Topic           string     `json:"topic"`
	Score           int        `json:"score"`
	Streak          int        `json:"streak"`
	BestStreak      int        `json:"best_streak"`
	TotalAttempted  int        `json:"total_attempted"`
	TotalCorrect    int        `json:"total_correct"`
	Accuracy        float64    `json:"accuracy"`
	LastPracticedAt *time.Time `json:"last_practiced_at,omitempty"`
}

func newSkillResponse(s skill.State) skillResponse {
	r := skillResponse{
		Topic:          s.Topic,
		Score:          s.Score,
		Streak:         s.Streak,
		BestStreak:     s.BestStreak,
		TotalAttempted: s.TotalAttempted,
		TotalCorrect:   s.TotalCorrect,
		Accuracy:       s.Accuracy(),
	}
	if !s.LastPracticedAt.IsZero() {
		t := s.LastPracticedAt
		r.LastPracticedAt = &t
	}
	return r
}

func (s *Server) startSession(c *gin.Context) {
	var req struct {
		Topic string `json:"topic"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	sess, err := s.svc.StartSession(c.Request.Context(), currentUser(c), req.Topic)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionResponse(sess, session.Summarize(sess, sess.StartedAt)))
}

func (s *Server) getSession(c *gin.Context) {
	sess, sum, err := s.svc.GetSession(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess, sum))
}

func (s *Server) endSession(c *gin.Context) {
	sess, sum, err := s.svc.EndSession(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess, sum))
}

func (s *Server) listSessions(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	sessions, err := s.svc.ListSessions(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"sessions": lo.Map(sessions, func(sess session.Session, _ int) sessionResponse {
			return newSessionResponse(sess, session.Summarize(sess, now))
		}),
	})
}

func (s *Server) nextQuestion(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		abort(c, http.StatusBadRequest, "invalid_request", "session_id is required")
		return
	}
	q, err := s.svc.NextQuestion(c.Request.Context(), currentUser(c), sessionID, c.Query("topic"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) submitAnswer(c *gin.Context) {
	var req struct {
		QuestionID string `json:"question_id" binding:"required"`
		SessionID  string `json:"session_id"`
		Answer     string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := s.svc.SubmitAnswer(c.Request.Context(), practice.Submission{
		UserID:     currentUser(c),
		SessionID:  req.SessionID,
		QuestionID: req.QuestionID,
		Answer:     req.Answer,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) progress(c *gin.Context) {
	states, err := s.svc.Progress(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": lo.Map(states, func(st skill.State, _ int) skillResponse {
		return newSkillResponse(st)
	})})
}

func (s *Server) skill(c *gin.Context) {
	st, err := s.svc.Skill(c.Request.Context(), currentUser(c), c.Param("topic"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSkillResponse(st))
}

func (s *Server) leaderboard(c *gin.Context) {
	board, err := cache.ParseBoard(c.Query("by"))
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	limit, ok := intQuery(c, "limit", defaultLeaderboardLimit)
	if !ok {
		return
	}
	limit = min(max(limit, 1), maxLeaderboardLimit)

	ctx := c.Request.Context()
	topic := c.Param("topic")
	entries, err := s.svc.Leaderboard(ctx, topic, board, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	ranks, err := s.svc.Ranks(ctx, topic, currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if entries == nil {
		entries = []cache.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"topic":   topic,
		"board":   board,
		"entries": entries,
		"you":     ranks,
	})
}

// intQuery parses an optional integer query parameter, writing a 400 and
// returning false when it is malformed.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		abort(c, http.StatusBadRequest, "invalid_request", name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
