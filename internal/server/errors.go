package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/codequiz/internal/cache"
	"github.com/abhisek/codequiz/internal/practice"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg, Code: code})
}

// fail maps a service error to a status and error code.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	abort(c, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, practice.ErrQuestionNotFound):
		return http.StatusNotFound, "question_not_found"
	case errors.Is(err, practice.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, practice.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, practice.ErrDuplicateSubmission):
		return http.StatusConflict, "duplicate_submission"
	case errors.Is(err, practice.ErrSessionClosed):
		return http.StatusConflict, "session_closed"
	case errors.Is(err, cache.ErrLockTimeout):
		return http.StatusConflict, "busy"
	case errors.Is(err, practice.ErrTopicRequired):
		return http.StatusBadRequest, "topic_required"
	case errors.Is(err, practice.ErrGeneration):
		return http.StatusBadGateway, "generation_failed"
	case errors.Is(err, practice.ErrJudging):
		return http.StatusBadGateway, "judging_failed"
	}
	return http.StatusInternalServerError, "internal"
}
