package practice

import (
	"errors"

	"github.com/abhisek/codequiz/internal/session"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrSessionNotFound  = errors.New("session not found")

	// ErrForbidden is returned when a question or session belongs to
	// another user.
	ErrForbidden = errors.New("resource belongs to another user")

	// ErrDuplicateSubmission is returned for every submission after the
	// first one that scored a question.
	ErrDuplicateSubmission = errors.New("question already answered")

	ErrSessionClosed = session.ErrSessionClosed

	// ErrTopicRequired is returned when neither the request nor the
	// session names a topic.
	ErrTopicRequired = errors.New("topic is required")

	// ErrGeneration wraps question generator failures.
	ErrGeneration = errors.New("question generation failed")

	// ErrJudging wraps judge failures. Nothing is recorded when it is
	// returned.
	ErrJudging = errors.New("answer judging failed")
)
