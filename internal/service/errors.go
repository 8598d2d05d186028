package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mlourenco/civics-tutor/internal/current"
	"github.com/mlourenco/civics-tutor/internal/explain"
	"github.com/mlourenco/civics-tutor/internal/llm"
	"github.com/mlourenco/civics-tutor/internal/translate"
)

type ErrorType int

const (
	ErrRateLimited ErrorType = iota
	ErrRemoteHTTP
	ErrMalformedResponse
	ErrValidation
	ErrContextualExplanation
	ErrCurrentAnswer
	ErrQuestionData
	ErrUnknown
)

func (t ErrorType) String() string {
	switch t {
	case ErrRateLimited:
		return "RateLimited"
	case ErrRemoteHTTP:
		return "RemoteHTTP"
	case ErrMalformedResponse:
		return "MalformedResponse"
	case ErrValidation:
		return "Validation"
	case ErrContextualExplanation:
		return "ContextualExplanation"
	case ErrCurrentAnswer:
		return "CurrentAnswer"
	case ErrQuestionData:
		return "QuestionData"
	default:
		return "Unknown"
	}
}

// TutorError is the orchestrator-level error carrying a type from the
// taxonomy plus the underlying cause.
type TutorError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func NewError(errorType ErrorType, message string) *TutorError {
	return &TutorError{Type: errorType, Message: message}
}

func WrapError(err error, errorType ErrorType, message string) *TutorError {
	return &TutorError{Type: errorType, Message: message, Cause: err}
}

func (e *TutorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s | cause: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *TutorError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the transient, display-only notice shown for this
// failure, scoped to the single question row that failed.
func (e *TutorError) UserMessage() string {
	switch e.Type {
	case ErrRateLimited:
		return "Rate limit exceeded. Please wait a moment and try again."
	case ErrValidation:
		return "The generated text failed validation. Please try again."
	case ErrCurrentAnswer:
		return "Unable to retrieve current information. Please try again later."
	case ErrQuestionData:
		return "Question not found."
	default:
		return "Failed to load content. Please try again."
	}
}

// HTTPStatus maps the error type onto an HTTP status for the API layer.
func (e *TutorError) HTTPStatus() int {
	switch e.Type {
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrQuestionData:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// classify inspects an error from a pipeline and assigns its taxonomy type.
func classify(err error) ErrorType {
	var httpErr *llm.HTTPError
	var validationErr *translate.ValidationError
	var pipelineErr *explain.PipelineError

	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return ErrRateLimited
	case errors.Is(err, llm.ErrMalformedResponse):
		return ErrMalformedResponse
	case errors.As(err, &httpErr):
		return ErrRemoteHTTP
	case errors.As(err, &validationErr):
		return ErrValidation
	case errors.As(err, &pipelineErr):
		return ErrContextualExplanation
	case errors.Is(err, current.ErrUnavailable):
		return ErrCurrentAnswer
	default:
		return ErrUnknown
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var tutorErr *TutorError
	if errors.As(err, &tutorErr) {
		return tutorErr.Type == errorType
	}
	return false
}
