package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mlourenco/civics-tutor/internal/current"
	"github.com/mlourenco/civics-tutor/internal/explain"
	"github.com/mlourenco/civics-tutor/internal/llm"
	"github.com/mlourenco/civics-tutor/internal/translate"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"rate limited", llm.ErrRateLimited, ErrRateLimited},
		{"wrapped rate limited", fmt.Errorf("request failed: %w", llm.ErrRateLimited), ErrRateLimited},
		{"malformed", llm.ErrMalformedResponse, ErrMalformedResponse},
		{"http", &llm.HTTPError{Status: 500, Body: "down"}, ErrRemoteHTTP},
		{"validation", &translate.ValidationError{Reason: "empty"}, ErrValidation},
		{"pipeline", &explain.PipelineError{Stage: "retrieve", Cause: errors.New("x")}, ErrContextualExplanation},
		{"current unavailable", current.ErrUnavailable, ErrCurrentAnswer},
		{"unknown", errors.New("something else"), ErrUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.err))
		})
	}
}

func TestClassifyPipelineCauseWins(t *testing.T) {
	// A pipeline error wrapping a rate limit classifies by the root cause,
	// so the API returns 429 rather than a generic 502.
	err := &explain.PipelineError{Stage: "retrieve", Cause: llm.ErrRateLimited}
	assert.Equal(t, ErrRateLimited, classify(err))
}

func TestTutorErrorUnwrap(t *testing.T) {
	cause := llm.ErrRateLimited
	err := WrapError(cause, ErrRateLimited, "explanation failed")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "RateLimited")
	assert.Contains(t, err.Error(), "explanation failed")
}

func TestTutorErrorHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, NewError(ErrRateLimited, "x").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NewError(ErrQuestionData, "x").HTTPStatus())
	assert.Equal(t, http.StatusUnprocessableEntity, NewError(ErrValidation, "x").HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, NewError(ErrRemoteHTTP, "x").HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, NewError(ErrUnknown, "x").HTTPStatus())
}

func TestTutorErrorUserMessages(t *testing.T) {
	for _, errorType := range []ErrorType{
		ErrRateLimited, ErrRemoteHTTP, ErrMalformedResponse, ErrValidation,
		ErrContextualExplanation, ErrCurrentAnswer, ErrQuestionData, ErrUnknown,
	} {
		assert.NotEmpty(t, NewError(errorType, "x").UserMessage(), "type %s", errorType)
	}
}

func TestIsErrorType(t *testing.T) {
	err := NewError(ErrValidation, "bad text")
	assert.True(t, IsErrorType(err, ErrValidation))
	assert.False(t, IsErrorType(err, ErrRateLimited))
	assert.False(t, IsErrorType(errors.New("plain"), ErrValidation))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsErrorType(wrapped, ErrValidation))
}
