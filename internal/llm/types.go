package llm

import (
	"errors"
	"fmt"
)

// Message represents a chat message
//
// Role: "system", "user", or "assistant"
// Content: Text content of the message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request in the Venice wire
// format (OpenAI-compatible, plus venice_parameters).
type ChatRequest struct {
	Model            string            `json:"model"`
	Messages         []Message         `json:"messages"`
	MaxTokens        int               `json:"max_completion_tokens,omitempty"`
	Temperature      float64           `json:"temperature,omitempty"`
	VeniceParameters *VeniceParameters `json:"venice_parameters,omitempty"`
}

// VeniceParameters carries provider-specific request flags.
// EnableWebSearch is "auto" or "on" for web-search-augmented completions.
type VeniceParameters struct {
	EnableWebSearch string `json:"enable_web_search,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// SpeechRequest represents a speech synthesis request.
type SpeechRequest struct {
	Input          string  `json:"input"`
	Model          string  `json:"model"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// CompletionOptions represents per-request overrides for Complete.
// Zero values fall back to the client configuration.
type CompletionOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	WebSearch   bool
}

// Every remote call maps onto exactly one outcome: the returned text on
// success, or one of the errors below. A 2xx response whose body lacks the
// expected content is ErrMalformedResponse, never an empty string.
var (
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrMalformedResponse = errors.New("malformed response from provider")
)

// HTTPError is a non-2xx, non-429 provider response.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("provider request failed with status %d", e.Status)
}

// IsRateLimited reports whether err is the rate-limit outcome.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
