package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a hosted Venice-compatible model API.
// Provides chat completions and speech synthesis.
// Thread-safe for concurrent use.
//
// The client performs no retries; fallback policy belongs to callers.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new provider client with the given configuration
//
// Returns a new Client instance or an error if configuration is invalid
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client := &Client{
		config:  config,
		baseURL: strings.TrimRight(config.APIURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}

	return client, nil
}

// Complete issues one chat completion request and returns the assistant
// content.
//
// Outcome mapping:
//   - 429 -> ErrRateLimited
//   - other non-2xx -> *HTTPError
//   - 2xx with a missing or empty choices[0].message.content -> ErrMalformedResponse
func (c *Client) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	request := ChatRequest{
		Model:       c.getModel(opts),
		Messages:    messages,
		MaxTokens:   c.getMaxTokens(opts),
		Temperature: c.getTemperature(opts),
	}
	if opts.WebSearch {
		request.VeniceParameters = &VeniceParameters{EnableWebSearch: "auto"}
	}

	body, err := c.post(ctx, "/chat/completions", request)
	if err != nil {
		return "", err
	}

	var chatResponse ChatResponse
	if err := json.Unmarshal(body, &chatResponse); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(chatResponse.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	content := chatResponse.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}
	return content, nil
}

// SimpleChat sends a single user prompt with an optional system prompt.
func (c *Client) SimpleChat(ctx context.Context, prompt string, systemPrompt string, opts CompletionOptions) (string, error) {
	messages := make([]Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})
	return c.Complete(ctx, messages, opts)
}

// SynthesizeSpeech converts text to audio bytes using the configured
// speech model. The response body is raw audio (mp3).
func (c *Client) SynthesizeSpeech(ctx context.Context, text string, voice string) ([]byte, error) {
	request := SpeechRequest{
		Input:          text,
		Model:          c.config.SpeechModel,
		Voice:          voice,
		ResponseFormat: "mp3",
		Speed:          1,
	}
	return c.post(ctx, "/audio/speech", request)
}

// post issues one request and maps the HTTP status onto the outcome
// taxonomy, returning the raw body on success.
func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	url := c.baseURL + path

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.config.GetHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(responseBody)}
	}

	return responseBody, nil
}

// getModel returns the model to use for the request
func (c *Client) getModel(opts CompletionOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	return c.config.Model
}

// getMaxTokens returns the max tokens to use for the request
func (c *Client) getMaxTokens(opts CompletionOptions) int {
	if opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	return c.config.MaxTokens
}

// getTemperature returns the temperature to use for the request
func (c *Client) getTemperature(opts CompletionOptions) float64 {
	if opts.Temperature > 0 {
		return opts.Temperature
	}
	return c.config.Temperature
}
