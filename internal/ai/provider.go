// Package ai – Provider
//
// The Provider abstraction and its go-openai implementation.
package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Provider sends one system + user exchange to a chat-completions model and
// returns the assistant text.
type Provider interface {
	// Complete returns the assistant text for one exchange. Failures are
	// reported as *ProviderError.
	Complete(ctx context.Context, model, system, prompt string) (string, error)
}

// Sampling holds the generation parameters sent with every request.
type Sampling struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// OpenAIProvider talks to any OpenAI-compatible chat-completions endpoint,
// GitHub Models by default.
type OpenAIProvider struct {
	client   *openai.Client
	sampling Sampling
}

// NewOpenAIProvider builds a client for endpoint authenticated with token.
// Each call is bounded by timeout in addition to the caller's context.
func NewOpenAIProvider(token, endpoint string, timeout time.Duration, sampling Sampling) *OpenAIProvider {
	cc := openai.DefaultConfig(token)
	if endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/"); endpoint != "" {
		cc.BaseURL = endpoint
	}
	cc.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cc), sampling: sampling}
}

// Complete performs a single chat completion.
//
// Behavior:
//   - Never retries; the caller decides whether to fall back.
//   - A non-success status carries that status in the *ProviderError.
//   - A response without choices or with empty content is
//     ErrEmptyCompletion.
func (p *OpenAIProvider) Complete(ctx context.Context, model, system, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: p.sampling.Temperature,
		TopP:        p.sampling.TopP,
		MaxTokens:   p.sampling.MaxTokens,
	})
	if err != nil {
		return "", &ProviderError{Model: model, Status: statusOf(err), Err: err}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &ProviderError{Model: model, Status: http.StatusOK, Err: ErrEmptyCompletion}
	}
	return resp.Choices[0].Message.Content, nil
}

// statusOf extracts the HTTP status carried by go-openai errors.
func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
