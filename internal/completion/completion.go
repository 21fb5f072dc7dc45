// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package completion sends prompts to a large-language-model chat endpoint
// and returns the generated text.
package completion

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/glossary-engine/pkg/types"
)

const (
	defaultModel   = "gpt-4-turbo"
	defaultTimeout = 120 * time.Second
)

// Prompt is one system instruction plus one user message.
type Prompt struct {
	System string
	User   string
}

// Client abstracts the completion service so tests can supply a fake.
type Client interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// OpenAIClient implements Client with the openai-go chat completions API.
// Each Complete call is a single attempt; SDK retries are disabled.
type OpenAIClient struct {
	client openai.Client
	cfg    types.AIConfig
	log    *slog.Logger
}

// NewOpenAIClient builds a client from cfg. A nil httpClient gets one with the
// configured timeout.
func NewOpenAIClient(cfg types.AIConfig, httpClient *http.Client, log *slog.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("completion API key missing: set generation.api_key, OPENAI_API_KEY, or .secrets/openai-api-key")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{client: openai.NewClient(opts...), cfg: cfg, log: log}, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.cfg.Model }

// Complete issues one chat completion and returns the first choice verbatim.
func (c *OpenAIClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var msgs []openai.ChatCompletionMessageParamUnion
	if strings.TrimSpace(prompt.System) != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.cfg.Model),
		Messages: msgs,
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.MaxTokens))
	}
	if c.cfg.Temperature != nil {
		params.Temperature = openai.Float(*c.cfg.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", types.NewFailure(types.FailureCompletion, err, "completion service returned HTTP %d", apiErr.StatusCode)
		}
		return "", types.NewFailure(types.FailureCompletion, err, "completion request failed")
	}
	if len(resp.Choices) == 0 {
		return "", types.NewFailure(types.FailureCompletion, nil, "completion service returned no choices")
	}

	c.log.Debug("completion finished",
		"model", c.cfg.Model,
		"duration", time.Since(start).Round(time.Millisecond),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}

// Func adapts an ordinary function to Client.
type Func func(ctx context.Context, prompt Prompt) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

// Wrap converts any error from a completion call into a completion Failure,
// keeping failures that already carry a kind.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var f *types.Failure
	if errors.As(err, &f) {
		return err
	}
	return types.NewFailure(types.FailureCompletion, err, format, args...)
}
