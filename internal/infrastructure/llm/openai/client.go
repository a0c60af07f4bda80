package openaichat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hectorluisalamo/bilingual-rag/internal/core/domain"
	"github.com/hectorluisalamo/bilingual-rag/internal/infrastructure/resilience"
)

// Client drives the extractive and abstractive generation stages over a chat
// completion endpoint. A client without credentials reports ErrUnavailable
// from both stages so the caller drops straight to the rule-based answer.
type Client struct {
	client   *openai.Client
	model    string
	executor *resilience.Executor
}

func New(apiKey, baseURL, model string, executor *resilience.Executor) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClientWithConfig(cfg)
	}
	return &Client{
		client:   client,
		model:    model,
		executor: executor,
	}
}

func (c *Client) ExtractQuotes(ctx context.Context, question, contextBlock string) ([]domain.Quote, error) {
	if c.client == nil {
		return nil, domain.WrapError(domain.ErrUnavailable, "extract quotes", errNoCredentials)
	}

	prompt := buildExtractPrompt(question, contextBlock)
	raw, err := c.complete(ctx, prompt, true)
	if err != nil {
		return nil, fmt.Errorf("extract quotes: %w", err)
	}

	var parsed struct {
		Quotes []domain.Quote `json:"quotes"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse quotes json: %w", err)
	}
	return parsed.Quotes, nil
}

func (c *Client) WriteAnswer(ctx context.Context, question string, quotes []domain.Quote) (string, error) {
	if c.client == nil {
		return "", domain.WrapError(domain.ErrUnavailable, "write answer", errNoCredentials)
	}

	prompt := buildSummaryPrompt(question, quotes)
	text, err := c.complete(ctx, prompt, false)
	if err != nil {
		return "", fmt.Errorf("write answer: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) complete(ctx context.Context, userPrompt string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.2,
		MaxTokens:   400,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var resp openai.ChatCompletionResponse
	call := func(callCtx context.Context) error {
		var err error
		resp, err = c.client.CreateChatCompletion(callCtx, req)
		return err
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai.chat", call, classifyChatError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// extractJSONObject tolerates models that wrap the JSON object in prose.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
