package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/saffronlabs/saffron/internal/common"
	"github.com/saffronlabs/saffron/internal/service"
)

const adviceSystemPrompt = "You are a friendly personal finance assistant. " +
	"Given spending statistics and observations, write 2-3 short sentences of " +
	"practical, non-judgmental advice. Respond with plain text only."

// Chatter is the completion contract the advisor enhances through.
type Chatter interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Advice is the generated output: templated insights always, plus a
// narrative paragraph when an LLM pass succeeded.
type Advice struct {
	Narrative string
	Insights  []string
}

// Advisor turns expense summaries into advice text. Without a chat
// client it is purely template-driven.
type Advisor struct {
	chat Chatter
}

// AdvisorOption configures optional advisor behavior.
type AdvisorOption func(*Advisor)

// WithChat attaches an LLM completion client for narrative advice.
func WithChat(chat Chatter) AdvisorOption {
	return func(a *Advisor) { a.chat = chat }
}

// NewAdvisor creates an advisor.
func NewAdvisor(opts ...AdvisorOption) *Advisor {
	a := &Advisor{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Advise analyzes the summary and renders advice. LLM failures fall
// back silently to the templated insights.
func (a *Advisor) Advise(ctx context.Context, summary Summary) Advice {
	advice := Advice{Insights: Generate(summary)}
	if a.chat == nil || summary.Count == 0 {
		return advice
	}

	narrative, err := a.chat.Complete(ctx, adviceSystemPrompt, buildAdvicePrompt(summary, advice.Insights))
	if err != nil {
		slog.Warn("advice enhancement failed, using templates", "error", err)
		return advice
	}

	advice.Narrative = strings.TrimSpace(narrative)
	return advice
}

// buildAdvicePrompt serializes the summary for the LLM.
func buildAdvicePrompt(summary Summary, insights []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total spent: $%.2f across %d expenses.\n", summary.Total, summary.Count)
	for _, cat := range summary.TopCategories(defaultTopN) {
		fmt.Fprintf(&b, "- %s: $%.2f (%.0f%%)\n", cat.Category, cat.Total, cat.Percent)
	}
	b.WriteString("Observations:\n")
	for _, insight := range insights {
		fmt.Fprintf(&b, "- %s\n", insight)
	}
	return b.String()
}

const (
	defaultChatBaseURL = "https://api.openai.com/v1"
	defaultChatModel   = "gpt-4o-mini"
	defaultChatTimeout = 30 * time.Second
)

// ChatConfig holds configuration for the OpenAI-compatible client.
type ChatConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	Temperature float64
	MaxTokens   int
}

// ChatClient calls an OpenAI-compatible chat completion endpoint with
// the same retry discipline as the remote inference client.
type ChatClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	retryOpts   service.RetryOptions
	temperature float64
	maxTokens   int
}

// NewChatClient creates a chat completion client.
func NewChatClient(cfg ChatConfig) (*ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: chat API key", common.ErrMissingConfig)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultChatModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultChatBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultChatTimeout
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 300
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &ChatClient{
		apiKey:      cfg.APIKey,
		model:       modelName,
		baseURL:     baseURL,
		retryOpts:   retryOpts,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat completion request and returns the first
// choice's content.
func (c *ChatClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var content string
	err = common.WithRetry(ctx, func() error {
		attempt, attemptErr := c.doRequest(ctx, body)
		if attemptErr != nil {
			return attemptErr
		}
		content = attempt
		return nil
	}, c.retryOpts)

	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return content, nil
}

func (c *ChatClient) doRequest(ctx context.Context, body []byte) (string, error) {
	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return "", &common.RetryableError{Err: err, Retryable: false}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &common.RetryableError{Err: err, Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &common.RetryableError{Err: err, Retryable: true}
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", &common.RetryableError{
			Err:       fmt.Errorf("chat service returned status %d: %s", resp.StatusCode, respBody),
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		return "", &common.RetryableError{
			Err:       fmt.Errorf("chat service returned status %d: %s", resp.StatusCode, respBody),
			Retryable: false,
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &common.RetryableError{
			Err:       fmt.Errorf("%w: %v", common.ErrMalformedResponse, err),
			Retryable: false,
		}
	}
	if len(parsed.Choices) == 0 {
		return "", &common.RetryableError{
			Err:       fmt.Errorf("%w: no completion choices", common.ErrMalformedResponse),
			Retryable: false,
		}
	}

	return parsed.Choices[0].Message.Content, nil
}
