package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/saffronlabs/saffron/internal/common"
	"github.com/saffronlabs/saffron/internal/model"
	"github.com/saffronlabs/saffron/internal/service"
)

const (
	defaultBaseURL = "https://api-inference.huggingface.co/models"
	defaultModel   = "facebook/bart-large-mnli"
	defaultTimeout = 10 * time.Second
)

// RemoteConfig holds configuration for the remote inference client.
type RemoteConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// RemoteClient calls a hosted zero-shot classification endpoint.
// Transient upstream failures (5xx, timeouts) are retried with
// exponential backoff; malformed responses are permanent failures.
type RemoteClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	retryOpts  service.RetryOptions
}

// NewRemoteClient creates a remote inference client. An API key is
// required; without one the backend is simply not constructed.
func NewRemoteClient(cfg RemoteConfig) (*RemoteClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: inference API key", common.ErrMissingConfig)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
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

	return &RemoteClient{
		apiKey:    cfg.APIKey,
		model:     modelName,
		baseURL:   baseURL,
		retryOpts: retryOpts,
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

// Name identifies the backend.
func (c *RemoteClient) Name() string { return "remote" }

// zeroShotRequest is the inference-service wire format.
type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

// zeroShotResponse is the ranked answer: labels descending by score,
// scores in matching order.
type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Classify sends the description and full candidate label set to the
// remote service and parses the ranked result.
func (c *RemoteClient) Classify(ctx context.Context, text string, labels []string) (model.LabelScores, error) {
	body, err := json.Marshal(zeroShotRequest{
		Inputs: text,
		Parameters: zeroShotParameters{
			CandidateLabels: labels,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var scores model.LabelScores

	err = common.WithRetry(ctx, func() error {
		attempt, attemptErr := c.doRequest(ctx, body)
		if attemptErr != nil {
			return attemptErr
		}
		scores = attempt
		return nil
	}, c.retryOpts)

	if err != nil {
		return nil, fmt.Errorf("remote classification failed: %w", err)
	}
	return scores, nil
}

// doRequest performs a single HTTP attempt. Retryability is encoded
// in the returned error so WithRetry can tell transient from fatal.
func (c *RemoteClient) doRequest(ctx context.Context, body []byte) (model.LabelScores, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &common.RetryableError{Err: err, Retryable: false}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors and timeouts are worth another try.
		return nil, &common.RetryableError{Err: err, Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.RetryableError{Err: err, Retryable: true}
	}

	switch {
	case resp.StatusCode >= 500:
		// Includes 503 while the hosted model is still loading.
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, respBody),
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, respBody),
			Retryable: false,
		}
	}

	var parsed zeroShotResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("%w: %v", common.ErrMalformedResponse, err),
			Retryable: false,
		}
	}
	if len(parsed.Labels) == 0 || len(parsed.Labels) != len(parsed.Scores) {
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("%w: %d labels, %d scores", common.ErrMalformedResponse, len(parsed.Labels), len(parsed.Scores)),
			Retryable: false,
		}
	}

	scores := make(model.LabelScores, len(parsed.Labels))
	for i, label := range parsed.Labels {
		scores[i] = model.LabelScore{Label: label, Score: parsed.Scores[i]}
	}
	if err := scores.Validate(); err != nil {
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("%w: %v", common.ErrMalformedResponse, err),
			Retryable: false,
		}
	}

	return scores, nil
}
