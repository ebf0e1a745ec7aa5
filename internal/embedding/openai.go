package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Config contains settings for the OpenAI-wire embedding client.
type Config struct {
	Endpoint       string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
	RetryDelayMax  time.Duration
	RateLimitRPM   int
}

// OpenAIClient implements Client against an OpenAI-compatible
// embeddings endpoint. Outbound calls are rate limited and transient
// failures are retried with exponential backoff.
type OpenAIClient struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

// NewOpenAIClient creates a new OpenAI-wire embedding client.
func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if config.Endpoint == "" {
		config.Endpoint = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "text-embedding-3-large"
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.RetryDelayBase == 0 {
		config.RetryDelayBase = time.Second
	}
	if config.RetryDelayMax == 0 {
		config.RetryDelayMax = 30 * time.Second
	}
	if config.RateLimitRPM <= 0 {
		config.RateLimitRPM = 100
	}

	limit := rate.Limit(float64(config.RateLimitRPM) / 60.0)

	return &OpenAIClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		limiter:    rate.NewLimiter(limit, config.RateLimitRPM),
	}, nil
}

// modelDimensions maps known embedding models to their output vector
// length.
var modelDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// Model returns the configured embedding model identifier.
func (c *OpenAIClient) Model() string {
	return c.config.Model
}

// Dimensions returns the vector length for the configured model, or 0
// for an unrecognized model.
func (c *OpenAIClient) Dimensions() int {
	return modelDimensions[c.config.Model]
}

// Embed generates an embedding for the given text. Newlines are
// collapsed to single spaces before the call; no truncation is applied,
// so a text-too-long rejection from the service surfaces as a
// non-retryable Error.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body := embedRequest{
		Input: []string{collapseNewlines(text)},
		Model: c.config.Model,
	}

	var vector []float64
	operation := func() error {
		v, err := c.doRequest(ctx, body)
		if err != nil {
			var embedErr *Error
			if errors.As(err, &embedErr) && !embedErr.Retryable {
				return backoff.Permanent(err)
			}
			return err
		}
		vector = v
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.RetryDelayBase
	policy.MaxInterval = c.config.RetryDelayMax

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(c.config.MaxRetries)), ctx))
	if err != nil {
		return nil, err
	}

	return vector, nil
}

func (c *OpenAIClient) doRequest(ctx context.Context, body embedRequest) ([]float64, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Code: "REQUEST_FAILED", Message: err.Error(), Retryable: true}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil {
			return nil, &Error{
				Code:       "UNKNOWN_ERROR",
				Message:    string(respBody),
				StatusCode: resp.StatusCode,
				Retryable:  isRetryableStatus(resp.StatusCode),
			}
		}
		return nil, &Error{
			Code:       errResp.Error.Code,
			Message:    errResp.Error.Message,
			StatusCode: resp.StatusCode,
			Retryable:  isRetryableStatus(resp.StatusCode),
		}
	}

	var embedResp embedResponse
	if err := json.Unmarshal(respBody, &embedResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(embedResp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data in response")
	}

	return embedResp.Data[0].Embedding, nil
}

// collapseNewlines replaces newlines with single spaces. Some embedding
// backends degrade on literal newlines in the input.
func collapseNewlines(text string) string {
	replacer := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
	return replacer.Replace(text)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
