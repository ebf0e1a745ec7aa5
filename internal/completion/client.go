// Package completion wraps the remote generative text service behind a
// small Client interface so summarization and recommendation prompts
// can be tested with deterministic fakes.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// Client sends a system instruction and user prompt to a generative
// text service and returns the raw text response.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request carries one generative call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// APIError represents an error from the generative service.
type APIError struct {
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion service error [%s]: %s", e.Code, e.Message)
}

// Config contains settings for the OpenAI-wire client.
type Config struct {
	Endpoint       string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
	BreakerTimeout time.Duration
}

// OpenAIClient implements Client against an OpenAI-compatible chat
// completions endpoint. Calls run through a circuit breaker so a
// misbehaving remote service fails fast instead of piling up blocked
// requests.
type OpenAIClient struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	User      string        `json:"user,omitempty"`
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

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

// NewOpenAIClient creates a new OpenAI-wire completion client.
func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("completion API key is required")
	}
	if config.Endpoint == "" {
		config.Endpoint = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "gpt-4o"
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 60 * time.Second
	}
	if config.BreakerTimeout == 0 {
		config.BreakerTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "completion",
		Timeout: config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &OpenAIClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		breaker:    breaker,
	}, nil
}

// Complete sends the request and returns the model's text verbatim.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model:     c.config.Model,
		MaxTokens: req.MaxTokens,
		User:      uuid.NewString(),
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, body)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", &APIError{Code: "CIRCUIT_OPEN", Message: err.Error(), Retryable: true}
		}
		return "", err
	}

	return out.(string), nil
}

func (c *OpenAIClient) doRequest(ctx context.Context, body chatRequest) (string, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Code: "REQUEST_FAILED", Message: err.Error(), Retryable: true}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil {
			return "", &APIError{
				Code:       "UNKNOWN_ERROR",
				Message:    string(respBody),
				StatusCode: resp.StatusCode,
				Retryable:  isRetryableStatus(resp.StatusCode),
			}
		}
		return "", &APIError{
			Code:       errResp.Error.Code,
			Message:    errResp.Error.Message,
			StatusCode: resp.StatusCode,
			Retryable:  isRetryableStatus(resp.StatusCode),
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	return chatResp.Choices[0].Message.Content, nil
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
