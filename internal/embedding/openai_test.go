package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient(t *testing.T) {
	t.Run("successful creation with defaults", func(t *testing.T) {
		client, err := NewOpenAIClient(Config{APIKey: "test-key"})
		require.NoError(t, err)
		assert.Equal(t, "https://api.openai.com/v1", client.config.Endpoint)
		assert.Equal(t, "text-embedding-3-large", client.Model())
		assert.Equal(t, 3072, client.Dimensions())
	})

	t.Run("missing API key", func(t *testing.T) {
		_, err := NewOpenAIClient(Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})
}

func TestOpenAIClient_Embed(t *testing.T) {
	ctx := context.Background()

	t.Run("collapses newlines before the call", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req embedRequest
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &req))
			require.Len(t, req.Input, 1)
			assert.Equal(t, "career history: backend engineer", req.Input[0])

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data":  []map[string]interface{}{{"embedding": []float64{0.1, 0.2, 0.3}, "index": 0}},
				"model": "text-embedding-3-large",
			})
		}))
		defer server.Close()

		client, err := NewOpenAIClient(Config{APIKey: "test-key", Endpoint: server.URL})
		require.NoError(t, err)

		vector, err := client.Embed(ctx, "career history:\nbackend engineer")
		require.NoError(t, err)
		assert.Equal(t, []float64{0.1, 0.2, 0.3}, vector)
	})

	t.Run("text-too-long rejection is not retried", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"maximum context length exceeded","code":"context_length_exceeded"}}`))
		}))
		defer server.Close()

		client, err := NewOpenAIClient(Config{
			APIKey:         "test-key",
			Endpoint:       server.URL,
			MaxRetries:     3,
			RetryDelayBase: time.Millisecond,
		})
		require.NoError(t, err)

		_, err = client.Embed(ctx, "very long text")
		require.Error(t, err)

		var embedErr *Error
		require.True(t, errors.As(err, &embedErr))
		assert.Equal(t, "context_length_exceeded", embedErr.Code)
		assert.False(t, embedErr.Retryable)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("transient failure is retried until success", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{{"embedding": []float64{1, 0}, "index": 0}},
			})
		}))
		defer server.Close()

		client, err := NewOpenAIClient(Config{
			APIKey:         "test-key",
			Endpoint:       server.URL,
			MaxRetries:     5,
			RetryDelayBase: time.Millisecond,
			RetryDelayMax:  2 * time.Millisecond,
		})
		require.NoError(t, err)

		vector, err := client.Embed(ctx, "text")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 0}, vector)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})
}

func TestCollapseNewlines(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"no newlines", "no newlines"},
		{"a\nb", "a b"},
		{"a\r\nb\rc", "a b c"},
		{"\n\n", "  "},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, collapseNewlines(tt.in))
	}
}

func TestMockClient_Deterministic(t *testing.T) {
	mock := NewMockClient(6)

	v1, err := mock.Embed(context.Background(), "same text")
	require.NoError(t, err)
	v2, err := mock.Embed(context.Background(), "same text")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 6)
	assert.Equal(t, 6, mock.Dimensions())
	assert.Len(t, mock.Calls(), 2)
}
