// Package embedding converts text into fixed-length numeric vectors
// through a remote embedding service.
package embedding

import (
	"context"
	"fmt"
)

// Client generates an embedding vector for a text blob. The vector
// length is determined by the configured model and must be treated as
// opaque: vectors are only comparable when produced by the same model.
type Client interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	// Dimensions is the vector length the configured model produces, or
	// 0 when unknown.
	Dimensions() int
	Model() string
}

// Error represents a failure from the embedding service. Retryable is
// true only for transient transport failures; text-too-long rejections
// are permanent.
type Error struct {
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("embedding service error [%s]: %s", e.Code, e.Message)
}
