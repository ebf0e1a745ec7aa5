package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
)

// MockClient implements Client for testing. Vectors are deterministic
// functions of the input text, so repeated calls with the same text
// always produce the same embedding.
type MockClient struct {
	mu         sync.Mutex
	dimensions int
	Vectors    map[string][]float64
	Err        error
	calls      []string
}

// NewMockClient creates a mock embedder producing vectors of the given
// dimensionality.
func NewMockClient(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions}
}

// Model returns the mock model identifier.
func (m *MockClient) Model() string {
	return "mock-embedding-model"
}

// Dimensions returns the configured mock vector length.
func (m *MockClient) Dimensions() int {
	return m.dimensions
}

// Embed records the call and returns either a configured vector for the
// text or a hash-derived deterministic one.
func (m *MockClient) Embed(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if v, ok := m.Vectors[text]; ok {
		return v, nil
	}

	sum := sha256.Sum256([]byte(text))
	vector := make([]float64, m.dimensions)
	for i := range vector {
		bits := binary.BigEndian.Uint32(sum[(i*4)%28 : (i*4)%28+4])
		vector[i] = math.Mod(float64(bits)/math.MaxUint32+float64(i)*0.01, 1.0)
	}
	return vector, nil
}

// Calls returns a copy of every embedded text.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
