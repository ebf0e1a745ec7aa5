package completion

import (
	"context"
	"sync"
)

// Mock implements Client for testing. Responses are deterministic: the
// configured CompleteFunc runs if set, otherwise a canned response is
// returned. All requests are recorded.
type Mock struct {
	mu           sync.Mutex
	CompleteFunc func(ctx context.Context, req Request) (string, error)
	Response     string
	Err          error
	calls        []Request
}

// Complete records the request and returns the configured response.
func (m *Mock) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Calls returns a copy of every recorded request.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}
