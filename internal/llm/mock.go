package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/abhisek/ronpa/internal/stream"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// Chunks, when set, are streamed one by one by GenerateStream instead
	// of Content. StreamErr is returned after the last chunk.
	Chunks    []string
	StreamErr error
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	resp, err := m.next(req)
	if err != nil {
		return nil, err
	}

	return &Response{
		Content:    resp.Content,
		Text:       string(resp.Content),
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// GenerateStream feeds the next canned response through an accumulator and
// finishes it like a real stream, so schemas are decoded and validated.
func (m *MockProvider) GenerateStream(ctx context.Context, req Request, onProgress stream.ProgressFunc) (*Response, error) {
	resp, err := m.next(req)
	if err != nil {
		return nil, err
	}

	chunks := resp.Chunks
	if len(chunks) == 0 && len(resp.Content) > 0 {
		chunks = []string{string(resp.Content)}
	}

	acc := stream.NewAccumulator(onProgress)
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		acc.Append(c)
	}
	if resp.StreamErr != nil {
		return nil, resp.StreamErr
	}
	acc.SetUsage(resp.Usage.toStream())
	acc.Close()

	return finish(req, acc, "mock", "end")
}

func (m *MockProvider) next(req Request) (MockResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return MockResponse{}, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return MockResponse{}, resp.Err
	}
	return resp, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
