package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockProvider provides a simple mock implementation for testing and development
type MockProvider struct {
	mu        sync.Mutex
	available bool
	responses []string
	errs      []error
	prompts   []string
}

// NewMockProvider creates a new mock LLM provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		available: true,
	}
}

// SetAvailable toggles availability.
func (m *MockProvider) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// QueueResponse makes the next call return response.
func (m *MockProvider) QueueResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
	m.errs = append(m.errs, nil)
}

// QueueError makes the next call fail with err.
func (m *MockProvider) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, "")
	m.errs = append(m.errs, err)
}

// Prompts returns every prompt received so far.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.prompts...)
}

// IsAvailable returns whether the mock provider is available
func (m *MockProvider) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Complete returns queued results first and otherwise echoes the prompt input as a
// labeled summary.
func (m *MockProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return "", fmt.Errorf("mock provider is not available")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.prompts = append(m.prompts, prompt)

	if len(m.responses) > 0 {
		resp, err := m.responses[0], m.errs[0]
		m.responses, m.errs = m.responses[1:], m.errs[1:]
		return resp, err
	}

	return mockSummary(prompt), nil
}

func mockSummary(prompt string) string {
	input := prompt
	if idx := strings.LastIndex(prompt, InputMarker); idx >= 0 {
		input = prompt[idx+len(InputMarker):]
	}
	input = strings.TrimSpace(input)

	return fmt.Sprintf("Name: Not provided\nMeeting Context: %s\nConversation Summary: %s\nFollow-up Items: Send a short note", firstLine(input), input)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
