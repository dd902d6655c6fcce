package mock

import (
	"context"
	"encoding/json"
	"strings"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, uses default canned-response behavior.
	GenerateFunc func(ctx context.Context, system, user string) (string, error)

	callCount int
}

// NewMockGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns a minimal well-formed analysis response.
// Default behavior: one "Key Themes" insight quoting the first line of the
// user prompt, serialized as canonical JSON.
func (m *MockGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	m.callCount++

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, user)
	}

	quote := user
	if i := strings.IndexByte(quote, '\n'); i >= 0 {
		quote = quote[:i]
	}
	quote = strings.TrimSpace(quote)
	if quote == "" {
		quote = "no input provided"
	}

	payload := map[string]any{
		"sections": []map[string]any{
			{
				"title": "Key Themes",
				"insights": []map[string]any{
					{
						"label":  "mock insight",
						"rank":   10,
						"quotes": []map[string]any{{"text": quote, "speaker": "participant"}},
					},
				},
			},
		},
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateFunc = nil
}
