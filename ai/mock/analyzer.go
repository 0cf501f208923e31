package mock

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/perseid/argos/ai"
)

// MockAnalyzer is a test double for ai.Analyzer.
// It allows custom behavior injection via function fields.
type MockAnalyzer struct {
	// AnalyzeFunc is called by Analyze if set.
	// If nil, uses default deterministic behavior.
	AnalyzeFunc func(ctx context.Context, image []byte) (*ai.Analysis, error)

	callCount int
}

// NewMockAnalyzer creates a mock analyzer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockAnalyzer().
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// Analyze produces a deterministic caption derived from the image bytes.
func (m *MockAnalyzer) Analyze(ctx context.Context, image []byte) (*ai.Analysis, error) {
	m.callCount++

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, image)
	}

	if len(image) == 0 {
		return nil, ai.Permanent(ai.ErrEmptyInput)
	}

	h := fnv.New32a()
	h.Write(image)
	sum := h.Sum32()

	return &ai.Analysis{
		Caption:    fmt.Sprintf("synthetic scene %08x", sum),
		Tags:       []string{"synthetic", fmt.Sprintf("tag-%d", sum%10)},
		Confidence: 0.9,
	}, nil
}

// CallCount returns the number of times Analyze was called.
func (m *MockAnalyzer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockAnalyzer) Reset() {
	m.callCount = 0
	m.AnalyzeFunc = nil
}
