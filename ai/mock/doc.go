// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Analyzer, ai.Embedder,
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	analysis, err := mockProvider.Analyzer().Analyze(ctx, imageBytes)
//
//	// Custom behavior injection
//	mockAnalyzer := mock.NewMockAnalyzer()
//	mockAnalyzer.AnalyzeFunc = func(ctx context.Context, image []byte) (*ai.Analysis, error) {
//	    return nil, errors.New("service unavailable")
//	}
//
//	// Check call counts
//	count := mockAnalyzer.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockAnalyzer: Returns a caption and tags derived from the image hash
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockProvider: Aggregates mock analyzer and embedder
package mock
