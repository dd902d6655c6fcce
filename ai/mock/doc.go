// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Generator, ai.Embedder,
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	response, err := mockProvider.Generator().Generate(ctx, system, user)
//
//	// Custom behavior injection
//	gen := mock.NewMockGenerator()
//	gen.GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
//	    return `{"sections": []}`, nil
//	}
//
//	// Check call counts
//	count := gen.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockGenerator: Returns a minimal well-formed JSON analysis response
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockProvider: Aggregates mock generator and embedder
package mock
