package ai

import "context"

// Generator produces free-form text completions from a chat model.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate sends a system and user prompt to the model and returns the
	// raw response text. The response is not guaranteed to be valid JSON
	// even when JSON output was requested.
	Generate(ctx context.Context, system, user string) (string, error)
}

// Embedder generates vector embeddings from text for semantic ranking.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in
	// a batch. The returned slice preserves input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Generator and
// Embedder instances, ensuring they share configuration and resources.
type Provider interface {
	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
