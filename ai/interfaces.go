package ai

import "context"

// Analysis is the result of running image analysis on a media item.
type Analysis struct {
	// Caption is a natural-language description of the image.
	Caption string

	// Tags are short keywords derived from the image content, ordered
	// by relevance.
	Tags []string

	// Confidence is the model's self-reported confidence in [0,1].
	Confidence float32
}

// Analyzer produces captions and tags from raw image bytes.
// Implementations must be thread-safe for concurrent use.
type Analyzer interface {
	// Analyze runs captioning on the image and returns the analysis.
	// Returns an error wrapping ErrPermanentInput when the bytes cannot
	// possibly be analyzed (corrupt or unreadable content); other errors
	// are treated as transient by callers.
	Analyze(ctx context.Context, image []byte) (*Analysis, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Item embeddings are produced from the analysis caption and tags, so search
// queries and stored items share one embedding space.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Analyzer and Embedder instances, ensuring they
// share configuration and resources appropriately.
type Provider interface {
	// Analyzer returns the image analysis service.
	Analyzer() Analyzer

	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	Close() error
}
