package ai

import "context"

// EmbeddingBatch is the result of embedding one batch of texts.
type EmbeddingBatch struct {
	// Vectors holds one embedding per input text, in input order.
	Vectors [][]float32

	// TokensUsed is the provider-reported (or estimated) token consumption
	// for the whole batch. Used for run reports and cost estimation.
	TokensUsed int64

	// Model is the identifier of the model that produced the vectors.
	Model string
}

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates an embedding for a single text string.
	// Used on the query path, where token accounting is not needed.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in one call.
	// The returned batch contains embeddings in the same order as the inputs.
	// Returns an error if any embedding generation fails; partial results
	// are never returned.
	EmbedTexts(ctx context.Context, texts []string) (*EmbeddingBatch, error)

	// Model returns the model identifier embeddings are generated with.
	// Stored alongside each vector for migration safety.
	Model() string

	// Dimensions returns the fixed embedding dimension.
	Dimensions() int
}
