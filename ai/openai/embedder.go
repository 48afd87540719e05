package openai

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/faqit/ai"
)

// Embedder generates embeddings through an OpenAI-compatible API.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	dims     int
	logger   *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for embeddings
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	// Wrap in langchaingo embedder
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		model:    config.EmbeddingModel,
		dims:     config.EmbeddingDims,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) (*ai.EmbeddingBatch, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	return &ai.EmbeddingBatch{
		Vectors:    vectors,
		TokensUsed: estimateTokens(texts),
		Model:      e.model,
	}, nil
}

// Model returns the configured embedding model identifier.
func (e *Embedder) Model() string {
	return e.model
}

// Dimensions returns the configured embedding dimension.
func (e *Embedder) Dimensions() int {
	return e.dims
}

// estimateTokens approximates token usage for a batch of texts. The
// OpenAI-compatible embeddings endpoint does not surface usage through
// langchaingo, so run reports use the common 4-characters-per-token estimate.
func estimateTokens(texts []string) int64 {
	var chars int64
	for _, t := range texts {
		chars += int64(len(t))
	}
	tokens := chars / 4
	if tokens == 0 && chars > 0 {
		tokens = 1
	}
	return tokens
}
