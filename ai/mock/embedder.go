package mock

import (
	"context"
	"hash/fnv"

	"github.com/poiesic/faqit/ai"
)

// DefaultDims is the dimension of vectors produced by the default mock behavior.
const DefaultDims = 384

// MockEmbedder is a test double for ai.Embedder with deterministic defaults
// and injectable behavior.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) (*ai.EmbeddingBatch, error)

	callCount int
}

var _ ai.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions and behavior injection.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount++

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}

	return generateDeterministicVector(text, DefaultDims), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
// Token usage is reported as one token per word.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) (*ai.EmbeddingBatch, error) {
	m.callCount++

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	vectors := make([][]float32, len(texts))
	var tokens int64
	for i, text := range texts {
		vectors[i] = generateDeterministicVector(text, DefaultDims)
		tokens += int64(len(text)+3) / 4
	}
	return &ai.EmbeddingBatch{
		Vectors:    vectors,
		TokensUsed: tokens,
		Model:      m.Model(),
	}, nil
}

// Model returns a fixed mock model tag.
func (m *MockEmbedder) Model() string {
	return "mock-embedder"
}

// Dimensions returns the mock embedding dimension.
func (m *MockEmbedder) Dimensions() int {
	return DefaultDims
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// generateDeterministicVector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	// Normalize to unit vector
	var sumSquares float32
	for _, v := range vector {
		sumSquares += v * v
	}
	norm := float32(1.0)
	if sumSquares > 0 {
		norm = float32(1.0) / float32(sumSquares)
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
