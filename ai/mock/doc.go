// Package mock provides test double implementations of the ai interfaces.
//
// This package contains a mock implementation of ai.Embedder for use in unit
// tests. The mock allows tests to run without an external embedding service
// and enables controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockEmbedder := mock.NewMockEmbedder()
//	vector, err := mockEmbedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder.EmbedTextsFunc = func(ctx context.Context, texts []string) (*ai.EmbeddingBatch, error) {
//	    return nil, errors.New("provider unavailable")
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
// The mock returns deterministic vectors based on an FNV hash of the input
// text, so the same text always embeds to the same vector.
package mock
