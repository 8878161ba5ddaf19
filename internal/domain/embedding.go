package domain

import "context"

// Embedder is the text vectorization contract. The engine never requires an
// embedder; callers may always supply query embeddings directly.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	ModelVersion string
	TotalTokens  int
}
