package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// One call embeds an ordered batch: the i-th vector belongs to the i-th text.
// A batch either fully succeeds or fully fails.
// Implementations have no persistent side effects, so a failed call is safe to retry.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries embedding vectors and token usage through the decorator chain.
type EmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Merge appends another result, keeping input order.
func (r EmbeddingResult) Merge(other EmbeddingResult) EmbeddingResult {
	return EmbeddingResult{
		Embeddings:   append(r.Embeddings, other.Embeddings...),
		PromptTokens: r.PromptTokens + other.PromptTokens,
		TotalTokens:  r.TotalTokens + other.TotalTokens,
	}
}
