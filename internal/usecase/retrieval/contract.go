package retrieval

import (
	"context"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/search/result"
)

// Index answers both halves of a hybrid query.
type Index interface {
	SearchLexical(ctx context.Context, text string, limit int) ([]result.Hit, error)
	SearchVector(ctx context.Context, vec []float32, limit int) ([]result.Hit, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (domain.EmbeddingResult, error)
}
