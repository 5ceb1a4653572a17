package ingest

import (
	"context"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/chunk"
)

// Repository is the durable chunk store.
type Repository interface {
	Insert(ctx context.Context, chunks []chunk.Chunk) error
	Delete(ctx context.Context, ids []string) error
}

// Index is the shared search index that ingested chunks are written to.
type Index interface {
	Index(ctx context.Context, chunks []chunk.Chunk) error
	Existing(ctx context.Context, ids []string) ([]string, error)
	Dim() int
}

// Source streams stored chunks for index reconciliation.
type Source interface {
	Each(ctx context.Context, batchSize int, fn func([]chunk.Chunk) error) error
	Count(ctx context.Context) (int, error)
}

// CountingIndex is an index that can report its size.
type CountingIndex interface {
	Index(ctx context.Context, chunks []chunk.Chunk) error
	Count(ctx context.Context) (int, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, texts []string) (domain.EmbeddingResult, error)
}
