package chunk

import (
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/hybridrag/internal/domain"
)

// MaxIDLength bounds caller-supplied chunk ids.
const MaxIDLength = 256

// Chunk is the retrievable unit: stored text plus its embedding. Immutable once ingested.
type Chunk struct {
	id        string
	content   string
	embedding domain.Vector
}

// New validates and creates a Chunk without an embedding.
// An empty id is replaced with a fresh UUIDv4.
func New(id, content string) (Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return Chunk{}, domain.NewValidationError("content", "is required")
	}
	if id == "" {
		id = uuid.NewString()
	}
	if len(id) > MaxIDLength {
		return Chunk{}, domain.NewValidationError("id", "too long (max 256)")
	}
	return Chunk{id: id, content: content}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(id, content string, embedding domain.Vector) Chunk {
	return Chunk{id: id, content: content, embedding: embedding}
}

// ID returns the chunk identifier.
func (c *Chunk) ID() string { return c.id }

// Content returns the chunk text.
func (c *Chunk) Content() string { return c.content }

// Embedding returns the embedding vector, nil before ingestion embeds it.
func (c *Chunk) Embedding() domain.Vector { return c.embedding }

// WithEmbedding returns a copy carrying the given embedding.
func (c Chunk) WithEmbedding(v []float32) Chunk {
	c.embedding = domain.Vector(v)
	return c
}
