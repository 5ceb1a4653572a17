package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/hybridrag/internal/db"
	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/chunk"
	"github.com/kailas-cloud/hybridrag/internal/domain/search/result"
)

// Hash field names of an indexed chunk.
const (
	fieldContent   = "content"
	fieldEmbedding = "embedding"
	vectorAlias    = "vector"
)

// Defaults for Config.
const (
	DefaultIndexName = "hybridrag:chunks:idx"
	DefaultKeyPrefix = "hybridrag:chunk:"
)

// Config names the FT index and fixes its dimensionality.
type Config struct {
	IndexName string
	KeyPrefix string
	Dim       int
}

// store is the consumer interface for the Redis index (ISP).
type store interface {
	HSetAtomic(ctx context.Context, items []db.HashSetItem) error
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	IndexDocCount(ctx context.Context, name string) (int, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo is the lexical and vector index over chunks: one HASH per chunk under a
// RediSearch index with a TEXT field (BM25) and a FLAT COSINE VECTOR field.
// Every replica sharing the Redis instance sees the same index.
type Repo struct {
	store     store
	indexName string
	prefix    string
	dim       int
}

// New creates the chunk index repository.
func New(s store, cfg Config) *Repo {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &Repo{store: s, indexName: cfg.IndexName, prefix: cfg.KeyPrefix, dim: cfg.Dim}
}

// Dim returns the vector dimensionality of the index.
func (r *Repo) Dim() int { return r.dim }

// EnsureIndex creates the FT index unless it already exists and reports whether it did.
// Replicas starting together may race on FT.CREATE; losing that race is not an error.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w: %w", r.indexName, domain.ErrStore, err)
	}
	if exists {
		return false, nil
	}

	def := &db.IndexDefinition{
		Name:        r.indexName,
		StorageType: db.StorageHash,
		Prefixes:    []string{r.prefix},
		Fields: []db.IndexField{
			{Name: fieldContent, Type: db.IndexFieldText},
			{
				Name:           fieldEmbedding,
				Alias:          vectorAlias,
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorFlat,
				VectorDim:      r.dim,
				VectorDistance: db.DistanceCosine,
			},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w: %w", r.indexName, domain.ErrStore, err)
	}
	return true, nil
}

// Index writes chunks in one transaction, so a batch becomes searchable all at once.
// Re-indexing an existing id overwrites it.
func (r *Repo) Index(ctx context.Context, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		if len(c.Embedding()) != r.dim {
			return fmt.Errorf("%w: chunk %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, c.ID(), len(c.Embedding()), r.dim)
		}
		items[i] = db.HashSetItem{
			Key: r.key(c.ID()),
			Fields: map[string]string{
				fieldContent:   c.Content(),
				fieldEmbedding: db.EncodeVector(c.Embedding()),
			},
		}
	}
	if err := r.store.HSetAtomic(ctx, items); err != nil {
		return fmt.Errorf("index %d chunks: %w: %w", len(chunks), domain.ErrStore, err)
	}
	return nil
}

// Existing returns the ids that are already indexed, in input order.
func (r *Repo) Existing(ctx context.Context, ids []string) ([]string, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	found, err := r.store.ExistsMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("check ids: %w: %w", domain.ErrStore, err)
	}
	var out []string
	for i, ok := range found {
		if ok {
			out = append(out, ids[i])
		}
	}
	return out, nil
}

// Count returns the number of indexed chunks.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.IndexDocCount(ctx, r.indexName)
	if err != nil {
		return 0, fmt.Errorf("count index: %w: %w", domain.ErrStore, err)
	}
	return n, nil
}

// SearchLexical returns up to limit BM25 hits with raw scores.
// A query without searchable terms returns no hits.
func (r *Repo) SearchLexical(ctx context.Context, text string, limit int) ([]result.Hit, error) {
	terms := QueryTerms(text)
	if len(terms) == 0 {
		return nil, nil
	}
	sr, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    r.indexName,
		Field:        fieldContent,
		Terms:        terms,
		TopK:         limit,
		ReturnFields: []string{fieldContent},
	})
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w: %w", domain.ErrStore, err)
	}
	return r.hits(sr), nil
}

// SearchVector returns up to limit nearest chunks with cosine similarity in [-1,1].
func (r *Repo) SearchVector(ctx context.Context, vec []float32, limit int) ([]result.Hit, error) {
	if len(vec) != r.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vec), r.dim)
	}
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Field:        vectorAlias,
		Vector:       vec,
		K:            limit,
		ReturnFields: []string{fieldContent},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w: %w", domain.ErrStore, err)
	}
	return r.hits(sr), nil
}

func (r *Repo) hits(sr *db.SearchResult) []result.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	out := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		out = append(out, result.Hit{
			ID:      strings.TrimPrefix(e.Key, r.prefix),
			Content: e.Fields[fieldContent],
			Score:   e.Score,
		})
	}
	return out
}

func (r *Repo) key(id string) string { return r.prefix + id }
