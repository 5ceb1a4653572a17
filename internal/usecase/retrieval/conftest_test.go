package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/chunk"
	"github.com/kailas-cloud/hybridrag/internal/domain/search/result"
	"github.com/kailas-cloud/hybridrag/internal/repository/search"
)

// memIndex is a shared in-memory stand-in for the Redis chunk index.
// Lexical score is the number of query-term occurrences; vector score is cosine similarity.
type memIndex struct {
	mu        sync.RWMutex
	dim       int
	chunks    map[string]chunk.Chunk
	lexErr    error
	vectorErr error
}

func newMemIndex(dim int, chunks ...chunk.Chunk) *memIndex {
	m := &memIndex{dim: dim, chunks: make(map[string]chunk.Chunk)}
	for _, c := range chunks {
		m.chunks[c.ID()] = c
	}
	return m
}

func (m *memIndex) Dim() int { return m.dim }

func (m *memIndex) Index(_ context.Context, chunks []chunk.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		if len(c.Embedding()) != m.dim {
			return fmt.Errorf("%w: chunk %s", domain.ErrDimensionMismatch, c.ID())
		}
	}
	for _, c := range chunks {
		m.chunks[c.ID()] = c
	}
	return nil
}

func (m *memIndex) Existing(_ context.Context, ids []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, id := range ids {
		if _, ok := m.chunks[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memIndex) SearchLexical(_ context.Context, text string, limit int) ([]result.Hit, error) {
	if m.lexErr != nil {
		return nil, m.lexErr
	}
	terms := search.QueryTerms(text)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []result.Hit
	for _, c := range m.chunks {
		words := search.QueryTerms(c.Content())
		score := 0.0
		for _, t := range terms {
			for _, w := range words {
				if w == t {
					score++
				}
			}
		}
		if score > 0 {
			hits = append(hits, result.Hit{ID: c.ID(), Content: c.Content(), Score: score})
		}
	}
	return top(hits, limit), nil
}

func (m *memIndex) SearchVector(_ context.Context, vec []float32, limit int) ([]result.Hit, error) {
	if m.vectorErr != nil {
		return nil, m.vectorErr
	}
	if len(vec) != m.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions", domain.ErrDimensionMismatch, len(vec))
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]result.Hit, 0, len(m.chunks))
	for _, c := range m.chunks {
		hits = append(hits, result.Hit{ID: c.ID(), Content: c.Content(), Score: cosine(vec, c.Embedding())})
	}
	return top(hits, limit), nil
}

func top(hits []result.Hit, limit int) []result.Hit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return strings.Compare(hits[i].ID, hits[j].ID) < 0
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
