package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/chunk"
	"github.com/kailas-cloud/hybridrag/internal/domain/search/query"
	"github.com/kailas-cloud/hybridrag/internal/domain/search/result"
	"github.com/kailas-cloud/hybridrag/internal/metrics"
)

// DefaultFetchMultiplier is how many candidates per requested result each index returns.
const DefaultFetchMultiplier = 3

// Service ranks chunks by a weighted blend of BM25 and cosine relevance.
type Service struct {
	index           Index
	embed           Embedder
	fetchMultiplier int
	logger          *zap.Logger
}

// New creates a retrieval service.
func New(index Index, embed Embedder, fetchMultiplier int, logger *zap.Logger) *Service {
	if fetchMultiplier < 1 {
		fetchMultiplier = DefaultFetchMultiplier
	}
	return &Service{index: index, embed: embed, fetchMultiplier: fetchMultiplier, logger: logger}
}

// Retrieve returns at most q.Count() chunks ordered by combined score.
// Lexical search starts immediately; vector search waits for the query embedding.
// An embedding failure fails the request; there is no lexical-only fallback.
func (s *Service) Retrieve(ctx context.Context, q *query.Query) ([]result.Scored, error) {
	start := time.Now()
	results, err := s.retrieve(ctx, q)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RetrievalDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return results, err
}

func (s *Service) retrieve(ctx context.Context, q *query.Query) ([]result.Scored, error) {
	depth := q.FetchDepth(s.fetchMultiplier)

	var lexHits, vecHits []result.Hit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.index.SearchLexical(gctx, q.Text(), depth)
		if err != nil {
			return fmt.Errorf("search text: %w", err)
		}
		lexHits = hits
		return nil
	})
	g.Go(func() error {
		emb, err := s.embed.Embed(gctx, []string{q.Text()})
		if err != nil {
			return fmt.Errorf("vectorize query: %w", err)
		}
		if len(emb.Embeddings) != 1 {
			return fmt.Errorf("vectorize query: %w: got %d embeddings", domain.ErrEmbeddingService, len(emb.Embeddings))
		}
		domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

		hits, err := s.index.SearchVector(gctx, emb.Embeddings[0], depth)
		if err != nil {
			if errors.Is(err, domain.ErrDimensionMismatch) {
				return fmt.Errorf("search vectors: %w: %w", domain.ErrEmbeddingService, err)
			}
			return fmt.Errorf("search vectors: %w", err)
		}
		vecHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.RetrievalCandidates.WithLabelValues("lexical").Observe(float64(len(lexHits)))
	metrics.RetrievalCandidates.WithLabelValues("vector").Observe(float64(len(vecHits)))

	ranked := fuseWeighted(lexHits, vecHits, q.TextWeight(), q.VectorWeight())
	if len(ranked) > q.Count() {
		ranked = ranked[:q.Count()]
	}

	results := make([]result.Scored, len(ranked))
	for i, f := range ranked {
		results[i] = result.New(chunk.Reconstruct(f.id, f.content, nil), f.lexical, f.vector, f.combined)
	}

	s.logger.Debug("Retrieval completed",
		zap.Int("lexical_candidates", len(lexHits)),
		zap.Int("vector_candidates", len(vecHits)),
		zap.Int("results", len(results)),
	)
	return results, nil
}
