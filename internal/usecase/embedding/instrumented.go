package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/domain"
)

// DefaultMaxAPIBatchSize is the largest batch sent in one provider request.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEmbedder splits large batches into provider-sized requests and logs them.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner        domain.Embedder
	provider     string
	model        string
	maxBatchSize int
	logger       *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with sub-batching and observability.
// maxBatchSize <= 0 falls back to DefaultMaxAPIBatchSize.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	maxBatchSize int, logger *zap.Logger,
) *InstrumentedEmbedder {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxAPIBatchSize
	}
	return &InstrumentedEmbedder{
		inner:        inner,
		provider:     provider,
		model:        model,
		maxBatchSize: maxBatchSize,
		logger:       logger,
	}
}

// Embed delegates in sub-batches and concatenates the results in input order.
// The first failing sub-batch fails the whole call; earlier results are discarded.
func (p *InstrumentedEmbedder) Embed(
	ctx context.Context, texts []string,
) (domain.EmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.EmbeddingResult{}, nil
	}

	start := time.Now()

	var result domain.EmbeddingResult
	for offset := 0; offset < len(texts); offset += p.maxBatchSize {
		end := min(offset+p.maxBatchSize, len(texts))
		chunk := texts[offset:end]

		chunkResult, err := p.inner.Embed(ctx, chunk)
		if err != nil {
			p.logger.Error("Embedding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
		}
		if len(chunkResult.Embeddings) != len(chunk) {
			return domain.EmbeddingResult{}, fmt.Errorf("%w: got %d embeddings for %d texts",
				domain.ErrEmbeddingService, len(chunkResult.Embeddings), len(chunk))
		}
		result = result.Merge(chunkResult)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}
