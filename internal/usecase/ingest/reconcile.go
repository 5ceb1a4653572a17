package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/domain/chunk"
	"github.com/kailas-cloud/hybridrag/internal/metrics"
)

// reconcileBatchSize is how many stored chunks are re-indexed per transaction.
const reconcileBatchSize = 500

// Reconcile re-indexes every stored chunk when the index holds fewer chunks than the
// store, e.g. after the index was flushed or a rollback failed. Re-indexing an id
// overwrites it, so the pass is idempotent. Called once at startup, before serving.
func Reconcile(ctx context.Context, src Source, idx CountingIndex, logger *zap.Logger) (int, error) {
	stored, err := src.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count stored chunks: %w", err)
	}
	indexed, err := idx.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count indexed chunks: %w", err)
	}
	if indexed >= stored {
		logger.Info("Index is up to date", zap.Int("stored", stored), zap.Int("indexed", indexed))
		return 0, nil
	}

	start := time.Now()
	total := 0
	err = src.Each(ctx, reconcileBatchSize, func(batch []chunk.Chunk) error {
		if err := idx.Index(ctx, batch); err != nil {
			return fmt.Errorf("index %d stored chunks: %w", len(batch), err)
		}
		total += len(batch)
		return nil
	})
	metrics.ReindexedChunksTotal.Add(float64(total))
	if err != nil {
		return total, fmt.Errorf("reconcile index: %w", err)
	}

	logger.Info("Index rebuilt from store",
		zap.Int("stored", stored),
		zap.Int("previously_indexed", indexed),
		zap.Int("reindexed", total),
		zap.Duration("duration", time.Since(start)),
	)
	return total, nil
}
