package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/chunk"
	"github.com/kailas-cloud/hybridrag/internal/metrics"
)

// DefaultMaxBatchSize caps the number of chunks in one ingestion call.
const DefaultMaxBatchSize = 1000

// Input is one chunk to ingest. An empty ID gets a fresh UUID.
type Input struct {
	ID      string
	Content string
}

// Service adds chunks: validate, embed, store in one transaction, index in one transaction.
type Service struct {
	repo         Repository
	index        Index
	embed        Embedder
	maxBatchSize int
	logger       *zap.Logger
}

// New creates an ingestion service.
func New(repo Repository, index Index, embed Embedder, maxBatchSize int, logger *zap.Logger) *Service {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	return &Service{repo: repo, index: index, embed: embed, maxBatchSize: maxBatchSize, logger: logger}
}

// Ingest stores inputs as one atomic batch and returns how many chunks were added.
// Every error wraps domain.ErrIngestion together with its cause; nothing is retried.
// Embedding completes before any write, so a failed embedding leaves no trace.
func (s *Service) Ingest(ctx context.Context, inputs []Input) (int, error) {
	n, err := s.ingest(ctx, inputs)
	if err != nil {
		metrics.IngestBatchesTotal.WithLabelValues("error").Inc()
		return 0, domain.WrapIngestion(err)
	}
	metrics.IngestBatchesTotal.WithLabelValues("success").Inc()
	return n, nil
}

func (s *Service) ingest(ctx context.Context, inputs []Input) (int, error) {
	chunks, err := s.build(ctx, inputs)
	if err != nil {
		return 0, err
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content()
	}
	emb, err := s.embed.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	if err := s.attach(chunks, emb.Embeddings); err != nil {
		return 0, err
	}

	if err := s.repo.Insert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	// The batch is committed; finish indexing even if ctx was cancelled meanwhile.
	wctx := context.WithoutCancel(ctx)
	if err := s.index.Index(wctx, chunks); err != nil {
		s.rollback(wctx, chunks, err)
		return 0, fmt.Errorf("index chunks: %w", err)
	}

	metrics.IngestedChunksTotal.Add(float64(len(chunks)))
	s.logger.Info("Chunks ingested",
		zap.Int("chunks", len(chunks)),
		zap.Int("total_tokens", emb.TotalTokens),
	)
	return len(chunks), nil
}

// rollback removes a stored batch whose index write failed, so the store never holds
// chunks that search cannot see. If the delete fails too, the next startup's Reconcile
// indexes the leftovers.
func (s *Service) rollback(ctx context.Context, chunks []chunk.Chunk, cause error) {
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = chunks[i].ID()
	}
	if err := s.repo.Delete(ctx, ids); err != nil {
		s.logger.Error("Stored batch is not indexed and could not be removed",
			zap.Int("chunks", len(ids)),
			zap.NamedError("index_error", cause),
			zap.Error(err),
		)
		return
	}
	s.logger.Warn("Stored batch removed after index failure",
		zap.Int("chunks", len(ids)),
		zap.Error(cause),
	)
}

// build validates inputs and rejects ids repeated in the batch or already indexed.
func (s *Service) build(ctx context.Context, inputs []Input) ([]chunk.Chunk, error) {
	if len(inputs) == 0 {
		return nil, domain.NewValidationError("chunks", "must not be empty")
	}
	if len(inputs) > s.maxBatchSize {
		return nil, domain.NewValidationError("chunks", fmt.Sprintf("too many chunks (max %d)", s.maxBatchSize))
	}

	chunks := make([]chunk.Chunk, len(inputs))
	ids := make([]string, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		c, err := chunk.New(in.ID, in.Content)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		if _, dup := seen[c.ID()]; dup {
			return nil, fmt.Errorf("%w: %s repeated in batch", domain.ErrDuplicateID, c.ID())
		}
		seen[c.ID()] = struct{}{}
		chunks[i] = c
		ids[i] = c.ID()
	}

	existing, err := s.index.Existing(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check ids: %w", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateID, existing[0])
	}
	return chunks, nil
}

// attach pairs the i-th embedding with the i-th chunk and checks dimensionality.
func (s *Service) attach(chunks []chunk.Chunk, embeddings [][]float32) error {
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingService, len(embeddings), len(chunks))
	}

	dim := s.index.Dim()
	for i, e := range embeddings {
		if len(e) != dim {
			return fmt.Errorf("%w: chunk %s has %d dimensions, want %d",
				domain.ErrDimensionMismatch, chunks[i].ID(), len(e), dim)
		}
		if err := domain.Vector(e).Validate(); err != nil {
			return fmt.Errorf("%w: chunk %s: %w", domain.ErrEmbeddingService, chunks[i].ID(), err)
		}
		chunks[i] = chunks[i].WithEmbedding(e)
	}
	return nil
}
