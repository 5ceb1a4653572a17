package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/pkg/client"
)

// chunkAdder is the part of the API client the uploader needs.
type chunkAdder interface {
	AddChunks(ctx context.Context, chunks []client.Chunk) (client.AddResult, error)
}

// uploader sends chunk batches concurrently through an ants pool.
type uploader struct {
	api        chunkAdder
	batchSize  int
	workers    int
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// uploadResult summarizes a run.
type uploadResult struct {
	Uploaded      int64
	Batches       int
	FailedBatches int64
	Tokens        int64
	Duration      time.Duration
}

// Run uploads chunks in batches and waits for every batch to finish.
// A failed batch is logged and counted; it does not stop the others.
func (u *uploader) Run(ctx context.Context, chunks []client.Chunk) (uploadResult, error) {
	start := time.Now()
	batches := split(chunks, max(u.batchSize, 1))

	pool, err := ants.NewPool(max(u.workers, 1))
	if err != nil {
		return uploadResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		uploaded atomic.Int64
		failed   atomic.Int64
		tokens   atomic.Int64
	)
	for i, batch := range batches {
		i, batch := i, batch
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			n, err := u.send(ctx, batch)
			if err != nil {
				failed.Add(1)
				u.logger.Error("Batch failed",
					zap.Int("batch", i+1),
					zap.Int("chunks", len(batch)),
					zap.Error(err),
				)
				return
			}
			uploaded.Add(int64(len(batch)))
			tokens.Add(int64(n))
			u.logger.Info("Batch uploaded", zap.Int("batch", i+1), zap.Int("of", len(batches)))
		})
		if submitErr != nil {
			wg.Done()
			failed.Add(1)
			u.logger.Error("Batch not submitted", zap.Int("batch", i+1), zap.Error(submitErr))
		}
	}
	wg.Wait()

	return uploadResult{
		Uploaded:      uploaded.Load(),
		Batches:       len(batches),
		FailedBatches: failed.Load(),
		Tokens:        tokens.Load(),
		Duration:      time.Since(start),
	}, nil
}

// send posts one batch, retrying transient failures with linear backoff.
// Batches are all-or-nothing, so a duplicate after a lost response means the earlier attempt landed.
func (u *uploader) send(ctx context.Context, batch []client.Chunk) (int, error) {
	var err error
	for attempt := 0; attempt <= u.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, fmt.Errorf("upload cancelled: %w", ctx.Err())
			case <-time.After(time.Duration(attempt) * u.backoff):
			}
		}

		var res client.AddResult
		res, err = u.api.AddChunks(ctx, batch)
		if err == nil {
			return res.EmbeddingTokens, nil
		}
		if attempt > 0 && errors.Is(err, client.ErrDuplicateID) {
			return 0, nil
		}
		if !client.IsRetryable(err) || ctx.Err() != nil {
			return 0, err
		}
		u.logger.Warn("Batch attempt failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return 0, err
}

func split(chunks []client.Chunk, size int) [][]client.Chunk {
	var out [][]client.Chunk
	for start := 0; start < len(chunks); start += size {
		out = append(out, chunks[start:min(start+size, len(chunks))])
	}
	return out
}
