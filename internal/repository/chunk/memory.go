package chunk

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	domchunk "github.com/kailas-cloud/hybridrag/internal/domain/chunk"
)

// MemoryRepo keeps chunks in process memory. Used with database.driver=memory.
type MemoryRepo struct {
	mu     sync.RWMutex
	chunks map[string]domchunk.Chunk
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryRepo {
	return &MemoryRepo{chunks: make(map[string]domchunk.Chunk)}
}

// Insert stores all chunks or none.
func (r *MemoryRepo) Insert(ctx context.Context, chunks []domchunk.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(chunks))
	for i := range chunks {
		id := chunks[i].ID()
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, id)
		}
		if _, exists := r.chunks[id]; exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	for _, c := range chunks {
		r.chunks[c.ID()] = c
	}
	return nil
}

// Delete removes the given ids. Missing ids are ignored.
func (r *MemoryRepo) Delete(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.chunks, id)
	}
	return nil
}

// Each streams stored chunks in id order.
func (r *MemoryRepo) Each(ctx context.Context, batchSize int, fn func([]domchunk.Chunk) error) error {
	if batchSize <= 0 {
		batchSize = 1000
	}
	r.mu.RLock()
	all := make([]domchunk.Chunk, 0, len(r.chunks))
	for _, c := range r.chunks {
		all = append(all, c)
	}
	r.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID() < all[j].ID() })

	for start := 0; start < len(all); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+batchSize, len(all))
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored chunks.
func (r *MemoryRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks), nil
}

// Ping always succeeds.
func (r *MemoryRepo) Ping(_ context.Context) error { return nil }
