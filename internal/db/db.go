package db

import (
	"context"
	"time"
)

// Store is the Redis facade: embedding cache plus the chunk search index.
//
//nolint:interfacebloat // facade; consumers use the narrow sub-interfaces
type Store interface {
	Pinger
	KVStore
	HashStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// HashSetItem holds a single key+fields pair for a batched HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore provides hash operations.
type HashStore interface {
	// HSetAtomic writes every item inside one MULTI/EXEC transaction.
	HSetAtomic(ctx context.Context, items []HashSetItem) error
	// ExistsMulti reports, per key, whether it exists.
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	IndexDocCount(ctx context.Context, name string) (int, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchBM25(ctx context.Context, q *TextQuery) (*SearchResult, error)
}
