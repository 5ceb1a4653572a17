package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/hybridrag/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetAtomicFn    func(ctx context.Context, items []db.HashSetItem) error
	existsMultiFn   func(ctx context.Context, keys []string) ([]bool, error)
	createIndexFn   func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn   func(ctx context.Context, name string) (bool, error)
	indexDocCountFn func(ctx context.Context, name string) (int, error)
	searchKNNFn     func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchBM25Fn    func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

func (m *mockStore) HSetAtomic(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetAtomicFn != nil {
		return m.hsetAtomicFn(ctx, items)
	}
	return nil
}

func (m *mockStore) ExistsMulti(ctx context.Context, keys []string) ([]bool, error) {
	if m.existsMultiFn != nil {
		return m.existsMultiFn(ctx, keys)
	}
	return make([]bool, len(keys)), nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexDocCount(ctx context.Context, name string) (int, error) {
	if m.indexDocCountFn != nil {
		return m.indexDocCountFn(ctx, name)
	}
	return 0, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchBM25Fn != nil {
		return m.searchBM25Fn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, Config{IndexName: "idx", KeyPrefix: "chunk:", Dim: 3}), ms
}
