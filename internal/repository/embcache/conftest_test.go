package embcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/db"
	"github.com/kailas-cloud/hybridrag/internal/domain"
)

// mockEmbedder returns a vector derived from each text's length.
type mockEmbedder struct {
	err        error
	calls      [][]string
	tokensEach int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) (domain.EmbeddingResult, error) {
	m.calls = append(m.calls, texts)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i, t := range texts {
		embeddings[i] = []float32{float32(len(t)), 1}
	}
	return domain.EmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: m.tokensEach * len(texts),
		TotalTokens:  m.tokensEach * len(texts),
	}, nil
}

// mockKVStore is an in-memory store with optional failure hooks.
type mockKVStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
	ce := New(inner, ms, "text-embedding-3-small", 0, time.Hour, nil, zap.NewNop())
	return ce, ms
}
