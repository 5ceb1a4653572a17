package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/domain"
)

type mockEmbedder struct {
	err        error
	failOnCall int
	calls      [][]string
	short      bool
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) (domain.EmbeddingResult, error) {
	m.calls = append(m.calls, texts)
	if m.err != nil && len(m.calls) >= m.failOnCall {
		return domain.EmbeddingResult{}, m.err
	}
	n := len(texts)
	if m.short {
		n--
	}
	embeddings := make([][]float32, n)
	for i := range embeddings {
		embeddings[i] = []float32{float32(len(texts[i]))}
	}
	return domain.EmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: len(texts),
		TotalTokens:  len(texts),
	}, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%0*d", i+1, 0)
	}
	return out
}

func TestInstrumentedEmbedder_SingleBatch(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 0, zap.NewNop())

	result, err := p.Embed(context.Background(), texts(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.calls) != 1 {
		t.Fatalf("expected 1 inner call, got %d", len(inner.calls))
	}
	if len(result.Embeddings) != 3 || result.TotalTokens != 3 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestInstrumentedEmbedder_SplitsKeepingOrder(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 2, zap.NewNop())

	result, err := p.Embed(context.Background(), texts(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.calls) != 3 {
		t.Fatalf("expected 3 inner calls, got %d", len(inner.calls))
	}
	if len(result.Embeddings) != 5 {
		t.Fatalf("expected 5 embeddings, got %d", len(result.Embeddings))
	}
	for i, e := range result.Embeddings {
		if e[0] != float32(i+1) {
			t.Errorf("embedding %d = %v, want %d", i, e, i+1)
		}
	}
	if result.PromptTokens != 5 || result.TotalTokens != 5 {
		t.Errorf("tokens = %d/%d, want 5/5", result.PromptTokens, result.TotalTokens)
	}
}

func TestInstrumentedEmbedder_SubBatchFailureFailsAll(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingService, failOnCall: 2}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 2, zap.NewNop())

	result, err := p.Embed(context.Background(), texts(5))
	if !errors.Is(err, domain.ErrEmbeddingService) {
		t.Fatalf("expected ErrEmbeddingService, got %v", err)
	}
	if result.Embeddings != nil {
		t.Error("no partial embeddings should be returned")
	}
	if len(inner.calls) != 2 {
		t.Errorf("expected to stop after the failing call, got %d calls", len(inner.calls))
	}
}

func TestInstrumentedEmbedder_CountMismatch(t *testing.T) {
	inner := &mockEmbedder{short: true}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 0, zap.NewNop())

	_, err := p.Embed(context.Background(), texts(2))
	if !errors.Is(err, domain.ErrEmbeddingService) {
		t.Fatalf("expected ErrEmbeddingService, got %v", err)
	}
}

func TestInstrumentedEmbedder_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", 0, zap.NewNop())

	result, err := p.Embed(context.Background(), nil)
	if err != nil || result.Embeddings != nil || len(inner.calls) != 0 {
		t.Errorf("empty input should be a no-op: %+v, %v, calls=%d", result, err, len(inner.calls))
	}
}
