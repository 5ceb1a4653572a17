package chi

import (
	"context"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	domanswer "github.com/kailas-cloud/hybridrag/internal/domain/answer"
	"github.com/kailas-cloud/hybridrag/internal/domain/chunk"
	"github.com/kailas-cloud/hybridrag/internal/domain/search/query"
	"github.com/kailas-cloud/hybridrag/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/hybridrag/internal/usecase/health"
	"github.com/kailas-cloud/hybridrag/internal/usecase/ingest"
)

// --- Mocks ---

type mockIngester struct {
	got    []ingest.Input
	tokens int
	err    error
}

func (m *mockIngester) Ingest(ctx context.Context, inputs []ingest.Input) (int, error) {
	m.got = inputs
	if m.err != nil {
		return 0, m.err
	}
	domain.UsageFromContext(ctx).AddTokens(m.tokens)
	return len(inputs), nil
}

type mockRetriever struct {
	got     *query.Query
	results []result.Scored
	tokens  int
	err     error
}

func (m *mockRetriever) Retrieve(ctx context.Context, q *query.Query) ([]result.Scored, error) {
	m.got = q
	if m.err != nil {
		return nil, m.err
	}
	domain.UsageFromContext(ctx).AddTokens(m.tokens)
	return m.results, nil
}

type mockSynthesizer struct {
	calls  int
	ranked []result.Scored
	text   string
	err    error
}

func (m *mockSynthesizer) Synthesize(_ context.Context, question string, ranked []result.Scored) (domanswer.Answer, error) {
	m.calls++
	m.ranked = ranked
	if m.err != nil {
		return domanswer.Answer{}, m.err
	}
	if len(ranked) == 0 {
		return domanswer.Empty(question), nil
	}
	return domanswer.New(question, m.text, result.Contents(ranked)), nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

var testDefaults = Defaults{Count: 5, TextWeight: 0.7, VectorWeight: 0.3}

type testDeps struct {
	ingest    *mockIngester
	retrieval *mockRetriever
	answers   *mockSynthesizer
	health    *mockHealth
}

func newTestDeps() *testDeps {
	return &testDeps{
		ingest:    &mockIngester{},
		retrieval: &mockRetriever{},
		answers:   &mockSynthesizer{text: "The sky is blue."},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}},
	}
}

func newTestRouter(d *testDeps) *gochi.Mux {
	srv := NewServer(d.ingest, d.retrieval, d.answers, d.health, testDefaults, zap.NewNop())
	r := gochi.NewRouter()
	srv.Register(r)
	return r
}

func scored(id, content string, lex, vec, comb float64) result.Scored {
	return result.New(chunk.Reconstruct(id, content, nil), lex, vec, comb)
}
