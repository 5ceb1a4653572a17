package chi

import (
	"context"

	domanswer "github.com/kailas-cloud/hybridrag/internal/domain/answer"
	"github.com/kailas-cloud/hybridrag/internal/domain/search/query"
	"github.com/kailas-cloud/hybridrag/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/hybridrag/internal/usecase/health"
	"github.com/kailas-cloud/hybridrag/internal/usecase/ingest"
)

// Ingester adds chunk batches.
type Ingester interface {
	Ingest(ctx context.Context, inputs []ingest.Input) (int, error)
}

// Retriever ranks chunks for a query.
type Retriever interface {
	Retrieve(ctx context.Context, q *query.Query) ([]result.Scored, error)
}

// Synthesizer turns ranked chunks into an answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, ranked []result.Scored) (domanswer.Answer, error)
}

// HealthReporter runs dependency checks.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}
