package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	domanswer "github.com/kailas-cloud/hybridrag/internal/domain/answer"
	"github.com/kailas-cloud/hybridrag/internal/domain/search/result"
	"github.com/kailas-cloud/hybridrag/internal/metrics"
)

// SystemPrompt constrains the model to the supplied context.
const SystemPrompt = "Answer the question based ONLY on the provided context. Cite specific phrases from the context."

const contextSeparator = "\n---\n"

// Service synthesizes grounded answers from ranked chunks.
type Service struct {
	llm    Completer
	logger *zap.Logger
}

// New creates an answer synthesizer.
func New(llm Completer, logger *zap.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

// Synthesize asks the LLM to answer question from ranked, in order.
// With no context it returns the fixed no-information answer without calling the LLM.
func (s *Service) Synthesize(ctx context.Context, question string, ranked []result.Scored) (domanswer.Answer, error) {
	if len(ranked) == 0 {
		metrics.SynthesisRequestsTotal.WithLabelValues("empty").Inc()
		return domanswer.Empty(question), nil
	}

	sources := result.Contents(ranked)
	text, err := s.llm.Complete(ctx, SystemPrompt, BuildPrompt(question, sources))
	if err != nil {
		metrics.SynthesisRequestsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Answer synthesis failed", zap.Int("sources", len(sources)), zap.Error(err))
		return domanswer.Answer{}, fmt.Errorf("synthesize answer: %w", err)
	}

	metrics.SynthesisRequestsTotal.WithLabelValues("success").Inc()
	return domanswer.New(question, text, sources), nil
}

// BuildPrompt renders the user message: the question, then each context separated by "---".
func BuildPrompt(question string, contexts []string) string {
	return "Question: " + question + "\n\nContext:\n" + strings.Join(contexts, contextSeparator)
}
