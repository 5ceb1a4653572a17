package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	logpkg "github.com/kailas-cloud/hybridrag/internal/logger"
	healthuc "github.com/kailas-cloud/hybridrag/internal/usecase/health"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest        = "bad_request"
	CodeValidationFailed  = "validation_failed"
	CodeDuplicateID       = "duplicate_id"
	CodeEmbeddingProvider = "embedding_provider_error"
	CodeSynthesisFailed   = "synthesis_failed"
	CodeStoreUnavailable  = "store_unavailable"
	CodeIngestionFailed   = "ingestion_failed"
	CodeInternalError     = "internal_error"
)

const maxBodyBytes = 16 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the retrieval API.
type Server struct {
	ingest        Ingester
	retrieval     Retriever
	answers       Synthesizer
	health        HealthReporter
	defaults      Defaults
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest Ingester,
	retrieval Retriever,
	answers Synthesizer,
	health HealthReporter,
	defaults Defaults,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:    ingest,
		retrieval: retrieval,
		answers:   answers,
		health:    health,
		defaults:  defaults,
		validate:  newValidator(),
		logger:    logger,
	}
	// Order matters: ingestion errors wrap their cause, so causes are matched first.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrDuplicateID, http.StatusConflict, CodeDuplicateID),
		sentinelHandler(domain.ErrEmbeddingService, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrSynthesis, http.StatusBadGateway, CodeSynthesisFailed),
		sentinelHandler(domain.ErrStore, http.StatusServiceUnavailable, CodeStoreUnavailable),
		sentinelHandler(domain.ErrIngestion, http.StatusInternalServerError, CodeIngestionFailed),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r gochi.Router) {
	r.Post("/chunks", s.AddChunks)
	r.Post("/search", s.Search)
	r.Post("/answer", s.Answer)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// AddChunks handles POST /chunks.
func (s *Server) AddChunks(w http.ResponseWriter, r *http.Request) {
	var req AddChunksRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	n, err := s.ingest.Ingest(ctx, req.inputs())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusCreated, AddChunksResponse{Message: fmt.Sprintf("Added %d chunks", n)})
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	q, err := req.toQuery(s.defaults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.retrieval.Retrieve(ctx, &q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = scoredToItem(&results[i])
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{Results: items})
}

// Answer handles POST /answer.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	q, err := req.toQuery(s.defaults)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ranked, err := s.retrieval.Retrieve(ctx, &q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ans, err := s.answers.Synthesize(ctx, q.Text(), ranked)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, AnswerResponse{
		Query:   ans.Query(),
		Answer:  ans.Text(),
		Sources: ans.Sources(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decode reads and validates a JSON body. It writes the error response itself.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors carry only caller input, so they are returned in full.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrDuplicateID,
		domain.ErrEmbeddingService,
		domain.ErrDimensionMismatch,
		domain.ErrSynthesis,
		domain.ErrStore,
		domain.ErrIngestion,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
