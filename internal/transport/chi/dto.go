package chi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/hybridrag/internal/domain/search/query"
	"github.com/kailas-cloud/hybridrag/internal/domain/search/result"
	"github.com/kailas-cloud/hybridrag/internal/usecase/ingest"
)

// ChunkItem is one chunk in an ingestion request.
type ChunkItem struct {
	ID      string `json:"id,omitempty" validate:"max=256"`
	Content string `json:"content" validate:"required"`
}

// AddChunksRequest is the body of POST /chunks.
type AddChunksRequest struct {
	Chunks []ChunkItem `json:"chunks" validate:"required,min=1,dive"`
}

// AddChunksResponse is returned by POST /chunks.
type AddChunksResponse struct {
	Message string `json:"message"`
}

// QueryRequest is the body of POST /search and POST /answer.
type QueryRequest struct {
	Q            string   `json:"q" validate:"required,max=8192"`
	Count        *int     `json:"count,omitempty" validate:"omitempty,min=1,max=20"`
	TextWeight   *float64 `json:"text_weight,omitempty" validate:"omitempty,min=0,max=1"`
	VectorWeight *float64 `json:"vector_weight,omitempty" validate:"omitempty,min=0,max=1"`
}

// SearchResultItem is one ranked chunk.
type SearchResultItem struct {
	ID            string  `json:"id"`
	Content       string  `json:"content"`
	LexicalScore  float64 `json:"lexical_score"`
	VectorScore   float64 `json:"vector_score"`
	CombinedScore float64 `json:"combined_score"`
}

// SearchResponse is returned by POST /search.
type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
}

// AnswerResponse is returned by POST /answer.
type AnswerResponse struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Defaults fill the optional QueryRequest fields.
type Defaults struct {
	Count        int
	TextWeight   float64
	VectorWeight float64
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage flattens validator errors into "field: rule" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "AddChunksRequest.")
		field = strings.TrimPrefix(field, "QueryRequest.")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", field, fe.Tag()))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (req AddChunksRequest) inputs() []ingest.Input {
	out := make([]ingest.Input, len(req.Chunks))
	for i, c := range req.Chunks {
		out[i] = ingest.Input{ID: c.ID, Content: c.Content}
	}
	return out
}

// toQuery applies defaults and builds the domain query.
func (req QueryRequest) toQuery(d Defaults) (query.Query, error) {
	count := d.Count
	if req.Count != nil {
		count = *req.Count
	}
	tw := d.TextWeight
	if req.TextWeight != nil {
		tw = *req.TextWeight
	}
	vw := d.VectorWeight
	if req.VectorWeight != nil {
		vw = *req.VectorWeight
	}
	q, err := query.New(req.Q, count, tw, vw)
	if err != nil {
		return query.Query{}, fmt.Errorf("build query: %w", err)
	}
	return q, nil
}

func scoredToItem(r *result.Scored) SearchResultItem {
	return SearchResultItem{
		ID:            r.ID(),
		Content:       r.Content(),
		LexicalScore:  r.LexicalScore(),
		VectorScore:   r.VectorScore(),
		CombinedScore: r.CombinedScore(),
	}
}
