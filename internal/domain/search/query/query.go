package query

import (
	"github.com/kailas-cloud/hybridrag/internal/domain"
)

// Query limits.
const (
	MaxCount = 20
	// MaxTextLength is the maximum allowed query text length in bytes.
	MaxTextLength = 8192
)

// Query is a validated retrieval request. It lives for one retrieval call.
type Query struct {
	text         string
	count        int
	textWeight   float64
	vectorWeight float64
}

// New validates the parameters and normalizes the weights to sum to 1.
// Each weight must lie in [0,1]. Two zero weights become 0.5/0.5.
func New(text string, count int, textWeight, vectorWeight float64) (Query, error) {
	if text == "" {
		return Query{}, domain.NewValidationError("q", "is required")
	}
	if len(text) > MaxTextLength {
		return Query{}, domain.NewValidationError("q", "too long (max 8192 bytes)")
	}
	if count < 1 || count > MaxCount {
		return Query{}, domain.NewValidationError("count", "must be between 1 and 20")
	}
	// negated comparisons also reject NaN
	if !(textWeight >= 0 && textWeight <= 1) {
		return Query{}, domain.NewValidationError("text_weight", "must be between 0 and 1")
	}
	if !(vectorWeight >= 0 && vectorWeight <= 1) {
		return Query{}, domain.NewValidationError("vector_weight", "must be between 0 and 1")
	}

	tw, vw := NormalizeWeights(textWeight, vectorWeight)
	return Query{text: text, count: count, textWeight: tw, vectorWeight: vw}, nil
}

// NormalizeWeights divides each weight by their sum, falling back to an even split.
func NormalizeWeights(textWeight, vectorWeight float64) (float64, float64) {
	sum := textWeight + vectorWeight
	if sum == 0 {
		return 0.5, 0.5
	}
	return textWeight / sum, vectorWeight / sum
}

// Text returns the query text.
func (q *Query) Text() string { return q.text }

// Count returns the number of results to return.
func (q *Query) Count() int { return q.count }

// TextWeight returns the normalized lexical weight.
func (q *Query) TextWeight() float64 { return q.textWeight }

// VectorWeight returns the normalized vector weight.
func (q *Query) VectorWeight() float64 { return q.vectorWeight }

// FetchDepth returns how many candidates each index should return.
// Never less than Count.
func (q *Query) FetchDepth(multiplier int) int {
	if multiplier < 1 {
		multiplier = 1
	}
	return q.count * multiplier
}
