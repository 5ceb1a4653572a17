package client

import (
	"fmt"

	"github.com/kailas-cloud/hybridrag/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation       = domain.ErrValidation
	ErrDuplicateID      = domain.ErrDuplicateID
	ErrEmbeddingService = domain.ErrEmbeddingService
	ErrSynthesis        = domain.ErrSynthesis
	ErrStore            = domain.ErrStore
	ErrIngestion        = domain.ErrIngestion
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("hybridrag: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("hybridrag: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the server error code to its sentinel.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "validation_failed", "bad_request":
		return ErrValidation
	case "duplicate_id":
		return ErrDuplicateID
	case "embedding_provider_error":
		return ErrEmbeddingService
	case "synthesis_failed":
		return ErrSynthesis
	case "store_unavailable":
		return ErrStore
	case "ingestion_failed":
		return ErrIngestion
	default:
		return nil
	}
}
