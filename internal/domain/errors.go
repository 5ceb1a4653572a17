package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed or out-of-range input, rejected before any external call.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateID signals a chunk id that is already stored or repeated in one batch.
	ErrDuplicateID = errors.New("duplicate chunk id")
	// ErrDimensionMismatch signals an embedding whose length differs from the store dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrEmbeddingService signals an unavailable embedding provider or a malformed response.
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrIngestion signals a failed ingestion batch. Nothing from the batch was persisted.
	ErrIngestion = errors.New("ingestion failed")
	// ErrStore signals an unavailable chunk store or index.
	ErrStore = errors.New("store unavailable")
	// ErrSynthesis signals a failed LLM completion.
	ErrSynthesis = errors.New("answer synthesis failed")
)

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// WrapIngestion marks err as an ingestion failure while keeping its cause matchable.
func WrapIngestion(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrIngestion, err)
}
