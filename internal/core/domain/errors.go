package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrRetrieval indicates the vector store call failed.
	// Fatal for the whole query; there is no partial retrieval.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrInvalidFilter indicates a malformed filter predicate.
	// Rejected before any retrieval occurs.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrMalformedDocument indicates one candidate has an unrecognised
	// shape. Isolated per document; the query continues without it.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrProvider indicates a transient judgment provider failure.
	// Retried once, then recorded as an inconclusive result. Never
	// propagated as a query-level failure.
	ErrProvider = errors.New("provider error")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Retrieval cannot run without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store client is
	// not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrJudgeUnavailable indicates the conflict judge is not
	// configured. Pairs cannot be analysed without it.
	ErrJudgeUnavailable = errors.New("conflict judge unavailable")
)

// RetrievalError wraps a vector-store failure with its cause.
type RetrievalError struct {
	// Query is the natural-language query that failed.
	Query string

	// Cause is the underlying store error.
	Cause error
}

// Error implements the error interface.
func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for query %q: %v", e.Query, e.Cause)
}

// Unwrap makes errors.Is(err, ErrRetrieval) work.
func (e *RetrievalError) Unwrap() error {
	return ErrRetrieval
}

// MalformedDocumentError identifies which candidate could not be
// canonicalised.
type MalformedDocumentError struct {
	// DocumentID is the offending candidate, possibly empty when the
	// ID itself is missing.
	DocumentID string

	// Reason says what was wrong with the shape.
	Reason string
}

// Error implements the error interface.
func (e *MalformedDocumentError) Error() string {
	if e.DocumentID == "" {
		return fmt.Sprintf("malformed document: %s", e.Reason)
	}
	return fmt.Sprintf("malformed document %s: %s", e.DocumentID, e.Reason)
}

// Unwrap makes errors.Is(err, ErrMalformedDocument) work.
func (e *MalformedDocumentError) Unwrap() error {
	return ErrMalformedDocument
}
