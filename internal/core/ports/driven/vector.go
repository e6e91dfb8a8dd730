package driven

import (
	"context"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
)

// VectorStore is the read-only client for the external vector database.
// The ingestion pipeline owns writes; this engine only queries.
type VectorStore interface {
	// Query finds the k nearest candidates to the query vector,
	// restricted by the structured filter. Returned documents carry
	// their stored vector and metadata (hierarchy and attachment
	// fields included, as written by ingestion).
	//
	// The filter is passed as a value, never rendered into a query
	// string by the caller.
	Query(ctx context.Context, vector []float32, filter domain.Filter, k int) ([]domain.Document, error)

	// Close releases resources.
	Close() error
}
