package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/crosscheck/internal/core/domain"
	"github.com/custodia-labs/crosscheck/internal/core/ports/driven"
	"github.com/custodia-labs/crosscheck/internal/logger"
)

// Retriever wraps the vector store query call. It embeds the query,
// validates the structured filter, and bounds the candidate count.
type Retriever struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	settings domain.AnalysisSettings
}

// NewRetriever creates a new retriever.
func NewRetriever(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	settings domain.AnalysisSettings,
) *Retriever {
	return &Retriever{
		store:    store,
		embedder: embedder,
		settings: settings,
	}
}

// Retrieve returns up to limit candidates for the query. A store or
// embedding failure is fatal for the whole query; there is no partial
// retrieval.
func (r *Retriever) Retrieve(
	ctx context.Context, query string, filter domain.Filter, limit int,
) ([]domain.Document, error) {
	if r.store == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	// Fail fast on a malformed predicate, before any network call.
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = r.settings.RetrieveLimit
	}
	if limit > r.settings.MaxRetrieveLimit {
		logger.Debug("Retrieve limit %d capped to %d", limit, r.settings.MaxRetrieveLimit)
		limit = r.settings.MaxRetrieveLimit
	}

	logger.Debug("Retrieve: query=%q, limit=%d, filter conditions=%d",
		query, limit, len(filter.Conditions))

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &domain.RetrievalError{Query: query, Cause: fmt.Errorf("embed query: %w", err)}
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	docs, err := r.store.Query(ctx, vector, filter, limit)
	if err != nil {
		return nil, &domain.RetrievalError{Query: query, Cause: err}
	}

	logger.Debug("Retrieve: %d candidates", len(docs))
	return docs, nil
}
