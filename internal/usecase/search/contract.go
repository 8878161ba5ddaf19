package search

import (
	"context"

	"github.com/parley-ai/recall/internal/domain/search/result"
	"github.com/parley-ai/recall/internal/store"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	LexicalQuery(ctx context.Context, q *store.LexicalQuery) ([]store.Hit, error)
	ANNQuery(ctx context.Context, q *store.ANNQuery) ([]store.Hit, error)
}

// Reranker reorders already-ranked candidates with an external model. It must
// be a pure reordering: the same fragment identities, permuted. Failures are
// swallowed by the caller, never propagated.
type Reranker interface {
	Rerank(ctx context.Context, queryText string, candidates []result.Result) ([]result.Result, error)
}
