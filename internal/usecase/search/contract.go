package search

import (
	"context"

	"github.com/aryan083/pokedex/internal/domain"
	"github.com/aryan083/pokedex/internal/domain/search/filter"
	"github.com/aryan083/pokedex/internal/domain/search/request"
	"github.com/aryan083/pokedex/internal/domain/search/result"
	"github.com/aryan083/pokedex/internal/usecase/vector"
)

// VectorSearcher runs the hybrid vector ranking stage.
type VectorSearcher interface {
	Enabled() bool
	Search(ctx context.Context, query string, opts vector.Options) ([]result.Candidate, error)
}

// CatalogReader lists entities through the index.
type CatalogReader interface {
	FindAll(
		ctx context.Context, filters filter.Filters,
		offset, limit int, sortBy request.SortField, order request.SortOrder,
	) ([]domain.Pokemon, int, error)
}

// ResponseCache stores rendered responses with a TTL.
type ResponseCache interface {
	Get(ctx context.Context, kind, key string, out any) bool
	Set(ctx context.Context, key string, value any, ttlSeconds int)
}
