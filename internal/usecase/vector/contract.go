package vector

import (
	"context"

	"github.com/aryan083/pokedex/internal/domain"
	"github.com/aryan083/pokedex/internal/domain/search/filter"
	"github.com/aryan083/pokedex/internal/domain/search/result"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Enabled() bool
}

// Searcher runs KNN queries on one embedding channel.
type Searcher interface {
	SearchChannel(
		ctx context.Context, ch domain.Channel,
		vector []float32, filters filter.Filters, k int,
	) ([]result.Candidate, error)
}

// CatalogReader loads entities with their stored embeddings.
type CatalogReader interface {
	FindByID(ctx context.Context, id int) (domain.Pokemon, error)
}
