package compare

import (
	"context"

	"github.com/aryan083/pokedex/internal/domain"
)

// CatalogReader resolves entities by ID or name.
type CatalogReader interface {
	FindByID(ctx context.Context, id int) (domain.Pokemon, error)
	FindByNames(ctx context.Context, names []string) ([]domain.Pokemon, error)
}

// ResponseCache stores rendered responses with a TTL.
type ResponseCache interface {
	Get(ctx context.Context, kind, key string, out any) bool
	Set(ctx context.Context, key string, value any, ttlSeconds int)
}
