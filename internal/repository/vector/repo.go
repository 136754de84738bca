// Package vector runs KNN queries against the per-channel vector fields of
// the catalog index.
package vector

import (
	"context"
	"fmt"

	"github.com/aryan083/pokedex/internal/db"
	"github.com/aryan083/pokedex/internal/domain"
	"github.com/aryan083/pokedex/internal/domain/search/filter"
	"github.com/aryan083/pokedex/internal/domain/search/result"
	"github.com/aryan083/pokedex/internal/repository/catalog"
)

// store is the consumer interface for vector search (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements the per-channel KNN search used by usecase/vector.
type Repo struct {
	store store
}

// New creates a vector search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SearchChannel returns the k nearest entities to the query vector on one
// embedding channel. Filters pre-filter candidates inside the index before
// the KNN step.
func (r *Repo) SearchChannel(
	ctx context.Context, ch domain.Channel,
	vector []float32, filters filter.Filters, k int,
) ([]result.Candidate, error) {
	if !ch.IsValid() {
		return nil, fmt.Errorf("unknown channel %q: %w", ch, domain.ErrValidation)
	}

	q := &db.KNNQuery{
		IndexName:    catalog.IndexName(),
		VectorField:  ch.Field(),
		Filters:      filters,
		Vector:       vector,
		K:            k,
		ReturnFields: catalog.ScalarFields(),
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("knn %s: %w", ch, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	candidates := make([]result.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		candidates = append(candidates, result.Candidate{
			Pokemon:    catalog.ParsePokemon(entry.Fields),
			Similarity: entry.Score,
			Channel:    ch,
		})
	}
	return candidates, nil
}
