package catalog

import (
	"context"
	"testing"

	"github.com/aryan083/pokedex/internal/db"
	"github.com/aryan083/pokedex/internal/domain"
	"github.com/aryan083/pokedex/internal/domain/search/filter"
)

const testVectorDim = 384

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn           func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn      func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn        func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn   func(ctx context.Context, keys []string) ([]map[string]string, error)
	scanFn           func(ctx context.Context, pattern string) ([]string, error)
	createIndexFn    func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn      func(ctx context.Context, name string) error
	indexExistsFn    func(ctx context.Context, name string) (bool, error)
	searchFilteredFn func(ctx context.Context, q *db.FilteredQuery) (*db.SearchResult, error)
	searchCountFn    func(ctx context.Context, index string, filters filter.Filters) (int, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return nil, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchFiltered(ctx context.Context, q *db.FilteredQuery) (*db.SearchResult, error) {
	if m.searchFilteredFn != nil {
		return m.searchFilteredFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index string, filters filter.Filters) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, filters)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testVectorDim), ms
}

func testPokemon(t *testing.T) domain.Pokemon {
	t.Helper()
	return domain.Pokemon{
		PokemonID:      6,
		Name:           "charizard",
		Generation:     1,
		HP:             78,
		Attack:         84,
		Defense:        78,
		SpecialAttack:  109,
		SpecialDefense: 85,
		Speed:          100,
		Height:         17,
		Weight:         905,
		Types:          []string{"fire", "flying"},
		Abilities:      []string{"blaze", "solar-power"},
		SearchText:     "charizard fire flying blaze solar-power",
	}
}
