package catalog

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/aryan083/pokedex/internal/db"
	"github.com/aryan083/pokedex/internal/domain"
	"github.com/aryan083/pokedex/internal/domain/search/filter"
	"github.com/aryan083/pokedex/internal/domain/search/request"
)

// --- EnsureIndex ---

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	var created *db.IndexDefinition
	ms.indexExistsFn = func(_ context.Context, name string) (bool, error) {
		if name != "pokedex:pokemon:idx" {
			t.Errorf("unexpected index name: %s", name)
		}
		return false, nil
	}
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		created = def
		return nil
	}

	if err := repo.EnsureIndex(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected CreateIndex call")
	}

	vectors := 0
	for _, f := range created.Fields {
		if f.Type == db.IndexFieldVector {
			vectors++
			if f.VectorDim != testVectorDim {
				t.Errorf("vector dim = %d, want %d", f.VectorDim, testVectorDim)
			}
		}
	}
	if vectors != 4 {
		t.Errorf("expected 4 vector fields, got %d", vectors)
	}
}

func TestEnsureIndex_SkipsWhenPresent(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		t.Fatal("CreateIndex must not be called")
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureIndex_RaceWithOtherCreator(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.indexExistsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }
	ms.createIndexFn = func(_ context.Context, _ *db.IndexDefinition) error {
		return db.ErrIndexExists
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("concurrent creation must not fail: %v", err)
	}
}

// --- FindAll ---

func TestResetIndex_DropsThenRecreates(t *testing.T) {
	repo, ms := newTestRepo(t)

	var dropped string
	var created *db.IndexDefinition
	ms.dropIndexFn = func(_ context.Context, name string) error {
		dropped = name
		return nil
	}
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		created = def
		return nil
	}

	if err := repo.ResetIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dropped != "pokedex:pokemon:idx" {
		t.Errorf("dropped index = %q", dropped)
	}
	if created == nil {
		t.Fatal("expected CreateIndex call")
	}
}

func TestResetIndex_ToleratesMissingIndex(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.dropIndexFn = func(_ context.Context, _ string) error { return db.ErrIndexNotFound }

	if err := repo.ResetIndex(context.Background()); err != nil {
		t.Fatalf("missing index must not fail reset: %v", err)
	}
}

func TestFindAll_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	p := testPokemon(t)

	ms.searchCountFn = func(_ context.Context, _ string, _ filter.Filters) (int, error) {
		return 151, nil
	}
	ms.searchFilteredFn = func(_ context.Context, q *db.FilteredQuery) (*db.SearchResult, error) {
		if q.Sort.Field != "pokemon_id" {
			t.Errorf("sort field = %s, want pokemon_id", q.Sort.Field)
		}
		if q.Sort.Desc {
			t.Error("expected ascending sort")
		}
		if q.Offset != 20 || q.Limit != 20 {
			t.Errorf("unexpected paging: offset=%d limit=%d", q.Offset, q.Limit)
		}
		return &db.SearchResult{
			Total:   151,
			Entries: []db.SearchEntry{{Key: Key(p.PokemonID), Fields: buildHashFields(p)}},
		}, nil
	}

	got, total, err := repo.FindAll(ctx, filter.Filters{}, 20, 20, request.SortID, request.OrderAsc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 151 {
		t.Errorf("total = %d, want 151", total)
	}
	if len(got) != 1 || got[0].Name != "charizard" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if !reflect.DeepEqual(got[0].Types, []string{"fire", "flying"}) {
		t.Errorf("types = %v", got[0].Types)
	}
}

func TestFindAll_SortByName(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchCountFn = func(_ context.Context, _ string, _ filter.Filters) (int, error) {
		return 1, nil
	}
	ms.searchFilteredFn = func(_ context.Context, q *db.FilteredQuery) (*db.SearchResult, error) {
		if q.Sort.Field != "name" || !q.Sort.Desc {
			t.Errorf("unexpected sort: %+v", q.Sort)
		}
		return &db.SearchResult{}, nil
	}

	_, _, err := repo.FindAll(context.Background(), filter.Filters{}, 0, 20, request.SortName, request.OrderDesc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFindAll_EmptyCatalogSkipsSearch(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchCountFn = func(_ context.Context, _ string, _ filter.Filters) (int, error) {
		return 0, nil
	}
	ms.searchFilteredFn = func(_ context.Context, _ *db.FilteredQuery) (*db.SearchResult, error) {
		t.Fatal("SearchFiltered must not be called when count is zero")
		return nil, nil
	}

	got, total, err := repo.FindAll(context.Background(), filter.Filters{}, 0, 20, request.SortID, request.OrderAsc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(got) != 0 {
		t.Errorf("expected empty page, got total=%d n=%d", total, len(got))
	}
}

// --- FindByID ---

func TestFindByID_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	p := testPokemon(t)
	p.Embeddings = map[domain.Channel][]float32{
		domain.ChannelCombined: {0.1, 0.2, 0.3},
	}

	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "pokedex:pokemon:6" {
			t.Errorf("unexpected key: %s", key)
		}
		return buildHashFields(p), nil
	}

	got, err := repo.FindByID(context.Background(), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "charizard" || got.SpecialAttack != 109 {
		t.Errorf("unexpected entity: %+v", got)
	}
	vec, ok := got.Embedding(domain.ChannelCombined)
	if !ok {
		t.Fatal("expected combined embedding to round-trip")
	}
	if !reflect.DeepEqual(vec, []float32{0.1, 0.2, 0.3}) {
		t.Errorf("unexpected vector: %v", vec)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{}, nil
	}

	_, err := repo.FindByID(context.Background(), 9999)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- FindByNames ---

func TestFindByNames_FiltersOnNameTag(t *testing.T) {
	repo, ms := newTestRepo(t)
	p := testPokemon(t)

	ms.searchFilteredFn = func(_ context.Context, q *db.FilteredQuery) (*db.SearchResult, error) {
		names := q.Filters.Names()
		if !reflect.DeepEqual(names, []string{"charizard", "blastoise"}) {
			t.Errorf("unexpected names filter: %v", names)
		}
		if q.Limit != 2 {
			t.Errorf("limit = %d, want 2", q.Limit)
		}
		return &db.SearchResult{
			Total:   1,
			Entries: []db.SearchEntry{{Key: Key(6), Fields: buildHashFields(p)}},
		}, nil
	}

	got, err := repo.FindByNames(context.Background(), []string{"Charizard", "Blastoise"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].PokemonID != 6 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestFindByName_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchFilteredFn = func(_ context.Context, _ *db.FilteredQuery) (*db.SearchResult, error) {
		return &db.SearchResult{}, nil
	}

	_, err := repo.FindByName(context.Background(), "missingno")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- BulkUpsert ---

func TestBulkUpsert_WritesAllEntities(t *testing.T) {
	repo, ms := newTestRepo(t)
	p := testPokemon(t)
	q := testPokemon(t)
	q.PokemonID = 9
	q.Name = "blastoise"

	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[0].Key != "pokedex:pokemon:6" || items[1].Key != "pokedex:pokemon:9" {
			t.Errorf("unexpected keys: %s, %s", items[0].Key, items[1].Key)
		}
		if items[0].Fields["name"] != "charizard" {
			t.Errorf("unexpected name field: %s", items[0].Fields["name"])
		}
		return nil
	}

	if err := repo.BulkUpsert(context.Background(), []domain.Pokemon{p, q}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBulkUpsert_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetMultiFn = func(_ context.Context, _ []db.HashSetItem) error {
		t.Fatal("HSetMulti must not be called")
		return nil
	}
	if err := repo.BulkUpsert(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- UpdateEmbeddings ---

func TestUpdateEmbeddings_WritesVectorFieldsOnly(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		if key != "pokedex:pokemon:6" {
			t.Errorf("unexpected key: %s", key)
		}
		if len(fields) != 2 {
			t.Fatalf("expected 2 fields, got %d", len(fields))
		}
		for _, name := range []string{"name_embedding", "combined_embedding"} {
			if _, ok := fields[name]; !ok {
				t.Errorf("missing field %s", name)
			}
		}
		return nil
	}

	err := repo.UpdateEmbeddings(context.Background(), 6, map[domain.Channel][]float32{
		domain.ChannelName:     {0.1},
		domain.ChannelCombined: {0.2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateEmbeddings_UnknownChannel(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.UpdateEmbeddings(context.Background(), 6, map[domain.Channel][]float32{
		"bogus": {0.1},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// --- MissingEmbeddings ---

func TestMissingEmbeddings_SkipsEmbeddedAndNonDataKeys(t *testing.T) {
	repo, ms := newTestRepo(t)

	embedded := testPokemon(t)
	embedded.Embeddings = map[domain.Channel][]float32{domain.ChannelCombined: {0.1}}
	bare := testPokemon(t)
	bare.PokemonID = 9
	bare.Name = "blastoise"

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "pokedex:pokemon:*" {
			t.Errorf("unexpected pattern: %s", pattern)
		}
		return []string{"pokedex:pokemon:6", "pokedex:pokemon:idx", "pokedex:pokemon:9"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if !reflect.DeepEqual(keys, []string{"pokedex:pokemon:6", "pokedex:pokemon:9"}) {
			t.Errorf("unexpected keys: %v", keys)
		}
		return []map[string]string{buildHashFields(embedded), buildHashFields(bare)}, nil
	}

	got, err := repo.MissingEmbeddings(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].PokemonID != 9 {
		t.Fatalf("expected only the bare entity, got %+v", got)
	}
}

// --- dto round-trip ---

func TestHashFieldsRoundTrip(t *testing.T) {
	p := testPokemon(t)
	p.Embeddings = map[domain.Channel][]float32{
		domain.ChannelName: {1.5, -2.25},
		domain.ChannelType: {0.0, 3.0},
	}

	got := parseHashFields(buildHashFields(p))

	if !reflect.DeepEqual(got, p) {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, p)
	}
}
