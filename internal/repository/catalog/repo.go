// Package catalog persists Pokemon records as Redis hashes under one FT
// index, giving filtered listing, name lookup and embedding backfill.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aryan083/pokedex/internal/db"
	"github.com/aryan083/pokedex/internal/domain"
	"github.com/aryan083/pokedex/internal/domain/search/filter"
	"github.com/aryan083/pokedex/internal/domain/search/request"
)

// HNSW graph defaults, tuned for a catalog of a few thousand entries.
const (
	defaultHNSWM           = 16
	defaultHNSWEFConstruct = 200
)

// store is the consumer interface for catalog operations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchFiltered(ctx context.Context, q *db.FilteredQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string, filters filter.Filters) (int, error)
}

// Repo implements the catalog reader and writer used by the usecases.
type Repo struct {
	store      store
	dimensions int
	hnswM      int
	hnswEF     int
}

// New creates a catalog repository. dimensions sizes the vector fields of
// the index schema.
func New(s store, dimensions int) *Repo {
	if dimensions <= 0 {
		dimensions = domain.DefaultVectorConfig().Dimensions
	}
	return &Repo{store: s, dimensions: dimensions, hnswM: defaultHNSWM, hnswEF: defaultHNSWEFConstruct}
}

// WithHNSW overrides the HNSW graph parameters used when the index is created.
func (r *Repo) WithHNSW(m, efConstruct int) *Repo {
	if m > 0 {
		r.hnswM = m
	}
	if efConstruct > 0 {
		r.hnswEF = efConstruct
	}
	return r
}

// IndexName returns the FT index backing the catalog.
func IndexName() string {
	return domain.KeyPrefix + "pokemon:idx"
}

// Key returns the hash key for one entity.
func Key(id int) string {
	return fmt.Sprintf("%spokemon:%d", domain.KeyPrefix, id)
}

// EnsureIndex creates the catalog index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := r.indexDefinition()
	if err != nil {
		return err
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// ResetIndex drops the catalog index and recreates it from the current
// schema. Indexed hashes survive; RediSearch re-scans them on create.
func (r *Repo) ResetIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, IndexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index: %w", err)
	}

	def, err := r.indexDefinition()
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// indexDefinition builds the FT schema: sortable numerics for every stat,
// tag fields for name and types, a TEXT field for substring search and one
// HNSW vector field per embedding channel.
func (r *Repo) indexDefinition() (*db.IndexDefinition, error) {
	b := db.NewIndex(IndexName()).
		Prefix(domain.KeyPrefix+"pokemon:").
		TagWithOpts(fieldName, ",", false, true).
		Text(fieldSearchText).
		TagWithOpts(fieldTypes, ",", false, false).
		NumericSortable(fieldID).
		NumericSortable(fieldGeneration).
		NumericSortable(fieldHP).
		NumericSortable(fieldAttack).
		NumericSortable(fieldDefense).
		NumericSortable(fieldSpecialAttack).
		NumericSortable(fieldSpecialDefense).
		NumericSortable(fieldSpeed).
		Numeric(fieldHeight).
		Numeric(fieldWeight)

	for _, ch := range domain.Channels() {
		b = b.VectorHNSW(ch.Field(), r.dimensions, db.DistanceCosine, r.hnswM, r.hnswEF)
	}

	return b.Build()
}

// sortFieldName maps the public sort key onto the index attribute.
func sortFieldName(s request.SortField) string {
	if s == request.SortID {
		return fieldID
	}
	return string(s)
}

// FindAll returns one page of entities matching the filters, plus the total
// match count.
func (r *Repo) FindAll(
	ctx context.Context, filters filter.Filters,
	offset, limit int, sortBy request.SortField, order request.SortOrder,
) ([]domain.Pokemon, int, error) {
	total, err := r.store.SearchCount(ctx, IndexName(), filters)
	if err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	q := &db.FilteredQuery{
		IndexName:    IndexName(),
		Filters:      filters,
		Sort:         db.Sort{Field: sortFieldName(sortBy), Desc: order == request.OrderDesc},
		Offset:       offset,
		Limit:        limit,
		ReturnFields: scalarFields,
	}

	sr, err := r.store.SearchFiltered(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}

	pokemons := make([]domain.Pokemon, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		pokemons = append(pokemons, parseHashFields(entry.Fields))
	}
	return pokemons, total, nil
}

// FindByID returns one entity including its stored embeddings.
func (r *Repo) FindByID(ctx context.Context, id int) (domain.Pokemon, error) {
	m, err := r.store.HGetAll(ctx, Key(id))
	if err != nil {
		return domain.Pokemon{}, fmt.Errorf("hgetall %d: %w", id, err)
	}
	if len(m) == 0 {
		return domain.Pokemon{}, domain.ErrNotFound
	}
	return parseHashFields(m), nil
}

// FindByName returns the entity with the given name (case-insensitive).
func (r *Repo) FindByName(ctx context.Context, name string) (domain.Pokemon, error) {
	found, err := r.FindByNames(ctx, []string{name})
	if err != nil {
		return domain.Pokemon{}, err
	}
	if len(found) == 0 {
		return domain.Pokemon{}, domain.ErrNotFound
	}
	return found[0], nil
}

// FindByNames returns every entity whose name is in the list. Missing names
// are silently absent from the result, the caller decides whether that is
// an error.
func (r *Repo) FindByNames(ctx context.Context, names []string) ([]domain.Pokemon, error) {
	if len(names) == 0 {
		return nil, nil
	}

	q := &db.FilteredQuery{
		IndexName:    IndexName(),
		Filters:      filter.Filters{}.WithNames(names...),
		Sort:         db.Sort{Field: fieldID},
		Limit:        len(names),
		ReturnFields: scalarFields,
	}

	sr, err := r.store.SearchFiltered(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search by name: %w", err)
	}

	pokemons := make([]domain.Pokemon, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		pokemons = append(pokemons, parseHashFields(entry.Fields))
	}
	return pokemons, nil
}

// BulkUpsert writes a batch of entities in one pipeline.
func (r *Repo) BulkUpsert(ctx context.Context, pokemons []domain.Pokemon) error {
	if len(pokemons) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(pokemons))
	for _, p := range pokemons {
		items = append(items, db.HashSetItem{
			Key:    Key(p.PokemonID),
			Fields: buildHashFields(p),
		})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("bulk upsert %d entities: %w", len(pokemons), err)
	}
	return nil
}

// UpdateEmbeddings writes the given channel vectors onto an existing entity
// without touching its scalar fields.
func (r *Repo) UpdateEmbeddings(ctx context.Context, id int, embeddings map[domain.Channel][]float32) error {
	if len(embeddings) == 0 {
		return nil
	}

	fields := make(map[string]string, len(embeddings))
	for ch, vec := range embeddings {
		if !ch.IsValid() {
			return fmt.Errorf("unknown channel %q: %w", ch, domain.ErrValidation)
		}
		if len(vec) == 0 {
			continue
		}
		fields[ch.Field()] = vectorToBytes(vec)
	}
	if len(fields) == 0 {
		return nil
	}

	if err := r.store.HSet(ctx, Key(id), fields); err != nil {
		return fmt.Errorf("update embeddings %d: %w", id, err)
	}
	return nil
}

// Count returns the number of entities in the catalog.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName(), filter.Filters{})
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// MissingEmbeddings returns up to limit entities that have no combined
// embedding yet. limit <= 0 means no cap.
func (r *Repo) MissingEmbeddings(ctx context.Context, limit int) ([]domain.Pokemon, error) {
	keys, err := r.store.Scan(ctx, domain.KeyPrefix+"pokemon:*")
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	prefix := domain.KeyPrefix + "pokemon:"
	dataKeys := keys[:0]
	for _, k := range keys {
		// the scan pattern also matches the index key under the same prefix
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimPrefix(k, prefix)); err == nil {
			dataKeys = append(dataKeys, k)
		}
	}
	if len(dataKeys) == 0 {
		return nil, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, dataKeys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w", err)
	}

	var missing []domain.Pokemon
	for _, m := range maps {
		if len(m) == 0 {
			continue
		}
		p := parseHashFields(m)
		if p.HasEmbedding() {
			continue
		}
		missing = append(missing, p)
		if limit > 0 && len(missing) >= limit {
			break
		}
	}
	return missing, nil
}
