// Package compare builds side-by-side stat comparisons for a small set of
// entities addressed by ID or name.
package compare

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aryan083/pokedex/internal/cache"
	"github.com/aryan083/pokedex/internal/domain"
)

const (
	minEntities = 2
	maxEntities = 3
)

// Row is one entity's slice of a comparison.
type Row struct {
	PokemonID      int      `json:"pokemonId"`
	Name           string   `json:"name"`
	Types          []string `json:"types"`
	HP             int      `json:"hp"`
	Attack         int      `json:"attack"`
	Defense        int      `json:"defense"`
	SpecialAttack  int      `json:"specialAttack"`
	SpecialDefense int      `json:"specialDefense"`
	Speed          int      `json:"speed"`
}

// Comparison is the full compare response.
type Comparison struct {
	Rows []Row `json:"data"`
}

// Service resolves and caches comparisons.
type Service struct {
	catalog CatalogReader
	cache   ResponseCache
	ttl     int
	logger  *zap.Logger
}

// New creates a compare service.
func New(catalog CatalogReader, rc ResponseCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, cache: rc, ttl: cache.CompareTTL, logger: logger}
}

// WithCacheTTL overrides the response cache TTL in seconds.
func (s *Service) WithCacheTTL(seconds int) *Service {
	if seconds > 0 {
		s.ttl = seconds
	}
	return s
}

// Compare resolves 2 or 3 identifiers into a comparison. Identifiers are
// numeric IDs when every one of them is all digits, names otherwise.
func (s *Service) Compare(ctx context.Context, idsOrNames []string) (*Comparison, error) {
	keys := make([]string, 0, len(idsOrNames))
	for _, v := range idsOrNames {
		v = strings.TrimSpace(v)
		if v != "" {
			keys = append(keys, v)
		}
	}
	if len(keys) < minEntities || len(keys) > maxEntities {
		return nil, fmt.Errorf("compare takes %d to %d entities, got %d: %w",
			minEntities, maxEntities, len(keys), domain.ErrValidation)
	}

	cacheKey := cache.BuildCompareKey(keys)
	var cached Comparison
	if s.cache.Get(ctx, "compare", cacheKey, &cached) {
		return &cached, nil
	}

	pokemons, err := s.resolve(ctx, keys)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{Rows: make([]Row, 0, len(pokemons))}
	for _, p := range pokemons {
		cmp.Rows = append(cmp.Rows, Row{
			PokemonID:      p.PokemonID,
			Name:           p.Name,
			Types:          p.Types,
			HP:             p.HP,
			Attack:         p.Attack,
			Defense:        p.Defense,
			SpecialAttack:  p.SpecialAttack,
			SpecialDefense: p.SpecialDefense,
			Speed:          p.Speed,
		})
	}

	s.cache.Set(ctx, cacheKey, cmp, s.ttl)
	return cmp, nil
}

// resolve loads the entities, preserving input order.
func (s *Service) resolve(ctx context.Context, keys []string) ([]domain.Pokemon, error) {
	if allDigits(keys) {
		return s.resolveByID(ctx, keys)
	}
	return s.resolveByName(ctx, keys)
}

func (s *Service) resolveByID(ctx context.Context, keys []string) ([]domain.Pokemon, error) {
	out := make([]domain.Pokemon, 0, len(keys))
	for _, k := range keys {
		id, _ := strconv.Atoi(k)
		p, err := s.catalog.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("one or more pokemon not found: %w", domain.ErrNotFound)
			}
			return nil, fmt.Errorf("load %d: %w", id, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) resolveByName(ctx context.Context, keys []string) ([]domain.Pokemon, error) {
	found, err := s.catalog.FindByNames(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load by name: %w", err)
	}
	if len(found) != len(keys) {
		return nil, fmt.Errorf("one or more pokemon not found: %w", domain.ErrNotFound)
	}

	byName := make(map[string]domain.Pokemon, len(found))
	for _, p := range found {
		byName[strings.ToLower(p.Name)] = p
	}

	out := make([]domain.Pokemon, 0, len(keys))
	for _, k := range keys {
		p, ok := byName[strings.ToLower(k)]
		if !ok {
			return nil, fmt.Errorf("one or more pokemon not found: %w", domain.ErrNotFound)
		}
		out = append(out, p)
	}
	return out, nil
}

func allDigits(keys []string) bool {
	for _, k := range keys {
		for _, r := range k {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
