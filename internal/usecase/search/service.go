// Package search orchestrates the tiered retrieval strategy: vector search
// first, semantic term mapping second, plain text matching last. Each stage
// either produces an acceptable response or hands over to the next one.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aryan083/pokedex/internal/cache"
	"github.com/aryan083/pokedex/internal/domain"
	"github.com/aryan083/pokedex/internal/domain/search/filter"
	"github.com/aryan083/pokedex/internal/domain/search/request"
	"github.com/aryan083/pokedex/internal/domain/search/result"
	"github.com/aryan083/pokedex/internal/metrics"
	"github.com/aryan083/pokedex/internal/semantic"
	"github.com/aryan083/pokedex/internal/usecase/vector"
)

// minMeanSimilarity gates the vector stage: a non-empty result whose mean
// similarity is at or below this is treated as noise and handed over.
const minMeanSimilarity = 0.5

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeInsufficient
	outcomeFailed
)

// attempt is the result of one retrieval stage.
type attempt struct {
	outcome outcome
	resp    *result.Response
}

// Service runs searches through the tiered strategy.
type Service struct {
	vectors      VectorSearcher
	catalog      CatalogReader
	parser       *semantic.Parser
	cache        ResponseCache
	ttl          int
	threshold    float64
	vectorWeight float64
	textWeight   float64
	logger       *zap.Logger
}

// New creates the search orchestrator.
func New(vectors VectorSearcher, catalog CatalogReader, parser *semantic.Parser, rc ResponseCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{vectors: vectors, catalog: catalog, parser: parser, cache: rc, ttl: cache.SearchTTL, logger: logger}
}

// WithCacheTTL overrides the response cache TTL in seconds.
func (s *Service) WithCacheTTL(seconds int) *Service {
	if seconds > 0 {
		s.ttl = seconds
	}
	return s
}

// WithVectorThreshold overrides the similarity cutoff handed to the vector stage.
func (s *Service) WithVectorThreshold(t float64) *Service {
	if t > 0 {
		s.threshold = t
	}
	return s
}

// WithHybridWeights overrides the vector/text blend handed to the vector stage.
func (s *Service) WithHybridWeights(vectorWeight, textWeight float64) *Service {
	if vectorWeight > 0 || textWeight > 0 {
		s.vectorWeight = vectorWeight
		s.textWeight = textWeight
	}
	return s
}

// Search resolves one request. Responses are cached; the cache key covers
// every normalized parameter, so a hit is always an exact match.
func (s *Service) Search(ctx context.Context, p request.Params) (*result.Response, error) {
	start := time.Now()
	p = request.Normalize(p)

	key := cache.BuildSearchKey(p)
	var cached result.Response
	if s.cache.Get(ctx, "search", key, &cached) {
		return &cached, nil
	}

	resp, err := s.resolve(ctx, p)
	if err != nil {
		return nil, err
	}

	metrics.SearchesTotal.WithLabelValues(resp.Meta.SearchType).Inc()
	metrics.SearchDuration.WithLabelValues(resp.Meta.SearchType).Observe(time.Since(start).Seconds())
	s.cache.Set(ctx, key, resp, s.ttl)

	s.logger.Debug("search resolved",
		zap.String("query", p.Search),
		zap.String("search_type", resp.Meta.SearchType),
		zap.Int("total", resp.Pagination.Total),
	)
	return resp, nil
}

// resolve walks the stages in order. A stage failure is logged and treated
// like an insufficient result: the next stage still gets its chance.
func (s *Service) resolve(ctx context.Context, p request.Params) (*result.Response, error) {
	if p.Search == "" {
		return s.filterOnly(ctx, p)
	}

	if s.vectors.Enabled() {
		att := s.vectorAttempt(ctx, p)
		if att.outcome == outcomeAccepted {
			return att.resp, nil
		}
	}

	if att := s.semanticAttempt(ctx, p); att.outcome == outcomeAccepted {
		return att.resp, nil
	}

	return s.plainText(ctx, p)
}

// filterOnly serves queries without free text straight from the index.
func (s *Service) filterOnly(ctx context.Context, p request.Params) (*result.Response, error) {
	pokemons, total, err := s.catalog.FindAll(ctx, p.Filters(), p.Offset(), p.Limit, p.SortBy, p.SortOrder)
	if err != nil {
		return nil, fmt.Errorf("filter search: %w", err)
	}
	return &result.Response{
		Pokemons:   pokemons,
		Pagination: result.NewPage(p.Page, p.Limit, total),
		Meta:       result.Meta{SearchType: result.TypeFilterOnly},
	}, nil
}

// vectorAttempt ranks by embedding similarity, post-filters with the
// caller's structured constraints and accepts only a confident result: at
// least one hit with mean similarity above the gate.
func (s *Service) vectorAttempt(ctx context.Context, p request.Params) attempt {
	fetch := p.Offset() + p.Limit
	cands, err := s.vectors.Search(ctx, p.Search, vector.Options{
		Limit:        fetch,
		Threshold:    s.threshold,
		VectorWeight: s.vectorWeight,
		TextWeight:   s.textWeight,
	})
	if err != nil {
		s.logger.Warn("vector stage failed, handing over", zap.String("query", p.Search), zap.Error(err))
		return attempt{outcome: outcomeFailed}
	}

	ext := p.Filters()
	filtered := make([]result.Candidate, 0, len(cands))
	for _, c := range cands {
		if ext.Matches(c.Pokemon) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return attempt{outcome: outcomeInsufficient}
	}

	var sum float64
	for _, c := range filtered {
		sum += c.Similarity
	}
	mean := sum / float64(len(filtered))
	if mean <= minMeanSimilarity {
		s.logger.Debug("vector result below confidence gate",
			zap.String("query", p.Search), zap.Float64("mean_similarity", mean))
		return attempt{outcome: outcomeInsufficient}
	}

	pokemons := pageOf(filtered, p.Offset(), p.Limit)
	return attempt{
		outcome: outcomeAccepted,
		resp: &result.Response{
			Pokemons:   pokemons,
			Pagination: result.NewPage(p.Page, p.Limit, len(filtered)),
			Meta: result.Meta{
				UsedVectorSearch:  true,
				AverageSimilarity: mean,
				SearchType:        result.TypeHybrid,
			},
		},
	}
}

// semanticAttempt maps query terms onto types and stat thresholds, then
// tries the compiled filter with the raw text first and without it second.
// Queries without recognizable intent degrade to a traditional text search.
func (s *Service) semanticAttempt(ctx context.Context, p request.Params) attempt {
	analysis := s.parser.Parse(p.Search)
	compiled := semantic.Compile(analysis)

	if !compiled.HasSemanticIntent {
		return s.listAttempt(ctx, p, overlay(compiled.Primary, p), result.Meta{
			SearchType: result.TypeTraditional,
		})
	}

	// Tier 1: inferred constraints AND the literal text.
	primary := s.listAttempt(ctx, p, overlay(compiled.Primary, p), result.Meta{
		SearchType: result.TypeSemanticTiered,
	})
	if primary.outcome == outcomeAccepted && primary.resp.Pagination.Total > 0 {
		return primary
	}

	// Tier 2: inferred constraints alone. "aqua pokemon" still finds water
	// types whose text never mentions aqua.
	fallback := s.listAttempt(ctx, p, overlay(compiled.Fallback, p), result.Meta{
		UsedSemanticFallback: true,
		SearchType:           result.TypeSemanticTiered,
	})
	if fallback.outcome == outcomeAccepted && fallback.resp.Pagination.Total > 0 {
		return fallback
	}
	return attempt{outcome: outcomeInsufficient}
}

// listAttempt runs one indexed listing and wraps it as a stage attempt.
func (s *Service) listAttempt(ctx context.Context, p request.Params, f filter.Filters, meta result.Meta) attempt {
	pokemons, total, err := s.catalog.FindAll(ctx, f, p.Offset(), p.Limit, p.SortBy, p.SortOrder)
	if err != nil {
		s.logger.Warn("list stage failed, handing over", zap.String("query", p.Search), zap.Error(err))
		return attempt{outcome: outcomeFailed}
	}
	return attempt{
		outcome: outcomeAccepted,
		resp: &result.Response{
			Pokemons:   pokemons,
			Pagination: result.NewPage(p.Page, p.Limit, total),
			Meta:       meta,
		},
	}
}

// plainText is the last stage: substring match on the search text plus the
// caller's structured filters. It never hands over, errors surface.
func (s *Service) plainText(ctx context.Context, p request.Params) (*result.Response, error) {
	f := p.Filters().WithText(p.Search)
	pokemons, total, err := s.catalog.FindAll(ctx, f, p.Offset(), p.Limit, p.SortBy, p.SortOrder)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return &result.Response{
		Pokemons:   pokemons,
		Pagination: result.NewPage(p.Page, p.Limit, total),
		Meta:       result.Meta{SearchType: result.TypeTextFallback},
	}, nil
}

// overlay stacks the caller's structured constraints on top of a compiled
// filter set. External stat bounds overwrite inferred ones for the same
// stat; external types become an additional AND group.
func overlay(f filter.Filters, p request.Params) filter.Filters {
	if len(p.Types) > 0 {
		f = f.WithTypes(p.Types...)
	}
	if len(p.Generations) > 0 {
		f = f.WithGenerations(p.Generations...)
	}
	if p.MinHP != nil {
		f = f.WithMin(filter.StatHP, *p.MinHP)
	}
	if p.MinAttack != nil {
		f = f.WithMin(filter.StatAttack, *p.MinAttack)
	}
	if p.MinDefense != nil {
		f = f.WithMin(filter.StatDefense, *p.MinDefense)
	}
	if p.MinSpeed != nil {
		f = f.WithMin(filter.StatSpeed, *p.MinSpeed)
	}
	if p.MaxDefense != nil {
		f = f.WithMax(filter.StatDefense, *p.MaxDefense)
	}
	return f
}

// pageOf slices one page out of a ranked candidate list.
func pageOf(cands []result.Candidate, offset, limit int) []domain.Pokemon {
	if offset >= len(cands) {
		return []domain.Pokemon{}
	}
	end := offset + limit
	if end > len(cands) {
		end = len(cands)
	}
	out := make([]domain.Pokemon, 0, end-offset)
	for _, c := range cands[offset:end] {
		out = append(out, c.Pokemon)
	}
	return out
}
