// Package vector ranks catalog entities by embedding similarity across a
// configurable channel set and blends in a lexical name score.
package vector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aryan083/pokedex/internal/domain"
	"github.com/aryan083/pokedex/internal/domain/search/filter"
	"github.com/aryan083/pokedex/internal/domain/search/result"
	"github.com/aryan083/pokedex/internal/semantic"
)

const (
	// DefaultThreshold is the minimum similarity a hit must reach before
	// ranking. It is a hard cutoff, not a soft preference.
	DefaultThreshold = 0.6

	// Default hybrid score weights: vector similarity dominates, the
	// lexical name match breaks near-ties.
	DefaultVectorWeight = 0.7
	DefaultTextWeight   = 0.3

	// overscan widens each channel's KNN so that deduplication across
	// channels still fills a full page.
	overscan = 2
)

// DefaultChannels is the channel set a query fans out over. The description
// channel is left out: generated prose matches too loosely for short queries
// and drags the mean similarity down.
func DefaultChannels() []domain.Channel {
	return []domain.Channel{domain.ChannelCombined, domain.ChannelName, domain.ChannelType}
}

// Options tune a single vector search. Zero-valued fields fall back to the
// package defaults.
type Options struct {
	Limit        int
	Threshold    float64
	Filters      filter.Filters
	Channels     []domain.Channel
	VectorWeight float64
	TextWeight   float64
}

// Service implements multi-channel vector search with hybrid re-ranking.
type Service struct {
	embedder Embedder
	searcher Searcher
	catalog  CatalogReader
}

// New creates a vector search service.
func New(embedder Embedder, searcher Searcher, catalog CatalogReader) *Service {
	return &Service{embedder: embedder, searcher: searcher, catalog: catalog}
}

// Enabled reports whether vector search can run at all.
func (s *Service) Enabled() bool {
	return s.embedder.Enabled()
}

// Search embeds the query, fans out a KNN per channel, keeps hits above the
// threshold and re-ranks the merged set by the hybrid score.
func (s *Service) Search(ctx context.Context, query string, opts Options) ([]result.Candidate, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.VectorWeight <= 0 && opts.TextWeight <= 0 {
		opts.VectorWeight = DefaultVectorWeight
		opts.TextWeight = DefaultTextWeight
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	channels := opts.Channels
	if len(channels) == 0 {
		channels = DefaultChannels()
	}
	perChannel := make([][]result.Candidate, len(channels))

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range channels {
		g.Go(func() error {
			hits, err := s.searcher.SearchChannel(gctx, ch, vec, opts.Filters, opts.Limit*overscan)
			if err != nil {
				return fmt.Errorf("channel %s: %w", ch, err)
			}
			perChannel[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorSearch, err)
	}

	merged := s.rank(query, perChannel, opts)
	if len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}
	return merged, nil
}

// rank applies the threshold, computes hybrid scores, deduplicates across
// channels keeping each entity's best-scoring hit and sorts the survivors.
func (s *Service) rank(query string, perChannel [][]result.Candidate, opts Options) []result.Candidate {
	best := make(map[int]result.Candidate)
	for _, hits := range perChannel {
		for _, c := range hits {
			if c.Similarity < opts.Threshold {
				continue
			}
			c.Hybrid = hybridScore(query, c, opts.VectorWeight, opts.TextWeight)
			c.HasHybrid = true

			prev, seen := best[c.Pokemon.PokemonID]
			if !seen || c.Score() > prev.Score() {
				best[c.Pokemon.PokemonID] = c
			}
		}
	}

	merged := make([]result.Candidate, 0, len(best))
	for _, c := range best {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score() != merged[j].Score() {
			return merged[i].Score() > merged[j].Score()
		}
		return merged[i].Pokemon.PokemonID < merged[j].Pokemon.PokemonID
	})
	return merged
}

// hybridScore blends vector similarity with a lexical score on the name:
// an exact (case-insensitive) match counts as 1, otherwise edit-distance
// similarity between query and name.
func hybridScore(query string, c result.Candidate, vectorWeight, textWeight float64) float64 {
	text := semantic.Similarity(strings.ToLower(query), strings.ToLower(c.Pokemon.Name))
	if strings.EqualFold(query, c.Pokemon.Name) {
		text = 1
	}
	return vectorWeight*c.Similarity + textWeight*text
}

// FindSimilarTo returns entities nearest to an existing one on a channel,
// excluding the entity itself.
func (s *Service) FindSimilarTo(
	ctx context.Context, id int, ch domain.Channel, limit int, threshold float64,
) ([]result.Candidate, error) {
	if limit <= 0 {
		limit = 10
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if !ch.IsValid() {
		return nil, fmt.Errorf("unknown channel %q: %w", ch, domain.ErrValidation)
	}

	p, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load entity %d: %w", id, err)
	}

	vec, ok := p.Embedding(ch)
	if !ok {
		return nil, fmt.Errorf("entity %d channel %s: %w", id, ch, domain.ErrEmbeddingMissing)
	}

	// fetch one extra row, the entity itself is its own nearest neighbor
	hits, err := s.searcher.SearchChannel(ctx, ch, vec, filter.Filters{}, limit+1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorSearch, err)
	}

	out := make([]result.Candidate, 0, limit)
	for _, c := range hits {
		if c.Pokemon.PokemonID == id {
			continue
		}
		if c.Similarity < threshold {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
