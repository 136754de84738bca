// Package embedding wraps a raw embedder with preprocessing, an in-process
// cache, L2 normalization and rate-limited batching.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aryan083/pokedex/internal/domain"
	"github.com/aryan083/pokedex/internal/metrics"
)

const (
	// DefaultCacheSize bounds the in-process vector cache.
	DefaultCacheSize = 1000
	// DefaultBatchSize is the number of texts embedded per chunk.
	DefaultBatchSize = 32
	// DefaultBatchDelay separates chunks to stay under provider rate limits.
	DefaultBatchDelay = 100 * time.Millisecond
)

// Config tunes a Provider. Zero values fall back to the defaults above.
type Config struct {
	Model      string
	Dimensions int
	CacheSize  int
	BatchSize  int
	BatchDelay time.Duration
}

// Provider is the embedding entry point for the rest of the service. A nil
// inner embedder puts the provider in disabled mode, where every call
// returns domain.ErrServiceDisabled and callers skip vector search.
type Provider struct {
	inner      domain.Embedder
	model      string
	dimensions int
	batchSize  int
	batchDelay time.Duration
	cache      *fifoCache
	logger     *zap.Logger
}

// New builds a Provider around inner. Pass nil inner when no embedding
// backend is configured.
func New(inner domain.Embedder, cfg Config, logger *zap.Logger) *Provider {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = DefaultBatchDelay
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.DefaultVectorConfig().Dimensions
	}
	if cfg.Model == "" {
		cfg.Model = domain.DefaultVectorConfig().Model
	}
	return &Provider{
		inner:      inner,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
		batchDelay: cfg.BatchDelay,
		cache:      newFIFOCache(cfg.CacheSize),
		logger:     logger,
	}
}

// Enabled reports whether an embedding backend is configured.
func (p *Provider) Enabled() bool { return p.inner != nil }

// Dimensions returns the expected vector width.
func (p *Provider) Dimensions() int { return p.dimensions }

// Embed returns the L2-normalized vector for one text. Results are cached
// by (model, preprocessed text).
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.inner == nil {
		return nil, domain.ErrServiceDisabled
	}

	clean := Preprocess(text)
	key := p.model + ":" + clean
	if v, ok := p.cache.get(key); ok {
		metrics.EmbeddingCacheOps.WithLabelValues("memory", "hit").Inc()
		return v, nil
	}
	metrics.EmbeddingCacheOps.WithLabelValues("memory", "miss").Inc()

	res, err := p.inner.Embed(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("embed %q: %w", clean, err)
	}
	if len(res.Embedding) != p.dimensions {
		return nil, fmt.Errorf("unexpected dimensions %d, want %d: %w",
			len(res.Embedding), p.dimensions, domain.ErrEmbeddingGeneration)
	}

	v := Normalize(res.Embedding)
	p.cache.put(key, v)
	return v, nil
}

// EmbedBatch embeds texts in chunks. Texts within a chunk run concurrently,
// chunks are separated by a fixed delay. The result is index-aligned with
// the input; any failure fails the whole batch.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if p.inner == nil {
		return nil, domain.ErrServiceDisabled
	}

	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				v, err := p.Embed(gctx, texts[i])
				if err != nil {
					return err
				}
				out[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if end < len(texts) {
			p.logger.Debug("embedding batch chunk done, pausing",
				zap.Int("done", end), zap.Int("total", len(texts)))
			select {
			case <-time.After(p.batchDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return out, nil
}

// CacheLen returns the number of cached vectors.
func (p *Provider) CacheLen() int { return p.cache.len() }

// Preprocess lowercases, turns punctuation into whitespace and collapses
// whitespace runs, so that "Charizard!" and "charizard" share a cache slot.
func Preprocess(text string) string {
	lowered := strings.ToLower(text)
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, lowered)
	return strings.Join(strings.Fields(mapped), " ")
}

// Normalize scales v to unit L2 norm. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
