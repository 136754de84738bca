// Package embedjob backfills the per-channel embeddings of catalog entities
// in rate-limited batches.
package embedjob

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aryan083/pokedex/internal/domain"
)

const (
	// DefaultBatchSize is how many entities are embedded concurrently
	// before the job pauses.
	DefaultBatchSize = 10
	// DefaultBatchDelay spaces out batches to stay under provider rate
	// limits.
	DefaultBatchDelay = time.Second
)

// Embedder vectorizes a batch of texts, index-aligned with the input.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Catalog reads entities and writes their embeddings back.
type Catalog interface {
	FindByID(ctx context.Context, id int) (domain.Pokemon, error)
	MissingEmbeddings(ctx context.Context, limit int) ([]domain.Pokemon, error)
	UpdateEmbeddings(ctx context.Context, id int, embeddings map[domain.Channel][]float32) error
	Count(ctx context.Context) (int, error)
}

// Report sums up one generation run. A failed entity never aborts the run,
// it is recorded and the job moves on.
type Report struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Stats describes embedding coverage of the catalog.
type Stats struct {
	Total    int     `json:"total"`
	Embedded int     `json:"embedded"`
	Coverage float64 `json:"coverage"`
}

// Service runs embedding generation over the catalog.
type Service struct {
	embedder   Embedder
	catalog    Catalog
	batchSize  int
	batchDelay time.Duration
	logger     *zap.Logger
}

// New creates the embedding job service.
func New(embedder Embedder, catalog Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		embedder:   embedder,
		catalog:    catalog,
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
		logger:     logger,
	}
}

// WithTiming overrides the default batch size and inter-batch delay.
func (s *Service) WithTiming(batchSize int, delay time.Duration) *Service {
	if batchSize > 0 {
		s.batchSize = batchSize
	}
	if delay > 0 {
		s.batchDelay = delay
	}
	return s
}

// Generate embeds the given entities, or every entity still missing
// embeddings when ids is empty. batchSize <= 0 falls back to the default.
func (s *Service) Generate(ctx context.Context, ids []int, batchSize int) (*Report, error) {
	if batchSize <= 0 {
		batchSize = s.batchSize
	}

	targets, err := s.loadTargets(ctx, ids)
	if err != nil {
		return nil, err
	}

	s.logger.Info("starting embedding generation", zap.Int("entities", len(targets)))

	report := &Report{}
	for start := 0; start < len(targets); start += batchSize {
		end := start + batchSize
		if end > len(targets) {
			end = len(targets)
		}
		batch := targets[start:end]

		outcomes := make([]error, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, p := range batch {
			g.Go(func() error {
				outcomes[i] = s.embedOne(gctx, p)
				return nil
			})
		}
		_ = g.Wait()

		for i, err := range outcomes {
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", batch[i].Name, err))
				continue
			}
			report.Success++
		}

		s.logger.Info("batch completed",
			zap.Int("batch", start/batchSize+1),
			zap.Int("success", report.Success),
			zap.Int("failed", report.Failed),
		)

		if end < len(targets) {
			select {
			case <-time.After(s.batchDelay):
			case <-ctx.Done():
				return report, ctx.Err()
			}
		}
	}

	s.logger.Info("embedding generation completed",
		zap.Int("success", report.Success), zap.Int("failed", report.Failed))
	return report, nil
}

// loadTargets resolves explicit ids or falls back to every entity without
// embeddings.
func (s *Service) loadTargets(ctx context.Context, ids []int) ([]domain.Pokemon, error) {
	if len(ids) == 0 {
		targets, err := s.catalog.MissingEmbeddings(ctx, 0)
		if err != nil {
			return nil, fmt.Errorf("find missing embeddings: %w", err)
		}
		return targets, nil
	}

	targets := make([]domain.Pokemon, 0, len(ids))
	for _, id := range ids {
		p, err := s.catalog.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load entity %d: %w", id, err)
		}
		targets = append(targets, p)
	}
	return targets, nil
}

// embedOne generates all four channel vectors for one entity and persists
// them in a single write.
func (s *Service) embedOne(ctx context.Context, p domain.Pokemon) error {
	texts := BuildTexts(p)
	channels := domain.Channels()

	inputs := make([]string, len(channels))
	for i, ch := range channels {
		inputs[i] = texts[ch]
	}

	vectors, err := s.embedder.EmbedBatch(ctx, inputs)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(channels) {
		return fmt.Errorf("embed returned %d vectors, want %d", len(vectors), len(channels))
	}

	embeddings := make(map[domain.Channel][]float32, len(channels))
	for i, ch := range channels {
		embeddings[ch] = vectors[i]
	}

	if err := s.catalog.UpdateEmbeddings(ctx, p.PokemonID, embeddings); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// Coverage reports how much of the catalog has embeddings.
func (s *Service) Coverage(ctx context.Context) (*Stats, error) {
	total, err := s.catalog.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	missing, err := s.catalog.MissingEmbeddings(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("find missing embeddings: %w", err)
	}

	embedded := total - len(missing)
	stats := &Stats{Total: total, Embedded: embedded}
	if total > 0 {
		stats.Coverage = float64(embedded) / float64(total) * 100
	}
	return stats, nil
}
