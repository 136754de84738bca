package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/aryan083/pokedex/internal/cache"
	"github.com/aryan083/pokedex/internal/config"
	dbRedis "github.com/aryan083/pokedex/internal/db/redis"
	"github.com/aryan083/pokedex/internal/domain"
	"github.com/aryan083/pokedex/internal/domain/search/request"
	"github.com/aryan083/pokedex/internal/embedding"
	logpkg "github.com/aryan083/pokedex/internal/logger"
	"github.com/aryan083/pokedex/internal/metrics"
	catalogrepo "github.com/aryan083/pokedex/internal/repository/catalog"
	"github.com/aryan083/pokedex/internal/repository/embcache"
	vectorrepo "github.com/aryan083/pokedex/internal/repository/vector"
	"github.com/aryan083/pokedex/internal/semantic"
	openaiEmb "github.com/aryan083/pokedex/internal/transport/openai"
	compareuc "github.com/aryan083/pokedex/internal/usecase/compare"
	embedjobuc "github.com/aryan083/pokedex/internal/usecase/embedjob"
	searchuc "github.com/aryan083/pokedex/internal/usecase/search"
	vectoruc "github.com/aryan083/pokedex/internal/usecase/vector"
	"github.com/aryan083/pokedex/internal/version"
)

// app bundles the wired services for the CLI commands.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *dbRedis.Store
	catalog  *catalogrepo.Repo
	searches *searchuc.Service
	compares *compareuc.Service
	embedJob *embedjobuc.Service
}

func main() {
	cliApp := &cli.App{
		Name:    "pokedex",
		Usage:   "Hybrid search over the Pokemon catalog",
		Version: version.Version,
		Commands: []*cli.Command{
			searchCommand(),
			compareCommand(),
			embedCommand(),
			seedCommand(),
			statusCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newApp is the composition root: config, logger, store, embedder chain,
// repositories and usecases, wired once per command invocation.
func newApp(ctx context.Context) (*app, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	// Register metrics explicitly (no init()).
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	provider := buildProvider(cfg, store, logger)

	catalog := catalogrepo.New(store, cfg.Embedding.Dimensions).
		WithHNSW(cfg.Search.HNSWM, cfg.Search.HNSWEFConstruct)
	vectors := vectorrepo.New(store)

	responses := cache.NewResponses(store, logger)
	parser := semantic.NewParser(semantic.DefaultDictionary())

	vecSearch := vectoruc.New(provider, vectors, catalog)
	searches := searchuc.New(vecSearch, catalog, parser, responses, logger).
		WithCacheTTL(cfg.Cache.SearchTTLSec).
		WithVectorThreshold(cfg.Search.SimilarityThreshold).
		WithHybridWeights(cfg.Search.VectorWeight, cfg.Search.TextWeight)
	compares := compareuc.New(catalog, responses, logger).
		WithCacheTTL(cfg.Cache.CompareTTLSec)
	embedJob := embedjobuc.New(provider, catalog, logger).
		WithTiming(cfg.Embedding.JobBatchSize, time.Duration(cfg.Embedding.JobDelayMS)*time.Millisecond)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		catalog:  catalog,
		searches: searches,
		compares: compares,
		embedJob: embedJob,
	}, nil
}

// buildProvider assembles the embedder chain: OpenAI backend, Redis-backed
// vector cache, then the in-process provider with its FIFO cache and
// batching. Without an API key the chain is disabled and search falls back
// to the non-vector tiers.
func buildProvider(cfg config.Config, store *dbRedis.Store, logger *zap.Logger) *embedding.Provider {
	var inner domain.Embedder
	if cfg.Embedding.APIKey != "" {
		backend := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   "openai",
			Logger:     logger,
		})
		inner = embcache.New(
			backend,
			store,
			cfg.Embedding.Model,
			metrics.EmbeddingCacheOps.MustCurryWith(prometheus.Labels{"cache": "redis"}),
			logger,
		)
	} else {
		logger.Warn("no embedding API key configured, vector search disabled")
	}

	return embedding.New(inner, embedding.Config{
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		CacheSize:  cfg.Embedding.CacheSize,
		BatchSize:  cfg.Embedding.BatchSize,
		BatchDelay: time.Duration(cfg.Embedding.BatchDelayMS) * time.Millisecond,
	}, logger)
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog with text, semantic and vector tiers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Free-text query"},
			&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
			&cli.IntFlag{Name: "limit", Value: request.DefaultLimit, Usage: "Page size"},
			&cli.StringSliceFlag{Name: "type", Usage: "Filter by type (repeatable)"},
			&cli.IntSliceFlag{Name: "generation", Usage: "Filter by generation (repeatable)"},
			&cli.IntFlag{Name: "min-hp", Usage: "Minimum HP"},
			&cli.IntFlag{Name: "min-attack", Usage: "Minimum attack"},
			&cli.IntFlag{Name: "min-defense", Usage: "Minimum defense"},
			&cli.IntFlag{Name: "min-speed", Usage: "Minimum speed"},
			&cli.IntFlag{Name: "max-defense", Usage: "Maximum defense"},
			&cli.StringFlag{Name: "sort-by", Value: string(request.SortID), Usage: "Sort field"},
			&cli.StringFlag{Name: "sort-order", Value: string(request.OrderAsc), Usage: "ASC or DESC"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			p := request.Params{
				Page:        c.Int("page"),
				Limit:       c.Int("limit"),
				Search:      c.String("query"),
				Types:       c.StringSlice("type"),
				Generations: c.IntSlice("generation"),
				SortBy:      request.SortField(c.String("sort-by")),
				SortOrder:   request.SortOrder(c.String("sort-order")),
			}
			p.MinHP = intFlag(c, "min-hp")
			p.MinAttack = intFlag(c, "min-attack")
			p.MinDefense = intFlag(c, "min-defense")
			p.MinSpeed = intFlag(c, "min-speed")
			p.MaxDefense = intFlag(c, "max-defense")

			resp, err := a.searches.Search(ctx, p)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare 2 or 3 Pokemon by ID or name",
		ArgsUsage: "<id-or-name> <id-or-name> [id-or-name]",
		Action: func(c *cli.Context) error {
			ctx := c.Context
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			cmp, err := a.compares.Compare(ctx, c.Args().Slice())
			if err != nil {
				return err
			}
			return printJSON(cmp)
		},
	}
}

func embedCommand() *cli.Command {
	return &cli.Command{
		Name:  "embed",
		Usage: "Generate embeddings for entities missing them",
		Flags: []cli.Flag{
			&cli.IntSliceFlag{Name: "id", Usage: "Embed specific entity IDs (repeatable)"},
			&cli.IntFlag{Name: "batch-size", Usage: "Entities per batch"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.embedJob.Generate(ctx, c.IntSlice("id"), c.Int("batch-size"))
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create the search index and load catalog data from a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Path to a JSON array of Pokemon"},
			&cli.BoolFlag{Name: "reset", Usage: "Drop and recreate the search index before loading"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			data, err := os.ReadFile(c.String("file"))
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}
			var pokemons []domain.Pokemon
			if err := json.Unmarshal(data, &pokemons); err != nil {
				return fmt.Errorf("parse seed file: %w", err)
			}

			if c.Bool("reset") {
				if err := a.catalog.ResetIndex(ctx); err != nil {
					return err
				}
			} else if err := a.catalog.EnsureIndex(ctx); err != nil {
				return err
			}
			if err := a.catalog.BulkUpsert(ctx, pokemons); err != nil {
				return err
			}

			a.logger.Info("catalog seeded", zap.Int("count", len(pokemons)))
			fmt.Printf("seeded %d pokemon\n", len(pokemons))
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check database connectivity and embedding coverage",
		Action: func(c *cli.Context) error {
			ctx := c.Context
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Ping(ctx); err != nil {
				return fmt.Errorf("database ping: %w", err)
			}

			stats, err := a.embedJob.Coverage(ctx)
			if err != nil {
				return err
			}
			return printJSON(struct {
				Database string            `json:"database"`
				Version  string            `json:"version"`
				Coverage *embedjobuc.Stats `json:"embeddings"`
			}{Database: "ok", Version: version.Version, Coverage: stats})
		},
	}
}

// intFlag returns a pointer only when the flag was given, so unset and zero
// stay distinguishable downstream.
func intFlag(c *cli.Context, name string) *int {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Int(name)
	return &v
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
