package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/filtering"
	"github.com/spigell/jobmatch/internal/jsearch"
	"github.com/spigell/jobmatch/internal/keywords"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/resume"
	"github.com/spigell/jobmatch/internal/secrets"
	"github.com/spigell/jobmatch/internal/service"
	"github.com/spigell/jobmatch/internal/store"
	"github.com/spigell/jobmatch/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8080)")
	serveCmd.Flags().String("db", "", "path to the SQLite database (default jobmatch.db)")
	serveCmd.Flags().String("resumes", "", "directory with .txt resumes (default ./resumes)")
	serveCmd.Flags().StringP("exclude-file", "e", "", "file with job ids to hide, one per line")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("storage.path", serveCmd.Flags().Lookup("db"))
	viper.BindPFlag("resumes.dir", serveCmd.Flags().Lookup("resumes"))
	viper.BindPFlag("filters.exclude-file", serveCmd.Flags().Lookup("exclude-file"))
}

// serve wires every component and blocks until interrupted.
func serve(parent context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobmatch", zap.String("version", version))

	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	app, cleanup, err := build(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}
	defer cleanup()

	if err := app.Run(ctx, config.Server.Addr); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
}

// build constructs the object graph. cleanup releases the store and the cache connection.
func build(ctx context.Context, config *Config, logger *zap.Logger) (*web.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*web.Server, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	source, err := newJobSource(config.JSearch, logger.Named("jsearch"))
	if err != nil {
		return fail(err)
	}

	embedder, closeCache, err := newEmbedder(ctx, config, logger.Named("embedding"))
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeCache)

	st, err := store.Open(ctx, config.Storage.Path, logger.Named("store"))
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() {
		if err := st.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	})

	extractor := keywords.New(
		keywords.WithExclusions(config.Keywords.Exclude...),
		keywords.WithLexicon(config.Keywords.Extra...),
	)

	weights := matching.Weights{Keyword: config.Scoring.KeywordWeight, Semantic: config.Scoring.SemanticWeight}
	scorer, err := matching.NewScorer(embedder, extractor, weights, logger.Named("matching"))
	if err != nil {
		return fail(fmt.Errorf("scoring: %w", err))
	}

	pipeline, err := newFilters(config)
	if err != nil {
		return fail(fmt.Errorf("filters: %w", err))
	}

	library := resume.NewLibrary(config.Resumes.Dir)

	svc, err := service.New(service.Deps{
		Source:    source,
		Store:     st,
		Resumes:   library,
		Extractor: extractor,
		Embedder:  embedder,
		Scorer:    scorer,
		Filters:   pipeline,
		Logger:    logger.Named("service"),
	})
	if err != nil {
		return fail(err)
	}

	server, err := web.New(svc, logger.Named("web"))
	if err != nil {
		return fail(err)
	}

	logger.Info("initialized",
		zap.String("storage", config.Storage.Path),
		zap.String("resumes", library.Dir()),
		zap.String("embedder", embedder.Model()),
		zap.Float64("keyword_weight", scorer.Weights().Keyword),
		zap.Float64("semantic_weight", scorer.Weights().Semantic),
	)

	return server, cleanup, nil
}

func newJobSource(cfg *JSearchConfig, logger *zap.Logger) (*jsearch.Client, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "jsearch api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set JSEARCH_API_KEY or jsearch.api-key-file)", err)
	}

	client := jsearch.New(logger, apiKey)
	if cfg.BaseURL != "" {
		client.APIURL = cfg.BaseURL
	}
	if cfg.Host != "" {
		client.Host = cfg.Host
	}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	client.SetRateLimit(cfg.RequestsPerSecond)

	return client, nil
}

// newEmbedder builds the single process-wide embedder wrapped in the cache.
func newEmbedder(ctx context.Context, config *Config, l *zap.Logger) (*embedding.Cached, func(), error) {
	cfg := config.Embedding

	// Only the gemini provider needs a key; embedding.New rejects it when missing.
	apiKey, err := secrets.Optional(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GOOGLE_API_KEY",
	})
	if err != nil {
		return nil, nil, err
	}

	inner, err := embedding.New(ctx, embedding.Config{
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		APIKey:     apiKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("embedder %q: %w", cfg.Provider, err)
	}

	el := logger.WithEmbedder(l, cfg.Provider, inner.Model())

	opts := embedding.CacheOptions{
		MaxEntries: config.Cache.MaxEntries,
		TTL:        config.Cache.TTL,
	}
	var rdbClose func() error
	if url := config.Cache.RedisURL; url != "" {
		rdb, err := embedding.NewRedis(ctx, url)
		if err != nil {
			el.Warn("redis cache disabled", zap.Error(err))
		} else {
			opts.Redis = rdb
			rdbClose = rdb.Close
			el.Info("redis cache enabled")
		}
	}

	el.Info("embedder ready", zap.Int("dimensions", inner.Dimensions()))

	cached := embedding.NewCached(inner, opts, l)
	closeFn := func() {
		hits, misses := cached.Stats()
		el.Info("embedding cache stats", zap.Int64("hits", hits), zap.Int64("misses", misses))
		if rdbClose != nil {
			_ = rdbClose()
		}
	}

	return cached, closeFn, nil
}

func newFilters(config *Config) (*filtering.Pipeline, error) {
	steps := filtering.Default()

	cfg := &filtering.Config{
		Employers:   config.Filters.ExcludeEmployers,
		ExcludeFile: config.Filters.ExcludeFile,
		MinScore:    config.Scoring.MinScore,
	}
	if cfg.ExcludeFile == "" {
		filtering.DisableByName(steps, "exclude_file", "no exclude file configured")
	}

	return filtering.NewPipeline(cfg, steps...)
}

// redacted returns a copy of config that is safe to log.
func redacted(config *Config) Config {
	c := *config
	if c.JSearch != nil {
		js := *c.JSearch
		if js.APIKey != "" {
			js.APIKey = "***"
		}
		c.JSearch = &js
	}
	if c.Embedding != nil && c.Embedding.Gemini != nil {
		e := *c.Embedding
		g := *e.Gemini
		if g.APIKey != "" {
			g.APIKey = "***"
		}
		e.Gemini = &g
		c.Embedding = &e
	}
	return c
}
