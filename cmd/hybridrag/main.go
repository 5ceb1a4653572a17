package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/config"
	"github.com/kailas-cloud/hybridrag/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/hybridrag/internal/db/redis"
	"github.com/kailas-cloud/hybridrag/internal/domain"
	logpkg "github.com/kailas-cloud/hybridrag/internal/logger"
	"github.com/kailas-cloud/hybridrag/internal/metrics"
	chunkrepo "github.com/kailas-cloud/hybridrag/internal/repository/chunk"
	"github.com/kailas-cloud/hybridrag/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/hybridrag/internal/repository/search"
	chiTransport "github.com/kailas-cloud/hybridrag/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/hybridrag/internal/transport/openai"
	answeruc "github.com/kailas-cloud/hybridrag/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/hybridrag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/hybridrag/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/hybridrag/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/hybridrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/hybridrag/internal/version"
)

// chunkStore is what the composition root needs from either store driver.
type chunkStore interface {
	ingestuc.Repository
	ingestuc.Source
	Ping(ctx context.Context) error
}

func main() {
	// .env first so ${VAR} references in the YAML see its values
	if err := config.LoadDotEnv(); err != nil {
		panic("failed to load .env: " + err.Error())
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting hybridrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	ctx := context.Background()

	store, closeStore := openChunkStore(ctx, cfg, logger)
	defer closeStore()

	// Redis 8 holds the shared search index and the optional embedding cache
	rdb, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create redis client", zap.Error(err))
	}
	defer rdb.Close()
	if err := rdb.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Redis not ready", zap.Error(err))
	}
	logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	var cache *dbRedis.Store
	if cfg.Cache.Enabled {
		cache = rdb
	}
	embedder := buildEmbedder(base, cache, cfg.Embedding, time.Duration(cfg.Cache.TTLHours)*time.Hour, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Search index, reconciled with the store before serving
	idx := searchrepo.New(rdb, searchrepo.Config{
		IndexName: cfg.Index.Name,
		KeyPrefix: cfg.Index.KeyPrefix,
		Dim:       cfg.Embedding.Dimensions,
	})
	created, err := idx.EnsureIndex(ctx)
	if err != nil {
		logger.Fatal("Failed to create search index", zap.Error(err))
	}
	reindexed, err := ingestuc.Reconcile(ctx, store, idx, logger)
	if err != nil {
		logger.Fatal("Index reconciliation failed", zap.Error(err))
	}
	logger.Info("Search index ready",
		zap.String("index", cfg.Index.Name),
		zap.Bool("created", created),
		zap.Int("reindexed", reindexed),
	)

	chat := openaiTransport.NewChat(&openaiTransport.ChatConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Logger:      logger,
	})

	// Use case services
	ingestSvc := ingestuc.New(store, idx, embedder, cfg.Ingestion.MaxBatchSize, logger)
	retrievalSvc := retrievaluc.New(idx, embedder, cfg.Retrieval.FetchMultiplier, logger)
	answerSvc := answeruc.New(chat, logger)

	healthSvc := healthuc.New(store, rdb, base)

	server := chiTransport.NewServer(ingestSvc, retrievalSvc, answerSvc, healthSvc, chiTransport.Defaults{
		Count:        cfg.Retrieval.DefaultCount,
		TextWeight:   cfg.Retrieval.DefaultTextWeight,
		VectorWeight: cfg.Retrieval.DefaultVectorWeight,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORSMiddleware(cfg.HTTP.CORSOrigins))
	r.Use(metrics.Middleware())
	r.NotFound(jsonStatus(http.StatusNotFound, "not_found", "route not found"))
	r.MethodNotAllowed(jsonStatus(http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed"))
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openChunkStore opens the configured store, migrates it and returns its closer.
func openChunkStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (chunkStore, func()) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("Using in-memory chunk store; chunks are lost on restart")
		return chunkrepo.NewMemory(), func() {}
	}

	pg, err := postgres.Open(postgres.Config{
		DSN:             cfg.Database.DSN,
		PoolSize:        cfg.Database.PoolSize,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}

	if err := pg.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		pg.Close()
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database", zap.Int("pool_size", cfg.Database.PoolSize))

	if cfg.Database.Migrate {
		if err := postgres.Migrate(cfg.Database.DSN, logger); err != nil {
			pg.Close()
			logger.Fatal("Database migration failed", zap.Error(err))
		}
	}

	return &pgChunkStore{Repo: chunkrepo.New(pg), pg: pg}, pg.Close
}

// pgChunkStore pairs the chunk repository with its pool for health checks.
type pgChunkStore struct {
	*chunkrepo.Repo
	pg *postgres.Store
}

func (s *pgChunkStore) Ping(ctx context.Context) error {
	return s.pg.Ping(ctx) //nolint:wrapcheck // db.Error already names the op
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(
	base domain.Embedder,
	cache *dbRedis.Store,
	cfg config.EmbeddingConfig,
	ttl time.Duration,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if cache != nil {
		embedder = embcache.New(base, cache, cfg.Model, cfg.Dimensions, ttl, metrics.EmbeddingCacheLookups, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Provider, cfg.Model, cfg.MaxBatchSize, logger,
	)
}
