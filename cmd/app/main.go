// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/roberjo/AuraStream-sub001/internal/config"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/adapter"
	"github.com/roberjo/AuraStream-sub001/internal/domain/ports/repository"
	"github.com/roberjo/AuraStream-sub001/internal/infra/adapters/sentiment"
	"github.com/roberjo/AuraStream-sub001/internal/infra/api"
	"github.com/roberjo/AuraStream-sub001/internal/infra/api/apiv1"
	"github.com/roberjo/AuraStream-sub001/internal/infra/api/auth"
	pg "github.com/roberjo/AuraStream-sub001/internal/infra/db/postgres"
	"github.com/roberjo/AuraStream-sub001/internal/infra/fingerprint"
	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
	"github.com/roberjo/AuraStream-sub001/internal/infra/memory"
	"github.com/roberjo/AuraStream-sub001/internal/infra/metrics"
	red "github.com/roberjo/AuraStream-sub001/internal/infra/redis"
	"github.com/roberjo/AuraStream-sub001/internal/infra/sched"
	"github.com/roberjo/AuraStream-sub001/internal/infra/security"
	"github.com/roberjo/AuraStream-sub001/internal/infra/worker"
	"github.com/roberjo/AuraStream-sub001/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, auth optional)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.Runtime.Version = version

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("service stopped with error")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	// ---- Redis (cache store + rate limiter) ----
	var (
		redisClient *red.Client
		limiter     api.Limiter
	)
	if cfg.Store.Cache == "redis" || cfg.Redis.URL != "" {
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer c.Close()
		redisClient = c
		limiter = red.NewRateLimiter(c)
	}

	// ---- Cache store ----
	var (
		cacheStore repository.CacheStore
		memCache   *memory.CacheStore
	)
	if cfg.Store.Cache == "redis" {
		cacheStore = red.NewCacheStore(redisClient)
	} else {
		memCache = memory.NewCacheStore()
		cacheStore = memCache
	}
	logger.Info().Str("driver", cfg.Store.Cache).Msg("cache store ready")

	// ---- Job store ----
	var jobRepo repository.JobRepository
	switch cfg.Store.Jobs {
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		var sealer *security.Sealer
		if cfg.Database.EncryptionKey != "" {
			if sealer, err = security.NewSealer(cfg.Database.EncryptionKey); err != nil {
				return fmt.Errorf("sealer: %w", err)
			}
		}
		jobRepo = pg.NewJobRepo(pool, pg.NewTxManager(pool), sealer)
	default:
		jobRepo = memory.NewJobRepo()
	}
	logger.Info().Str("driver", cfg.Store.Jobs).Msg("job store ready")

	// ---- Inference backend ----
	backend, err := buildBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// ---- Use cases ----
	redactor, fp := security.NewRedactor(), fingerprint.NewEngine()
	cache := usecase.NewResultCache(cacheStore, usecase.ResultCacheConfig{
		TTL:            cfg.Cache.TTL,
		MaxTTL:         cfg.Cache.MaxTTL,
		ComputeTimeout: cfg.Cache.ComputeTimeout,
		MarkerTTL:      cfg.Cache.MarkerTTL,
		PollInterval:   cfg.Cache.PollInterval,
	}, logging.Component(logger, "ResultCache"))
	analysisUC := usecase.NewAnalysisUseCase(redactor, fp, cache, backend, usecase.AnalysisConfig{
		ComputeDeadline: cfg.Sync.ComputeDeadline,
		MaxTextLength:   cfg.Sync.MaxTextLength,
	}, logging.Component(logger, "AnalysisUC"))
	jobUC := usecase.NewJobUseCase(jobRepo, redactor, fp, cache, backend, usecase.JobConfig{
		MaxItems:        cfg.Jobs.MaxItems,
		MaxTextLength:   cfg.Jobs.MaxTextLength,
		ItemConcurrency: cfg.Jobs.ItemConcurrency,
		SubmittedGrace:  cfg.Jobs.SubmittedGrace,
		ProcessingLease: cfg.Jobs.ProcessingLease,
	}, logging.Component(logger, "JobUC"))
	healthUC := usecase.NewHealthUseCase(map[string]usecase.Pinger{
		"backend":     backend,
		"cache_store": cacheStore,
		"job_store":   jobRepo,
	}, version, 2*time.Second)

	// ---- Workers ----
	pool := worker.NewPool(cfg.Jobs.Workers, 0, logger)
	jobUC.SetScheduler(worker.NewJobDispatcher(pool, jobUC, logger))

	// ---- HTTP ----
	srv := apiv1.NewServer(usecase.NewRequestRouter(analysisUC, jobUC), analysisUC, jobUC, healthUC, logger)
	handler := api.NewRouter(cfg, api.RouterDeps{
		API:     srv,
		Auth:    auth.NewManager(cfg.Auth.JWTSecret, time.Hour),
		Limiter: limiter,
		Log:     logging.Component(logger, "HTTP"),
	})
	httpServer := api.NewServer(cfg, handler, logger)

	g, gctx := errgroup.WithContext(ctx)
	pool.Start(gctx)
	g.Go(func() error { return httpServer.Run(gctx) })
	g.Go(func() error {
		return ignoreCanceled(sched.NewResubmitSweeper(cfg.Jobs.SweepInterval, jobUC, logger).Run(gctx))
	})
	if memCache != nil {
		g.Go(func() error {
			return ignoreCanceled(sched.NewCacheSweeper(cfg.Cache.SweepInterval, memCache, logger).Run(gctx))
		})
	}

	logger.Info().Str("version", version).Int("port", cfg.HTTP.Port).Msg("AuraStream started")
	err = g.Wait()
	pool.Stop()
	logger.Info().Msg("shutdown complete")
	return err
}

// buildBackend composes provider -> fallback -> retry -> concurrency limit.
func buildBackend(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.SentimentBackend, error) {
	byProvider := map[string]adapter.SentimentBackend{}
	order := []string{cfg.Backend.Provider}
	if cfg.Backend.Fallback != "" && cfg.Backend.Fallback != cfg.Backend.Provider {
		order = append(order, cfg.Backend.Fallback)
	}
	for _, p := range order {
		switch p {
		case "openai":
			b, err := sentiment.NewOpenAIBackend(cfg.Backend.OpenAIKey, cfg.Backend.OpenAIBaseURL, cfg.Backend.Model, cfg.Backend.MaxInputTokens)
			if err != nil {
				return nil, fmt.Errorf("openai backend: %w", err)
			}
			byProvider[p] = b
		case "gemini":
			b, err := sentiment.NewGeminiBackend(ctx, cfg.Backend.GeminiKey, cfg.Backend.GeminiURL, cfg.Backend.GeminiModel)
			if err != nil {
				return nil, fmt.Errorf("gemini backend: %w", err)
			}
			byProvider[p] = b
		default:
			byProvider[p] = sentiment.NewLexiconBackend()
		}
		logger.Info().Str("provider", p).Msg("sentiment backend configured")
	}

	var b adapter.SentimentBackend = sentiment.NewMultiBackend(order, byProvider)
	b = sentiment.NewRetryingBackend(b, cfg.Backend.RetryDelay, logging.Component(logger, "RetryingBackend"))
	return sentiment.NewLimitedBackend(b, cfg.Backend.ConcurrentLimit), nil
}

func ignoreCanceled(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
