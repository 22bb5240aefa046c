// File: cmd/app/main.go
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

	"github.com/rs/zerolog"

	"content-payment-service/internal/config"
	"content-payment-service/internal/domain/ports/adapter"
	"content-payment-service/internal/domain/ports/repository"
	aiAdapters "content-payment-service/internal/infra/adapters/ai"
	payAdapters "content-payment-service/internal/infra/adapters/payment"
	fsdb "content-payment-service/internal/infra/db/firestore"
	"content-payment-service/internal/infra/db/memory"
	pg "content-payment-service/internal/infra/db/postgres"
	"content-payment-service/internal/infra/api"
	"content-payment-service/internal/infra/logging"
	"content-payment-service/internal/infra/metrics"
	red "content-payment-service/internal/infra/redis"
	"content-payment-service/internal/infra/sched"
	"content-payment-service/internal/infra/worker"
	"content-payment-service/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("service stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()
	queue := red.NewJobQueue(redisClient, cfg.Redis.QueueKey, cfg.Worker.PollTimeout)
	locker := red.NewLocker(redisClient, logger)

	// ---- Store ----
	checks := map[string]func(context.Context) error{"redis": redisClient.Ping}
	users, jobs, closeStore, err := openStore(ctx, cfg, logger, checks)
	if err != nil {
		return err
	}
	defer closeStore()
	users = red.NewUserRepoCacheDecorator(users, redisClient, time.Hour, logger)

	// ---- Payment provider ----
	var provider adapter.PaymentProvider
	if cfg.Stripe.Noop {
		logger.Warn().Msg("using noop payment provider; intents settle immediately")
		provider = payAdapters.NewNoopProvider()
	} else {
		provider, err = payAdapters.NewStripeProvider(cfg.Stripe.SecretKey, nil)
		if err != nil {
			return fmt.Errorf("stripe: %w", err)
		}
	}

	// ---- Generator ----
	generator, err := newGenerator(ctx, cfg.Generator)
	if err != nil {
		return err
	}
	generator = aiAdapters.NewLimitedGenerator(generator, cfg.Worker.Concurrency)
	logger.Info().Str("provider", generator.Name()).Msg("content generator ready")

	// ---- Use cases ----
	pricing := usecase.NewPricing(cfg.Pricing.StandardPerPage, cfg.Pricing.ProPerPage, cfg.Pricing.Currency)
	contentUC := usecase.NewContentPaymentUseCase(users, jobs, provider, queue, pricing, logger)
	genUC := usecase.NewGenerationUseCase(jobs, generator, contentUC, locker, usecase.GenerationOptions{
		StandardModel:   cfg.Generator.StandardModel,
		ProModel:        cfg.Generator.ProModel,
		MaxOutputTokens: cfg.Generator.MaxOutputTokens,
		Timeout:         cfg.Generator.Timeout,
		LockTTL:         cfg.Redis.TTL,
	}, logger)

	// ---- Workers ----
	pool := worker.NewPool(cfg.Worker.Concurrency, cfg.Worker.QueueSize, logger)
	pool.Start(ctx)
	defer pool.Stop()

	consumer := worker.NewGenerationConsumer(queue, genUC, pool, logger)
	go consumer.Start(ctx)

	reconciler := sched.NewStaleJobReconciler(jobs, queue, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, cfg.Reconciler.BatchSize, logger)
	go reconciler.Start(ctx)

	// ---- HTTP ----
	srv := api.NewServer(contentUC, api.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
		IntentsPerHour: cfg.Server.IntentsPerHour,
		Limiter:        red.NewRateLimiter(redisClient),
		Auth:           api.NewServiceAuth(cfg.Auth.ServiceSecret, cfg.Auth.Issuer),
		Checks:         checks,
	}, logger)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Str("store", cfg.Store.Driver).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	return nil
}

// openStore picks the document store and registers its health check.
func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, checks map[string]func(context.Context) error) (repository.UserRepository, repository.JobRepository, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := pg.Connect(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres: %w", err)
		}
		checks["postgres"] = pool.Ping
		return pg.NewPostgresUserRepo(pool), pg.NewJobRepo(pool, pg.NewTxManager(pool)), pool.Close, nil
	case "firestore":
		client, err := fsdb.NewClient(ctx, &cfg.Firestore)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn().Err(err).Msg("firestore close")
			}
		}
		return fsdb.NewUserRepo(client, cfg.Firestore.UsersCollection), fsdb.NewJobRepo(client, cfg.Firestore.JobsCollection), closeFn, nil
	default:
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.NewUserStore(devUsers()...), memory.NewJobStore(), func() {}, nil
	}
}

func newGenerator(ctx context.Context, cfg config.GeneratorConfig) (adapter.ContentGenerator, error) {
	budget := aiAdapters.NewTokenBudget()
	switch cfg.Provider {
	case "openai":
		g, err := aiAdapters.NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIBaseURL, budget)
		if err != nil {
			return nil, fmt.Errorf("openai generator: %w", err)
		}
		return g, nil
	case "gemini":
		g, err := aiAdapters.NewGeminiGenerator(ctx, cfg.GeminiKey, "", budget)
		if err != nil {
			return nil, fmt.Errorf("gemini generator: %w", err)
		}
		return g, nil
	default:
		return aiAdapters.NewNoopGenerator(), nil
	}
}
