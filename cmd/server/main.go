package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/moneytransfer/internal/adapter/http"
	"github.com/iho/moneytransfer/internal/adapter/http/handler"
	"github.com/iho/moneytransfer/internal/adapter/http/middleware"
	redisRepo "github.com/iho/moneytransfer/internal/adapter/repository/redis"
	"github.com/iho/moneytransfer/internal/adapter/traced"
	"github.com/iho/moneytransfer/internal/domain"
	"github.com/iho/moneytransfer/internal/infrastructure/config"
	"github.com/iho/moneytransfer/internal/infrastructure/eventconsumer"
	"github.com/iho/moneytransfer/internal/infrastructure/idgen"
	"github.com/iho/moneytransfer/internal/infrastructure/logger"
	"github.com/iho/moneytransfer/internal/infrastructure/metrics"
	"github.com/iho/moneytransfer/internal/infrastructure/redis"
	"github.com/iho/moneytransfer/internal/infrastructure/retry"
	"github.com/iho/moneytransfer/internal/infrastructure/tracing"
	"github.com/iho/moneytransfer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: cfg.ServiceName})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Tracing
	tp, shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:        cfg.OTelEnabled,
		Endpoint:       cfg.OTelEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	// Storage
	storage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer storage.close()

	seeds, err := parseSeedAccounts(cfg.SeedAccounts)
	if err != nil {
		return err
	}
	if err := seedAccounts(ctx, storage.store, seeds, log); err != nil {
		return err
	}

	// Redis
	var redisClient *goredis.Client
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(ctx, redis.ClientConfig{URL: cfg.RedisURL})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Core
	ids := idgen.NewULIDGenerator()
	engine := usecase.NewLedgerEngine(usecase.LedgerEngineConfig{
		Store: storage.store,
		IDGen: ids,
		Retrier: retry.NewRetrier(retry.Config{
			MaxRetries:      cfg.LedgerMaxRetries,
			InitialInterval: cfg.LedgerRetryInitialInterval,
			MaxInterval:     cfg.LedgerRetryMaxInterval,
			Logger:          log,
		}),
		Metrics: m,
		Logger:  log,
	})

	publisher, err := buildPublisher(cfg, redisClient, log)
	if err != nil {
		return err
	}

	transferService := usecase.NewTransferService(usecase.TransferServiceConfig{
		Ledger:             engine,
		Publisher:          traced.NewEventPublisher(publisher, tp),
		IDGen:              ids,
		Metrics:            m,
		Logger:             log,
		PublishTimeout:     cfg.PublishTimeout,
		PublishMode:        usecase.PublishMode(cfg.PublishMode),
		TransferEventDelay: cfg.TransferEventDelay,
	})
	defer transferService.Wait()

	var creditCache usecase.Cache
	if redisClient != nil {
		creditCache = redisRepo.NewCache(redisClient, "")
	}
	credit := usecase.NewCreditProviderService(usecase.CreditProviderConfig{
		Store:             storage.store,
		Rand:              rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		Cache:             creditCache,
		CacheTTL:          cfg.CreditCacheTTL,
		ApprovalThreshold: cfg.CreditApprovalThreshold,
		Logger:            log,
	})
	accounts := usecase.NewAccountUseCase(storage.store, ids)

	// HTTP
	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(accounts),
		TransferHandler: handler.NewTransferHandler(traced.NewMoneyTransferService(transferService, tp)),
		CreditHandler:   handler.NewCreditHandler(traced.NewCreditProvider(credit, tp)),
		LedgerHandler:   handler.NewLedgerHandler(accounts),
		HealthHandler:   handler.NewHealthHandler(healthChecks(storage, redisClient)),
		Metrics:         m,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:          log,
	}
	if redisClient != nil {
		routerCfg.Idempotency = middleware.NewIdempotencyMiddleware(redisRepo.NewIdempotencyStore(redisClient), cfg.IdempotencyTTL, log)
	}
	if cfg.RateLimitRPS > 0 {
		routerCfg.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).OnReject(m.RecordRateLimited)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	var workers sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer func() {
		cancelWorkers()
		workers.Wait()
	}()

	if cfg.ConsumerEnabled && redisClient != nil {
		consumer := eventconsumer.New(eventconsumer.Config{
			Client:   redisClient,
			Streams:  eventconsumer.Streams(cfg.EventsTopicPrefix, domain.EventTypeDepositReceived, domain.EventTypeTransferCompleted),
			Group:    cfg.ConsumerGroup,
			Name:     cfg.ConsumerName,
			Handler:  eventconsumer.LogHandler(log),
			Recorder: m,
			Logger:   log,
			Interval: cfg.ConsumerPollInterval,
			MaxDelay: cfg.ConsumerMaxDelay,
		})
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := consumer.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	}

	if limiter := routerCfg.RateLimiter; limiter != nil {
		workers.Add(1)
		go func() {
			defer workers.Done()
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-workerCtx.Done():
					return
				case <-ticker.C:
					limiter.Cleanup(time.Hour)
				}
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
