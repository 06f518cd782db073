package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"faxrelay/internal/archive"
	"faxrelay/internal/config"
	"faxrelay/internal/faxapi"
	"faxrelay/internal/fcl"
	"faxrelay/internal/infra/postgresql"
	"faxrelay/internal/infra/postgresql/migrations"
	infraredis "faxrelay/internal/infra/redis"
	"faxrelay/internal/observability"
	"faxrelay/internal/queue"
	"faxrelay/internal/repository"
	"faxrelay/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger("worker", cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer mq.Close()

	emitter, err := fcl.NewEmitter(cfg.FCLDir, logger)
	if err != nil {
		logger.Fatal("fcl emitter initialization failed", zap.Error(err))
	}

	var faxClient service.FaxSubmitter
	if cfg.FaxAPIURL != "" {
		client, err := faxapi.NewClient(
			cfg.FaxAPIURL,
			cfg.FaxAPIUsername,
			cfg.FaxAPIPassword,
			time.Duration(cfg.SubmitTimeoutSeconds)*time.Second,
		)
		if err != nil {
			logger.Fatal("fax api client initialization failed", zap.Error(err))
		}
		faxClient = client
	} else {
		logger.Warn("fax api url not configured, api channel submissions will fail")
	}

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	archiver, err := archive.NewManager(cfg.XMLArchiveDir, logger)
	if err != nil {
		logger.Fatal("archive manager initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	dispatchService, err := service.NewDispatchService(
		repository.NewGormBatchRepo(db),
		repository.NewGormSubmissionRepo(db),
		emitter,
		faxClient,
		rateLimiter,
		logger,
	)
	if err != nil {
		logger.Fatal("dispatch service initialization failed", zap.Error(err))
	}
	dispatchService.SetMetrics(metrics)

	ingestService, err := service.NewIngestService(
		repository.NewGormCompletionRepo(db),
		archiver,
		logger,
	)
	if err != nil {
		logger.Fatal("ingest service initialization failed", zap.Error(err))
	}
	ingestService.SetMetrics(metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	dispatchWorkers := cfg.WorkerConcurrency / 2
	if dispatchWorkers < 1 {
		dispatchWorkers = 1
	}
	ingestWorkers := cfg.WorkerConcurrency - dispatchWorkers
	if ingestWorkers < 1 {
		ingestWorkers = 1
	}

	// The handlers track the in-flight gauge themselves.
	consume := func(queueName string, handler queue.MessageHandler) func() error {
		return func() error {
			consumer := queue.NewRabbitMQConsumer(mq, 1, logger)
			return consumer.Consume(ctx, queueName, handler)
		}
	}

	for i := 0; i < dispatchWorkers; i++ {
		g.Go(consume(queue.QueueBatchDispatch, dispatchService.HandleDispatch))
	}
	for i := 0; i < ingestWorkers; i++ {
		g.Go(consume(queue.QueueCompletionIngest, ingestService.HandleIngest))
	}

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WorkerMetricsPort),
		Handler: metricsMux(metrics.Handler()),
	}
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server stopped: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	logger.Info("faxrelay worker started",
		zap.Int("dispatchWorkers", dispatchWorkers),
		zap.Int("ingestWorkers", ingestWorkers),
		zap.Int("metricsPort", cfg.WorkerMetricsPort),
	)

	if err := g.Wait(); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
	logger.Info("worker shut down")
}

func metricsMux(handler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	return mux
}
