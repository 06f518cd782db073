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

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"faxrelay/internal/archive"
	"faxrelay/internal/config"
	"faxrelay/internal/observability"
	"faxrelay/internal/queue"
	"faxrelay/internal/service"
	"faxrelay/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger("watcher", cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	publisher := queue.NewRabbitMQPublisher(mq)
	defer publisher.Close()

	metrics := observability.NewMetrics()

	handler := func(ctx context.Context, path string) error {
		msg := queue.IngestMessage{
			Path:          path,
			CorrelationID: uuid.NewString(),
		}
		return publisher.Publish(ctx, queue.QueueCompletionIngest, msg)
	}

	w, err := watcher.New(cfg.InboundXMLDir, handler, watcher.Options{
		SettleDelay:      time.Duration(cfg.SettleDelayMillis) * time.Millisecond,
		PollInterval:     time.Duration(cfg.StabilityPollMillis) * time.Millisecond,
		StabilityTimeout: time.Duration(cfg.StabilityTimeoutSecs) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("watcher initialization failed", zap.Error(err))
	}
	w.SetMetrics(metrics)

	archiver, err := archive.NewManager(cfg.XMLArchiveDir, logger)
	if err != nil {
		logger.Fatal("archive manager initialization failed", zap.Error(err))
	}

	sweeper, err := service.NewSweeper(
		archiver,
		time.Duration(cfg.SweepIntervalHours)*time.Hour,
		time.Duration(cfg.XMLRetentionDays)*24*time.Hour,
		logger,
	)
	if err != nil {
		logger.Fatal("sweeper initialization failed", zap.Error(err))
	}
	sweeper.SetMetrics(metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })
	g.Go(func() error { return sweeper.Start(ctx) })

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WorkerMetricsPort),
		Handler: mux,
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

	logger.Info("faxrelay watcher started",
		zap.String("dir", cfg.InboundXMLDir),
		zap.Int("metricsPort", cfg.WorkerMetricsPort),
	)

	if err := g.Wait(); err != nil {
		logger.Fatal("watcher stopped", zap.Error(err))
	}
	logger.Info("watcher shut down")
}
