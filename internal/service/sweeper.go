package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"faxrelay/internal/observability"
)

const (
	defaultSweepInterval = 24 * time.Hour
	defaultRetention     = 90 * 24 * time.Hour
)

// ArchiveSweeper removes archived documents older than the retention window.
type ArchiveSweeper interface {
	Sweep(ctx context.Context, retention time.Duration) (int, error)
}

// Sweeper periodically purges expired documents from the archive tree.
type Sweeper struct {
	archive   ArchiveSweeper
	logger    *zap.Logger
	metrics   *observability.Metrics
	interval  time.Duration
	retention time.Duration
}

func NewSweeper(
	archive ArchiveSweeper,
	interval time.Duration,
	retention time.Duration,
	logger *zap.Logger,
) (*Sweeper, error) {
	if archive == nil {
		return nil, fmt.Errorf("archive is required")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if retention <= 0 {
		retention = defaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sweeper{
		archive:   archive,
		logger:    logger,
		interval:  interval,
		retention: retention,
	}, nil
}

func (s *Sweeper) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *Sweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial sweep so a long-stopped watcher catches up without
	// waiting for the first ticker edge.
	if err := s.sweepOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("initial archive sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.sweepOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("archive sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) error {
	removed, err := s.archive.Sweep(ctx, s.retention)
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.AddArchivePurged(removed)
	}
	if removed > 0 {
		s.logger.Info("archive sweep removed expired documents",
			zap.Int("removed", removed),
		)
	}
	return nil
}
