// Package watcher observes the fax server's drop directory for new
// completion documents and forwards each one downstream once it has finished
// being written.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"faxrelay/internal/observability"
	"go.uber.org/zap"
)

const completionExt = ".xml"

// Handler receives the path of one stable completion document.
type Handler func(ctx context.Context, path string) error

type Watcher struct {
	dir         string
	handler     Handler
	logger      *zap.Logger
	metrics     *observability.Metrics
	settleDelay time.Duration
	stability   *stabilityCheck

	sleep func(ctx context.Context, d time.Duration) error

	// inflight guards each path with its own slot so duplicate events for
	// the same file are dropped while distinct files proceed concurrently.
	inflight sync.Map
	wg       sync.WaitGroup
}

type Options struct {
	SettleDelay      time.Duration
	PollInterval     time.Duration
	StabilityTimeout time.Duration
}

func New(dir string, handler Handler, opts Options, logger *zap.Logger) (*Watcher, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = time.Second
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create watch directory %q: %w", dir, err)
	}

	return &Watcher{
		dir:         dir,
		handler:     handler,
		logger:      logger,
		settleDelay: opts.SettleDelay,
		stability:   newStabilityCheck(opts.PollInterval, opts.StabilityTimeout),
		sleep:       sleepWithContext,
	}, nil
}

func (w *Watcher) SetMetrics(metrics *observability.Metrics) {
	if w == nil {
		return
	}
	w.metrics = metrics
}

// Run watches the drop directory until context cancellation. The watch is
// non-recursive and limited to completion document files.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.dir, err)
	}

	w.logger.Info("completion watcher started", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.logger.Info("completion watcher stopped")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				w.wg.Wait()
				return fmt.Errorf("fs watcher event stream closed")
			}
			w.dispatch(ctx, event)
		case err, ok := <-fw.Errors:
			if !ok {
				w.wg.Wait()
				return fmt.Errorf("fs watcher error stream closed")
			}
			w.logger.Warn("fs watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	if !isCompletionDocument(event.Name) {
		return
	}
	if _, loaded := w.inflight.LoadOrStore(event.Name, struct{}{}); loaded {
		return
	}

	if w.metrics != nil {
		w.metrics.IncWatcherFileDetected()
	}
	w.logger.Info("completion document detected", zap.String("path", event.Name))

	w.wg.Add(1)
	go func(path string) {
		defer w.wg.Done()
		defer w.inflight.Delete(path)
		w.handle(ctx, path)
	}(event.Name)
}

func (w *Watcher) handle(ctx context.Context, path string) {
	// Let the producer get past the create+first-write race before polling.
	if err := w.sleep(ctx, w.settleDelay); err != nil {
		return
	}

	state, err := w.stability.wait(ctx, path)
	if err != nil {
		return
	}
	if state != StateStable {
		// Leave the file in place for a later pass or operator retry.
		if w.metrics != nil {
			w.metrics.IncWatcherStabilityTimeout()
		}
		w.logger.Warn("completion document never stabilized",
			zap.String("path", path),
			zap.String("state", state.String()),
		)
		return
	}

	if err := w.handler(ctx, path); err != nil {
		w.logger.Error("failed to hand off completion document",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}

func isCompletionDocument(path string) bool {
	return strings.EqualFold(filepath.Ext(path), completionExt)
}
