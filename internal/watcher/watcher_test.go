package watcher

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

func newTestWatcher(t *testing.T, handler Handler) *Watcher {
	t.Helper()

	w, err := New(t.TempDir(), handler, Options{
		SettleDelay:      time.Millisecond,
		PollInterval:     time.Millisecond,
		StabilityTimeout: 50 * time.Millisecond,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Settle instantly and report every file as already stable; the state
	// machine has its own tests.
	w.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	w.stability.sleep = w.sleep
	w.stability.stat = func(path string) (int64, error) { return 42, nil }

	return w
}

func TestIsCompletionDocument(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path string
		want bool
	}{
		{"/drop/job1.xml", true},
		{"/drop/JOB2.XML", true},
		{"/drop/readme.txt", false},
		{"/drop/archive.xml.bak", false},
		{"/drop/noext", false},
	}

	for _, tc := range testCases {
		if got := isCompletionDocument(tc.path); got != tc.want {
			t.Errorf("isCompletionDocument(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestDispatchFiltersEvents(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	w := newTestWatcher(t, func(ctx context.Context, path string) error {
		calls.Add(1)
		return nil
	})

	w.dispatch(context.Background(), fsnotify.Event{Name: "/drop/job.xml", Op: fsnotify.Write})
	w.dispatch(context.Background(), fsnotify.Event{Name: "/drop/notes.txt", Op: fsnotify.Create})
	w.wg.Wait()

	if got := calls.Load(); got != 0 {
		t.Fatalf("handler calls = %d, want 0", got)
	}

	w.dispatch(context.Background(), fsnotify.Event{Name: "/drop/job.xml", Op: fsnotify.Create})
	w.wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("handler calls = %d, want 1", got)
	}
}

func TestDispatchSuppressesDuplicateInflightEvents(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	w := newTestWatcher(t, func(ctx context.Context, path string) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	})

	event := fsnotify.Event{Name: "/drop/job.xml", Op: fsnotify.Create}
	w.dispatch(context.Background(), event)
	<-started

	// Same path while in flight: dropped by the keyed guard.
	w.dispatch(context.Background(), event)
	close(release)
	w.wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("handler calls = %d, want 1", got)
	}

	// After the first handling finishes the path may be handled again.
	done := make(chan struct{})
	w2 := newTestWatcher(t, func(ctx context.Context, path string) error {
		calls.Add(1)
		close(done)
		return nil
	})
	w2.dispatch(context.Background(), event)
	<-done
	w2.wg.Wait()

	if got := calls.Load(); got != 2 {
		t.Fatalf("handler calls = %d, want 2", got)
	}
}

func TestDistinctFilesHandledConcurrently(t *testing.T) {
	t.Parallel()

	firstStarted := make(chan struct{})
	secondStarted := make(chan struct{})
	release := make(chan struct{})

	w := newTestWatcher(t, func(ctx context.Context, path string) error {
		switch path {
		case "/drop/a.xml":
			close(firstStarted)
		case "/drop/b.xml":
			close(secondStarted)
		}
		<-release
		return nil
	})

	w.dispatch(context.Background(), fsnotify.Event{Name: "/drop/a.xml", Op: fsnotify.Create})
	w.dispatch(context.Background(), fsnotify.Event{Name: "/drop/b.xml", Op: fsnotify.Create})

	select {
	case <-firstStarted:
	case <-time.After(time.Second):
		t.Fatal("first file never started")
	}
	select {
	case <-secondStarted:
	case <-time.After(time.Second):
		t.Fatal("second file blocked behind the first")
	}

	close(release)
	w.wg.Wait()
}

func TestHandleLeavesUnstableFileAlone(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	w := newTestWatcher(t, func(ctx context.Context, path string) error {
		calls.Add(1)
		return nil
	})

	// A file that grows on every poll never stabilizes within the bound.
	var size atomic.Int64
	w.stability.stat = func(path string) (int64, error) {
		return size.Add(1), nil
	}

	w.handle(context.Background(), "/drop/job.xml")

	if got := calls.Load(); got != 0 {
		t.Fatalf("handler calls = %d, want 0 for unstable file", got)
	}
}
