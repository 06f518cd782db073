package watcher

import (
	"context"
	"fmt"
	"os"
	"time"
)

// StabilityState is the outcome of watching one file settle.
type StabilityState int

const (
	// StateUnstable means the file size is still changing or zero.
	StateUnstable StabilityState = iota
	// StateStable means the size was non-zero and unchanged between two
	// consecutive polls.
	StateStable
	// StateTimedOut means the file never settled within the bound.
	StateTimedOut
)

func (s StabilityState) String() string {
	switch s {
	case StateUnstable:
		return "unstable"
	case StateStable:
		return "stable"
	case StateTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// stabilityCheck polls a file's size until it settles. The producer writes
// documents in place, so a size unchanged across one poll interval is treated
// as write-complete.
type stabilityCheck struct {
	pollInterval time.Duration
	timeout      time.Duration

	stat  func(path string) (int64, error)
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func newStabilityCheck(pollInterval, timeout time.Duration) *stabilityCheck {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &stabilityCheck{
		pollInterval: pollInterval,
		timeout:      timeout,
		stat:         fileSize,
		sleep:        sleepWithContext,
		now:          time.Now,
	}
}

// wait drives the Unstable -> Stable | TimedOut state machine.
func (c *stabilityCheck) wait(ctx context.Context, path string) (StabilityState, error) {
	deadline := c.now().Add(c.timeout)
	lastSize := int64(-1)

	state := StateUnstable
	for state == StateUnstable {
		if c.now().After(deadline) {
			return StateTimedOut, nil
		}

		size, err := c.stat(path)
		switch {
		case err != nil:
			// The file may not be readable yet; stay unstable and poll again.
		case size > 0 && size == lastSize:
			state = StateStable
			continue
		default:
			lastSize = size
		}

		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return StateUnstable, err
		}
	}

	return state, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	return info.Size(), nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
