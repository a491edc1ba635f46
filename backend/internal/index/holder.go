package index

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"newsgraph/backend/internal/constants"
	"newsgraph/backend/pkg/logger"
	"newsgraph/backend/pkg/metrics"
)

// Source produces snapshots. *Loader is the production implementation.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Holder publishes the current snapshot. Readers call Current and never see a
// partially built index; rebuilds replace the whole snapshot at once.
type Holder struct {
	source  Source
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	logger  *zap.Logger

	buildTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHolder creates a holder with no snapshot loaded
func NewHolder(source Source) *Holder {
	return &Holder{
		source:       source,
		logger:       logger.Named("index"),
		buildTimeout: constants.SnapshotBuildTimeout,
	}
}

// Current returns the active snapshot, or nil before the first successful refresh
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Refresh rebuilds and publishes a snapshot. Concurrent callers share one
// rebuild. On failure the previous snapshot stays active.
//
// The shared rebuild is detached from every caller: ctx only bounds how long
// this caller waits. The rebuild itself is bounded by the holder's build timeout.
func (h *Holder) Refresh(ctx context.Context) (*Snapshot, error) {
	ch := h.group.DoChan("snapshot", func() (interface{}, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.buildTimeout)
		defer cancel()

		snap, err := h.source.Load(buildCtx)
		if err != nil {
			metrics.SnapshotBuildsTotal.WithLabelValues("error").Inc()
			h.logger.Error("Failed to refresh index snapshot", zap.Error(err))
			return nil, err
		}
		h.current.Store(snap)
		metrics.SnapshotBuildsTotal.WithLabelValues("ok").Inc()
		metrics.SnapshotArticles.Set(float64(snap.Articles.Len()))
		return snap, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("stopped waiting for index snapshot: %w", ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, fmt.Errorf("failed to refresh index snapshot: %w", res.Err)
	}

	snap, ok := res.Val.(*Snapshot)
	if !ok {
		return nil, fmt.Errorf("unexpected type from snapshot refresh: got %T", res.Val)
	}
	return snap, nil
}

// Start refreshes the snapshot every interval in the background until Stop
func (h *Holder) Start(interval time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		return fmt.Errorf("snapshot refresh already running")
	}
	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.wg.Add(1)

	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Errors are logged by Refresh; the old snapshot keeps serving
				_, _ = h.Refresh(ctx)
			}
		}
	}()

	h.logger.Info("Snapshot refresh started", zap.Duration("interval", interval))
	return nil
}

// Stop ends the background refresh loop, waiting up to timeout for it to exit
func (h *Holder) Stop(timeout time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel == nil {
		return
	}
	h.cancel()
	h.cancel = nil

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("Snapshot refresh stopped")
	case <-time.After(timeout):
		h.logger.Warn("Snapshot refresh did not stop in time", zap.Duration("timeout", timeout))
	}
}
