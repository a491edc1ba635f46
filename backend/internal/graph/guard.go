package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"newsgraph/backend/internal/constants"
	"newsgraph/backend/internal/content"
	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
	"newsgraph/backend/pkg/metrics"
)

// GuardOptions configures GuardedStore
type GuardOptions struct {
	// Timeout bounds every individual store call
	Timeout time.Duration
	// Backoff is the pause before the single retry
	Backoff time.Duration
	// FailureRatio trips the breaker once enough calls have been observed
	FailureRatio float64
}

// GuardedStore decorates a Store with a per-call timeout, one bounded retry
// and a circuit breaker. Every failure surfaces as ErrStoreUnavailable.
type GuardedStore struct {
	inner   Store
	opts    GuardOptions
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewGuardedStore wraps inner
func NewGuardedStore(inner Store, opts GuardOptions) *GuardedStore {
	log := logger.Named("graph")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        constants.BreakerName,
		MaxRequests: 1,
		Interval:    constants.BreakerInterval,
		Timeout:     constants.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < constants.BreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= opts.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A caller abandoning its request or a malformed query says nothing about store health
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidQuery)
		},
	})

	return &GuardedStore{
		inner:   inner,
		opts:    opts,
		breaker: breaker,
		logger:  log,
	}
}

// FindNodes implements Store
func (g *GuardedStore) FindNodes(ctx context.Context, label content.Label, filter Filter) ([]content.Node, error) {
	return g.call(ctx, "find_nodes", func(ctx context.Context) ([]content.Node, error) {
		return g.inner.FindNodes(ctx, label, filter)
	})
}

// Traverse implements Store
func (g *GuardedStore) Traverse(ctx context.Context, from content.Node, edge content.EdgeType, dir content.Direction) ([]content.Node, error) {
	return g.call(ctx, "traverse", func(ctx context.Context) ([]content.Node, error) {
		return g.inner.Traverse(ctx, from, edge, dir)
	})
}

func (g *GuardedStore) call(ctx context.Context, op string, fn func(context.Context) ([]content.Node, error)) ([]content.Node, error) {
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= constants.MaxStoreAttempts; attempt++ {
		if attempt > 1 {
			g.logger.Warn("Retrying store call",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", g.opts.Backoff),
				zap.Error(lastErr),
			)
			timer := time.NewTimer(g.opts.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, apperrors.NewStoreUnavailable(op, attempts, ctx.Err())
			case <-timer.C:
			}
		}

		attempts++
		nodes, err := g.once(ctx, fn)
		if err == nil {
			metrics.StoreCallsTotal.WithLabelValues(op, "ok").Inc()
			return nodes, nil
		}

		metrics.StoreCallsTotal.WithLabelValues(op, "error").Inc()
		if errors.Is(err, ErrInvalidQuery) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		lastErr = err
		// The caller's own deadline or cancellation ends the call
		if ctx.Err() != nil || !apperrors.IsRetryable(err) {
			break
		}
	}

	g.logger.Error("Store call failed",
		zap.String("operation", op),
		zap.Int("attempts", attempts),
		zap.Error(lastErr),
	)
	return nil, apperrors.NewStoreUnavailable(op, attempts, lastErr)
}

func (g *GuardedStore) once(ctx context.Context, fn func(context.Context) ([]content.Node, error)) ([]content.Node, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	res, err := g.breaker.Execute(func() (interface{}, error) {
		return fn(callCtx)
	})
	if err != nil {
		return nil, classify(err)
	}
	nodes, _ := res.([]content.Node)
	if nodes == nil {
		nodes = []content.Node{}
	}
	return nodes, nil
}

// classify types a raw store failure. Invalid queries pass through untouched;
// an open circuit is not worth retrying; everything else is a store error.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperrors.NewBaseError(apperrors.ErrorTypeCircuitOpen, "circuit open", err)
	default:
		return apperrors.NewBaseError(apperrors.ErrorTypeStore, "store call failed", err)
	}
}
