// Package refundsync runs the sync-refund-req pull loop (§4.7), rate
// limited to MIN_SECS_INTVL_REQ between RPC round trips (§6 limits).
package refundsync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/halvorsen/ecom-order-core/internal/middleware"
	"github.com/halvorsen/ecom-order-core/internal/services"
)

// MinInterval is MIN_SECS_INTVL_REQ from §6: the floor between pull
// requests to the replica, regardless of Config.Interval.
const MinInterval = 3 * time.Second

// rateLimitKey is the single logical identifier rate-limited against —
// there is one outbound replica-refund pull stream per process.
const rateLimitKey = "sync-refund-req"

type Config struct {
	// Interval is how often the pull loop fires (default: 30s).
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: 30 * time.Second}
}

type Worker struct {
	svc      *services.SyncRefundService
	interval time.Duration
	limiter  *middleware.RateLimiter
	log      zerolog.Logger
	stopChan chan struct{}
	done     chan struct{}
}

func NewWorker(svc *services.SyncRefundService, cfg Config, log zerolog.Logger) *Worker {
	if cfg.Interval < MinInterval {
		cfg.Interval = MinInterval
	}
	return &Worker{
		svc:      svc,
		interval: cfg.Interval,
		limiter:  middleware.NewRateLimiter(MinInterval),
		log:      log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *Worker) Start() error {
	w.log.Info().Dur("interval", w.interval).Msg("starting refund-sync worker")
	go w.run()
	return nil
}

func (w *Worker) Stop() error {
	w.log.Info().Msg("stopping refund-sync worker")
	close(w.stopChan)

	select {
	case <-w.done:
		w.log.Info().Msg("refund-sync worker stopped")
	case <-time.After(10 * time.Second):
		w.log.Warn().Msg("refund-sync worker stop timeout")
	}
	return nil
}

func (w *Worker) run() {
	defer close(w.done)

	w.pull()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.pull()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Worker) pull() {
	// MIN_SECS_INTVL_REQ floor, enforced a second time here (the teacher's
	// RateLimiter) in case Config.Interval is ever driven below MinInterval
	// by a misconfigured reload.
	if !w.limiter.Allow(rateLimitKey) {
		w.log.Debug().Msg("refund-sync pull skipped, rate limit floor not elapsed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := w.svc.Execute(ctx); err != nil {
		w.log.Error().Err(err).Msg("refund-sync pull failed")
		return
	}
	w.log.Debug().Msg("refund-sync pull completed")
}
