// Package discardunpaid runs the scheduled sweep that releases stock held
// by reservations whose window lapsed without payment (§4.5), grounded on
// the teacher's session_cleanup ticker-worker shape.
package discardunpaid

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/halvorsen/ecom-order-core/internal/services"
)

// Config holds configuration for the discard-unpaid worker.
type Config struct {
	// Interval is how often the sweep runs (default: 1 minute).
	Interval time.Duration

	// BatchLimit bounds how many lapsed order-line sets one sweep fetches.
	BatchLimit int
}

func DefaultConfig() Config {
	return Config{Interval: time.Minute, BatchLimit: 500}
}

// Worker periodically invokes DiscardUnpaidService.Execute.
type Worker struct {
	svc      *services.DiscardUnpaidService
	interval time.Duration
	limit    int
	log      zerolog.Logger
	stopChan chan struct{}
	done     chan struct{}
}

func NewWorker(svc *services.DiscardUnpaidService, cfg Config, log zerolog.Logger) *Worker {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchLimit == 0 {
		cfg.BatchLimit = 500
	}
	return &Worker{
		svc:      svc,
		interval: cfg.Interval,
		limit:    cfg.BatchLimit,
		log:      log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *Worker) Start() error {
	w.log.Info().Dur("interval", w.interval).Int("batch_limit", w.limit).Msg("starting discard-unpaid worker")
	go w.run()
	return nil
}

func (w *Worker) Stop() error {
	w.log.Info().Msg("stopping discard-unpaid worker")
	close(w.stopChan)

	select {
	case <-w.done:
		w.log.Info().Msg("discard-unpaid worker stopped")
	case <-time.After(10 * time.Second):
		w.log.Warn().Msg("discard-unpaid worker stop timeout")
	}
	return nil
}

func (w *Worker) run() {
	defer close(w.done)

	w.sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Worker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := w.svc.Execute(ctx, w.limit)
	if err != nil {
		w.log.Error().Err(err).
			Int("sets_processed", result.SetsProcessed).
			Int("return_errors", len(result.ReturnErrors)).
			Int("cancel_errors", len(result.CancelErrors)).
			Msg("discard-unpaid sweep completed with errors")
		return
	}

	if result.SetsProcessed > 0 {
		w.log.Info().Int("sets_processed", result.SetsProcessed).Msg("discard-unpaid sweep completed")
	}
}
