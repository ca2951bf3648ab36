// Package outbox runs the polling worker that drains queued
// asynchronous operations from the store.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/services"
	"github.com/avclabs/faxdesk/internal/store"
)

// Config controls batch size and polling cadence.
type Config struct {
	BatchSize int           // number of jobs to lease per cycle
	Interval  time.Duration // poll interval
}

// Worker leases ready outbox jobs and applies them. Failed jobs back
// off per attempt in the store until its retry ceiling parks them; the
// worker never retries inline.
type Worker struct {
	store store.Store
	docs  *services.DocumentService
	cfg   Config
	log   zerolog.Logger
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(s store.Store, docs *services.DocumentService, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &Worker{store: s, docs: docs, cfg: cfg, log: log}
}

// Run starts the polling loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("outbox worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("outbox worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessOnce(ctx); err != nil {
				// Log and continue; per-job backoff prevents hot-looping.
				w.log.Error().Err(err).Msg("outbox cycle failed")
			}
		}
	}
}

// ProcessOnce leases one batch and handles each job, isolating
// per-job failures.
func (w *Worker) ProcessOnce(ctx context.Context) error {
	jobs, err := w.store.Outbox().Lease(ctx, w.cfg.BatchSize)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if err := w.handle(ctx, j); err != nil {
			w.log.Warn().Err(err).Int64("jobId", j.ID).Str("op", j.Op).Msg("outbox job failed")
			if e := w.store.Outbox().MarkFailed(ctx, j.ID); e != nil {
				w.log.Error().Err(e).Int64("jobId", j.ID).Msg("markFailed error")
			}
			continue
		}
		if e := w.store.Outbox().MarkDone(ctx, j.ID); e != nil {
			w.log.Error().Err(e).Int64("jobId", j.ID).Msg("markDone error")
		}
	}
	return nil
}

// handle executes the outbox operation.
func (w *Worker) handle(ctx context.Context, j *model.OutboxJob) error {
	switch j.Op {
	case store.OpClassifyDocument:
		_, _, err := w.docs.Classify(ctx, j.AggregateID)
		return err
	default:
		return fmt.Errorf("unknown op: %s", j.Op)
	}
}
