package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"content-payment-service/internal/domain/ports/adapter"
	"content-payment-service/internal/domain/ports/repository"
	"content-payment-service/internal/infra/metrics"
)

// StaleJobReconciler re-dispatches paid jobs stuck in processing. This covers
// a lost queue entry or a worker that died mid-job; the worker's lock and
// status check make a duplicate dispatch harmless.
type StaleJobReconciler struct {
	jobs       repository.JobRepository
	dispatcher adapter.JobDispatcher
	interval   time.Duration
	staleAfter time.Duration
	batch      int
	log        *zerolog.Logger
	now        func() time.Time
}

func NewStaleJobReconciler(jobs repository.JobRepository, dispatcher adapter.JobDispatcher, interval, staleAfter time.Duration, batch int, log *zerolog.Logger) *StaleJobReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	if batch <= 0 {
		batch = 50
	}
	return &StaleJobReconciler{
		jobs:       jobs,
		dispatcher: dispatcher,
		interval:   interval,
		staleAfter: staleAfter,
		batch:      batch,
		log:        log,
		now:        time.Now,
	}
}

func (w *StaleJobReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

// tick returns the number of jobs re-dispatched.
func (w *StaleJobReconciler) tick(ctx context.Context) int {
	cutoff := w.now().Add(-w.staleAfter)
	stale, err := w.jobs.ListStaleProcessing(ctx, cutoff, w.batch)
	if err != nil {
		w.log.Error().Err(err).Msg("stale-job reconciler: list failed")
		return 0
	}
	n := 0
	for _, j := range stale {
		if err := w.dispatcher.Dispatch(ctx, j.ID); err != nil {
			w.log.Error().Err(err).Str("job_id", j.ID).Msg("stale-job reconciler: re-dispatch failed")
			continue
		}
		metrics.IncStaleRedispatch()
		n++
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("stale-job reconciler: re-dispatched jobs")
	}
	return n
}
