package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"content-payment-service/internal/domain/ports/adapter"
	"content-payment-service/internal/infra/logging"
	"content-payment-service/internal/infra/metrics"
	"content-payment-service/internal/usecase"
)

// GenerationConsumer pops dispatched job ids and runs them on the pool.
type GenerationConsumer struct {
	queue   adapter.JobQueue
	gen     usecase.GenerationUseCase
	pool    *Pool
	log     *zerolog.Logger
	backoff time.Duration
}

func NewGenerationConsumer(queue adapter.JobQueue, gen usecase.GenerationUseCase, pool *Pool, log *zerolog.Logger) *GenerationConsumer {
	return &GenerationConsumer{queue: queue, gen: gen, pool: pool, log: log, backoff: time.Second}
}

// Start blocks until ctx is cancelled. Run it in a goroutine.
func (c *GenerationConsumer) Start(ctx context.Context) {
	c.log.Info().Msg("generation consumer started")
	for {
		if ctx.Err() != nil {
			c.log.Info().Msg("generation consumer stopping")
			return
		}

		jobID, err := c.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.log.Error().Err(err).Msg("queue pop failed")
			select {
			case <-ctx.Done():
			case <-time.After(c.backoff):
			}
			continue
		}
		if jobID == "" {
			continue
		}

		// A job lost here is picked up again by the stale-job reconciler.
		if err := c.pool.SubmitWait(ctx, c.task(jobID)); err != nil {
			c.log.Warn().Err(err).Str("job_id", jobID).Msg("could not schedule generation job")
		}
	}
}

func (c *GenerationConsumer) task(jobID string) Task {
	return func(ctx context.Context) error {
		ctx = logging.WithJobID(ctx, jobID)
		log := logging.With(ctx, c.log)
		defer logging.TraceDuration(log, "generation job")()

		outcome, err := c.gen.Process(ctx, jobID)
		metrics.IncGenerationJob(string(outcome))
		if err != nil {
			return err
		}
		log.Info().Str("outcome", string(outcome)).Msg("generation job finished")
		return nil
	}
}
