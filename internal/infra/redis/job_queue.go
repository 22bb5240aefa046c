package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"content-payment-service/internal/domain/ports/adapter"
	"content-payment-service/internal/infra/metrics"
)

var _ adapter.JobQueue = (*JobQueue)(nil)

// JobQueue is a Redis list used as the hand-off between commit and the
// generation workers. Producers LPUSH, consumers BRPOP.
type JobQueue struct {
	client      RedisClient
	key         string
	pollTimeout time.Duration
}

func NewJobQueue(client RedisClient, key string, pollTimeout time.Duration) *JobQueue {
	if key == "" {
		key = "content:generation:queue"
	}
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &JobQueue{client: client, key: key, pollTimeout: pollTimeout}
}

func (q *JobQueue) Dispatch(ctx context.Context, jobID string) error {
	if err := q.client.LPush(ctx, q.key, jobID); err != nil {
		metrics.IncDispatch("error")
		return err
	}
	metrics.IncDispatch("ok")
	return nil
}

func (q *JobQueue) Pop(ctx context.Context) (string, error) {
	id, err := q.client.BRPop(ctx, q.pollTimeout, q.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}
