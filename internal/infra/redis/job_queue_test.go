//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

func TestJobQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("Dispatch pushes the job id onto the configured key", func(t *testing.T) {
		var gotKey string
		var gotVals []interface{}
		q := NewJobQueue(&mockRedisClient{
			LPushFunc: func(ctx context.Context, key string, values ...interface{}) error {
				gotKey, gotVals = key, values
				return nil
			},
		}, "q:test", time.Second)

		if err := q.Dispatch(ctx, "job-1"); err != nil {
			t.Fatal(err)
		}
		if gotKey != "q:test" || len(gotVals) != 1 || gotVals[0] != "job-1" {
			t.Fatalf("LPush(%q, %v)", gotKey, gotVals)
		}
	})

	t.Run("Dispatch surfaces push errors", func(t *testing.T) {
		q := NewJobQueue(&mockRedisClient{
			LPushFunc: func(ctx context.Context, key string, values ...interface{}) error { return errors.New("down") },
		}, "", 0)
		if err := q.Dispatch(ctx, "job-1"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("Pop returns empty id on timeout", func(t *testing.T) {
		var gotTimeout time.Duration
		q := NewJobQueue(&mockRedisClient{
			BRPopFunc: func(ctx context.Context, timeout time.Duration, key string) (string, error) {
				gotTimeout = timeout
				return "", redis.Nil
			},
		}, "", 0)
		id, err := q.Pop(ctx)
		if err != nil || id != "" {
			t.Fatalf("Pop() = %q, %v", id, err)
		}
		if gotTimeout != 5*time.Second {
			t.Errorf("default poll timeout = %v", gotTimeout)
		}
	})

	t.Run("Pop returns the popped id", func(t *testing.T) {
		q := NewJobQueue(&mockRedisClient{
			BRPopFunc: func(ctx context.Context, timeout time.Duration, key string) (string, error) { return "job-7", nil },
		}, "", 0)
		if id, err := q.Pop(ctx); err != nil || id != "job-7" {
			t.Fatalf("Pop() = %q, %v", id, err)
		}
	})
}

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	counts := map[string]int64{}
	var gotWindow time.Duration
	rl := NewRateLimiter(&mockRedisClient{
		IncrWindowFunc: func(ctx context.Context, key string, window time.Duration) (int64, error) {
			gotWindow = window
			counts[key]++
			return counts[key], nil
		},
	})

	key := IntentKey("u1")
	for i := 1; i <= 3; i++ {
		ok, err := rl.Allow(ctx, key, 2, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if want := i <= 2; ok != want {
			t.Fatalf("call %d: allowed = %v, want %v", i, ok, want)
		}
	}
	if gotWindow != time.Minute {
		t.Errorf("window = %v, want 1m", gotWindow)
	}
	if key != "rate_limit:intent:u1" {
		t.Errorf("IntentKey = %q", key)
	}

	t.Run("zero limit allows without touching redis", func(t *testing.T) {
		ok, err := NewRateLimiter(&mockRedisClient{}).Allow(ctx, key, 0, time.Minute)
		if err != nil || !ok {
			t.Fatalf("Allow() = %v, %v", ok, err)
		}
	})

	t.Run("redis error is returned", func(t *testing.T) {
		boom := errors.New("down")
		_, err := NewRateLimiter(&mockRedisClient{
			IncrWindowFunc: func(ctx context.Context, key string, window time.Duration) (int64, error) { return 0, boom },
		}).Allow(ctx, key, 1, time.Minute)
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want %v", err, boom)
		}
	})
}
