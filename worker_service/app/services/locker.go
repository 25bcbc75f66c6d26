package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// JobLocker provides the cross-worker mutex on a video ID. The datastore's
// conditional claim already rejects double processing; the lock keeps a
// second worker from even starting the download when the same message is
// delivered twice.
type JobLocker interface {
	// Acquire takes the lock for the given video. ok is false when another
	// worker holds it. On success the returned release func must be called
	// when the job execution ends.
	Acquire(ctx context.Context, videoID string) (release func(), ok bool, err error)
}

// RedisLocker implements JobLocker with a token-guarded SETNX lock.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker on the given Redis client.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

// compare-and-delete so an expired lock re-acquired by another worker is
// never released by the first holder
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Acquire implements JobLocker.
func (l *RedisLocker) Acquire(ctx context.Context, videoID string) (func(), bool, error) {
	key := lockKey(videoID)
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire job lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		if err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			log.Printf("⚠️  Failed to release job lock %s: %v", key, err)
		}
	}
	return release, true, nil
}

func lockKey(videoID string) string {
	return "clipsmith:lock:" + videoID
}
