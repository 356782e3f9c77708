package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gare/pkg/platform/sentinel"
)

// releaseScript deletes the lock only when the caller still owns it, so an
// expired lock taken over by another instance is never released from here.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-holder lease keyed by name. Used to keep one scheduler
// instance running the deadline job when several replicas share a cron spec.
type Lock struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
}

// NewLock builds a lock over the given key with the given lease TTL.
func NewLock(client *Client, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, ttl: ttl}
}

// Acquire takes the lease. Returns sentinel.ErrLockHeld when another holder
// has it.
func (l *Lock) Acquire(ctx context.Context) error {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return sentinel.ErrLockHeld
	}
	l.token = token
	return nil
}

// Release gives the lease back if this instance still holds it. Releasing a
// lock that expired and moved on is a no-op.
func (l *Lock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""
	if err := releaseScript.Run(ctx, l.client.Client, []string{l.key}, token).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return nil
}
