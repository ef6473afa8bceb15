package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLock implementa Manager con SET NX PX, condiviso tra istanze.
type RedisLock struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	retries int
	backoff time.Duration
}

var _ Manager = (*RedisLock)(nil)

func NewRedisLock(client *redis.Client, prefix string, ttl time.Duration, retries int, backoff time.Duration) *RedisLock {
	// TTL breve evita lock orfani in caso di crash.
	return &RedisLock{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		retries: retries,
		backoff: backoff,
	}
}

func (l *RedisLock) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := newToken()
	for attempt := 0; attempt <= l.retries; attempt++ {
		ok, err := l.client.SetNX(ctx, l.prefix+key, token, l.ttl).Result()
		if err != nil {
			return "", false, err
		}
		if ok {
			return token, true, nil
		}
		if attempt < l.retries {
			select {
			case <-ctx.Done():
				return "", false, ctx.Err()
			case <-time.After(l.backoff):
			}
		}
	}
	return "", false, nil
}

func (l *RedisLock) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return ErrMissingToken
	}
	return releaseLua.Run(ctx, l.client, []string{l.prefix + key}, token).Err()
}

// Cancella solo se il token e' ancora quello dell'owner.
var releaseLua = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)
