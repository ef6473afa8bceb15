package lock

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryLock implementa Manager dentro al processo; i lock scadono dopo ttl.
type MemoryLock struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, string]
}

var _ Manager = (*MemoryLock)(nil)

func NewMemoryLock(ttl time.Duration) *MemoryLock {
	cache := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()
	return &MemoryLock{cache: cache}
}

// Close ferma il goroutine di pulizia.
func (l *MemoryLock) Close() {
	l.cache.Stop()
}

func (l *MemoryLock) Acquire(_ context.Context, key string) (string, bool, error) {
	token := newToken()
	l.mu.Lock()
	_, found := l.cache.GetOrSet(key, token)
	l.mu.Unlock()
	if found {
		return "", false, nil
	}
	return token, true, nil
}

func (l *MemoryLock) Release(_ context.Context, key, token string) error {
	if key == "" || token == "" {
		return ErrMissingToken
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if item := l.cache.Get(key); item != nil && item.Value() == token {
		l.cache.Delete(key)
	}
	return nil
}
