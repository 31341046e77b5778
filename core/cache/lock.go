package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another holder owns the lock.
var ErrLocked = errors.New("lock is held by another operation")

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out short-lived named locks.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// NewLocker returns a Redis-backed locker when rdb is set and an in-process one otherwise.
func NewLocker(rdb *redis.Client) Locker {
	if rdb == nil {
		return NewLocalLocker()
	}
	return &RedisLocker{client: redislock.New(rdb)}
}

// RedisLocker is a distributed locker built on redislock.
type RedisLocker struct {
	client *redislock.Client
}

// Obtain tries once to obtain key.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLocked
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// LocalLocker guards keys within one process. Expired locks can be taken over.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localEntry
	now   func() time.Time
	token uint64
}

type localEntry struct {
	token   uint64
	expires time.Time
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localEntry), now: time.Now}
}

// Obtain takes key unless it is held and not expired.
func (l *LocalLocker) Obtain(_ context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, ErrLocked
	}
	l.token++
	l.held[key] = localEntry{token: l.token, expires: now.Add(ttl)}
	return &localLock{owner: l, key: key, token: l.token}, nil
}

type localLock struct {
	owner *LocalLocker
	key   string
	token uint64
}

func (k *localLock) Release(context.Context) error {
	k.owner.mu.Lock()
	defer k.owner.mu.Unlock()
	if e, ok := k.owner.held[k.key]; ok && e.token == k.token {
		delete(k.owner.held, k.key)
	}
	return nil
}
