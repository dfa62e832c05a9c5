package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"
)

// ErrLockTimeout is returned when a lock could not be acquired in time.
var ErrLockTimeout = errors.New("cache: lock acquisition timed out")

// Locker serializes work on a key across goroutines or processes.
type Locker interface {
	// Lock blocks until the key is held, ctx ends or the locker's wait
	// limit passes. The returned func releases the lock.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LockKey is the lock name for one user×topic pair.
func LockKey(userID, topic string) string {
	return "lock:" + userID + ":" + topic
}

// LocalLocker is an in-process keyed mutex. Entries are dropped once no
// goroutine holds or waits on them.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	sem  *semaphore.Weighted
	refs int
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ll, ok := l.locks[key]
	if !ok {
		ll = &localLock{sem: semaphore.NewWeighted(1)}
		l.locks[key] = ll
	}
	ll.refs++
	l.mu.Unlock()

	if err := ll.sem.Acquire(ctx, 1); err != nil {
		l.release(key, ll, false)
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(key, ll, true) }) }, nil
}

func (l *LocalLocker) release(key string, ll *localLock, held bool) {
	if held {
		ll.sem.Release(1)
	}
	l.mu.Lock()
	ll.refs--
	if ll.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// size returns the number of tracked keys.
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// unlockScript deletes the key only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX plus a
// compare-and-delete release).
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
	logger *slog.Logger
}

// NewRedisLocker creates a locker whose locks expire after ttl and whose
// Lock gives up after wait. Failed releases are logged to logger; nil uses
// slog.Default.
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait, poll: 25 * time.Millisecond, logger: logger}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even if the caller's context is already done.
			n, err := unlockScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, token).Int()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				l.logger.Warn("failed to release lock", "key", key, "error", err)
			case n == 0:
				l.logger.Warn("lock expired before release", "key", key, "ttl", l.ttl)
			}
		})
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
