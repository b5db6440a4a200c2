package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired means another run holds the lock
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld means the lock expired or was taken over
	ErrLockNotHeld = errors.New("lock not held")
)

// Both scripts only touch the key while it still carries our token.
var (
	releaseScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`)
	extendScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		end
		return 0
	`)
)

// Locker hands out run locks. A held lock is extended every ttl/3 until it
// is released, so ttl only bounds how long a crashed holder blocks others.
type Locker struct {
	client    *Client
	keyPrefix string
	ttl       time.Duration
}

// NewLocker defaults to the "lock:" prefix and a one hour ttl
func NewLocker(client *Client, keyPrefix string, ttl time.Duration) *Locker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Locker{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// RunLock is one held lock
type RunLock struct {
	locker *Locker
	key    string
	token  string

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Acquire takes key or fails with ErrLockNotAcquired. The returned lock
// keeps itself alive until Release.
func (l *Locker) Acquire(ctx context.Context, key string) (*RunLock, error) {
	lock := &RunLock{
		locker: l,
		key:    l.keyPrefix + key,
		token:  uuid.NewString(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	ok, err := l.client.rdb.SetNX(ctx, lock.key, lock.token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	l.client.logger.WithContext(ctx).WithField("key", lock.key).Debug("Acquired run lock")
	go lock.keepAlive(context.WithoutCancel(ctx))
	return lock, nil
}

// Lock is Acquire in the shape pipeline.Locker expects
func (l *Locker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	lock, err := l.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

func (lock *RunLock) keepAlive(ctx context.Context) {
	defer close(lock.done)

	ticker := time.NewTicker(lock.locker.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-lock.stop:
			return
		case <-ticker.C:
			if err := lock.extend(ctx); err != nil {
				lock.locker.client.logger.WithContext(ctx).WithError(err).WithField("key", lock.key).Warn("Lost run lock")
				return
			}
		}
	}
}

func (lock *RunLock) extend(ctx context.Context) error {
	n, err := extendScript.Run(ctx, lock.locker.client.rdb, []string{lock.key}, lock.token, lock.locker.ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Release stops the renewal and deletes the key if it is still ours
func (lock *RunLock) Release(ctx context.Context) error {
	lock.stopOnce.Do(func() { close(lock.stop) })
	<-lock.done

	n, err := releaseScript.Run(ctx, lock.locker.client.rdb, []string{lock.key}, lock.token).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockNotHeld
	}

	lock.locker.client.logger.WithContext(ctx).WithField("key", lock.key).Debug("Released run lock")
	return nil
}
