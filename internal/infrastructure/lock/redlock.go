package lock

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"microfinance-payments/pkg/id"
)

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

// Locker is a single redis key held with SETNX; only the holder's value can
// release it.
type Locker struct {
	client redis.UniversalClient
	key    string
	value  string
}

func NewLocker(client redis.UniversalClient, key, value string) *Locker {
	return &Locker{client: client, key: key, value: value}
}

func (l *Locker) Lock(ctx context.Context, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, l.key, l.value, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("lock for key %s is already held: %w", l.key, ErrNotAcquired)
	}
	return nil
}

func (l *Locker) Unlock(ctx context.Context) error {
	res, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if res == int64(0) {
		return fmt.Errorf("unlock failed, either lock expired or you're not the lock holder for key %s", l.key)
	}
	return nil
}

// WaitLock retries Lock with jitter until wait elapses or ctx ends.
func (l *Locker) WaitLock(ctx context.Context, ttl, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		err := l.Lock(ctx, ttl)
		if err == nil {
			return nil
		}
		if !isHeld(err) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("failed to acquire lock for key %s within %s: %w", l.key, wait, ErrNotAcquired)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(10+rand.Intn(90)) * time.Millisecond):
		}
	}
}

func isHeld(err error) bool { return errors.Is(err, ErrNotAcquired) }

// Redis is the multi-instance Keyed lock.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
	log    *logrus.Logger
}

// NewRedis holds each key for at most ttl and waits up to wait for it.
func NewRedis(client redis.UniversalClient, ttl, wait time.Duration, log *logrus.Logger) *Redis {
	if wait <= 0 {
		wait = defaultWait
	}
	return &Redis{client: client, prefix: "lock:loan:", ttl: ttl, wait: wait, log: log}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	lk := NewLocker(r.client, r.prefix+key, id.NewID32())
	if err := lk.WaitLock(ctx, r.ttl, r.wait); err != nil {
		return nil, err
	}
	return func() {
		// the key expires on its own if this fails
		if err := lk.Unlock(context.Background()); err != nil {
			r.log.WithField("key", key).WithError(err).Warn("release loan lock")
		}
	}, nil
}
