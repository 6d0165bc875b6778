// Package lock serializes work per key (a loan id). Different keys never
// contend with each other.
package lock

import (
	"context"
	"errors"
	"time"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Keyed hands out one holder per key at a time.
type Keyed interface {
	// Acquire blocks until key is held or ctx/the backend gives up.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

const defaultWait = 10 * time.Second
