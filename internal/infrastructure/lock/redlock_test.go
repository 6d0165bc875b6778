package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_Lock_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "test-key", "test-value")

	mock.ExpectSetNX("test-key", "test-value", 5*time.Second).SetVal(true)

	err := locker.Lock(context.Background(), 5*time.Second)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_Lock_Held(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "test-key", "test-value")

	mock.ExpectSetNX("test-key", "test-value", 5*time.Second).SetVal(false)

	err := locker.Lock(context.Background(), 5*time.Second)
	assert.True(t, errors.Is(err, ErrNotAcquired))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_Unlock_NotHolder(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "test-key", "test-value")

	mock.ExpectEval(unlockScript, []string{"test-key"}, "test-value").SetVal(int64(0))

	err := locker.Unlock(context.Background())
	assert.EqualError(t, err, "unlock failed, either lock expired or you're not the lock holder for key test-key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_AcquireRelease(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger, _ := test.NewNullLogger()
	rl := NewRedis(client, 5*time.Second, 50*time.Millisecond, logger)
	release, err := rl.Acquire(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.True(t, s.Exists("lock:loan:loan-1"))

	// a second holder times out while the first holds
	_, err = rl.Acquire(context.Background(), "loan-1")
	assert.True(t, errors.Is(err, ErrNotAcquired), "got %v", err)

	// another loan is independent
	releaseOther, err := rl.Acquire(context.Background(), "loan-2")
	require.NoError(t, err)
	releaseOther()

	release()
	assert.False(t, s.Exists("lock:loan:loan-1"))

	release2, err := rl.Acquire(context.Background(), "loan-1")
	require.NoError(t, err)
	release2()
}

func TestRedis_ReleaseAfterExpiryWarnsOnServiceLogger(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger, hook := test.NewNullLogger()
	rl := NewRedis(client, 5*time.Second, 50*time.Millisecond, logger)
	release, err := rl.Acquire(context.Background(), "loan-1")
	require.NoError(t, err)

	s.Del("lock:loan:loan-1")
	release()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "release loan lock", entry.Message)
	assert.Equal(t, "loan-1", entry.Data["key"])
}
