package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"microfinance-payments/internal/domain/intent"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls   int
	expired []intent.Intent
	err     error
}

func (f *fakeSweeper) ExpireStale(ctx context.Context) ([]intent.Intent, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("sweep without deadline")
	}
	return f.expired, f.err
}

func TestRunOnce_ReportsExpired(t *testing.T) {
	logger, hook := test.NewNullLogger()
	fs := &fakeSweeper{expired: []intent.Intent{{CheckoutRequestID: "a"}, {CheckoutRequestID: "b"}}}
	sw, err := NewExpirySweep("@every 1m", fs, time.Second, logger)
	require.NoError(t, err)

	assert.Equal(t, 2, sw.RunOnce(context.Background()))
	assert.Equal(t, 1, fs.calls)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 2, hook.LastEntry().Data["count"])
}

func TestRunOnce_LogsFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	fs := &fakeSweeper{err: errors.New("db down")}
	sw, err := NewExpirySweep("@every 1m", fs, time.Second, logger)
	require.NoError(t, err)

	assert.Equal(t, 0, sw.RunOnce(context.Background()))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestNewExpirySweep_InvalidSpec(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := NewExpirySweep("every minute please", &fakeSweeper{}, time.Second, logger)
	require.Error(t, err)
}

func TestStartStop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sw, err := NewExpirySweep("@every 1h", &fakeSweeper{}, time.Second, logger)
	require.NoError(t, err)

	sw.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sw.Stop(ctx)
	assert.NoError(t, ctx.Err())
}
