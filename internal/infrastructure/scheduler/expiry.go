// Package scheduler runs the periodic payment-intent expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"microfinance-payments/internal/domain/intent"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Sweeper interface {
	ExpireStale(ctx context.Context) ([]intent.Intent, error)
}

type ExpirySweep struct {
	cron    *cron.Cron
	sweeper Sweeper
	timeout time.Duration
	log     *logrus.Logger
}

// NewExpirySweep schedules s on spec ("@every 1m", a cron expression...).
// A sweep still running when the next tick fires makes that tick a no-op.
func NewExpirySweep(spec string, s Sweeper, timeout time.Duration, log *logrus.Logger) (*ExpirySweep, error) {
	cl := cron.PrintfLogger(log)
	sw := &ExpirySweep{
		cron:    cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		sweeper: s,
		timeout: timeout,
		log:     log,
	}
	if _, err := sw.cron.AddFunc(spec, func() { sw.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("expiry sweep spec %q: %w", spec, err)
	}
	return sw, nil
}

func (s *ExpirySweep) Start() {
	s.log.Info("expiry sweep started")
	s.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *ExpirySweep) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("expiry sweep stopped")
}

// RunOnce performs a single sweep and returns how many intents expired.
func (s *ExpirySweep) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	expired, err := s.sweeper.ExpireStale(ctx)
	if err != nil {
		s.log.WithError(err).Error("expiry sweep failed")
	}
	if len(expired) > 0 {
		s.log.WithField("count", len(expired)).Warn("payment intents expired")
	}
	return len(expired)
}
