package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/observability"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store"
)

// Sweeper periodically deletes every session key whose timestamp has
// aged past the expiration window. The middleware also sweeps when a
// request trips expiry; the sweeper catches keys of accounts that simply
// stopped sending requests.
type Sweeper struct {
	store      store.Store
	expiration time.Duration
	interval   time.Duration
	logger     *observability.Logger
	metrics    *observability.Metrics

	cron *cron.Cron
	now  func() time.Time
}

// NewSweeper creates a sweeper that runs every interval. An expiration of
// zero disables sweeping entirely, matching a validator that never
// expires keys. Metrics may be nil.
func NewSweeper(s store.Store, expiration, interval time.Duration, logger *observability.Logger, metrics *observability.Metrics) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:      s,
		expiration: expiration,
		interval:   interval,
		logger:     logger,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the periodic sweep. No-op when expiration is disabled.
func (s *Sweeper) Start() error {
	if s.expiration == 0 {
		s.logger.Info("key sweeper disabled: no expiration window configured")
		return nil
	}
	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return fmt.Errorf("scheduling key sweep: %w", err)
	}
	s.cron.Start()
	s.logger.WithFields(map[string]interface{}{
		"interval":   s.interval.String(),
		"expiration": s.expiration.String(),
	}).Info("key sweeper started")
	return nil
}

// Stop halts the sweep schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("key sweeper stopped")
}

// Sweep runs one pass immediately, outside the schedule
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.expiration)
	removed, err := s.store.DeleteExpiredKeys(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 && s.metrics != nil {
		s.metrics.KeysExpiredTotal.Add(float64(removed))
	}
	return removed, nil
}

func (s *Sweeper) sweep() {
	defer observability.RecoverPanic(s.logger, "key sweeper")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.Sweep(ctx)
	if err != nil {
		s.logger.WithError(err).Error("key sweep failed")
		return
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("swept expired session keys")
	}
}
