// Package cleanup runs the periodic sweep of expired and revoked refresh
// tokens.
package cleanup

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bankauth/internal/logging"
)

const (
	DefaultInterval      = time.Hour
	DefaultRetryInterval = 5 * time.Minute
)

// Sweeper removes stale tokens; *services.TokenService implements it.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Lease elects one sweeping replica per interval. Acquire reports whether
// the caller holds the lease for ttl.
type Lease interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
}

// Scheduler sweeps once at start and then every Interval. After a failed
// sweep it waits RetryInterval instead. It never returns sweep errors.
type Scheduler struct {
	sweeper       Sweeper
	lease         Lease
	interval      time.Duration
	retryInterval time.Duration
	log           logging.Logger
}

type Option func(*Scheduler)

func WithLease(l Lease) Option {
	return func(s *Scheduler) { s.lease = l }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithIntervals overrides the defaults; non-positive values are ignored.
func WithIntervals(interval, retry time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
		if retry > 0 {
			s.retryInterval = retry
		}
	}
}

func NewScheduler(sweeper Sweeper, opts ...Option) *Scheduler {
	s := &Scheduler{
		sweeper:       sweeper,
		lease:         NopLease{},
		interval:      DefaultInterval,
		retryInterval: DefaultRetryInterval,
		log:           logging.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("module", "cleanup")
	return s
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info(ctx, "cleanup scheduler started", "interval", s.interval.String(), "retry_interval", s.retryInterval.String())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info(context.WithoutCancel(ctx), "cleanup scheduler stopped")
			return
		case <-timer.C:
		}

		next := s.interval
		if err := s.tick(ctx); err != nil {
			if ctx.Err() != nil {
				s.log.Info(context.WithoutCancel(ctx), "cleanup scheduler stopped during sweep")
				return
			}
			s.log.Error(ctx, "sweep failed, retrying later", "error", err, "retry_in", s.retryInterval.String())
			next = s.retryInterval
		}
		timer.Reset(next)
	}
}

func (s *Scheduler) tick(ctx context.Context) error {
	held, err := s.lease.Acquire(ctx, s.interval)
	if err != nil {
		// the sweep is idempotent; a lease outage must not stop cleanup
		s.log.Warn(ctx, "sweep lease unavailable, sweeping anyway", "error", err)
	} else if !held {
		s.log.Debug(ctx, "sweep lease held by another replica")
		return nil
	}

	_, err = s.sweeper.Sweep(ctx)
	return err
}

// NopLease always grants the lease.
type NopLease struct{}

func (NopLease) Acquire(context.Context, time.Duration) (bool, error) { return true, nil }
