package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Scheduler defaults.
const (
	// DefaultInterval is the periodic sync tick while online.
	DefaultInterval = 30 * time.Second

	// DefaultMaxRetries is how many backoff retries follow consecutive
	// failures before the scheduler gives up until the next trigger.
	DefaultMaxRetries = 5

	// DefaultMaxBackoff caps the exponential retry delay.
	DefaultMaxBackoff = 60 * time.Second
)

// Syncer runs one full sync. Satisfied by *Engine.
type Syncer interface {
	SyncAll(ctx context.Context) (Result, error)
}

// Scheduler decides when sync runs: a periodic tick while online,
// reconnect transitions, explicit wakes, and exponential backoff
// retries after failures. All timers suspend while offline.
//
// Triggers are dropped, never queued, while a sync is in flight; the
// scheduler is the only cross-operation lock in the system.
type Scheduler struct {
	syncer   Syncer
	status   *Tracker
	conn     ConnectivitySource
	clock    Clock
	interval time.Duration

	maxRetries int
	maxBackoff time.Duration
	retries    int

	wake chan string
}

// NewScheduler creates a Scheduler with the default interval and
// backoff policy.
func NewScheduler(syncer Syncer, status *Tracker, conn ConnectivitySource, clock Clock) *Scheduler {
	return &Scheduler{
		syncer:     syncer,
		status:     status,
		conn:       conn,
		clock:      clock,
		interval:   DefaultInterval,
		maxRetries: DefaultMaxRetries,
		maxBackoff: DefaultMaxBackoff,
		wake:       make(chan string),
	}
}

// Wake requests an immediate sync, e.g. when the application comes to
// the foreground or a user hits "sync now". The request is dropped if
// the scheduler is busy.
func (s *Scheduler) Wake(reason string) {
	select {
	case s.wake <- reason:
	default:
		slog.Debug("wake dropped, scheduler busy", "reason", reason)
	}
}

// Run drives the scheduler until ctx is cancelled. It syncs once at
// startup if online, then reacts to ticks, connectivity transitions,
// wakes, and retry timers. Sync runs execute on this goroutine, so a
// trigger arriving mid-sync finds nobody listening and is dropped.
func (s *Scheduler) Run(ctx context.Context) {
	changes := s.conn.Changes()

	online := s.conn.Online()
	s.status.SetOnline(online)

	var tick, retry <-chan time.Time
	if online {
		retry = s.afterSync(ctx, "startup")
		tick = s.clock.After(s.interval)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case online := <-changes:
			s.status.SetOnline(online)
			if !online {
				// Suspend all timers while offline; retry state is
				// left as-is per the no-change-while-offline rule.
				tick, retry = nil, nil
				continue
			}
			slog.Info("back online, syncing")
			retry = s.afterSync(ctx, "reconnect")
			tick = s.clock.After(s.interval)

		case <-tick:
			retry = s.afterSync(ctx, "periodic")
			tick = s.clock.After(s.interval)

		case <-retry:
			retry = s.afterSync(ctx, "retry")

		case reason := <-s.wake:
			retry = s.afterSync(ctx, reason)
		}
	}
}

// afterSync runs one sync attempt and arms the retry timer if the
// attempt failed.
func (s *Scheduler) afterSync(ctx context.Context, reason string) <-chan time.Time {
	if d := s.syncOnce(ctx, reason); d > 0 {
		return s.clock.After(d)
	}
	return nil
}

// syncOnce runs one sync attempt and returns the backoff delay before
// the next retry, or 0 if no retry should be scheduled. This is the
// whole retry state machine; Run only supplies the timers.
func (s *Scheduler) syncOnce(ctx context.Context, reason string) time.Duration {
	if !s.conn.Online() {
		slog.Debug("sync trigger ignored while offline", "reason", reason)
		return 0
	}

	_, err := s.syncer.SyncAll(ctx)
	switch {
	case err == nil:
		s.retries = 0
		return 0

	case errors.Is(err, ErrSyncInProgress), errors.Is(err, ErrOffline):
		// Dropped trigger, not a failure: backoff state is untouched.
		slog.Debug("sync trigger dropped", "reason", reason, "cause", err)
		return 0

	default:
		delay := backoffDelay(s.retries, s.maxBackoff)
		s.retries++
		if s.retries > s.maxRetries {
			// Give up on automatic retries; the next periodic tick or
			// external trigger starts fresh.
			slog.Warn("sync retries exhausted", "reason", reason, "error", err)
			s.retries = 0
			return 0
		}
		slog.Warn("sync failed, will retry",
			"reason", reason, "attempt", s.retries, "delay", delay, "error", err)
		return delay
	}
}

// backoffDelay returns min(2^retries seconds, max). The first failure
// retries after 1s, then 2s, 4s, 8s, 16s.
func backoffDelay(retries int, max time.Duration) time.Duration {
	if retries > 30 {
		return max
	}
	d := time.Duration(1<<uint(retries)) * time.Second
	if d > max {
		return max
	}
	return d
}
