// Package poller drives periodic snapshot fetches for one client session and
// filters out responses that no longer belong to it.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/semaphore"
)

// DefaultInterval is the polling cadence
const DefaultInterval = 2 * time.Second

// FetchFunc fetches and applies one snapshot for sessionID. Errors are logged
// by the scheduler and never stop the polling loop.
type FetchFunc func(ctx context.Context, sessionID string) error

// Scheduler issues one fetch immediately on Start and then one per interval
// until Stop. At most one fetch runs at a time.
type Scheduler struct {
	clock    quartz.Clock
	interval time.Duration
	fetch    FetchFunc
	logger   *log.Logger
	inflight *semaphore.Weighted

	mu  sync.Mutex
	run *run
}

type run struct {
	ctx     context.Context
	cancel  context.CancelFunc
	session string
}

// Option configures a Scheduler
type Option func(*Scheduler)

func WithClock(clock quartz.Clock) Option {
	return func(s *Scheduler) { s.clock = clock }
}

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Scheduler) { s.logger = logger.WithPrefix("poller") }
}

// NewScheduler creates a stopped scheduler
func NewScheduler(fetch FetchFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:    quartz.NewReal(),
		interval: DefaultInterval,
		fetch:    fetch,
		logger:   log.Default().WithPrefix("poller"),
		inflight: semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start polls sessionID. Any previous run is stopped before the new ticker is
// registered, so switching sessions never leaves two tickers alive. The first
// fetch runs synchronously and waits for any fetch still in flight from a
// previous run to finish.
func (s *Scheduler) Start(ctx context.Context, sessionID string) {
	s.mu.Lock()
	s.stopLocked()
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{ctx: runCtx, cancel: cancel, session: sessionID}
	s.run = r
	s.clock.TickerFunc(runCtx, s.interval, func() error {
		s.tryTick(r)
		return nil
	}, "poller", "tick")
	s.mu.Unlock()

	s.logger.Debug("Polling started", "session", sessionID, "interval", s.interval)
	s.tickAfterInflight(r)
}

// Stop cancels the current run. It is safe to call when not running, and it
// does not wait for an in-flight fetch, so it may be called from inside one.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.run == nil {
		return
	}
	s.logger.Debug("Polling stopped", "session", s.run.session)
	s.run.cancel()
	s.run = nil
}

// Refresh issues an out-of-band fetch for the current run, queued behind any
// fetch already in flight.
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	r := s.run
	s.mu.Unlock()
	if r == nil {
		return
	}
	s.tickAfterInflight(r)
}

// Running reports whether a run is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}

// Session returns the session being polled, or "" when stopped
func (s *Scheduler) Session() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return ""
	}
	return s.run.session
}

// tryTick is the scheduled path: a tick that finds a fetch in flight is skipped.
func (s *Scheduler) tryTick(r *run) {
	if r.ctx.Err() != nil {
		return
	}
	if !s.inflight.TryAcquire(1) {
		s.logger.Debug("Skipping tick, fetch in flight", "session", r.session)
		return
	}
	defer s.inflight.Release(1)
	s.doFetch(r)
}

func (s *Scheduler) tickAfterInflight(r *run) {
	if err := s.inflight.Acquire(r.ctx, 1); err != nil {
		return
	}
	defer s.inflight.Release(1)
	s.doFetch(r)
}

func (s *Scheduler) doFetch(r *run) {
	if r.ctx.Err() != nil {
		return
	}
	if err := s.fetch(r.ctx, r.session); err != nil && r.ctx.Err() == nil {
		s.logger.Warn("Fetch failed", "session", r.session, "error", err)
	}
}
