package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/warpdl/ttcsync/pkg/logger"
)

const (
	// DefaultTick is how often the due check runs. It must stay well below
	// the minimum update interval.
	DefaultTick = 60 * time.Second
	minTick     = time.Second
)

// Options configure a Scheduler. Zero values select defaults.
type Options struct {
	// Tick is the check period, clamped to at least one second.
	Tick time.Duration
	// Ticks replaces the internal ticker when set (tests).
	Ticks <-chan time.Time
	// Now replaces time.Now.
	Now func() time.Time
	// OnTick is called on every tick that does not trigger an update.
	OnTick func(now time.Time)
	Log    logger.Logger
}

type Scheduler struct {
	src     Source
	trigger TriggerFunc
	opts    Options
	log     logger.Logger
	state   atomic.Int32
	done    chan struct{}
}

// New returns an idle scheduler. Call Start to arm it.
func New(src Source, trigger TriggerFunc, opts Options) *Scheduler {
	if opts.Tick < minTick {
		if opts.Tick == 0 {
			opts.Tick = DefaultTick
		} else {
			opts.Tick = minTick
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	l := opts.Log
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Scheduler{
		src:     src,
		trigger: trigger,
		opts:    opts,
		log:     l,
		done:    make(chan struct{}),
	}
}

// Due reports whether an update should start. Without a previous success
// the elapsed time counts as zero, so the first update must be requested
// explicitly.
func Due(now, last time.Time, hasLast bool, interval time.Duration) bool {
	var elapsed time.Duration
	if hasLast {
		elapsed = now.Sub(last)
	}
	return elapsed > interval
}

// Start arms the scheduler and returns immediately. The loop ends when ctx
// is cancelled. Calling Start more than once has no effect.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateArmed)) {
		return
	}
	ticks := s.opts.Ticks
	var ticker *time.Ticker
	if ticks == nil {
		ticker = time.NewTicker(s.opts.Tick)
		ticks = ticker.C
	}
	go s.run(ctx, ticks, ticker)
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Done is closed once the loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) run(ctx context.Context, ticks <-chan time.Time, ticker *time.Ticker) {
	defer close(s.done)
	defer s.state.Store(int32(StateStopped))
	if ticker != nil {
		defer ticker.Stop()
	}
	s.log.Debug("scheduler: armed, tick every %s", s.opts.Tick)

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("scheduler: stopped")
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.opts.Now()
	last, hasLast, err := s.src.LastUpdate(ctx)
	if err != nil {
		s.log.Warning("scheduler: read last update: %v", err)
		return
	}
	interval, err := s.src.UpdateInterval(ctx)
	if err != nil {
		s.log.Warning("scheduler: read update interval: %v", err)
		return
	}

	if Due(now, last, hasLast, interval) {
		s.log.Info("scheduler: last update %s ago exceeds %s, updating", now.Sub(last).Round(time.Second), interval)
		if !s.trigger(ctx) {
			s.log.Debug("scheduler: update already in progress")
		}
		return
	}
	if s.opts.OnTick != nil {
		s.opts.OnTick(now)
	}
}
