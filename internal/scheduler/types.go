package scheduler

import (
	"context"
	"time"
)

// Source provides the values the due check reads on every tick.
// *settings.Store satisfies it.
type Source interface {
	LastUpdate(ctx context.Context) (time.Time, bool, error)
	UpdateInterval(ctx context.Context) (time.Duration, error)
}

// TriggerFunc starts an update without waiting for it. It reports whether
// an attempt was actually started.
type TriggerFunc func(ctx context.Context) bool

// State is the scheduler's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateArmed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}
