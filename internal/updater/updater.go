// Package updater downloads the Tamriel Trade Centre price table and
// extracts it into the destination folder. At most one update runs at a
// time; every entry point goes through the same busy flag.
package updater

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/ttcsync/internal/secscope"
	"github.com/warpdl/ttcsync/internal/settings"
	"github.com/warpdl/ttcsync/pkg/logger"
)

const (
	DefaultTimeout = 5 * time.Minute
	MaxArchiveSize = 256 << 20
)

// Store is the part of the settings store the pipeline uses.
type Store interface {
	Region(ctx context.Context) (settings.Region, error)
	Destination(ctx context.Context) (*secscope.Handle, error)
	SetDestination(ctx context.Context, h *secscope.Handle) error
	SetLastUpdate(ctx context.Context, t time.Time) error
}

// State is published when an attempt starts and when it finishes.
type State struct {
	Updating    bool      `json:"updating"`
	LastAttempt time.Time `json:"lastAttempt,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
}

type Options struct {
	Client *http.Client
	// ServiceDomain overrides DefaultServiceDomain.
	ServiceDomain string
	// Endpoint overrides EndpointURL entirely (tests).
	Endpoint func(settings.Region) (string, error)
	// StageFs and StageDir hold the downloaded archive until it is
	// extracted. StageFs defaults to the OS filesystem, StageDir to a
	// directory under os.TempDir.
	StageFs  afero.Fs
	StageDir string
	// DestFs is the filesystem the resolved destination path lives on.
	DestFs    afero.Fs
	Timeout   time.Duration
	UserAgent string
	Now       func() time.Time
	Log       logger.Logger
	// OnState observes every State change.
	OnState func(State)
	// Progress is called while the archive downloads. total is -1 when
	// the server sent no length.
	Progress func(read, total int64)
}

type Updater struct {
	store    Store
	resolver secscope.Resolver
	opts     Options
	log      logger.Logger

	busy atomic.Bool
	wg   sync.WaitGroup

	mu    sync.Mutex
	state State
}

func New(store Store, resolver secscope.Resolver, opts Options) *Updater {
	if opts.Client == nil {
		opts.Client = &http.Client{CheckRedirect: RedirectPolicy(DefaultMaxRedirects)}
	}
	if opts.Endpoint == nil {
		domain := opts.ServiceDomain
		opts.Endpoint = func(r settings.Region) (string, error) {
			return EndpointURL(domain, r)
		}
	}
	if opts.StageFs == nil {
		opts.StageFs = afero.NewOsFs()
	}
	if opts.StageDir == "" {
		opts.StageDir = filepath.Join(os.TempDir(), "ttcsync-staging")
	}
	if opts.DestFs == nil {
		opts.DestFs = afero.NewOsFs()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ttcsync"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	l := opts.Log
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Updater{store: store, resolver: resolver, opts: opts, log: l}
}

func (u *Updater) acquire() bool {
	return u.busy.CompareAndSwap(false, true)
}

func (u *Updater) release() {
	u.busy.Store(false)
}

// Updating reports whether an attempt is in flight.
func (u *Updater) Updating() bool {
	return u.busy.Load()
}

// State returns the most recently published state.
func (u *Updater) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Trigger starts an update in the background and returns false without
// side effects if one is already running. ctx bounds the attempt, so it
// must outlive the caller's request.
func (u *Updater) Trigger(ctx context.Context) bool {
	if !u.acquire() {
		return false
	}
	u.wg.Add(1)
	safeGo(u.log, &u.wg, "update", func(r interface{}) {
		u.publish(State{LastAttempt: u.State().LastAttempt, LastError: fmt.Sprintf("internal error: %v", r)})
	}, func() {
		defer u.release()
		u.attempt(ctx)
	})
	return true
}

// Run performs an update synchronously. It returns ErrUpdateInProgress
// immediately if another attempt holds the busy flag.
func (u *Updater) Run(ctx context.Context) error {
	if !u.acquire() {
		return ErrUpdateInProgress
	}
	defer u.release()
	return u.attempt(ctx)
}

// Wait blocks until every attempt started by Trigger has returned.
func (u *Updater) Wait() {
	u.wg.Wait()
}

// CheckConfigured reports the first missing precondition, or nil when an
// update could run.
func (u *Updater) CheckConfigured(ctx context.Context) error {
	h, err := u.store.Destination(ctx)
	if err != nil {
		return err
	}
	if !h.Valid() {
		return ErrNoDestination
	}
	region, err := u.store.Region(ctx)
	if err != nil {
		return err
	}
	_, err = u.opts.Endpoint(region)
	return err
}

func (u *Updater) publish(s State) {
	u.mu.Lock()
	u.state = s
	u.mu.Unlock()
	if u.opts.OnState != nil {
		u.opts.OnState(s)
	}
}

func (u *Updater) attempt(ctx context.Context) error {
	started := u.opts.Now()
	prev := u.State()
	u.publish(State{Updating: true, LastAttempt: started, LastError: prev.LastError})

	err := u.pipeline(ctx)

	final := State{LastAttempt: started}
	switch {
	case err == nil:
		u.log.Info("update: price table updated in %s", u.opts.Now().Sub(started).Round(time.Millisecond))
	case errors.Is(err, ErrNotConfigured):
		final.LastError = err.Error()
		u.log.Warning("update: skipped: %v", err)
	default:
		final.LastError = err.Error()
		u.log.Error("update failed: %v", err)
	}
	u.publish(final)
	return err
}
