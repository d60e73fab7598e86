// Package api implements the operations behind the ttcsync CLI and the
// daemon's JSON-RPC methods, and turns component events into push
// notifications.
package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/ttcsync/common"
	"github.com/warpdl/ttcsync/internal/finder"
	"github.com/warpdl/ttcsync/internal/secscope"
	"github.com/warpdl/ttcsync/internal/settings"
	"github.com/warpdl/ttcsync/internal/updater"
	"github.com/warpdl/ttcsync/pkg/logger"
)

var (
	ErrSearchInProgress = errors.New("a destination search is already running")
	ErrNotDirectory     = errors.New("destination must be a directory")
)

// Notifier delivers a push notification to connected clients.
type Notifier func(method string, params any)

type Config struct {
	Store    *settings.Store
	Updater  *updater.Updater
	Resolver secscope.Resolver
	// Fs is searched by SearchDestination. Defaults to the OS filesystem.
	Fs afero.Fs
	// DefaultRoots supplies search roots when the caller gives none.
	DefaultRoots func() []string

	Version   string
	Commit    string
	BuildType string
	Log       logger.Logger
}

type Api struct {
	ctx       context.Context
	store     *settings.Store
	updater   *updater.Updater
	resolver  secscope.Resolver
	fs        afero.Fs
	roots     func() []string
	version   common.VersionResult
	log       logger.Logger
	searching atomic.Bool

	mu          sync.RWMutex
	notify      Notifier
	unsubscribe func()
}

// NewApi returns an Api. ctx bounds updates started by TriggerUpdate and
// should live as long as the process.
func NewApi(ctx context.Context, cfg Config) *Api {
	a := &Api{
		ctx:      ctx,
		store:    cfg.Store,
		updater:  cfg.Updater,
		resolver: cfg.Resolver,
		fs:       cfg.Fs,
		roots:    cfg.DefaultRoots,
		version: common.VersionResult{
			Version:   cfg.Version,
			Commit:    cfg.Commit,
			BuildType: cfg.BuildType,
		},
		log: cfg.Log,
	}
	if a.fs == nil {
		a.fs = afero.NewOsFs()
	}
	if a.roots == nil {
		a.roots = finder.DefaultRoots
	}
	if a.log == nil {
		a.log = logger.NewNopLogger()
	}
	a.unsubscribe = a.store.Subscribe(a.onSettingsChange)
	return a
}

// SetNotifier installs the push channel. A nil Notifier drops events.
func (a *Api) SetNotifier(n Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notify = n
}

func (a *Api) push(method string, params any) {
	a.mu.RLock()
	n := a.notify
	a.mu.RUnlock()
	if n != nil {
		n(method, params)
	}
}

// Close detaches the Api from the settings store.
func (a *Api) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	return nil
}

func (a *Api) Version() *common.VersionResult {
	v := a.version
	return &v
}

// OnUpdaterState forwards updater state changes to clients.
func (a *Api) OnUpdaterState(s updater.State) {
	a.push(common.NotifyUpdaterState, &common.UpdaterStateNotification{
		Updating:    s.Updating,
		LastAttempt: s.LastAttempt,
		LastError:   s.LastError,
	})
}

// OnTick forwards the scheduler's time-advanced signal, so clients can
// refresh relative "last updated" text.
func (a *Api) OnTick(now time.Time) {
	a.push(common.NotifySchedulerTick, &common.TickNotification{Now: now})
}

func (a *Api) onSettingsChange(c settings.Change) {
	n := &common.SettingsChangedNotification{Key: c.Key, Deleted: c.Deleted}
	if c.Key == settings.KeyLastUpdate && !c.Deleted {
		if t, err := time.Parse(time.RFC3339Nano, c.Value); err == nil {
			n.LastUpdate = t
		}
	}
	a.push(common.NotifySettingsChanged, n)
}
