package cmd

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/warpdl/ttcsync/common"
	"github.com/warpdl/ttcsync/internal/api"
	"github.com/warpdl/ttcsync/pkg/logger"
	"github.com/warpdl/ttcsync/pkg/ttccli"
)

// backend is what the commands drive: the daemon over JSON-RPC when it is
// running, otherwise the components opened in-process.
type backend interface {
	Status(ctx context.Context) (*common.StatusResult, error)
	TriggerUpdate(ctx context.Context) (bool, error)
	SetRegion(ctx context.Context, region string) error
	SetInterval(ctx context.Context, d time.Duration) error
	SearchDestination(ctx context.Context, roots []string) (string, error)
	SetDestination(ctx context.Context, path string) (string, error)
	ClearDestination(ctx context.Context) error
	Close() error
}

var (
	_ backend = (*ttccli.Client)(nil)
	_ backend = (*localBackend)(nil)
)

var (
	daemonRunning = func() bool { return ttccli.IsDaemonRunning("") }
	dialDaemon    = func(ctx context.Context) (*ttccli.Client, error) {
		c, err := ttccli.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		c.CheckVersionMismatch(ctx, os.Stderr, currentBuildArgs.Version)
		return c, nil
	}
)

// newBackend picks the daemon when it answers, else a local backend.
var newBackend = func(ctx context.Context, o *componentOptions) (backend, error) {
	if daemonRunning() {
		return dialDaemon(ctx)
	}
	return newLocalBackend(ctx, o)
}

// localBackend runs Api calls in-process. Updates run in the foreground.
type localBackend struct {
	comps *DaemonComponents
	api   *api.Api
}

func cliLogger() logger.Logger {
	if common.DebugEnabled() {
		return logger.NewDebugLogger(log.New(os.Stderr, "ttcsync: ", log.LstdFlags))
	}
	return logger.NewStandardLogger(log.New(io.Discard, "", 0))
}

func newLocalBackend(ctx context.Context, o *componentOptions) (*localBackend, error) {
	if o == nil {
		o = &componentOptions{}
	}
	comps, err := initComponents(ctx, cliLogger(), o)
	if err != nil {
		return nil, err
	}
	return &localBackend{comps: comps, api: comps.Api}, nil
}

func (b *localBackend) Status(ctx context.Context) (*common.StatusResult, error) {
	return b.api.Status(ctx)
}

// TriggerUpdate runs the update to completion; there is no daemon to
// hand it to.
func (b *localBackend) TriggerUpdate(ctx context.Context) (bool, error) {
	if err := b.api.UpdateNow(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (b *localBackend) SetRegion(ctx context.Context, region string) error {
	return b.api.SetRegion(ctx, region)
}

func (b *localBackend) SetInterval(ctx context.Context, d time.Duration) error {
	return b.api.SetInterval(ctx, int64(d/time.Second))
}

func (b *localBackend) SearchDestination(ctx context.Context, roots []string) (string, error) {
	return b.api.SearchDestination(ctx, roots)
}

func (b *localBackend) SetDestination(ctx context.Context, path string) (string, error) {
	return b.api.SetDestination(ctx, path)
}

func (b *localBackend) ClearDestination(ctx context.Context) error {
	return b.api.ClearDestination(ctx)
}

func (b *localBackend) Close() error {
	b.comps.Close()
	return nil
}
