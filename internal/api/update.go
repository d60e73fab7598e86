package api

import (
	"context"
	"time"

	"github.com/warpdl/ttcsync/internal/settings"
)

// TriggerUpdate starts a background update. It returns false with a nil
// error when an update is already running, and the configuration error
// when an update could not start.
func (a *Api) TriggerUpdate(ctx context.Context) (bool, error) {
	if err := a.updater.CheckConfigured(ctx); err != nil {
		return false, err
	}
	started := a.updater.Trigger(a.ctx)
	if started {
		a.log.Info("api: manual update triggered")
	}
	return started, nil
}

// UpdateNow runs an update and waits for it.
func (a *Api) UpdateNow(ctx context.Context) error {
	return a.updater.Run(ctx)
}

func (a *Api) SetRegion(ctx context.Context, region string) error {
	r, err := settings.ParseRegion(region)
	if err != nil {
		return err
	}
	return a.store.SetRegion(ctx, r)
}

func (a *Api) SetInterval(ctx context.Context, seconds int64) error {
	return a.store.SetUpdateInterval(ctx, time.Duration(seconds)*time.Second)
}
