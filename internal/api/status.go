package api

import (
	"context"
	"time"

	"github.com/warpdl/ttcsync/common"
)

// Status reports what the menu used to show: region, last update,
// destination, and whether an update is running or failed.
func (a *Api) Status(ctx context.Context) (*common.StatusResult, error) {
	snap, err := a.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	st := a.updater.State()
	res := &common.StatusResult{
		Region:         string(snap.Region),
		LastUpdate:     snap.LastUpdate,
		HasLastUpdate:  snap.HasLastUpdate,
		UpdateInterval: int64(snap.UpdateInterval / time.Second),
		Updating:       a.updater.Updating(),
		Searching:      a.searching.Load(),
		LastAttempt:    st.LastAttempt,
		LastError:      st.LastError,
	}
	if snap.Destination != nil {
		res.Destination = snap.Destination.Path
	}
	res.NeedsConfiguration = snap.Region == "" || !snap.Destination.Valid()
	res.CanUpdate = !res.NeedsConfiguration && !res.Updating
	return res, nil
}
