package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"
	"github.com/warpdl/ttcsync/cmd/common"
	sharedCommon "github.com/warpdl/ttcsync/common"
	"github.com/warpdl/ttcsync/pkg/ttccli"
)

var errDaemonNotRunning = errors.New(`daemon is not running, start it with "ttcsync daemon"`)

func watch(ctx *cli.Context) error {
	if !daemonRunning() {
		common.PrintRuntimeErr(ctx, "watch", "connect", errDaemonNotRunning)
		return nil
	}
	sctx, cancel := setupShutdownHandler()
	defer cancel()

	c, err := dialDaemon(sctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "watch", "connect", err)
		return nil
	}
	defer c.Close()

	fmt.Println("Watching daemon notifications, press Ctrl+C to stop")
	err = c.Watch(sctx, func(ev ttccli.Event) {
		fmt.Printf("[%s] %s\n", time.Now().Format(time.TimeOnly), describeEvent(ev))
	})
	if errors.Is(err, ttccli.ErrDisconnected) {
		common.PrintRuntimeErr(ctx, "watch", "listen", err)
	}
	return nil
}

// describeEvent renders a notification as one line of text.
func describeEvent(ev ttccli.Event) string {
	switch ev.Method {
	case sharedCommon.NotifyUpdaterState:
		var n sharedCommon.UpdaterStateNotification
		if ev.Decode(&n) != nil {
			break
		}
		switch {
		case n.Updating:
			return "update started"
		case n.LastError != "":
			return "update failed: " + n.LastError
		default:
			return "update finished"
		}
	case sharedCommon.NotifySearchState:
		var n sharedCommon.SearchStateNotification
		if ev.Decode(&n) != nil {
			break
		}
		switch {
		case n.Searching:
			return "searching for the TamrielTradeCentre folder"
		case n.Error != "":
			return "search failed: " + n.Error
		default:
			return "found " + n.Path
		}
	case sharedCommon.NotifySettingsChanged:
		var n sharedCommon.SettingsChangedNotification
		if ev.Decode(&n) != nil {
			break
		}
		if n.Deleted {
			return fmt.Sprintf("setting %s cleared", n.Key)
		}
		if !n.LastUpdate.IsZero() {
			return "price table updated " + humanize.Time(n.LastUpdate)
		}
		return fmt.Sprintf("setting %s changed", n.Key)
	case sharedCommon.NotifySchedulerTick:
		return "tick"
	}
	return fmt.Sprintf("%s %s", ev.Method, string(ev.Params))
}
