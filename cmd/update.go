package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/warpdl/ttcsync/cmd/common"
	sharedCommon "github.com/warpdl/ttcsync/common"
	"github.com/warpdl/ttcsync/internal/updater"
	"github.com/warpdl/ttcsync/pkg/ttccli"
)

var updateFlags = []cli.Flag{
	cli.DurationFlag{
		Name:  "timeout",
		Usage: "time limit for the download when running without the daemon",
		Value: updater.DefaultTimeout,
	},
	cli.StringFlag{
		Name:  "proxy",
		Usage: "proxy URL when running without the daemon",
	},
	cli.BoolFlag{
		Name:  "no-wait",
		Usage: "return as soon as the daemon has started the update",
	},
}

// daemonUpdateGrace is added to the download timeout while waiting for
// the daemon to report completion.
const daemonUpdateGrace = time.Minute

func update(ctx *cli.Context) error {
	if daemonRunning() {
		return updateViaDaemon(ctx)
	}
	return updateLocal(ctx)
}

func updateViaDaemon(ctx *cli.Context) error {
	wctx, cancel := context.WithTimeout(context.Background(), ctx.Duration("timeout")+daemonUpdateGrace)
	defer cancel()

	c, err := dialDaemon(wctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "update", "connect", err)
		return nil
	}
	defer c.Close()

	finished := make(chan sharedCommon.UpdaterStateNotification, 1)
	defer c.OnNotify(func(ev ttccli.Event) {
		if ev.Method != sharedCommon.NotifyUpdaterState {
			return
		}
		var n sharedCommon.UpdaterStateNotification
		if ev.Decode(&n) != nil || n.Updating {
			return
		}
		select {
		case finished <- n:
		default:
		}
	})()

	started, err := c.TriggerUpdate(wctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "update", "trigger", err)
		return nil
	}
	if !started {
		fmt.Println("An update is already running, waiting for it...")
	}
	if ctx.Bool("no-wait") {
		fmt.Println("Update started")
		return nil
	}

	select {
	case n := <-finished:
		if n.LastError != "" {
			common.PrintRuntimeErr(ctx, "update", "run", errors.New(n.LastError))
			return nil
		}
		fmt.Println("Price table updated")
	case <-c.Done():
		common.PrintRuntimeErr(ctx, "update", "wait", ttccli.ErrDisconnected)
	case <-wctx.Done():
		common.PrintRuntimeErr(ctx, "update", "wait", wctx.Err())
	}
	return nil
}

func updateLocal(ctx *cli.Context) error {
	p := mpb.New(mpb.WithWidth(64), mpb.WithRefreshRate(30*time.Millisecond))
	bar := common.InitBar(p, "Downloading", 0)
	totalSet := false

	b, err := newLocalBackend(context.Background(), &componentOptions{
		Timeout: ctx.Duration("timeout"),
		Proxy:   ctx.String("proxy"),
		Progress: func(read, total int64) {
			if !totalSet && total > 0 {
				bar.SetTotal(total, false)
				totalSet = true
			}
			bar.SetCurrent(read)
		},
	})
	if err != nil {
		bar.Abort(true)
		p.Wait()
		common.PrintRuntimeErr(ctx, "update", "init", err)
		return nil
	}
	defer b.Close()

	_, err = b.TriggerUpdate(context.Background())
	if err != nil {
		bar.Abort(true)
		p.Wait()
		common.PrintRuntimeErr(ctx, "update", "run", err)
		return nil
	}
	bar.SetTotal(-1, true)
	p.Wait()
	fmt.Println("Price table updated")
	return nil
}
