package cmd

import (
	"log"
	"os"

	"github.com/urfave/cli"
	"github.com/warpdl/ttcsync/cmd/common"
	sharedCommon "github.com/warpdl/ttcsync/common"
	"github.com/warpdl/ttcsync/internal/scheduler"
	"github.com/warpdl/ttcsync/internal/updater"
	"github.com/warpdl/ttcsync/pkg/logger"
)

var daemonFlags = []cli.Flag{
	cli.DurationFlag{
		Name:  "tick",
		Usage: "how often to check whether an update is due",
		Value: scheduler.DefaultTick,
	},
	cli.DurationFlag{
		Name:  "timeout",
		Usage: "time limit for one price table download",
		Value: updater.DefaultTimeout,
	},
	cli.StringFlag{
		Name:  "proxy",
		Usage: "proxy URL (http, https or socks5), default from the environment",
	},
	cli.StringFlag{
		Name:  "log-file",
		Usage: "also write logs to this file",
	},
	cli.IntFlag{
		Name:  "port",
		Usage: "loopback port for the JSON-RPC endpoint",
		Value: sharedCommon.RPCPort(),
	},
}

// daemonLogger logs to stderr, and to --log-file when given.
func daemonLogger(logFile string) (logger.Logger, error) {
	std := log.New(os.Stderr, "ttcsync: ", log.LstdFlags)
	var console logger.Logger = logger.NewStandardLogger(std)
	if sharedCommon.DebugEnabled() {
		console = logger.NewDebugLogger(std)
	}
	if logFile == "" {
		return console, nil
	}
	fl, err := logger.NewFileLogger(logFile, sharedCommon.DebugEnabled())
	if err != nil {
		return nil, err
	}
	return logger.NewMultiLogger(console, fl), nil
}

func daemon(ctx *cli.Context) error {
	l, err := daemonLogger(ctx.String("log-file"))
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "log_file", err)
		return nil
	}
	defer l.Close()

	sctx, cancel := setupShutdownHandler()
	defer cancel()

	comps, err := initDaemonComponents(sctx, l, &componentOptions{
		Tick:    ctx.Duration("tick"),
		Timeout: ctx.Duration("timeout"),
		Proxy:   ctx.String("proxy"),
		Port:    ctx.Int("port"),
	})
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "init", err)
		return nil
	}
	defer comps.Close()

	if err := comps.Server.Listen(); err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "listen", err)
		return nil
	}
	if err := WritePidFile(comps.ConfigDir); err != nil {
		l.Warning("daemon: write pid file: %v", err)
	}
	defer RemovePidFile(comps.ConfigDir)

	comps.Scheduler.Start(sctx)
	if err := comps.Server.Start(sctx); err != nil {
		cancel()
		common.PrintRuntimeErr(ctx, "daemon", "serve", err)
	}
	return nil
}
