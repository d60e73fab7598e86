package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
	"github.com/warpdl/ttcsync/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

// currentBuildArgs is set by Execute for components that report the version.
var currentBuildArgs BuildArgs

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	app := cli.App{
		Name:                  "ttcsync",
		HelpName:              "ttcsync",
		Usage:                 "Keeps Tamriel Trade Centre price tables up to date.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "ttcsync <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: []cli.Command{
			{
				Name:               "daemon",
				Usage:              "run the background updater",
				Description:        DaemonDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             daemon,
				Flags:              daemonFlags,
			},
			{
				Name:               "stop-daemon",
				Usage:              "stop the running daemon",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             stopDaemon,
			},
			{
				Name:               "status",
				Aliases:            []string{"s"},
				Usage:              "show region, last update and destination",
				Description:        StatusDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             status,
			},
			{
				Name:               "update",
				Aliases:            []string{"u"},
				Usage:              "download the price table now",
				Description:        UpdateDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             update,
				Flags:              updateFlags,
			},
			{
				Name:               "region",
				Usage:              "show or change the game region (us, eu)",
				ArgsUsage:          "[us|eu]",
				Description:        RegionDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             region,
			},
			{
				Name:               "interval",
				Usage:              "show or change the update interval",
				ArgsUsage:          "[duration]",
				Description:        IntervalDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             interval,
			},
			{
				Name:               "destination",
				Aliases:            []string{"dest"},
				Usage:              "manage the TamrielTradeCentre add-on folder",
				Description:        DestinationDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Subcommands: []cli.Command{
					{
						Name:      "search",
						Usage:     "search for the add-on folder",
						ArgsUsage: "[root...]",
						Action:    destinationSearch,
					},
					{
						Name:      "set",
						Usage:     "use the given folder",
						ArgsUsage: "<path>",
						Action:    destinationSet,
					},
					{
						Name:   "clear",
						Usage:  "forget the folder",
						Action: destinationClear,
					},
					{
						Name:   "show",
						Usage:  "print the folder",
						Action: destinationShow,
					},
				},
			},
			{
				Name:               "watch",
				Aliases:            []string{"w"},
				Usage:              "stream daemon notifications",
				Description:        WatchDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             watch,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of ttcsync",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      status,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
