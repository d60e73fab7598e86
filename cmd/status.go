package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"
	"github.com/warpdl/ttcsync/cmd/common"
	sharedCommon "github.com/warpdl/ttcsync/common"
)

func status(ctx *cli.Context) error {
	if ctx.Args().Present() {
		return common.PrintErrWithHelp(ctx, fmt.Errorf("unknown command: %s", ctx.Args().First()))
	}
	b, err := newBackend(context.Background(), nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "status", "connect", err)
		return nil
	}
	defer b.Close()

	st, err := b.Status(context.Background())
	if err != nil {
		common.PrintRuntimeErr(ctx, "status", "get", err)
		return nil
	}
	printStatus(st)
	return nil
}

func lastUpdatedText(st *sharedCommon.StatusResult) string {
	if !st.HasLastUpdate {
		return "Never"
	}
	return humanize.Time(st.LastUpdate)
}

func printStatus(st *sharedCommon.StatusResult) {
	region := st.Region
	if region == "" {
		region = "not set"
	}
	dest := st.Destination
	if dest == "" {
		dest = "not set"
	}
	fmt.Printf("Region:       %s\n", region)
	fmt.Printf("Last update:  %s\n", lastUpdatedText(st))
	fmt.Printf("Destination:  %s\n", dest)
	fmt.Printf("Interval:     %s\n", time.Duration(st.UpdateInterval)*time.Second)
	if st.Updating {
		fmt.Println("Updating:     yes")
	}
	if st.Searching {
		fmt.Println("Searching:    yes")
	}
	if st.LastError != "" {
		fmt.Printf("Last error:   %s (%s)\n", st.LastError, humanize.Time(st.LastAttempt))
	}
	if st.NeedsConfiguration {
		fmt.Println()
		if st.Destination == "" {
			fmt.Println(`Run "ttcsync destination search" to locate the TamrielTradeCentre folder.`)
		}
		if st.Region == "" {
			fmt.Println(`Run "ttcsync region <us|eu>" to choose your megaserver.`)
		}
	}
}
