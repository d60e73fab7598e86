package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli"
	"github.com/warpdl/ttcsync/cmd/common"
)

func region(ctx *cli.Context) error {
	b, err := newBackend(context.Background(), nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "region", "connect", err)
		return nil
	}
	defer b.Close()

	if !ctx.Args().Present() {
		st, err := b.Status(context.Background())
		if err != nil {
			common.PrintRuntimeErr(ctx, "region", "get", err)
			return nil
		}
		if st.Region == "" {
			fmt.Println("not set")
			return nil
		}
		fmt.Println(st.Region)
		return nil
	}

	r := strings.ToUpper(ctx.Args().First())
	if err := b.SetRegion(context.Background(), r); err != nil {
		common.PrintRuntimeErr(ctx, "region", "set", err)
		return nil
	}
	fmt.Printf("Region set to %s\n", r)
	return nil
}

func interval(ctx *cli.Context) error {
	b, err := newBackend(context.Background(), nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "interval", "connect", err)
		return nil
	}
	defer b.Close()

	if !ctx.Args().Present() {
		st, err := b.Status(context.Background())
		if err != nil {
			common.PrintRuntimeErr(ctx, "interval", "get", err)
			return nil
		}
		fmt.Println(time.Duration(st.UpdateInterval) * time.Second)
		return nil
	}

	d, err := parseInterval(ctx.Args().First())
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	if err := b.SetInterval(context.Background(), d); err != nil {
		common.PrintRuntimeErr(ctx, "interval", "set", err)
		return nil
	}
	fmt.Printf("Update interval set to %s\n", d)
	return nil
}

var errBadInterval = errors.New("interval must be a duration like 90m or 3h")

// parseInterval accepts Go durations, or a bare number of hours.
func parseInterval(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if hours, err := strconv.ParseFloat(s, 64); err == nil && hours > 0 {
		return time.Duration(hours * float64(time.Hour)), nil
	}
	return 0, errBadInterval
}
