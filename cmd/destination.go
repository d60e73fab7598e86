package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli"
	"github.com/warpdl/ttcsync/cmd/common"
)

func destinationSearch(ctx *cli.Context) error {
	b, err := newBackend(context.Background(), nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "destination", "connect", err)
		return nil
	}
	defer b.Close()

	fmt.Println("Searching for the TamrielTradeCentre folder...")
	path, err := b.SearchDestination(context.Background(), ctx.Args())
	if err != nil {
		common.PrintRuntimeErr(ctx, "destination", "search", err)
		return nil
	}
	fmt.Printf("Found %s\n", path)
	return nil
}

func destinationSet(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no path provided"))
	}
	b, err := newBackend(context.Background(), nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "destination", "connect", err)
		return nil
	}
	defer b.Close()

	path, err := b.SetDestination(context.Background(), ctx.Args().First())
	if err != nil {
		common.PrintRuntimeErr(ctx, "destination", "set", err)
		return nil
	}
	fmt.Printf("Destination set to %s\n", path)
	return nil
}

func destinationClear(ctx *cli.Context) error {
	b, err := newBackend(context.Background(), nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "destination", "connect", err)
		return nil
	}
	defer b.Close()

	if err := b.ClearDestination(context.Background()); err != nil {
		common.PrintRuntimeErr(ctx, "destination", "clear", err)
		return nil
	}
	fmt.Println("Destination cleared")
	return nil
}

func destinationShow(ctx *cli.Context) error {
	b, err := newBackend(context.Background(), nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "destination", "connect", err)
		return nil
	}
	defer b.Close()

	st, err := b.Status(context.Background())
	if err != nil {
		common.PrintRuntimeErr(ctx, "destination", "show", err)
		return nil
	}
	if st.Destination == "" {
		fmt.Println("not set")
		return nil
	}
	fmt.Println(st.Destination)
	return nil
}
