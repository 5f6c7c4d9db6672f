package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vaultex-network/vaultex-client/pkg/client"
)

var addressCmd = cli.Command{
	Name:  "address",
	Usage: "derive a fresh verified receive address",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "list",
			Usage: "list existing addresses instead of creating one",
		},
	},
	Action: addressAction,
}

func addressAction(ctx *cli.Context) error {
	cl, err := getClient()
	if err != nil {
		return err
	}

	if ctx.Bool("list") {
		infos, err := cl.GetMainAddresses(
			context.Background(), client.GetMainAddressesOpts{},
		)
		if err != nil {
			return err
		}
		printRespJSON(infos)
		return nil
	}

	info, err := cl.CreateAddress(context.Background())
	if err != nil {
		return err
	}

	fmt.Println(info.Address)
	return nil
}
