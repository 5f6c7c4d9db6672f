package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/vaultex-network/vaultex-client/pkg/client"
)

var status = cli.Command{
	Name:  "status",
	Usage: "show the wallet status, balance and pending proposals",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "extended",
			Usage: "include extended wallet info",
		},
	},
	Action: statusAction,
}

func statusAction(ctx *cli.Context) error {
	cl, err := getClient()
	if err != nil {
		return err
	}

	walletStatus, err := cl.GetStatus(context.Background(), client.GetStatusOpts{
		IncludeExtendedInfo: ctx.Bool("extended"),
	})
	if err != nil {
		return err
	}

	// ring completion discovered by the status call must survive restarts
	if err := setCredentials(cl.Credentials()); err != nil {
		return err
	}

	printRespJSON(walletStatus)
	return nil
}
