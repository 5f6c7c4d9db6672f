package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/vaultex-network/vaultex-client/pkg/client"
	"github.com/vaultex-network/vaultex-client/pkg/proposal"
)

var sendmax = cli.Command{
	Name:  "sendmax",
	Usage: "show the maximum spendable amount at a given fee level",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "fee-level",
			Usage: "urgent|priority|normal|economy|superEconomy",
			Value: "normal",
		},
		&cli.BoolFlag{
			Name:  "exclude-unconfirmed",
			Usage: "only count confirmed utxos",
		},
	},
	Action: sendMaxAction,
}

func sendMaxAction(ctx *cli.Context) error {
	cl, err := getClient()
	if err != nil {
		return err
	}

	info, err := cl.GetSendMaxInfo(context.Background(), client.GetSendMaxInfoOpts{
		FeeLevel:           proposal.FeeLevel(ctx.String("fee-level")),
		ExcludeUnconfirmed: ctx.Bool("exclude-unconfirmed"),
	})
	if err != nil {
		return err
	}

	printRespJSON(info)
	return nil
}
