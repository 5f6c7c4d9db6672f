package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vaultex-network/vaultex-client/pkg/client"
	"github.com/vaultex-network/vaultex-client/pkg/proposal"
	"github.com/vaultex-network/vaultex-client/pkg/wallet"
)

var send = cli.Command{
	Name:  "send",
	Usage: "create, publish and sign a payment proposal",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "to",
			Usage:    "destination address",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:     "amount",
			Usage:    "amount in satoshis",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "message",
			Usage: "message shared with the other copayers",
		},
		&cli.StringFlag{
			Name:  "fee-level",
			Usage: "urgent|priority|normal|economy|superEconomy",
			Value: "normal",
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "password of the stored key material",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "build the proposal locally without submitting it",
		},
	},
	Action: sendAction,
}

func sendAction(cliCtx *cli.Context) error {
	cl, err := getClient()
	if err != nil {
		return err
	}
	key, err := getKey()
	if err != nil {
		return err
	}
	ctx := context.Background()

	txp, err := cl.CreateTxProposal(ctx, client.CreateTxProposalOpts{
		ToAddress: cliCtx.String("to"),
		Amount:    cliCtx.Uint64("amount"),
		Message:   cliCtx.String("message"),
		FeeLevel:  proposal.FeeLevel(cliCtx.String("fee-level")),
		DryRun:    cliCtx.Bool("dry-run"),
	})
	if err != nil {
		return err
	}
	if cliCtx.Bool("dry-run") {
		printRespJSON(txp)
		return nil
	}

	if err := cl.PublishTxProposal(ctx, txp); err != nil {
		return err
	}

	signatures, err := key.SignTxProposal(wallet.SignTxProposalOpts{
		RootPath: cl.Credentials().RootPath,
		Txp:      txp,
		Password: cliCtx.String("password"),
	})
	if err != nil {
		return err
	}
	if err := cl.SignTxProposal(ctx, txp, signatures); err != nil {
		return err
	}

	if txp.Status == proposal.StatusAccepted {
		txid, err := cl.BroadcastTxProposal(ctx, txp)
		if err != nil {
			return err
		}
		fmt.Println("broadcasted:", txid)
		return nil
	}

	fmt.Printf(
		"proposal %s published, waiting for %d more signature(s)\n",
		txp.Id, txp.RequiredSignatures-len(txp.AcceptActions()),
	)
	return nil
}
