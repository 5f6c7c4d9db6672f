package main

import (
	"context"
	"fmt"

	"github.com/thanhpk/randstr"
	"github.com/urfave/cli/v2"

	"github.com/vaultex-network/vaultex-client/internal/config"
	"github.com/vaultex-network/vaultex-client/pkg/client"
	"github.com/vaultex-network/vaultex-client/pkg/secret"
	"github.com/vaultex-network/vaultex-client/pkg/wallet"
)

var joinwallet = cli.Command{
	Name:  "joinwallet",
	Usage: "join an existing shared wallet through its secret",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "secret",
			Usage:    "invitation secret received from the wallet creator",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "copayer",
			Usage: "name of this copayer",
		},
		&cli.IntFlag{
			Name:     "n",
			Usage:    "total copayers of the wallet being joined",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "password of the stored key material",
		},
	},
	Action: joinWalletAction,
}

func joinWalletAction(ctx *cli.Context) error {
	key, err := getKey()
	if err != nil {
		return err
	}

	parsed, err := secret.Parse(ctx.String("secret"))
	if err != nil {
		return err
	}

	creds, err := key.DeriveCredentials(wallet.DeriveCredentialsOpts{
		Coin:     parsed.Coin,
		Network:  parsed.Network,
		N:        ctx.Int("n"),
		Password: ctx.String("password"),
	})
	if err != nil {
		return err
	}

	copayerName := ctx.String("copayer")
	if len(copayerName) <= 0 {
		copayerName = "copayer-" + randstr.String(6)
	}

	cl, err := client.NewClient(client.Opts{
		Transport:   client.NewHTTPTransport(config.GetString(config.BaseURLKey)),
		Credentials: creds,
	})
	if err != nil {
		return err
	}

	if err := cl.JoinWallet(context.Background(), client.JoinWalletOpts{
		Secret:      ctx.String("secret"),
		CopayerName: copayerName,
	}); err != nil {
		return err
	}

	if err := setCredentials(cl.Credentials()); err != nil {
		return err
	}

	fmt.Println("wallet joined")
	return nil
}
