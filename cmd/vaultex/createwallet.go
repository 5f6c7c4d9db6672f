package main

import (
	"context"
	"fmt"

	"github.com/thanhpk/randstr"
	"github.com/urfave/cli/v2"

	"github.com/vaultex-network/vaultex-client/internal/config"
	"github.com/vaultex-network/vaultex-client/pkg/address"
	"github.com/vaultex-network/vaultex-client/pkg/client"
	"github.com/vaultex-network/vaultex-client/pkg/wallet"
)

var createwallet = cli.Command{
	Name:  "createwallet",
	Usage: "create a new m-of-n wallet on the server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Usage:    "wallet name",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "copayer",
			Usage: "name of this copayer",
		},
		&cli.IntFlag{
			Name:  "m",
			Usage: "required signatures",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "n",
			Usage: "total copayers",
			Value: 1,
		},
		&cli.BoolFlag{
			Name:  "single-address",
			Usage: "reuse a single receive address",
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "password of the stored key material",
		},
	},
	Action: createWalletAction,
}

func createWalletAction(ctx *cli.Context) error {
	key, err := getKey()
	if err != nil {
		return err
	}

	coin, err := address.ParseCoin(config.GetString(config.CoinKey))
	if err != nil {
		return err
	}
	network := address.Network(config.GetString(config.NetworkKey))

	creds, err := key.DeriveCredentials(wallet.DeriveCredentialsOpts{
		Coin:     coin,
		Network:  network,
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

	secret, err := cl.CreateWallet(context.Background(), client.CreateWalletOpts{
		Name:          ctx.String("name"),
		CopayerName:   copayerName,
		M:             ctx.Int("m"),
		N:             ctx.Int("n"),
		SingleAddress: ctx.Bool("single-address"),
	})
	if err != nil {
		return err
	}

	if err := setCredentials(cl.Credentials()); err != nil {
		return err
	}

	fmt.Println("wallet created")
	if len(secret) > 0 {
		fmt.Println("share this secret with the other copayers:")
		fmt.Println()
		fmt.Println(secret)
	}
	return nil
}
