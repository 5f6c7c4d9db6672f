package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/vaultex-network/vaultex-client/pkg/proposal"
)

var balance = cli.Command{
	Name:   "balance",
	Usage:  "show the wallet balance",
	Action: balanceAction,
}

func balanceAction(ctx *cli.Context) error {
	cl, err := getClient()
	if err != nil {
		return err
	}

	walletBalance, err := cl.GetBalance(context.Background())
	if err != nil {
		return err
	}

	coin := cl.Credentials().Coin
	fmt.Println("total:    ", proposal.FormatAmount(walletBalance.TotalAmount, coin))
	fmt.Println("locked:   ", proposal.FormatAmount(walletBalance.LockedAmount, coin))
	fmt.Println("available:", proposal.FormatAmount(walletBalance.AvailableAmount, coin))
	return nil
}
