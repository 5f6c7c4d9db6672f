package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/vaultex-network/vaultex-client/internal/config"
	"github.com/vaultex-network/vaultex-client/pkg/client"
	"github.com/vaultex-network/vaultex-client/pkg/explorer/esplora"
)

var history = cli.Command{
	Name:  "history",
	Usage: "list the transactions touching the wallet addresses",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "number of addresses to scan",
			Value: 20,
		},
	},
	Action: historyAction,
}

type historyEntry struct {
	Txid        string `json:"txid"`
	Fee         uint64 `json:"fee"`
	Confirmed   bool   `json:"confirmed"`
	BlockHeight int    `json:"blockHeight"`
	BlockTime   int64  `json:"blockTime"`
}

func historyAction(ctx *cli.Context) error {
	cl, err := getClient()
	if err != nil {
		return err
	}

	explorerSvc, err := esplora.NewService(
		config.GetString(config.ExplorerURLKey),
		config.GetInt(config.ExplorerRequestsPerSecondKey),
	)
	if err != nil {
		return err
	}

	infos, err := cl.GetMainAddresses(
		context.Background(),
		client.GetMainAddressesOpts{Limit: ctx.Int("limit")},
	)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	entries := make([]historyEntry, 0)
	for _, info := range infos {
		txs, err := explorerSvc.GetTransactionsForAddress(info.Address)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			if _, ok := seen[tx.Hash()]; ok {
				continue
			}
			seen[tx.Hash()] = struct{}{}
			entries = append(entries, historyEntry{
				Txid:        tx.Hash(),
				Fee:         tx.Fee(),
				Confirmed:   tx.Confirmed(),
				BlockHeight: tx.BlockHeight(),
				BlockTime:   tx.BlockTime(),
			})
		}
	}

	printRespJSON(entries)
	return nil
}
