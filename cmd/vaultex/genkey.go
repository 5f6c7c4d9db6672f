package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/vaultex-network/vaultex-client/pkg/wallet"
)

var genkey = cli.Command{
	Name:  "genkey",
	Usage: "generate or import the master key material",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "mnemonic",
			Usage: "import an existing mnemonic instead of generating one",
		},
		&cli.StringFlag{
			Name:  "passphrase",
			Usage: "optional BIP39 seed passphrase",
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "encrypt the stored key material with this password",
		},
	},
	Action: genKeyAction,
}

func genKeyAction(ctx *cli.Context) error {
	if _, err := os.Stat(keyPath()); err == nil {
		return errors.New("a key already exists, refusing to overwrite it")
	}

	opts := wallet.NewKeyOpts{SeedType: wallet.SeedTypeNew}
	if mnemonic := ctx.String("mnemonic"); len(mnemonic) > 0 {
		opts.SeedType = wallet.SeedTypeMnemonic
		opts.SeedData = mnemonic
	}
	opts.Passphrase = ctx.String("passphrase")

	key, err := wallet.NewKey(opts)
	if err != nil {
		return err
	}

	mnemonic, err := key.Mnemonic("")
	if err != nil && !errors.Is(err, wallet.ErrNullMnemonic) {
		return err
	}

	if password := ctx.String("password"); len(password) > 0 {
		if err := key.Encrypt(password); err != nil {
			return err
		}
	}

	if err := setKey(key); err != nil {
		return err
	}

	fmt.Println("write down the mnemonic, it is the only backup of the key:")
	fmt.Println()
	fmt.Println(mnemonic)

	return nil
}
