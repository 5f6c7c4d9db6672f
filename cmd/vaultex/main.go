package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/vaultex-network/vaultex-client/internal/config"
	"github.com/vaultex-network/vaultex-client/pkg/client"
	"github.com/vaultex-network/vaultex-client/pkg/credentials"
	"github.com/vaultex-network/vaultex-client/pkg/wallet"
)

const (
	keyFilename         = "key.json"
	credentialsFilename = "credentials.json"
)

func main() {
	app := cli.NewApp()

	app.Version = client.Version
	app.Name = "vaultex CLI"
	app.Usage = "Command line interface for vaultex multisig wallets"
	app.Commands = append(
		app.Commands,
		&genkey,
		&createwallet,
		&joinwallet,
		&status,
		&addressCmd,
		&balance,
		&send,
		&sendmax,
		&history,
	)

	if err := config.InitConfig(); err != nil {
		fatal(err)
	}

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func keyPath() string {
	return filepath.Join(config.GetCredentialsDir(), keyFilename)
}

func credentialsPath() string {
	return filepath.Join(config.GetCredentialsDir(), credentialsFilename)
}

func getKey() (*wallet.Key, error) {
	file, err := os.ReadFile(keyPath())
	if err != nil {
		return nil, errors.New("no key found: run 'genkey' first")
	}
	key := &wallet.Key{}
	if err := json.Unmarshal(file, key); err != nil {
		return nil, err
	}
	return key, nil
}

func setKey(key *wallet.Key) error {
	file, err := json.Marshal(key)
	if err != nil {
		return err
	}
	return os.WriteFile(keyPath(), file, 0600)
}

func getCredentials() (*credentials.Credentials, error) {
	file, err := os.ReadFile(credentialsPath())
	if err != nil {
		return nil, errors.New(
			"no credentials found: run 'createwallet' or 'joinwallet' first",
		)
	}
	creds := &credentials.Credentials{}
	if err := json.Unmarshal(file, creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func setCredentials(creds *credentials.Credentials) error {
	file, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(credentialsPath(), file, 0600)
}

func getClient() (*client.Client, error) {
	creds, err := getCredentials()
	if err != nil {
		return nil, err
	}
	return client.NewClient(client.Opts{
		Transport:   client.NewHTTPTransport(config.GetString(config.BaseURLKey)),
		Credentials: creds,
	})
}

func printRespJSON(resp interface{}) {
	jsonStr, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Println(string(jsonStr))
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[vaultex] %v\n", err)
	}
	os.Exit(1)
}
