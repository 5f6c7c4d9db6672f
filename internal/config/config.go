package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// BaseURLKey is the address of the wallet server to connect to
	BaseURLKey = "BASE_URL"
	// CoinKey is the coin the wallet operates on (btc or bch)
	CoinKey = "COIN"
	// NetworkKey is the network the wallet operates on (livenet or testnet)
	NetworkKey = "NETWORK"
	// DatadirKey is the local data directory where credentials are stored
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// ExplorerURLKey is the endpoint of the esplora explorer used for
	// transaction history and broadcast fallback
	ExplorerURLKey = "EXPLORER_URL"
	// ExplorerRequestsPerSecondKey caps the request rate against the explorer
	ExplorerRequestsPerSecondKey = "EXPLORER_REQUESTS_PER_SECOND"
	// TimeoutKey is the timeout in seconds applied to wallet server requests
	TimeoutKey = "TIMEOUT"

	// CredentialsLocation is the subdir of the datadir holding credentials
	CredentialsLocation = "credentials"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("vaultex", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("VAULTEX")
	vip.AutomaticEnv()

	vip.SetDefault(BaseURLKey, "https://ws.vaultex.io/api")
	vip.SetDefault(CoinKey, "btc")
	vip.SetDefault(NetworkKey, "livenet")
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(ExplorerURLKey, "https://blockstream.info/api")
	vip.SetDefault(ExplorerRequestsPerSecondKey, 10)
	vip.SetDefault(TimeoutKey, 30)

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	log.SetLevel(log.Level(GetInt(LogLevelKey)))

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

// GetDatadir returns the data directory of the client.
func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetCredentialsDir returns the directory credentials files live in.
func GetCredentialsDir() string {
	return filepath.Join(GetDatadir(), CredentialsLocation)
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return err
	}
	return makeDirectoryIfNotExists(GetCredentialsDir())
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
