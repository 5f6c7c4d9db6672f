package credentials

import (
	"errors"

	"github.com/vaultex-network/vaultex-client/pkg/address"
)

var (
	// ErrObsoleteBackup ...
	ErrObsoleteBackup = errors.New(
		"backup format is too old to be migrated, restore from mnemonic instead",
	)
	// ErrInvalidBackup ...
	ErrInvalidBackup = errors.New("backup is malformed")
)

// LegacyV1Credentials is the historical pre-versioning credentials shape:
// BIP45 shared-account derivation, optionally non-compliant, with the BCH
// coin-type split not yet applied. It is kept as a distinct input type so
// every legacy combination is migrated explicitly instead of being modeled
// as optional fields on the current shape.
type LegacyV1Credentials struct {
	Coin                   string
	Network                string
	XPubKey                string
	RequestPrivKey         string
	WalletId               string
	WalletName             string
	M                      int
	N                      int
	WalletPrivKey          string
	CopayerName            string
	KeyId                  string
	Account                uint32
	NonCompliantDerivation bool
	Use145ForBCH           bool
}

// MigrateLegacyV1 upgrades a legacy BIP45 credentials backup to the current
// shape. The derivation strategy is preserved so addresses keep deriving
// along the historical paths.
func MigrateLegacyV1(legacy LegacyV1Credentials) (*Credentials, error) {
	coin, err := address.ParseCoin(legacy.Coin)
	if err != nil {
		return nil, ErrInvalidBackup
	}
	network := address.Network(legacy.Network)
	if err := network.Validate(); err != nil {
		return nil, ErrInvalidBackup
	}
	if legacy.N < 1 || len(legacy.XPubKey) <= 0 {
		return nil, ErrInvalidBackup
	}
	if !isValidPrivKeyHex(legacy.RequestPrivKey) {
		return nil, ErrObsoleteBackup
	}

	keyId := legacy.KeyId
	if len(keyId) <= 0 {
		keyId = "imported"
	}

	c, err := FromDerivedKey(FromDerivedKeyOpts{
		Coin:               coin,
		Network:            network,
		Account:            legacy.Account,
		N:                  legacy.N,
		XPubKey:            legacy.XPubKey,
		RootPath:           "m/45'",
		KeyId:              keyId,
		RequestPrivKey:     legacy.RequestPrivKey,
		AddressType:        address.DefaultScriptType(legacy.N),
		DerivationStrategy: DerivationStrategyBIP45,
		WalletPrivKey:      legacy.WalletPrivKey,
		CopayerName:        legacy.CopayerName,
	})
	if err != nil {
		return nil, ErrInvalidBackup
	}
	c.CompliantDerivation = !legacy.NonCompliantDerivation

	if len(legacy.WalletId) > 0 {
		if err := c.AddWalletInfo(AddWalletInfoOpts{
			WalletId:   legacy.WalletId,
			WalletName: legacy.WalletName,
			M:          legacy.M,
			N:          legacy.N,
		}); err != nil {
			return nil, ErrInvalidBackup
		}
	}
	return c, nil
}
