package address

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg"
)

var (
	// ErrInvalidCoin ...
	ErrInvalidCoin = errors.New("coin must be either 'btc' or 'bch'")
	// ErrInvalidNetwork ...
	ErrInvalidNetwork = errors.New("network must be either 'livenet' or 'testnet'")
	// ErrInvalidScriptType ...
	ErrInvalidScriptType = errors.New(
		"script type must be one of 'P2PKH', 'P2SH', 'P2WPKH', 'P2WSH'",
	)
)

// Coin is the closed set of supported chains.
type Coin string

const (
	// BTC ...
	BTC Coin = "btc"
	// BCH ...
	BCH Coin = "bch"
)

// Validate returns whether the coin is a member of the supported set.
func (c Coin) Validate() error {
	switch c {
	case BTC, BCH:
		return nil
	default:
		return ErrInvalidCoin
	}
}

func (c Coin) String() string {
	return string(c)
}

// ParseCoin returns the Coin for the given string, defaulting to BTC when
// empty.
func ParseCoin(coin string) (Coin, error) {
	if coin == "" {
		return BTC, nil
	}
	c := Coin(coin)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// Network is the closed set of supported networks.
type Network string

const (
	// Livenet ...
	Livenet Network = "livenet"
	// Testnet ...
	Testnet Network = "testnet"
)

// Validate returns whether the network is a member of the supported set.
func (n Network) Validate() error {
	switch n {
	case Livenet, Testnet:
		return nil
	default:
		return ErrInvalidNetwork
	}
}

func (n Network) String() string {
	return string(n)
}

// Params returns the chain parameters for the network. BCH shares the BTC
// legacy address encoding, so the same parameters serve both coins.
func (n Network) Params(_ Coin) *chaincfg.Params {
	if n == Testnet {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

// ScriptType identifies the locking script template of an address.
type ScriptType string

const (
	// P2PKH ...
	P2PKH ScriptType = "P2PKH"
	// P2SH ...
	P2SH ScriptType = "P2SH"
	// P2WPKH ...
	P2WPKH ScriptType = "P2WPKH"
	// P2WSH ...
	P2WSH ScriptType = "P2WSH"
)

// Validate returns whether the script type is a member of the supported set.
func (s ScriptType) Validate() error {
	switch s {
	case P2PKH, P2SH, P2WPKH, P2WSH:
		return nil
	default:
		return ErrInvalidScriptType
	}
}

func (s ScriptType) String() string {
	return string(s)
}

// IsMultiSig returns whether addresses of this type wrap a threshold redeem
// script.
func (s ScriptType) IsMultiSig() bool {
	return s == P2SH || s == P2WSH
}

// IsSingleKey returns whether addresses of this type commit to a single
// public key.
func (s ScriptType) IsSingleKey() bool {
	return s == P2PKH || s == P2WPKH
}

// DefaultScriptType returns the script type used when a wallet does not
// declare one explicitly: P2PKH for single-sig, P2SH for shared wallets.
func DefaultScriptType(n int) ScriptType {
	if n == 1 {
		return P2PKH
	}
	return P2SH
}
