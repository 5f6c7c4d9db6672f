// Package secret encodes and decodes wallet invitations. A secret packs the
// wallet id, the wallet private key and the coin/network markers into a
// single copy-pasteable string handed out-of-band to joining copayers.
package secret

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/vaultex-network/vaultex-client/pkg/address"
)

// ErrInvalidSecret ...
var ErrInvalidSecret = errors.New("invalid secret")

const (
	// walletIdFieldSize is the fixed width of the base58 wallet id field,
	// right-padded with '0' (not a base58 character).
	walletIdFieldSize = 22
	// wifFieldSize is the width of a compressed mainnet WIF.
	wifFieldSize = 52
)

// Secret is the decoded form of a wallet invitation.
type Secret struct {
	WalletId      string
	WalletPrivKey *btcec.PrivateKey
	Coin          address.Coin
	Network       address.Network
}

// Build packs a wallet id (UUID string) and wallet private key into an
// invitation string.
func Build(
	walletId string, walletPrivKey *btcec.PrivateKey,
	coin address.Coin, network address.Network,
) (string, error) {
	widHex := strings.ReplaceAll(walletId, "-", "")
	widBytes, err := hex.DecodeString(widHex)
	if err != nil {
		return "", ErrInvalidSecret
	}
	if err := coin.Validate(); err != nil {
		return "", err
	}
	if err := network.Validate(); err != nil {
		return "", err
	}

	widBase58 := base58.Encode(widBytes)
	if len(widBase58) > walletIdFieldSize {
		return "", ErrInvalidSecret
	}
	widBase58 += strings.Repeat("0", walletIdFieldSize-len(widBase58))

	// The WIF field is always serialized with mainnet parameters; the
	// network marker character carries the actual network.
	wif, err := btcutil.NewWIF(walletPrivKey, &chaincfg.MainNetParams, true)
	if err != nil {
		return "", err
	}

	networkChar := "L"
	if network == address.Testnet {
		networkChar = "T"
	}

	return widBase58 + wif.String() + networkChar + string(coin), nil
}

// Parse decodes an invitation string back into its components.
func Parse(secret string) (*Secret, error) {
	if len(secret) < walletIdFieldSize+wifFieldSize+1 {
		return nil, ErrInvalidSecret
	}

	widField := secret[:walletIdFieldSize]
	wifField := secret[walletIdFieldSize : walletIdFieldSize+wifFieldSize]
	rest := secret[walletIdFieldSize+wifFieldSize:]

	widBase58 := strings.TrimRight(widField, "0")
	widBytes := base58.Decode(widBase58)
	if len(widBytes) != 16 {
		return nil, ErrInvalidSecret
	}
	walletId := uuidString(widBytes)

	wif, err := btcutil.DecodeWIF(wifField)
	if err != nil {
		return nil, ErrInvalidSecret
	}

	var network address.Network
	switch rest[0] {
	case 'L':
		network = address.Livenet
	case 'T':
		network = address.Testnet
	default:
		return nil, ErrInvalidSecret
	}

	coin := address.BTC
	if len(rest) > 1 {
		parsed, err := address.ParseCoin(rest[1:])
		if err != nil {
			return nil, ErrInvalidSecret
		}
		coin = parsed
	}

	return &Secret{
		WalletId:      walletId,
		WalletPrivKey: wif.PrivKey,
		Coin:          coin,
		Network:       network,
	}, nil
}

func uuidString(raw []byte) string {
	s := hex.EncodeToString(raw)
	return strings.Join(
		[]string{s[:8], s[8:12], s[12:16], s[16:20], s[20:]}, "-",
	)
}
