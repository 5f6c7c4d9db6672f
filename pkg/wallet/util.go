package wallet

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/google/uuid"
	"github.com/vulpemventures/go-bip39"
)

func generateMnemonic(entropySize int) (string, error) {
	entropy, err := bip39.NewEntropy(entropySize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

func generateSeedFromMnemonic(mnemonic, passphrase string) []byte {
	return bip39.NewSeed(mnemonic, passphrase)
}

func isMnemonicValid(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

func isExtendedPrivateKeyValid(xprv string) bool {
	hdNode, err := hdkeychain.NewKeyFromString(strings.TrimSpace(xprv))
	if err != nil {
		return false
	}
	return hdNode.IsPrivate()
}

// masterKeyFromSeed always serializes against mainnet params; the network
// only affects serialization, never the derived keys.
func masterKeyFromSeed(seed []byte) (string, error) {
	hdNode, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return "", err
	}
	return hdNode.String(), nil
}

func masterFingerprint(xprv string) string {
	hdNode, err := hdkeychain.NewKeyFromString(xprv)
	if err != nil {
		return ""
	}
	pubkey, err := hdNode.ECPubKey()
	if err != nil {
		return ""
	}
	return hex.EncodeToString(btcutil.Hash160(pubkey.SerializeCompressed())[:4])
}

func newKeyID() string {
	return uuid.New().String()
}
