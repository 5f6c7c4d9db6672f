package wallet

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// HashMessage returns the double-sha256 digest of the given text, the digest
// every detached message signature in the protocol commits to.
func HashMessage(text string) []byte {
	first := sha256.Sum256([]byte(text))
	second := sha256.Sum256(first[:])
	return second[:]
}

// SignMessage signs the double-sha256 digest of message with the given
// private key and returns the DER signature in hex format. Signing is
// deterministic (RFC6979), identical inputs always produce identical
// signatures.
func SignMessage(message string, privKey *btcec.PrivateKey) string {
	sig := ecdsa.Sign(privKey, HashMessage(message))
	return hex.EncodeToString(sig.Serialize())
}

// VerifyMessage checks a hex DER signature produced by SignMessage against
// the given compressed public key in hex format. Malformed signatures or keys
// simply fail the check.
func VerifyMessage(message, signature, pubKey string) bool {
	if len(signature) <= 0 || len(pubKey) <= 0 {
		return false
	}
	rawPubKey, err := hex.DecodeString(pubKey)
	if err != nil {
		return false
	}
	parsedPubKey, err := btcec.ParsePubKey(rawPubKey)
	if err != nil {
		return false
	}
	rawSig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	parsedSig, err := ecdsa.ParseDERSignature(rawSig)
	if err != nil {
		return false
	}
	return parsedSig.Verify(HashMessage(message), parsedPubKey)
}
