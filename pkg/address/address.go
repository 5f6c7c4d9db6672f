package address

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

var (
	// ErrEmptyPublicKeyRing ...
	ErrEmptyPublicKeyRing = errors.New("public key ring must not be empty")
	// ErrInvalidRequiredSignatures ...
	ErrInvalidRequiredSignatures = errors.New(
		"required signatures must be in range [1, len(ring)]",
	)
	// ErrSingleKeyScriptType ...
	ErrSingleKeyScriptType = errors.New(
		"single-key script types require exactly one public key",
	)
	// ErrInvalidXPub ...
	ErrInvalidXPub = errors.New("extended public key is invalid")
)

// Info is the result of deriving an address for a wallet at a given path.
// The same (scriptType, ring, path, requiredSignatures, network) tuple always
// produces the same Info.
type Info struct {
	Address      string
	Path         string
	PublicKeys   []string
	RedeemScript []byte
	OutputScript []byte
}

// DeriveOpts is the struct given to the Derive function
type DeriveOpts struct {
	ScriptType         ScriptType
	PublicKeyRing      []string
	Path               string
	RequiredSignatures int
	Coin               Coin
	Network            Network
}

func (o DeriveOpts) validate() error {
	if err := o.ScriptType.Validate(); err != nil {
		return err
	}
	if err := o.Coin.Validate(); err != nil {
		return err
	}
	if err := o.Network.Validate(); err != nil {
		return err
	}
	if len(o.PublicKeyRing) <= 0 {
		return ErrEmptyPublicKeyRing
	}
	if o.RequiredSignatures < 1 || o.RequiredSignatures > len(o.PublicKeyRing) {
		return ErrInvalidRequiredSignatures
	}
	if _, err := ParseDerivationPath(o.Path); err != nil {
		return err
	}
	if o.ScriptType.IsSingleKey() && len(o.PublicKeyRing) != 1 {
		return ErrSingleKeyScriptType
	}
	return nil
}

// Derive computes the address, the list of involved public keys and the
// locking scripts for the given script type, ring of extended public keys,
// relative derivation path and threshold. It performs no I/O and is fully
// deterministic, so it can be used both to generate fresh addresses and to
// recompute an address claimed by a remote party.
func Derive(opts DeriveOpts) (*Info, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	pubkeys, err := derivePublicKeys(opts.PublicKeyRing, opts.Path)
	if err != nil {
		return nil, err
	}
	if opts.ScriptType.IsMultiSig() {
		sortPublicKeys(pubkeys)
	}

	params := opts.Network.Params(opts.Coin)

	var addr btcutil.Address
	var redeemScript []byte
	switch opts.ScriptType {
	case P2PKH:
		addr, err = btcutil.NewAddressPubKeyHash(
			btcutil.Hash160(pubkeys[0].SerializeCompressed()), params,
		)
	case P2WPKH:
		addr, err = btcutil.NewAddressWitnessPubKeyHash(
			btcutil.Hash160(pubkeys[0].SerializeCompressed()), params,
		)
	case P2SH:
		redeemScript, err = multiSigScript(
			pubkeys, opts.RequiredSignatures, params,
		)
		if err != nil {
			return nil, err
		}
		addr, err = btcutil.NewAddressScriptHash(redeemScript, params)
	case P2WSH:
		redeemScript, err = multiSigScript(
			pubkeys, opts.RequiredSignatures, params,
		)
		if err != nil {
			return nil, err
		}
		scriptHash := sha256.Sum256(redeemScript)
		addr, err = btcutil.NewAddressWitnessScriptHash(scriptHash[:], params)
	default:
		return nil, ErrInvalidScriptType
	}
	if err != nil {
		return nil, err
	}

	outputScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}

	return &Info{
		Address:      addr.EncodeAddress(),
		Path:         opts.Path,
		PublicKeys:   serializePublicKeys(pubkeys),
		RedeemScript: redeemScript,
		OutputScript: outputScript,
	}, nil
}

func derivePublicKeys(ring []string, path string) ([]*btcec.PublicKey, error) {
	derivationPath, _ := ParseDerivationPath(path)

	pubkeys := make([]*btcec.PublicKey, 0, len(ring))
	for _, xpub := range ring {
		hdNode, err := hdkeychain.NewKeyFromString(xpub)
		if err != nil {
			return nil, ErrInvalidXPub
		}
		for _, step := range derivationPath {
			hdNode, err = hdNode.Derive(step)
			if err != nil {
				return nil, err
			}
		}
		pubkey, err := hdNode.ECPubKey()
		if err != nil {
			return nil, err
		}
		pubkeys = append(pubkeys, pubkey)
	}
	return pubkeys, nil
}

// sortPublicKeys sorts the keys ascending by their compressed serialization,
// the convention shared with the coordination server for multisig scripts.
func sortPublicKeys(pubkeys []*btcec.PublicKey) {
	sort.Slice(pubkeys, func(i, j int) bool {
		return bytes.Compare(
			pubkeys[i].SerializeCompressed(),
			pubkeys[j].SerializeCompressed(),
		) < 0
	})
}

func multiSigScript(
	pubkeys []*btcec.PublicKey, nRequired int, params *chaincfg.Params,
) ([]byte, error) {
	addrPubkeys := make([]*btcutil.AddressPubKey, 0, len(pubkeys))
	for _, pubkey := range pubkeys {
		addrPubkey, err := btcutil.NewAddressPubKey(
			pubkey.SerializeCompressed(), params,
		)
		if err != nil {
			return nil, err
		}
		addrPubkeys = append(addrPubkeys, addrPubkey)
	}
	return txscript.MultiSigScript(addrPubkeys, nRequired)
}

func serializePublicKeys(pubkeys []*btcec.PublicKey) []string {
	serialized := make([]string, 0, len(pubkeys))
	for _, pubkey := range pubkeys {
		serialized = append(
			serialized, hex.EncodeToString(pubkey.SerializeCompressed()),
		)
	}
	return serialized
}
