package wallet

import (
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/vaultex-network/vaultex-client/pkg/address"
	"github.com/vaultex-network/vaultex-client/pkg/proposal"
)

var (
	// ErrNullTxProposal ...
	ErrNullTxProposal = errors.New("tx proposal must not be null")
	// ErrUnknownSigningMethod ...
	ErrUnknownSigningMethod = errors.New("unknown signing method")
)

// SignTxProposalOpts is the struct given to the SignTxProposal method
type SignTxProposalOpts struct {
	// RootPath is the wallet root the input paths are relative to.
	RootPath string
	Txp      *proposal.TxProposal
	Password string
}

func (o SignTxProposalOpts) validate() error {
	if o.Txp == nil {
		return ErrNullTxProposal
	}
	if _, err := address.ParseDerivationPath(o.RootPath); err != nil {
		return err
	}
	for _, in := range o.Txp.Inputs {
		if _, err := address.ParseDerivationPath(in.Path); err != nil {
			return err
		}
	}
	return nil
}

// SignTxProposal produces one signature per proposal input with the keys
// derived under the wallet root path. Signing is deterministic and performs
// no I/O: repeated calls over identical data yield identical signatures, so
// the result can be recomputed on an air-gapped device.
func (k *Key) SignTxProposal(opts SignTxProposalOpts) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := opts.Txp.CheckSupported(proposal.ProtocolVersion); err != nil {
		return nil, err
	}

	digests, err := opts.Txp.InputSigHashes()
	if err != nil {
		return nil, err
	}

	rootKey, err := k.deriveExtendedKey(opts.RootPath, opts.Password)
	if err != nil {
		return nil, err
	}

	signatures := make([]string, 0, len(opts.Txp.Inputs))
	for i, in := range opts.Txp.Inputs {
		hdNode := rootKey
		relativePath, _ := address.ParseDerivationPath(in.Path)
		for _, step := range relativePath {
			hdNode, err = hdNode.Derive(step)
			if err != nil {
				return nil, err
			}
		}
		privKey, err := hdNode.ECPrivKey()
		if err != nil {
			return nil, err
		}

		switch opts.Txp.SigningMethod {
		case proposal.SigningMethodSchnorr:
			sig, err := schnorr.Sign(privKey, digests[i])
			if err != nil {
				return nil, err
			}
			signatures = append(signatures, hex.EncodeToString(sig.Serialize()))
		case proposal.SigningMethodECDSA, "":
			sig := ecdsa.Sign(privKey, digests[i])
			signatures = append(signatures, hex.EncodeToString(sig.Serialize()))
		default:
			return nil, ErrUnknownSigningMethod
		}
	}
	return signatures, nil
}
