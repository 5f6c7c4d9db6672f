package proposal

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/vaultex-network/vaultex-client/pkg/address"
)

var (
	// ErrCouldNotBuildTransaction ...
	ErrCouldNotBuildTransaction = errors.New("could not build transaction")
	// ErrMissingSignatures ...
	ErrMissingSignatures = errors.New(
		"proposal does not carry enough signatures to assemble the transaction",
	)
)

// BuildUnsignedTx assembles the raw transaction skeleton of the proposal:
// declared outputs in order, then the change output when present. The
// assembly is deterministic so every copayer reproduces the same digests.
func (t *TxProposal) BuildUnsignedTx() (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(2)
	if t.Version < SchnorrMinVersion {
		tx.Version = 1
	}

	for _, in := range t.Inputs {
		hash, err := chainhash.NewHashFromStr(in.TxId)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, in.Vout), nil, nil))
	}

	params := t.Network.Params(t.Coin)
	for _, out := range t.Outputs {
		var pkScript []byte
		if len(out.Script) > 0 {
			rawScript, err := hex.DecodeString(out.Script)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
			}
			pkScript = rawScript
		} else {
			addr, err := btcutil.DecodeAddress(out.ToAddress, params)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
			}
			pkScript, err = txscript.PayToAddrScript(addr)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
			}
		}
		tx.AddTxOut(wire.NewTxOut(int64(out.Amount), pkScript))
	}

	if changeAmount := t.ChangeAmount(); changeAmount > 0 && t.ChangeAddress != nil {
		addr, err := btcutil.DecodeAddress(t.ChangeAddress.Address, params)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
		}
		pkScript, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
		}
		tx.AddTxOut(wire.NewTxOut(int64(changeAmount), pkScript))
	}

	return tx, nil
}

// ChangeAmount returns the implicit change of the proposal.
func (t *TxProposal) ChangeAmount() uint64 {
	totalIn := t.TotalInputAmount()
	spent := t.TotalOutputAmount() + t.Fee
	if totalIn <= spent {
		return 0
	}
	return totalIn - spent
}

// InputSigHashes returns the per-input digests every copayer signs. The
// computation is pure: identical proposals always produce identical digests.
func (t *TxProposal) InputSigHashes() ([][]byte, error) {
	tx, err := t.BuildUnsignedTx()
	if err != nil {
		return nil, err
	}

	digests := make([][]byte, 0, len(t.Inputs))
	switch t.AddressType {
	case address.P2PKH, address.P2SH:
		for i, in := range t.Inputs {
			script, err := t.inputScript(in)
			if err != nil {
				return nil, err
			}
			digest, err := txscript.CalcSignatureHash(
				script, txscript.SigHashAll, tx, i,
			)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
			}
			digests = append(digests, digest)
		}
	case address.P2WPKH, address.P2WSH:
		fetcher, err := t.prevOutFetcher()
		if err != nil {
			return nil, err
		}
		sigHashes := txscript.NewTxSigHashes(tx, fetcher)
		for i, in := range t.Inputs {
			script, err := t.inputScript(in)
			if err != nil {
				return nil, err
			}
			digest, err := txscript.CalcWitnessSigHash(
				script, sigHashes, txscript.SigHashAll, tx, i, int64(in.Satoshis),
			)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
			}
			digests = append(digests, digest)
		}
	default:
		return nil, ErrCouldNotBuildTransaction
	}
	return digests, nil
}

// BuildSignedTx assembles the fully signed raw transaction in hex format
// from the accept actions collected by the proposal.
func (t *TxProposal) BuildSignedTx() (string, error) {
	tx, err := t.BuildUnsignedTx()
	if err != nil {
		return "", err
	}
	digests, err := t.InputSigHashes()
	if err != nil {
		return "", err
	}

	accepted := t.AcceptActions()
	if len(accepted) < t.RequiredSignatures {
		return "", ErrMissingSignatures
	}

	for i, in := range t.Inputs {
		pubkeys, err := parsePublicKeys(in.PublicKeys)
		if err != nil {
			return "", err
		}

		// map each copayer signature to its public key slot so the
		// script-level order matches the redeem script
		sigsBySlot := make(map[int][]byte)
		for _, action := range accepted[:t.RequiredSignatures] {
			rawSig, err := hex.DecodeString(action.Signatures[i])
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
			}
			slot, ok := matchSignature(rawSig, digests[i], pubkeys)
			if !ok {
				return "", fmt.Errorf(
					"%w: signature of copayer %s does not match any input key",
					ErrCouldNotBuildTransaction, action.CopayerId,
				)
			}
			sigsBySlot[slot] = append(rawSig, byte(txscript.SigHashAll))
		}

		orderedSigs := make([][]byte, 0, len(sigsBySlot))
		for slot := 0; slot < len(pubkeys); slot++ {
			if sig, ok := sigsBySlot[slot]; ok {
				orderedSigs = append(orderedSigs, sig)
			}
		}

		if err := t.applyInputSignatures(tx, i, in, orderedSigs); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// ComputeTxId returns the network transaction id of the signed transaction.
func (t *TxProposal) ComputeTxId() (string, error) {
	rawTx, err := t.BuildSignedTx()
	if err != nil {
		return "", err
	}
	rawBytes, _ := hex.DecodeString(rawTx)
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(rawBytes)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
	}
	return tx.TxHash().String(), nil
}

func (t *TxProposal) applyInputSignatures(
	tx *wire.MsgTx, idx int, in Input, orderedSigs [][]byte,
) error {
	script, err := t.inputScript(in)
	if err != nil {
		return err
	}

	switch t.AddressType {
	case address.P2PKH:
		pubkey, _ := hex.DecodeString(in.PublicKeys[0])
		builder := txscript.NewScriptBuilder()
		builder.AddData(orderedSigs[0])
		builder.AddData(pubkey)
		sigScript, err := builder.Script()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
		}
		tx.TxIn[idx].SignatureScript = sigScript
	case address.P2SH:
		builder := txscript.NewScriptBuilder()
		builder.AddOp(txscript.OP_0)
		for _, sig := range orderedSigs {
			builder.AddData(sig)
		}
		builder.AddData(script)
		sigScript, err := builder.Script()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
		}
		tx.TxIn[idx].SignatureScript = sigScript
	case address.P2WPKH:
		pubkey, _ := hex.DecodeString(in.PublicKeys[0])
		tx.TxIn[idx].Witness = wire.TxWitness{orderedSigs[0], pubkey}
	case address.P2WSH:
		witness := wire.TxWitness{nil}
		witness = append(witness, orderedSigs...)
		witness = append(witness, script)
		tx.TxIn[idx].Witness = witness
	default:
		return ErrCouldNotBuildTransaction
	}
	return nil
}

// inputScript returns the script the input's signatures commit to: the
// multisig redeem script for shared wallets, the single-key hash script
// otherwise.
func (t *TxProposal) inputScript(in Input) ([]byte, error) {
	params := t.Network.Params(t.Coin)

	if t.AddressType.IsMultiSig() {
		addrPubkeys := make([]*btcutil.AddressPubKey, 0, len(in.PublicKeys))
		for _, pubkeyHex := range in.PublicKeys {
			rawPubkey, err := hex.DecodeString(pubkeyHex)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
			}
			addrPubkey, err := btcutil.NewAddressPubKey(rawPubkey, params)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
			}
			addrPubkeys = append(addrPubkeys, addrPubkey)
		}
		script, err := txscript.MultiSigScript(addrPubkeys, t.RequiredSignatures)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
		}
		return script, nil
	}

	rawPubkey, err := hex.DecodeString(in.PublicKeys[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(rawPubkey), params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
	}
	return script, nil
}

func (t *TxProposal) prevOutFetcher() (txscript.PrevOutputFetcher, error) {
	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(t.Inputs))
	params := t.Network.Params(t.Coin)
	for _, in := range t.Inputs {
		hash, err := chainhash.NewHashFromStr(in.TxId)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
		}
		addr, err := btcutil.DecodeAddress(in.Address, params)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
		}
		pkScript, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
		}
		prevOuts[*wire.NewOutPoint(hash, in.Vout)] = wire.NewTxOut(
			int64(in.Satoshis), pkScript,
		)
	}
	return txscript.NewMultiPrevOutFetcher(prevOuts), nil
}

func parsePublicKeys(pubkeys []string) ([]*btcec.PublicKey, error) {
	parsed := make([]*btcec.PublicKey, 0, len(pubkeys))
	for _, pubkeyHex := range pubkeys {
		rawPubkey, err := hex.DecodeString(pubkeyHex)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
		}
		pubkey, err := btcec.ParsePubKey(rawPubkey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCouldNotBuildTransaction, err)
		}
		parsed = append(parsed, pubkey)
	}
	return parsed, nil
}

// matchSignature returns the index of the public key a DER signature
// verifies against, mirroring the slot-matching the script interpreter does
// for CHECKMULTISIG.
func matchSignature(
	rawSig, digest []byte, pubkeys []*btcec.PublicKey,
) (int, bool) {
	sig, err := ecdsa.ParseDERSignature(rawSig)
	if err != nil {
		return 0, false
	}
	for i, pubkey := range pubkeys {
		if sig.Verify(digest, pubkey) {
			return i, true
		}
	}
	return 0, false
}
