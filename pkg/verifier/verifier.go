// Package verifier implements the trust boundary of the client: every
// security-relevant object returned by the server (copayer rosters, derived
// addresses, transaction proposals) is re-derived or signature-checked
// locally before use. A failed check means the server response cannot be
// trusted, not that the user made a mistake.
package verifier

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/vaultex-network/vaultex-client/pkg/address"
	"github.com/vaultex-network/vaultex-client/pkg/credentials"
	"github.com/vaultex-network/vaultex-client/pkg/proposal"
	"github.com/vaultex-network/vaultex-client/pkg/wallet"
)

var (
	// ErrServerCompromised is returned whenever server-provided data fails
	// local verification. Callers must treat it as an attack indicator and
	// halt, never retry. Returned errors wrap it with the failed check so
	// callers can log the detail.
	ErrServerCompromised = errors.New(
		"server response failed local verification, possible fake data",
	)
	// ErrMissingWalletPrivKey ...
	ErrMissingWalletPrivKey = errors.New(
		"wallet private key is required to verify copayers",
	)
	// ErrMissingPublicKeyRing ...
	ErrMissingPublicKeyRing = errors.New(
		"credentials are not complete, missing public key ring",
	)
)

// Copayer is the roster entry returned by the server for one wallet member.
type Copayer struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	XPubKey       string `json:"xPubKey"`
	RequestPubKey string `json:"requestPubKey"`
	// Signature covers name|xPubKey|requestPubKey and was produced with the
	// wallet private key at join time.
	Signature string `json:"signature"`
}

// CheckCopayers verifies the roster of a wallet: every entry must carry a
// valid join signature under the wallet private key, and the entry claiming
// to be us must advertise exactly our keys.
func CheckCopayers(creds *credentials.Credentials, copayers []Copayer) error {
	walletPrivKey := creds.WalletPrivateKey()
	if walletPrivKey == nil {
		return ErrMissingWalletPrivKey
	}
	walletPubKey := hex.EncodeToString(
		walletPrivKey.PubKey().SerializeCompressed(),
	)

	foundSelf := false
	for _, copayer := range copayers {
		if len(copayer.XPubKey) <= 0 || len(copayer.RequestPubKey) <= 0 {
			return fmt.Errorf(
				"%w: copayer %s has missing keys",
				ErrServerCompromised, copayer.Id,
			)
		}

		hash := CopayerHash(
			copayer.Name, copayer.XPubKey, copayer.RequestPubKey,
		)
		if !wallet.VerifyMessage(hash, copayer.Signature, walletPubKey) {
			return fmt.Errorf(
				"%w: copayer %s has an invalid join signature",
				ErrServerCompromised, copayer.Id,
			)
		}

		if copayer.Id == creds.CopayerId {
			foundSelf = true
			if copayer.XPubKey != creds.XPubKey ||
				copayer.RequestPubKey != creds.RequestPubKey {
				return fmt.Errorf(
					"%w: server advertises different keys for this copayer",
					ErrServerCompromised,
				)
			}
		}
	}

	if !foundSelf {
		return fmt.Errorf(
			"%w: this copayer is missing from the server roster",
			ErrServerCompromised,
		)
	}
	return nil
}

// CheckAddress re-derives a server-provided address from the local public key
// ring and compares the result. Any divergence in address or public keys
// means the server tried to redirect funds.
func CheckAddress(creds *credentials.Credentials, addr *address.Info) error {
	if !creds.IsComplete() {
		return ErrMissingPublicKeyRing
	}

	derived, err := address.Derive(address.DeriveOpts{
		ScriptType:         creds.AddressType,
		PublicKeyRing:      creds.RingXPubKeys(),
		Path:               addr.Path,
		RequiredSignatures: creds.M,
		Coin:               creds.Coin,
		Network:            creds.Network,
	})
	if err != nil {
		return err
	}

	if derived.Address != addr.Address {
		return fmt.Errorf(
			"%w: address %s does not match local derivation %s",
			ErrServerCompromised, addr.Address, derived.Address,
		)
	}
	if !equalStrings(derived.PublicKeys, addr.PublicKeys) {
		return fmt.Errorf(
			"%w: address public keys do not match local derivation",
			ErrServerCompromised,
		)
	}
	return nil
}

// CheckProposalOpts optionally pins the payment intent the local user
// expressed, so a proposal that was valid-but-substituted is still rejected.
type CheckProposalOpts struct {
	ToAddress string
	Amount    uint64
	// PayProUrl must match when the proposal settles a payment request.
	PayProUrl string
}

// CheckProposal authenticates a server-provided proposal before voting on it:
// the creator must be a wallet member, the proposal signature must verify
// under the creator's request key over the canonical header (which commits to
// inputs, outputs, fee and change address), the fee must stay within the
// safety bound, and the change address (when present) must belong to this
// wallet.
func CheckProposal(
	creds *credentials.Credentials, txp *proposal.TxProposal,
	opts *CheckProposalOpts,
) error {
	if !creds.IsComplete() {
		return ErrMissingPublicKeyRing
	}

	creator := findCreator(creds, txp.CreatorId)
	if creator == nil {
		return fmt.Errorf(
			"%w: proposal creator %s is not a wallet member",
			ErrServerCompromised, txp.CreatorId,
		)
	}

	if !wallet.VerifyMessage(
		txp.Header(), txp.ProposalSignature, creator.RequestPubKey,
	) {
		return fmt.Errorf(
			"%w: proposal signature does not verify under creator request key",
			ErrServerCompromised,
		)
	}

	// the signature binds the fee, this bounds what a creator can sign away
	if txp.Fee > proposal.MaxTxFee {
		return fmt.Errorf(
			"%w: proposal fee %d exceeds the safety bound",
			ErrServerCompromised, txp.Fee,
		)
	}

	if txp.ChangeAddress != nil {
		if err := CheckAddress(creds, &address.Info{
			Address:    txp.ChangeAddress.Address,
			Path:       txp.ChangeAddress.Path,
			PublicKeys: txp.ChangeAddress.PublicKeys,
		}); err != nil {
			return err
		}
	}

	if opts != nil {
		if err := checkIntent(txp, opts); err != nil {
			return err
		}
	}
	return nil
}

// checkIntent compares the signed proposal against what the user asked for.
func checkIntent(txp *proposal.TxProposal, opts *CheckProposalOpts) error {
	if len(opts.PayProUrl) > 0 {
		if txp.PayProUrl != opts.PayProUrl {
			return fmt.Errorf(
				"%w: proposal settles a different payment request",
				ErrServerCompromised,
			)
		}
		// destinations of a payment request are checked against the
		// request itself, not against user input
		return nil
	}
	if len(txp.Outputs) != 1 {
		return fmt.Errorf(
			"%w: proposal carries unexpected outputs", ErrServerCompromised,
		)
	}
	out := txp.Outputs[0]
	if out.ToAddress != opts.ToAddress || out.Amount != opts.Amount {
		return fmt.Errorf(
			"%w: proposal pays %d to %s instead of %d to %s",
			ErrServerCompromised,
			out.Amount, out.ToAddress, opts.Amount, opts.ToAddress,
		)
	}
	return nil
}

func findCreator(
	creds *credentials.Credentials, creatorId string,
) *credentials.PublicKeyRingEntry {
	for i := range creds.PublicKeyRing {
		entry := creds.PublicKeyRing[i]
		if credentials.XPubToCopayerId(creds.Coin, entry.XPubKey) == creatorId {
			return &entry
		}
	}
	return nil
}

// CopayerHash is the string a joining copayer signs with the wallet private
// key to bind its name and keys to the wallet.
func CopayerHash(name, xPubKey, requestPubKey string) string {
	return name + "|" + xPubKey + "|" + requestPubKey
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
