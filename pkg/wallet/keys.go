package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"

	"github.com/vaultex-network/vaultex-client/pkg/address"
	"github.com/vaultex-network/vaultex-client/pkg/credentials"
)

const (
	// RequestKeyPath is the derivation path of the request keypair used to
	// authenticate API calls, kept separate from the funds key.
	RequestKeyPath = "m/1'/0'"
	// RequestKeyAuthPath is the relative path of the key that signs
	// delegated request public keys for access grants. It is non-hardened
	// so counterparts can verify grants from the extended public key alone.
	RequestKeyAuthPath = "m/2"
)

// DeriveCredentialsOpts is the struct given to the DeriveCredentials method
type DeriveCredentialsOpts struct {
	Coin    address.Coin
	Network address.Network
	Account uint32
	N       int
	// AddressType is optional; when empty the default for the wallet size
	// applies (P2PKH for single-sig, P2SH for shared wallets).
	AddressType address.ScriptType
	// UseBIP45 selects the legacy shared-account multisig derivation,
	// kept for recovering pre-upgrade wallets.
	UseBIP45 bool
	// Password unlocks the key material when the encryption wrapper is
	// applied.
	Password string
}

func (o DeriveCredentialsOpts) validate() error {
	if err := o.Coin.Validate(); err != nil {
		return err
	}
	if err := o.Network.Validate(); err != nil {
		return err
	}
	if o.N < 1 {
		return fmt.Errorf("n must be >= 1")
	}
	if o.AddressType != "" {
		if err := o.AddressType.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BaseAddressDerivationPath returns the root derivation path for the wallet
// described by opts: purpose 44' for single-sig (or legacy multisig), 48' for
// modern multisig, 45' when the BIP45 shared-account strategy is requested.
func (k *Key) BaseAddressDerivationPath(opts DeriveCredentialsOpts) string {
	if opts.UseBIP45 {
		return "m/45'"
	}

	purpose := "48"
	if opts.N == 1 || k.use44ForMultisig {
		purpose = "44"
	}

	coinCode := "0"
	switch {
	case opts.Network == address.Testnet:
		coinCode = "1"
	case opts.Coin == address.BCH && !k.use0ForBCH:
		coinCode = "145"
	}

	return fmt.Sprintf("m/%s'/%s'/%d'", purpose, coinCode, opts.Account)
}

// DeriveCredentials derives the per-wallet credential bundle for this key:
// the funds extended public key at the root path selected by the derivation
// rules, plus a request keypair independent from the funds key.
func (k *Key) DeriveCredentials(
	opts DeriveCredentialsOpts,
) (*credentials.Credentials, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	// keys from wallets with the legacy derivation bug would silently derive
	// addresses that never held the funds
	if !k.compliantDerivation {
		return nil, ErrNonCompliantDerivation
	}

	rootPath := k.BaseAddressDerivationPath(opts)
	xPrivKey, err := k.deriveExtendedKey(rootPath, opts.Password)
	if err != nil {
		return nil, err
	}
	xPubKey, err := xPrivKey.Neuter()
	if err != nil {
		return nil, err
	}

	requestPrivKey, err := k.derivePrivateKey(RequestKeyPath, opts.Password)
	if err != nil {
		return nil, err
	}

	strategy := credentials.DerivationStrategyBIP48
	if opts.UseBIP45 {
		strategy = credentials.DerivationStrategyBIP45
	} else if opts.N == 1 || k.use44ForMultisig {
		strategy = credentials.DerivationStrategyBIP44
	}

	return credentials.FromDerivedKey(credentials.FromDerivedKeyOpts{
		Coin:               opts.Coin,
		Network:            opts.Network,
		Account:            opts.Account,
		N:                  opts.N,
		XPubKey:            xPubKey.String(),
		RootPath:           rootPath,
		KeyId:              k.id,
		RequestPrivKey:     hex.EncodeToString(requestPrivKey.Serialize()),
		AddressType:        opts.AddressType,
		DerivationStrategy: strategy,
	})
}

// CreateAccessOpts is the struct given to the CreateAccess method
type CreateAccessOpts struct {
	Path string
	// RequestPrivKey is optional; when omitted a fresh keypair is
	// generated and returned for out-of-band transport.
	RequestPrivKey string
	Password       string
}

// Access is a delegated request keypair scoped to a derivation path,
// authorized by a signature of the funds key without ever exposing it.
type Access struct {
	RequestPrivKey string
	RequestPubKey  string
	Signature      string
}

// CreateAccess issues a secondary request keypair for delegated, revocable
// API access.
func (k *Key) CreateAccess(opts CreateAccessOpts) (*Access, error) {
	if _, err := address.ParseDerivationPath(opts.Path); err != nil {
		return nil, err
	}

	var requestPrivKey *btcec.PrivateKey
	if len(opts.RequestPrivKey) > 0 {
		rawKey, err := hex.DecodeString(opts.RequestPrivKey)
		if err != nil || len(rawKey) != 32 {
			return nil, fmt.Errorf("request private key must be 32 bytes in hex format")
		}
		requestPrivKey, _ = btcec.PrivKeyFromBytes(rawKey)
	} else {
		var err error
		requestPrivKey, err = btcec.NewPrivateKey()
		if err != nil {
			return nil, err
		}
	}
	requestPubKey := hex.EncodeToString(
		requestPrivKey.PubKey().SerializeCompressed(),
	)

	xPrivKey, err := k.deriveExtendedKey(opts.Path, opts.Password)
	if err != nil {
		return nil, err
	}
	signature, err := signRequestPubKey(requestPubKey, xPrivKey)
	if err != nil {
		return nil, err
	}

	return &Access{
		RequestPrivKey: hex.EncodeToString(requestPrivKey.Serialize()),
		RequestPubKey:  requestPubKey,
		Signature:      signature,
	}, nil
}

// SignRequestPubKey authorizes a request public key with the funds key
// derived at the request-auth path under the given extended private key.
func SignRequestPubKey(requestPubKey, xPrivKey string) (string, error) {
	hdNode, err := hdkeychain.NewKeyFromString(xPrivKey)
	if err != nil {
		return "", ErrInvalidSeed
	}
	return signRequestPubKey(requestPubKey, hdNode)
}

// VerifyRequestPubKey checks the access-grant signature over requestPubKey
// against the key derived at the request-auth path under xPubKey.
func VerifyRequestPubKey(requestPubKey, signature, xPubKey string) bool {
	hdNode, err := hdkeychain.NewKeyFromString(xPubKey)
	if err != nil {
		return false
	}
	authPath, _ := address.ParseDerivationPath(RequestKeyAuthPath)
	for _, step := range authPath {
		hdNode, err = hdNode.Derive(step)
		if err != nil {
			return false
		}
	}
	pubkey, err := hdNode.ECPubKey()
	if err != nil {
		return false
	}
	return VerifyMessage(
		requestPubKey, signature,
		hex.EncodeToString(pubkey.SerializeCompressed()),
	)
}

func signRequestPubKey(
	requestPubKey string, xPrivKey *hdkeychain.ExtendedKey,
) (string, error) {
	authPath, _ := address.ParseDerivationPath(RequestKeyAuthPath)
	hdNode := xPrivKey
	var err error
	for _, step := range authPath {
		hdNode, err = hdNode.Derive(step)
		if err != nil {
			return "", err
		}
	}
	privKey, err := hdNode.ECPrivKey()
	if err != nil {
		return "", err
	}
	return SignMessage(requestPubKey, privKey), nil
}

func (k *Key) deriveExtendedKey(
	path, password string,
) (*hdkeychain.ExtendedKey, error) {
	xprv, err := k.xPrivKeyWithPassword(password)
	if err != nil {
		return nil, err
	}
	hdNode, err := hdkeychain.NewKeyFromString(xprv)
	if err != nil {
		return nil, ErrInvalidSeed
	}
	derivationPath, err := address.ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}
	for _, step := range derivationPath {
		hdNode, err = hdNode.Derive(step)
		if err != nil {
			return nil, err
		}
	}
	return hdNode, nil
}

func (k *Key) derivePrivateKey(
	path, password string,
) (*btcec.PrivateKey, error) {
	hdNode, err := k.deriveExtendedKey(path, password)
	if err != nil {
		return nil, err
	}
	return hdNode.ECPrivKey()
}
