package credentials

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/vaultex-network/vaultex-client/pkg/address"
)

// Version is the current credentials format version. Older formats are
// upgraded through the migration functions in this package.
const Version = 2

var (
	// ErrNullXPubKey ...
	ErrNullXPubKey = errors.New("xPubKey must not be null")
	// ErrNullRootPath ...
	ErrNullRootPath = errors.New("rootPath must not be null")
	// ErrNullKeyId ...
	ErrNullKeyId = errors.New("keyId must not be null")
	// ErrInvalidRequestPrivKey ...
	ErrInvalidRequestPrivKey = errors.New(
		"requestPrivKey must be 32 bytes in hex format",
	)
	// ErrInvalidWalletPrivKey ...
	ErrInvalidWalletPrivKey = errors.New(
		"walletPrivKey must be 32 bytes in hex format",
	)
	// ErrInvalidN ...
	ErrInvalidN = errors.New("n must be >= 1")
	// ErrWalletInfoAlreadySet ...
	ErrWalletInfoAlreadySet = errors.New("wallet info is already set")
	// ErrInvalidPublicKeyRing ...
	ErrInvalidPublicKeyRing = errors.New(
		"every public key ring entry must carry xPubKey and requestPubKey",
	)
)

// DerivationStrategy is the BIP32 path convention a wallet uses.
type DerivationStrategy string

const (
	// DerivationStrategyBIP44 ...
	DerivationStrategyBIP44 DerivationStrategy = "BIP44"
	// DerivationStrategyBIP45 ...
	DerivationStrategyBIP45 DerivationStrategy = "BIP45"
	// DerivationStrategyBIP48 ...
	DerivationStrategyBIP48 DerivationStrategy = "BIP48"
)

// PublicKeyRingEntry is the public identity of one copayer: the funds
// extended public key plus the request public key, optionally signed by the
// wallet private key at join time.
type PublicKeyRingEntry struct {
	XPubKey       string `json:"xPubKey"`
	RequestPubKey string `json:"requestPubKey"`
	CopayerName   string `json:"copayerName,omitempty"`
}

// Credentials is the per-wallet, per-coin bundle derived from a Key. It is
// created at wallet-creation or join time, completed once all n copayers have
// joined, and immutable afterwards aside from access grants.
type Credentials struct {
	Version               int
	Coin                  address.Coin
	Network               address.Network
	Account               uint32
	M                     int
	N                     int
	XPubKey               string
	RequestPrivKey        string
	RequestPubKey         string
	CopayerId             string
	PublicKeyRing         []PublicKeyRingEntry
	WalletId              string
	WalletName            string
	WalletPrivKey         string
	SharedEncryptingKey   string
	PersonalEncryptingKey string
	CopayerName           string
	DerivationStrategy    DerivationStrategy
	RootPath              string
	KeyId                 string
	AddressType           address.ScriptType
	CompliantDerivation   bool
}

// FromDerivedKeyOpts is the struct given to the FromDerivedKey function
type FromDerivedKeyOpts struct {
	Coin               address.Coin
	Network            address.Network
	Account            uint32
	N                  int
	XPubKey            string
	RootPath           string
	KeyId              string
	RequestPrivKey     string
	AddressType        address.ScriptType
	DerivationStrategy DerivationStrategy
	WalletPrivKey      string
	CopayerName        string
}

func (o FromDerivedKeyOpts) validate() error {
	if err := o.Coin.Validate(); err != nil {
		return err
	}
	if err := o.Network.Validate(); err != nil {
		return err
	}
	if o.N < 1 {
		return ErrInvalidN
	}
	if len(o.XPubKey) <= 0 {
		return ErrNullXPubKey
	}
	if len(o.RootPath) <= 0 {
		return ErrNullRootPath
	}
	if len(o.KeyId) <= 0 {
		return ErrNullKeyId
	}
	if !isValidPrivKeyHex(o.RequestPrivKey) {
		return ErrInvalidRequestPrivKey
	}
	if len(o.WalletPrivKey) > 0 && !isValidPrivKeyHex(o.WalletPrivKey) {
		return ErrInvalidWalletPrivKey
	}
	if o.AddressType != "" {
		if err := o.AddressType.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FromDerivedKey builds a credential bundle from a derived funds public key
// and request private key.
func FromDerivedKey(opts FromDerivedKeyOpts) (*Credentials, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	requestPrivKey := privKeyFromHex(opts.RequestPrivKey)
	requestPubKey := hex.EncodeToString(
		requestPrivKey.PubKey().SerializeCompressed(),
	)

	addressType := opts.AddressType
	if addressType == "" {
		addressType = address.DefaultScriptType(opts.N)
	}

	c := &Credentials{
		Version:               Version,
		Coin:                  opts.Coin,
		Network:               opts.Network,
		Account:               opts.Account,
		N:                     opts.N,
		XPubKey:               opts.XPubKey,
		RequestPrivKey:        opts.RequestPrivKey,
		RequestPubKey:         requestPubKey,
		CopayerId:             XPubToCopayerId(opts.Coin, opts.XPubKey),
		PersonalEncryptingKey: personalEncryptingKey(requestPrivKey),
		CopayerName:           opts.CopayerName,
		DerivationStrategy:    opts.DerivationStrategy,
		RootPath:              opts.RootPath,
		KeyId:                 opts.KeyId,
		AddressType:           addressType,
		CompliantDerivation:   true,
		PublicKeyRing: []PublicKeyRingEntry{{
			XPubKey:       opts.XPubKey,
			RequestPubKey: requestPubKey,
		}},
	}
	if len(opts.WalletPrivKey) > 0 {
		c.AddWalletPrivateKey(opts.WalletPrivKey)
	}
	return c, nil
}

// XPubToCopayerId derives the deterministic copayer identifier from the
// string serialization of the funds extended public key. Two credentials
// holding the same funds key always map to the same id, which lets the
// server deduplicate joins.
func XPubToCopayerId(coin address.Coin, xPubKey string) string {
	str := xPubKey
	if coin != address.BTC {
		str = coin.String() + xPubKey
	}
	hash := sha256.Sum256([]byte(str))
	return hex.EncodeToString(hash[:])
}

// AddWalletPrivateKey binds the wallet shared private key and derives the
// shared encrypting key from it.
func (c *Credentials) AddWalletPrivateKey(walletPrivKey string) {
	c.WalletPrivKey = walletPrivKey
	c.SharedEncryptingKey = PrivateKeyToAESKey(walletPrivKey)
}

// AddWalletInfoOpts is the struct given to the AddWalletInfo method
type AddWalletInfoOpts struct {
	WalletId      string
	WalletName    string
	M             int
	N             int
	WalletPrivKey string
	CopayerName   string
}

// AddWalletInfo binds the credentials to a created or joined wallet.
func (c *Credentials) AddWalletInfo(opts AddWalletInfoOpts) error {
	if opts.N != c.N {
		return errors.New("wallet n does not match the derived credentials")
	}
	c.WalletId = opts.WalletId
	c.WalletName = opts.WalletName
	c.M = opts.M
	if len(opts.CopayerName) > 0 {
		c.CopayerName = opts.CopayerName
	}
	if len(opts.WalletPrivKey) > 0 {
		if !isValidPrivKeyHex(opts.WalletPrivKey) {
			return ErrInvalidWalletPrivKey
		}
		c.AddWalletPrivateKey(opts.WalletPrivKey)
	}

	if opts.N == 1 {
		c.AddPublicKeyRing([]PublicKeyRingEntry{{
			XPubKey:       c.XPubKey,
			RequestPubKey: c.RequestPubKey,
		}})
	}
	return nil
}

// AddPublicKeyRing replaces the ring with the given entries, one per joined
// copayer.
func (c *Credentials) AddPublicKeyRing(ring []PublicKeyRingEntry) error {
	for _, entry := range ring {
		if len(entry.XPubKey) <= 0 || len(entry.RequestPubKey) <= 0 {
			return ErrInvalidPublicKeyRing
		}
	}
	c.PublicKeyRing = append([]PublicKeyRingEntry{}, ring...)
	return nil
}

// IsComplete returns whether all n copayers have joined the wallet.
func (c *Credentials) IsComplete() bool {
	if len(c.WalletId) <= 0 {
		return false
	}
	return len(c.PublicKeyRing) == c.N
}

// RingXPubKeys returns the ring's extended public keys in ring order, the
// shape the address deriver consumes.
func (c *Credentials) RingXPubKeys() []string {
	xpubs := make([]string, 0, len(c.PublicKeyRing))
	for _, entry := range c.PublicKeyRing {
		xpubs = append(xpubs, entry.XPubKey)
	}
	return xpubs
}

// RequestPrivateKey returns the parsed request private key.
func (c *Credentials) RequestPrivateKey() *btcec.PrivateKey {
	return privKeyFromHex(c.RequestPrivKey)
}

// WalletPrivateKey returns the parsed wallet shared private key, or nil when
// not held.
func (c *Credentials) WalletPrivateKey() *btcec.PrivateKey {
	if len(c.WalletPrivKey) <= 0 {
		return nil
	}
	return privKeyFromHex(c.WalletPrivKey)
}

// PrivateKeyToAESKey derives the 16 byte AES key shared among copayers from
// the wallet private key.
func PrivateKeyToAESKey(privKeyHex string) string {
	raw, _ := hex.DecodeString(privKeyHex)
	hash := sha256.Sum256(raw)
	return base64.StdEncoding.EncodeToString(hash[:16])
}

func personalEncryptingKey(privKey *btcec.PrivateKey) string {
	entropy := sha256.Sum256(privKey.Serialize())
	mac := hmac.New(sha256.New, []byte("personalKey"))
	mac.Write(entropy[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)[:16])
}

func isValidPrivKeyHex(privKeyHex string) bool {
	raw, err := hex.DecodeString(privKeyHex)
	return err == nil && len(raw) == 32
}

func privKeyFromHex(privKeyHex string) *btcec.PrivateKey {
	raw, _ := hex.DecodeString(privKeyHex)
	privKey, _ := btcec.PrivKeyFromBytes(raw)
	return privKey
}
