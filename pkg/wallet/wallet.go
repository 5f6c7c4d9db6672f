package wallet

import (
	"errors"
)

var (
	// ErrInvalidSeed ...
	ErrInvalidSeed = errors.New("seed data is not a valid mnemonic or extended private key")
	// ErrInvalidSeedType ...
	ErrInvalidSeedType = errors.New(
		"seed type must be one of 'new', 'mnemonic', 'extendedPrivateKey'",
	)
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic is null")
	// ErrNullPassword ...
	ErrNullPassword = errors.New("password must not be null")
	// ErrKeyEncrypted ...
	ErrKeyEncrypted = errors.New(
		"private key is encrypted, provide the password to use it",
	)
	// ErrKeyNotEncrypted ...
	ErrKeyNotEncrypted = errors.New("private key is not encrypted")
	// ErrInvalidPassword ...
	ErrInvalidPassword = errors.New("password is not valid")
	// ErrNonCompliantDerivation is returned when deriving credentials from a
	// key imported from a wallet with the pre-BIP32 derivation bug: deriving
	// it the compliant way would reconstruct addresses that never held the
	// funds, so the operation is refused instead.
	ErrNonCompliantDerivation = errors.New(
		"key uses non-compliant derivation, addresses cannot be recovered",
	)
)

// SeedType enumerates the supported sources of key material.
type SeedType string

const (
	// SeedTypeNew ...
	SeedTypeNew SeedType = "new"
	// SeedTypeMnemonic ...
	SeedTypeMnemonic SeedType = "mnemonic"
	// SeedTypeExtendedPrivateKey ...
	SeedTypeExtendedPrivateKey SeedType = "extendedPrivateKey"
)

// Key holds the master private material of a copayer along with the
// derivation policy flags. It is immutable once created, aside from the
// optional symmetric encryption wrapper that can be applied and removed
// explicitly. No remote copy of this material ever exists.
type Key struct {
	id                    string
	xPrivKey              string
	xPrivKeyEncrypted     string
	mnemonic              string
	mnemonicEncrypted     string
	mnemonicHasPassphrase bool
	fingerprint           string

	compliantDerivation bool
	use0ForBCH          bool
	use44ForMultisig    bool
}

// NewKeyOpts is the struct given to the NewKey function
type NewKeyOpts struct {
	SeedType   SeedType
	SeedData   string
	Passphrase string
	// EntropySize applies to SeedTypeNew only; 0 means 128 bits.
	EntropySize int

	// UseLegacyPurpose forces purpose 44' for multisig wallets, for
	// recovering wallets created before the BIP48 upgrade.
	UseLegacyPurpose bool
	// Use0ForBCH forces coin type 0' for BCH wallets, for recovering
	// wallets created before the coin type split.
	Use0ForBCH bool
	// NonCompliantDerivation marks keys imported from wallets that derived
	// with the pre-BIP32-compliance bug.
	NonCompliantDerivation bool
}

func (o NewKeyOpts) validate() error {
	switch o.SeedType {
	case SeedTypeNew:
		if o.EntropySize != 0 {
			if o.EntropySize < 128 || o.EntropySize > 256 || o.EntropySize%32 != 0 {
				return ErrInvalidEntropySize
			}
		}
	case SeedTypeMnemonic:
		if len(o.SeedData) <= 0 {
			return ErrNullMnemonic
		}
		if !isMnemonicValid(o.SeedData) {
			return ErrInvalidSeed
		}
	case SeedTypeExtendedPrivateKey:
		if !isExtendedPrivateKeyValid(o.SeedData) {
			return ErrInvalidSeed
		}
	default:
		return ErrInvalidSeedType
	}
	return nil
}

// NewKey creates key material from fresh entropy, an imported mnemonic or an
// externally supplied extended private key.
func NewKey(opts NewKeyOpts) (*Key, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	key := &Key{
		id:                  newKeyID(),
		compliantDerivation: !opts.NonCompliantDerivation,
		use0ForBCH:          opts.Use0ForBCH,
		use44ForMultisig:    opts.UseLegacyPurpose,
	}

	switch opts.SeedType {
	case SeedTypeNew:
		entropySize := opts.EntropySize
		if entropySize == 0 {
			entropySize = 128
		}
		mnemonic, err := generateMnemonic(entropySize)
		if err != nil {
			return nil, err
		}
		if err := key.setFromMnemonic(mnemonic, opts.Passphrase); err != nil {
			return nil, err
		}
	case SeedTypeMnemonic:
		if err := key.setFromMnemonic(opts.SeedData, opts.Passphrase); err != nil {
			return nil, err
		}
	case SeedTypeExtendedPrivateKey:
		if err := key.setFromExtendedPrivateKey(opts.SeedData); err != nil {
			return nil, err
		}
	}

	return key, nil
}

func (k *Key) setFromMnemonic(mnemonic, passphrase string) error {
	seed := generateSeedFromMnemonic(mnemonic, passphrase)
	xprv, err := masterKeyFromSeed(seed)
	if err != nil {
		return ErrInvalidSeed
	}
	k.mnemonic = mnemonic
	k.mnemonicHasPassphrase = len(passphrase) > 0
	k.xPrivKey = xprv
	k.fingerprint = masterFingerprint(xprv)
	return nil
}

func (k *Key) setFromExtendedPrivateKey(xprv string) error {
	if !isExtendedPrivateKeyValid(xprv) {
		return ErrInvalidSeed
	}
	k.xPrivKey = xprv
	k.fingerprint = masterFingerprint(xprv)
	return nil
}

// Id returns the identifier of this key material, used to link credentials
// back to the key that generated them.
func (k *Key) Id() string {
	return k.id
}

// Fingerprint returns the BIP32 fingerprint of the master public key.
func (k *Key) Fingerprint() string {
	return k.fingerprint
}

// UseLegacyPurpose returns whether multisig wallets derived from this key use
// the legacy 44' purpose.
func (k *Key) UseLegacyPurpose() bool {
	return k.use44ForMultisig
}

// Use0ForBCH returns whether BCH wallets derived from this key use the legacy
// 0' coin type.
func (k *Key) Use0ForBCH() bool {
	return k.use0ForBCH
}

// CompliantDerivation returns whether this key derives with BIP32-compliant
// private key serialization.
func (k *Key) CompliantDerivation() bool {
	return k.compliantDerivation
}

// MnemonicHasPassphrase returns whether the stored mnemonic requires a seed
// passphrase to reproduce the master key.
func (k *Key) MnemonicHasPassphrase() bool {
	return k.mnemonicHasPassphrase
}

// IsPrivKeyEncrypted returns whether the encryption wrapper is currently
// applied.
func (k *Key) IsPrivKeyEncrypted() bool {
	return len(k.xPrivKeyEncrypted) > 0
}

// Mnemonic returns the mnemonic backing this key, if any.
func (k *Key) Mnemonic(password string) (string, error) {
	if k.IsPrivKeyEncrypted() {
		if len(k.mnemonicEncrypted) <= 0 {
			return "", ErrNullMnemonic
		}
		return decryptKeyMaterial(k.mnemonicEncrypted, password)
	}
	if len(k.mnemonic) <= 0 {
		return "", ErrNullMnemonic
	}
	return k.mnemonic, nil
}

// ExtendedPrivateKey returns the master extended private key in base58
// format.
func (k *Key) ExtendedPrivateKey(password string) (string, error) {
	return k.xPrivKeyWithPassword(password)
}

func (k *Key) xPrivKeyWithPassword(password string) (string, error) {
	if !k.IsPrivKeyEncrypted() {
		return k.xPrivKey, nil
	}
	if len(password) <= 0 {
		return "", ErrKeyEncrypted
	}
	xprv, err := decryptKeyMaterial(k.xPrivKeyEncrypted, password)
	if err != nil {
		return "", ErrInvalidPassword
	}
	return xprv, nil
}

// Encrypt applies the symmetric encryption wrapper to the private material.
func (k *Key) Encrypt(password string) error {
	if len(password) <= 0 {
		return ErrNullPassword
	}
	if k.IsPrivKeyEncrypted() {
		return ErrKeyEncrypted
	}

	encryptedXPriv, err := encryptKeyMaterial(k.xPrivKey, password)
	if err != nil {
		return err
	}
	if len(k.mnemonic) > 0 {
		encryptedMnemonic, err := encryptKeyMaterial(k.mnemonic, password)
		if err != nil {
			return err
		}
		k.mnemonicEncrypted = encryptedMnemonic
		k.mnemonic = ""
	}
	k.xPrivKeyEncrypted = encryptedXPriv
	k.xPrivKey = ""
	return nil
}

// Decrypt removes the symmetric encryption wrapper from the private material.
func (k *Key) Decrypt(password string) error {
	if !k.IsPrivKeyEncrypted() {
		return ErrKeyNotEncrypted
	}

	xPrivKey, err := decryptKeyMaterial(k.xPrivKeyEncrypted, password)
	if err != nil {
		return ErrInvalidPassword
	}
	if len(k.mnemonicEncrypted) > 0 {
		mnemonic, err := decryptKeyMaterial(k.mnemonicEncrypted, password)
		if err != nil {
			return ErrInvalidPassword
		}
		k.mnemonic = mnemonic
		k.mnemonicEncrypted = ""
	}
	k.xPrivKey = xPrivKey
	k.xPrivKeyEncrypted = ""
	return nil
}
