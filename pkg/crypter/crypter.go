// Package crypter implements the symmetric field-encryption layer used for
// wallet names, copayer names and proposal messages. Keys are 16-byte AES
// keys exchanged as base64 strings; ciphertexts are base64 of nonce-prefixed
// AES-GCM output.
package crypter

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// CannotDecryptSentinel is returned by DecryptNoThrow in place of plaintext
// when decryption fails. Display layers render it instead of crashing on
// fields written by a copayer with a different key.
const CannotDecryptSentinel = "<ECANNOTDECRYPT>"

var (
	// ErrInvalidKey ...
	ErrInvalidKey = errors.New("encrypting key must be 16 bytes, base64 encoded")
	// ErrCannotDecrypt ...
	ErrCannotDecrypt = errors.New("could not decrypt")
)

const keySize = 16

func parseKey(encKey string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encKey)
	if err != nil {
		return nil, ErrInvalidKey
	}
	if len(key) != keySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// Encrypt encrypts the given plaintext with the base64-encoded 16-byte key.
func Encrypt(plainText, encKey string) (string, error) {
	key, err := parseKey(encKey)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	cypherText := gcm.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(cypherText), nil
}

// Decrypt reverses Encrypt. A wrong key, a truncated payload or a flipped
// bit all surface as ErrCannotDecrypt.
func Decrypt(cypherText, encKey string) (string, error) {
	key, err := parseKey(encKey)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(cypherText)
	if err != nil {
		return "", ErrCannotDecrypt
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", ErrCannotDecrypt
	}

	nonce, payload := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plainText, err := gcm.Open(nil, nonce, payload, nil)
	if err != nil {
		return "", ErrCannotDecrypt
	}
	return string(plainText), nil
}

// DecryptNoThrow is the display-path variant of Decrypt: failures yield the
// sentinel instead of an error so a single undecryptable field cannot take
// down a listing.
func DecryptNoThrow(cypherText, encKey string) string {
	plainText, err := Decrypt(cypherText, encKey)
	if err != nil {
		return CannotDecryptSentinel
	}
	return plainText
}
