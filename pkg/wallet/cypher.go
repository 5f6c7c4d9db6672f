package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/scrypt"
)

var (
	// ErrInvalidCypherText ...
	ErrInvalidCypherText = errors.New("cypher must be in base64 format")
)

// encryptKeyMaterial encrypts (with AES-256) the given text with the provided
// password, appending the scrypt salt to the returned base64 payload.
func encryptKeyMaterial(plainText, password string) (string, error) {
	key, salt, err := deriveCypherKey([]byte(password), nil)
	if err != nil {
		return "", err
	}

	blockCipher, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(blockCipher)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	cypherText := gcm.Seal(nonce, nonce, []byte(plainText), nil)
	cypherText = append(cypherText, salt...)

	return base64.StdEncoding.EncodeToString(cypherText), nil
}

// decryptKeyMaterial decrypts a payload produced by encryptKeyMaterial.
func decryptKeyMaterial(cypherText, password string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(cypherText)
	if err != nil {
		return "", ErrInvalidCypherText
	}
	if len(data) <= 32 {
		return "", ErrInvalidCypherText
	}
	salt, data := data[len(data)-32:], data[:len(data)-32]

	key, _, err := deriveCypherKey([]byte(password), salt)
	if err != nil {
		return "", err
	}

	blockCipher, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(blockCipher)
	if err != nil {
		return "", err
	}
	if len(data) <= gcm.NonceSize() {
		return "", ErrInvalidCypherText
	}
	nonce, text := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plainText, err := gcm.Open(nil, nonce, text, nil)
	if err != nil {
		return "", err
	}
	return string(plainText), nil
}

// deriveCypherKey derives a 32 byte key from a custom password.
// 2^20 is the recommended scrypt work factor for key-stretching at rest.
func deriveCypherKey(password, salt []byte) ([]byte, []byte, error) {
	if salt == nil {
		salt = make([]byte, 32)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, err
		}
	}
	key, err := scrypt.Key(password, salt, 1048576, 8, 1, 32)
	if err != nil {
		return nil, nil, err
	}
	return key, salt, nil
}
