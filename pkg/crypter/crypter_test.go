package crypter_test

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultex-network/vaultex-client/pkg/crypter"
)

func newKey(t *testing.T) string {
	t.Helper()
	raw := make([]byte, 16)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestEncryptDecrypt(t *testing.T) {
	key := newKey(t)

	for _, plainText := range []string{"", "hello copayers", "émojis 🚀 too"} {
		cypherText, err := crypter.Encrypt(plainText, key)
		require.NoError(t, err)
		require.NotEqual(t, plainText, cypherText)

		decrypted, err := crypter.Decrypt(cypherText, key)
		require.NoError(t, err)
		require.Equal(t, plainText, decrypted)
	}
}

func TestEncryptIsRandomized(t *testing.T) {
	key := newKey(t)

	first, err := crypter.Encrypt("same message", key)
	require.NoError(t, err)
	second, err := crypter.Encrypt("same message", key)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestDecryptWrongKey(t *testing.T) {
	cypherText, err := crypter.Encrypt("secret name", newKey(t))
	require.NoError(t, err)

	_, err = crypter.Decrypt(cypherText, newKey(t))
	require.ErrorIs(t, err, crypter.ErrCannotDecrypt)
}

func TestDecryptGarbage(t *testing.T) {
	key := newKey(t)

	tests := []struct {
		name       string
		cypherText string
	}{
		{"not base64", "$$$$"},
		{"too short", base64.StdEncoding.EncodeToString([]byte{1, 2, 3})},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := crypter.Decrypt(tt.cypherText, key)
			require.ErrorIs(t, err, crypter.ErrCannotDecrypt)
		})
	}
}

func TestDecryptTamperedPayload(t *testing.T) {
	key := newKey(t)
	cypherText, err := crypter.Encrypt("wallet name", key)
	require.NoError(t, err)

	raw, _ := base64.StdEncoding.DecodeString(cypherText)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = crypter.Decrypt(tampered, key)
	require.ErrorIs(t, err, crypter.ErrCannotDecrypt)
}

func TestInvalidKey(t *testing.T) {
	_, err := crypter.Encrypt("text", "tooshort")
	require.ErrorIs(t, err, crypter.ErrInvalidKey)

	longKey := base64.StdEncoding.EncodeToString(make([]byte, 32))
	_, err = crypter.Encrypt("text", longKey)
	require.ErrorIs(t, err, crypter.ErrInvalidKey)
}

func TestDecryptNoThrow(t *testing.T) {
	key := newKey(t)

	cypherText, err := crypter.Encrypt("readable", key)
	require.NoError(t, err)
	require.Equal(t, "readable", crypter.DecryptNoThrow(cypherText, key))

	require.Equal(
		t, crypter.CannotDecryptSentinel,
		crypter.DecryptNoThrow(cypherText, newKey(t)),
	)
	require.Equal(
		t, crypter.CannotDecryptSentinel,
		crypter.DecryptNoThrow("garbage", key),
	)
}
