package secret_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vaultex-network/vaultex-client/pkg/address"
	"github.com/vaultex-network/vaultex-client/pkg/secret"
)

func TestSecretRoundTrip(t *testing.T) {
	coins := []address.Coin{address.BTC, address.BCH}
	networks := []address.Network{address.Livenet, address.Testnet}

	for _, coin := range coins {
		for _, network := range networks {
			for i := 0; i < 100; i++ {
				walletId := uuid.New().String()
				walletPrivKey, err := btcec.NewPrivateKey()
				require.NoError(t, err)

				encoded, err := secret.Build(
					walletId, walletPrivKey, coin, network,
				)
				require.NoError(t, err)

				parsed, err := secret.Parse(encoded)
				require.NoError(t, err)
				require.Equal(t, walletId, parsed.WalletId)
				require.Equal(t, coin, parsed.Coin)
				require.Equal(t, network, parsed.Network)
				require.Equal(
					t,
					walletPrivKey.Serialize(),
					parsed.WalletPrivKey.Serialize(),
				)
			}
		}
	}
}

func TestBuildInvalidWalletId(t *testing.T) {
	walletPrivKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	_, err = secret.Build(
		"not-a-uuid", walletPrivKey, address.BTC, address.Livenet,
	)
	require.ErrorIs(t, err, secret.ErrInvalidSecret)
}

func TestParseInvalidSecrets(t *testing.T) {
	walletPrivKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	valid, err := secret.Build(
		uuid.New().String(), walletPrivKey, address.BTC, address.Livenet,
	)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"too short", valid[:30]},
		{"bad network marker", valid[:74] + "X" + valid[75:]},
		{"corrupted wallet id", "!!!!" + valid[4:]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := secret.Parse(tt.secret)
			require.Error(t, err)
		})
	}
}

func TestParseDefaultsCoinToBTC(t *testing.T) {
	walletPrivKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	encoded, err := secret.Build(
		uuid.New().String(), walletPrivKey, address.BTC, address.Testnet,
	)
	require.NoError(t, err)

	// strip the trailing coin suffix, legacy secrets did not carry it
	stripped := encoded[:75]
	parsed, err := secret.Parse(stripped)
	require.NoError(t, err)
	require.Equal(t, address.BTC, parsed.Coin)
	require.Equal(t, address.Testnet, parsed.Network)
}
