package address_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/vaultex-network/vaultex-client/pkg/address"
)

func newRing(t *testing.T, size int) []string {
	t.Helper()
	ring := make([]string, 0, size)
	for i := 0; i < size; i++ {
		seed := make([]byte, 32)
		seed[0] = byte(i + 1)
		master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
		require.NoError(t, err)
		xpub, err := master.Neuter()
		require.NoError(t, err)
		ring = append(ring, xpub.String())
	}
	return ring
}

func TestDeriveIsDeterministic(t *testing.T) {
	ring := newRing(t, 3)
	opts := address.DeriveOpts{
		ScriptType:         address.P2SH,
		PublicKeyRing:      ring,
		Path:               "m/0/7",
		RequiredSignatures: 2,
		Coin:               address.BTC,
		Network:            address.Livenet,
	}

	first, err := address.Derive(opts)
	require.NoError(t, err)
	second, err := address.Derive(opts)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// ring order must not matter for multisig addresses
	shuffled := []string{ring[2], ring[0], ring[1]}
	opts.PublicKeyRing = shuffled
	third, err := address.Derive(opts)
	require.NoError(t, err)
	require.Equal(t, first.Address, third.Address)
	require.Equal(t, first.PublicKeys, third.PublicKeys)
}

func TestDerivePathsDiverge(t *testing.T) {
	ring := newRing(t, 2)
	opts := address.DeriveOpts{
		ScriptType:         address.P2SH,
		PublicKeyRing:      ring,
		Path:               "m/0/0",
		RequiredSignatures: 2,
		Coin:               address.BTC,
		Network:            address.Livenet,
	}
	first, err := address.Derive(opts)
	require.NoError(t, err)

	opts.Path = "m/0/1"
	second, err := address.Derive(opts)
	require.NoError(t, err)
	require.NotEqual(t, first.Address, second.Address)
}

func TestDeriveMultiSigScript(t *testing.T) {
	info, err := address.Derive(address.DeriveOpts{
		ScriptType:         address.P2SH,
		PublicKeyRing:      newRing(t, 3),
		Path:               "m/0/0",
		RequiredSignatures: 2,
		Coin:               address.BTC,
		Network:            address.Livenet,
	})
	require.NoError(t, err)

	require.Len(t, info.PublicKeys, 3)
	require.True(t, sort.StringsAreSorted(info.PublicKeys))
	require.True(t, strings.HasPrefix(info.Address, "3"))

	class := txscript.GetScriptClass(info.RedeemScript)
	require.Equal(t, txscript.MultiSigTy, class)
	class = txscript.GetScriptClass(info.OutputScript)
	require.Equal(t, txscript.ScriptHashTy, class)
}

func TestDeriveScriptTypes(t *testing.T) {
	singleRing := newRing(t, 1)
	multiRing := newRing(t, 3)

	tests := []struct {
		name       string
		scriptType address.ScriptType
		ring       []string
		m          int
		network    address.Network
		prefix     string
	}{
		{"p2pkh livenet", address.P2PKH, singleRing, 1, address.Livenet, "1"},
		{"p2wpkh livenet", address.P2WPKH, singleRing, 1, address.Livenet, "bc1q"},
		{"p2sh livenet", address.P2SH, multiRing, 2, address.Livenet, "3"},
		{"p2wsh livenet", address.P2WSH, multiRing, 2, address.Livenet, "bc1q"},
		{"p2sh testnet", address.P2SH, multiRing, 2, address.Testnet, "2"},
		{"p2wpkh testnet", address.P2WPKH, singleRing, 1, address.Testnet, "tb1q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := address.Derive(address.DeriveOpts{
				ScriptType:         tt.scriptType,
				PublicKeyRing:      tt.ring,
				Path:               "m/0/0",
				RequiredSignatures: tt.m,
				Coin:               address.BTC,
				Network:            tt.network,
			})
			require.NoError(t, err)
			require.True(
				t, strings.HasPrefix(info.Address, tt.prefix),
				"address %s does not start with %s", info.Address, tt.prefix,
			)
		})
	}
}

func TestDeriveInvalidOpts(t *testing.T) {
	ring := newRing(t, 2)

	tests := []struct {
		name string
		opts address.DeriveOpts
		err  error
	}{
		{
			"empty ring",
			address.DeriveOpts{
				ScriptType: address.P2SH, Path: "m/0/0",
				RequiredSignatures: 1,
				Coin:               address.BTC, Network: address.Livenet,
			},
			address.ErrEmptyPublicKeyRing,
		},
		{
			"threshold above ring size",
			address.DeriveOpts{
				ScriptType: address.P2SH, PublicKeyRing: ring, Path: "m/0/0",
				RequiredSignatures: 3,
				Coin:               address.BTC, Network: address.Livenet,
			},
			address.ErrInvalidRequiredSignatures,
		},
		{
			"single key type with multiple keys",
			address.DeriveOpts{
				ScriptType: address.P2PKH, PublicKeyRing: ring, Path: "m/0/0",
				RequiredSignatures: 1,
				Coin:               address.BTC, Network: address.Livenet,
			},
			address.ErrSingleKeyScriptType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := address.Derive(tt.opts)
			require.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("invalid xpub", func(t *testing.T) {
		_, err := address.Derive(address.DeriveOpts{
			ScriptType:         address.P2PKH,
			PublicKeyRing:      []string{"xpub-garbage"},
			Path:               "m/0/0",
			RequiredSignatures: 1,
			Coin:               address.BTC,
			Network:            address.Livenet,
		})
		require.ErrorIs(t, err, address.ErrInvalidXPub)
	})
}

func TestParseDerivationPath(t *testing.T) {
	tests := []struct {
		path    string
		want    address.DerivationPath
		wantErr bool
	}{
		{"m/0/1", address.DerivationPath{0, 1}, false},
		{"m/44'/0'/0'", address.DerivationPath{
			44 + hdkeychain.HardenedKeyStart,
			hdkeychain.HardenedKeyStart,
			hdkeychain.HardenedKeyStart,
		}, false},
		{"0/5", address.DerivationPath{0, 5}, false},
		{"m", nil, true},
		{"m/x/1", nil, true},
		{"m//1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := address.ParseDerivationPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultScriptType(t *testing.T) {
	require.Equal(t, address.P2PKH, address.DefaultScriptType(1))
	require.Equal(t, address.P2SH, address.DefaultScriptType(2))
	require.Equal(t, address.P2SH, address.DefaultScriptType(3))
}
