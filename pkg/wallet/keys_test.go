package wallet_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultex-network/vaultex-client/pkg/address"
	"github.com/vaultex-network/vaultex-client/pkg/credentials"
	"github.com/vaultex-network/vaultex-client/pkg/proposal"
	"github.com/vaultex-network/vaultex-client/pkg/wallet"
)

func newTestKey(t *testing.T) *wallet.Key {
	t.Helper()
	key, err := wallet.NewKey(wallet.NewKeyOpts{
		SeedType: wallet.SeedTypeMnemonic, SeedData: testMnemonic,
	})
	require.NoError(t, err)
	return key
}

func TestBaseAddressDerivationPath(t *testing.T) {
	key := newTestKey(t)

	tests := []struct {
		name string
		opts wallet.DeriveCredentialsOpts
		want string
	}{
		{
			"single-sig btc livenet",
			wallet.DeriveCredentialsOpts{
				Coin: address.BTC, Network: address.Livenet, N: 1,
			},
			"m/44'/0'/0'",
		},
		{
			"multisig btc livenet",
			wallet.DeriveCredentialsOpts{
				Coin: address.BTC, Network: address.Livenet, N: 3,
			},
			"m/48'/0'/0'",
		},
		{
			"multisig btc testnet",
			wallet.DeriveCredentialsOpts{
				Coin: address.BTC, Network: address.Testnet, N: 3,
			},
			"m/48'/1'/0'",
		},
		{
			"single-sig bch livenet",
			wallet.DeriveCredentialsOpts{
				Coin: address.BCH, Network: address.Livenet, N: 1,
			},
			"m/44'/145'/0'",
		},
		{
			"bch testnet",
			wallet.DeriveCredentialsOpts{
				Coin: address.BCH, Network: address.Testnet, N: 1,
			},
			"m/44'/1'/0'",
		},
		{
			"second account",
			wallet.DeriveCredentialsOpts{
				Coin: address.BTC, Network: address.Livenet, N: 2, Account: 1,
			},
			"m/48'/0'/1'",
		},
		{
			"bip45 shared account",
			wallet.DeriveCredentialsOpts{
				Coin: address.BTC, Network: address.Livenet, N: 2, UseBIP45: true,
			},
			"m/45'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, key.BaseAddressDerivationPath(tt.opts))
		})
	}
}

func TestBaseAddressDerivationPathLegacyFlags(t *testing.T) {
	legacy, err := wallet.NewKey(wallet.NewKeyOpts{
		SeedType:         wallet.SeedTypeMnemonic,
		SeedData:         testMnemonic,
		UseLegacyPurpose: true,
		Use0ForBCH:       true,
	})
	require.NoError(t, err)

	require.Equal(
		t,
		"m/44'/0'/0'",
		legacy.BaseAddressDerivationPath(wallet.DeriveCredentialsOpts{
			Coin: address.BTC, Network: address.Livenet, N: 3,
		}),
	)
	require.Equal(
		t,
		"m/44'/0'/0'",
		legacy.BaseAddressDerivationPath(wallet.DeriveCredentialsOpts{
			Coin: address.BCH, Network: address.Livenet, N: 1,
		}),
	)
}

func TestDeriveCredentials(t *testing.T) {
	key := newTestKey(t)

	creds, err := key.DeriveCredentials(wallet.DeriveCredentialsOpts{
		Coin: address.BTC, Network: address.Livenet, N: 3,
	})
	require.NoError(t, err)

	require.Equal(t, key.Id(), creds.KeyId)
	require.Equal(t, "m/48'/0'/0'", creds.RootPath)
	require.Equal(t, credentials.DerivationStrategyBIP48, creds.DerivationStrategy)
	require.Equal(t, address.P2SH, creds.AddressType)
	require.True(t, strings.HasPrefix(creds.XPubKey, "xpub"))
	require.Len(t, creds.CopayerId, 64)

	// the request keypair never overlaps the funds key
	require.NotEmpty(t, creds.RequestPrivKey)
	require.NotEmpty(t, creds.RequestPubKey)
	require.NotEmpty(t, creds.PersonalEncryptingKey)

	// derivation is deterministic
	again, err := key.DeriveCredentials(wallet.DeriveCredentialsOpts{
		Coin: address.BTC, Network: address.Livenet, N: 3,
	})
	require.NoError(t, err)
	require.Equal(t, creds.XPubKey, again.XPubKey)
	require.Equal(t, creds.RequestPrivKey, again.RequestPrivKey)
	require.Equal(t, creds.CopayerId, again.CopayerId)

	single, err := key.DeriveCredentials(wallet.DeriveCredentialsOpts{
		Coin: address.BTC, Network: address.Livenet, N: 1,
	})
	require.NoError(t, err)
	require.Equal(t, credentials.DerivationStrategyBIP44, single.DerivationStrategy)
	require.Equal(t, address.P2PKH, single.AddressType)
	require.NotEqual(t, creds.XPubKey, single.XPubKey)
}

func TestDeriveCredentialsNonCompliantKey(t *testing.T) {
	key, err := wallet.NewKey(wallet.NewKeyOpts{
		SeedType:               wallet.SeedTypeMnemonic,
		SeedData:               testMnemonic,
		NonCompliantDerivation: true,
	})
	require.NoError(t, err)
	require.False(t, key.CompliantDerivation())

	// deriving the compliant way would reconstruct the wrong addresses
	_, err = key.DeriveCredentials(wallet.DeriveCredentialsOpts{
		Coin: address.BTC, Network: address.Livenet, N: 1,
	})
	require.ErrorIs(t, err, wallet.ErrNonCompliantDerivation)
}

func TestCreateAccess(t *testing.T) {
	key := newTestKey(t)
	creds, err := key.DeriveCredentials(wallet.DeriveCredentialsOpts{
		Coin: address.BTC, Network: address.Livenet, N: 2,
	})
	require.NoError(t, err)

	access, err := key.CreateAccess(wallet.CreateAccessOpts{
		Path: creds.RootPath,
	})
	require.NoError(t, err)
	require.NotEmpty(t, access.RequestPrivKey)
	require.NotEmpty(t, access.RequestPubKey)

	// the grant verifies from the wallet xpub alone
	require.True(t, wallet.VerifyRequestPubKey(
		access.RequestPubKey, access.Signature, creds.XPubKey,
	))
	require.False(t, wallet.VerifyRequestPubKey(
		access.RequestPubKey+"00", access.Signature, creds.XPubKey,
	))

	otherKey, err := wallet.NewKey(wallet.NewKeyOpts{SeedType: wallet.SeedTypeNew})
	require.NoError(t, err)
	otherCreds, err := otherKey.DeriveCredentials(wallet.DeriveCredentialsOpts{
		Coin: address.BTC, Network: address.Livenet, N: 2,
	})
	require.NoError(t, err)
	require.False(t, wallet.VerifyRequestPubKey(
		access.RequestPubKey, access.Signature, otherCreds.XPubKey,
	))

	t.Run("pinned request key", func(t *testing.T) {
		pinned, err := key.CreateAccess(wallet.CreateAccessOpts{
			Path:           creds.RootPath,
			RequestPrivKey: access.RequestPrivKey,
		})
		require.NoError(t, err)
		require.Equal(t, access.RequestPubKey, pinned.RequestPubKey)
	})

	t.Run("invalid path", func(t *testing.T) {
		_, err := key.CreateAccess(wallet.CreateAccessOpts{Path: "m/x"})
		require.Error(t, err)
	})
}

type cosigner struct {
	key   *wallet.Key
	creds *credentials.Credentials
}

func newCosigners(t *testing.T, n int) []cosigner {
	t.Helper()
	cosigners := make([]cosigner, 0, n)
	for i := 0; i < n; i++ {
		key, err := wallet.NewKey(wallet.NewKeyOpts{SeedType: wallet.SeedTypeNew})
		require.NoError(t, err)
		creds, err := key.DeriveCredentials(wallet.DeriveCredentialsOpts{
			Coin: address.BTC, Network: address.Livenet, N: n,
		})
		require.NoError(t, err)
		cosigners = append(cosigners, cosigner{key, creds})
	}
	return cosigners
}

func TestSignTxProposalEndToEnd(t *testing.T) {
	cosigners := newCosigners(t, 3)
	ring := make([]string, 0, len(cosigners))
	for _, c := range cosigners {
		ring = append(ring, c.creds.XPubKey)
	}

	info, err := address.Derive(address.DeriveOpts{
		ScriptType:         address.P2SH,
		PublicKeyRing:      ring,
		Path:               "m/0/0",
		RequiredSignatures: 2,
		Coin:               address.BTC,
		Network:            address.Livenet,
	})
	require.NoError(t, err)

	txp := &proposal.TxProposal{
		Id:                 proposal.NewProposalId(),
		Version:            proposal.ProtocolVersion,
		Coin:               address.BTC,
		Network:            address.Livenet,
		WalletM:            2,
		WalletN:            3,
		RequiredSignatures: 2,
		RequiredRejections: 2,
		Status:             proposal.StatusPending,
		Inputs: []proposal.Input{{
			TxId: "b42f23aa73d5faa3a09b8b27af3d8bb2f4e9eb7f3d1c5f2f5b0c8ab1d5e8f3a2",
			Vout: 1, Satoshis: 100000,
			Address: info.Address, Path: "m/0/0",
			PublicKeys: info.PublicKeys,
		}},
		Outputs: []proposal.Output{{
			ToAddress: "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", Amount: 90000,
		}},
		Fee:           10000,
		AddressType:   address.P2SH,
		SigningMethod: proposal.SigningMethodECDSA,
	}

	for i := 0; i < 2; i++ {
		sigs, err := cosigners[i].key.SignTxProposal(wallet.SignTxProposalOpts{
			RootPath: cosigners[i].creds.RootPath,
			Txp:      txp,
		})
		require.NoError(t, err)
		require.Len(t, sigs, 1)

		// signing is deterministic
		again, err := cosigners[i].key.SignTxProposal(wallet.SignTxProposalOpts{
			RootPath: cosigners[i].creds.RootPath,
			Txp:      txp,
		})
		require.NoError(t, err)
		require.Equal(t, sigs, again)

		require.NoError(t, txp.Sign(cosigners[i].creds.CopayerId, sigs))
	}
	require.Equal(t, proposal.StatusAccepted, txp.Status)

	rawTx, err := txp.BuildSignedTx()
	require.NoError(t, err)
	require.NotEmpty(t, rawTx)

	txid, err := txp.ComputeTxId()
	require.NoError(t, err)
	require.Len(t, txid, 64)
}

func TestSignTxProposalChecks(t *testing.T) {
	key := newTestKey(t)

	t.Run("null proposal", func(t *testing.T) {
		_, err := key.SignTxProposal(wallet.SignTxProposalOpts{
			RootPath: "m/48'/0'/0'",
		})
		require.ErrorIs(t, err, wallet.ErrNullTxProposal)
	})

	t.Run("unsupported version", func(t *testing.T) {
		txp := &proposal.TxProposal{Version: proposal.ProtocolVersion + 1}
		_, err := key.SignTxProposal(wallet.SignTxProposalOpts{
			RootPath: "m/48'/0'/0'", Txp: txp,
		})
		require.ErrorIs(t, err, proposal.ErrUpgradeNeeded)
	})

	t.Run("unknown signing method", func(t *testing.T) {
		txp := &proposal.TxProposal{
			Version:       proposal.ProtocolVersion,
			Coin:          address.BTC,
			Network:       address.Livenet,
			AddressType:   address.P2PKH,
			SigningMethod: "multiparty",
			Inputs: []proposal.Input{{
				TxId: "b42f23aa73d5faa3a09b8b27af3d8bb2f4e9eb7f3d1c5f2f5b0c8ab1d5e8f3a2",
				Vout: 0, Satoshis: 1000,
				Path: "m/0/0",
				PublicKeys: []string{
					"02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5",
				},
			}},
			Outputs: []proposal.Output{{
				ToAddress: "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", Amount: 500,
			}},
		}
		_, err := key.SignTxProposal(wallet.SignTxProposalOpts{
			RootPath: "m/44'/0'/0'", Txp: txp,
		})
		require.ErrorIs(t, err, wallet.ErrUnknownSigningMethod)
	})
}
