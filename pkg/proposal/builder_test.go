package proposal_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vaultex-network/vaultex-client/pkg/address"
	"github.com/vaultex-network/vaultex-client/pkg/proposal"
)

const (
	destAddress   = "1BoatSLRHtKNngkdXEeobR76b53LETtpyT"
	changeAddress = "1F1tAaz5x1HUXrCNLbtMDqcw6o5GNn4xqX"
)

func utxoSet(values ...uint64) []proposal.Input {
	utxos := make([]proposal.Input, 0, len(values))
	for i, value := range values {
		utxos = append(utxos, proposal.Input{
			TxId:          fmt.Sprintf("%064d", i),
			Vout:          uint32(i),
			Satoshis:      value,
			Confirmations: 6,
		})
	}
	return utxos
}

func builderOpts(amount uint64, utxos []proposal.Input) proposal.CreateTxProposalOpts {
	return proposal.CreateTxProposalOpts{
		Coin:          address.BTC,
		Network:       address.Livenet,
		CreatorId:     "creator",
		M:             2,
		N:             3,
		AddressType:   address.P2SH,
		ToAddress:     destAddress,
		Amount:        amount,
		Utxos:         utxos,
		ChangeAddress: &proposal.ChangeAddress{Address: changeAddress},
		FeePerKb:      10000,
	}
}

func TestCreateTxProposal(t *testing.T) {
	opts := builderOpts(50000, utxoSet(100000))

	txp, err := proposal.CreateTxProposal(opts)
	require.NoError(t, err)

	require.Equal(t, proposal.StatusTemporary, txp.Status)
	require.Equal(t, proposal.ProtocolVersion, txp.Version)
	require.Equal(t, proposal.SigningMethodECDSA, txp.SigningMethod)
	require.Equal(t, 2, txp.RequiredSignatures)
	require.Equal(t, 2, txp.RequiredRejections)
	require.Len(t, txp.Inputs, 1)
	require.Len(t, txp.Outputs, 1)
	require.NotNil(t, txp.ChangeAddress)
	require.Greater(t, txp.Fee, uint64(0))
	require.Equal(
		t,
		txp.TotalInputAmount(),
		txp.TotalOutputAmount()+txp.Fee+txp.ChangeAmount(),
	)
}

func TestCreateTxProposalIdempotencyKey(t *testing.T) {
	opts := builderOpts(50000, utxoSet(100000))
	opts.TxProposalId = "fixed-id"

	txp, err := proposal.CreateTxProposal(opts)
	require.NoError(t, err)
	require.Equal(t, "fixed-id", txp.Id)

	// without a pinned id every build gets a fresh one
	opts.TxProposalId = ""
	first, err := proposal.CreateTxProposal(opts)
	require.NoError(t, err)
	second, err := proposal.CreateTxProposal(opts)
	require.NoError(t, err)
	require.NotEqual(t, first.Id, second.Id)
}

func TestCreateTxProposalValidation(t *testing.T) {
	utxos := utxoSet(100000)

	t.Run("no outputs", func(t *testing.T) {
		opts := builderOpts(0, utxos)
		opts.ToAddress = ""
		_, err := proposal.CreateTxProposal(opts)
		require.ErrorIs(t, err, proposal.ErrNoOutputs)
	})

	t.Run("output with address and script", func(t *testing.T) {
		opts := builderOpts(0, utxos)
		opts.ToAddress = ""
		opts.Outputs = []proposal.Output{
			{ToAddress: destAddress, Script: "0014aabb", Amount: 1000},
		}
		_, err := proposal.CreateTxProposal(opts)
		require.ErrorIs(t, err, proposal.ErrInvalidOutput)
	})

	t.Run("address output with zero amount", func(t *testing.T) {
		opts := builderOpts(0, utxos)
		_, err := proposal.CreateTxProposal(opts)
		require.ErrorIs(t, err, proposal.ErrInvalidOutput)
	})

	t.Run("script output with bad hex", func(t *testing.T) {
		opts := builderOpts(0, utxos)
		opts.ToAddress = ""
		opts.Outputs = []proposal.Output{{Script: "not-hex", Amount: 1000}}
		_, err := proposal.CreateTxProposal(opts)
		require.ErrorIs(t, err, proposal.ErrInvalidOutput)
	})

	t.Run("no utxos", func(t *testing.T) {
		opts := builderOpts(50000, nil)
		_, err := proposal.CreateTxProposal(opts)
		require.ErrorIs(t, err, proposal.ErrNoUtxos)
	})
}

func TestCreateTxProposalFunds(t *testing.T) {
	t.Run("insufficient funds", func(t *testing.T) {
		opts := builderOpts(200000, utxoSet(100000))
		_, err := proposal.CreateTxProposal(opts)
		require.ErrorIs(t, err, proposal.ErrInsufficientFunds)
	})

	t.Run("covers amount but not fee", func(t *testing.T) {
		opts := builderOpts(100000, utxoSet(100000))
		_, err := proposal.CreateTxProposal(opts)
		require.ErrorIs(t, err, proposal.ErrInsufficientFundsForFee)
	})

	t.Run("explicit fee wins", func(t *testing.T) {
		fee := uint64(1234)
		opts := builderOpts(50000, utxoSet(100000))
		opts.Fee = &fee
		txp, err := proposal.CreateTxProposal(opts)
		require.NoError(t, err)
		require.Equal(t, fee, txp.Fee)
	})
}

func TestCreateTxProposalChange(t *testing.T) {
	t.Run("missing change address", func(t *testing.T) {
		opts := builderOpts(50000, utxoSet(100000))
		opts.ChangeAddress = nil
		_, err := proposal.CreateTxProposal(opts)
		require.ErrorIs(t, err, proposal.ErrNullChangeAddress)
	})

	t.Run("dust change folds into fee", func(t *testing.T) {
		// pin the fee so input - output - fee is below the dust threshold
		opts := builderOpts(50000, utxoSet(51000))
		fee := uint64(51000 - 50000 - 100)
		opts.Fee = &fee
		opts.ChangeAddress = nil

		txp, err := proposal.CreateTxProposal(opts)
		require.NoError(t, err)
		require.Nil(t, txp.ChangeAddress)
		require.Equal(t, uint64(1000), txp.Fee)
		require.Equal(t, uint64(0), txp.ChangeAmount())
	})
}

func TestCreateTxProposalExcludeUnconfirmed(t *testing.T) {
	utxos := utxoSet(100000)
	utxos[0].Confirmations = 0

	opts := builderOpts(50000, utxos)
	opts.ExcludeUnconfirmed = true
	_, err := proposal.CreateTxProposal(opts)
	require.ErrorIs(t, err, proposal.ErrNoUtxos)

	opts.ExcludeUnconfirmed = false
	_, err = proposal.CreateTxProposal(opts)
	require.NoError(t, err)
}

func TestFeeSafetyBoundPanics(t *testing.T) {
	fee := proposal.MaxTxFee + 1
	opts := builderOpts(50000, utxoSet(20000000))
	opts.Fee = &fee

	require.Panics(t, func() {
		proposal.CreateTxProposal(opts) //nolint:errcheck
	})

	// a raised per-proposal bound lets the same fee through
	opts.MaxTxFee = proposal.MaxTxFee * 2
	require.NotPanics(t, func() {
		txp, err := proposal.CreateTxProposal(opts)
		require.NoError(t, err)
		require.Equal(t, fee, txp.Fee)
	})
}

func TestResolveFeePerKb(t *testing.T) {
	estimates := map[int]uint64{2: 50000, 6: 20000, 24: 5000}

	tests := []struct {
		level proposal.FeeLevel
		want  uint64
	}{
		{proposal.FeeLevelUrgent, 50000},
		{proposal.FeeLevelPriority, 50000},
		{proposal.FeeLevelNormal, 20000},
		{proposal.FeeLevelEconomy, 20000},
		{proposal.FeeLevelSuperEconomy, 5000},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			got, err := proposal.ResolveFeePerKb(tt.level, estimates)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown level", func(t *testing.T) {
		_, err := proposal.ResolveFeePerKb("warp", estimates)
		require.ErrorIs(t, err, proposal.ErrUnknownFeeLevel)
	})

	t.Run("no estimates falls back to default", func(t *testing.T) {
		got, err := proposal.ResolveFeePerKb(proposal.FeeLevelNormal, nil)
		require.NoError(t, err)
		require.Equal(t, proposal.DefaultFeePerKb, got)
	})
}

func TestLargestFirstSelection(t *testing.T) {
	utxos := utxoSet(1000, 80000, 5000)

	opts := builderOpts(50000, utxos)
	txp, err := proposal.CreateTxProposal(opts)
	require.NoError(t, err)

	require.Len(t, txp.Inputs, 1)
	require.Equal(t, uint64(80000), txp.Inputs[0].Satoshis)
}

func TestFormatAmount(t *testing.T) {
	require.Equal(
		t, "1.00000000 btc", proposal.FormatAmount(100000000, address.BTC),
	)
	require.Equal(
		t, "0.00000546 bch", proposal.FormatAmount(546, address.BCH),
	)
}

func TestRatePerKb(t *testing.T) {
	require.Equal(t, uint64(10000), proposal.RatePerKb(10))
	require.Equal(t, uint64(1500), proposal.RatePerKb(1.5))
}
