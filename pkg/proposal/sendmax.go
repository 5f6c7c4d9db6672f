package proposal

import (
	"sort"

	"github.com/vaultex-network/vaultex-client/pkg/address"
)

// SendMaxInfoOpts is the struct given to the GetSendMaxInfo function
type SendMaxInfoOpts struct {
	Utxos              []Input
	FeePerKb           uint64
	ExcludeUnconfirmed bool
	ReturnInputs       bool
	AddressType        address.ScriptType
	M                  int
	N                  int
}

// SendMaxInfo describes the maximum spendable amount of a wallet at a given
// fee rate, along with the UTXOs excluded for being uneconomical to spend or
// for exceeding the transaction size cap.
type SendMaxInfo struct {
	Amount                  uint64
	Fee                     uint64
	Inputs                  []Input
	UtxosBelowFee           int
	AmountBelowFee          uint64
	UtxosAboveMaxSize       int
	AmountAboveMaxSize      uint64
	InputCount              int
	EstimatedSizeBytes      int
	ExcludedUnconfirmedUtxo int
}

// GetSendMaxInfo computes how much can be swept to a single destination:
// every spendable UTXO whose value exceeds its own marginal fee is included,
// up to the size cap; the rest is reported as excluded.
func GetSendMaxInfo(opts SendMaxInfoOpts) (*SendMaxInfo, error) {
	if err := opts.AddressType.Validate(); err != nil {
		return nil, err
	}

	info := &SendMaxInfo{}

	spendable := make([]Input, 0, len(opts.Utxos))
	for _, utxo := range opts.Utxos {
		if opts.ExcludeUnconfirmed && utxo.Confirmations == 0 {
			info.ExcludedUnconfirmedUtxo++
			continue
		}
		spendable = append(spendable, utxo)
	}
	sort.SliceStable(spendable, func(i, j int) bool {
		return spendable[i].Satoshis > spendable[j].Satoshis
	})

	perInputSize := estimateSize(1, 0, opts.AddressType, opts.M, opts.N) -
		estimateSize(0, 0, opts.AddressType, opts.M, opts.N)
	perInputFee := feeForSize(perInputSize, opts.FeePerKb)

	selected := make([]Input, 0, len(spendable))
	var totalIn uint64
	for _, utxo := range spendable {
		if utxo.Satoshis <= perInputFee {
			info.UtxosBelowFee++
			info.AmountBelowFee += utxo.Satoshis
			continue
		}
		size := estimateSize(len(selected)+1, 1, opts.AddressType, opts.M, opts.N)
		if size > MaxTxSizeKb*1000 {
			info.UtxosAboveMaxSize++
			info.AmountAboveMaxSize += utxo.Satoshis
			continue
		}
		selected = append(selected, utxo)
		totalIn += utxo.Satoshis
	}

	if len(selected) <= 0 {
		return info, nil
	}

	size := estimateSize(len(selected), 1, opts.AddressType, opts.M, opts.N)
	fee := feeForSize(size, opts.FeePerKb)
	if totalIn <= fee {
		return info, nil
	}

	info.Fee = fee
	info.Amount = totalIn - fee
	info.InputCount = len(selected)
	info.EstimatedSizeBytes = size
	if opts.ReturnInputs {
		info.Inputs = selected
	}
	return info, nil
}
