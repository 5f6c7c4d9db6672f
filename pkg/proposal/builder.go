package proposal

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vaultex-network/vaultex-client/pkg/address"
)

const (
	// DustThreshold is the minimum satoshi amount an output may carry;
	// change below it is folded into the fee.
	DustThreshold uint64 = 546
	// DefaultFeePerKb applies when a named fee level cannot be resolved
	// against current estimates.
	DefaultFeePerKb uint64 = 10000
	// MaxTxSizeKb caps the virtual size of a single proposal.
	MaxTxSizeKb = 100
)

// MaxTxFee is the fee safety bound: a proposal whose inputs exceed its
// outputs by more than this amount indicates a fee-calculation bug, not a
// transient condition, and construction halts before any signature can be
// produced. Policy constant, overridable per builder.
const MaxTxFee uint64 = 5_000_000

var (
	// ErrInvalidOutput ...
	ErrInvalidOutput = errors.New(
		"output must have either toAddress or script, and a non-null amount",
	)
	// ErrNoOutputs ...
	ErrNoOutputs = errors.New("proposal must have at least one output")
	// ErrNoUtxos ...
	ErrNoUtxos = errors.New("there are no utxos to spend")
	// ErrInsufficientFunds ...
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientFundsForFee ...
	ErrInsufficientFundsForFee = errors.New("insufficient funds for fee")
	// ErrUnknownFeeLevel ...
	ErrUnknownFeeLevel = errors.New("unknown fee level")
	// ErrNullChangeAddress ...
	ErrNullChangeAddress = errors.New(
		"change address is required when the selection produces change",
	)
)

// FeeLevel names a fee policy resolved against current network estimates.
type FeeLevel string

const (
	// FeeLevelUrgent ...
	FeeLevelUrgent FeeLevel = "urgent"
	// FeeLevelPriority ...
	FeeLevelPriority FeeLevel = "priority"
	// FeeLevelNormal ...
	FeeLevelNormal FeeLevel = "normal"
	// FeeLevelEconomy ...
	FeeLevelEconomy FeeLevel = "economy"
	// FeeLevelSuperEconomy ...
	FeeLevelSuperEconomy FeeLevel = "superEconomy"
)

// feeLevelTargets maps each level to its confirmation target in blocks.
var feeLevelTargets = map[FeeLevel]int{
	FeeLevelUrgent:       1,
	FeeLevelPriority:     2,
	FeeLevelNormal:       3,
	FeeLevelEconomy:      6,
	FeeLevelSuperEconomy: 24,
}

// ResolveFeePerKb resolves a named level against fee estimates keyed by
// confirmation target (sat/kvB). Unresolvable levels fall back to
// DefaultFeePerKb.
func ResolveFeePerKb(level FeeLevel, estimates map[int]uint64) (uint64, error) {
	target, ok := feeLevelTargets[level]
	if !ok {
		return 0, ErrUnknownFeeLevel
	}
	// walk up to the next available target
	for t := target; t <= 25; t++ {
		if feePerKb, ok := estimates[t]; ok && feePerKb > 0 {
			return feePerKb, nil
		}
	}
	return DefaultFeePerKb, nil
}

// CreateTxProposalOpts is the struct given to the CreateTxProposal function
type CreateTxProposalOpts struct {
	// TxProposalId is an optional idempotency key; reusing it lets the
	// caller retry creation without producing duplicate proposals.
	TxProposalId string
	Coin         address.Coin
	Network      address.Network
	CreatorId    string
	M            int
	N            int
	AddressType  address.ScriptType

	// Single-destination shorthand, mutually exclusive with Outputs.
	ToAddress string
	Amount    uint64

	Outputs []Output

	Utxos              []Input
	ChangeAddress      *ChangeAddress
	ExcludeUnconfirmed bool

	// Fee resolution: explicit Fee wins, then FeePerKb, then FeeLevel.
	Fee      *uint64
	FeePerKb uint64
	FeeLevel FeeLevel
	// FeeEstimates backs FeeLevel resolution; keyed by confirmation
	// target in blocks.
	FeeEstimates map[int]uint64

	SigningMethod SigningMethod
	Message       string
	CustomData    string
	PayProUrl     string

	// MaxTxFee overrides the package-level fee safety bound when > 0.
	MaxTxFee uint64
}

func (o CreateTxProposalOpts) validate() error {
	if err := o.Coin.Validate(); err != nil {
		return err
	}
	if err := o.Network.Validate(); err != nil {
		return err
	}
	if err := o.AddressType.Validate(); err != nil {
		return err
	}
	if o.M < 1 || o.N < o.M {
		return fmt.Errorf("invalid wallet threshold %d-of-%d", o.M, o.N)
	}

	outputs := o.outputs()
	if len(outputs) <= 0 {
		return ErrNoOutputs
	}
	for _, out := range outputs {
		hasAddress := len(out.ToAddress) > 0
		hasScript := len(out.Script) > 0
		if hasAddress == hasScript {
			return ErrInvalidOutput
		}
		if hasAddress && out.Amount == 0 {
			return ErrInvalidOutput
		}
		if hasScript {
			if _, err := hex.DecodeString(out.Script); err != nil {
				return ErrInvalidOutput
			}
		}
	}
	return nil
}

func (o CreateTxProposalOpts) outputs() []Output {
	if len(o.Outputs) > 0 {
		return o.Outputs
	}
	if len(o.ToAddress) > 0 {
		return []Output{{ToAddress: o.ToAddress, Amount: o.Amount}}
	}
	return nil
}

func (o CreateTxProposalOpts) maxTxFee() uint64 {
	if o.MaxTxFee > 0 {
		return o.MaxTxFee
	}
	return MaxTxFee
}

// CreateTxProposal assembles an unsigned transaction skeleton in the
// temporary status: it resolves the fee policy, selects UTXOs when the
// caller did not pin them, computes change and enforces the fee safety
// bound.
//
// A computed fee above the safety bound panics: it indicates a programming
// error in fee calculation and must never be caught and retried.
func CreateTxProposal(opts CreateTxProposalOpts) (*TxProposal, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	outputs := opts.outputs()
	var totalOut uint64
	for _, out := range outputs {
		totalOut += out.Amount
	}

	feePerKb := opts.FeePerKb
	if opts.Fee == nil && feePerKb == 0 {
		level := opts.FeeLevel
		if level == "" {
			level = FeeLevelNormal
		}
		resolved, err := ResolveFeePerKb(level, opts.FeeEstimates)
		if err != nil {
			return nil, err
		}
		feePerKb = resolved
	}

	utxos := spendableUtxos(opts.Utxos, opts.ExcludeUnconfirmed)
	if len(utxos) <= 0 {
		return nil, ErrNoUtxos
	}

	inputs, fee, changeAmount, err := selectInputs(
		utxos, totalOut, len(outputs), opts.Fee, feePerKb,
		opts.AddressType, opts.M, opts.N,
	)
	if err != nil {
		return nil, err
	}

	if changeAmount >= DustThreshold && opts.ChangeAddress == nil {
		return nil, ErrNullChangeAddress
	}

	enforceFeeSafety(fee+changeDust(changeAmount), opts.maxTxFee())

	id := opts.TxProposalId
	if len(id) <= 0 {
		id = NewProposalId()
	}
	signingMethod := opts.SigningMethod
	if signingMethod == "" {
		signingMethod = SigningMethodECDSA
	}

	txp := &TxProposal{
		Id:                 id,
		Version:            ProtocolVersion,
		Coin:               opts.Coin,
		Network:            opts.Network,
		CreatorId:          opts.CreatorId,
		WalletM:            opts.M,
		WalletN:            opts.N,
		RequiredSignatures: opts.M,
		RequiredRejections: opts.N - opts.M + 1,
		Status:             StatusTemporary,
		Inputs:             inputs,
		Outputs:            outputs,
		Fee:                fee + changeDust(changeAmount),
		FeePerKb:           feePerKb,
		AddressType:        opts.AddressType,
		SigningMethod:      signingMethod,
		Message:            opts.Message,
		CustomData:         opts.CustomData,
		PayProUrl:          opts.PayProUrl,
		Actions:            []Action{},
		CreatedOn:          time.Now().Unix(),
	}
	if changeAmount >= DustThreshold {
		txp.ChangeAddress = opts.ChangeAddress
	}
	return txp, nil
}

// enforceFeeSafety halts construction when the implicit fee crosses the
// safety bound.
func enforceFeeSafety(fee, bound uint64) {
	if fee > bound {
		panic(fmt.Sprintf(
			"fee safety bound exceeded: fee %d > max %d; "+
				"this is a fee-calculation bug, refusing to build", fee, bound,
		))
	}
}

func changeDust(changeAmount uint64) uint64 {
	if changeAmount > 0 && changeAmount < DustThreshold {
		return changeAmount
	}
	return 0
}

func spendableUtxos(utxos []Input, excludeUnconfirmed bool) []Input {
	spendable := make([]Input, 0, len(utxos))
	for _, utxo := range utxos {
		if excludeUnconfirmed && utxo.Confirmations == 0 {
			continue
		}
		spendable = append(spendable, utxo)
	}
	return spendable
}

// selectInputs picks UTXOs largest-first until outputs plus fee are covered
// and returns the selection, the network fee and the change amount.
func selectInputs(
	utxos []Input,
	totalOut uint64, nOutputs int,
	explicitFee *uint64, feePerKb uint64,
	scriptType address.ScriptType, m, n int,
) ([]Input, uint64, uint64, error) {
	sorted := append([]Input{}, utxos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if (sorted[i].Confirmations > 0) != (sorted[j].Confirmations > 0) {
			return sorted[i].Confirmations > 0
		}
		return sorted[i].Satoshis > sorted[j].Satoshis
	})

	var totalIn uint64
	selected := make([]Input, 0, len(sorted))
	for _, utxo := range sorted {
		selected = append(selected, utxo)
		totalIn += utxo.Satoshis

		var fee uint64
		if explicitFee != nil {
			fee = *explicitFee
		} else {
			// change output included pessimistically
			size := estimateSize(len(selected), nOutputs+1, scriptType, m, n)
			fee = feeForSize(size, feePerKb)
		}

		if totalIn >= totalOut+fee {
			return selected, fee, totalIn - totalOut - fee, nil
		}
	}

	if totalIn >= totalOut {
		return nil, 0, 0, ErrInsufficientFundsForFee
	}
	return nil, 0, 0, ErrInsufficientFunds
}

// estimateSize approximates the serialized size in bytes of a transaction
// with the given shape.
func estimateSize(nIn, nOut int, scriptType address.ScriptType, m, n int) int {
	const overhead = 10
	const outputSize = 34

	var inputSize int
	switch scriptType {
	case address.P2PKH:
		inputSize = 148
	case address.P2WPKH:
		inputSize = 69
	case address.P2SH:
		inputSize = 46 + 74*m + 34*n
	case address.P2WSH:
		inputSize = 41 + (74*m+34*n)/4
	default:
		inputSize = 148
	}
	return overhead + nIn*inputSize + nOut*outputSize
}

func feeForSize(sizeBytes int, feePerKb uint64) uint64 {
	fee := feePerKb * uint64(sizeBytes) / 1000
	if fee == 0 {
		fee = 1
	}
	return fee
}
