package proposal

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vaultex-network/vaultex-client/pkg/address"
)

// ProtocolVersion is the highest proposal version this client understands.
const ProtocolVersion = 4

// SchnorrMinVersion is the first proposal version carrying Schnorr
// signatures; older counterparts must refuse such proposals instead of
// producing invalid signatures.
const SchnorrMinVersion = 4

var (
	// ErrNotPending ...
	ErrNotPending = errors.New("proposal is not pending")
	// ErrNotAccepted ...
	ErrNotAccepted = errors.New("proposal has not reached the signature threshold")
	// ErrCopayerAlreadyVoted ...
	ErrCopayerAlreadyVoted = errors.New("copayer already voted on this proposal")
	// ErrInvalidSignatureCount ...
	ErrInvalidSignatureCount = errors.New(
		"number of signatures must match the number of inputs",
	)
	// ErrUpgradeNeeded ...
	ErrUpgradeNeeded = errors.New(
		"proposal requires a newer protocol version, please upgrade",
	)
	// ErrNotTemporary ...
	ErrNotTemporary = errors.New("proposal was already published")
)

// Status is the lifecycle state of a proposal.
type Status string

const (
	// StatusTemporary exists only client-side, before publishing.
	StatusTemporary Status = "temporary"
	// StatusPending ...
	StatusPending Status = "pending"
	// StatusAccepted ...
	StatusAccepted Status = "accepted"
	// StatusRejected ...
	StatusRejected Status = "rejected"
	// StatusBroadcasted ...
	StatusBroadcasted Status = "broadcasted"
)

// SigningMethod selects the signature scheme used for the proposal inputs.
type SigningMethod string

const (
	// SigningMethodECDSA ...
	SigningMethodECDSA SigningMethod = "ecdsa"
	// SigningMethodSchnorr ...
	SigningMethodSchnorr SigningMethod = "schnorr"
)

// ActionType discriminates copayer votes.
type ActionType string

const (
	// ActionAccept ...
	ActionAccept ActionType = "accept"
	// ActionReject ...
	ActionReject ActionType = "reject"
)

// Input is a wallet UTXO spent by a proposal.
type Input struct {
	TxId          string   `json:"txid"`
	Vout          uint32   `json:"vout"`
	Satoshis      uint64   `json:"satoshis"`
	Address       string   `json:"address"`
	Path          string   `json:"path"`
	PublicKeys    []string `json:"publicKeys"`
	Confirmations uint32   `json:"confirmations"`
}

// Output is a proposal destination: either an address plus amount, or a raw
// output script.
type Output struct {
	ToAddress string `json:"toAddress,omitempty"`
	Amount    uint64 `json:"amount"`
	Message   string `json:"message,omitempty"`
	Script    string `json:"script,omitempty"`
}

// ChangeAddress is the derived change destination of a proposal.
type ChangeAddress struct {
	Address    string   `json:"address"`
	Path       string   `json:"path"`
	PublicKeys []string `json:"publicKeys"`
}

// Action records one copayer vote on a proposal.
type Action struct {
	CopayerId  string     `json:"copayerId"`
	Type       ActionType `json:"type"`
	Signatures []string   `json:"signatures,omitempty"`
	Comment    string     `json:"comment,omitempty"`
	CreatedOn  int64      `json:"createdOn"`
}

// TxProposal is a candidate transaction awaiting threshold signatures.
// Once published, the authoritative copy is server-held; the client only ever
// attaches its own vote locally before resubmission.
type TxProposal struct {
	Id                 string             `json:"id"`
	Version            int                `json:"version"`
	Coin               address.Coin       `json:"coin"`
	Network            address.Network    `json:"network"`
	CreatorId          string             `json:"creatorId"`
	WalletM            int                `json:"walletM"`
	WalletN            int                `json:"walletN"`
	RequiredSignatures int                `json:"requiredSignatures"`
	RequiredRejections int                `json:"requiredRejections"`
	Status             Status             `json:"status"`
	Inputs             []Input            `json:"inputs"`
	Outputs            []Output           `json:"outputs"`
	ChangeAddress      *ChangeAddress     `json:"changeAddress,omitempty"`
	Fee                uint64             `json:"fee"`
	FeePerKb           uint64             `json:"feePerKb,omitempty"`
	AddressType        address.ScriptType `json:"addressType"`
	SigningMethod      SigningMethod      `json:"signingMethod"`
	Message            string             `json:"message,omitempty"`
	CustomData         string             `json:"customData,omitempty"`
	PayProUrl          string             `json:"payProUrl,omitempty"`
	Actions            []Action           `json:"actions"`
	TxId               string             `json:"txid,omitempty"`
	CreatedOn          int64              `json:"createdOn"`
	ProposalSignature  string             `json:"proposalSignature,omitempty"`
}

// NewProposalId returns a fresh idempotency id for proposal creation.
func NewProposalId() string {
	return uuid.New().String()
}

// CheckSupported returns ErrUpgradeNeeded when the proposal was created with
// a version or signing method this client cannot handle. It must be called
// before producing any signature.
func (t *TxProposal) CheckSupported(supportedVersion int) error {
	if t.Version > supportedVersion {
		return ErrUpgradeNeeded
	}
	if t.SigningMethod == SigningMethodSchnorr &&
		supportedVersion < SchnorrMinVersion {
		return ErrUpgradeNeeded
	}
	return nil
}

// Publish brings a temporary proposal to the pending status once the server
// acknowledged it.
func (t *TxProposal) Publish() error {
	if t.Status != StatusTemporary {
		return ErrNotTemporary
	}
	t.Status = StatusPending
	return nil
}

// HasVoted returns whether the given copayer already signed or rejected the
// proposal.
func (t *TxProposal) HasVoted(copayerId string) bool {
	for _, action := range t.Actions {
		if action.CopayerId == copayerId {
			return true
		}
	}
	return false
}

// Sign records an accept vote carrying one signature per input. The proposal
// moves to accepted once requiredSignatures distinct copayers have signed.
// Votes from different copayers are commutative: arrival order never changes
// the final status.
func (t *TxProposal) Sign(copayerId string, signatures []string) error {
	if t.Status != StatusPending {
		return ErrNotPending
	}
	if t.HasVoted(copayerId) {
		return ErrCopayerAlreadyVoted
	}
	if len(signatures) != len(t.Inputs) {
		return ErrInvalidSignatureCount
	}

	t.Actions = append(t.Actions, Action{
		CopayerId:  copayerId,
		Type:       ActionAccept,
		Signatures: signatures,
		CreatedOn:  time.Now().Unix(),
	})
	if t.countActions(ActionAccept) >= t.RequiredSignatures {
		t.Status = StatusAccepted
	}
	return nil
}

// Reject records a reject vote. The proposal moves to rejected once
// requiredRejections (n-m+1) distinct copayers have rejected.
func (t *TxProposal) Reject(copayerId, comment string) error {
	if t.Status != StatusPending {
		return ErrNotPending
	}
	if t.HasVoted(copayerId) {
		return ErrCopayerAlreadyVoted
	}

	t.Actions = append(t.Actions, Action{
		CopayerId: copayerId,
		Type:      ActionReject,
		Comment:   comment,
		CreatedOn: time.Now().Unix(),
	})
	if t.countActions(ActionReject) >= t.RequiredRejections {
		t.Status = StatusRejected
	}
	return nil
}

// Broadcast records the network transaction id of an accepted proposal.
func (t *TxProposal) Broadcast(txid string) error {
	if t.Status != StatusAccepted {
		return ErrNotAccepted
	}
	t.TxId = txid
	t.Status = StatusBroadcasted
	return nil
}

// AcceptActions returns the accept votes in arrival order.
func (t *TxProposal) AcceptActions() []Action {
	actions := make([]Action, 0, len(t.Actions))
	for _, action := range t.Actions {
		if action.Type == ActionAccept {
			actions = append(actions, action)
		}
	}
	return actions
}

func (t *TxProposal) countActions(actionType ActionType) int {
	count := 0
	for _, action := range t.Actions {
		if action.Type == actionType {
			count++
		}
	}
	return count
}

// TotalInputAmount returns the sum of the spent UTXOs.
func (t *TxProposal) TotalInputAmount() uint64 {
	var total uint64
	for _, in := range t.Inputs {
		total += in.Satoshis
	}
	return total
}

// TotalOutputAmount returns the sum of the declared outputs, change excluded.
func (t *TxProposal) TotalOutputAmount() uint64 {
	var total uint64
	for _, out := range t.Outputs {
		total += out.Amount
	}
	return total
}
