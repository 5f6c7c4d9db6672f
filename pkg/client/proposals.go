package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vaultex-network/vaultex-client/pkg/crypter"
	"github.com/vaultex-network/vaultex-client/pkg/proposal"
	"github.com/vaultex-network/vaultex-client/pkg/verifier"
	"github.com/vaultex-network/vaultex-client/pkg/wallet"
)

// CreateTxProposalOpts is the struct given to the CreateTxProposal method
type CreateTxProposalOpts struct {
	// TxProposalId is an optional idempotency key; retrying with the same id
	// never produces a duplicate proposal.
	TxProposalId string

	ToAddress string
	Amount    uint64
	Outputs   []proposal.Output

	Message            string
	ExcludeUnconfirmed bool
	FeeLevel           proposal.FeeLevel
	FeePerKb           uint64
	SigningMethod      proposal.SigningMethod
	PayProUrl          string

	// DryRun builds and validates the proposal locally without submitting
	// it to the server.
	DryRun bool
}

// CreateTxProposal builds a transaction proposal from the wallet's spendable
// utxos and registers it on the server in the temporary status. Display
// messages are encrypted under the shared key before they leave the device.
func (c *Client) CreateTxProposal(
	ctx context.Context, opts CreateTxProposalOpts,
) (*proposal.TxProposal, error) {
	if !c.creds.IsComplete() {
		return nil, verifier.ErrMissingPublicKeyRing
	}

	utxos, err := c.GetUtxos(ctx)
	if err != nil {
		return nil, err
	}

	var estimates map[int]uint64
	if opts.FeePerKb == 0 {
		estimates, err = c.FeeEstimates(ctx)
		if err != nil {
			return nil, err
		}
	}

	changeAddr, err := c.createChangeAddress(ctx)
	if err != nil {
		return nil, err
	}

	outputs, err := c.encryptOutputs(opts.Outputs)
	if err != nil {
		return nil, err
	}
	message, err := c.encryptField(opts.Message)
	if err != nil {
		return nil, err
	}

	txp, err := proposal.CreateTxProposal(proposal.CreateTxProposalOpts{
		TxProposalId:       opts.TxProposalId,
		Coin:               c.creds.Coin,
		Network:            c.creds.Network,
		CreatorId:          c.creds.CopayerId,
		M:                  c.creds.M,
		N:                  c.creds.N,
		AddressType:        c.creds.AddressType,
		ToAddress:          opts.ToAddress,
		Amount:             opts.Amount,
		Outputs:            outputs,
		Utxos:              utxos,
		ChangeAddress:      changeAddr,
		ExcludeUnconfirmed: opts.ExcludeUnconfirmed,
		FeePerKb:           opts.FeePerKb,
		FeeLevel:           opts.FeeLevel,
		FeeEstimates:       estimates,
		SigningMethod:      opts.SigningMethod,
		Message:            message,
		PayProUrl:          opts.PayProUrl,
	})
	if err != nil {
		return nil, err
	}
	if opts.DryRun {
		return txp, nil
	}

	if err := c.do(
		ctx, http.MethodPost, "/v3/txproposals/", txp, nil,
	); err != nil {
		return nil, err
	}
	c.log.WithField("txProposalId", txp.Id).Info("tx proposal created")
	return txp, nil
}

type publishRequest struct {
	ProposalSignature string `json:"proposalSignature"`
}

// PublishTxProposal signs the proposal header with the request key and moves
// the proposal to pending, making it visible to the other copayers.
func (c *Client) PublishTxProposal(
	ctx context.Context, txp *proposal.TxProposal,
) error {
	txp.ProposalSignature = wallet.SignMessage(
		txp.Header(), c.creds.RequestPrivateKey(),
	)

	path := fmt.Sprintf("/v2/txproposals/%s/publish/", txp.Id)
	if err := c.do(ctx, http.MethodPost, path, publishRequest{
		ProposalSignature: txp.ProposalSignature,
	}, txp); err != nil {
		return err
	}
	if txp.Status == proposal.StatusTemporary {
		return txp.Publish()
	}
	return nil
}

// GetTxProposals fetches the pending proposals of the wallet. Every proposal
// is authenticated against the local ring before being returned; encrypted
// fields stay encrypted so signatures remain verifiable, use DecryptMessage
// for display.
func (c *Client) GetTxProposals(
	ctx context.Context,
) ([]*proposal.TxProposal, error) {
	txps := []*proposal.TxProposal{}
	if err := c.do(
		ctx, http.MethodGet, "/v2/txproposals/", nil, &txps,
	); err != nil {
		return nil, err
	}

	for _, txp := range txps {
		if err := verifier.CheckProposal(c.creds, txp, nil); err != nil {
			c.log.WithError(err).WithField("txProposalId", txp.Id).
				Warn("tx proposal failed verification")
			return nil, err
		}
	}
	return txps, nil
}

type signaturesRequest struct {
	Signatures []string `json:"signatures"`
}

// SignTxProposal submits this copayer's input signatures for a pending
// proposal. The proposal is re-verified and the local state machine is
// consulted first, so a compromised server cannot trick a copayer into
// signing twice or signing a tampered proposal.
func (c *Client) SignTxProposal(
	ctx context.Context, txp *proposal.TxProposal, signatures []string,
) error {
	if err := verifier.CheckProposal(c.creds, txp, nil); err != nil {
		c.log.WithError(err).WithField("txProposalId", txp.Id).
			Warn("refusing to sign, tx proposal failed verification")
		return err
	}
	if err := txp.CheckSupported(proposal.ProtocolVersion); err != nil {
		return err
	}
	if txp.Status != proposal.StatusPending {
		return proposal.ErrNotPending
	}
	if txp.HasVoted(c.creds.CopayerId) {
		return proposal.ErrCopayerAlreadyVoted
	}

	path := fmt.Sprintf("/v1/txproposals/%s/signatures/", txp.Id)
	if err := c.do(ctx, http.MethodPost, path, signaturesRequest{
		Signatures: signatures,
	}, nil); err != nil {
		return err
	}
	return txp.Sign(c.creds.CopayerId, signatures)
}

type rejectRequest struct {
	Comment string `json:"comment,omitempty"`
}

// RejectTxProposal records this copayer's rejection. The comment travels
// encrypted under the shared key.
func (c *Client) RejectTxProposal(
	ctx context.Context, txp *proposal.TxProposal, comment string,
) error {
	if txp.Status != proposal.StatusPending {
		return proposal.ErrNotPending
	}
	if txp.HasVoted(c.creds.CopayerId) {
		return proposal.ErrCopayerAlreadyVoted
	}

	encComment, err := c.encryptField(comment)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/v1/txproposals/%s/rejections/", txp.Id)
	if err := c.do(ctx, http.MethodPost, path, rejectRequest{
		Comment: encComment,
	}, nil); err != nil {
		return err
	}
	return txp.Reject(c.creds.CopayerId, encComment)
}

type broadcastResponse struct {
	Txid string `json:"txid"`
}

// BroadcastTxProposal asks the server to broadcast an accepted proposal and
// records the resulting txid.
func (c *Client) BroadcastTxProposal(
	ctx context.Context, txp *proposal.TxProposal,
) (string, error) {
	path := fmt.Sprintf("/v1/txproposals/%s/broadcast/", txp.Id)
	resp := &broadcastResponse{}
	if err := c.do(ctx, http.MethodPost, path, nil, resp); err != nil {
		return "", err
	}
	if err := txp.Broadcast(resp.Txid); err != nil {
		return "", err
	}
	c.log.WithFields(map[string]interface{}{
		"txProposalId": txp.Id,
		"txid":         resp.Txid,
	}).Info("tx proposal broadcasted")
	return resp.Txid, nil
}

// RemoveTxProposal deletes a proposal this copayer created, as long as no
// other copayer has acted on it.
func (c *Client) RemoveTxProposal(
	ctx context.Context, txp *proposal.TxProposal,
) error {
	path := fmt.Sprintf("/v1/txproposals/%s", txp.Id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetSendMaxInfoOpts is the struct given to the GetSendMaxInfo method
type GetSendMaxInfoOpts struct {
	FeeLevel           proposal.FeeLevel
	FeePerKb           uint64
	ExcludeUnconfirmed bool
	ReturnInputs       bool
}

// GetSendMaxInfo computes the maximum spendable amount of the wallet at the
// requested fee policy.
func (c *Client) GetSendMaxInfo(
	ctx context.Context, opts GetSendMaxInfoOpts,
) (*proposal.SendMaxInfo, error) {
	utxos, err := c.GetUtxos(ctx)
	if err != nil {
		return nil, err
	}

	feePerKb := opts.FeePerKb
	if feePerKb == 0 {
		estimates, err := c.FeeEstimates(ctx)
		if err != nil {
			return nil, err
		}
		level := opts.FeeLevel
		if level == "" {
			level = proposal.FeeLevelNormal
		}
		feePerKb, err = proposal.ResolveFeePerKb(level, estimates)
		if err != nil {
			return nil, err
		}
	}

	return proposal.GetSendMaxInfo(proposal.SendMaxInfoOpts{
		Utxos:              utxos,
		FeePerKb:           feePerKb,
		ExcludeUnconfirmed: opts.ExcludeUnconfirmed,
		ReturnInputs:       opts.ReturnInputs,
		AddressType:        c.creds.AddressType,
		M:                  c.creds.M,
		N:                  c.creds.N,
	})
}

// DecryptMessage renders an encrypted proposal or note field for display.
func (c *Client) DecryptMessage(cypherText string) string {
	if len(cypherText) <= 0 {
		return ""
	}
	return crypter.DecryptNoThrow(cypherText, c.creds.SharedEncryptingKey)
}

// createChangeAddress derives a fresh change address on the server and
// verifies it against the local ring.
func (c *Client) createChangeAddress(
	ctx context.Context,
) (*proposal.ChangeAddress, error) {
	addr := serverAddress{}
	if err := c.do(
		ctx, http.MethodPost, "/v4/addresses/?isChange=1", nil, &addr,
	); err != nil {
		return nil, err
	}
	info := addr.toInfo()
	if err := verifier.CheckAddress(c.creds, info); err != nil {
		return nil, err
	}
	return &proposal.ChangeAddress{
		Address:    info.Address,
		Path:       info.Path,
		PublicKeys: info.PublicKeys,
	}, nil
}

func (c *Client) encryptField(plainText string) (string, error) {
	if len(plainText) <= 0 {
		return "", nil
	}
	return crypter.Encrypt(plainText, c.creds.SharedEncryptingKey)
}

func (c *Client) encryptOutputs(
	outputs []proposal.Output,
) ([]proposal.Output, error) {
	if len(outputs) <= 0 {
		return nil, nil
	}
	encrypted := make([]proposal.Output, len(outputs))
	copy(encrypted, outputs)
	for i := range encrypted {
		message, err := c.encryptField(encrypted[i].Message)
		if err != nil {
			return nil, err
		}
		encrypted[i].Message = message
	}
	return encrypted, nil
}
