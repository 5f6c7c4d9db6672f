package client

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/vaultex-network/vaultex-client/pkg/credentials"
	"github.com/vaultex-network/vaultex-client/pkg/crypter"
	"github.com/vaultex-network/vaultex-client/pkg/proposal"
	"github.com/vaultex-network/vaultex-client/pkg/secret"
	"github.com/vaultex-network/vaultex-client/pkg/verifier"
	"github.com/vaultex-network/vaultex-client/pkg/wallet"
)

var (
	// ErrWalletAlreadyBound ...
	ErrWalletAlreadyBound = errors.New(
		"credentials are already bound to a wallet",
	)
	// ErrWalletNotBound ...
	ErrWalletNotBound = errors.New("credentials are not bound to a wallet yet")
	// ErrSecretMismatch ...
	ErrSecretMismatch = errors.New(
		"secret does not match the credentials coin or network",
	)
)

// Wallet is the server-side wallet record, with encrypted fields already
// decrypted for display.
type Wallet struct {
	Id            string             `json:"id"`
	Name          string             `json:"name"`
	M             int                `json:"m"`
	N             int                `json:"n"`
	Status        string             `json:"status"`
	SingleAddress bool               `json:"singleAddress"`
	Copayers      []verifier.Copayer `json:"copayers"`
}

// Status is the full wallet state returned by GetStatus.
type Status struct {
	Wallet      *Wallet                `json:"wallet"`
	Balance     *Balance               `json:"balance,omitempty"`
	PendingTxps []*proposal.TxProposal `json:"pendingTxps"`
	Preferences *Preferences           `json:"preferences,omitempty"`
}

// CreateWalletOpts is the struct given to the CreateWallet method
type CreateWalletOpts struct {
	Name          string
	CopayerName   string
	M             int
	N             int
	SingleAddress bool
}

func (o CreateWalletOpts) validate() error {
	if len(o.Name) <= 0 {
		return errors.New("wallet name must not be null")
	}
	if o.M < 1 || o.N < o.M {
		return fmt.Errorf("invalid wallet threshold %d-of-%d", o.M, o.N)
	}
	return nil
}

type createWalletRequest struct {
	Name          string `json:"name"`
	M             int    `json:"m"`
	N             int    `json:"n"`
	PubKey        string `json:"pubKey"`
	Coin          string `json:"coin"`
	Network       string `json:"network"`
	SingleAddress bool   `json:"singleAddress"`
}

type createWalletResponse struct {
	WalletId string `json:"walletId"`
}

// CreateWallet registers a new m-of-n wallet on the server and joins it as
// the first copayer. For shared wallets it returns the secret the remaining
// copayers join with; for 1-of-1 wallets the secret is empty.
func (c *Client) CreateWallet(
	ctx context.Context, opts CreateWalletOpts,
) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if len(c.creds.WalletId) > 0 {
		return "", ErrWalletAlreadyBound
	}
	if opts.N != c.creds.N {
		return "", fmt.Errorf(
			"credentials were derived for an n of %d", c.creds.N,
		)
	}

	walletPrivKey, err := btcec.NewPrivateKey()
	if err != nil {
		return "", err
	}
	walletPrivKeyHex := hex.EncodeToString(walletPrivKey.Serialize())
	sharedEncKey := credentials.PrivateKeyToAESKey(walletPrivKeyHex)

	encName, err := crypter.Encrypt(opts.Name, sharedEncKey)
	if err != nil {
		return "", err
	}

	resp := &createWalletResponse{}
	if err := c.do(ctx, http.MethodPost, "/v2/wallets/", createWalletRequest{
		Name:          encName,
		M:             opts.M,
		N:             opts.N,
		PubKey:        hex.EncodeToString(walletPrivKey.PubKey().SerializeCompressed()),
		Coin:          c.creds.Coin.String(),
		Network:       c.creds.Network.String(),
		SingleAddress: opts.SingleAddress,
	}, resp); err != nil {
		return "", err
	}

	if err := c.creds.AddWalletInfo(credentials.AddWalletInfoOpts{
		WalletId:      resp.WalletId,
		WalletName:    opts.Name,
		M:             opts.M,
		N:             opts.N,
		WalletPrivKey: walletPrivKeyHex,
		CopayerName:   opts.CopayerName,
	}); err != nil {
		return "", err
	}

	if err := c.joinWallet(ctx, resp.WalletId, opts.CopayerName); err != nil {
		return "", err
	}

	c.log.WithField("walletId", resp.WalletId).Info("wallet created")

	if opts.N == 1 {
		return "", nil
	}
	return secret.Build(
		resp.WalletId, walletPrivKey, c.creds.Coin, c.creds.Network,
	)
}

// JoinWalletOpts is the struct given to the JoinWallet method
type JoinWalletOpts struct {
	Secret      string
	CopayerName string
}

// JoinWallet joins an existing shared wallet through its secret.
func (c *Client) JoinWallet(ctx context.Context, opts JoinWalletOpts) error {
	if len(c.creds.WalletId) > 0 {
		return ErrWalletAlreadyBound
	}

	parsed, err := secret.Parse(opts.Secret)
	if err != nil {
		return err
	}
	if parsed.Coin != c.creds.Coin || parsed.Network != c.creds.Network {
		return ErrSecretMismatch
	}

	walletPrivKeyHex := hex.EncodeToString(parsed.WalletPrivKey.Serialize())
	c.creds.AddWalletPrivateKey(walletPrivKeyHex)

	if err := c.joinWallet(ctx, parsed.WalletId, opts.CopayerName); err != nil {
		return err
	}

	status, err := c.GetStatus(ctx, GetStatusOpts{})
	if err != nil {
		return err
	}
	return c.creds.AddWalletInfo(credentials.AddWalletInfoOpts{
		WalletId:    parsed.WalletId,
		WalletName:  status.Wallet.Name,
		M:           status.Wallet.M,
		N:           status.Wallet.N,
		CopayerName: opts.CopayerName,
	})
}

type joinWalletRequest struct {
	WalletId         string `json:"walletId"`
	Coin             string `json:"coin"`
	Name             string `json:"name"`
	XPubKey          string `json:"xPubKey"`
	RequestPubKey    string `json:"requestPubKey"`
	CopayerSignature string `json:"copayerSignature"`
	CustomData       string `json:"customData,omitempty"`
}

// joinWallet registers this copayer on the server wallet. The copayer entry
// is signed with the wallet private key so the roster stays verifiable by
// every member.
func (c *Client) joinWallet(
	ctx context.Context, walletId, copayerName string,
) error {
	walletPrivKey := c.creds.WalletPrivateKey()
	if walletPrivKey == nil {
		return verifier.ErrMissingWalletPrivKey
	}

	encName, err := crypter.Encrypt(copayerName, c.creds.SharedEncryptingKey)
	if err != nil {
		return err
	}
	// the copayer id travels encrypted under the personal key so only this
	// device can recognize its own entry from a backup
	customData, err := crypter.Encrypt(
		c.creds.CopayerId, c.creds.PersonalEncryptingKey,
	)
	if err != nil {
		return err
	}

	hash := verifier.CopayerHash(
		encName, c.creds.XPubKey, c.creds.RequestPubKey,
	)

	path := fmt.Sprintf("/v2/wallets/%s/copayers/", walletId)
	return c.do(ctx, http.MethodPost, path, joinWalletRequest{
		WalletId:         walletId,
		Coin:             c.creds.Coin.String(),
		Name:             encName,
		XPubKey:          c.creds.XPubKey,
		RequestPubKey:    c.creds.RequestPubKey,
		CopayerSignature: wallet.SignMessage(hash, walletPrivKey),
		CustomData:       customData,
	}, nil)
}

// GetStatusOpts is the struct given to the GetStatus method
type GetStatusOpts struct {
	IncludeExtendedInfo bool
}

// GetStatus fetches the wallet state. The copayer roster is verified before
// anything is returned; once all n copayers have joined, the local public key
// ring is completed from the verified roster.
func (c *Client) GetStatus(
	ctx context.Context, opts GetStatusOpts,
) (*Status, error) {
	path := "/v3/wallets/"
	if opts.IncludeExtendedInfo {
		path += "?includeExtendedInfo=1"
	}

	status := &Status{}
	if err := c.do(ctx, http.MethodGet, path, nil, status); err != nil {
		return nil, err
	}
	if status.Wallet == nil {
		return nil, ErrWalletNotFound
	}

	if err := verifier.CheckCopayers(c.creds, status.Wallet.Copayers); err != nil {
		c.log.WithError(err).Warn("wallet roster failed verification")
		return nil, err
	}

	if status.Wallet.Status == "complete" &&
		len(status.Wallet.Copayers) == c.creds.N {
		ring := make(
			[]credentials.PublicKeyRingEntry, 0, len(status.Wallet.Copayers),
		)
		for _, copayer := range status.Wallet.Copayers {
			ring = append(ring, credentials.PublicKeyRingEntry{
				XPubKey:       copayer.XPubKey,
				RequestPubKey: copayer.RequestPubKey,
				CopayerName: crypter.DecryptNoThrow(
					copayer.Name, c.creds.SharedEncryptingKey,
				),
			})
		}
		if err := c.creds.AddPublicKeyRing(ring); err != nil {
			return nil, err
		}
	}

	c.decryptStatusFields(status)
	return status, nil
}

// decryptStatusFields replaces encrypted display fields in place. Fields that
// cannot be decrypted render as the sentinel instead of failing the call.
func (c *Client) decryptStatusFields(status *Status) {
	sharedKey := c.creds.SharedEncryptingKey
	if len(sharedKey) <= 0 {
		return
	}
	status.Wallet.Name = crypter.DecryptNoThrow(status.Wallet.Name, sharedKey)
	for i, copayer := range status.Wallet.Copayers {
		status.Wallet.Copayers[i].Name = crypter.DecryptNoThrow(
			copayer.Name, sharedKey,
		)
	}
	// pending proposal messages stay encrypted so their header signatures
	// remain verifiable; DecryptMessage renders them on demand
}
