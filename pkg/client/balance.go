package client

import (
	"context"
	"net/http"

	"github.com/vaultex-network/vaultex-client/pkg/proposal"
)

// Balance is the wallet balance breakdown: locked amounts are reserved by
// pending proposals and cannot back new ones.
type Balance struct {
	TotalAmount              uint64 `json:"totalAmount"`
	LockedAmount             uint64 `json:"lockedAmount"`
	TotalConfirmedAmount     uint64 `json:"totalConfirmedAmount"`
	LockedConfirmedAmount    uint64 `json:"lockedConfirmedAmount"`
	AvailableAmount          uint64 `json:"availableAmount"`
	AvailableConfirmedAmount uint64 `json:"availableConfirmedAmount"`
}

// GetBalance fetches the wallet balance.
func (c *Client) GetBalance(ctx context.Context) (*Balance, error) {
	balance := &Balance{}
	if err := c.do(
		ctx, http.MethodGet, "/v1/balance/", nil, balance,
	); err != nil {
		return nil, err
	}
	return balance, nil
}

// GetUtxos fetches the spendable utxos of the wallet in the shape the
// proposal builder consumes.
func (c *Client) GetUtxos(ctx context.Context) ([]proposal.Input, error) {
	utxos := []proposal.Input{}
	if err := c.do(ctx, http.MethodGet, "/v1/utxos/", nil, &utxos); err != nil {
		return nil, err
	}
	return utxos, nil
}

// FeeLevelInfo is one entry of the server fee estimation.
type FeeLevelInfo struct {
	Level    string `json:"level"`
	FeePerKb uint64 `json:"feePerKb"`
	NbBlocks int    `json:"nbBlocks"`
}

// GetFeeLevels fetches the named fee levels for the wallet coin and network.
func (c *Client) GetFeeLevels(ctx context.Context) ([]FeeLevelInfo, error) {
	path := "/v2/feelevels/?coin=" + c.creds.Coin.String() +
		"&network=" + c.creds.Network.String()

	levels := []FeeLevelInfo{}
	if err := c.do(ctx, http.MethodGet, path, nil, &levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// FeeEstimates reshapes the server fee levels into the confirmation-target
// map the proposal builder resolves levels against.
func (c *Client) FeeEstimates(ctx context.Context) (map[int]uint64, error) {
	levels, err := c.GetFeeLevels(ctx)
	if err != nil {
		return nil, err
	}
	estimates := make(map[int]uint64, len(levels))
	for _, level := range levels {
		if level.NbBlocks > 0 {
			estimates[level.NbBlocks] = level.FeePerKb
		}
	}
	return estimates, nil
}
