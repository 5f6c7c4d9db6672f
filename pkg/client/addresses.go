package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vaultex-network/vaultex-client/pkg/address"
	"github.com/vaultex-network/vaultex-client/pkg/verifier"
)

type serverAddress struct {
	Address    string   `json:"address"`
	Path       string   `json:"path"`
	PublicKeys []string `json:"publicKeys"`
}

func (a serverAddress) toInfo() *address.Info {
	return &address.Info{
		Address:    a.Address,
		Path:       a.Path,
		PublicKeys: a.PublicKeys,
	}
}

// CreateAddress asks the server for the next receive address and re-derives
// it locally before returning it. A server that hands out an address the
// local ring cannot reproduce is reported as compromised.
func (c *Client) CreateAddress(ctx context.Context) (*address.Info, error) {
	if !c.creds.IsComplete() {
		return nil, verifier.ErrMissingPublicKeyRing
	}

	addr := serverAddress{}
	if err := c.do(
		ctx, http.MethodPost, "/v4/addresses/", nil, &addr,
	); err != nil {
		return nil, err
	}

	info := addr.toInfo()
	if err := verifier.CheckAddress(c.creds, info); err != nil {
		c.log.WithError(err).Warn("server address failed verification")
		return nil, err
	}
	return info, nil
}

// GetMainAddressesOpts is the struct given to the GetMainAddresses method
type GetMainAddressesOpts struct {
	Limit   int
	Reverse bool
}

// GetMainAddresses lists the wallet receive addresses, each verified against
// the local ring.
func (c *Client) GetMainAddresses(
	ctx context.Context, opts GetMainAddressesOpts,
) ([]*address.Info, error) {
	if !c.creds.IsComplete() {
		return nil, verifier.ErrMissingPublicKeyRing
	}

	path := "/v1/addresses/?"
	if opts.Limit > 0 {
		path += fmt.Sprintf("limit=%d&", opts.Limit)
	}
	if opts.Reverse {
		path += "reverse=1"
	}

	addrs := []serverAddress{}
	if err := c.do(ctx, http.MethodGet, path, nil, &addrs); err != nil {
		return nil, err
	}

	infos := make([]*address.Info, 0, len(addrs))
	for _, addr := range addrs {
		info := addr.toInfo()
		if err := verifier.CheckAddress(c.creds, info); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
