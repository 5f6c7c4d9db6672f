// Package client implements the wallet-server API client. It owns request
// authentication, the server error taxonomy and the encrypted-field handling
// at the boundary; every security-relevant response is routed through
// pkg/verifier before it is returned to the caller.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vaultex-network/vaultex-client/pkg/credentials"
	"github.com/vaultex-network/vaultex-client/pkg/wallet"
)

// Version is sent as x-client-version on every request.
const Version = "vaultex-client-go-1.0.0"

var (
	// ErrNullTransport ...
	ErrNullTransport = errors.New("transport must not be null")
	// ErrNullCredentials ...
	ErrNullCredentials = errors.New("credentials must not be null")
	// ErrMissingRequestPrivKey ...
	ErrMissingRequestPrivKey = errors.New(
		"credentials carry no request private key, cannot sign requests",
	)
)

// Opts is the struct given to the NewClient function
type Opts struct {
	Transport   Transport
	Credentials *credentials.Credentials
	Logger      *log.Entry
}

func (o Opts) validate() error {
	if o.Transport == nil {
		return ErrNullTransport
	}
	if o.Credentials == nil {
		return ErrNullCredentials
	}
	if o.Credentials.RequestPrivateKey() == nil {
		return ErrMissingRequestPrivKey
	}
	return nil
}

// Client talks to the wallet server on behalf of one copayer.
type Client struct {
	transport Transport
	creds     *credentials.Credentials
	log       *log.Entry
}

// NewClient returns a wallet-server client bound to the given credentials.
func NewClient(opts Opts) (*Client, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Client{
		transport: opts.Transport,
		creds:     opts.Credentials,
		log:       logger.WithField("copayerId", opts.Credentials.CopayerId),
	}, nil
}

// Credentials exposes the credentials the client operates with; mutations
// performed by wallet operations (ring completion, wallet info) are visible
// to the caller through it.
func (c *Client) Credentials() *credentials.Credentials {
	return c.creds
}

// do performs a signed request and decodes the response into result when it
// is non-nil.
func (c *Client) do(
	ctx context.Context, method, path string,
	payload, result interface{},
) error {
	body := []byte("{}")
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = encoded
	}

	headers := map[string]string{
		"Content-Type":     "application/json",
		"x-client-version": Version,
	}
	c.signRequest(method, path, body, headers)

	reqBody := body
	if method == http.MethodGet || method == http.MethodDelete {
		reqBody = nil
	}

	status, respBody, err := c.transport.Do(ctx, method, path, reqBody, headers)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		err := parseServerError(status, respBody)
		c.log.WithError(err).WithFields(log.Fields{
			"method": method,
			"path":   path,
			"status": status,
		}).Debug("request failed")
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return err
		}
	}
	return nil
}

// signRequest authenticates the request: x-identity carries the copayer id,
// x-signature covers method|path|body under the request private key.
func (c *Client) signRequest(
	method, path string, body []byte, headers map[string]string,
) {
	message := strings.ToLower(method) + "|" + path + "|" + string(body)
	headers["x-identity"] = c.creds.CopayerId
	headers["x-signature"] = wallet.SignMessage(
		message, c.creds.RequestPrivateKey(),
	)
}
