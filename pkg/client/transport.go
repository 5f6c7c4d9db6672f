package client

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/vaultex-network/vaultex-client/pkg/circuitbreaker"
	"github.com/vaultex-network/vaultex-client/pkg/util"
)

// Transport performs one request against the wallet server and returns the
// response status and body. Implementations carry the base url; callers pass
// server paths like /v2/wallets.
type Transport interface {
	Do(
		ctx context.Context, method, path string,
		body []byte, headers map[string]string,
	) (int, []byte, error)
}

type httpTransport struct {
	baseURL string
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPTransport returns a Transport hitting the wallet server over http,
// wrapped in a circuit breaker.
func NewHTTPTransport(baseURL string) Transport {
	return &httpTransport{
		baseURL: baseURL,
		breaker: circuitbreaker.NewCircuitBreaker("walletserver"),
	}
}

func (t *httpTransport) Do(
	ctx context.Context, method, path string,
	body []byte, headers map[string]string,
) (int, []byte, error) {
	type response struct {
		status int
		body   string
	}

	result, err := t.breaker.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		status, resp, err := util.NewHTTPRequest(
			method, t.baseURL+path, string(body), headers,
		)
		if err != nil {
			return nil, err
		}
		return &response{status, resp}, nil
	})
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s", ErrConnection, err)
	}

	resp := result.(*response)
	return resp.status, []byte(resp.body), nil
}
