package esplora

import (
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/vaultex-network/vaultex-client/pkg/circuitbreaker"
	"github.com/vaultex-network/vaultex-client/pkg/explorer"
	"github.com/vaultex-network/vaultex-client/pkg/util"
)

const defaultRequestsPerSecond = 10

type esplora struct {
	apiURL  string
	limiter ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewService returns a new esplora service as an explorer.Service interface.
// Calls are rate limited and wrapped in a circuit breaker so a flaky explorer
// degrades into fast failures instead of piling up timeouts.
func NewService(apiURL string, requestsPerSecond int) (explorer.Service, error) {
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}
	service := &esplora{
		apiURL:  apiURL,
		limiter: ratelimit.New(requestsPerSecond),
		breaker: circuitbreaker.NewCircuitBreaker("esplora"),
	}

	if err := service.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

func (e *esplora) healthCheck() error {
	url := fmt.Sprintf("%s/blocks/tip/height", e.apiURL)
	status, resp, err := e.newHTTPRequest("GET", url, "")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf(resp)
	}
	return nil
}

// newHTTPRequest routes every explorer call through the rate limiter and the
// circuit breaker.
func (e *esplora) newHTTPRequest(
	method, url, body string,
) (int, string, error) {
	e.limiter.Take()

	result, err := e.breaker.Execute(func() (interface{}, error) {
		status, resp, err := util.NewHTTPRequest(method, url, body, nil)
		if err != nil {
			return nil, err
		}
		if status >= http.StatusInternalServerError {
			return nil, fmt.Errorf(
				"explorer responded with status %d: %s", status, resp,
			)
		}
		return &httpResponse{status, resp}, nil
	})
	if err != nil {
		return 0, "", err
	}

	resp := result.(*httpResponse)
	return resp.status, resp.body, nil
}

type httpResponse struct {
	status int
	body   string
}
